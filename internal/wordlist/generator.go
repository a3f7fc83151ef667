package wordlist

import (
	"net/url"
	"strings"
)

// GeneratorOptions controls how wordlist entries expand into candidates.
type GeneratorOptions struct {
	Extensions []string // e.g. "php", "html"; leading dots tolerated
	Uppercase  bool     // add an upper-cased variant of every entry
	Capitalize bool     // add a capitalized variant of every entry
	Prefixes   []string // decorations applied before the entry
	Suffixes   []string // decorations applied after the entry
}

// Generator produces a lazy, finite, restartable sequence of candidate
// paths. The order is deterministic: wordlist order, then decoration order,
// then extension order, so two scans with the same inputs probe the same
// paths in the same sequence.
type Generator struct {
	words []string
	opts  GeneratorOptions

	idx     int      // next wordlist entry
	pending []string // expanded candidates of the current entry
}

// NewGenerator creates a generator over the given wordlist entries.
func NewGenerator(words []string, opts GeneratorOptions) *Generator {
	if len(opts.Prefixes) == 0 {
		opts.Prefixes = []string{""}
	}
	if len(opts.Suffixes) == 0 {
		opts.Suffixes = []string{""}
	}
	for i, ext := range opts.Extensions {
		opts.Extensions[i] = strings.TrimPrefix(ext, ".")
	}
	return &Generator{words: words, opts: opts}
}

// Next returns the next candidate path, or ok=false when the sequence is
// exhausted.
func (g *Generator) Next() (string, bool) {
	for len(g.pending) == 0 {
		if g.idx >= len(g.words) {
			return "", false
		}
		g.pending = g.expand(g.words[g.idx])
		g.idx++
	}
	path := g.pending[0]
	g.pending = g.pending[1:]
	return path, true
}

// Reset rewinds the generator to the beginning of the sequence.
func (g *Generator) Reset() {
	g.idx = 0
	g.pending = nil
}

// Count walks the whole sequence and returns its length. The generator is
// left reset.
func (g *Generator) Count() int {
	g.Reset()
	n := 0
	for _, ok := g.Next(); ok; _, ok = g.Next() {
		n++
	}
	g.Reset()
	return n
}

// All drains the generator into a slice and leaves it reset.
func (g *Generator) All() []string {
	g.Reset()
	var out []string
	for p, ok := g.Next(); ok; p, ok = g.Next() {
		out = append(out, p)
	}
	g.Reset()
	return out
}

func (g *Generator) expand(word string) []string {
	var out []string
	emit := func(p string) {
		if p != "" {
			out = append(out, encodePath(p))
		}
	}

	for _, base := range g.caseVariants(word) {
		for _, prefix := range g.opts.Prefixes {
			for _, suffix := range g.opts.Suffixes {
				entry := prefix + base + suffix

				// Entries that already carry a file extension are probed
				// as-is; appending more extensions would only produce noise.
				if hasExtension(entry) || strings.HasSuffix(entry, "/") {
					emit(entry)
					continue
				}

				if len(g.opts.Extensions) == 0 {
					// No extensions configured: probe as a file and as a
					// directory.
					emit(entry)
					emit(entry + "/")
					continue
				}

				for _, ext := range g.opts.Extensions {
					emit(entry + "." + ext)
				}
			}
		}
	}
	return out
}

func (g *Generator) caseVariants(word string) []string {
	variants := []string{word}
	if g.opts.Uppercase {
		if upper := strings.ToUpper(word); upper != word {
			variants = append(variants, upper)
		}
	}
	if g.opts.Capitalize {
		if cap := capitalize(word); cap != word {
			variants = append(variants, cap)
		}
	}
	return variants
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// hasExtension reports whether the last path segment of the entry carries a
// file extension. Dotfiles such as ".env" do not count: the dot must follow
// at least one character.
func hasExtension(entry string) bool {
	seg := entry
	if i := strings.LastIndex(seg, "/"); i >= 0 {
		seg = seg[i+1:]
	}
	dot := strings.LastIndex(seg, ".")
	return dot > 0 && dot < len(seg)-1
}

// encodePath percent-encodes reserved characters per segment while
// preserving literal '/' separators inside multi-segment entries.
func encodePath(p string) string {
	trailing := strings.HasSuffix(p, "/")
	segments := strings.Split(strings.TrimSuffix(p, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	encoded := strings.Join(segments, "/")
	if trailing {
		encoded += "/"
	}
	return encoded
}
