// Package analyzer mines response bodies of genuine findings for additional
// candidate paths: hyperlinks and script/form references in markup, and
// route-shaped strings embedded in script or JSON payloads.
package analyzer

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"dirhunter/internal/scan"
)

// quoted root-relative paths inside script/JSON payloads, e.g. "/api/users".
var routeRegex = regexp.MustCompile(`["'](/[a-zA-Z0-9_\-./]{2,})["']`)

// Finding carries one analyzable finding with its response body, which the
// immutable scan.Result deliberately does not retain.
type Finding struct {
	Result scan.Result
	Body   []byte
}

// Analyzer extracts candidate URLs from finding bodies.
type Analyzer struct{}

// New creates an Analyzer.
func New() *Analyzer { return &Analyzer{} }

// Eligible reports whether a finding's body is worth mining: success
// responses whose content type is markup or script/JSON-like.
func (a *Analyzer) Eligible(r scan.Result) bool {
	if r.StatusCode != 200 {
		return false
	}
	ct := strings.ToLower(r.ContentType)
	switch {
	case strings.Contains(ct, "html"), strings.Contains(ct, "xml"):
		return true
	case strings.Contains(ct, "javascript"), strings.Contains(ct, "json"):
		return true
	}
	return false
}

// ExtractCandidates mines all findings and returns de-duplicated absolute
// URLs, resolved against the directory of the earliest scanned result so
// that absolute links to unrelated domains never enter the queue. An empty
// finding set yields no candidates.
func (a *Analyzer) ExtractCandidates(findings []Finding) []string {
	if len(findings) == 0 {
		return nil
	}

	baseRef, err := baseReference(findings[0].Result)
	if err != nil {
		log.Debug().Err(err).Msg("Content analysis skipped: unresolvable base reference")
		return nil
	}

	seen := make(map[string]struct{})
	var candidates []string
	add := func(resolved *url.URL) {
		if resolved == nil || resolved.Host != baseRef.Host {
			return
		}
		resolved.Fragment = ""
		resolved.RawQuery = ""
		if resolved.Path == "" || resolved.Path == "/" {
			return
		}
		u := resolved.String()
		if _, ok := seen[u]; !ok {
			seen[u] = struct{}{}
			candidates = append(candidates, u)
		}
	}

	for _, f := range findings {
		if !a.Eligible(f.Result) || len(f.Body) == 0 {
			continue
		}
		ct := strings.ToLower(f.Result.ContentType)
		if strings.Contains(ct, "html") || strings.Contains(ct, "xml") {
			for _, raw := range extractMarkupRefs(f.Body) {
				add(resolve(baseRef, raw))
			}
		} else {
			for _, raw := range extractRouteStrings(f.Body) {
				add(resolve(baseRef, raw))
			}
		}
	}
	return candidates
}

// baseReference returns the resolved directory of a result's URL.
func baseReference(r scan.Result) (*url.URL, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", r.URL, err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		if i := strings.LastIndex(u.Path, "/"); i >= 0 {
			u.Path = u.Path[:i+1]
		}
	}
	return u, nil
}

func extractMarkupRefs(body []byte) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var refs []string
	doc.Find("a[href], link[href]").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok {
			refs = append(refs, href)
		}
	})
	doc.Find("script[src], img[src], iframe[src]").Each(func(_ int, sel *goquery.Selection) {
		if src, ok := sel.Attr("src"); ok {
			refs = append(refs, src)
		}
	})
	doc.Find("form[action]").Each(func(_ int, sel *goquery.Selection) {
		if action, ok := sel.Attr("action"); ok {
			refs = append(refs, action)
		}
	})

	// Inline scripts often carry route strings not present as attributes.
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		refs = append(refs, extractRouteStrings([]byte(sel.Text()))...)
	})
	return refs
}

func extractRouteStrings(body []byte) []string {
	var refs []string
	for _, m := range routeRegex.FindAllSubmatch(body, -1) {
		refs = append(refs, string(m[1]))
	}
	return refs
}

func resolve(base *url.URL, raw string) *url.URL {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	if raw == "" ||
		strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "data:") ||
		strings.HasPrefix(raw, "#") {
		return nil
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	return base.ResolveReference(ref)
}
