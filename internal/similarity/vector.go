// Package similarity computes content signatures used to compare HTTP
// response bodies. A body is reduced to a fixed-size feature vector; two
// bodies that render the same page with different embedded nonces or
// timestamps still land close to each other under cosine similarity,
// because each volatile token perturbs only a handful of buckets.
package similarity

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"math"
	"strings"

	"golang.org/x/net/html"
)

// VectorDimensions determines the size of the feature vector.
const VectorDimensions = 64

// Vector is the feature vector of a response body.
type Vector [VectorDimensions]int

// NewVector builds a feature vector from a response body. HTML bodies are
// parsed and hashed per text node, weighted by DOM depth; non-HTML bodies
// fall back to per-line hashing so plain-text and JSON error pages still
// produce stable signatures.
func NewVector(body []byte, contentType string) Vector {
	if isMarkup(contentType, body) {
		if v, ok := htmlVector(body); ok {
			return v
		}
	}
	return textVector(body)
}

func isMarkup(contentType string, body []byte) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "html") || strings.Contains(ct, "xml") {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	return bytes.HasPrefix(trimmed, []byte("<"))
}

func htmlVector(body []byte) (Vector, bool) {
	var vector Vector
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return vector, false
	}

	var traverse func(*html.Node, int)
	traverse = func(n *html.Node, depth int) {
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
			vector[bucket(n.Data)] += depth
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c, depth+1)
		}
	}

	traverse(doc, 1)
	return vector, true
}

func textVector(body []byte) Vector {
	var vector Vector
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		vector[bucket(line)]++
	}
	return vector
}

func bucket(s string) int {
	h := sha1.Sum([]byte(s))
	return int(binary.BigEndian.Uint64(h[:8]) % VectorDimensions)
}

// Cosine calculates the similarity between two vectors. It returns a value
// between 0 (unrelated) and 1 (identical). Two zero vectors are identical.
func Cosine(v1, v2 Vector) float64 {
	var dot, mag1, mag2 float64
	for i := 0; i < VectorDimensions; i++ {
		dot += float64(v1[i] * v2[i])
		mag1 += float64(v1[i] * v1[i])
		mag2 += float64(v2[i] * v2[i])
	}
	if mag1 == 0 && mag2 == 0 {
		return 1
	}
	if mag1 == 0 || mag2 == 0 {
		return 0
	}
	return dot / (math.Sqrt(mag1) * math.Sqrt(mag2))
}
