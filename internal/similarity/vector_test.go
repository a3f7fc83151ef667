package similarity_test

import (
	"fmt"
	"testing"

	"dirhunter/internal/similarity"
)

func TestIdenticalBodiesAreIdentical(t *testing.T) {
	body := []byte("<html><body><h1>Not Found</h1><p>Nothing here.</p></body></html>")
	v1 := similarity.NewVector(body, "text/html")
	v2 := similarity.NewVector(body, "text/html")
	if got := similarity.Cosine(v1, v2); got != 1 {
		t.Errorf("Cosine of identical bodies = %f, want 1", got)
	}
}

func TestVolatileTokenStaysSimilar(t *testing.T) {
	page := func(nonce string) []byte {
		return []byte(fmt.Sprintf(`<html><body>
			<h1>Welcome</h1>
			<p>This page does not exist on this server.</p>
			<p>Please check the URL and try again.</p>
			<div>Contact the administrator for assistance.</div>
			<footer>request id %s</footer>
		</body></html>`, nonce))
	}

	v1 := similarity.NewVector(page("a1b2c3"), "text/html")
	v2 := similarity.NewVector(page("ffee99"), "text/html")
	if got := similarity.Cosine(v1, v2); got < 0.75 {
		t.Errorf("Cosine with one volatile token = %f, want >= 0.75", got)
	}
}

func TestDifferentPagesAreNotSimilar(t *testing.T) {
	catchAll := []byte(`<html><body><h1>Oops</h1><p>404 page</p></body></html>`)
	adminPanel := []byte(`<html><body>
		<form action="/login"><input name="user"><input name="pass"></form>
		<h2>Administration Console</h2>
		<ul><li>Users</li><li>Settings</li><li>Logs</li></ul>
	</body></html>`)

	v1 := similarity.NewVector(catchAll, "text/html")
	v2 := similarity.NewVector(adminPanel, "text/html")
	if got := similarity.Cosine(v1, v2); got > 0.7 {
		t.Errorf("Cosine of unrelated pages = %f, want <= 0.7", got)
	}
}

func TestPlainTextFallback(t *testing.T) {
	v1 := similarity.NewVector([]byte("error: not found\ncode: 404"), "text/plain")
	v2 := similarity.NewVector([]byte("error: not found\ncode: 404"), "text/plain")
	if got := similarity.Cosine(v1, v2); got != 1 {
		t.Errorf("Cosine of identical text bodies = %f, want 1", got)
	}
}

func TestEmptyBodies(t *testing.T) {
	v1 := similarity.NewVector(nil, "")
	v2 := similarity.NewVector(nil, "")
	if got := similarity.Cosine(v1, v2); got != 1 {
		t.Errorf("Cosine of two empty bodies = %f, want 1", got)
	}

	v3 := similarity.NewVector([]byte("content"), "text/plain")
	if got := similarity.Cosine(v1, v3); got != 0 {
		t.Errorf("Cosine of empty vs non-empty = %f, want 0", got)
	}
}
