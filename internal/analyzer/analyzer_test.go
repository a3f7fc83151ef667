package analyzer_test

import (
	"testing"

	"dirhunter/internal/analyzer"
	"dirhunter/internal/scan"
)

func htmlFinding(u, body string) analyzer.Finding {
	return analyzer.Finding{
		Result: scan.Result{URL: u, StatusCode: 200, ContentType: "text/html"},
		Body:   []byte(body),
	}
}

func TestEligible(t *testing.T) {
	a := analyzer.New()

	cases := []struct {
		status      int
		contentType string
		want        bool
	}{
		{200, "text/html; charset=utf-8", true},
		{200, "application/json", true},
		{200, "application/javascript", true},
		{200, "application/xml", true},
		{200, "image/png", false},
		{200, "application/octet-stream", false},
		{301, "text/html", false},
		{404, "text/html", false},
	}
	for _, tc := range cases {
		r := scan.Result{StatusCode: tc.status, ContentType: tc.contentType}
		if got := a.Eligible(r); got != tc.want {
			t.Errorf("Eligible(%d, %q) = %v, want %v", tc.status, tc.contentType, got, tc.want)
		}
	}
}

func TestExtractCandidatesFromMarkup(t *testing.T) {
	a := analyzer.New()
	body := `<html><body>
		<a href="/dashboard">Dashboard</a>
		<a href="settings.php">Settings</a>
		<link href="/assets/app.css" rel="stylesheet">
		<script src="/js/app.js"></script>
		<img src="logo.png">
		<form action="/api/login"></form>
		<a href="https://other.example.org/elsewhere">external</a>
		<a href="mailto:admin@example.com">mail</a>
		<a href="#section">anchor</a>
	</body></html>`

	got := a.ExtractCandidates([]analyzer.Finding{
		htmlFinding("http://example.com/admin/index.html", body),
	})

	want := map[string]bool{
		"http://example.com/dashboard":          true,
		"http://example.com/admin/settings.php": true,
		"http://example.com/assets/app.css":     true,
		"http://example.com/js/app.js":          true,
		"http://example.com/admin/logo.png":     true,
		"http://example.com/api/login":          true,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates %v, want %d", len(got), got, len(want))
	}
	for _, u := range got {
		if !want[u] {
			t.Errorf("unexpected candidate %q", u)
		}
	}
}

func TestExtractCandidatesFromScript(t *testing.T) {
	a := analyzer.New()
	body := `fetch("/api/v2/users").then(r => r.json());
		const admin = '/internal/admin';
		const bad = "not-a-route";`

	got := a.ExtractCandidates([]analyzer.Finding{
		{
			Result: scan.Result{URL: "http://example.com/app.js", StatusCode: 200, ContentType: "application/javascript"},
			Body:   []byte(body),
		},
	})

	want := map[string]bool{
		"http://example.com/api/v2/users":   true,
		"http://example.com/internal/admin": true,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %d candidates", got, len(want))
	}
	for _, u := range got {
		if !want[u] {
			t.Errorf("unexpected candidate %q", u)
		}
	}
}

func TestExtractCandidatesStripsQueryAndFragment(t *testing.T) {
	a := analyzer.New()
	body := `<a href="/search?q=x#results">search</a>`

	got := a.ExtractCandidates([]analyzer.Finding{
		htmlFinding("http://example.com/", body),
	})
	if len(got) != 1 || got[0] != "http://example.com/search" {
		t.Errorf("got %v, want [http://example.com/search]", got)
	}
}

func TestExtractCandidatesDeduplicates(t *testing.T) {
	a := analyzer.New()
	body := `<a href="/x">one</a><a href="/x">two</a>`

	got := a.ExtractCandidates([]analyzer.Finding{
		htmlFinding("http://example.com/", body),
		htmlFinding("http://example.com/sub/", body),
	})
	if len(got) != 1 {
		t.Errorf("got %v, want a single deduplicated candidate", got)
	}
}

func TestExtractCandidatesEmptyInput(t *testing.T) {
	a := analyzer.New()
	if got := a.ExtractCandidates(nil); got != nil {
		t.Errorf("ExtractCandidates(nil) = %v, want nil", got)
	}
	if got := a.ExtractCandidates([]analyzer.Finding{}); got != nil {
		t.Errorf("ExtractCandidates(empty) = %v, want nil", got)
	}
}

func TestExtractCandidatesSkipsRootOnlyLinks(t *testing.T) {
	a := analyzer.New()
	body := `<a href="/">home</a><a href="http://example.com">bare</a>`
	got := a.ExtractCandidates([]analyzer.Finding{
		htmlFinding("http://example.com/page", body),
	})
	if len(got) != 0 {
		t.Errorf("got %v, want no candidates for root links", got)
	}
}
