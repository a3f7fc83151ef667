package wildcard_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dirhunter/internal/requester"
	"dirhunter/internal/wildcard"
)

func newTestClient(t *testing.T) *requester.Client {
	t.Helper()
	client, err := requester.NewClient(requester.Options{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

const catchAllPage = `<html><body>
<h1>Welcome to our site</h1>
<p>The page you requested has moved or never existed.</p>
<p>Use the navigation to find what you need.</p>
</body></html>`

const adminPage = `<html><body>
<form action="/login" method="post">
<input name="username"><input name="password">
<button>Sign in</button>
</form>
<h2>Administration</h2>
</body></html>`

func TestWildcardSuppression(t *testing.T) {
	// Everything under / answers 200 with the same page, except /admin.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/admin") {
			w.Write([]byte(adminPage))
			return
		}
		w.Write([]byte(catchAllPage))
	}))
	defer srv.Close()

	det := wildcard.NewDetector(newTestClient(t), 0.90)
	det.Calibrate(context.Background(), srv.URL+"/")

	if !det.Calibrated(srv.URL + "/") {
		t.Fatal("base directory should be calibrated")
	}
	if !det.Matches(srv.URL+"/", 200, int64(len(catchAllPage)), []byte(catchAllPage), "text/html") {
		t.Error("catch-all response should match the wildcard signature")
	}
	if det.Matches(srv.URL+"/", 200, int64(len(adminPage)), []byte(adminPage), "text/html") {
		t.Error("distinct admin page must not match the wildcard signature")
	}
}

func TestHonestTargetRecordsNoSignature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	det := wildcard.NewDetector(newTestClient(t), 0.90)
	det.Calibrate(context.Background(), srv.URL+"/")

	if !det.Calibrated(srv.URL + "/") {
		t.Fatal("calibration should be recorded even for honest targets")
	}
	if det.Matches(srv.URL+"/", 404, 19, []byte("404 page not found\n"), "text/plain") {
		t.Error("honest target must never suppress results")
	}
}

func TestMixedStatusesRecordNoSignature(t *testing.T) {
	var n int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n++
		if n%2 == 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(catchAllPage))
	}))
	defer srv.Close()

	det := wildcard.NewDetector(newTestClient(t), 0.90)
	det.Calibrate(context.Background(), srv.URL+"/")

	if det.Matches(srv.URL+"/", 200, int64(len(catchAllPage)), []byte(catchAllPage), "text/html") {
		t.Error("inconsistent responses must not produce a signature")
	}
}

func TestStatusMismatchNeverMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(catchAllPage))
	}))
	defer srv.Close()

	det := wildcard.NewDetector(newTestClient(t), 0.90)
	det.Calibrate(context.Background(), srv.URL+"/")

	// Same body and size, but a different status code.
	if det.Matches(srv.URL+"/", 403, int64(len(catchAllPage)), []byte(catchAllPage), "text/html") {
		t.Error("a different status code must not match the signature")
	}
}

func TestCalibrateIsIdempotent(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(catchAllPage))
	}))
	defer srv.Close()

	det := wildcard.NewDetector(newTestClient(t), 0.90)
	det.Calibrate(context.Background(), srv.URL+"/")
	first := requests
	det.Calibrate(context.Background(), srv.URL+"/")

	if requests != first {
		t.Errorf("second Calibrate issued %d extra requests, want 0", requests-first)
	}
}
