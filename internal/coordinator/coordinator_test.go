package coordinator_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dirhunter/internal/advisory"
	"dirhunter/internal/coordinator"
	"dirhunter/internal/scan"
)

// stubAdvisory is a controllable advisory.Client for planning tests.
type stubAdvisory struct {
	rec       *advisory.Recommendation
	err       error
	reachable bool
	calls     int
}

func (s *stubAdvisory) SubmitAnalysis(ctx context.Context, _ advisory.Context) (*advisory.Recommendation, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.rec, nil
}

func (s *stubAdvisory) Reachable(ctx context.Context) bool { return s.reachable }

func staticResolver(words ...string) coordinator.WordlistResolver {
	return func(hint string) ([]string, error) {
		return words, nil
	}
}

func TestAnalyzeTargetFingerprint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "nginx/1.24")
		w.Header().Set("X-Powered-By", "PHP/8.2")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Write([]byte(`<html><head><link href="/wp-content/themes/x.css"></head></html>`))
	}))
	defer srv.Close()

	coord, err := coordinator.New(coordinator.ModeLocal, nil, staticResolver("admin"))
	if err != nil {
		t.Fatal(err)
	}

	profile, err := coord.AnalyzeTarget(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("AnalyzeTarget returned error: %v", err)
	}

	if profile.Server != "nginx/1.24" {
		t.Errorf("Server = %q", profile.Server)
	}
	if profile.CMS != "WordPress" {
		t.Errorf("CMS = %q, want WordPress", profile.CMS)
	}
	if len(profile.TechStack) == 0 || profile.TechStack[0] != "PHP/8.2" {
		t.Errorf("TechStack = %v, want [PHP/8.2]", profile.TechStack)
	}
	if profile.SecurityHeaders["X-Frame-Options"] != "DENY" {
		t.Errorf("SecurityHeaders = %v", profile.SecurityHeaders)
	}
}

func TestAnalyzeTargetMalformedURL(t *testing.T) {
	coord, err := coordinator.New(coordinator.ModeLocal, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := coord.AnalyzeTarget(context.Background(), "://"); err == nil {
		t.Error("expected error for malformed URL")
	}
}

func TestAnalyzeTargetUnreachableStillProfiles(t *testing.T) {
	coord, err := coordinator.New(coordinator.ModeLocal, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	profile, err := coord.AnalyzeTarget(context.Background(), "http://127.0.0.1:1")
	if err != nil {
		t.Fatalf("unreachable target should yield a partial profile, got %v", err)
	}
	if profile.Domain != "127.0.0.1" {
		t.Errorf("Domain = %q", profile.Domain)
	}
	if profile.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 for failed probe", profile.StatusCode)
	}
}

func TestLocalPlanPrioritiesAndTasks(t *testing.T) {
	coord, err := coordinator.New(coordinator.ModeLocal, nil, staticResolver("admin", "login"))
	if err != nil {
		t.Fatal(err)
	}

	profile := coordinator.TargetProfile{
		URL:    "http://example.com",
		Server: "nginx",
		CMS:    "WordPress",
	}
	plan, err := coord.GenerateScanPlan(context.Background(), profile)
	if err != nil {
		t.Fatal(err)
	}

	if plan.Mode != coordinator.ModeLocal {
		t.Errorf("Mode = %q, want LOCAL", plan.Mode)
	}
	if len(plan.Tasks) != 3 {
		t.Fatalf("got %d tasks, want base, cms and backup", len(plan.Tasks))
	}
	if plan.Tasks[0].ID != "base_scan" || plan.Tasks[0].Priority != 100 {
		t.Errorf("first task = %+v, want base_scan at priority 100", plan.Tasks[0])
	}
	for i := 1; i < len(plan.Tasks); i++ {
		if plan.Tasks[i].Priority > plan.Tasks[i-1].Priority {
			t.Errorf("task %q outranks %q", plan.Tasks[i].ID, plan.Tasks[i-1].ID)
		}
	}

	base := plan.Tasks[0].Request
	if len(base.Wordlist) != 2 {
		t.Errorf("base wordlist = %v", base.Wordlist)
	}
	if base.Threads != 20 {
		t.Errorf("Threads = %d, want 20 for nginx", base.Threads)
	}
}

func TestThreadHeuristics(t *testing.T) {
	coord, err := coordinator.New(coordinator.ModeLocal, nil, staticResolver("a"))
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		server      string
		rateLimited bool
		want        int
	}{
		{"cloudflare", false, 5},
		{"nginx/1.24", false, 20},
		{"Apache/2.4", false, 15},
		{"Caddy", false, 10},
		{"nginx", true, 2},
	}
	for _, tc := range cases {
		plan, err := coord.GenerateScanPlan(context.Background(), coordinator.TargetProfile{
			URL:         "http://example.com",
			Server:      tc.server,
			RateLimited: tc.rateLimited,
		})
		if err != nil {
			t.Fatal(err)
		}
		if got := plan.Tasks[0].Request.Threads; got != tc.want {
			t.Errorf("server %q rateLimited=%v: Threads = %d, want %d", tc.server, tc.rateLimited, got, tc.want)
		}
	}
}

func TestAdvisoryRecommendationApplied(t *testing.T) {
	stub := &stubAdvisory{
		reachable: true,
		rec: &advisory.Recommendation{
			Extensions:     []string{"php", "bak"},
			Threads:        7,
			RecursionDepth: 1,
			TimeoutSec:     15,
		},
	}
	coord, err := coordinator.New(coordinator.ModeAIAgent, stub, staticResolver("a"))
	if err != nil {
		t.Fatal(err)
	}

	plan, err := coord.GenerateScanPlan(context.Background(), coordinator.TargetProfile{URL: "http://example.com"})
	if err != nil {
		t.Fatal(err)
	}

	if plan.Mode != coordinator.ModeAIAgent {
		t.Errorf("Mode = %q, want AI_AGENT", plan.Mode)
	}
	base := plan.Tasks[0].Request
	if base.Threads != 7 {
		t.Errorf("Threads = %d, want 7 from advisory", base.Threads)
	}
	if base.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", base.Timeout)
	}
	if base.RecursionDepth != 1 {
		t.Errorf("RecursionDepth = %d, want 1", base.RecursionDepth)
	}
}

func TestAdvisoryFailureFallsBackToLocal(t *testing.T) {
	stub := &stubAdvisory{
		reachable: true,
		err:       &scan.AdvisoryError{Reason: "timeout"},
	}
	coord, err := coordinator.New(coordinator.ModeAIAgent, stub, staticResolver("a"))
	if err != nil {
		t.Fatal(err)
	}

	plan, err := coord.GenerateScanPlan(context.Background(), coordinator.TargetProfile{
		URL:    "http://example.com",
		Server: "Apache",
	})
	if err != nil {
		t.Fatalf("advisory failure must not fail planning: %v", err)
	}
	if stub.calls != 1 {
		t.Errorf("advisory called %d times, want 1", stub.calls)
	}
	if plan.Tasks[0].Request.Threads != 15 {
		t.Errorf("Threads = %d, want local apache heuristic 15", plan.Tasks[0].Request.Threads)
	}
}

func TestAutoModeUnreachableAdvisoryPlansLocally(t *testing.T) {
	stub := &stubAdvisory{reachable: false}
	coord, err := coordinator.New(coordinator.ModeAuto, stub, staticResolver("a"))
	if err != nil {
		t.Fatal(err)
	}

	plan, err := coord.GenerateScanPlan(context.Background(), coordinator.TargetProfile{URL: "http://example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if plan.Mode != coordinator.ModeLocal {
		t.Errorf("Mode = %q, want LOCAL when advisory is unreachable", plan.Mode)
	}
	if stub.calls != 0 {
		t.Errorf("advisory consulted %d times despite being unreachable", stub.calls)
	}
}

func TestOptimizeParameters(t *testing.T) {
	coord, err := coordinator.New(coordinator.ModeLocal, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	base := scan.Request{Threads: 20, Timeout: 10 * time.Second, MaxRetries: 3}

	fast := coord.OptimizeParameters(coordinator.TargetProfile{ResponseTime: 50 * time.Millisecond}, base)
	if fast.Timeout != 5*time.Second {
		t.Errorf("fast target Timeout = %v, want 5s", fast.Timeout)
	}

	slow := coord.OptimizeParameters(coordinator.TargetProfile{ResponseTime: 3 * time.Second}, base)
	if slow.Timeout != 20*time.Second || slow.Threads != 5 {
		t.Errorf("slow target = %d threads / %v timeout, want 5 / 20s", slow.Threads, slow.Timeout)
	}

	limited := coord.OptimizeParameters(coordinator.TargetProfile{RateLimited: true}, base)
	if limited.Threads != 2 || limited.Delay < 500*time.Millisecond {
		t.Errorf("rate-limited target = %d threads / %v delay", limited.Threads, limited.Delay)
	}

	waf := coord.OptimizeParameters(coordinator.TargetProfile{Server: "cloudflare"}, base)
	if waf.Threads != 5 || waf.Delay < 500*time.Millisecond {
		t.Errorf("waf target = %d threads / %v delay", waf.Threads, waf.Delay)
	}
}

func TestCMSTaskSeeds(t *testing.T) {
	coord, err := coordinator.New(coordinator.ModeLocal, nil, staticResolver("a"))
	if err != nil {
		t.Fatal(err)
	}

	plan, err := coord.GenerateScanPlan(context.Background(), coordinator.TargetProfile{
		URL: "http://example.com",
		CMS: "Drupal",
	})
	if err != nil {
		t.Fatal(err)
	}

	var cms *coordinator.Task
	for i := range plan.Tasks {
		if plan.Tasks[i].ID == "cms_scan" {
			cms = &plan.Tasks[i]
		}
	}
	if cms == nil {
		t.Fatal("expected a cms_scan task for a Drupal target")
	}
	found := false
	for _, w := range cms.Request.Wordlist {
		if w == "sites/default" {
			found = true
		}
	}
	if !found {
		t.Errorf("cms wordlist %v lacks Drupal seeds", cms.Request.Wordlist)
	}
}
