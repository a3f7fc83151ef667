package advisory_test

import (
	"errors"
	"testing"

	"dirhunter/internal/advisory"
	"dirhunter/internal/scan"
)

func TestParseRecommendationPlainJSON(t *testing.T) {
	rec, err := advisory.ParseRecommendation(`{"wordlist_hint":"api","extensions":["php",".bak"],"threads":8,"recursion_depth":2}`)
	if err != nil {
		t.Fatalf("ParseRecommendation returned error: %v", err)
	}
	if rec.WordlistHint != "api" {
		t.Errorf("WordlistHint = %q", rec.WordlistHint)
	}
	if rec.Threads != 8 || rec.RecursionDepth != 2 {
		t.Errorf("Threads/Depth = %d/%d", rec.Threads, rec.RecursionDepth)
	}
	if rec.Extensions[1] != "bak" {
		t.Errorf("Extensions = %v, leading dot should be stripped", rec.Extensions)
	}
}

func TestParseRecommendationWithFencesAndProse(t *testing.T) {
	text := "Here is my analysis:\n```json\n{\"threads\": 5, \"reasoning\": \"waf detected\"}\n```\nGood luck."
	rec, err := advisory.ParseRecommendation(text)
	if err != nil {
		t.Fatalf("ParseRecommendation returned error: %v", err)
	}
	if rec.Threads != 5 {
		t.Errorf("Threads = %d, want 5", rec.Threads)
	}
}

func TestParseRecommendationClampsHostileValues(t *testing.T) {
	rec, err := advisory.ParseRecommendation(`{"threads":9999,"recursion_depth":50,"timeout_sec":-1,"delay_ms":999999}`)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Threads != 0 || rec.RecursionDepth != 0 || rec.TimeoutSec != 0 || rec.DelayMs != 0 {
		t.Errorf("hostile values not clamped: %+v", rec)
	}
}

func TestParseRecommendationFailures(t *testing.T) {
	var advErr *scan.AdvisoryError

	_, err := advisory.ParseRecommendation("no json here")
	if !errors.As(err, &advErr) {
		t.Errorf("missing object: got %v, want AdvisoryError", err)
	}

	_, err = advisory.ParseRecommendation(`{"threads": "many"}`)
	if !errors.As(err, &advErr) {
		t.Errorf("malformed payload: got %v, want AdvisoryError", err)
	}
}

func TestConfigured(t *testing.T) {
	if (advisory.Config{}).Configured() {
		t.Error("empty config should not be configured")
	}
	if !(advisory.Config{APIKey: "k"}).Configured() {
		t.Error("config with key should be configured")
	}
}
