// Package scan contains the core data structures shared across the
// scanning pipeline: requests, results, session state and events.
package scan

import (
	"net/http"
	"time"
)

// Origin indicates how a candidate path entered the pipeline.
type Origin string

const (
	// OriginWordlist marks results produced from wordlist-derived candidates.
	OriginWordlist Origin = "wordlist"
	// OriginContentAnalysis marks results produced from paths mined out of
	// response bodies by the deep content analyzer.
	OriginContentAnalysis Origin = "content-analysis"
)

// Request holds the full configuration for a single scan session.
type Request struct {
	BaseURL         string            `json:"base_url" mapstructure:"base_url"`
	Wordlist        []string          `json:"-" mapstructure:"-"`
	Extensions      []string          `json:"extensions" mapstructure:"extensions"`
	Threads         int               `json:"threads" mapstructure:"threads"`
	Timeout         time.Duration     `json:"timeout" mapstructure:"timeout"`
	Delay           time.Duration     `json:"delay" mapstructure:"delay"`
	UserAgent       string            `json:"user_agent" mapstructure:"user_agent"`
	FollowRedirects bool              `json:"follow_redirects" mapstructure:"follow_redirects"`
	Headers         map[string]string `json:"headers" mapstructure:"headers"`
	Proxy           string            `json:"proxy" mapstructure:"proxy"`
	MaxRetries      int               `json:"max_retries" mapstructure:"max_retries"`
	ExcludeStatus   []int             `json:"exclude_status" mapstructure:"exclude_status"`
	IncludeStatus   []int             `json:"include_status" mapstructure:"include_status"`
	Recursive       bool              `json:"recursive" mapstructure:"recursive"`
	RecursionDepth  int               `json:"recursion_depth" mapstructure:"recursion_depth"`
	DetectWildcards bool              `json:"detect_wildcards" mapstructure:"detect_wildcards"`

	// Case-variant and decoration options for path generation.
	Uppercase  bool     `json:"uppercase" mapstructure:"uppercase"`
	Capitalize bool     `json:"capitalize" mapstructure:"capitalize"`
	Prefixes   []string `json:"prefixes" mapstructure:"prefixes"`
	Suffixes   []string `json:"suffixes" mapstructure:"suffixes"`

	// Result filters applied after classification.
	ExcludeSizes []int64  `json:"exclude_sizes" mapstructure:"exclude_sizes"`
	ExcludeTexts []string `json:"exclude_texts" mapstructure:"exclude_texts"`
	ExcludeRegex string   `json:"exclude_regex" mapstructure:"exclude_regex"`

	// BasicAuth in "user:pass" form. Empty disables authentication.
	BasicAuth string `json:"-" mapstructure:"basic_auth"`

	// SimilarityThreshold tunes wildcard content matching (0..1).
	SimilarityThreshold float64 `json:"similarity_threshold" mapstructure:"similarity_threshold"`
}

// WithDefaults returns a copy of the request with zero-value fields replaced
// by sensible defaults.
func (r Request) WithDefaults() Request {
	if r.Threads <= 0 {
		r.Threads = 10
	}
	if r.Timeout <= 0 {
		r.Timeout = 10 * time.Second
	}
	if r.UserAgent == "" {
		r.UserAgent = "Mozilla/5.0 (compatible; dirhunter/1.0)"
	}
	if r.MaxRetries < 0 {
		r.MaxRetries = 0
	}
	if len(r.ExcludeStatus) == 0 {
		r.ExcludeStatus = []int{http.StatusNotFound}
	}
	if r.RecursionDepth <= 0 {
		r.RecursionDepth = 2
	}
	if r.SimilarityThreshold <= 0 || r.SimilarityThreshold > 1 {
		r.SimilarityThreshold = 0.90
	}
	return r
}

// Result is the immutable outcome of a single path probe.
type Result struct {
	URL          string            `json:"url"`
	Path         string            `json:"path"` // full path, including the target's base prefix
	StatusCode   int               `json:"status_code"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"content_type,omitempty"`
	RedirectURL  string            `json:"redirect_url,omitempty"`
	ResponseTime time.Duration     `json:"response_time"`
	Headers      map[string]string `json:"headers,omitempty"`
	IsDirectory  bool              `json:"is_directory"`
	Depth        int               `json:"depth"`
	Origin       Origin            `json:"origin"`
	Wildcard     bool              `json:"wildcard"` // suppressed as dynamic catch-all content
	Err          error             `json:"-"`        // network/protocol error, non-fatal
	Timestamp    time.Time         `json:"timestamp"`
}

// Summary aggregates the outcome of a completed (or aborted) session.
type Summary struct {
	SessionID      string        `json:"session_id"`
	TargetURL      string        `json:"target_url"`
	TotalRequests  int64         `json:"total_requests"`
	Findings       int           `json:"findings"`
	Suppressed     int64         `json:"suppressed_wildcards"`
	Errors         int64         `json:"errors"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	Duration       time.Duration `json:"duration"`
	Status         string        `json:"status"` // "completed" or "aborted"
	MaxDepthSeen   int           `json:"max_depth_seen"`
	DirectoryCount int           `json:"directory_count"`
}
