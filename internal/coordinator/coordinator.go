// Package coordinator profiles a target and turns it into a tuned scan
// plan. It never issues discovery probes itself; it only produces plans
// for the engine to execute. Tuning comes from deterministic local rule
// tables, optionally merged with an external advisory recommendation that
// is allowed to fail at any time.
package coordinator

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"dirhunter/internal/advisory"
	"dirhunter/internal/requester"
	"dirhunter/internal/scan"
)

// Mode selects the intelligence strategy.
type Mode string

const (
	// ModeLocal applies only the deterministic rule tables.
	ModeLocal Mode = "LOCAL"
	// ModeAIAgent merges an external advisory recommendation with the
	// local rules, falling back to LOCAL on any advisory failure.
	ModeAIAgent Mode = "AI_AGENT"
	// ModeAuto behaves as AI_AGENT when credentials are configured and the
	// service answers within a bounded timeout, else as LOCAL.
	ModeAuto Mode = "AUTO"
)

// TargetProfile is the result of lightweight target analysis.
type TargetProfile struct {
	URL             string            `json:"url"`
	Domain          string            `json:"domain"`
	Server          string            `json:"server,omitempty"`
	CMS             string            `json:"cms,omitempty"`
	TechStack       []string          `json:"tech_stack,omitempty"`
	BasePath        string            `json:"base_path"`
	StatusCode      int               `json:"status_code"`
	ResponseTime    time.Duration     `json:"response_time"`
	SecurityHeaders map[string]string `json:"security_headers,omitempty"`
	RateLimited     bool              `json:"rate_limited"`
}

// Task binds one scan request variant with a priority. Higher priority
// tasks run first.
type Task struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Priority int          `json:"priority"`
	Request  scan.Request `json:"request"`
}

// Plan is the ordered list of scan tasks for one target.
type Plan struct {
	Profile TargetProfile `json:"profile"`
	Tasks   []Task        `json:"tasks"`
	Mode    Mode          `json:"mode"` // mode that actually produced the plan
}

// WordlistResolver maps a wordlist hint ("general", "api", "wordpress", …)
// to concrete entries. Supplied by the wordlist-loading collaborator.
type WordlistResolver func(hint string) ([]string, error)

// Coordinator assembles profiles and plans.
type Coordinator struct {
	client    *requester.Client
	local     Strategy
	advClient advisory.Client
	resolveWL WordlistResolver
	mode      Mode
}

// New creates a coordinator. advisoryClient may be nil, which forces LOCAL
// behavior regardless of mode.
func New(mode Mode, advisoryClient advisory.Client, resolver WordlistResolver) (*Coordinator, error) {
	client, err := requester.NewClient(requester.Options{
		Timeout:    10 * time.Second,
		UserAgent:  "Mozilla/5.0 (compatible; dirhunter/1.0)",
		MaxRetries: 1,
	})
	if err != nil {
		return nil, err
	}

	return &Coordinator{
		client:    client,
		local:     &LocalStrategy{},
		advClient: advisoryClient,
		resolveWL: resolver,
		mode:      mode,
	}, nil
}

// resolveMode pins AUTO down to LOCAL or AI_AGENT for one planning pass.
func (c *Coordinator) resolveMode(ctx context.Context) Mode {
	if c.advClient == nil {
		return ModeLocal
	}
	switch c.mode {
	case ModeAIAgent:
		return ModeAIAgent
	case ModeAuto:
		if c.advClient.Reachable(ctx) {
			return ModeAIAgent
		}
		log.Info().Msg("Advisory unreachable, planning locally")
		return ModeLocal
	default:
		return ModeLocal
	}
}

// GenerateScanPlan builds the ordered task list for a profiled target.
// Advisory input, when available, only adjusts tuning; the local rule
// tables always provide a complete plan on their own.
func (c *Coordinator) GenerateScanPlan(ctx context.Context, profile TargetProfile) (*Plan, error) {
	rec, mode := c.recommend(ctx, profile)

	base := c.baseRequest(profile)
	applyRecommendation(&base, rec)

	if c.resolveWL != nil {
		hint := wordlistHint(profile)
		if rec != nil && rec.WordlistHint != "" {
			hint = rec.WordlistHint
		}
		words, err := c.resolveWL(hint)
		if err != nil {
			return nil, &scan.ConfigurationError{Field: "wordlist", Err: err}
		}
		base.Wordlist = words
	}

	plan := &Plan{
		Profile: profile,
		Mode:    mode,
		Tasks: []Task{
			{ID: "base_scan", Type: "directory_enumeration", Priority: 100, Request: base},
		},
	}

	if task, ok := c.cmsTask(profile, base); ok {
		plan.Tasks = append(plan.Tasks, task)
	}
	plan.Tasks = append(plan.Tasks, c.backupTask(base))

	log.Info().
		Str("mode", string(mode)).
		Int("tasks", len(plan.Tasks)).
		Str("cms", profile.CMS).
		Msg("Scan plan generated")
	return plan, nil
}

// recommend consults the active strategy for one planning pass. The local
// strategy never fails, so the fallback composition always yields a
// recommendation.
func (c *Coordinator) recommend(ctx context.Context, profile TargetProfile) (*advisory.Recommendation, Mode) {
	mode := c.resolveMode(ctx)

	var strategy Strategy = c.local
	if mode == ModeAIAgent {
		strategy = &FallbackStrategy{
			Primary:  &AdvisoryStrategy{Client: c.advClient},
			Fallback: c.local,
		}
	}

	rec, err := strategy.Recommend(ctx, profile)
	if err != nil {
		log.Error().Err(err).Msg("Strategy failed, using built-in defaults")
		return nil, ModeLocal
	}
	return rec, mode
}

// OptimizeParameters tunes timeout, delay and retries for the target's
// responsiveness and protective infrastructure.
func (c *Coordinator) OptimizeParameters(profile TargetProfile, req scan.Request) scan.Request {
	// Fast local targets can be probed aggressively.
	if profile.ResponseTime > 0 && profile.ResponseTime < 100*time.Millisecond {
		req.Timeout = 5 * time.Second
		req.Delay = 0
		if req.MaxRetries > 2 {
			req.MaxRetries = 2
		}
	}

	// Slow targets need room before a retry storm makes things worse.
	if profile.ResponseTime > 2*time.Second {
		req.Timeout = 20 * time.Second
		req.Threads = minInt(req.Threads, 5)
	}

	if profile.RateLimited {
		req.Threads = minInt(req.Threads, 2)
		if req.Delay < 500*time.Millisecond {
			req.Delay = 500 * time.Millisecond
		}
	}

	if wafServer(profile.Server) {
		req.Threads = minInt(req.Threads, 5)
		if req.Delay < 500*time.Millisecond {
			req.Delay = 500 * time.Millisecond
		}
	}

	return req
}

func (c *Coordinator) baseRequest(profile TargetProfile) scan.Request {
	req := scan.Request{
		BaseURL:         profile.URL,
		Extensions:      extensionsFor(profile),
		Threads:         threadsFor(profile),
		Timeout:         10 * time.Second,
		FollowRedirects: false,
		MaxRetries:      3,
		Recursive:       true,
		RecursionDepth:  3,
		DetectWildcards: true,
	}.WithDefaults()
	return c.OptimizeParameters(profile, req)
}

func (c *Coordinator) cmsTask(profile TargetProfile, base scan.Request) (Task, bool) {
	paths, ok := cmsSeedPaths[profile.CMS]
	if !ok {
		return Task{}, false
	}
	req := base
	req.Wordlist = paths
	req.Extensions = cmsExtensions[profile.CMS]
	req.Threads = minInt(base.Threads, 10)
	return Task{
		ID:       "cms_scan",
		Type:     "cms_specific",
		Priority: 90,
		Request:  req,
	}, true
}

func (c *Coordinator) backupTask(base scan.Request) Task {
	req := base
	req.Wordlist = backupPatterns
	req.Extensions = backupExtensions
	req.Recursive = false
	req.Threads = minInt(base.Threads, 5)
	return Task{
		ID:       "backup_scan",
		Type:     "backup_files",
		Priority: 80,
		Request:  req,
	}
}

func applyRecommendation(req *scan.Request, rec *advisory.Recommendation) {
	if rec == nil {
		return
	}
	if len(rec.Extensions) > 0 {
		req.Extensions = rec.Extensions
	}
	if rec.Threads > 0 {
		req.Threads = rec.Threads
	}
	if rec.RecursionDepth > 0 {
		req.RecursionDepth = rec.RecursionDepth
	}
	if rec.TimeoutSec > 0 {
		req.Timeout = time.Duration(rec.TimeoutSec) * time.Second
	}
	if rec.DelayMs > 0 {
		req.Delay = time.Duration(rec.DelayMs) * time.Millisecond
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
