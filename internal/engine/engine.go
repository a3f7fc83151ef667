// Package engine drives the recursive scanning pipeline: level-by-level
// candidate generation, concurrent dispatch, classification, wildcard
// suppression and content-driven path mining.
package engine

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"dirhunter/internal/analyzer"
	"dirhunter/internal/dedup"
	"dirhunter/internal/requester"
	"dirhunter/internal/scan"
	"dirhunter/internal/wildcard"
	"dirhunter/internal/wordlist"
)

// recursableStatus is the set of statuses that allow a directory to be
// expanded into a sub-scan.
var recursableStatus = map[int]bool{200: true, 301: true, 302: true}

// Engine executes one scan session from the initial scan through recursive
// expansion until the depth budget is exhausted or no new directories
// appear.
type Engine struct {
	session    *scan.Session
	client     *requester.Client
	classifier *scan.Classifier
	detector   *wildcard.Detector
	analyzer   *analyzer.Analyzer
	generator  *wordlist.Generator
	pub        *scan.Publisher

	expanded  map[string]struct{} // directories already scheduled for expansion
	processed int64
	total     int64
}

// New validates the request and assembles an engine with an isolated
// session. store may be nil for a purely in-memory dedup set.
func New(req scan.Request, store *dedup.Store, pub *scan.Publisher) (*Engine, error) {
	session, err := scan.NewSession(req, store)
	if err != nil {
		return nil, err
	}
	req = session.Request

	classifier, err := scan.NewClassifier(req)
	if err != nil {
		return nil, err
	}

	client, err := requester.NewClient(requester.Options{
		Timeout:         req.Timeout,
		Proxy:           req.Proxy,
		FollowRedirects: req.FollowRedirects,
		UserAgent:       req.UserAgent,
		Headers:         req.Headers,
		BasicAuth:       req.BasicAuth,
		MaxRetries:      req.MaxRetries,
		Delay:           req.Delay,
		Threads:         req.Threads,
	})
	if err != nil {
		return nil, &scan.ConfigurationError{Field: "proxy", Err: err}
	}

	if pub == nil {
		pub = scan.NewPublisher(0)
	}

	return &Engine{
		session:    session,
		client:     client,
		classifier: classifier,
		detector:   wildcard.NewDetector(client, req.SimilarityThreshold),
		analyzer:   analyzer.New(),
		generator: wordlist.NewGenerator(req.Wordlist, wordlist.GeneratorOptions{
			Extensions: req.Extensions,
			Uppercase:  req.Uppercase,
			Capitalize: req.Capitalize,
			Prefixes:   req.Prefixes,
			Suffixes:   req.Suffixes,
		}),
		pub:      pub,
		expanded: make(map[string]struct{}),
	}, nil
}

// Session exposes the engine's session for observers.
func (e *Engine) Session() *scan.Session { return e.session }

// Findings returns the session results that pass the classifier's filters.
func (e *Engine) Findings() []scan.Result {
	var findings []scan.Result
	for _, r := range e.session.Results() {
		if e.classifier.IsFinding(r) {
			findings = append(findings, r)
		}
	}
	scan.SortResults(findings)
	return findings
}

// Run executes the session to completion. Per-path failures never abort
// the run; only cancellation ends it early, and even then all gathered
// results stay valid.
func (e *Engine) Run(ctx context.Context) (scan.Summary, error) {
	req := e.session.Request
	base := e.session.BaseURL.String()

	e.pub.Publish(scan.Event{Type: scan.EventScanStarted, Reason: req.BaseURL})
	log.Info().Str("target", req.BaseURL).Int("threads", req.Threads).Msg("Scan started")

	// Initial scan, then one expansion pass per depth level. The loop body
	// fully drains a level before the next one starts.
	e.runLevel(ctx, []string{base}, 0)

	for depth := 1; depth <= req.RecursionDepth && req.Recursive; depth++ {
		if ctx.Err() != nil {
			break
		}
		dirs := e.session.TakeLevel(depth)
		if len(dirs) == 0 {
			break
		}
		log.Info().Int("depth", depth).Int("directories", len(dirs)).Msg("Expanding level")
		e.runLevel(ctx, dirs, depth)
	}

	if ctx.Err() != nil {
		e.session.Abort()
		log.Warn().Str("session", e.session.ID).Msg("Scan aborted, partial results retained")
	} else {
		e.session.Complete()
	}

	summary := e.session.Summary(e.Findings())
	e.pub.Publish(scan.Event{Type: scan.EventScanCompleted, Summary: &summary})
	e.pub.Close()

	log.Info().
		Str("session", summary.SessionID).
		Int64("requests", summary.TotalRequests).
		Int("findings", summary.Findings).
		Int64("suppressed", summary.Suppressed).
		Int64("errors", summary.Errors).
		Str("status", summary.Status).
		Msg("Scan finished")

	return summary, ctx.Err()
}

// runLevel probes the full candidate set under every base directory of one
// depth level, then mines the level's findings for extra candidates.
func (e *Engine) runLevel(ctx context.Context, bases []string, depth int) {
	var probes []requester.Probe
	for _, baseDir := range bases {
		if ctx.Err() != nil {
			return
		}
		if e.session.Forbidden(baseDir) {
			continue
		}
		if e.session.Request.DetectWildcards {
			e.detector.Calibrate(ctx, baseDir)
		}
		probes = append(probes, e.buildProbes(ctx, baseDir, depth)...)
	}

	findings := e.dispatch(ctx, probes)
	e.mineContent(ctx, findings, depth)
}

// buildProbes expands the wordlist under baseDir, applying session dedup
// and forbidden-directory pruning.
func (e *Engine) buildProbes(ctx context.Context, baseDir string, depth int) []requester.Probe {
	base := strings.TrimSuffix(baseDir, "/")
	var probes []requester.Probe

	e.generator.Reset()
	for path, ok := e.generator.Next(); ok; path, ok = e.generator.Next() {
		url := base + "/" + strings.TrimPrefix(path, "/")
		if e.session.Forbidden(url) {
			continue
		}
		if !e.session.MarkProbed(ctx, url) {
			continue
		}
		probes = append(probes, requester.Probe{
			URL:   url,
			Path:  path,
			Base:  baseDir,
			Depth: depth,
		})
	}
	atomic.AddInt64(&e.total, int64(len(probes)))
	return probes
}

// dispatch runs probes through the worker pool and classifies everything
// that comes back. It returns the level's analyzable findings with bodies.
func (e *Engine) dispatch(ctx context.Context, probes []requester.Probe) []analyzer.Finding {
	if len(probes) == 0 {
		return nil
	}

	var findings []analyzer.Finding
	for outcome := range e.client.Dispatch(ctx, probes, e.session.Request.Threads) {
		e.session.CountRequest()
		processed := atomic.AddInt64(&e.processed, 1)
		total := atomic.LoadInt64(&e.total)
		e.pub.Publish(scan.Event{
			Type:      scan.EventProgress,
			Processed: processed,
			Total:     total,
			Percent:   float64(processed) / float64(total) * 100,
		})

		if outcome.Err != nil {
			result := e.classifier.ClassifyError(outcome.Probe, outcome.Err)
			e.session.AddResult(result)
			e.pub.Publish(scan.Event{Type: scan.EventError, Reason: result.Err.Error()})
			log.Debug().Str("url", outcome.Probe.URL).Err(outcome.Err).Msg("Probe failed")
			continue
		}

		result := e.classifier.Classify(outcome.Probe, outcome.Resp)

		if e.session.Request.DetectWildcards &&
			e.detector.Matches(outcome.Probe.Base, result.StatusCode, result.Size, outcome.Resp.Body, result.ContentType) {
			result.Wildcard = true
			e.session.AddResult(result)
			log.Debug().Str("url", result.URL).Msg("Suppressed wildcard match")
			continue
		}

		if e.classifier.BodyExcluded(outcome.Resp.Body) {
			continue
		}

		e.session.AddResult(result)

		if !e.classifier.IsFinding(result) {
			continue
		}

		e.pub.Publish(scan.Event{Type: scan.EventFinding, Result: &result})
		log.Info().
			Str("path", result.Path).
			Int("status", result.StatusCode).
			Bool("dir", result.IsDirectory).
			Msg("Finding")

		e.partition(result)

		findings = append(findings, analyzer.Finding{Result: result, Body: outcome.Resp.Body})
	}
	return findings
}

// partition decides what a directory finding means for recursion:
// recursable directories join the next level's queue, 403 directories are
// recorded so their descendants are never probed.
func (e *Engine) partition(result scan.Result) {
	if !result.IsDirectory {
		return
	}

	if result.StatusCode == 403 {
		e.session.MarkForbidden(result.URL)
		log.Info().Str("path", result.Path).Msg("Forbidden directory, pruning subtree")
		return
	}

	if !recursableStatus[result.StatusCode] || !e.session.Request.Recursive {
		return
	}

	dirURL := strings.TrimSuffix(result.URL, "/") + "/"
	if _, ok := e.expanded[dirURL]; ok {
		return
	}
	e.expanded[dirURL] = struct{}{}

	nextDepth := result.Depth + 1
	if nextDepth > e.session.Request.RecursionDepth {
		return
	}
	if err := e.session.EnqueueDir(nextDepth, dirURL); err != nil {
		log.Error().Err(err).Str("dir", dirURL).Msg("Failed to schedule directory")
	}
}

// mineContent feeds the level's findings to the content analyzer and probes
// whatever new candidates it yields, at the same depth and under the same
// dedup and forbidden rules.
func (e *Engine) mineContent(ctx context.Context, findings []analyzer.Finding, depth int) {
	if len(findings) == 0 || ctx.Err() != nil {
		return
	}

	var probes []requester.Probe
	for _, candidate := range e.analyzer.ExtractCandidates(findings) {
		if e.session.Forbidden(candidate) {
			continue
		}
		if !e.session.MarkProbed(ctx, candidate) {
			continue
		}
		probes = append(probes, requester.Probe{
			URL:         candidate,
			Path:        pathOf(candidate),
			Base:        e.session.BaseURL.String(),
			Depth:       depth,
			FromContent: true,
		})
	}
	if len(probes) == 0 {
		return
	}

	log.Debug().Int("candidates", len(probes)).Msg("Probing content-mined candidates")
	atomic.AddInt64(&e.total, int64(len(probes)))
	e.dispatch(ctx, probes)
}

func pathOf(rawURL string) string {
	if i := strings.Index(rawURL, "://"); i >= 0 {
		rest := rawURL[i+3:]
		if j := strings.Index(rest, "/"); j >= 0 {
			return rest[j:]
		}
	}
	return rawURL
}
