package scan

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"dirhunter/internal/dedup"
)

// sessionState tracks the lifecycle of a Session.
type sessionState int32

const (
	stateRunning sessionState = iota
	stateAborted
	stateDone
)

// Session owns all mutable state of one scan: the set of probed URLs, the
// pending-directory queue partitioned by depth, results and counters. Only
// the controller/dispatcher completion path mutates it; observers read
// immutable snapshots.
type Session struct {
	ID      string
	Request Request
	BaseURL *url.URL

	store *dedup.Store

	mu         sync.RWMutex
	results    []Result
	pending    map[int][]string // depth -> recursable directory URLs
	forbidden  []string         // directory URL prefixes that must never be expanded
	state      sessionState
	startTime  time.Time
	endTime    time.Time
	suppressed int64
	errCount   int64
	requests   int64
}

// NewSession validates the request and creates an isolated session.
func NewSession(req Request, store *dedup.Store) (*Session, error) {
	req = req.WithDefaults()

	base, err := url.Parse(req.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, &ConfigurationError{Field: "base_url", Err: fmt.Errorf("malformed target URL %q", req.BaseURL)}
	}
	if len(req.Wordlist) == 0 {
		return nil, &ConfigurationError{Field: "wordlist", Err: fmt.Errorf("empty wordlist")}
	}
	if store == nil {
		store = dedup.NewStore(nil, "")
	}

	base.Path = strings.TrimSuffix(base.Path, "/")

	return &Session{
		ID:        uuid.New().String(),
		Request:   req,
		BaseURL:   base,
		store:     store,
		pending:   make(map[int][]string),
		startTime: time.Now(),
	}, nil
}

// MarkProbed registers an absolute URL as probed. It returns false when the
// URL was already probed in this session, enforcing the dedup invariant.
func (s *Session) MarkProbed(ctx context.Context, url string) bool {
	return s.store.Add(ctx, url)
}

// Probed reports whether the URL has been probed already.
func (s *Session) Probed(url string) bool { return s.store.Has(url) }

// AddResult appends a result and updates counters.
func (s *Session) AddResult(r Result) {
	s.mu.Lock()
	s.results = append(s.results, r)
	s.mu.Unlock()

	if r.Wildcard {
		atomic.AddInt64(&s.suppressed, 1)
	}
	if r.Err != nil {
		atomic.AddInt64(&s.errCount, 1)
	}
}

// CountRequest increments the issued-request counter.
func (s *Session) CountRequest() { atomic.AddInt64(&s.requests, 1) }

// Requests returns the number of issued requests so far.
func (s *Session) Requests() int64 { return atomic.LoadInt64(&s.requests) }

// Results returns an immutable snapshot of all results so far, including
// suppressed wildcards and error-tagged results.
func (s *Session) Results() []Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Result, len(s.results))
	copy(out, s.results)
	return out
}

// EnqueueDir schedules a recursable directory URL for expansion at the
// given depth. Scheduling against a terminal session is a contract
// violation.
func (s *Session) EnqueueDir(depth int, dirURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateRunning {
		return &StateError{Op: "EnqueueDir", Err: ErrSessionTerminal}
	}
	s.pending[depth] = append(s.pending[depth], dirURL)
	return nil
}

// TakeLevel drains and returns the pending directories for a depth level.
func (s *Session) TakeLevel(depth int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	dirs := s.pending[depth]
	delete(s.pending, depth)
	return dirs
}

// MarkForbidden records a 403 directory whose descendants must never be
// probed.
func (s *Session) MarkForbidden(dirURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forbidden = append(s.forbidden, strings.TrimSuffix(dirURL, "/")+"/")
}

// Forbidden reports whether the URL is a strict descendant of a forbidden
// directory. Access denial is assumed to propagate downward.
func (s *Session) Forbidden(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, prefix := range s.forbidden {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return false
}

// Abort marks the session cancelled. Results gathered so far remain valid.
func (s *Session) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateRunning {
		s.state = stateAborted
		s.endTime = time.Now()
	}
}

// Complete marks the session finished.
func (s *Session) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateRunning {
		s.state = stateDone
		s.endTime = time.Now()
	}
}

// Terminal reports whether the session has ended, by completion or abort.
func (s *Session) Terminal() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state != stateRunning
}

// Summary builds the final session summary. findings is supplied by the
// caller because finding status depends on the classifier's filters.
func (s *Session) Summary(findings []Result) Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	end := s.endTime
	if end.IsZero() {
		end = time.Now()
	}

	status := "completed"
	if s.state == stateAborted {
		status = "aborted"
	}

	maxDepth := 0
	dirs := 0
	for _, r := range findings {
		if r.Depth > maxDepth {
			maxDepth = r.Depth
		}
		if r.IsDirectory {
			dirs++
		}
	}

	return Summary{
		SessionID:      s.ID,
		TargetURL:      s.Request.BaseURL,
		TotalRequests:  atomic.LoadInt64(&s.requests),
		Findings:       len(findings),
		Suppressed:     atomic.LoadInt64(&s.suppressed),
		Errors:         atomic.LoadInt64(&s.errCount),
		StartTime:      s.startTime,
		EndTime:        end,
		Duration:       end.Sub(s.startTime),
		Status:         status,
		MaxDepthSeen:   maxDepth,
		DirectoryCount: dirs,
	}
}

// SortResults orders results by depth, then path. Used before reporting so
// identical scans produce identical output.
func SortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Depth != results[j].Depth {
			return results[i].Depth < results[j].Depth
		}
		return results[i].Path < results[j].Path
	})
}
