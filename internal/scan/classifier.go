package scan

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"dirhunter/internal/requester"
)

// directory-listing markers checked case-insensitively in response bodies
// of extensionless requests.
var listingMarkers = []string{
	"index of",
	"directory listing",
	"parent directory",
	"[dir]",
}

// Classifier turns raw probe outcomes into typed results and decides which
// of them count as findings.
type Classifier struct {
	basePrefix    string
	excludeStatus map[int]bool
	includeStatus map[int]bool
	excludeSizes  map[int64]bool
	excludeTexts  []string
	excludeRegex  *regexp.Regexp
}

// NewClassifier builds a classifier for the given request. The target's
// base path prefix is extracted from the base URL so that a target such as
// http://host/api/v1 yields findings like /api/v1/users, never /users.
func NewClassifier(req Request) (*Classifier, error) {
	base, err := url.Parse(req.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, &ConfigurationError{Field: "base_url", Err: fmt.Errorf("malformed target URL %q", req.BaseURL)}
	}

	c := &Classifier{
		basePrefix:    strings.TrimSuffix(base.Path, "/"),
		excludeStatus: make(map[int]bool, len(req.ExcludeStatus)),
		includeStatus: make(map[int]bool, len(req.IncludeStatus)),
		excludeSizes:  make(map[int64]bool, len(req.ExcludeSizes)),
		excludeTexts:  req.ExcludeTexts,
	}
	for _, code := range req.ExcludeStatus {
		c.excludeStatus[code] = true
	}
	for _, code := range req.IncludeStatus {
		c.includeStatus[code] = true
	}
	for _, size := range req.ExcludeSizes {
		c.excludeSizes[size] = true
	}
	if req.ExcludeRegex != "" {
		re, err := regexp.Compile(req.ExcludeRegex)
		if err != nil {
			return nil, &ConfigurationError{Field: "exclude_regex", Err: err}
		}
		c.excludeRegex = re
	}
	return c, nil
}

// BasePrefix returns the path prefix extracted from the target URL.
func (c *Classifier) BasePrefix() string { return c.basePrefix }

// Classify converts a successful probe outcome into a Result.
func (c *Classifier) Classify(probe requester.Probe, resp *requester.Response) Result {
	origin := OriginWordlist
	if probe.FromContent {
		origin = OriginContentAnalysis
	}

	headers := make(map[string]string, len(resp.Headers))
	for k := range resp.Headers {
		headers[k] = resp.Headers.Get(k)
	}

	return Result{
		URL:          probe.URL,
		Path:         c.fullPath(probe.URL, probe.Path),
		StatusCode:   resp.StatusCode,
		Size:         resp.Size,
		ContentType:  resp.ContentType,
		RedirectURL:  resp.RedirectURL,
		ResponseTime: resp.Duration,
		Headers:      headers,
		IsDirectory:  isDirectory(probe.Path, resp),
		Depth:        probe.Depth,
		Origin:       origin,
		Timestamp:    time.Now(),
	}
}

// ClassifyError converts a failed probe into a non-fatal error result.
func (c *Classifier) ClassifyError(probe requester.Probe, err error) Result {
	origin := OriginWordlist
	if probe.FromContent {
		origin = OriginContentAnalysis
	}
	var probeErr error = &NetworkError{URL: probe.URL, Err: err}
	if errors.Is(err, requester.ErrMalformedResponse) {
		probeErr = &ProtocolError{URL: probe.URL, Err: err}
	}
	return Result{
		URL:       probe.URL,
		Path:      c.fullPath(probe.URL, probe.Path),
		Depth:     probe.Depth,
		Origin:    origin,
		Err:       probeErr,
		Timestamp: time.Now(),
	}
}

// fullPath computes the result's path including the target's base prefix.
// The probe URL is authoritative (it already carries the prefix); the
// relative path is the fallback when the URL fails to parse.
func (c *Classifier) fullPath(probeURL, relative string) string {
	if u, err := url.Parse(probeURL); err == nil && u.Path != "" {
		return u.Path
	}
	return c.basePrefix + "/" + strings.TrimPrefix(relative, "/")
}

// IsFinding decides whether a classified result should surface as a genuine
// discovery. Wildcard-flagged and error results never do. When an include
// whitelist is configured it wins over the exclude set.
func (c *Classifier) IsFinding(r Result) bool {
	if r.Err != nil || r.Wildcard {
		return false
	}
	if len(c.includeStatus) > 0 {
		if !c.includeStatus[r.StatusCode] {
			return false
		}
	} else if c.excludeStatus[r.StatusCode] {
		return false
	}
	if c.excludeSizes[r.Size] {
		return false
	}
	return true
}

// BodyExcluded applies the configured text and regex exclusions to a
// response body. Checked separately from IsFinding because result objects
// do not retain bodies.
func (c *Classifier) BodyExcluded(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	text := string(body)
	for _, t := range c.excludeTexts {
		if t != "" && strings.Contains(text, t) {
			return true
		}
	}
	if c.excludeRegex != nil && c.excludeRegex.Match(body) {
		return true
	}
	return false
}

func isDirectory(path string, resp *requester.Response) bool {
	if strings.HasSuffix(path, "/") {
		return true
	}

	// A 301/302 to the same path plus a trailing slash is the canonical
	// "this is a directory" answer.
	if resp.StatusCode == 301 || resp.StatusCode == 302 {
		loc := resp.RedirectURL
		if u, err := url.Parse(loc); err == nil {
			loc = u.Path
		}
		want := "/" + strings.TrimPrefix(path, "/") + "/"
		if loc == want || strings.HasSuffix(loc, "/"+strings.TrimPrefix(path, "/")+"/") {
			return true
		}
	}

	// Listing markers only count for extensionless requests; files named
	// readme.html legitimately mention "Parent Directory".
	if !strings.Contains(lastSegment(path), ".") {
		body := strings.ToLower(string(resp.Body))
		for _, marker := range listingMarkers {
			if strings.Contains(body, marker) {
				return true
			}
		}
	}
	return false
}

func lastSegment(path string) string {
	path = strings.TrimSuffix(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
