// Package requester implements the HTTP dispatch layer: a tuned client with
// retry, backoff, rate limiting and redirect policy, plus a bounded worker
// pool that executes probes concurrently.
package requester

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const maxBodyBytes = 10 << 20 // cap body reads at 10 MiB

// ErrMalformedResponse marks failures that happen after the server already
// answered, as opposed to transport-level failures.
var ErrMalformedResponse = errors.New("malformed response")

// retryStatus is the set of status codes treated as transient and retried.
var retryStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Options configures a Client. All settings apply uniformly for the whole
// session.
type Options struct {
	Timeout         time.Duration
	Proxy           string
	FollowRedirects bool
	MaxRedirects    int // bound on redirect chain length when following
	UserAgent       string
	Headers         map[string]string
	BasicAuth       string // "user:pass", empty disables
	MaxRetries      int
	Delay           time.Duration // aggregate inter-request delay, 0 disables
	Threads         int
}

// Response holds the parsed outcome of a single probe.
type Response struct {
	StatusCode  int
	Body        []byte
	Headers     http.Header
	ContentType string
	Size        int64
	RedirectURL string // Location header when redirects are not followed
	FinalURL    string // resolved URL after any followed redirects
	Duration    time.Duration
}

// Client wraps http.Client with the session-wide probe policy.
type Client struct {
	httpClient *http.Client
	opts       Options
	limiter    *rate.Limiter
}

// NewClient builds a Client from the given options.
func NewClient(opts Options) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = 5
	}
	if opts.Threads <= 0 {
		opts.Threads = 10
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        opts.Threads * 2,
		MaxIdleConnsPerHost: opts.Threads,
		IdleConnTimeout:     30 * time.Second,
	}

	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", opts.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
	}

	if opts.FollowRedirects {
		maxRedirects := opts.MaxRedirects
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		}
	} else {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	c := &Client{httpClient: client, opts: opts}
	if opts.Delay > 0 {
		c.limiter = rate.NewLimiter(rate.Every(opts.Delay), 1)
	}
	return c, nil
}

// Fetch issues a GET probe for the given absolute URL with the session's
// retry and backoff policy. A non-2xx status is not an error; only
// transport failures and exhausted retries are.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			if backoff > 10*time.Second {
				backoff = 10 * time.Second
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := c.do(ctx, rawURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		if retryStatus[resp.StatusCode] && attempt < c.opts.MaxRetries {
			lastErr = fmt.Errorf("transient status %d for %s", resp.StatusCode, rawURL)
			continue
		}
		return resp, nil
	}

	return nil, fmt.Errorf("request failed after %d attempt(s): %w", c.opts.MaxRetries+1, lastErr)
}

func (c *Client) do(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	for k, v := range c.opts.Headers {
		req.Header.Set(k, v)
	}
	if c.opts.BasicAuth != "" {
		if user, pass, ok := strings.Cut(c.opts.BasicAuth, ":"); ok {
			req.SetBasicAuth(user, pass)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrMalformedResponse, err)
	}

	out := &Response{
		StatusCode:  resp.StatusCode,
		Body:        body,
		Headers:     resp.Header,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        int64(len(body)),
		FinalURL:    resp.Request.URL.String(),
		Duration:    time.Since(start),
	}
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		out.RedirectURL = resp.Header.Get("Location")
	}
	return out, nil
}
