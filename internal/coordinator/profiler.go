package coordinator

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"dirhunter/internal/scan"
)

// fingerprint paths probed during analysis beyond the root page. Cheap,
// high-signal markers for common stacks.
var fingerprintPaths = map[string]string{
	"/wp-login.php":   "WordPress",
	"/administrator/": "Joomla",
	"/user/login":     "Drupal",
}

// AnalyzeTarget issues lightweight preliminary probes and infers server
// software, technology tags and the base path prefix. A malformed URL is a
// fatal configuration error; unreachable targets still produce a partial
// profile.
func (c *Coordinator) AnalyzeTarget(ctx context.Context, rawURL string) (TargetProfile, error) {
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return TargetProfile{}, &scan.ConfigurationError{Field: "url", Err: fmt.Errorf("malformed target URL %q", rawURL)}
	}

	profile := TargetProfile{
		URL:      strings.TrimSuffix(rawURL, "/"),
		Domain:   u.Hostname(),
		BasePath: strings.TrimSuffix(u.Path, "/"),
	}

	resp, err := c.client.Fetch(ctx, profile.URL+"/")
	if err != nil {
		log.Warn().Err(err).Str("url", rawURL).Msg("Target analysis probe failed, continuing with partial profile")
		return profile, nil
	}

	profile.StatusCode = resp.StatusCode
	profile.ResponseTime = resp.Duration
	profile.Server = resp.Headers.Get("Server")
	profile.RateLimited = resp.Headers.Get("Retry-After") != ""

	profile.SecurityHeaders = make(map[string]string)
	for _, h := range []string{
		"X-Frame-Options", "X-Content-Type-Options",
		"Strict-Transport-Security", "Content-Security-Policy",
	} {
		if v := resp.Headers.Get(h); v != "" {
			profile.SecurityHeaders[h] = v
		}
	}

	if powered := resp.Headers.Get("X-Powered-By"); powered != "" {
		profile.TechStack = append(profile.TechStack, powered)
	}
	if resp.Headers.Get("X-AspNet-Version") != "" {
		profile.TechStack = append(profile.TechStack, "ASP.NET")
	}

	if cms := detectCMS(resp.Body, resp.Headers.Get("Server")); cms != "" {
		profile.CMS = cms
	} else {
		profile.CMS = c.fingerprintCMS(ctx, profile.URL)
	}

	log.Info().
		Str("domain", profile.Domain).
		Str("server", profile.Server).
		Str("cms", profile.CMS).
		Dur("rtt", profile.ResponseTime).
		Msg("Target analyzed")
	return profile, nil
}

// fingerprintCMS probes the known fingerprint paths and returns the first
// stack whose marker answers with a success or redirect.
func (c *Coordinator) fingerprintCMS(ctx context.Context, baseURL string) string {
	for path, cms := range fingerprintPaths {
		resp, err := c.client.Fetch(ctx, baseURL+path)
		if err != nil {
			continue
		}
		if resp.StatusCode == 200 || resp.StatusCode == 301 || resp.StatusCode == 302 {
			return cms
		}
	}
	return ""
}

// detectCMS inspects markup and headers for framework signatures.
func detectCMS(body []byte, server string) string {
	content := strings.ToLower(string(body))

	switch {
	case strings.Contains(content, "wp-content") || strings.Contains(content, "wp-includes"):
		return "WordPress"
	case strings.Contains(content, "joomla"):
		return "Joomla"
	case strings.Contains(content, "drupal") || strings.Contains(content, "sites/default/files"):
		return "Drupal"
	}

	// The generator meta tag is authoritative when present.
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	generator, _ := doc.Find(`meta[name="generator"]`).Attr("content")
	gen := strings.ToLower(generator)
	switch {
	case strings.Contains(gen, "wordpress"):
		return "WordPress"
	case strings.Contains(gen, "joomla"):
		return "Joomla"
	case strings.Contains(gen, "drupal"):
		return "Drupal"
	}
	return ""
}
