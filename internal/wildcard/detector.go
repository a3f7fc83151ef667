// Package wildcard learns a target's "fake success" response signature so
// that catch-all handlers answering every unmatched path with a success
// status do not flood the results with false positives.
package wildcard

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"math"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"dirhunter/internal/requester"
	"dirhunter/internal/similarity"
)

const probeCount = 3

// Signature is the per-base-directory baseline of a wildcard responder.
type Signature struct {
	StatusCode int
	Size       int64
	Vector     similarity.Vector
}

// Detector calibrates base directories and matches later results against
// the recorded signatures. Safe for concurrent use.
type Detector struct {
	client        *requester.Client
	threshold     float64 // cosine similarity floor for a content match
	sizeTolerance float64 // relative content-length tolerance

	mu   sync.RWMutex
	sigs map[string]*Signature // nil value = calibrated, target answers honestly
}

// NewDetector creates a detector. threshold is the tunable content
// similarity floor (0..1).
func NewDetector(client *requester.Client, threshold float64) *Detector {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.90
	}
	return &Detector{
		client:        client,
		threshold:     threshold,
		sizeTolerance: 0.05,
		sigs:          make(map[string]*Signature),
	}
}

// Calibrated reports whether the base directory has already been probed.
func (d *Detector) Calibrated(baseDir string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.sigs[baseDir]
	return ok
}

// Calibrate probes the base directory with implausible random tokens and
// records a signature when all probes agree on a success-like response.
// Calling it again for the same directory is a no-op.
func (d *Detector) Calibrate(ctx context.Context, baseDir string) {
	if d.Calibrated(baseDir) {
		return
	}

	type probe struct {
		status int
		size   int64
		vector similarity.Vector
	}
	var probes []probe

	for i := 0; i < probeCount; i++ {
		token := randomToken()
		url := strings.TrimSuffix(baseDir, "/") + "/" + token
		resp, err := d.client.Fetch(ctx, url)
		if err != nil {
			continue
		}
		probes = append(probes, probe{
			status: resp.StatusCode,
			size:   resp.Size,
			vector: similarity.NewVector(resp.Body, resp.ContentType),
		})
	}

	// All probes must succeed and agree; anything else (a consistent 404,
	// partial failures, mixed statuses) means the directory answers honestly.
	sig := (*Signature)(nil)
	if len(probes) == probeCount {
		agree := true
		for i := 1; i < len(probes); i++ {
			if probes[i].status != probes[0].status {
				agree = false
				break
			}
			if !d.sizeClose(probes[i].size, probes[0].size) {
				agree = false
				break
			}
			if similarity.Cosine(probes[i].vector, probes[0].vector) < d.threshold {
				agree = false
				break
			}
		}
		if agree && probes[0].status < 400 {
			sig = &Signature{
				StatusCode: probes[0].status,
				Size:       probes[0].size,
				Vector:     probes[0].vector,
			}
			log.Debug().
				Str("base", baseDir).
				Int("status", sig.StatusCode).
				Int64("size", sig.Size).
				Msg("Wildcard signature recorded")
		}
	}

	d.mu.Lock()
	if _, ok := d.sigs[baseDir]; !ok {
		d.sigs[baseDir] = sig
	}
	d.mu.Unlock()
}

// Matches reports whether a response under baseDir is indistinguishable
// from the directory's wildcard signature. Directories without a signature
// never match.
func (d *Detector) Matches(baseDir string, statusCode int, size int64, body []byte, contentType string) bool {
	d.mu.RLock()
	sig := d.sigs[baseDir]
	d.mu.RUnlock()

	if sig == nil {
		return false
	}
	if statusCode != sig.StatusCode {
		return false
	}
	if !d.sizeClose(size, sig.Size) {
		return false
	}
	vec := similarity.NewVector(body, contentType)
	return similarity.Cosine(vec, sig.Vector) >= d.threshold
}

func (d *Detector) sizeClose(a, b int64) bool {
	if b == 0 {
		return a == 0
	}
	diff := math.Abs(float64(a-b)) / float64(b)
	return diff <= d.sizeTolerance
}

func randomToken() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "dirhunter-cal-000000000000"
	}
	return hex.EncodeToString(buf)
}
