package coordinator

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"dirhunter/internal/advisory"
	"dirhunter/internal/scan"
)

// Strategy produces a tuning recommendation for a profiled target. The
// coordinator composes strategies instead of branching on a provider name.
type Strategy interface {
	Recommend(ctx context.Context, profile TargetProfile) (*advisory.Recommendation, error)
}

// LocalStrategy derives a recommendation purely from the rule tables. It
// never fails.
type LocalStrategy struct{}

// Recommend implements Strategy.
func (s *LocalStrategy) Recommend(_ context.Context, profile TargetProfile) (*advisory.Recommendation, error) {
	return &advisory.Recommendation{
		WordlistHint: wordlistHint(profile),
		Extensions:   extensionsFor(profile),
		Threads:      threadsFor(profile),
	}, nil
}

// AdvisoryStrategy asks the external advisory service.
type AdvisoryStrategy struct {
	Client advisory.Client
}

// Recommend implements Strategy. Failures surface as *scan.AdvisoryError
// for the composing fallback to absorb.
func (s *AdvisoryStrategy) Recommend(ctx context.Context, profile TargetProfile) (*advisory.Recommendation, error) {
	rec, err := s.Client.SubmitAnalysis(ctx, advisory.Context{
		TargetURL:    profile.URL,
		Server:       profile.Server,
		CMS:          profile.CMS,
		TechStack:    profile.TechStack,
		BasePath:     profile.BasePath,
		ResponseTime: profile.ResponseTime,
		Headers:      profile.SecurityHeaders,
	})
	if err != nil {
		var advErr *scan.AdvisoryError
		if !errors.As(err, &advErr) {
			err = &scan.AdvisoryError{Reason: "unexpected failure", Err: err}
		}
		return nil, err
	}
	return rec, nil
}

// FallbackStrategy runs the primary strategy and transparently recovers
// with the fallback when the primary fails. An advisory failure is never
// fatal to a scan.
type FallbackStrategy struct {
	Primary  Strategy
	Fallback Strategy
}

// Recommend implements Strategy.
func (s *FallbackStrategy) Recommend(ctx context.Context, profile TargetProfile) (*advisory.Recommendation, error) {
	rec, err := s.Primary.Recommend(ctx, profile)
	if err == nil {
		return rec, nil
	}
	log.Warn().Err(err).Msg("Advisory failed, falling back to local rules")
	return s.Fallback.Recommend(ctx, profile)
}
