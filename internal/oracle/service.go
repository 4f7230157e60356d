// Package oracle aggregates signal providers into existence and ownership
// composite scores for a submission.
package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"assetgate/internal/domain"
	"assetgate/internal/oracle/metrics"
	"assetgate/internal/oracle/signal"
	"assetgate/internal/platform/config"
)

// Service runs all registered signal providers concurrently and aggregates
// their scores by fixed configured weights. A provider failure zero-weights
// that provider instead of failing the stage; only a whole group failing is
// fatal.
type Service struct {
	registry *signal.Registry
	weights  config.OracleWeights
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewService constructs the oracle aggregator. metrics may be nil.
func NewService(
	registry *signal.Registry,
	weights config.OracleWeights,
	timeout time.Duration,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		registry: registry,
		weights:  weights,
		timeout:  timeout,
		logger:   logger,
		metrics:  m,
	}
}

// Verify evaluates every provider and returns the aggregated oracle result.
func (s *Service) Verify(ctx context.Context, sub domain.Submission) (*domain.OracleResult, error) {
	start := time.Now()

	existenceSignals := s.evaluateGroup(ctx, signal.GroupExistence, sub)
	ownershipSignals := s.evaluateGroup(ctx, signal.GroupOwnership, sub)

	existence, err := s.aggregate(signal.GroupExistence, existenceSignals, s.weights.Existence)
	if err != nil {
		return nil, err
	}
	ownership, err := s.aggregate(signal.GroupOwnership, ownershipSignals, s.weights.Ownership)
	if err != nil {
		return nil, err
	}

	activityScore := existence.Score
	for _, sig := range existence.Signals {
		if sig.Provider == "activity" && !sig.Failed {
			activityScore = signal.ActivityScore(sig)
			break
		}
	}

	overall := existence.Score*0.5 + ownership.Score*0.35 + activityScore*0.15

	s.metrics.ObserveVerifyLatency(time.Since(start))
	s.logger.InfoContext(ctx, "oracle verification complete",
		"submission_id", sub.ID,
		"existence_score", existence.Score,
		"ownership_probability", ownership.Score,
		"activity_score", activityScore,
		"overall_score", overall,
	)

	return &domain.OracleResult{
		Existence:     existence,
		Ownership:     ownership,
		ActivityScore: activityScore,
		OverallScore:  overall,
		CompletedAt:   time.Now().UTC(),
	}, nil
}

// evaluateGroup runs all providers of a group in parallel. Failed providers
// come back as zero-weight signals, never as errors.
func (s *Service) evaluateGroup(ctx context.Context, g signal.Group, sub domain.Submission) []domain.Signal {
	providers := s.registry.ListByGroup(g)
	signals := make([]domain.Signal, len(providers))

	eg, ctx := errgroup.WithContext(ctx)
	for i, p := range providers {
		i, p := i, p
		eg.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			start := time.Now()
			sig, err := p.Evaluate(pctx, sub)
			s.metrics.ObserveSignalLatency(p.Name(), time.Since(start))

			if err != nil {
				s.metrics.IncrementSignalFailure(p.Name())
				s.logger.WarnContext(ctx, "signal provider failed",
					"submission_id", sub.ID,
					"provider", p.Name(),
					"error", err,
				)
				signals[i] = domain.Signal{Provider: p.Name(), Failed: true}
				return nil
			}
			signals[i] = sig
			return nil
		})
	}
	// Goroutines never return errors; Wait only joins them.
	_ = eg.Wait()
	return signals
}

// aggregate computes the weighted composite for one signal group. Weights of
// failed providers are redistributed by renormalizing the remainder to sum
// to 1.
func (s *Service) aggregate(g signal.Group, signals []domain.Signal, weights map[string]float64) (domain.CompositeScore, error) {
	var total float64
	for _, sig := range signals {
		if !sig.Failed {
			total += weights[sig.Provider]
		}
	}
	if total <= 0 {
		return domain.CompositeScore{}, fmt.Errorf("all %s signal providers failed", g)
	}

	composite := domain.CompositeScore{Signals: signals}
	for i, sig := range signals {
		if sig.Failed {
			continue
		}
		w := weights[sig.Provider] / total
		signals[i].Weight = w
		composite.Score += sig.Score * w
		composite.Confidence += sig.Evidence.Confidence * w
	}
	composite.Score = math.Min(1, composite.Score)
	composite.Confidence = math.Min(1, composite.Confidence)
	return composite, nil
}
