// Package consensus makes the terminal eligibility decision. The engine is a
// pure function over the three upstream stage results: identical inputs
// always yield an identical decision.
package consensus

import (
	"fmt"
	"math"
	"time"

	"assetgate/internal/domain"
	"assetgate/internal/platform/config"
)

// Engine evaluates the hard threshold rules in the fixed order existence,
// ownership, fraud. Eligibility is the logical AND of all three.
type Engine struct {
	thresholds config.ConsensusThresholds
}

// New constructs the engine with the given thresholds.
func New(thresholds config.ConsensusThresholds) *Engine {
	return &Engine{thresholds: thresholds}
}

// Score decides eligibility for a submission from its completed stage
// results. The rejection reason is the name of the first failing rule, which
// keeps rejection messages deterministic and reproducible.
func (e *Engine) Score(submissionID string, oracle *domain.OracleResult, abm *domain.ABMResult, fraud *domain.FraudResult) domain.ConsensusScore {
	rules := []domain.RuleResult{
		{
			Rule:      domain.RuleExistence,
			Threshold: e.thresholds.MinExistence,
			Actual:    oracle.Existence.Score,
			Passed:    oracle.Existence.Score >= e.thresholds.MinExistence,
		},
		{
			Rule:      domain.RuleOwnership,
			Threshold: e.thresholds.MinOwnership,
			Actual:    oracle.Ownership.Score,
			Passed:    oracle.Ownership.Score >= e.thresholds.MinOwnership,
		},
		{
			Rule:      domain.RuleFraud,
			Threshold: e.thresholds.MaxFraud,
			Actual:    fraud.Likelihood,
			Passed:    fraud.Likelihood <= e.thresholds.MaxFraud,
		},
	}

	eligible := true
	var reason, detail string
	for _, r := range rules {
		if r.Passed {
			continue
		}
		eligible = false
		if reason == "" {
			reason = r.Rule
			detail = rejectionDetail(r)
		}
	}

	return domain.ConsensusScore{
		SubmissionID:         submissionID,
		ExistenceScore:       oracle.Existence.Score,
		OwnershipProbability: oracle.Ownership.Score,
		ActivityScore:        oracle.ActivityScore,
		FraudLikelihood:      fraud.Likelihood,
		RiskScore:            abm.RiskScore,
		Rules:                rules,
		Eligible:             eligible,
		Confidence:           e.confidence(rules, oracle, abm, fraud),
		RejectionReason:      reason,
		RejectionDetail:      detail,
		CalculatedAt:         time.Now().UTC(),
	}
}

func rejectionDetail(r domain.RuleResult) string {
	switch r.Rule {
	case domain.RuleExistence:
		return fmt.Sprintf("existence verification failed: %.1f%% < %.0f%% required", r.Actual*100, r.Threshold*100)
	case domain.RuleOwnership:
		return fmt.Sprintf("ownership probability insufficient: %.1f%% < %.0f%% required", r.Actual*100, r.Threshold*100)
	case domain.RuleFraud:
		return fmt.Sprintf("fraud likelihood too high: %.2f%% > %.1f%% maximum", r.Actual, r.Threshold)
	}
	return r.Rule + " check failed"
}

// confidence is a derived summary statistic, never part of the pass/fail
// rule. It blends rule margins with upstream data quality.
func (e *Engine) confidence(rules []domain.RuleResult, oracle *domain.OracleResult, abm *domain.ABMResult, fraud *domain.FraudResult) float64 {
	var ruleConfidence float64
	allPassed := true
	for _, r := range rules {
		if !r.Passed {
			allPassed = false
			continue
		}
		var margin float64
		if r.Rule == domain.RuleFraud {
			// Lower is better.
			margin = (r.Threshold - r.Actual) / r.Threshold
		} else {
			margin = (r.Actual - r.Threshold) / (1 - r.Threshold)
		}
		ruleConfidence += math.Max(0, math.Min(1, margin)) / float64(len(rules))
	}

	dataConfidence := oracle.Existence.Confidence*0.3 +
		oracle.Ownership.Confidence*0.2 +
		abm.Confidence*0.3 +
		(1-fraud.Likelihood/100)*0.2

	base := 0.3
	if allPassed {
		base = 0.7
	}
	return math.Min(0.99, base+ruleConfidence*0.2+dataConfidence*0.1)
}
