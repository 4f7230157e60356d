package consensus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetgate/internal/domain"
	"assetgate/internal/platform/config"
)

func testEngine() *Engine {
	return New(config.ConsensusThresholds{
		MinExistence: 0.70,
		MinOwnership: 0.70,
		MaxFraud:     5.0,
	})
}

func inputs(existence, ownership, fraudLikelihood float64) (*domain.OracleResult, *domain.ABMResult, *domain.FraudResult) {
	return &domain.OracleResult{
			Existence:     domain.CompositeScore{Score: existence, Confidence: 0.8},
			Ownership:     domain.CompositeScore{Score: ownership, Confidence: 0.7},
			ActivityScore: 0.8,
		},
		&domain.ABMResult{RiskScore: 35, Confidence: 0.8},
		&domain.FraudResult{Likelihood: fraudLikelihood}
}

func TestEligibleWhenAllRulesPass(t *testing.T) {
	oracle, abm, fraud := inputs(0.95, 0.92, 0)

	score := testEngine().Score("sub-1", oracle, abm, fraud)

	assert.True(t, score.Eligible)
	assert.Empty(t, score.RejectionReason)
	assert.Empty(t, score.RejectionDetail)
	require.Len(t, score.Rules, 3)
	for _, r := range score.Rules {
		assert.True(t, r.Passed, r.Rule)
	}
}

func TestRejectedOnLowExistence(t *testing.T) {
	oracle, abm, fraud := inputs(0.50, 0.92, 0)

	score := testEngine().Score("sub-1", oracle, abm, fraud)

	assert.False(t, score.Eligible)
	assert.Equal(t, "existence", score.RejectionReason)
	assert.NotEmpty(t, score.RejectionDetail)
}

func TestThresholdBoundaries(t *testing.T) {
	e := testEngine()

	// Exactly at threshold passes.
	oracle, abm, fraud := inputs(0.70, 0.70, 5.0)
	score := e.Score("sub-1", oracle, abm, fraud)
	assert.True(t, score.Eligible)

	// Just below fails with the rule name as reason.
	oracle, abm, fraud = inputs(0.6999, 0.92, 0)
	score = e.Score("sub-1", oracle, abm, fraud)
	assert.False(t, score.Eligible)
	assert.Equal(t, "existence", score.RejectionReason)

	oracle, abm, fraud = inputs(0.95, 0.6999, 0)
	score = e.Score("sub-1", oracle, abm, fraud)
	assert.False(t, score.Eligible)
	assert.Equal(t, "ownership", score.RejectionReason)

	oracle, abm, fraud = inputs(0.95, 0.92, 5.01)
	score = e.Score("sub-1", oracle, abm, fraud)
	assert.False(t, score.Eligible)
	assert.Equal(t, "fraud", score.RejectionReason)
}

func TestRulePrecedence(t *testing.T) {
	// All three rules fail; the reported reason is always the first in the
	// fixed order existence, ownership, fraud.
	oracle, abm, fraud := inputs(0.10, 0.10, 90)

	score := testEngine().Score("sub-1", oracle, abm, fraud)

	assert.False(t, score.Eligible)
	assert.Equal(t, "existence", score.RejectionReason)

	oracle, abm, fraud = inputs(0.95, 0.10, 90)
	score = testEngine().Score("sub-1", oracle, abm, fraud)
	assert.Equal(t, "ownership", score.RejectionReason)
}

func TestScoreIsDeterministic(t *testing.T) {
	oracle, abm, fraud := inputs(0.81, 0.77, 3.2)
	e := testEngine()

	first := e.Score("sub-1", oracle, abm, fraud)
	second := e.Score("sub-1", oracle, abm, fraud)

	first.CalculatedAt = second.CalculatedAt
	assert.Equal(t, first, second)
}

func TestConfidenceBounds(t *testing.T) {
	oracle, abm, fraud := inputs(0.99, 0.99, 0)
	score := testEngine().Score("sub-1", oracle, abm, fraud)
	assert.LessOrEqual(t, score.Confidence, 0.99)
	assert.Greater(t, score.Confidence, 0.7)

	oracle, abm, fraud = inputs(0.1, 0.1, 99)
	score = testEngine().Score("sub-1", oracle, abm, fraud)
	assert.Less(t, score.Confidence, 0.7)
}

func TestSummaryStatisticsSurfaced(t *testing.T) {
	oracle, abm, fraud := inputs(0.9, 0.85, 1.5)
	score := testEngine().Score("sub-9", oracle, abm, fraud)

	assert.Equal(t, "sub-9", score.SubmissionID)
	assert.Equal(t, 0.9, score.ExistenceScore)
	assert.Equal(t, 0.85, score.OwnershipProbability)
	assert.Equal(t, 0.8, score.ActivityScore)
	assert.Equal(t, 1.5, score.FraudLikelihood)
	assert.Equal(t, 35.0, score.RiskScore)
}
