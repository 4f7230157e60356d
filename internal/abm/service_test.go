package abm

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetgate/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastService(seed int64) *Service {
	s := NewService(seed, testLogger())
	s.runs = 500
	s.years = 5
	return s
}

func testSubmission() domain.Submission {
	return domain.Submission{
		ID:        "sub-1",
		AssetName: "Koramangala Office Park",
		Location:  domain.Location{City: "Bengaluru", Country: "IN"},
		Specifications: domain.Specifications{
			Size:      10000,
			Type:      "commercial",
			Condition: domain.ConditionGood,
		},
		Financials: domain.Financials{
			CurrentRent:     500000,
			ExpectedYield:   7.0,
			AnnualExpenses:  1200000,
			OccupancyRate:   90,
			TenantCount:     8,
			LeaseTermMonths: 60,
		},
		ClaimedValue: 85000000,
	}
}

func TestAnalyzeDeterministicWithSeed(t *testing.T) {
	sub := testSubmission()

	first, err := fastService(42).Analyze(context.Background(), sub, nil)
	require.NoError(t, err)
	second, err := fastService(42).Analyze(context.Background(), sub, nil)
	require.NoError(t, err)

	assert.Equal(t, first.NAV.Mean, second.NAV.Mean)
	assert.Equal(t, first.RiskScore, second.RiskScore)
	assert.Equal(t, first.InvestabilityScore, second.InvestabilityScore)
	assert.Equal(t, first.MarketFitScore, second.MarketFitScore)
	assert.Equal(t, first.CashFlow.TotalMean, second.CashFlow.TotalMean)
}

func TestAnalyzeMockFlagDoesNotChangeModel(t *testing.T) {
	real := testSubmission()
	real.SPV.RegistrationID = "REG-2024-77"

	mock := real
	mock.ID = "sub-2"
	mock.SPV.RegistrationID = "MOCK-2024-77"
	mock.Mock = true

	svc := fastService(42)
	realResult, err := svc.Analyze(context.Background(), real, nil)
	require.NoError(t, err)
	mockResult, err := svc.Analyze(context.Background(), mock, nil)
	require.NoError(t, err)

	assert.Equal(t, realResult.NAV.Mean, mockResult.NAV.Mean)
	assert.Equal(t, realResult.RiskScore, mockResult.RiskScore)
	assert.Equal(t, realResult.MarketFitScore, mockResult.MarketFitScore)
}

func TestAnalyzeRejectsZeroSize(t *testing.T) {
	sub := testSubmission()
	sub.Specifications.Size = 0

	_, err := fastService(1).Analyze(context.Background(), sub, nil)
	require.Error(t, err)
}

func TestNAVBandOrdered(t *testing.T) {
	result, err := fastService(7).Analyze(context.Background(), testSubmission(), nil)
	require.NoError(t, err)

	nav := result.NAV
	assert.Greater(t, nav.Mean, 0.0)
	assert.Less(t, nav.Downside, nav.Upside)
	assert.Greater(t, nav.ClaimedVsCalculated, 0.0)
	assert.GreaterOrEqual(t, nav.ComparablesUsed, 1)
	assert.LessOrEqual(t, nav.ComparablesUsed, 10)
}

func TestConditionAdjustsValuation(t *testing.T) {
	sub := testSubmission()

	visionOracle := func(score float64) *domain.OracleResult {
		return &domain.OracleResult{
			Existence: domain.CompositeScore{
				Signals: []domain.Signal{{
					Provider: "vision",
					Evidence: domain.Evidence{Raw: map[string]any{"conditionScore": score}},
				}},
			},
		}
	}

	// Identical submission content keeps comparables identical across the two
	// runs, so only the condition multiplier differs.
	pristine, err := fastService(42).Analyze(context.Background(), sub, visionOracle(0.95))
	require.NoError(t, err)
	rundown, err := fastService(42).Analyze(context.Background(), sub, visionOracle(0.2))
	require.NoError(t, err)

	assert.Greater(t, pristine.NAV.AdjustedPricePerSqFt, rundown.NAV.AdjustedPricePerSqFt)
}

func TestOracleVisionOverridesClaimedCondition(t *testing.T) {
	sub := testSubmission()

	oracle := &domain.OracleResult{
		Existence: domain.CompositeScore{
			Signals: []domain.Signal{{
				Provider: "vision",
				Score:    0.9,
				Evidence: domain.Evidence{Raw: map[string]any{"conditionScore": 0.95}},
			}},
		},
	}

	assert.Equal(t, 0.95, conditionMultiplier(sub, oracle))
	assert.Equal(t, domain.ConditionScore(domain.ConditionGood), conditionMultiplier(sub, nil))
}

func TestStressScenariosPresent(t *testing.T) {
	result, err := fastService(7).Analyze(context.Background(), testSubmission(), nil)
	require.NoError(t, err)

	require.Len(t, result.Risk.StressTests, 5)
	for _, st := range result.Risk.StressTests {
		assert.NotEmpty(t, st.Scenario)
		assert.Negative(t, st.NAVImpact)
		assert.Negative(t, st.CFImpact)
		assert.Greater(t, st.Probability, 0.0)
	}
}

func TestScoresWithinBounds(t *testing.T) {
	result, err := fastService(7).Analyze(context.Background(), testSubmission(), nil)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.RiskScore, 0.0)
	assert.LessOrEqual(t, result.RiskScore, 100.0)
	assert.GreaterOrEqual(t, result.Risk.LiquidityScore, 10.0)
	assert.LessOrEqual(t, result.Risk.LiquidityScore, 100.0)
	assert.GreaterOrEqual(t, result.Confidence, 0.0)
	assert.LessOrEqual(t, result.Confidence, 0.95)
	assert.Equal(t, 500, result.CashFlow.Runs)
	assert.Len(t, result.CashFlow.MeanAnnual, 5)
}
