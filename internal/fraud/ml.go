package fraud

import (
	"fmt"
	"math"
	"math/rand"

	"assetgate/internal/domain"
)

// Simulated proxies for the production ML scoring service. Both models read
// the same flat feature vector extracted from the three upstream results.

func extractFeatures(sub domain.Submission, oracle *domain.OracleResult, abm *domain.ABMResult) []float64 {
	return []float64{
		oracle.Existence.Score,
		oracle.Ownership.Score,
		oracle.ActivityScore,
		rawFloat(oracle.Existence, "landregistry", "ownerNameMatch"),
		rawFloat(oracle.Existence, "vision", "authenticityScore"),
		rawFloat(oracle.Existence, "historical", "reputationScore"),

		abm.NAV.ClaimedVsCalculated,
		abm.Yield.SustainabilityScore,
		abm.Yield.Spread / 10,
		abm.CashFlow.ProbabilityPositive,
		abm.Risk.TailRiskScore,
		abm.RiskScore / 100,
		abm.InvestabilityScore / 100,
		abm.MarketFitScore / 100,

		sub.Specifications.Size / 10000,
		sub.Financials.ExpectedYield / 20,
		sub.Financials.OccupancyRate / 100,
		sub.ClaimedValue / 100000000,
		float64(len(sub.ImageURLs)) / 10,
		float64(len(sub.DocumentURLs)) / 5,
	}
}

// isolationScore approximates an isolation forest by measuring how many
// features sit more than two standard deviations from the feature mean.
func isolationScore(features []float64, rng *rand.Rand) float64 {
	var mean float64
	for _, f := range features {
		mean += f
	}
	mean /= float64(len(features))

	var variance float64
	for _, f := range features {
		variance += (f - mean) * (f - mean)
	}
	std := math.Sqrt(variance / float64(len(features)))

	outliers := 0
	for _, f := range features {
		if math.Abs(f-mean) > 2*std {
			outliers++
		}
	}

	base := float64(outliers) / float64(len(features))
	return math.Min(1, base*0.7+rng.Float64()*0.3*base)
}

// boostedFraudProbability approximates a gradient-boosted fraud classifier
// over the strongest hand-picked indicators.
func boostedFraudProbability(features []float64, rng *rand.Rand) float64 {
	navRatio := features[6]
	sustainability := features[7]
	authenticity := features[4]
	ownership := features[1]
	reputation := features[5]

	var prob float64
	if navRatio > 1.3 {
		prob += (navRatio - 1) * 0.3
	}
	if sustainability < 0.5 {
		prob += (1 - sustainability) * 0.2
	}
	if authenticity < 0.8 {
		prob += (1 - authenticity) * 0.25
	}
	if ownership < 0.7 {
		prob += (1 - ownership) * 0.15
	}
	if reputation < 0.5 {
		prob += (1 - reputation) * 0.1
	}
	prob *= 0.8 + rng.Float64()*0.4

	return math.Min(1, prob)
}

func runMLDetection(sub domain.Submission, oracle *domain.OracleResult, abm *domain.ABMResult, rng *rand.Rand) (domain.MLBasedDetection, []anomaly) {
	features := extractFeatures(sub, oracle, abm)

	iso := isolationScore(features, rng)
	xgb := boostedFraudProbability(features, rng)

	var anomalies []anomaly
	if iso > 0.3 {
		anomalies = append(anomalies, anomaly{
			Type:     "ml_outlier",
			Detail:   fmt.Sprintf("asset features are statistically unusual (isolation score: %.0f%%)", iso*100),
			Score:    iso * 0.2,
			Evidence: []string{"multivariate anomaly detection triggered"},
		})
	}
	if xgb > 0.4 {
		anomalies = append(anomalies, anomaly{
			Type:     "ml_fraud_prediction",
			Detail:   fmt.Sprintf("model predicts %.0f%% fraud probability", xgb*100),
			Score:    xgb * 0.3,
			Evidence: []string{"gradient boosting fraud classifier triggered"},
		})
	}

	return domain.MLBasedDetection{
		IsolationForestScore: math.Round(iso*100) / 100,
		XGBoostFraudProb:     math.Round(xgb*100) / 100,
	}, anomalies
}
