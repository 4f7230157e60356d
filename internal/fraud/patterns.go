package fraud

import (
	"fmt"
	"math/rand"

	"assetgate/internal/domain"
)

// runPatternDetection covers cross-submission signals: duplicate assets,
// wallets linked to prior fraud, and burst submission timing. The first and
// last are simulated; linked fraud reads the historical oracle signal.
func runPatternDetection(sub domain.Submission, oracle *domain.OracleResult, rng *rand.Rand) (domain.PatternDetection, []anomaly) {
	duplicate := rng.Float64() > 0.95
	linkedFraud := rawInt(oracle.Existence, "historical", "priorFraudFlags") > 0
	suspiciousTiming := rng.Float64() > 0.92

	var anomalies []anomaly
	if duplicate {
		anomalies = append(anomalies, anomaly{
			Type:     "duplicate_submission",
			Detail:   "potential duplicate or recycled asset submission detected",
			Score:    0.4,
			Evidence: []string{"asset fingerprint matches previous submission"},
		})
	}
	if linkedFraud {
		anomalies = append(anomalies, anomaly{
			Type:     "linked_fraud",
			Detail:   "wallet address linked to accounts with prior fraud history",
			Score:    0.3,
			Evidence: []string{fmt.Sprintf("prior fraud flags: %d", rawInt(oracle.Existence, "historical", "priorFraudFlags"))},
		})
	}
	if suspiciousTiming {
		anomalies = append(anomalies, anomaly{
			Type:     "suspicious_timing",
			Detail:   "multiple high-value submissions in short timeframe",
			Score:    0.15,
			Evidence: []string{"3+ submissions in last 24 hours"},
		})
	}

	return domain.PatternDetection{
		DuplicateSubmission: duplicate,
		LinkedFraud:         linkedFraud,
		SuspiciousTiming:    suspiciousTiming,
	}, anomalies
}
