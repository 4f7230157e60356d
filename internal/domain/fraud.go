package domain

import "time"

// AnomalySeverity classifies a fraud anomaly by its score contribution.
type AnomalySeverity string

const (
	SeverityInfo     AnomalySeverity = "info"
	SeverityHigh     AnomalySeverity = "high"
	SeverityCritical AnomalySeverity = "critical"
)

// RiskLevel buckets the overall fraud likelihood.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Anomaly is one triggered fraud indicator. Score is its additive
// contribution to the fraud likelihood.
type Anomaly struct {
	Type     string          `json:"type"`
	Severity AnomalySeverity `json:"severity"`
	Detail   string          `json:"detail"`
	Score    float64         `json:"score"`
	Evidence []string        `json:"evidence,omitempty"`
}

// RuleBasedDetection holds the rule engine output.
type RuleBasedDetection struct {
	Anomalies      []Anomaly `json:"anomalies"`
	RulesTriggered []string  `json:"rulesTriggered"`
	TotalScore     float64   `json:"totalScore"`
}

// MLBasedDetection holds the simulated model proxy scores.
type MLBasedDetection struct {
	IsolationForestScore float64   `json:"isolationForestScore"`
	XGBoostFraudProb     float64   `json:"xgboostFraudProb"`
	Anomalies            []Anomaly `json:"anomalies"`
}

// PatternDetection holds cross-submission pattern checks.
type PatternDetection struct {
	DuplicateSubmission bool      `json:"duplicateSubmission"`
	LinkedFraud         bool      `json:"linkedFraud"`
	SuspiciousTiming    bool      `json:"suspiciousTiming"`
	Anomalies           []Anomaly `json:"anomalies"`
}

// FraudResult is the outcome of the fraud detection stage. Likelihood is a
// percentage in [0,100].
type FraudResult struct {
	Likelihood   float64            `json:"likelihood"`
	RiskLevel    RiskLevel          `json:"riskLevel"`
	RuleBased    RuleBasedDetection `json:"ruleBased"`
	ML           MLBasedDetection   `json:"ml"`
	Patterns     PatternDetection   `json:"patterns"`
	AnomalyCount int                `json:"anomalyCount"`
	CompletedAt  time.Time          `json:"completedAt"`
}
