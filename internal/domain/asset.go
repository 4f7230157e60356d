package domain

import "time"

// TokenEconomics is the tokenization plan derived from the verified NAV.
// Supply is meanNAV divided by the fixed token price.
type TokenEconomics struct {
	TokenSupply     int64   `json:"tokenSupply"`
	TokenPrice      float64 `json:"tokenPrice"`
	AvailableTokens int64   `json:"availableTokens"`
	AnnualYieldPct  float64 `json:"annualYieldPct"`
}

// NAVBand is the published valuation band handed to the registry.
type NAVBand struct {
	Mean     float64 `json:"mean"`
	Downside float64 `json:"downside"`
	Upside   float64 `json:"upside"`
}

// LegalStatus tracks the downstream legal-entity workflow for an eligible
// asset.
type LegalStatus string

const (
	LegalPending   LegalStatus = "PENDING"
	LegalInReview  LegalStatus = "IN_REVIEW"
	LegalCompleted LegalStatus = "COMPLETED"
	LegalSkipped   LegalStatus = "SKIPPED"
)

// EligibleAsset is the registry record created for a submission that passed
// consensus. Append-only; attestation hashes make the record tamper-evident.
type EligibleAsset struct {
	ID           string `json:"id"`
	SubmissionID string `json:"submissionId"`
	AssetName    string `json:"assetName"`

	// Fingerprint is the SHA-256 over the canonical identity fields of the
	// SPV, used for duplicate detection across submissions.
	Fingerprint string `json:"fingerprint"`

	NAV             NAVBand        `json:"nav"`
	ConsensusScore  float64        `json:"consensusScore"`
	TokenEconomics  TokenEconomics `json:"tokenEconomics"`
	OracleHash      string         `json:"oracleHash"`
	ABMHash         string         `json:"abmHash"`
	FraudHash       string         `json:"fraudHash"`
	ConsensusHash   string         `json:"consensusHash"`
	LegalStatus     LegalStatus    `json:"legalStatus"`
	LegalWorkflowID string         `json:"legalWorkflowId,omitempty"`
	RegisteredAt    time.Time      `json:"registeredAt"`
}
