package domain

import "time"

// Rule names, in their fixed evaluation order. The rejection reason is always
// the first failing rule in this order.
const (
	RuleExistence = "existence"
	RuleOwnership = "ownership"
	RuleFraud     = "fraud"
)

// RuleResult records one threshold evaluation for transparency.
type RuleResult struct {
	Rule      string  `json:"rule"`
	Threshold float64 `json:"threshold"`
	Actual    float64 `json:"actual"`
	Passed    bool    `json:"passed"`
}

// ConsensusScore is the terminal eligibility decision. Computed once by a
// pure function; identical inputs always yield an identical score.
type ConsensusScore struct {
	SubmissionID string `json:"submissionId"`

	ExistenceScore       float64 `json:"existenceScore"`
	OwnershipProbability float64 `json:"ownershipProbability"`
	ActivityScore        float64 `json:"activityScore"`
	FraudLikelihood      float64 `json:"fraudLikelihood"`
	RiskScore            float64 `json:"riskScore"`

	Rules    []RuleResult `json:"rules"`
	Eligible bool         `json:"eligible"`
	// Confidence is a derived summary statistic, not part of the pass/fail
	// rule.
	Confidence float64 `json:"confidence"`
	// RejectionReason is the name of the first failing rule; empty when
	// eligible.
	RejectionReason string `json:"rejectionReason,omitempty"`
	// RejectionDetail is the human-readable form of RejectionReason, derived
	// deterministically from the failing rule.
	RejectionDetail string    `json:"rejectionDetail,omitempty"`
	CalculatedAt    time.Time `json:"calculatedAt"`
}
