package domain

import "time"

// Evidence is the supporting material a signal provider attaches to its
// score. Immutable once created.
type Evidence struct {
	Source     string         `json:"source"`
	Confidence float64        `json:"confidence"`
	Signal     string         `json:"signal"`
	Detail     string         `json:"detail,omitempty"`
	Raw        map[string]any `json:"raw,omitempty"`
	ImageURL   string         `json:"imageUrl,omitempty"`
}

// Signal is one provider's contribution to a composite oracle score.
type Signal struct {
	Provider string  `json:"provider"`
	Score    float64 `json:"score"`
	// Weight is the effective weight after renormalization; zero when the
	// provider failed or timed out.
	Weight   float64  `json:"weight"`
	Failed   bool     `json:"failed,omitempty"`
	Evidence Evidence `json:"evidence"`
}

// CompositeScore is a weighted aggregate over a group of signals.
type CompositeScore struct {
	Score      float64  `json:"score"`
	Confidence float64  `json:"confidence"`
	Signals    []Signal `json:"signals"`
}

// OracleResult is the outcome of the oracle verification stage. Existence and
// ownership scores live in [0,1].
type OracleResult struct {
	Existence     CompositeScore `json:"existence"`
	Ownership     CompositeScore `json:"ownership"`
	ActivityScore float64        `json:"activityScore"`
	OverallScore  float64        `json:"overallScore"`
	CompletedAt   time.Time      `json:"completedAt"`
}
