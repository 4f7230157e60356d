package domain

import "time"

// Stage identifies one pipeline phase.
type Stage string

const (
	StageIntake    Stage = "intake"
	StageOracle    Stage = "oracle"
	StageABM       Stage = "abm"
	StageFraud     Stage = "fraud"
	StageConsensus Stage = "consensus"
	StageRegistry  Stage = "registry"
)

// LogLevel classifies a pipeline log entry.
type LogLevel string

const (
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// LogEntry is one append-only line in a submission's processing log.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Stage     Stage     `json:"stage"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
}

// SubStage reports fine-grained progress inside a stage, such as one signal
// provider inside the oracle stage.
type SubStage struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
	Failed    bool   `json:"failed,omitempty"`
}

// StageProgress is the per-stage view of pipeline progress.
type StageProgress struct {
	Stage       Stage      `json:"stage"`
	Started     bool       `json:"started"`
	Completed   bool       `json:"completed"`
	Failed      bool       `json:"failed,omitempty"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	SubStages   []SubStage `json:"subStages,omitempty"`
}

// Progress is the live pipeline view for one submission.
type Progress struct {
	SubmissionID string `json:"submissionId"`
	Status       Status `json:"status"`
	// Percent is a coarse completion estimate derived from the status.
	Percent int             `json:"percent"`
	Stages  []StageProgress `json:"stages"`
	Logs    []LogEntry      `json:"logs"`
}

// FullResult is the complete verification record for a finished submission.
// Stage pointers are nil until that stage has completed.
type FullResult struct {
	Submission Submission      `json:"submission"`
	Oracle     *OracleResult   `json:"oracle,omitempty"`
	ABM        *ABMResult      `json:"abm,omitempty"`
	Fraud      *FraudResult    `json:"fraud,omitempty"`
	Consensus  *ConsensusScore `json:"consensus,omitempty"`
	Asset      *EligibleAsset  `json:"asset,omitempty"`
	// Failure holds the stage error message when the pipeline terminated in
	// FAILED.
	Failure string `json:"failure,omitempty"`
}
