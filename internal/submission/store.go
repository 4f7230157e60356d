package submission

import (
	"context"

	"assetgate/internal/domain"
)

// Store persists submissions and their stage results. All writes to a given
// submission are owned exclusively by that submission's processing goroutine;
// readers see only fully written stage results.
type Store interface {
	Create(ctx context.Context, sub domain.Submission) error
	Get(ctx context.Context, id string) (domain.Submission, error)
	List(ctx context.Context) ([]domain.Submission, error)

	SetStatus(ctx context.Context, id string, status domain.Status) error
	SetFailure(ctx context.Context, id string, stage domain.Stage, reason string) error

	PutOracle(ctx context.Context, id string, result domain.OracleResult) error
	PutABM(ctx context.Context, id string, result domain.ABMResult) error
	PutFraud(ctx context.Context, id string, result domain.FraudResult) error
	PutConsensus(ctx context.Context, id string, score domain.ConsensusScore) error

	PutStage(ctx context.Context, id string, stage domain.StageProgress) error
	Stages(ctx context.Context, id string) ([]domain.StageProgress, error)

	AppendLog(ctx context.Context, id string, entry domain.LogEntry) error
	Logs(ctx context.Context, id string) ([]domain.LogEntry, error)

	Full(ctx context.Context, id string) (domain.FullResult, error)
}
