package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"assetgate/internal/domain"
	dErrors "assetgate/pkg/domain-errors"
)

// Schema expects the following tables:
//
//	submissions(id text primary key, status text, data jsonb,
//	    oracle jsonb, abm jsonb, fraud jsonb, consensus jsonb,
//	    failure text, created_at timestamptz)
//	submission_stages(submission_id text, stage text, data jsonb,
//	    primary key(submission_id, stage))
//	submission_logs(seq bigserial primary key, submission_id text, data jsonb)

// PostgresStore persists submissions in PostgreSQL. Stage results live as
// jsonb columns on the submission row; stage progress and logs have their own
// tables so logs stay append-only.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs the store on an established pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, sub domain.Submission) error {
	b, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO submissions (id, status, data, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`, sub.ID, string(sub.Status), b, sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dErrors.New(dErrors.CodeConflict, "submission already exists")
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (domain.Submission, error) {
	var b []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM submissions WHERE id = $1`, id).Scan(&b)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Submission{}, dErrors.New(dErrors.CodeNotFound, "submission not found")
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("get submission: %w", err)
	}
	var sub domain.Submission
	if err := json.Unmarshal(b, &sub); err != nil {
		return domain.Submission{}, fmt.Errorf("unmarshal submission: %w", err)
	}
	return sub, nil
}

// List returns submissions newest first.
func (s *PostgresStore) List(ctx context.Context) ([]domain.Submission, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM submissions ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []domain.Submission
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		var sub domain.Submission
		if err := json.Unmarshal(b, &sub); err != nil {
			return nil, fmt.Errorf("unmarshal submission: %w", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) SetStatus(ctx context.Context, id string, status domain.Status) error {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if sub.Status.Terminal() {
		return dErrors.New(dErrors.CodeConflict, "submission already terminal")
	}
	sub.Status = status
	sub.UpdatedAt = nowUTC()
	b, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	_, err = s.pool.Exec(ctx, `UPDATE submissions SET status = $2, data = $3 WHERE id = $1`,
		id, string(status), b)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetFailure(ctx context.Context, id string, stage domain.Stage, reason string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE submissions SET failure = $2 WHERE id = $1`,
		id, string(stage)+": "+reason)
	if err != nil {
		return fmt.Errorf("update failure: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dErrors.New(dErrors.CodeNotFound, "submission not found")
	}
	return nil
}

func (s *PostgresStore) putResult(ctx context.Context, id, column string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s result: %w", column, err)
	}
	// column comes from a fixed caller set, never from input
	tag, err := s.pool.Exec(ctx, `UPDATE submissions SET `+column+` = $2 WHERE id = $1`, id, b)
	if err != nil {
		return fmt.Errorf("update %s result: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return dErrors.New(dErrors.CodeNotFound, "submission not found")
	}
	return nil
}

func (s *PostgresStore) PutOracle(ctx context.Context, id string, result domain.OracleResult) error {
	return s.putResult(ctx, id, "oracle", result)
}

func (s *PostgresStore) PutABM(ctx context.Context, id string, result domain.ABMResult) error {
	return s.putResult(ctx, id, "abm", result)
}

func (s *PostgresStore) PutFraud(ctx context.Context, id string, result domain.FraudResult) error {
	return s.putResult(ctx, id, "fraud", result)
}

func (s *PostgresStore) PutConsensus(ctx context.Context, id string, score domain.ConsensusScore) error {
	return s.putResult(ctx, id, "consensus", score)
}

func (s *PostgresStore) PutStage(ctx context.Context, id string, stage domain.StageProgress) error {
	b, err := json.Marshal(stage)
	if err != nil {
		return fmt.Errorf("marshal stage progress: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO submission_stages (submission_id, stage, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (submission_id, stage) DO UPDATE SET data = EXCLUDED.data
	`, id, string(stage.Stage), b)
	if err != nil {
		return fmt.Errorf("upsert stage progress: %w", err)
	}
	return nil
}

func (s *PostgresStore) Stages(ctx context.Context, id string) ([]domain.StageProgress, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `SELECT data FROM submission_stages WHERE submission_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("query stage progress: %w", err)
	}
	defer rows.Close()

	out := make([]domain.StageProgress, 0, len(stageOrder))
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("scan stage progress: %w", err)
		}
		var sp domain.StageProgress
		if err := json.Unmarshal(b, &sp); err != nil {
			return nil, fmt.Errorf("unmarshal stage progress: %w", err)
		}
		out = append(out, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stage progress: %w", err)
	}
	sortStages(out)
	return out, nil
}

func (s *PostgresStore) AppendLog(ctx context.Context, id string, entry domain.LogEntry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal log entry: %w", err)
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO submission_logs (submission_id, data) VALUES ($1, $2)`, id, b)
	if err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Logs(ctx context.Context, id string) ([]domain.LogEntry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `SELECT data FROM submission_logs WHERE submission_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	var out []domain.LogEntry
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		var e domain.LogEntry
		if err := json.Unmarshal(b, &e); err != nil {
			return nil, fmt.Errorf("unmarshal log entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate logs: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Full(ctx context.Context, id string) (domain.FullResult, error) {
	var (
		data, oracle, abm, fraud, consensus []byte
		failure                             *string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT data, oracle, abm, fraud, consensus, failure
		FROM submissions WHERE id = $1
	`, id).Scan(&data, &oracle, &abm, &fraud, &consensus, &failure)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.FullResult{}, dErrors.New(dErrors.CodeNotFound, "submission not found")
	}
	if err != nil {
		return domain.FullResult{}, fmt.Errorf("get full result: %w", err)
	}

	var full domain.FullResult
	if err := json.Unmarshal(data, &full.Submission); err != nil {
		return domain.FullResult{}, fmt.Errorf("unmarshal submission: %w", err)
	}
	if err := unmarshalInto(oracle, &full.Oracle); err != nil {
		return domain.FullResult{}, err
	}
	if err := unmarshalInto(abm, &full.ABM); err != nil {
		return domain.FullResult{}, err
	}
	if err := unmarshalInto(fraud, &full.Fraud); err != nil {
		return domain.FullResult{}, err
	}
	if err := unmarshalInto(consensus, &full.Consensus); err != nil {
		return domain.FullResult{}, err
	}
	if failure != nil {
		full.Failure = *failure
	}
	return full, nil
}

// unmarshalInto decodes a nullable jsonb column into a **T target, leaving it
// nil when the column is NULL.
func unmarshalInto[T any](b []byte, target **T) error {
	if len(b) == 0 {
		return nil
	}
	v := new(T)
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("unmarshal stage result: %w", err)
	}
	*target = v
	return nil
}

// sortStages orders stage progress entries in pipeline order.
func sortStages(stages []domain.StageProgress) {
	sort.Slice(stages, func(i, j int) bool {
		return stageOrder[stages[i].Stage] < stageOrder[stages[j].Stage]
	})
}
