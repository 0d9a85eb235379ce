package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrpayroll/internal/domain/apperr"
)

type Run struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	Details     json.RawMessage `json:"details,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// RunLog persists job_runs rows.
type RunLog interface {
	Start(ctx context.Context, id, jobType string, startedAt time.Time) error
	Finish(ctx context.Context, id, status string, details []byte, completedAt time.Time) error
	Get(ctx context.Context, id string) (Run, error)
}

type PGRunLog struct {
	DB *pgxpool.Pool
}

func NewPGRunLog(db *pgxpool.Pool) *PGRunLog {
	return &PGRunLog{DB: db}
}

func (l *PGRunLog) Start(ctx context.Context, id, jobType string, startedAt time.Time) error {
	_, err := l.DB.Exec(ctx, `
    INSERT INTO job_runs (id, job_type, status, started_at)
    VALUES ($1,$2,$3,$4)
  `, id, jobType, StatusRunning, startedAt)
	return err
}

func (l *PGRunLog) Finish(ctx context.Context, id, status string, details []byte, completedAt time.Time) error {
	tag, err := l.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = $3
    WHERE id = $4
  `, status, details, completedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (l *PGRunLog) Get(ctx context.Context, id string) (Run, error) {
	var run Run
	err := l.DB.QueryRow(ctx, `
    SELECT id, job_type, status, details_json, started_at, completed_at
    FROM job_runs
    WHERE id = $1
  `, id).Scan(&run.ID, &run.Type, &run.Status, &run.Details, &run.StartedAt, &run.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, apperr.ErrNotFound
	}
	return run, err
}

// MemoryRunLog keeps job runs in process, for the CLI and tests.
type MemoryRunLog struct {
	mu   sync.Mutex
	runs map[string]Run
}

func NewMemoryRunLog() *MemoryRunLog {
	return &MemoryRunLog{runs: map[string]Run{}}
}

func (l *MemoryRunLog) Start(ctx context.Context, id, jobType string, startedAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs[id] = Run{ID: id, Type: jobType, Status: StatusRunning, StartedAt: startedAt}
	return nil
}

func (l *MemoryRunLog) Finish(ctx context.Context, id, status string, details []byte, completedAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	run, ok := l.runs[id]
	if !ok {
		return apperr.ErrNotFound
	}
	run.Status = status
	run.Details = append(json.RawMessage(nil), details...)
	run.CompletedAt = &completedAt
	l.runs[id] = run
	return nil
}

func (l *MemoryRunLog) Get(ctx context.Context, id string) (Run, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	run, ok := l.runs[id]
	if !ok {
		return Run{}, apperr.ErrNotFound
	}
	return run, nil
}
