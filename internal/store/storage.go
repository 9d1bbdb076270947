// Package store is the durable record of jobs, contacts, name translations,
// learned site patterns, message templates, and the activity log.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tomerlv/outreach-be/internal/domain"
	"github.com/tomerlv/outreach-be/internal/workflow"
	"github.com/tomerlv/outreach-be/shared/postgresql"
)

// Storage handles all database operations.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a Storage backed by the PostgreSQL client.
func NewStorage(pg *postgresql.Client, logger *slog.Logger) *Storage {
	return &Storage{db: pg.GetDB(), logger: logger}
}

// NewStorageWithDB creates a Storage from a raw sqlx.DB (used by tests).
func NewStorageWithDB(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{db: db, logger: logger}
}

const jobColumns = `
	job_id, url, company_name, job_title, status, workflow_step,
	error_message, pending_names, last_check_at, created_at, processed_at
`

// CreateJob inserts a new job in its initial state
// (pending / company_extraction).
func (s *Storage) CreateJob(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (
			job_id, url, company_name, job_title, status, workflow_step,
			pending_names, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		job.JobID,
		job.URL,
		job.CompanyName,
		job.JobTitle,
		job.Status,
		job.WorkflowStep,
		pq.Array([]string(job.PendingNames)),
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID.
func (s *Storage) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	var job domain.Job
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE job_id = $1`

	err := s.db.GetContext(ctx, &job, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// ListJobs returns jobs newest-first with an optional status filter.
func (s *Storage) ListJobs(ctx context.Context, status string, skip, limit int) ([]domain.Job, int, error) {
	countQuery := `SELECT COUNT(*) FROM jobs`
	listQuery := `SELECT ` + jobColumns + ` FROM jobs`
	args := []interface{}{}

	if status != "" {
		countQuery += ` WHERE status = $1`
		listQuery += ` WHERE status = $1`
		args = append(args, status)
	}

	var total int
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count jobs: %w", err)
	}

	listQuery += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, skip)

	var jobs []domain.Job
	if err := s.db.SelectContext(ctx, &jobs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, total, nil
}

// UpdateJobState applies one workflow transition. Error message and pending
// names overwrite unconditionally so a nil value clears the column.
func (s *Storage) UpdateJobState(ctx context.Context, jobID string, upd workflow.JobStateUpdate) error {
	query := `
		UPDATE jobs
		SET status = $1,
			workflow_step = $2,
			error_message = $3,
			pending_names = $4,
			last_check_at = CASE WHEN $5 THEN NOW() ELSE last_check_at END,
			processed_at = CASE WHEN $6 THEN NOW() ELSE processed_at END
		WHERE job_id = $7
	`

	result, err := s.db.ExecContext(ctx, query,
		upd.Status,
		upd.WorkflowStep,
		upd.ErrorMessage,
		pq.Array(upd.PendingNames),
		upd.TouchLastCheck,
		upd.TouchProcessed,
		jobID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job state: %w", err)
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return domain.ErrJobNotFound
	}

	s.logger.Debug("Job state updated",
		slog.String("job_id", jobID),
		slog.String("status", upd.Status),
		slog.String("workflow_step", upd.WorkflowStep),
	)
	return nil
}

// SetJobCompany stores the extracted or user-supplied company name.
func (s *Storage) SetJobCompany(ctx context.Context, jobID, companyName string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET company_name = $1 WHERE job_id = $2`,
		companyName, jobID,
	)
	if err != nil {
		return fmt.Errorf("failed to set company name: %w", err)
	}
	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// MarkJobManually applies a user-declared terminal status (done/rejected) or
// a retry reset. The caller is responsible for refusing processing jobs.
func (s *Storage) MarkJobManually(ctx context.Context, jobID, status string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = $1, error_message = NULL, processed_at = NOW() WHERE job_id = $2`,
		status, jobID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark job: %w", err)
	}
	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// ResetInterrupted reconciles jobs left processing by a crashed process so
// they become user-resumable instead of stuck forever.
func (s *Storage) ResetInterrupted(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = $1, error_message = $2 WHERE status = $3`,
		domain.JobStatusFailed, "interrupted", domain.JobStatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reset interrupted jobs: %w", err)
	}
	return result.RowsAffected()
}

// DeleteJob removes a job and its contacts (user action).
func (s *Storage) DeleteJob(ctx context.Context, jobID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE job_id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}
