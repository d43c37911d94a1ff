package submissionrepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gitlab.com/codearena.net/internal/core/ports/primary"
	"gitlab.com/codearena.net/internal/core/ports/secondary"
	"gitlab.com/codearena.net/internal/domain"
	"gitlab.com/codearena.net/internal/static/errs"
	querybuilder "gitlab.com/codearena.net/internal/utils"
)

var _ secondary.SubmissionRepository = &submissionRepo{}

type submissionRepo struct {
	db     *sqlx.DB
	logger primary.Logger
	schema string
}

func New(db *sqlx.DB, logger primary.Logger, schema string) secondary.SubmissionRepository {
	return &submissionRepo{
		db:     db,
		logger: logger,
		schema: schema,
	}
}

func (r submissionRepo) Create(ctx context.Context, submission *domain.Submission) error {
	tbl := domain.GetSubmissionTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Insert(tbl.ID, tbl.ProblemID, tbl.UserID, tbl.Language, tbl.Code, tbl.Status, tbl.CreatedAt).
		Into(tbl.TableName()).
		Values(submission.ID, submission.ProblemID, submission.UserID,
			submission.Language, submission.Code, submission.Status, submission.CreatedAt).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to insert submission", "submissionId", submission.ID, "error", err)
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	return nil
}

func (r submissionRepo) Get(ctx context.Context, submissionID uuid.UUID) (*domain.Submission, error) {
	tbl := domain.GetSubmissionTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Select(tbl.ID, tbl.ProblemID, tbl.UserID, tbl.Language, tbl.Code, tbl.Status,
			tbl.ExecutionTimeMs, tbl.MemoryUsedKB, tbl.ErrorMessage, tbl.CreatedAt).
		From(tbl.TableName()).
		Where(fmt.Sprintf("%s = ?", tbl.ID), submissionID).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	var submission domain.Submission
	if err := r.db.GetContext(ctx, &submission, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &submission, nil
}

// UpdateVerdict only touches rows that are still pending, so a submission is
// finalized at most once
func (r submissionRepo) UpdateVerdict(ctx context.Context, submissionID uuid.UUID, verdict *domain.Verdict) error {
	tbl := domain.GetSubmissionTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Update(tbl.TableName()).
		Set(tbl.Status, verdict.Status).
		Set(tbl.ExecutionTimeMs, verdict.ExecutionTimeMs).
		Set(tbl.MemoryUsedKB, verdict.MemoryKB).
		Set(tbl.ErrorMessage, verdict.ErrorMessage).
		Where(fmt.Sprintf("%s = ?", tbl.ID), submissionID).
		And(fmt.Sprintf("%s = ?", tbl.Status), domain.SubmissionStatusPending).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return errs.ErrSubmissionFinalized
	}
	return nil
}

func (r submissionRepo) ListRecent(ctx context.Context, userID, problemID string, limit int) ([]domain.SubmissionSummary, error) {
	tbl := domain.GetSubmissionTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Select(tbl.ID, tbl.Language, tbl.Status, tbl.ExecutionTimeMs, tbl.MemoryUsedKB,
			tbl.CreatedAt, tbl.ErrorMessage).
		From(tbl.TableName()).
		Where(fmt.Sprintf("%s = ?", tbl.UserID), userID).
		And(fmt.Sprintf("%s = ?", tbl.ProblemID), problemID).
		OrderBy(tbl.CreatedAt, false).
		Limit(limit).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	summaries := make([]domain.SubmissionSummary, 0, limit)
	if err := r.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return summaries, nil
}

func (r submissionRepo) FailStalePending(ctx context.Context, cutoff time.Time, message string) ([]domain.Submission, error) {
	tbl := domain.GetSubmissionTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Update(tbl.TableName()).
		Set(tbl.Status, domain.SubmissionStatusRuntimeError).
		Set(tbl.ErrorMessage, message).
		Where(fmt.Sprintf("%s = ?", tbl.Status), domain.SubmissionStatusPending).
		And(fmt.Sprintf("%s < ?", tbl.CreatedAt), cutoff).
		Returning(tbl.ID, tbl.ProblemID, tbl.UserID, tbl.Language, tbl.Status, tbl.ErrorMessage, tbl.CreatedAt).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	var swept []domain.Submission
	if err := r.db.SelectContext(ctx, &swept, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fail stale submissions: %w", err)
	}
	return swept, nil
}
