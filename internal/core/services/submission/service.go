package submission

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gitlab.com/codearena.net/internal/domain"
)

// ISubmissionService owns the submission lifecycle from pending to a terminal verdict
type ISubmissionService interface {
	// CreateSubmission stores a pending submission authored by the current actor
	CreateSubmission(ctx context.Context, problemID string, code string, language domain.Language) (*domain.Submission, error)

	// ExecuteSubmission judges a pending submission and stores its verdict exactly once.
	// On failure the submission is moved to runtime_error and errs.ErrExecutionFailed is returned.
	ExecuteSubmission(ctx context.Context, submissionID uuid.UUID, testCases []*domain.TestCase) (*domain.Verdict, error)

	// GetSubmissionHistory lists the current actor's newest submissions for a problem
	GetSubmissionHistory(ctx context.Context, problemID string, limit int) ([]domain.SubmissionSummary, error)

	// GetSubmissionDetails returns a submission only to its author
	GetSubmissionDetails(ctx context.Context, submissionID uuid.UUID) (*domain.Submission, error)

	// Run judges code against the visible test cases without storing anything
	Run(ctx context.Context, problemID string, language domain.Language, code string) (*domain.Verdict, error)

	// Submit creates a submission and judges it against visible then hidden test cases
	Submit(ctx context.Context, problemID string, language domain.Language, code string) (*domain.JudgedSubmission, error)

	// FailStale finalizes submissions left pending for longer than staleAfter
	FailStale(ctx context.Context, staleAfter time.Duration) (int, error)
}
