package secondary

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gitlab.com/codearena.net/internal/domain"
)

type SubmissionRepository interface {
	// Create inserts a new submission
	Create(ctx context.Context, submission *domain.Submission) error

	// Get retrieves a submission by ID, nil when absent
	Get(ctx context.Context, submissionID uuid.UUID) (*domain.Submission, error)

	// UpdateVerdict moves a pending submission to a terminal status.
	// Returns errs.ErrSubmissionFinalized when the row is no longer pending.
	UpdateVerdict(ctx context.Context, submissionID uuid.UUID, verdict *domain.Verdict) error

	// ListRecent returns the newest submissions of a user for a problem
	ListRecent(ctx context.Context, userID, problemID string, limit int) ([]domain.SubmissionSummary, error)

	// FailStalePending marks submissions pending since before cutoff as runtime_error
	// and returns the rows it changed
	FailStalePending(ctx context.Context, cutoff time.Time, message string) ([]domain.Submission, error)
}

type ProblemRepository interface {
	ProblemExists(ctx context.Context, problemID string) (bool, error)

	// GetTestCases returns visible test cases, then hidden ones when includeHidden is set,
	// each group ordered by order index
	GetTestCases(ctx context.Context, problemID string, includeHidden bool) ([]*domain.TestCase, error)
}

// HistoryCache caches history listings per (user, problem).
// Get reports the generation the listing was read at; Set stores items only while
// that generation is current, so a listing loaded before an Invalidate is dropped.
type HistoryCache interface {
	Get(ctx context.Context, userID, problemID string, limit int) (items []domain.SubmissionSummary, generation int64, hit bool, err error)
	Set(ctx context.Context, userID, problemID string, limit int, generation int64, items []domain.SubmissionSummary) error
	Invalidate(ctx context.Context, userID, problemID string) error
}

type VerdictPublisher interface {
	PublishVerdict(ctx context.Context, event domain.VerdictEvent) error
}

type ActorResolver interface {
	// CurrentActor returns the authenticated actor. When required is set and there is
	// none, errs.ErrUnauthenticated is returned; otherwise nil, nil.
	CurrentActor(ctx context.Context, required bool) (*domain.Actor, error)
}
