package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gitlab.com/codearena.net/internal/core/ports/primary"
	"gitlab.com/codearena.net/internal/core/ports/secondary"
	"gitlab.com/codearena.net/internal/core/services/judge"
	"gitlab.com/codearena.net/internal/domain"
	"gitlab.com/codearena.net/internal/static/errs"
)

var _ ISubmissionService = (*SubmissionService)(nil)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 50

	staleMessage = "judging interrupted"

	// bounds the fallback write and follow-up notifications once the request context is gone
	detachedTimeout = 5 * time.Second
)

type SubmissionService struct {
	submissionRepo secondary.SubmissionRepository
	problemRepo    secondary.ProblemRepository
	judgeService   judge.IJudgeService
	actors         secondary.ActorResolver
	historyCache   secondary.HistoryCache
	publisher      secondary.VerdictPublisher
	logger         primary.Logger
}

func NewSubmissionService(
	submissionRepo secondary.SubmissionRepository,
	problemRepo secondary.ProblemRepository,
	judgeService judge.IJudgeService,
	actors secondary.ActorResolver,
	historyCache secondary.HistoryCache,
	publisher secondary.VerdictPublisher,
	logger primary.Logger,
) *SubmissionService {
	return &SubmissionService{
		submissionRepo: submissionRepo,
		problemRepo:    problemRepo,
		judgeService:   judgeService,
		actors:         actors,
		historyCache:   historyCache,
		publisher:      publisher,
		logger:         logger,
	}
}

func (s *SubmissionService) CreateSubmission(ctx context.Context, problemID string, code string, language domain.Language) (*domain.Submission, error) {
	actor, err := s.actors.CurrentActor(ctx, true)
	if err != nil {
		return nil, err
	}
	if err := validateSource(language, code); err != nil {
		return nil, err
	}

	exists, err := s.problemRepo.ProblemExists(ctx, problemID)
	if err != nil {
		return nil, fmt.Errorf("failed to check problem: %w", err)
	}
	if !exists {
		return nil, errs.ErrProblemNotFound
	}

	sub := domain.NewSubmission(actor.UserID, problemID, language, code)
	if err := s.submissionRepo.Create(ctx, sub); err != nil {
		s.logger.Error("Failed to create submission", "problemId", problemID, "userId", actor.UserID, "error", err)
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	s.invalidateHistory(ctx, sub.UserID, sub.ProblemID)
	s.logger.Info("Submission created",
		"submissionId", sub.ID,
		"problemId", problemID,
		"userId", actor.UserID,
		"language", language)
	return sub, nil
}

func (s *SubmissionService) ExecuteSubmission(ctx context.Context, submissionID uuid.UUID, testCases []*domain.TestCase) (*domain.Verdict, error) {
	sub, err := s.submissionRepo.Get(ctx, submissionID)
	if err != nil {
		return nil, s.failExecution(ctx, submissionID, nil, err)
	}
	if sub == nil {
		return nil, errs.ErrSubmissionNotFound
	}
	if sub.Status.IsTerminal() {
		return nil, errs.ErrSubmissionFinalized
	}

	verdict, err := s.judgeService.Judge(ctx, sub.Language, sub.Code, testCases)
	if err != nil {
		return nil, s.failExecution(ctx, submissionID, sub, err)
	}

	if err := s.submissionRepo.UpdateVerdict(ctx, submissionID, verdict); err != nil {
		if errors.Is(err, errs.ErrSubmissionFinalized) {
			s.logger.Warn("Submission was finalized while judging", "submissionId", submissionID)
			return nil, err
		}
		return nil, s.failExecution(ctx, submissionID, sub, err)
	}

	s.logger.Info("Submission judged",
		"submissionId", submissionID,
		"status", verdict.Status,
		"testCases", len(testCases))
	s.afterTerminal(ctx, sub, verdict)
	return verdict, nil
}

// failExecution stores runtime_error with the cause as message so the submission
// never stays pending, then reports a generic failure
func (s *SubmissionService) failExecution(ctx context.Context, submissionID uuid.UUID, sub *domain.Submission, cause error) error {
	s.logger.Error("Submission execution failed", "submissionId", submissionID, "error", cause)

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), detachedTimeout)
	defer cancel()

	message := cause.Error()
	verdict := &domain.Verdict{
		Status:       domain.SubmissionStatusRuntimeError,
		ErrorMessage: &message,
	}
	if err := s.submissionRepo.UpdateVerdict(wctx, submissionID, verdict); err != nil {
		s.logger.Error("Failed to store fallback verdict", "submissionId", submissionID, "error", err)
	} else if sub != nil {
		s.afterTerminal(wctx, sub, verdict)
	}

	return fmt.Errorf("%w: %w", errs.ErrExecutionFailed, cause)
}

// afterTerminal drops cached history and announces the verdict; failures are only logged
func (s *SubmissionService) afterTerminal(ctx context.Context, sub *domain.Submission, verdict *domain.Verdict) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), detachedTimeout)
	defer cancel()

	s.invalidateHistory(ctx, sub.UserID, sub.ProblemID)

	event := domain.VerdictEvent{
		SubmissionID:    sub.ID,
		ProblemID:       sub.ProblemID,
		UserID:          sub.UserID,
		Language:        sub.Language,
		Status:          verdict.Status,
		ExecutionTimeMs: verdict.ExecutionTimeMs,
		MemoryKB:        verdict.MemoryKB,
		JudgedAt:        time.Now().UTC(),
	}
	if err := s.publisher.PublishVerdict(ctx, event); err != nil {
		s.logger.Warn("Failed to publish verdict", "submissionId", sub.ID, "error", err)
	}
}

func (s *SubmissionService) invalidateHistory(ctx context.Context, userID, problemID string) {
	if err := s.historyCache.Invalidate(ctx, userID, problemID); err != nil {
		s.logger.Warn("Failed to invalidate history cache", "userId", userID, "problemId", problemID, "error", err)
	}
}

func (s *SubmissionService) GetSubmissionHistory(ctx context.Context, problemID string, limit int) ([]domain.SubmissionSummary, error) {
	actor, err := s.actors.CurrentActor(ctx, true)
	if err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	items, generation, hit, err := s.historyCache.Get(ctx, actor.UserID, problemID, limit)
	cacheable := err == nil
	if err != nil {
		s.logger.Warn("History cache read failed", "userId", actor.UserID, "problemId", problemID, "error", err)
	}
	if hit {
		return items, nil
	}

	items, err = s.submissionRepo.ListRecent(ctx, actor.UserID, problemID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission history: %w", err)
	}

	// the generation read above guards against a verdict landing while the list was loading
	if cacheable {
		if err := s.historyCache.Set(ctx, actor.UserID, problemID, limit, generation, items); err != nil {
			s.logger.Warn("History cache write failed", "userId", actor.UserID, "problemId", problemID, "error", err)
		}
	}
	return items, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	}
	return limit
}

func (s *SubmissionService) GetSubmissionDetails(ctx context.Context, submissionID uuid.UUID) (*domain.Submission, error) {
	actor, err := s.actors.CurrentActor(ctx, true)
	if err != nil {
		return nil, err
	}

	sub, err := s.submissionRepo.Get(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	// someone else's submission is reported as missing
	if sub == nil || sub.UserID != actor.UserID {
		return nil, errs.ErrSubmissionNotFound
	}
	return sub, nil
}

func (s *SubmissionService) Run(ctx context.Context, problemID string, language domain.Language, code string) (*domain.Verdict, error) {
	if _, err := s.actors.CurrentActor(ctx, false); err != nil {
		return nil, err
	}
	if err := validateSource(language, code); err != nil {
		return nil, err
	}

	testCases, err := s.loadTestCases(ctx, problemID, false)
	if err != nil {
		return nil, err
	}

	verdict, err := s.judgeService.Judge(ctx, language, code, testCases)
	if err != nil {
		s.logger.Error("Run failed", "problemId", problemID, "language", language, "error", err)
		return nil, fmt.Errorf("%w: %w", errs.ErrExecutionFailed, err)
	}
	return verdict, nil
}

func (s *SubmissionService) Submit(ctx context.Context, problemID string, language domain.Language, code string) (*domain.JudgedSubmission, error) {
	if _, err := s.actors.CurrentActor(ctx, true); err != nil {
		return nil, err
	}
	if err := validateSource(language, code); err != nil {
		return nil, err
	}

	// load first so a problem without test cases never leaves a pending row behind
	testCases, err := s.loadTestCases(ctx, problemID, true)
	if err != nil {
		return nil, err
	}

	sub, err := s.CreateSubmission(ctx, problemID, code, language)
	if err != nil {
		return nil, err
	}

	verdict, err := s.ExecuteSubmission(ctx, sub.ID, testCases)
	if err != nil {
		return nil, err
	}

	sub.ApplyVerdict(verdict)
	return &domain.JudgedSubmission{Submission: sub, Verdict: verdict}, nil
}

func (s *SubmissionService) loadTestCases(ctx context.Context, problemID string, includeHidden bool) ([]*domain.TestCase, error) {
	exists, err := s.problemRepo.ProblemExists(ctx, problemID)
	if err != nil {
		return nil, fmt.Errorf("failed to check problem: %w", err)
	}
	if !exists {
		return nil, errs.ErrProblemNotFound
	}

	testCases, err := s.problemRepo.GetTestCases(ctx, problemID, includeHidden)
	if err != nil {
		return nil, fmt.Errorf("failed to load test cases: %w", err)
	}
	if len(testCases) == 0 {
		return nil, errs.ErrNoTestCases
	}
	return testCases, nil
}

func (s *SubmissionService) FailStale(ctx context.Context, staleAfter time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-staleAfter)
	swept, err := s.submissionRepo.FailStalePending(ctx, cutoff, staleMessage)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep stale submissions: %w", err)
	}

	message := staleMessage
	for i := range swept {
		sub := &swept[i]
		s.logger.Warn("Stale submission finalized", "submissionId", sub.ID, "createdAt", sub.CreatedAt)
		s.afterTerminal(ctx, sub, &domain.Verdict{
			Status:       domain.SubmissionStatusRuntimeError,
			ErrorMessage: &message,
		})
	}
	return len(swept), nil
}

func validateSource(language domain.Language, code string) error {
	if !language.IsSupported() {
		return fmt.Errorf("%w: %s", errs.ErrUnsupportedLanguage, language)
	}
	if strings.TrimSpace(code) == "" {
		return errs.ErrEmptyCode
	}
	return nil
}
