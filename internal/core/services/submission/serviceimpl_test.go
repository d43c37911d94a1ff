package submission

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"gitlab.com/codearena.net/internal/adapter/logging"
	"gitlab.com/codearena.net/internal/core/services/judge"
	"gitlab.com/codearena.net/internal/domain"
	"gitlab.com/codearena.net/internal/static/errs"
)

type memoryRepo struct {
	mu          sync.Mutex
	submissions map[uuid.UUID]*domain.Submission
	getErr      error
	updateErr   error
	updates     int
	// afterList runs once the listing has been read, outside the lock
	afterList   func()
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{submissions: map[uuid.UUID]*domain.Submission{}}
}

func (r *memoryRepo) Create(_ context.Context, sub *domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sub
	r.submissions[sub.ID] = &cp
	return nil
}

func (r *memoryRepo) Get(_ context.Context, id uuid.UUID) (*domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	sub, ok := r.submissions[id]
	if !ok {
		return nil, nil
	}
	cp := *sub
	return &cp, nil
}

func (r *memoryRepo) UpdateVerdict(_ context.Context, id uuid.UUID, verdict *domain.Verdict) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// the first failure is a one-shot so the fallback write can succeed
	if r.updateErr != nil {
		err := r.updateErr
		r.updateErr = nil
		return err
	}
	sub, ok := r.submissions[id]
	if !ok || sub.Status != domain.SubmissionStatusPending {
		return errs.ErrSubmissionFinalized
	}
	r.updates++
	sub.ApplyVerdict(verdict)
	return nil
}

func (r *memoryRepo) ListRecent(_ context.Context, userID, problemID string, limit int) ([]domain.SubmissionSummary, error) {
	r.mu.Lock()
	var out []domain.SubmissionSummary
	for _, sub := range r.submissions {
		if sub.UserID == userID && sub.ProblemID == problemID {
			out = append(out, sub.Summary())
		}
	}
	afterList := r.afterList
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	if afterList != nil {
		afterList()
	}
	return out, nil
}

func (r *memoryRepo) FailStalePending(_ context.Context, cutoff time.Time, message string) ([]domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var swept []domain.Submission
	for _, sub := range r.submissions {
		if sub.Status == domain.SubmissionStatusPending && sub.CreatedAt.Before(cutoff) {
			msg := message
			sub.Status = domain.SubmissionStatusRuntimeError
			sub.ErrorMessage = &msg
			swept = append(swept, *sub)
		}
	}
	return swept, nil
}

func (r *memoryRepo) status(id uuid.UUID) domain.SubmissionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.submissions[id].Status
}

type fakeProblems struct {
	cases map[string][]*domain.TestCase
}

func (f *fakeProblems) ProblemExists(_ context.Context, problemID string) (bool, error) {
	_, ok := f.cases[problemID]
	return ok, nil
}

func (f *fakeProblems) GetTestCases(_ context.Context, problemID string, includeHidden bool) ([]*domain.TestCase, error) {
	var out []*domain.TestCase
	for _, tc := range f.cases[problemID] {
		if includeHidden || !tc.IsHidden {
			out = append(out, tc)
		}
	}
	return out, nil
}

type fakeActors struct{}

type actorKey struct{}

func withActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, &domain.Actor{UserID: userID, Username: userID})
}

func (fakeActors) CurrentActor(ctx context.Context, required bool) (*domain.Actor, error) {
	actor, _ := ctx.Value(actorKey{}).(*domain.Actor)
	if actor == nil && required {
		return nil, errs.ErrUnauthenticated
	}
	return actor, nil
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string][]domain.SubmissionSummary
	generations map[string]int64
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]domain.SubmissionSummary{}, generations: map[string]int64{}}
}

func (c *fakeCache) Get(_ context.Context, userID, problemID string, _ int) ([]domain.SubmissionSummary, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := userID + "/" + problemID
	items, ok := c.entries[key]
	return items, c.generations[key], ok, nil
}

func (c *fakeCache) Set(_ context.Context, userID, problemID string, _ int, generation int64, items []domain.SubmissionSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := userID + "/" + problemID
	if c.generations[key] != generation {
		return nil
	}
	c.entries[key] = items
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, userID, problemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := userID + "/" + problemID
	delete(c.entries, key)
	c.generations[key]++
	c.invalidated = append(c.invalidated, key)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.VerdictEvent
	err    error
}

func (p *fakePublisher) PublishVerdict(_ context.Context, event domain.VerdictEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

// scriptedJudge answers with a fixed verdict or error
type scriptedJudge struct {
	verdict *domain.Verdict
	err     error
	calls   int
	cases   []*domain.TestCase
}

func (j *scriptedJudge) Judge(_ context.Context, _ domain.Language, _ string, testCases []*domain.TestCase) (*domain.Verdict, error) {
	j.calls++
	j.cases = testCases
	return j.verdict, j.err
}

// stdoutExecutor prints the same stdout for every test case
type stdoutExecutor struct {
	stdout string
	stderr *string
}

func (e stdoutExecutor) Execute(context.Context, domain.Language, string, []interface{}) (domain.ExecutionOutcome, error) {
	out := e.stdout
	return domain.ExecutionOutcome{Stdout: &out, Error: e.stderr, Phase: domain.ExecutionPhaseRun, TransportOK: true}, nil
}

type fixture struct {
	svc       *SubmissionService
	repo      *memoryRepo
	cache     *fakeCache
	publisher *fakePublisher
}

func twoSum() *fakeProblems {
	return &fakeProblems{cases: map[string][]*domain.TestCase{
		"two-sum": {
			{Input: []interface{}{"1 2"}, ExpectedOutput: "3", OrderIndex: 0},
			{Input: []interface{}{"2 2"}, ExpectedOutput: "3", OrderIndex: 0, IsHidden: true},
		},
		"empty": {},
	}}
}

func newFixture(judgeService judge.IJudgeService) *fixture {
	f := &fixture{
		repo:      newMemoryRepo(),
		cache:     newFakeCache(),
		publisher: &fakePublisher{},
	}
	f.svc = NewSubmissionService(f.repo, twoSum(), judgeService, fakeActors{}, f.cache, f.publisher, logging.NewNopLogger())
	return f
}

func realJudge(executor stdoutExecutor) judge.IJudgeService {
	return judge.NewJudgeService(executor, nil, logging.NewNopLogger())
}

func TestCreateSubmissionRequiresActor(t *testing.T) {
	t.Parallel()
	f := newFixture(&scriptedJudge{})

	_, err := f.svc.CreateSubmission(context.Background(), "two-sum", "print(3)", domain.LanguagePython)
	if !errors.Is(err, errs.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestCreateSubmissionValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(&scriptedJudge{})
	ctx := withActor(context.Background(), "alice")

	if _, err := f.svc.CreateSubmission(ctx, "two-sum", "  ", domain.LanguagePython); !errors.Is(err, errs.ErrEmptyCode) {
		t.Fatalf("expected empty code error, got %v", err)
	}
	if _, err := f.svc.CreateSubmission(ctx, "two-sum", "x", domain.Language("ruby")); !errors.Is(err, errs.ErrUnsupportedLanguage) {
		t.Fatalf("expected unsupported language, got %v", err)
	}
	if _, err := f.svc.CreateSubmission(ctx, "missing", "x", domain.LanguageCpp); !errors.Is(err, errs.ErrProblemNotFound) {
		t.Fatalf("expected problem not found, got %v", err)
	}
}

func TestCreateSubmissionIsPending(t *testing.T) {
	t.Parallel()
	f := newFixture(&scriptedJudge{})
	ctx := withActor(context.Background(), "alice")

	sub, err := f.svc.CreateSubmission(ctx, "two-sum", "print(3)", domain.LanguagePython)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if sub.Status != domain.SubmissionStatusPending || sub.UserID != "alice" {
		t.Fatalf("unexpected submission %+v", sub)
	}
	if f.repo.status(sub.ID) != domain.SubmissionStatusPending {
		t.Fatalf("stored submission should be pending")
	}
	if len(f.cache.invalidated) != 1 {
		t.Fatalf("history cache should be invalidated on create")
	}
}

func TestSubmitAccepted(t *testing.T) {
	t.Parallel()
	f := newFixture(realJudge(stdoutExecutor{stdout: "3\n"}))
	ctx := withActor(context.Background(), "alice")

	result, err := f.svc.Submit(ctx, "two-sum", domain.LanguagePython, "print(3)")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.Verdict.Status != domain.SubmissionStatusAccepted || len(result.Verdict.Results) != 2 {
		t.Fatalf("expected accepted over visible and hidden cases, got %+v", result.Verdict)
	}
	if result.Submission.Status != domain.SubmissionStatusAccepted {
		t.Fatalf("returned submission should carry the verdict")
	}
	if f.repo.status(result.Submission.ID) != domain.SubmissionStatusAccepted {
		t.Fatalf("stored status should be accepted")
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0].Status != domain.SubmissionStatusAccepted {
		t.Fatalf("expected one accepted event, got %+v", f.publisher.events)
	}
}

func TestSubmitWrongAnswerMentionsIndex(t *testing.T) {
	t.Parallel()
	f := newFixture(realJudge(stdoutExecutor{stdout: "4"}))
	ctx := withActor(context.Background(), "alice")

	result, err := f.svc.Submit(ctx, "two-sum", domain.LanguageCpp, "int main(){}")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.Verdict.Status != domain.SubmissionStatusWrongAnswer {
		t.Fatalf("expected wrong_answer, got %s", result.Verdict.Status)
	}
	stored, _ := f.repo.Get(ctx, result.Submission.ID)
	if stored.ErrorMessage == nil || *stored.ErrorMessage != "Wrong answer on test case 1" {
		t.Fatalf("unexpected stored message %v", stored.ErrorMessage)
	}
}

func TestSubmitRuntimeErrorKeepsStderr(t *testing.T) {
	t.Parallel()
	stderr := "Segmentation fault"
	f := newFixture(realJudge(stdoutExecutor{stderr: &stderr}))
	ctx := withActor(context.Background(), "alice")

	result, err := f.svc.Submit(ctx, "two-sum", domain.LanguageCpp, "int main(){}")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	stored, _ := f.repo.Get(ctx, result.Submission.ID)
	if stored.Status != domain.SubmissionStatusRuntimeError || *stored.ErrorMessage != "Segmentation fault" {
		t.Fatalf("unexpected stored submission %+v", stored)
	}
}

func TestSubmitTimeLimit(t *testing.T) {
	t.Parallel()
	stderr := "time limit exceeded"
	f := newFixture(realJudge(stdoutExecutor{stderr: &stderr}))
	ctx := withActor(context.Background(), "alice")

	result, err := f.svc.Submit(ctx, "two-sum", domain.LanguageJava, "class Main{}")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if f.repo.status(result.Submission.ID) != domain.SubmissionStatusTimeLimitExceeded {
		t.Fatalf("expected time_limit_exceeded")
	}
}

func TestSubmitWithoutTestCasesCreatesNothing(t *testing.T) {
	t.Parallel()
	f := newFixture(&scriptedJudge{})
	ctx := withActor(context.Background(), "alice")

	if _, err := f.svc.Submit(ctx, "empty", domain.LanguageCpp, "x"); !errors.Is(err, errs.ErrNoTestCases) {
		t.Fatalf("expected no test cases error, got %v", err)
	}
	if len(f.repo.submissions) != 0 {
		t.Fatalf("no submission should be stored")
	}
}

func TestExecuteSubmissionNeverLeavesPending(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		judge     *scriptedJudge
		updateErr error
	}{
		{"judge error", &scriptedJudge{err: errors.New("sandbox exploded")}, nil},
		{"update error", &scriptedJudge{verdict: &domain.Verdict{Status: domain.SubmissionStatusAccepted}}, errors.New("connection reset")},
		{"cancelled", &scriptedJudge{err: context.Canceled}, nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(tt.judge)
			ctx := withActor(context.Background(), "alice")
			sub, err := f.svc.CreateSubmission(ctx, "two-sum", "x", domain.LanguageCpp)
			if err != nil {
				t.Fatalf("create failed: %v", err)
			}
			f.repo.updateErr = tt.updateErr

			_, err = f.svc.ExecuteSubmission(ctx, sub.ID, nil)
			if !errors.Is(err, errs.ErrExecutionFailed) {
				t.Fatalf("expected generic execution failure, got %v", err)
			}
			stored, _ := f.repo.Get(ctx, sub.ID)
			if stored.Status != domain.SubmissionStatusRuntimeError {
				t.Fatalf("expected runtime_error fallback, got %s", stored.Status)
			}
			if stored.ErrorMessage == nil || *stored.ErrorMessage == "" {
				t.Fatalf("fallback should store the failure message")
			}
		})
	}
}

func TestExecuteSubmissionOnlyOnce(t *testing.T) {
	t.Parallel()
	judgeService := &scriptedJudge{verdict: &domain.Verdict{Status: domain.SubmissionStatusAccepted}}
	f := newFixture(judgeService)
	ctx := withActor(context.Background(), "alice")
	sub, _ := f.svc.CreateSubmission(ctx, "two-sum", "x", domain.LanguageCpp)

	if _, err := f.svc.ExecuteSubmission(ctx, sub.ID, nil); err != nil {
		t.Fatalf("first execution failed: %v", err)
	}
	if _, err := f.svc.ExecuteSubmission(ctx, sub.ID, nil); !errors.Is(err, errs.ErrSubmissionFinalized) {
		t.Fatalf("expected finalized error, got %v", err)
	}
	if f.repo.updates != 1 || judgeService.calls != 1 {
		t.Fatalf("expected exactly one judge and one update, got %d/%d", judgeService.calls, f.repo.updates)
	}
}

func TestExecuteSubmissionNotFound(t *testing.T) {
	t.Parallel()
	f := newFixture(&scriptedJudge{})

	if _, err := f.svc.ExecuteSubmission(context.Background(), uuid.New(), nil); !errors.Is(err, errs.ErrSubmissionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPublishFailureDoesNotFailJudging(t *testing.T) {
	t.Parallel()
	f := newFixture(&scriptedJudge{verdict: &domain.Verdict{Status: domain.SubmissionStatusAccepted}})
	f.publisher.err = errors.New("broker down")
	ctx := withActor(context.Background(), "alice")
	sub, _ := f.svc.CreateSubmission(ctx, "two-sum", "x", domain.LanguageCpp)

	if _, err := f.svc.ExecuteSubmission(ctx, sub.ID, nil); err != nil {
		t.Fatalf("publish errors must not propagate: %v", err)
	}
}

func TestHistoryScopedToActor(t *testing.T) {
	t.Parallel()
	f := newFixture(&scriptedJudge{})
	alice := withActor(context.Background(), "alice")
	bob := withActor(context.Background(), "bob")

	for i := 0; i < 3; i++ {
		if _, err := f.svc.CreateSubmission(alice, "two-sum", "a", domain.LanguageCpp); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	if _, err := f.svc.CreateSubmission(bob, "two-sum", "b", domain.LanguageCpp); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	items, err := f.svc.GetSubmissionHistory(bob, "two-sum", 0)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("bob should only see his own submission, got %d", len(items))
	}
	for _, item := range items {
		stored, _ := f.repo.Get(context.Background(), item.ID)
		if stored.UserID != "bob" {
			t.Fatalf("history leaked a submission of %s", stored.UserID)
		}
	}

	if _, err := f.svc.GetSubmissionHistory(context.Background(), "two-sum", 10); !errors.Is(err, errs.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestHistoryUsesCache(t *testing.T) {
	t.Parallel()
	f := newFixture(&scriptedJudge{})
	ctx := withActor(context.Background(), "alice")
	_, _ = f.svc.CreateSubmission(ctx, "two-sum", "a", domain.LanguageCpp)

	first, err := f.svc.GetSubmissionHistory(ctx, "two-sum", 10)
	if err != nil || len(first) != 1 {
		t.Fatalf("history failed: %v (%d items)", err, len(first))
	}
	if _, _, hit, _ := f.cache.Get(ctx, "alice", "two-sum", 10); !hit {
		t.Fatalf("history should be cached after a read")
	}

	_, _ = f.svc.CreateSubmission(ctx, "two-sum", "b", domain.LanguageCpp)
	second, _ := f.svc.GetSubmissionHistory(ctx, "two-sum", 10)
	if len(second) != 2 {
		t.Fatalf("a new submission must invalidate the cached history, got %d", len(second))
	}
}

func TestHistoryNotCachedAcrossConcurrentVerdict(t *testing.T) {
	t.Parallel()
	f := newFixture(&scriptedJudge{verdict: &domain.Verdict{Status: domain.SubmissionStatusAccepted}})
	ctx := withActor(context.Background(), "alice")
	sub, _ := f.svc.CreateSubmission(ctx, "two-sum", "a", domain.LanguageCpp)

	var once sync.Once
	f.repo.afterList = func() {
		once.Do(func() {
			if _, err := f.svc.ExecuteSubmission(ctx, sub.ID, nil); err != nil {
				t.Errorf("execution failed: %v", err)
			}
		})
	}

	first, err := f.svc.GetSubmissionHistory(ctx, "two-sum", 10)
	if err != nil || len(first) != 1 {
		t.Fatalf("history failed: %v (%d items)", err, len(first))
	}
	if first[0].Status != domain.SubmissionStatusPending {
		t.Fatalf("expected the listing read before the verdict, got %s", first[0].Status)
	}

	second, err := f.svc.GetSubmissionHistory(ctx, "two-sum", 10)
	if err != nil || len(second) != 1 {
		t.Fatalf("history failed: %v (%d items)", err, len(second))
	}
	if second[0].Status != domain.SubmissionStatusAccepted {
		t.Fatalf("history after the verdict shows %s, stored status is %s", second[0].Status, f.repo.status(sub.ID))
	}
}

func TestClampLimit(t *testing.T) {
	t.Parallel()
	for in, want := range map[int]int{-1: 10, 0: 10, 5: 5, 50: 50, 500: 50} {
		if got := clampLimit(in); got != want {
			t.Fatalf("clampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestDetailsOnlyForAuthor(t *testing.T) {
	t.Parallel()
	f := newFixture(&scriptedJudge{})
	alice := withActor(context.Background(), "alice")
	bob := withActor(context.Background(), "bob")
	sub, _ := f.svc.CreateSubmission(alice, "two-sum", "secret code", domain.LanguageCpp)

	got, err := f.svc.GetSubmissionDetails(alice, sub.ID)
	if err != nil || got.Code != "secret code" {
		t.Fatalf("author should see the code: %v", err)
	}
	if _, err := f.svc.GetSubmissionDetails(bob, sub.ID); !errors.Is(err, errs.ErrSubmissionNotFound) {
		t.Fatalf("other users must get not found, got %v", err)
	}
	if _, err := f.svc.GetSubmissionDetails(alice, uuid.New()); !errors.Is(err, errs.ErrSubmissionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRunUsesVisibleCasesWithoutPersisting(t *testing.T) {
	t.Parallel()
	judgeService := &scriptedJudge{verdict: &domain.Verdict{Status: domain.SubmissionStatusAccepted}}
	f := newFixture(judgeService)

	verdict, err := f.svc.Run(context.Background(), "two-sum", domain.LanguagePython, "print(3)")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if verdict.Status != domain.SubmissionStatusAccepted {
		t.Fatalf("unexpected verdict %s", verdict.Status)
	}
	if len(judgeService.cases) != 1 || judgeService.cases[0].IsHidden {
		t.Fatalf("run must only use visible cases, got %d", len(judgeService.cases))
	}
	if len(f.repo.submissions) != 0 || len(f.publisher.events) != 0 {
		t.Fatalf("run must not persist or publish")
	}
}

func TestFailStale(t *testing.T) {
	t.Parallel()
	f := newFixture(&scriptedJudge{})
	ctx := withActor(context.Background(), "alice")
	old, _ := f.svc.CreateSubmission(ctx, "two-sum", "x", domain.LanguageCpp)
	fresh, _ := f.svc.CreateSubmission(ctx, "two-sum", "y", domain.LanguageCpp)
	f.repo.submissions[old.ID].CreatedAt = time.Now().UTC().Add(-time.Hour)

	n, err := f.svc.FailStale(context.Background(), 10*time.Minute)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one stale submission, got %d", n)
	}
	if f.repo.status(old.ID) != domain.SubmissionStatusRuntimeError || f.repo.status(fresh.ID) != domain.SubmissionStatusPending {
		t.Fatalf("only the old submission should be swept")
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0].SubmissionID != old.ID {
		t.Fatalf("expected an event for the swept submission")
	}
}
