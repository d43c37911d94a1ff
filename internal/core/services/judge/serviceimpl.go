package judge

import (
	"context"
	"fmt"
	"math"
	"strings"

	"gitlab.com/codearena.net/internal/core/ports/primary"
	"gitlab.com/codearena.net/internal/core/ports/secondary"
	"gitlab.com/codearena.net/internal/domain"
)

var _ IJudgeService = (*JudgeService)(nil)

// time limit markers are matched case-insensitively against the error text
var timeLimitMarkers = []string{"timeout", "time limit"}

type JudgeService struct {
	executor secondary.CodeExecutor
	metrics  secondary.VerdictMetrics
	logger   primary.Logger
}

func NewJudgeService(executor secondary.CodeExecutor, metrics secondary.VerdictMetrics, logger primary.Logger) *JudgeService {
	return &JudgeService{
		executor: executor,
		metrics:  metrics,
		logger:   logger,
	}
}

// tally is the running state of the fold. It is copied on every step.
type tally struct {
	results []domain.TestResult
	timeMs  float64
	timed   bool
	memory  int64
}

func (t tally) add(result domain.TestResult) tally {
	next := tally{
		results: append(append(make([]domain.TestResult, 0, len(t.results)+1), t.results...), result),
		timeMs:  t.timeMs,
		timed:   t.timed,
		memory:  t.memory,
	}
	if result.ExecutionTimeMs != nil {
		next.timeMs += *result.ExecutionTimeMs
		next.timed = true
	}
	if result.MemoryKB != nil && *result.MemoryKB > next.memory {
		next.memory = *result.MemoryKB
	}
	return next
}

// Judge runs every test case sequentially and returns the verdict of the first failure,
// or accepted with aggregated metrics when all of them pass
func (s *JudgeService) Judge(ctx context.Context, language domain.Language, code string, testCases []*domain.TestCase) (*domain.Verdict, error) {
	state := tally{results: []domain.TestResult{}}

	for i, tc := range testCases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outcome, err := s.executor.Execute(ctx, language, code, tc.Input)
		if err != nil {
			return nil, err
		}
		// a transport failure caused by our own deadline says nothing about the program
		if outcome.Phase == domain.ExecutionPhaseTransport && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		result := evaluate(i, tc, outcome)
		state = state.add(result)

		s.logger.Debug("Test case judged",
			"index", result.Index,
			"passed", result.Passed,
			"phase", outcome.Phase,
			"provider", outcome.Provider)

		if !result.Passed {
			verdict := failedVerdict(result, outcome.Phase, state.results)
			s.observe(verdict)
			return verdict, nil
		}
	}

	verdict := acceptedVerdict(state)
	s.observe(verdict)
	return verdict, nil
}

func (s *JudgeService) observe(verdict *domain.Verdict) {
	if s.metrics != nil {
		s.metrics.ObserveVerdict(verdict.Status)
	}
}

func evaluate(index int, tc *domain.TestCase, outcome domain.ExecutionOutcome) domain.TestResult {
	result := domain.TestResult{
		Index:          index,
		Input:          domain.FormatStdin(tc.Input),
		ExpectedOutput: tc.ExpectedOutput,
		ActualOutput:   outcome.Stdout,
		Error:          outcome.Error,
	}

	actual := ""
	if outcome.Stdout != nil {
		actual = *outcome.Stdout
	}
	result.Passed = outcome.Error == nil && OutputsMatch(actual, tc.ExpectedOutput)

	if outcome.TimeMs != nil {
		t := *outcome.TimeMs
		result.ExecutionTimeMs = &t
	}
	if outcome.MemoryBytes != nil {
		kb := int64(math.Ceil(float64(*outcome.MemoryBytes) / 1024))
		result.MemoryKB = &kb
	}
	return result
}

// classify maps the first failing result to a terminal status and message.
// Time limits are detected from the error text, which is an approximation:
// the sandbox enforces the actual limit.
func classify(result domain.TestResult, phase domain.ExecutionPhase) (domain.SubmissionStatus, string) {
	caseNumber := result.Index + 1

	if result.Error == nil {
		return domain.SubmissionStatusWrongAnswer, fmt.Sprintf("Wrong answer on test case %d", caseNumber)
	}
	errText := *result.Error

	switch phase {
	case domain.ExecutionPhaseCompile:
		return domain.SubmissionStatusCompilationError, errText
	case domain.ExecutionPhaseTransport:
		return domain.SubmissionStatusRuntimeError, errText
	}

	lower := strings.ToLower(errText)
	for _, marker := range timeLimitMarkers {
		if strings.Contains(lower, marker) {
			return domain.SubmissionStatusTimeLimitExceeded, fmt.Sprintf("Time limit exceeded on test case %d", caseNumber)
		}
	}
	return domain.SubmissionStatusRuntimeError, errText
}

func failedVerdict(result domain.TestResult, phase domain.ExecutionPhase, results []domain.TestResult) *domain.Verdict {
	status, message := classify(result, phase)
	return &domain.Verdict{
		Status:       status,
		ErrorMessage: &message,
		Results:      results,
	}
}

func acceptedVerdict(state tally) *domain.Verdict {
	verdict := &domain.Verdict{
		Status:  domain.SubmissionStatusAccepted,
		Results: state.results,
	}
	if state.timed {
		ms := int64(math.Round(state.timeMs))
		verdict.ExecutionTimeMs = &ms
	}
	if state.memory > 0 {
		kb := state.memory
		verdict.MemoryKB = &kb
	}
	return verdict
}
