package judge

import (
	"context"

	"gitlab.com/codearena.net/internal/domain"
)

// IJudgeService runs a suite of test cases against one piece of code
type IJudgeService interface {
	// Judge executes test cases in order and stops at the first failure.
	// Only unsupported languages and context cancellation are returned as errors.
	Judge(ctx context.Context, language domain.Language, code string, testCases []*domain.TestCase) (*domain.Verdict, error)
}
