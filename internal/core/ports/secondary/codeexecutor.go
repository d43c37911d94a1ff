package secondary

import (
	"context"

	"gitlab.com/codearena.net/internal/domain"
)

type CodeExecutor interface {
	// Execute runs code against the stdin built from one test case input.
	// Only an unsupported language is returned as an error; transport and
	// program failures are reported inside the outcome.
	Execute(ctx context.Context, language domain.Language, code string, input []interface{}) (domain.ExecutionOutcome, error)
}
