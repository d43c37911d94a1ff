package errs

import "errors"

var (
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrProblemNotFound     = errors.New("problem not found")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrExecutionFailed     = errors.New("failed to execute submission")
	ErrSubmissionFinalized = errors.New("submission already judged")
	ErrEmptyCode           = errors.New("source code is empty")
	ErrNoTestCases         = errors.New("problem has no test cases")
	ErrJudgingTimeout      = errors.New("judging timed out")
)
