package domain

// TestResult represents the result of running one test case
type TestResult struct {
	Index           int      `json:"index"`
	Input           string   `json:"input"`
	ExpectedOutput  string   `json:"expectedOutput"`
	ActualOutput    *string  `json:"actualOutput"`
	Error           *string  `json:"error"`
	Passed          bool     `json:"passed"`
	ExecutionTimeMs *float64 `json:"executionTime,omitempty"`
	MemoryKB        *int64   `json:"memoryUsed,omitempty"`
}

// Verdict is the aggregate outcome of judging one suite of test cases
type Verdict struct {
	Status          SubmissionStatus `json:"status"`
	ExecutionTimeMs *int64           `json:"executionTime"`
	MemoryKB        *int64           `json:"memoryUsed"`
	ErrorMessage    *string          `json:"errorMessage"`
	Results         []TestResult     `json:"results"`
}
