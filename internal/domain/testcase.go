package domain

import "github.com/google/uuid"

// TestCase represents one input/expected output pair of a problem.
// Input items are decoded JSON values: strings, numbers, booleans, arrays or objects.
type TestCase struct {
	ID             uuid.UUID     `db:"id" json:"id"`
	ProblemID      string        `db:"problem_id" json:"problemId"`
	Input          []interface{} `db:"-" json:"input"`
	ExpectedOutput string        `db:"expected_output" json:"expectedOutput"`
	IsHidden       bool          `db:"is_hidden" json:"isHidden"`
	OrderIndex     int           `db:"order_index" json:"orderIndex"`
}

type TestCaseTable struct {
	ID             string
	ProblemID      string
	Input          string
	ExpectedOutput string
	IsHidden       string
	OrderIndex     string
}

func GetTestCaseTable() TestCaseTable {
	return TestCaseTable{
		ID:             "id",
		ProblemID:      "problem_id",
		Input:          "input",
		ExpectedOutput: "expected_output",
		IsHidden:       "is_hidden",
		OrderIndex:     "order_index",
	}
}

func (TestCaseTable) TableName() string {
	return "test_cases"
}

// ProblemTable only carries what the judge needs to check existence
type ProblemTable struct {
	ID string
}

func GetProblemTable() ProblemTable {
	return ProblemTable{ID: "id"}
}

func (ProblemTable) TableName() string {
	return "problems"
}
