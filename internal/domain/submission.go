package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus represents the judging state of a submission
type SubmissionStatus string

const (
	SubmissionStatusPending           SubmissionStatus = "pending"
	SubmissionStatusAccepted          SubmissionStatus = "accepted"
	SubmissionStatusWrongAnswer       SubmissionStatus = "wrong_answer"
	SubmissionStatusTimeLimitExceeded SubmissionStatus = "time_limit_exceeded"
	SubmissionStatusCompilationError  SubmissionStatus = "compilation_error"
	SubmissionStatusPartialAccepted   SubmissionStatus = "partial_accepted"
	SubmissionStatusRuntimeError      SubmissionStatus = "runtime_error"
)

// IsTerminal reports whether the status is final
func (s SubmissionStatus) IsTerminal() bool {
	return s != SubmissionStatusPending && s != ""
}

// Submission represents a code submission for a problem
type Submission struct {
	ID              uuid.UUID        `db:"id" json:"id"`
	ProblemID       string           `db:"problem_id" json:"problemId"`
	UserID          string           `db:"user_id" json:"userId"`
	Language        Language         `db:"language" json:"language"`
	Code            string           `db:"code" json:"code"`
	Status          SubmissionStatus `db:"status" json:"status"`
	ExecutionTimeMs *int64           `db:"execution_time" json:"executionTime"`
	MemoryUsedKB    *int64           `db:"memory_used" json:"memoryUsed"`
	ErrorMessage    *string          `db:"error_message" json:"errorMessage"`
	CreatedAt       time.Time        `db:"created_at" json:"createdAt"`
}

// SubmissionSummary is the history view of a submission, without the source code
type SubmissionSummary struct {
	ID              uuid.UUID        `db:"id" json:"id"`
	Language        Language         `db:"language" json:"language"`
	Status          SubmissionStatus `db:"status" json:"status"`
	ExecutionTimeMs *int64           `db:"execution_time" json:"executionTime"`
	MemoryUsedKB    *int64           `db:"memory_used" json:"memoryUsed"`
	CreatedAt       time.Time        `db:"created_at" json:"createdAt"`
	ErrorMessage    *string          `db:"error_message" json:"errorMessage"`
}

type SubmissionTable struct {
	ID              string
	ProblemID       string
	UserID          string
	Language        string
	Code            string
	Status          string
	ExecutionTimeMs string
	MemoryUsedKB    string
	ErrorMessage    string
	CreatedAt       string
}

func GetSubmissionTable() SubmissionTable {
	return SubmissionTable{
		ID:              "id",
		ProblemID:       "problem_id",
		UserID:          "user_id",
		Language:        "language",
		Code:            "code",
		Status:          "status",
		ExecutionTimeMs: "execution_time",
		MemoryUsedKB:    "memory_used",
		ErrorMessage:    "error_message",
		CreatedAt:       "created_at",
	}
}

func (SubmissionTable) TableName() string {
	return "submissions"
}

// NewSubmission creates a new pending submission
func NewSubmission(userID, problemID string, language Language, code string) *Submission {
	return &Submission{
		ID:        uuid.New(),
		UserID:    userID,
		ProblemID: problemID,
		Language:  language,
		Code:      code,
		Status:    SubmissionStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// Summary drops the source code for history listings
func (s *Submission) Summary() SubmissionSummary {
	return SubmissionSummary{
		ID:              s.ID,
		Language:        s.Language,
		Status:          s.Status,
		ExecutionTimeMs: s.ExecutionTimeMs,
		MemoryUsedKB:    s.MemoryUsedKB,
		CreatedAt:       s.CreatedAt,
		ErrorMessage:    s.ErrorMessage,
	}
}

// JudgedSubmission is a submission after its verdict was stored
type JudgedSubmission struct {
	Submission *Submission `json:"submission"`
	Verdict    *Verdict    `json:"verdict"`
}

// ApplyVerdict copies the terminal fields of a verdict onto the submission
func (s *Submission) ApplyVerdict(v *Verdict) {
	s.Status = v.Status
	s.ExecutionTimeMs = v.ExecutionTimeMs
	s.MemoryUsedKB = v.MemoryKB
	s.ErrorMessage = v.ErrorMessage
}
