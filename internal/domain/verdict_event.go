package domain

import (
	"time"

	"github.com/google/uuid"
)

// VerdictEvent is broadcast once a submission reaches a terminal status
type VerdictEvent struct {
	SubmissionID    uuid.UUID        `json:"submissionId"`
	ProblemID       string           `json:"problemId"`
	UserID          string           `json:"userId"`
	Language        Language         `json:"language"`
	Status          SubmissionStatus `json:"status"`
	ExecutionTimeMs *int64           `json:"executionTime,omitempty"`
	MemoryKB        *int64           `json:"memoryUsed,omitempty"`
	JudgedAt        time.Time        `json:"judgedAt"`
}
