package submissions

import "gitlab.com/codearena.net/internal/domain"

// CodeRequest is the body of run and submit requests
type CodeRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// HistoryResponse wraps a history listing
type HistoryResponse struct {
	Submissions []domain.SubmissionSummary `json:"submissions"`
}
