package secondary

import (
	"time"

	"gitlab.com/codearena.net/internal/domain"
)

type SandboxMetrics interface {
	ObserveRequest(provider string, outcome string, elapsed time.Duration)
	IncFallback()
}

type VerdictMetrics interface {
	ObserveVerdict(status domain.SubmissionStatus)
}
