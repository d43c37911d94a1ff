package domain

// ExecutionPhase tells where an execution error originated
type ExecutionPhase string

const (
	ExecutionPhaseCompile   ExecutionPhase = "compile"
	ExecutionPhaseRun       ExecutionPhase = "run"
	ExecutionPhaseTransport ExecutionPhase = "transport"
)

// ExecutionRequest is one unit of code plus stdin sent to the sandbox
type ExecutionRequest struct {
	Language Language
	Code     string
	Stdin    string
}

// ExecutionOutcome is what the sandbox reported for one request.
// TransportOK is false when no provider could be reached.
type ExecutionOutcome struct {
	Stdout      *string
	Error       *string
	Phase       ExecutionPhase
	TransportOK bool
	Provider    string
	TimeMs      *float64
	MemoryBytes *int64
}
