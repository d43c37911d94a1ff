package sandbox

// executeRequest is the sandbox execute payload
type executeRequest struct {
	Language           string        `json:"language"`
	Version            string        `json:"version"`
	Files              []executeFile `json:"files"`
	Stdin              string        `json:"stdin"`
	Args               []string      `json:"args"`
	CompileTimeout     int64         `json:"compile_timeout"`
	RunTimeout         int64         `json:"run_timeout"`
	CompileMemoryLimit int64         `json:"compile_memory_limit"`
	RunMemoryLimit     int64         `json:"run_memory_limit"`
}

type executeFile struct {
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

type executeResponse struct {
	Language string        `json:"language"`
	Version  string        `json:"version"`
	Compile  *executeStage `json:"compile,omitempty"`
	Run      *executeStage `json:"run,omitempty"`
	Message  string        `json:"message,omitempty"`
}

// executeStage is one compile or run phase; the timing and status fields are
// only sent by newer sandbox versions
type executeStage struct {
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
	Output   string   `json:"output"`
	Code     *int     `json:"code"`
	Signal   *string  `json:"signal"`
	Status   string   `json:"status"`
	Message  string   `json:"message"`
	CPUTime  *float64 `json:"cpu_time"`
	WallTime *float64 `json:"wall_time"`
	Memory   *int64   `json:"memory"`
}

const (
	stageStatusTimeout = "TO"
)
