package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gitlab.com/codearena.net/internal/config"
	"gitlab.com/codearena.net/internal/core/ports/primary"
	"gitlab.com/codearena.net/internal/core/ports/secondary"
	"gitlab.com/codearena.net/internal/domain"
	"gitlab.com/codearena.net/internal/static/errs"
)

var _ secondary.CodeExecutor = (*Client)(nil)

const maxResponseBytes = 8 << 20

// Provider is one sandbox endpoint
type Provider struct {
	Name string
	URL  string
}

// Client executes code on a remote sandbox, trying each provider in order
type Client struct {
	providers      []Provider
	runtimes       map[domain.Language]config.SandboxRuntime
	compileTimeout time.Duration
	runTimeout     time.Duration
	compileMemory  int64
	runMemory      int64
	requestTimeout time.Duration
	httpClient     *http.Client
	logger         primary.Logger
	metrics        secondary.SandboxMetrics
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the default http client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithMetrics records request outcomes and fallbacks
func WithMetrics(metrics secondary.SandboxMetrics) ClientOption {
	return func(c *Client) {
		if metrics != nil {
			c.metrics = metrics
		}
	}
}

// NewClient creates a sandbox client from configuration
func NewClient(cfg *config.SandboxConfig, logger primary.Logger, options ...ClientOption) *Client {
	providers := make([]Provider, 0, len(cfg.Endpoints))
	for _, endpoint := range cfg.Endpoints {
		providers = append(providers, Provider{Name: endpoint.Name, URL: endpoint.URL})
	}
	runtimes := cfg.Runtimes
	if runtimes == nil {
		runtimes = config.DefaultRuntimes()
	}

	client := &Client{
		providers:      providers,
		runtimes:       runtimes,
		compileTimeout: cfg.CompileTimeout,
		runTimeout:     cfg.RunTimeout,
		compileMemory:  cfg.CompileMemoryLimit,
		runMemory:      cfg.RunMemoryLimit,
		requestTimeout: cfg.RequestTimeout,
		httpClient:     &http.Client{},
		logger:         logger,
		metrics:        noopMetrics{},
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// Execute runs code against one test case input
func (c *Client) Execute(ctx context.Context, language domain.Language, code string, input []interface{}) (domain.ExecutionOutcome, error) {
	runtime, ok := c.runtimes[language]
	if !ok {
		return domain.ExecutionOutcome{}, fmt.Errorf("%w: %s", errs.ErrUnsupportedLanguage, language)
	}

	request := domain.ExecutionRequest{
		Language: language,
		Code:     code,
		Stdin:    adapterFor(language)(input),
	}

	body, err := json.Marshal(c.newExecuteRequest(runtime, request))
	if err != nil {
		return transportFailure(fmt.Sprintf("failed to encode execution request: %v", err)), nil
	}

	failures := make([]string, 0, len(c.providers))
	for i, provider := range c.providers {
		if i > 0 {
			c.metrics.IncFallback()
			c.logger.Warn("Retrying execution on fallback sandbox",
				"provider", provider.Name,
				"previousError", failures[len(failures)-1])
		}

		resp, elapsed, err := c.call(ctx, provider, body)
		if err != nil {
			c.metrics.ObserveRequest(provider.Name, "failure", elapsed)
			c.logger.Debug("Sandbox request failed", "provider", provider.Name, "language", language, "error", err)
			failures = append(failures, fmt.Sprintf("%s: %v", provider.Name, err))
			continue
		}

		c.metrics.ObserveRequest(provider.Name, "success", elapsed)
		outcome := extractOutcome(resp, elapsed)
		outcome.Provider = provider.Name
		c.logger.Debug("Sandbox request completed", "provider", provider.Name, "language", language, "phase", outcome.Phase)
		return outcome, nil
	}

	if len(failures) == 0 {
		return transportFailure("execution service unavailable: no sandbox endpoints configured"), nil
	}
	c.logger.Error("All sandbox providers failed", "language", language, "errors", failures)
	return transportFailure("execution service unavailable: " + strings.Join(failures, "; ")), nil
}

// newExecuteRequest encodes a request for the runtime the sandbox knows the language by
func (c *Client) newExecuteRequest(runtime config.SandboxRuntime, request domain.ExecutionRequest) executeRequest {
	return executeRequest{
		Language:           runtime.Language,
		Version:            runtime.Version,
		Files:              []executeFile{{Content: request.Code}},
		Stdin:              request.Stdin,
		Args:               []string{},
		CompileTimeout:     c.compileTimeout.Milliseconds(),
		RunTimeout:         c.runTimeout.Milliseconds(),
		CompileMemoryLimit: c.compileMemory,
		RunMemoryLimit:     c.runMemory,
	}
}

func (c *Client) call(ctx context.Context, provider Provider, body []byte) (*executeResponse, time.Duration, error) {
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, provider.URL, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, time.Since(start), fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	elapsed := time.Since(start)
	if err != nil {
		return nil, elapsed, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, elapsed, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet(raw))
	}

	var out executeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, elapsed, fmt.Errorf("failed to decode response: %w", err)
	}

	return &out, elapsed, nil
}

// extractOutcome maps a sandbox response to an outcome. A failed compile
// stage wins over anything the run stage reports.
func extractOutcome(resp *executeResponse, elapsed time.Duration) domain.ExecutionOutcome {
	outcome := domain.ExecutionOutcome{TransportOK: true}

	if msg, failed := compileFailure(resp.Compile); failed {
		outcome.Error = &msg
		outcome.Phase = domain.ExecutionPhaseCompile
		return outcome
	}

	run := resp.Run
	if run == nil {
		msg := "execution failed"
		if resp.Message != "" {
			msg = "execution failed: " + resp.Message
		}
		outcome.Error = &msg
		outcome.Phase = domain.ExecutionPhaseRun
		return outcome
	}

	stdout := run.Stdout
	if stdout == "" && run.Stderr == "" {
		stdout = run.Output
	}
	outcome.Stdout = &stdout
	outcome.Phase = domain.ExecutionPhaseRun

	if msg, failed := runFailure(run); failed {
		outcome.Error = &msg
	}

	outcome.TimeMs = stageTime(run, elapsed)
	if run.Memory != nil && *run.Memory > 0 {
		memory := *run.Memory
		outcome.MemoryBytes = &memory
	}

	return outcome
}

// compileFailure treats stderr as an error only when the exit code is missing
// or non-zero, so compiler warnings do not fail a build
func compileFailure(stage *executeStage) (string, bool) {
	if stage == nil {
		return "", false
	}
	if stage.Code != nil && *stage.Code == 0 && (stage.Signal == nil || *stage.Signal == "") {
		return "", false
	}
	msg := stage.Stderr
	if strings.TrimSpace(msg) == "" {
		msg = stage.Output
	}
	if strings.TrimSpace(msg) == "" {
		if stage.Code == nil {
			return "", false
		}
		msg = fmt.Sprintf("compilation failed with exit code %d", *stage.Code)
	}
	return msg, true
}

func runFailure(stage *executeStage) (string, bool) {
	hasStderr := strings.TrimSpace(stage.Stderr) != ""
	switch {
	case stage.Status == stageStatusTimeout:
		if hasStderr {
			return "time limit exceeded: " + stage.Stderr, true
		}
		return "time limit exceeded", true
	case hasStderr:
		return stage.Stderr, true
	case stage.Signal != nil && *stage.Signal != "":
		return "runtime error: killed by " + *stage.Signal, true
	case stage.Code != nil && *stage.Code != 0:
		return fmt.Sprintf("runtime error: exit code %d", *stage.Code), true
	}
	return "", false
}

func stageTime(stage *executeStage, elapsed time.Duration) *float64 {
	switch {
	case stage.CPUTime != nil && *stage.CPUTime > 0:
		v := *stage.CPUTime
		return &v
	case stage.WallTime != nil && *stage.WallTime > 0:
		v := *stage.WallTime
		return &v
	}
	v := float64(elapsed.Microseconds()) / 1000
	return &v
}

func transportFailure(msg string) domain.ExecutionOutcome {
	return domain.ExecutionOutcome{
		Error:       &msg,
		Phase:       domain.ExecutionPhaseTransport,
		TransportOK: false,
	}
}

func snippet(raw []byte) string {
	const max = 200
	s := strings.TrimSpace(string(raw))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

type noopMetrics struct{}

func (noopMetrics) ObserveRequest(string, string, time.Duration) {}

func (noopMetrics) IncFallback() {}
