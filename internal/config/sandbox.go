package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gitlab.com/codearena.net/internal/domain"
)

const (
	defaultPrimaryEndpoint  = "https://emkc.org/api/v2/piston/execute"
	defaultFallbackEndpoint = "http://localhost:2000/api/v2/execute"
)

type SandboxEndpoint struct {
	Name string
	URL  string
}

// SandboxRuntime is the runtime id and version the sandbox knows a language by
type SandboxRuntime struct {
	Language string
	Version  string
}

type SandboxConfig struct {
	// Endpoints are tried in order with the same payload
	Endpoints          []SandboxEndpoint
	CompileTimeout     time.Duration
	RunTimeout         time.Duration
	CompileMemoryLimit int64
	RunMemoryLimit     int64
	// RequestTimeout bounds each HTTP call; zero means no client-side deadline
	RequestTimeout time.Duration
	Runtimes       map[domain.Language]SandboxRuntime
}

func NewSandboxConfig() *SandboxConfig {
	return &SandboxConfig{
		Endpoints:          parseEndpoints(os.Getenv("SANDBOX_ENDPOINTS")),
		CompileTimeout:     time.Duration(getIntEnv("SANDBOX_COMPILE_TIMEOUT_MS", 10000)) * time.Millisecond,
		RunTimeout:         time.Duration(getIntEnv("SANDBOX_RUN_TIMEOUT_MS", 3000)) * time.Millisecond,
		CompileMemoryLimit: int64(getIntEnv("SANDBOX_COMPILE_MEMORY_LIMIT", -1)),
		RunMemoryLimit:     int64(getIntEnv("SANDBOX_RUN_MEMORY_LIMIT", -1)),
		RequestTimeout:     getSecondsEnv("SANDBOX_REQUEST_TIMEOUT_SEC", 30),
		Runtimes:           DefaultRuntimes(),
	}
}

func DefaultRuntimes() map[domain.Language]SandboxRuntime {
	return map[domain.Language]SandboxRuntime{
		domain.LanguageCpp:    {Language: "c++", Version: "*"},
		domain.LanguageJava:   {Language: "java", Version: "*"},
		domain.LanguagePython: {Language: "python", Version: "*"},
	}
}

// parseEndpoints reads "name=url,name=url"; a bare url is named after its position
func parseEndpoints(raw string) []SandboxEndpoint {
	if strings.TrimSpace(raw) == "" {
		return []SandboxEndpoint{
			{Name: "primary", URL: defaultPrimaryEndpoint},
			{Name: "fallback", URL: defaultFallbackEndpoint},
		}
	}
	var endpoints []SandboxEndpoint
	for i, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, url, found := strings.Cut(part, "=")
		if !found || strings.Contains(name, "://") {
			name, url = endpointName(i), part
		}
		endpoints = append(endpoints, SandboxEndpoint{Name: strings.TrimSpace(name), URL: strings.TrimSpace(url)})
	}
	return endpoints
}

func endpointName(i int) string {
	switch i {
	case 0:
		return "primary"
	case 1:
		return "fallback"
	default:
		return "fallback-" + strconv.Itoa(i)
	}
}
