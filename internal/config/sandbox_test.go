package config

import "testing"

func TestParseEndpointsDefaults(t *testing.T) {
	endpoints := parseEndpoints("")
	if len(endpoints) != 2 {
		t.Fatalf("expected 2 default endpoints, got %d", len(endpoints))
	}
	if endpoints[0].Name != "primary" || endpoints[0].URL != defaultPrimaryEndpoint {
		t.Fatalf("unexpected primary endpoint: %+v", endpoints[0])
	}
	if endpoints[1].Name != "fallback" || endpoints[1].URL != defaultFallbackEndpoint {
		t.Fatalf("unexpected fallback endpoint: %+v", endpoints[1])
	}
}

func TestParseEndpointsNamedAndBare(t *testing.T) {
	endpoints := parseEndpoints("emkc=https://emkc.org/api/v2/piston/execute, http://piston:2000/api/v2/execute?x=1 ,,http://third/execute")
	if len(endpoints) != 3 {
		t.Fatalf("expected 3 endpoints, got %d: %+v", len(endpoints), endpoints)
	}
	if endpoints[0].Name != "emkc" {
		t.Fatalf("expected named endpoint, got %q", endpoints[0].Name)
	}
	if endpoints[1].Name != "fallback" || endpoints[1].URL != "http://piston:2000/api/v2/execute?x=1" {
		t.Fatalf("unexpected bare endpoint: %+v", endpoints[1])
	}
	if endpoints[2].Name != "fallback-3" {
		t.Fatalf("unexpected third endpoint name: %q", endpoints[2].Name)
	}
}

func TestNewSandboxConfigReadsEnv(t *testing.T) {
	t.Setenv("SANDBOX_RUN_TIMEOUT_MS", "1500")
	t.Setenv("SANDBOX_REQUEST_TIMEOUT_SEC", "0")
	cfg := NewSandboxConfig()
	if cfg.RunTimeout.Milliseconds() != 1500 {
		t.Fatalf("expected run timeout 1500ms, got %v", cfg.RunTimeout)
	}
	if cfg.RequestTimeout != 0 {
		t.Fatalf("expected disabled request timeout, got %v", cfg.RequestTimeout)
	}
	if cfg.CompileMemoryLimit != -1 || cfg.RunMemoryLimit != -1 {
		t.Fatalf("expected unbounded memory limits, got %d/%d", cfg.CompileMemoryLimit, cfg.RunMemoryLimit)
	}
	if len(cfg.Runtimes) != 3 {
		t.Fatalf("expected 3 runtimes, got %d", len(cfg.Runtimes))
	}
}
