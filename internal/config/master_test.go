package config

import (
	"testing"
	"time"
)

func TestNewHttpConfigDerivesWriteTimeout(t *testing.T) {
	t.Setenv("HTTP_JUDGE_TIMEOUT_SEC", "90")
	cfg := NewHttpConfig()
	if cfg.JudgeTimeout != 90*time.Second {
		t.Fatalf("expected 90s judge timeout, got %v", cfg.JudgeTimeout)
	}
	if cfg.WriteTimeout != 90*time.Second+ResponseGrace {
		t.Fatalf("expected write timeout past the judge timeout, got %v", cfg.WriteTimeout)
	}
	if cfg.JudgeDeadline() != 90*time.Second {
		t.Fatalf("expected 90s deadline, got %v", cfg.JudgeDeadline())
	}
}

func TestNewHttpConfigExplicitWriteTimeout(t *testing.T) {
	t.Setenv("HTTP_JUDGE_TIMEOUT_SEC", "120")
	t.Setenv("HTTP_WRITE_TIMEOUT_SEC", "0")
	cfg := NewHttpConfig()
	if cfg.WriteTimeout != 0 {
		t.Fatalf("expected disabled write timeout, got %v", cfg.WriteTimeout)
	}
	if cfg.JudgeDeadline() != 120*time.Second {
		t.Fatalf("expected 120s deadline, got %v", cfg.JudgeDeadline())
	}
}

func TestJudgeDeadlineEndsBeforeWriteTimeout(t *testing.T) {
	tests := []struct {
		name string
		cfg  HttpConfig
		want time.Duration
	}{
		{"judge fits", HttpConfig{JudgeTimeout: 30 * time.Second, WriteTimeout: 60 * time.Second}, 30 * time.Second},
		{"judge too long", HttpConfig{JudgeTimeout: 120 * time.Second, WriteTimeout: 60 * time.Second}, 55 * time.Second},
		{"no judge timeout", HttpConfig{WriteTimeout: 60 * time.Second}, 55 * time.Second},
		{"tiny write timeout", HttpConfig{WriteTimeout: 2 * time.Second}, time.Second},
		{"no deadlines", HttpConfig{}, 0},
	}
	for _, tt := range tests {
		if got := tt.cfg.JudgeDeadline(); got != tt.want {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}
