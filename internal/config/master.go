package config

import (
	"os"
	"strconv"
	"time"
)

type AppConfig struct {
	DebugMode      bool
	HttpConfig     *HttpConfig
	SweeperConfig  *SweeperConfig
	RedisConfig    *RedisConfig
	PostgresConfig *PostgresConfig
	JwtConfig      *JwtConfig
	SandboxConfig  *SandboxConfig
	AmqpConfig     *AmqpConfig
}

func NewSystemConfig() *AppConfig {
	return &AppConfig{
		DebugMode:      os.Getenv("DEBUG_MODE") == "true",
		HttpConfig:     NewHttpConfig(),
		SweeperConfig:  NewSweeperConfig(),
		RedisConfig:    NewRedisConfig(),
		PostgresConfig: NewPostgresConfig(),
		JwtConfig:      NewJwtConfig(),
		SandboxConfig:  NewSandboxConfig(),
		AmqpConfig:     NewAmqpConfig(),
	}
}

// ResponseGrace is left between the judging deadline and the server write deadline
// so a timed out run or submit still gets its JSON error written
const ResponseGrace = 5 * time.Second

type HttpConfig struct {
	Port int
	// JudgeTimeout bounds run and submit requests; zero means no deadline
	JudgeTimeout time.Duration
	// WriteTimeout is the server write deadline; zero disables it
	WriteTimeout time.Duration
}

// NewHttpConfig derives the write deadline from the judging deadline unless
// HTTP_WRITE_TIMEOUT_SEC is set explicitly
func NewHttpConfig() *HttpConfig {
	judgeTimeout := getSecondsEnv("HTTP_JUDGE_TIMEOUT_SEC", 120)
	writeTimeout := time.Duration(0)
	if judgeTimeout > 0 {
		writeTimeout = judgeTimeout + ResponseGrace
	}
	if _, ok := os.LookupEnv("HTTP_WRITE_TIMEOUT_SEC"); ok {
		writeTimeout = getSecondsEnv("HTTP_WRITE_TIMEOUT_SEC", 0)
	}
	return &HttpConfig{
		Port:         getIntEnv("HTTP_PORT", 8082),
		JudgeTimeout: judgeTimeout,
		WriteTimeout: writeTimeout,
	}
}

// JudgeDeadline is the judging budget of one request, always ending before the
// write deadline so the handler can still respond
func (c *HttpConfig) JudgeDeadline() time.Duration {
	if c.WriteTimeout <= 0 {
		return c.JudgeTimeout
	}
	limit := c.WriteTimeout - ResponseGrace
	if limit <= 0 {
		limit = c.WriteTimeout / 2
	}
	if c.JudgeTimeout <= 0 || c.JudgeTimeout > limit {
		return limit
	}
	return c.JudgeTimeout
}

// getEnv gets an environment variable with a fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an environment variable as an integer with a fallback
func getIntEnv(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return intValue
}

func getSecondsEnv(key string, fallback int) time.Duration {
	return time.Duration(getIntEnv(key, fallback)) * time.Second
}
