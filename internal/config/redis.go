package config

import "time"

type RedisConfig struct {
	DB         int
	Url        string
	Password   string
	HistoryTTL time.Duration
}

func NewRedisConfig() *RedisConfig {
	return &RedisConfig{
		DB:         getIntEnv("REDIS_DB", 0),
		Url:        getEnv("REDIS_ADDR", "localhost:6379"),
		Password:   getEnv("REDIS_PASSWORD", ""),
		HistoryTTL: getSecondsEnv("HISTORY_CACHE_TTL_SEC", 300),
	}
}
