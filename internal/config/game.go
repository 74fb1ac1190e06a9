package config

import (
	"os"
	"strconv"
	"time"
)

type GameConfig struct {
	ResultQueue     string
	JoinCodeTimeout time.Duration
	HistoryLimit    int
	HistoryMaxLimit int
}

func LoadGameConfig() *GameConfig {
	return &GameConfig{
		ResultQueue:     getEnv("GAME_RESULT_QUEUE", "game_results"),
		JoinCodeTimeout: getEnvAsDuration("GAME_JOIN_CODE_TIMEOUT", 5*time.Minute),
		HistoryLimit:    getEnvAsInt("GAME_HISTORY_LIMIT", 20),
		HistoryMaxLimit: getEnvAsInt("GAME_HISTORY_MAX_LIMIT", 100),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
