package config

import (
	"os"
	"strconv"
)

type Runtime struct {
	DBPath        string
	MaxSteps      int
	MaxDepth      int
	CacheMaxItems int
	Seed          int64
}

func Load() Runtime {
	return Runtime{
		DBPath:        getenv("MALLORN_DB_PATH", "mallorn.db"),
		MaxSteps:      getenvInt("MALLORN_MAX_STEPS", 10_000, 1),
		MaxDepth:      getenvInt("MALLORN_MAX_DEPTH", 1_000, 1),
		CacheMaxItems: getenvInt("MALLORN_CACHE_MAX_ITEMS", 256, 1),
		Seed:          getenvInt64("MALLORN_SEED", 0),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback, min int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min {
		return fallback
	}
	return v
}

func getenvInt64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}
