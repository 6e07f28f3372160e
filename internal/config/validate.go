package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks Config for production-critical problems.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	if c.DB.Password == "" {
		errs = append(errs, "DB_PASSWORD is required")
	}
	if c.LLM.APIKey == "" {
		errs = append(errs, "LLM_API_KEY (or GROQ_API_KEY) is required")
	}

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1–65535, got %d", c.Server.Port))
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DB_PORT must be 1–65535, got %d", c.DB.Port))
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1–65535, got %d", c.Redis.Port))
	}

	// Retrieval
	if c.Retrieval.MinScore < 0 || c.Retrieval.MinScore > 1 {
		errs = append(errs, fmt.Sprintf("RETRIEVAL_MIN_SCORE must be within [0,1], got %g", c.Retrieval.MinScore))
	}
	if c.Retrieval.PrimaryTopK < 1 || c.Retrieval.AuxTopK < 1 || c.Retrieval.MaxResults < 1 {
		errs = append(errs, "RETRIEVAL_PRIMARY_TOPK, RETRIEVAL_AUX_TOPK and RETRIEVAL_MAX_RESULTS must be positive")
	}
	if c.LLM.Timeout <= 0 || c.Retrieval.Timeout <= 0 {
		errs = append(errs, "LLM_TIMEOUT and RETRIEVAL_TIMEOUT must be positive")
	}

	// Memory
	if c.Memory.MaxTurns < 1 {
		errs = append(errs, fmt.Sprintf("MEMORY_MAX_TURNS must be positive, got %d", c.Memory.MaxTurns))
	}
	if c.Memory.SweepInterval <= 0 || c.Memory.IdleTimeout <= 0 {
		errs = append(errs, "MEMORY_SWEEP_INTERVAL and MEMORY_IDLE_TIMEOUT must be positive")
	}

	if c.Safety.MaxQueryLength < 2 {
		errs = append(errs, fmt.Sprintf("SAFETY_MAX_QUERY_LENGTH must be at least 2, got %d", c.Safety.MaxQueryLength))
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("LOG_FORMAT must be text or json, got %q", c.Log.Format))
	}

	// Telemetry: warn only
	if c.NATS.URL == "" {
		slog.Warn("NATS_URL is empty, chat telemetry events are disabled")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
