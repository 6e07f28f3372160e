package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Redis     RedisConfig
	NATS      NATSConfig
	LLM       LLMConfig
	Retrieval RetrievalConfig
	Memory    MemoryConfig
	Safety    SafetyConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Profile   ProfileConfig
	Images    ImagesConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
}

type DBConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxConns       int32
	MigrationsPath string
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NATSConfig is optional: an empty URL disables telemetry events.
type NATSConfig struct {
	URL    string
	MaxAge time.Duration
}

// LLMConfig points at an OpenAI-compatible API (Groq by default).
type LLMConfig struct {
	BaseURL        string
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
	MaxRetries     int
}

type RetrievalConfig struct {
	PrimaryTopK int
	AuxTopK     int
	MinScore    float64
	MaxResults  int
	Timeout     time.Duration
}

type MemoryConfig struct {
	MaxTurns      int
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

type SafetyConfig struct {
	MaxQueryLength int
}

type RateLimitConfig struct {
	Requests  int
	WindowSec int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type ProfileConfig struct {
	Path string
}

type ImagesConfig struct {
	MetadataPath string
	Dir          string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	return fromKoanf(k)
}

func fromKoanf(k *koanf.Koanf) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: k.String("server.host"),
			Port: k.Int("server.port"),
		},
		DB: DBConfig{
			Host:           k.String("db.host"),
			Port:           k.Int("db.port"),
			User:           k.String("db.user"),
			Password:       k.String("db.password"),
			Name:           k.String("db.name"),
			SSLMode:        k.String("db.sslmode"),
			MaxConns:       int32(k.Int("db.max.conns")),
			MigrationsPath: k.String("db.migrations.path"),
		},
		Redis: RedisConfig{
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		NATS: NATSConfig{
			URL: k.String("nats.url"),
		},
		LLM: LLMConfig{
			BaseURL:        k.String("llm.base.url"),
			APIKey:         k.String("llm.api.key"),
			ChatModel:      k.String("llm.chat.model"),
			EmbeddingModel: k.String("llm.embedding.model"),
			MaxRetries:     k.Int("llm.max.retries"),
		},
		Retrieval: RetrievalConfig{
			PrimaryTopK: k.Int("retrieval.primary.topk"),
			AuxTopK:     k.Int("retrieval.aux.topk"),
			MinScore:    k.Float64("retrieval.min.score"),
			MaxResults:  k.Int("retrieval.max.results"),
		},
		Memory: MemoryConfig{
			MaxTurns: k.Int("memory.max.turns"),
		},
		Safety: SafetyConfig{
			MaxQueryLength: k.Int("safety.max.query.length"),
		},
		RateLimit: RateLimitConfig{
			Requests:  k.Int("ratelimit.requests"),
			WindowSec: k.Int("ratelimit.window.sec"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(k.String("cors.allowed.origins")),
		},
		Profile: ProfileConfig{
			Path: k.String("profile.path"),
		},
		Images: ImagesConfig{
			MetadataPath: k.String("images.metadata.path"),
			Dir:          k.String("images.dir"),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.DB.Host == "" {
		cfg.DB.Host = "localhost"
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.DB.User == "" {
		cfg.DB.User = "folio"
	}
	if cfg.DB.Name == "" {
		cfg.DB.Name = "folio"
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}
	if cfg.DB.MaxConns == 0 {
		cfg.DB.MaxConns = 10
	}
	if cfg.DB.MigrationsPath == "" {
		cfg.DB.MigrationsPath = "migrations"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.groq.com/openai/v1/"
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = k.String("groq.api.key")
	}
	if cfg.LLM.ChatModel == "" {
		cfg.LLM.ChatModel = "llama-3.1-8b-instant"
	}
	if cfg.LLM.EmbeddingModel == "" {
		cfg.LLM.EmbeddingModel = "nomic-embed-text-v1.5"
	}
	if !k.Exists("llm.max.retries") {
		cfg.LLM.MaxRetries = 1
	}
	if cfg.Retrieval.PrimaryTopK == 0 {
		cfg.Retrieval.PrimaryTopK = 4
	}
	if cfg.Retrieval.AuxTopK == 0 {
		cfg.Retrieval.AuxTopK = 2
	}
	if !k.Exists("retrieval.min.score") {
		cfg.Retrieval.MinScore = 0.2
	}
	if cfg.Retrieval.MaxResults == 0 {
		cfg.Retrieval.MaxResults = 8
	}
	if cfg.Memory.MaxTurns == 0 {
		cfg.Memory.MaxTurns = 5
	}
	if cfg.Safety.MaxQueryLength == 0 {
		cfg.Safety.MaxQueryLength = 500
	}
	if cfg.RateLimit.Requests == 0 {
		cfg.RateLimit.Requests = 30
	}
	if cfg.RateLimit.WindowSec == 0 {
		cfg.RateLimit.WindowSec = 60
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	// Parse durations
	durations := []struct {
		key  string
		def  string
		dest *time.Duration
	}{
		{"server.request.timeout", "30s", &cfg.Server.RequestTimeout},
		{"nats.max.age", "168h", &cfg.NATS.MaxAge},
		{"llm.timeout", "20s", &cfg.LLM.Timeout},
		{"retrieval.timeout", "5s", &cfg.Retrieval.Timeout},
		{"memory.idle.timeout", "24h", &cfg.Memory.IdleTimeout},
		{"memory.sweep.interval", "1h", &cfg.Memory.SweepInterval},
	}
	for _, d := range durations {
		raw := k.String(d.key)
		if raw == "" {
			raw = d.def
		}
		v, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", d.key, err)
		}
		*d.dest = v
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
