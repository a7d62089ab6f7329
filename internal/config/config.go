// Package config assembles the immutable runtime configuration from
// defaults, an optional YAML file, a .env file and REPASO_* variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/repaso/internal/chunker"
	"github.com/abhisek/repaso/internal/grading"
	"github.com/abhisek/repaso/internal/ingest"
	"github.com/abhisek/repaso/internal/llm"
	"github.com/abhisek/repaso/internal/questiongen"
	"github.com/abhisek/repaso/internal/store"
)

// Embedder backends.
const (
	// EmbedderAuto picks hugot when a model path is set and hashing
	// otherwise.
	EmbedderAuto    = "auto"
	EmbedderHugot   = "hugot"
	EmbedderHashing = "hashing"
	EmbedderOpenAI  = "openai"
)

// Config is the whole application configuration.
type Config struct {
	// Env selects the logger mode: dev or prod.
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`

	DB        DBConfig        `yaml:"db"`
	HTTP      HTTPConfig      `yaml:"http"`
	LLM       llm.Config      `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Grading   GradingConfig   `yaml:"grading"`
	Ingest    ingest.Config   `yaml:"ingest"`
	Questions QuestionsConfig `yaml:"questions"`
}

// DBConfig selects the database.
type DBConfig struct {
	Driver string `yaml:"driver"`
	// DSN is a file path for sqlite or a connection URL for postgres.
	// An empty sqlite DSN uses the XDG data directory.
	DSN string `yaml:"dsn"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	JWTSecret       string        `yaml:"jwt_secret"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
}

// EmbeddingConfig selects the embedder and its cache.
type EmbeddingConfig struct {
	Backend string `yaml:"backend"`
	Model   string `yaml:"model"`
	// ModelPath is the directory of an exported sentence-transformer for
	// the hugot backend.
	ModelPath string `yaml:"model_path"`
	// CacheSize bounds the in-process cache. Zero disables it.
	CacheSize int `yaml:"cache_size"`
	// RedisURL, when set, replaces the in-process cache.
	RedisURL string        `yaml:"redis_url"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// ResolvedBackend returns the backend after resolving auto.
func (e EmbeddingConfig) ResolvedBackend() string {
	if e.Backend != EmbedderAuto {
		return e.Backend
	}
	if e.ModelPath != "" {
		return EmbedderHugot
	}
	return EmbedderHashing
}

// GradingConfig picks the weight profile and the optional boost.
type GradingConfig struct {
	WeightProfile string `yaml:"weight_profile"`
	BoostEnabled  bool   `yaml:"boost_enabled"`
}

// QuestionsConfig configures question generation jobs.
type QuestionsConfig struct {
	PerChunk int           `yaml:"per_chunk"`
	Delay    time.Duration `yaml:"delay"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Env:      "prod",
		LogLevel: "info",
		DB:       DBConfig{Driver: store.DriverSQLite},
		HTTP: HTTPConfig{
			Addr:            ":8000",
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    10 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
			MaxUploadBytes:  50 << 20,
		},
		LLM: llm.DefaultConfig(),
		Embedding: EmbeddingConfig{
			Backend:   EmbedderAuto,
			CacheSize: 4096,
			CacheTTL:  7 * 24 * time.Hour,
		},
		Grading:   GradingConfig{WeightProfile: grading.DefaultProfile},
		Ingest:    ingest.DefaultConfig(),
		Questions: QuestionsConfig{PerChunk: 2, Delay: time.Second},
	}
}

// LookupFunc reads one variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadFromEnvironment loads .env from the working directory, if present,
// and then calls Load with the process environment.
func LoadFromEnvironment(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Load(path, os.LookupEnv)
}

// Load builds a Config from defaults, the YAML file at path (or
// REPASO_CONFIG when path is empty) and the variables returned by lookup.
// The result is validated.
func Load(path string, lookup LookupFunc) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path, explicit = lookup("REPASO_CONFIG")
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return Config{}, err
			}
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// envReader collects the first conversion error, naming the variable.
type envReader struct {
	lookup LookupFunc
	err    error
}

func (r *envReader) str(key string, dst *string) {
	if v, ok := r.lookup(key); ok && v != "" {
		*dst = v
	}
}

func (r *envReader) num(key string, dst *int) {
	v, ok := r.lookup(key)
	if !ok || v == "" || r.err != nil {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		r.err = fmt.Errorf("%s: invalid integer %q", key, v)
		return
	}
	*dst = n
}

func (r *envReader) flag(key string, dst *bool) {
	v, ok := r.lookup(key)
	if !ok || v == "" || r.err != nil {
		return
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		r.err = fmt.Errorf("%s: invalid boolean %q", key, v)
		return
	}
	*dst = b
}

func (r *envReader) dur(key string, dst *time.Duration) {
	v, ok := r.lookup(key)
	if !ok || v == "" || r.err != nil {
		return
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		r.err = fmt.Errorf("%s: invalid duration %q", key, v)
		return
	}
	*dst = d
}

func (r *envReader) list(key string, dst *[]string) {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	*dst = out
}

func (c *Config) applyEnv(lookup LookupFunc) error {
	r := &envReader{lookup: lookup}

	r.str("REPASO_ENV", &c.Env)
	r.str("REPASO_LOG_LEVEL", &c.LogLevel)

	r.str("REPASO_DB_DRIVER", &c.DB.Driver)
	r.str("REPASO_DB", &c.DB.DSN)

	r.str("REPASO_HTTP_ADDR", &c.HTTP.Addr)
	r.str("REPASO_JWT_SECRET", &c.HTTP.JWTSecret)
	r.list("REPASO_CORS_ORIGINS", &c.HTTP.CORSOrigins)

	r.str("REPASO_LLM_PROVIDER", &c.LLM.Provider)
	r.dur("REPASO_LLM_TIMEOUT", &c.LLM.Timeout)
	// The bare GROQ_API_KEY is what most Groq setups already export.
	r.str("GROQ_API_KEY", &c.LLM.Groq.APIKey)
	r.str("REPASO_GROQ_API_KEY", &c.LLM.Groq.APIKey)
	r.str("REPASO_GROQ_MODEL", &c.LLM.Groq.Model)
	r.str("REPASO_OPENAI_API_KEY", &c.LLM.OpenAI.APIKey)
	r.str("REPASO_OPENAI_MODEL", &c.LLM.OpenAI.Model)
	r.str("REPASO_OPENAI_BASE_URL", &c.LLM.OpenAI.BaseURL)
	r.str("REPASO_ANTHROPIC_API_KEY", &c.LLM.Anthropic.APIKey)
	r.str("REPASO_ANTHROPIC_MODEL", &c.LLM.Anthropic.Model)
	r.str("REPASO_GEMINI_API_KEY", &c.LLM.Gemini.APIKey)
	r.str("REPASO_GEMINI_MODEL", &c.LLM.Gemini.Model)
	r.str("REPASO_OPENROUTER_API_KEY", &c.LLM.OpenRouter.APIKey)
	r.str("REPASO_OPENROUTER_MODEL", &c.LLM.OpenRouter.Model)
	r.str("REPASO_OPENROUTER_SITE_URL", &c.LLM.OpenRouter.SiteURL)

	r.str("REPASO_EMBEDDER", &c.Embedding.Backend)
	r.str("REPASO_EMBEDDING_MODEL", &c.Embedding.Model)
	r.str("REPASO_EMBEDDING_MODEL_PATH", &c.Embedding.ModelPath)
	r.num("REPASO_EMBEDDING_CACHE_SIZE", &c.Embedding.CacheSize)
	r.str("REPASO_REDIS_URL", &c.Embedding.RedisURL)

	r.str("REPASO_WEIGHT_PROFILE", &c.Grading.WeightProfile)
	r.flag("REPASO_BOOST_ENABLED", &c.Grading.BoostEnabled)

	r.str("REPASO_CHUNK_PROFILE", &c.Ingest.ChunkProfile)
	r.num("REPASO_CHUNK_MIN_WORDS", &c.Ingest.Chunk.MinWords)
	r.num("REPASO_CHUNK_MAX_WORDS", &c.Ingest.Chunk.MaxWords)
	r.num("REPASO_CHUNK_OVERLAP_WORDS", &c.Ingest.Chunk.OverlapWords)
	r.str("REPASO_OCR_COMMAND", &c.Ingest.OCRCommand)

	r.num("REPASO_QUESTIONS_PER_CHUNK", &c.Questions.PerChunk)
	r.dur("REPASO_QUESTION_DELAY", &c.Questions.Delay)

	return r.err
}

// Validate checks the configuration. Errors name the variable that sets
// the offending value. The LLM provider key is checked separately by
// ValidateLLM since only some commands call the LLM.
func (c Config) Validate() error {
	switch c.Env {
	case "dev", "prod":
	default:
		return fmt.Errorf("REPASO_ENV: must be dev or prod, got %q", c.Env)
	}
	switch c.DB.Driver {
	case store.DriverSQLite:
	case store.DriverPostgres:
		if c.DB.DSN == "" {
			return errors.New("REPASO_DB: a connection URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("REPASO_DB_DRIVER: must be sqlite or postgres, got %q", c.DB.Driver)
	}
	switch c.Embedding.Backend {
	case EmbedderAuto, EmbedderHashing:
	case EmbedderHugot:
		if c.Embedding.ModelPath == "" {
			return errors.New("REPASO_EMBEDDING_MODEL_PATH is required for the hugot embedder")
		}
	case EmbedderOpenAI:
		if c.LLM.OpenAI.APIKey == "" {
			return errors.New("REPASO_OPENAI_API_KEY is required for the openai embedder")
		}
	default:
		return fmt.Errorf("REPASO_EMBEDDER: must be auto, hugot, hashing or openai, got %q", c.Embedding.Backend)
	}
	if c.Embedding.CacheSize < 0 {
		return fmt.Errorf("REPASO_EMBEDDING_CACHE_SIZE: must not be negative, got %d", c.Embedding.CacheSize)
	}
	if _, err := grading.WeightsForProfile(c.Grading.WeightProfile); err != nil {
		return fmt.Errorf("REPASO_WEIGHT_PROFILE: %w", err)
	}
	if _, err := chunker.ForProfile(c.Ingest.ChunkProfile, 1); err != nil {
		return fmt.Errorf("REPASO_CHUNK_PROFILE: %w", err)
	}
	if c.Ingest.Chunk.MaxWords > 0 {
		if err := c.Ingest.Chunk.Validate(); err != nil {
			return fmt.Errorf("REPASO_CHUNK_MIN_WORDS/MAX_WORDS/OVERLAP_WORDS: %w", err)
		}
	}
	if c.Questions.PerChunk < 1 || c.Questions.PerChunk > 10 {
		return fmt.Errorf("REPASO_QUESTIONS_PER_CHUNK: must be between 1 and 10, got %d", c.Questions.PerChunk)
	}
	if c.Questions.Delay < 0 {
		return fmt.Errorf("REPASO_QUESTION_DELAY: must not be negative, got %s", c.Questions.Delay)
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("REPASO_LLM_TIMEOUT: must not be negative, got %s", c.LLM.Timeout)
	}
	return nil
}

// ValidateLLM checks that the selected LLM provider is usable.
func (c Config) ValidateLLM() error { return c.LLM.Validate() }

// GradingConfig resolves the grading.Config for the chosen profile.
func (c Config) GradingConfig() grading.Config {
	gc := grading.DefaultConfig()
	if w, err := grading.WeightsForProfile(c.Grading.WeightProfile); err == nil {
		gc.Weights = w
	}
	gc.Boost.Enabled = c.Grading.BoostEnabled
	return gc
}

// QuestionConfig returns the question generator config.
func (c Config) QuestionConfig() questiongen.Config {
	qc := questiongen.DefaultConfig()
	qc.PerChunk = c.Questions.PerChunk
	qc.Delay = c.Questions.Delay
	return qc
}

// DBPath resolves the database DSN, defaulting sqlite to the XDG path.
func (c Config) DBPath() (string, error) {
	if c.DB.DSN != "" {
		if c.DB.Driver == store.DriverSQLite && c.DB.DSN != ":memory:" {
			return c.DB.DSN, store.EnsureDir(c.DB.DSN)
		}
		return c.DB.DSN, nil
	}
	return store.DefaultDBPath()
}
