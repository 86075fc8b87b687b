package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joseph-ayodele/budget-extractor/internal/llm"
)

const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama-3.3-70b-versatile"
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 2000
)

// Config for an OpenAI-compatible chat/completions endpoint (Groq by default).
type Config struct {
	APIKey      string        // if empty, falls back to env GROQ_API_KEY then OPENAI_API_KEY
	BaseURL     string        // default https://api.groq.com/openai/v1
	Model       string        // e.g., "llama-3.3-70b-versatile"
	Temperature float32       // 0..2
	MaxTokens   int           // completion budget
	MaxChars    int           // document characters sent in the prompt
	Timeout     time.Duration // http client timeout
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GROQ_API_KEY")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = llm.DefaultMaxChars
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}
