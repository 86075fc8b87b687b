package common

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/joseph-ayodele/budget-extractor/constants"
)

const (
	EnvPrefix      = "BUDGETX"
	ConfigFileName = "budgetx"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	LLM       LLMConfig
	Gemini    GeminiConfig
	PDF       PDFConfig
	Cache     CacheConfig
	Batch     BatchConfig
	Log       LogConfig
	RulesFile string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string
	GRPCAddr       string
	RequestTimeout time.Duration
	MaxUploadBytes int64
}

// LLMConfig configures the OpenAI-compatible backend and the default backend choice.
type LLMConfig struct {
	Backend     string
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	MaxChars    int
	Timeout     time.Duration
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type PDFConfig struct {
	Converter string
	Pdftotext string
	Pdftoppm  string
	Tesseract string
	OCRLang   string
	DPI       int
	MaxPages  int
}

type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
	MemorySize    int
}

type BatchConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// NewViper returns a viper instance with defaults, env binding and optional config file lookup.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("db.driver", constants.DriverSQLite)
	v.SetDefault("db.dsn", "file:budgets.db")
	v.SetDefault("db.max_conns", 20)
	v.SetDefault("db.min_conns", 2)
	v.SetDefault("db.max_conn_lifetime", 30*time.Minute)
	v.SetDefault("db.max_conn_idle_time", 5*time.Minute)
	v.SetDefault("db.dial_timeout", 3*time.Second)
	v.SetDefault("db.statement_timeout", time.Duration(0))

	v.SetDefault("server.http_addr", ":8000")
	v.SetDefault("server.grpc_addr", ":9090")
	v.SetDefault("server.request_timeout", 2*time.Minute)
	v.SetDefault("server.max_upload_bytes", int64(32<<20))

	v.SetDefault("llm.backend", constants.BackendRegex)
	v.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "llama-3.3-70b-versatile")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.max_chars", 4000)
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")

	v.SetDefault("pdf.converter", constants.ConverterLedongthuc)
	v.SetDefault("pdf.pdftotext", "pdftotext")
	v.SetDefault("pdf.pdftoppm", "pdftoppm")
	v.SetDefault("pdf.tesseract", "tesseract")
	v.SetDefault("pdf.ocr_lang", "tha+eng")
	v.SetDefault("pdf.dpi", 300)
	v.SetDefault("pdf.max_pages", 0)

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.memory_size", 256)

	v.SetDefault("batch.workers", 4)
	v.SetDefault("batch.queue_size", 64)
	v.SetDefault("batch.timeout", 3*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("rules_file", "")

	// provider variables are read after the prefixed ones
	_ = v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "GROQ_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("gemini.api_key", EnvPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY")

	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	return v
}

// BindFlags maps persistent CLI flags onto config keys.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"db.driver":   "db-driver",
		"db.dsn":      "db-dsn",
		"log.level":   "log-level",
		"log.format":  "log-format",
		"llm.backend": "backend",
		"rules_file":  "rules",
	}
	for key, flag := range bindings {
		f := flags.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// LoadConfig reads the optional config file and materializes a Config from v.
// An explicit configFile must exist; the implicit ./budgetx.yaml may be absent.
func LoadConfig(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, NewAppError("CONFIG_ERROR", "read config file", err)
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Driver:           strings.ToLower(v.GetString("db.driver")),
			DSN:              v.GetString("db.dsn"),
			MaxConns:         v.GetInt32("db.max_conns"),
			MinConns:         v.GetInt32("db.min_conns"),
			MaxConnLifetime:  v.GetDuration("db.max_conn_lifetime"),
			MaxConnIdleTime:  v.GetDuration("db.max_conn_idle_time"),
			DialTimeout:      v.GetDuration("db.dial_timeout"),
			StatementTimeout: v.GetDuration("db.statement_timeout"),
		},
		Server: ServerConfig{
			HTTPAddr:       v.GetString("server.http_addr"),
			GRPCAddr:       v.GetString("server.grpc_addr"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
			MaxUploadBytes: v.GetInt64("server.max_upload_bytes"),
		},
		LLM: LLMConfig{
			Backend:     strings.ToLower(v.GetString("llm.backend")),
			BaseURL:     v.GetString("llm.base_url"),
			APIKey:      v.GetString("llm.api_key"),
			Model:       v.GetString("llm.model"),
			Temperature: float32(v.GetFloat64("llm.temperature")),
			MaxTokens:   v.GetInt("llm.max_tokens"),
			MaxChars:    v.GetInt("llm.max_chars"),
			Timeout:     v.GetDuration("llm.timeout"),
		},
		Gemini: GeminiConfig{
			APIKey: v.GetString("gemini.api_key"),
			Model:  v.GetString("gemini.model"),
		},
		PDF: PDFConfig{
			Converter: strings.ToLower(v.GetString("pdf.converter")),
			Pdftotext: v.GetString("pdf.pdftotext"),
			Pdftoppm:  v.GetString("pdf.pdftoppm"),
			Tesseract: v.GetString("pdf.tesseract"),
			OCRLang:   v.GetString("pdf.ocr_lang"),
			DPI:       v.GetInt("pdf.dpi"),
			MaxPages:  v.GetInt("pdf.max_pages"),
		},
		Cache: CacheConfig{
			RedisAddr:     v.GetString("cache.redis_addr"),
			RedisPassword: v.GetString("cache.redis_password"),
			RedisDB:       v.GetInt("cache.redis_db"),
			TTL:           v.GetDuration("cache.ttl"),
			MemorySize:    v.GetInt("cache.memory_size"),
		},
		Batch: BatchConfig{
			Workers:   v.GetInt("batch.workers"),
			QueueSize: v.GetInt("batch.queue_size"),
			Timeout:   v.GetDuration("batch.timeout"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
		RulesFile: v.GetString("rules_file"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case constants.DriverSQLite, constants.DriverPostgres:
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unsupported db.driver %q", c.Database.Driver), ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "db.dsn is required", ErrInvalidInput)
	}
	switch c.LLM.Backend {
	case constants.BackendRegex:
	case constants.BackendOpenAI:
		if c.LLM.APIKey == "" {
			return NewAppError("CONFIG_ERROR", "llm.api_key is required for the openai backend", ErrInvalidInput)
		}
	case constants.BackendGemini:
		if c.Gemini.APIKey == "" {
			return NewAppError("CONFIG_ERROR", "gemini.api_key is required for the gemini backend", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unsupported llm.backend %q", c.LLM.Backend), ErrInvalidInput)
	}
	switch c.PDF.Converter {
	case constants.ConverterLedongthuc, constants.ConverterPdftotext:
	case constants.ConverterTesseract:
		if c.PDF.DPI <= 0 {
			return NewAppError("CONFIG_ERROR", "pdf.dpi must be positive", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unsupported pdf.converter %q", c.PDF.Converter), ErrInvalidInput)
	}
	if c.LLM.MaxChars <= 0 {
		return NewAppError("CONFIG_ERROR", "llm.max_chars must be positive", ErrInvalidInput)
	}
	return nil
}
