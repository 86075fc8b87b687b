// Package gemini is the Google Gemini extraction backend.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"google.golang.org/genai"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/joseph-ayodele/budget-extractor/internal/llm"
)

const DefaultModel = "gemini-2.5-flash"

var errEmptyResponse = errors.New("empty response from model")

type Config struct {
	APIKey      string // if empty, falls back to env GEMINI_API_KEY
	Model       string
	Temperature float32
	MaxTokens   int
	MaxChars    int
}

// generator is the part of *genai.Models the client uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	cfg    Config
	models generator
	logger *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newClient(cfg, gc.Models, logger), nil
}

func newClient(cfg Config, models generator, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = llm.DefaultMaxChars
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, models: models, logger: logger}
}

func (c *Client) Name() string { return constants.BackendGemini }

func (c *Client) Extract(ctx context.Context, text string) (entity.ExtractedRecord, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"backend", c.Name(),
		"model", c.cfg.Model,
		"text_len", len(text),
	)

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: llm.BuildPrompt(text, c.cfg.MaxChars)},
			},
		},
	}
	gcfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(c.cfg.Temperature),
	}
	if c.cfg.MaxTokens > 0 {
		gcfg.MaxOutputTokens = int32(c.cfg.MaxTokens)
	}

	resp, err := c.models.GenerateContent(ctx, c.cfg.Model, contents, gcfg)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.ExtractedRecord{}, llm.NewBackendError(c.Name(), "generate", err)
	}
	if resp == nil || resp.Text() == "" {
		return entity.ExtractedRecord{}, llm.NewBackendError(c.Name(), "no_choices", errEmptyResponse)
	}

	rec, err := llm.DecodeRecord(c.Name(), resp.Text(), c.logger)
	if err != nil {
		c.logger.Error("llm.extract.content_invalid",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.ExtractedRecord{}, err
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"backend", c.Name(),
		"items", len(rec.BudgetItems),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}
