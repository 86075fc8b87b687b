package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/joseph-ayodele/budget-extractor/internal/llm"
)

var errNoChoices = errors.New("no choices in response")

func (c *Client) Name() string { return constants.BackendOpenAI }

// Extract sends the document text to chat/completions and decodes the JSON answer.
// Every failure is an *llm.BackendError.
func (c *Client) Extract(ctx context.Context, text string) (entity.ExtractedRecord, error) {
	rid := common.RequestIDFromContext(ctx)
	ctx = common.WithRequestID(ctx, rid)
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"backend", c.Name(),
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(text),
	)

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"max_tokens":  c.cfg.MaxTokens,
		"messages": []map[string]any{
			{"role": "user", "content": llm.BuildPrompt(text, c.cfg.MaxChars)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.ExtractedRecord{}, llm.NewBackendError(c.Name(), "http", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.ExtractedRecord{}, llm.NewBackendError(c.Name(), "decode", fmt.Errorf("decode response: %w", err))
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices",
			"req_id", rid, "raw", llm.Truncate(string(raw), 500),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.ExtractedRecord{}, llm.NewBackendError(c.Name(), "no_choices", errNoChoices)
	}

	rec, err := llm.DecodeRecord(c.Name(), cc.Choices[0].Message.Content, c.logger)
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
