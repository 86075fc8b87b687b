package llm

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/joseph-ayodele/budget-extractor/internal/entity"
)

var errEmptyContent = errors.New("empty response content")

// DecodeRecord runs the shared post-processing for model output: strip fences, sanitize,
// validate against the record schema, decode. Failures are *BackendError for backend.
func DecodeRecord(backend, content string, logger *slog.Logger) (entity.ExtractedRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}

	body := StripCodeFences(content)
	if body == "" {
		return entity.ExtractedRecord{}, NewBackendError(backend, "decode", errEmptyContent)
	}

	cleaned, _, err := NormalizeAndSanitizeJSON([]byte(body), logger)
	if err != nil {
		return entity.ExtractedRecord{}, NewBackendError(backend, "decode", err)
	}
	if err := ValidateJSONAgainstSchema(BuildRecordJSONSchema(), cleaned); err != nil {
		return entity.ExtractedRecord{}, NewBackendError(backend, "schema", err)
	}

	var rec entity.ExtractedRecord
	if err := json.Unmarshal(cleaned, &rec); err != nil {
		return entity.ExtractedRecord{}, NewBackendError(backend, "decode", err)
	}
	if rec.BudgetItems == nil {
		rec.BudgetItems = []entity.BudgetItem{}
	}
	return rec, nil
}
