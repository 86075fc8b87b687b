package extract

import (
	"context"

	"github.com/joseph-ayodele/budget-extractor/internal/entity"
)

// Extractor turns normalized document text into a record. Implementations are
// interchangeable: the rule-based parser here, or an LLM backend.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, text string) (entity.ExtractedRecord, error)
}
