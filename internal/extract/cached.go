package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/budget-extractor/internal/cache"
	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
)

// CachedExtractor memoizes successful extractions of another Extractor.
// Cache failures are logged and never fail the extraction.
type CachedExtractor struct {
	next   Extractor
	cache  cache.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedExtractor(next Extractor, c cache.Client, ttl time.Duration, logger *slog.Logger) *CachedExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedExtractor{next: next, cache: c, ttl: ttl, logger: logger}
}

func (e *CachedExtractor) Name() string { return e.next.Name() }

func (e *CachedExtractor) Extract(ctx context.Context, text string) (entity.ExtractedRecord, error) {
	rid := common.RequestIDFromContext(ctx)
	key := CacheKey(e.next.Name(), text)

	raw, err := e.cache.Get(ctx, key)
	switch {
	case err == nil:
		var rec entity.ExtractedRecord
		uErr := json.Unmarshal(raw, &rec)
		if uErr == nil {
			e.logger.Info("extract.cache.hit", "req_id", rid, "backend", e.next.Name(), "key", key)
			return rec, nil
		}
		e.logger.Warn("extract.cache.decode_error", "req_id", rid, "key", key, "error", uErr)
	case errors.Is(err, cache.ErrCacheMiss):
		e.logger.Debug("extract.cache.miss", "req_id", rid, "backend", e.next.Name(), "key", key)
	default:
		e.logger.Warn("extract.cache.get_error", "req_id", rid, "key", key, "error", err)
	}

	rec, err := e.next.Extract(ctx, text)
	if err != nil {
		return rec, err
	}

	if b, mErr := json.Marshal(rec); mErr == nil {
		if sErr := e.cache.Set(ctx, key, b, e.ttl); sErr != nil {
			e.logger.Warn("extract.cache.set_error", "req_id", rid, "key", key, "error", sErr)
		}
	}
	return rec, nil
}

// CacheKey identifies a document text for one backend.
func CacheKey(backend, text string) string {
	h := sha256.New()
	h.Write([]byte(backend))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return "extract:" + backend + ":" + hex.EncodeToString(h.Sum(nil))
}
