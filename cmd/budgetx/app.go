package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/budget-extractor/internal/budget"
	"github.com/joseph-ayodele/budget-extractor/internal/cache"
	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/extract"
	"github.com/joseph-ayodele/budget-extractor/internal/llm/gemini"
	"github.com/joseph-ayodele/budget-extractor/internal/llm/openai"
	"github.com/joseph-ayodele/budget-extractor/internal/pdftext"
	"github.com/joseph-ayodele/budget-extractor/internal/repository"
)

// app owns everything a command needs; Close releases it.
type app struct {
	cfg    *common.Config
	logger *slog.Logger
	db     *repository.DB
	cache  cache.Client
	svc    *budget.Service
}

func dbConfig(c *cli) repository.Config {
	d := c.cfg.Database
	return repository.Config{
		Driver:           d.Driver,
		DSN:              d.DSN,
		MaxConns:         d.MaxConns,
		MinConns:         d.MinConns,
		MaxConnLifetime:  d.MaxConnLifetime,
		MaxConnIdleTime:  d.MaxConnIdleTime,
		DialTimeout:      d.DialTimeout,
		StatementTimeout: d.StatementTimeout,
	}
}

func openDB(ctx context.Context, cfg repository.Config, logger *slog.Logger) (*repository.DB, error) {
	db, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (c *cli) newApp(ctx context.Context) (*app, error) {
	cfg, logger := c.cfg, c.logger

	db, err := openDB(ctx, dbConfig(c), logger)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, db: db}

	converter, err := pdftext.New(pdftext.Config{
		Converter: cfg.PDF.Converter,
		Pdftotext: cfg.PDF.Pdftotext,
		OCR: pdftext.OCRConfig{
			Pdftoppm:  cfg.PDF.Pdftoppm,
			Tesseract: cfg.PDF.Tesseract,
			Lang:      cfg.PDF.OCRLang,
			DPI:       cfg.PDF.DPI,
			MaxPages:  cfg.PDF.MaxPages,
		},
	}, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	extractors, err := a.extractors(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	svc, err := budget.NewService(converter, repository.NewProjectRepository(db, logger), extractors, cfg.LLM.Backend, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.svc = svc
	return a, nil
}

// extractors always includes regex; LLM backends are added when a key is configured and
// sit behind the extraction cache.
func (a *app) extractors(ctx context.Context) ([]extract.Extractor, error) {
	cfg := a.cfg

	rules, err := extract.LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, err
	}
	rx, err := extract.NewRegexExtractor(rules, a.logger)
	if err != nil {
		return nil, err
	}
	out := []extract.Extractor{rx}

	var llms []extract.Extractor
	if cfg.LLM.APIKey != "" {
		llms = append(llms, openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			MaxChars:    cfg.LLM.MaxChars,
			Timeout:     cfg.LLM.Timeout,
		}, a.logger))
	}
	if cfg.Gemini.APIKey != "" {
		gc, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.Gemini.APIKey,
			Model:       cfg.Gemini.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			MaxChars:    cfg.LLM.MaxChars,
		}, a.logger)
		if err != nil {
			return nil, err
		}
		llms = append(llms, gc)
	}
	if len(llms) == 0 {
		return out, nil
	}

	cc, err := a.openCache(ctx)
	if err != nil {
		return nil, err
	}
	a.cache = cc
	for _, e := range llms {
		out = append(out, extract.NewCachedExtractor(e, cc, cfg.Cache.TTL, a.logger))
	}
	return out, nil
}

func (a *app) openCache(ctx context.Context) (cache.Client, error) {
	cfg := a.cfg.Cache
	if cfg.RedisAddr == "" {
		a.logger.Debug("cache.memory", "size", cfg.MemorySize)
		return cache.NewMemoryClient(cfg.MemorySize), nil
	}
	rc, err := cache.NewRedisClient(ctx, cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   "budgetx:",
	})
	if err != nil {
		return nil, fmt.Errorf("open redis cache: %w", err)
	}
	a.logger.Info("cache.redis", "addr", cfg.RedisAddr)
	return rc, nil
}

func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("cache.close_failed", "error", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
