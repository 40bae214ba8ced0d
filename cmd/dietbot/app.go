package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/tbourn/dietbot/internal/cache"
	"github.com/tbourn/dietbot/internal/calomeal"
	"github.com/tbourn/dietbot/internal/config"
	"github.com/tbourn/dietbot/internal/http/handlers"
	"github.com/tbourn/dietbot/internal/knowledge"
	"github.com/tbourn/dietbot/internal/line"
	"github.com/tbourn/dietbot/internal/llm"
	"github.com/tbourn/dietbot/internal/repo"
	"github.com/tbourn/dietbot/internal/services"
)

// app is the wired object graph shared by all commands.
type app struct {
	db     *gorm.DB
	tokens *calomeal.StoreTokenSource

	days     *services.AggregationService
	backfill *services.BackfillService
	gaps     *services.GapService
	reports  *services.ReportService
	requests *services.RequestService
	webhook  *services.WebhookService

	closers []func() error
}

// openDB opens and migrates the configured database.
func openDB(c config.DBConfig) (*gorm.DB, error) {
	db, err := repo.Open(c)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func newApp(ctx context.Context, c config.Config) (*app, error) {
	db, err := openDB(c.DB)
	if err != nil {
		return nil, err
	}
	a := &app{db: db}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}

	store, err := cache.New(c.Cache)
	if err != nil {
		// a broken cache only costs upstream calls
		log.Warn().Err(err).Msg("cache unavailable, continuing without it")
		store = cache.Nop{}
	}
	if r, ok := store.(*cache.Redis); ok {
		a.closers = append(a.closers, r.Close)
	}

	a.tokens = calomeal.NewTokenSource(c.Calomeal, calomeal.DBTokens{DB: db}, nil)
	diet := calomeal.New(c.Calomeal, a.tokens, store, c.Cache.TTL)
	messenger := line.New(c.Line)

	model, closeLLM, err := llm.New(ctx, c.LLM)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("llm: %w", err)
	}
	a.closers = append(a.closers, closeLLM)

	faq, err := knowledge.Load(c.FAQPath)
	if err != nil {
		log.Warn().Err(err).Str("path", c.FAQPath).Msg("faq not loaded, system questions go ungrounded")
		faq = nil
	}

	var pace *rate.Limiter
	if c.Batch.FetchRPS > 0 {
		pace = rate.NewLimiter(rate.Limit(c.Batch.FetchRPS), 1)
	}

	a.days = &services.AggregationService{DB: db, API: diet}
	a.reports = &services.ReportService{Days: a.days}
	a.backfill = &services.BackfillService{
		DB:        db,
		API:       diet,
		ChunkDays: c.Batch.ChunkDays,
		Pace:      pace,
		Goals:     a.days,
	}
	a.gaps = &services.GapService{DB: db, API: diet, Pace: pace}
	a.requests = &services.RequestService{DB: db, Messenger: messenger, Reports: a.reports}
	a.webhook = &services.WebhookService{
		DB:         db,
		Messenger:  messenger,
		Classifier: llm.Classifier{LLM: model},
		Advisor:    &services.Advisor{LLM: model, Days: a.days, FAQ: faq},
		Location:   services.Tokyo,
	}
	return a, nil
}

// handlers exposes the services to the HTTP layer.
func (a *app) handlers() *handlers.Handlers {
	return &handlers.Handlers{
		Events:    a.webhook,
		Requests:  a.requests,
		Reports:   a.reports,
		Backfills: a.backfill,
		Gaps:      a.gaps,
		Subjects:  a.days,
		OAuth:     a.tokens,
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
