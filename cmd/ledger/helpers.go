package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/receipt-ledger/internal/common"
	"github.com/Veraticus/receipt-ledger/internal/engine"
	"github.com/Veraticus/receipt-ledger/internal/fetch"
	"github.com/Veraticus/receipt-ledger/internal/ledger"
	"github.com/Veraticus/receipt-ledger/internal/llm"
	"github.com/Veraticus/receipt-ledger/internal/model"
	"github.com/Veraticus/receipt-ledger/internal/storage"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newPipeline wires the HTTP fetcher and the configured language model into an
// engine.
func newPipeline(store *storage.SQLiteStorage) (*engine.Engine, error) {
	classifier, err := llm.NewClassifier(llm.Config{
		Provider:    cfg.LLM.Provider,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		RateLimit:   cfg.LLM.RateLimit,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, common.NewUserError("language model is not configured (set llm.api_key or LEDGER_LLM_API_KEY)", err)
	}

	fetcher := fetch.NewHTTPFetcher(fetch.Options{
		UserAgent:    cfg.Fetch.UserAgent,
		Timeout:      cfg.Fetch.Timeout,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
	})

	return engine.New(store, fetcher, classifier, recorder), nil
}

// newEditor returns the ledger used by edit commands.
func newEditor(store *storage.SQLiteStorage) *ledger.Ledger {
	return ledger.New(store, recorder)
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, common.NewValidationError("%s must be a positive number, got %q", what, arg)
	}
	return id, nil
}

func parseIndices(args []string) ([]int, error) {
	indices := make([]int, 0, len(args))
	for _, arg := range args {
		idx, err := strconv.Atoi(arg)
		if err != nil || idx < 0 {
			return nil, common.NewValidationError("item index must be a non-negative number, got %q", arg)
		}
		indices = append(indices, idx)
	}
	return indices, nil
}

// parseCategoryArg accepts a category name, one of its Portuguese labels or
// its numeric id.
func parseCategoryArg(arg string) (model.Category, error) {
	if c, ok := model.ParseCategory(arg); ok {
		return c, nil
	}
	if id, err := strconv.Atoi(arg); err == nil {
		if c, err := model.CategoryFromID(id); err == nil {
			return c, nil
		}
	}
	return 0, common.NewValidationError("unknown category %q, see `ledger categories list`", arg)
}

// parseDate reads a YYYY-MM-DD purchase date, defaulting to today.
func parseDate(arg string, now time.Time) (time.Time, error) {
	if arg == "" {
		return now, nil
	}
	d, err := time.ParseInLocation(time.DateOnly, arg, time.Local)
	if err != nil {
		return time.Time{}, common.NewValidationError("purchase date must look like 2024-05-31, got %q", arg)
	}
	return d, nil
}
