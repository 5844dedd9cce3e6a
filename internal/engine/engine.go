// Package engine implements the receipt pipeline: fetching and reading a
// receipt page, bundling repeated lines and assigning every item a category
// from learned patterns or an external classifier.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/receipt-ledger/internal/bundler"
	"github.com/Veraticus/receipt-ledger/internal/common"
	"github.com/Veraticus/receipt-ledger/internal/extract"
	"github.com/Veraticus/receipt-ledger/internal/ledger"
	"github.com/Veraticus/receipt-ledger/internal/llm"
	"github.com/Veraticus/receipt-ledger/internal/metrics"
	"github.com/Veraticus/receipt-ledger/internal/model"
	"github.com/Veraticus/receipt-ledger/internal/pattern"
	"github.com/Veraticus/receipt-ledger/internal/service"
)

// Ingest stages used in metrics.
const (
	StageFetch    = "fetch"
	StageExtract  = "extract"
	StageStore    = "store"
	StageClassify = "classify"
)

// Engine orchestrates ingest and categorization.
type Engine struct {
	store      service.Storage
	fetcher    Fetcher
	classifier Classifier
	metrics    *metrics.Recorder
}

// New creates an engine with the given dependencies. rec may be nil.
func New(store service.Storage, fetcher Fetcher, classifier Classifier, rec *metrics.Recorder) *Engine {
	return &Engine{
		store:      store,
		fetcher:    fetcher,
		classifier: classifier,
		metrics:    rec,
	}
}

// IngestRequest names a receipt page to import.
type IngestRequest struct {
	PurchaseDate time.Time `json:"purchase_date" validate:"required"`
	URL          string    `json:"receipt_url" validate:"required,url,max=2048"`
	Overwrite    bool      `json:"overwrite"`
}

// IngestResult describes an ingested receipt.
type IngestResult struct {
	Receipt *model.Receipt
	// Categorization is nil when classification failed.
	Categorization *CategorizeResult
	RunID          string
	Warnings       []extract.Warning
	Bundle         bundler.Stats
	// ReplacedID is the id of the receipt removed by an overwrite, or 0.
	ReplacedID int64
}

// Ingest fetches, reads, bundles, stores and categorizes one receipt.
//
// A fetch or extraction failure stores nothing. If classification fails the
// receipt stays stored without assignments and both the result and a
// *common.ClassificationError are returned.
func (e *Engine) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	result := &IngestResult{RunID: uuid.NewString()}
	logger := slog.With("run_id", result.RunID, "url", req.URL)
	logger.Info("Starting ingest", "purchase_date", req.PurchaseDate.Format(time.DateOnly), "overwrite", req.Overwrite)

	if _, err := e.checkExisting(ctx, e.store, req); err != nil {
		return nil, err
	}

	page, err := e.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		e.metrics.IngestFailed(StageFetch)
		var fetchErr *common.FetchError
		if !errors.As(err, &fetchErr) {
			err = &common.FetchError{URL: req.URL, Err: err}
		}
		logger.Error("Fetch failed", "error", err)
		return nil, err
	}

	extracted, err := extract.Extract(bytes.NewReader(page))
	if err != nil {
		e.metrics.IngestFailed(StageExtract)
		return nil, fmt.Errorf("extract %s: %w", req.URL, err)
	}
	for _, w := range extracted.Warnings {
		e.metrics.ExtractionWarning(string(w.Code))
	}
	result.Warnings = extracted.Warnings

	items := bundler.Bundle(extracted.Items)
	result.Bundle = bundler.Summarize(extracted.Items, items)
	e.metrics.ItemsMerged(result.Bundle.Merged())
	if result.Bundle.Merged() > 0 {
		logger.Info("Bundled repeated items", "before", result.Bundle.Before, "after", result.Bundle.After)
	}

	y, m, d := req.PurchaseDate.Date()
	receipt := &model.Receipt{
		URL:           req.URL,
		PurchaseDate:  time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		TotalAmount:   extracted.TotalAmount,
		TotalDiscount: extracted.TotalDiscount,
		Items:         items,
		OriginalItems: extracted.Items,
	}

	err = service.WithTx(ctx, e.store, func(tx service.Storage) error {
		existing, err := e.checkExisting(ctx, tx, req)
		if err != nil {
			return err
		}
		if existing != nil {
			if err := tx.DeleteReceipt(ctx, existing.ID); err != nil {
				return fmt.Errorf("failed to remove receipt %d: %w", existing.ID, err)
			}
			result.ReplacedID = existing.ID
		}
		return tx.CreateReceipt(ctx, receipt)
	})
	if err != nil {
		e.metrics.IngestFailed(StageStore)
		return nil, err
	}

	result.Receipt = receipt
	e.metrics.ReceiptIngested(result.ReplacedID != 0)
	logger.Info("Stored receipt",
		"receipt_id", receipt.ID,
		"items", len(receipt.Items),
		"total", receipt.TotalAmount.StringFixed(2),
		"replaced_id", result.ReplacedID)

	categorized, err := e.Categorize(ctx, receipt.ID)
	if err != nil {
		e.metrics.IngestFailed(StageClassify)
		logger.Error("Categorization failed, receipt left uncategorized", "receipt_id", receipt.ID, "error", err)
		return result, err
	}
	result.Categorization = categorized

	return result, nil
}

// checkExisting returns the receipt already stored for the request URL when
// an overwrite was requested, and a *common.DuplicateReceiptError otherwise.
func (e *Engine) checkExisting(ctx context.Context, store service.Storage, req IngestRequest) (*model.Receipt, error) {
	existing, err := store.GetReceiptByURL(ctx, req.URL)
	switch {
	case errors.Is(err, common.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	case !req.Overwrite:
		return nil, &common.DuplicateReceiptError{URL: req.URL, ExistingID: existing.ID}
	default:
		return existing, nil
	}
}

// DeleteReceipt removes a receipt with its assignments and totals.
func (e *Engine) DeleteReceipt(ctx context.Context, id int64) error {
	if err := e.store.DeleteReceipt(ctx, id); err != nil {
		return err
	}
	e.metrics.EditApplied("delete")
	slog.Info("Deleted receipt", "receipt_id", id)
	return nil
}

// CategorizeResult summarizes one categorization run.
type CategorizeResult struct {
	Totals      map[model.Category]decimal.Decimal
	Assignments []model.Assignment
	Warnings    []Warning
	// Unassigned lists live item indices that received no category.
	Unassigned     []int
	PatternMatched int
	Classified     int
	Duplicates     int
	Dropped        int
}

// proposal is a candidate assignment before first-wins merging.
type proposal struct {
	source   string
	index    int
	category model.Category
}

// Categorize replaces every assignment and total of a receipt. Items matching
// a learned pattern are assigned directly; the rest go to the classifier in a
// single request. Reruns are safe.
func (e *Engine) Categorize(ctx context.Context, receiptID int64) (*CategorizeResult, error) {
	receipt, err := e.store.GetReceipt(ctx, receiptID)
	if err != nil {
		return nil, err
	}

	matcher, err := pattern.LoadMatcher(ctx, e.store)
	if err != nil {
		return nil, err
	}

	result := &CategorizeResult{}
	var (
		proposals []proposal
		unmatched []model.RawItem
	)
	for _, item := range receipt.Items {
		if item.IsVoid() {
			continue
		}
		if p, ok := matcher.FindMatch(model.StripCounter(item.Name)); ok {
			proposals = append(proposals, proposal{index: item.Index, category: p.Category, source: metrics.SourcePattern})
			slog.Debug("Pattern match", "item", item.Name, "pattern", p.Text, "match_type", string(p.MatchKind), "category", p.Category.String())
			continue
		}
		unmatched = append(unmatched, item)
	}

	req := llm.BuildClassificationRequest(unmatched)
	if req.Len() > 0 {
		classified, err := e.classify(ctx, receipt.ID, req, result)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, classified...)
	}

	assignments := e.merge(receipt, proposals, result)

	err = service.WithTx(ctx, e.store, func(tx service.Storage) error {
		if err := tx.ReplaceAssignments(ctx, receipt.ID, assignments); err != nil {
			return err
		}
		totals, err := ledger.ReplaceTotals(ctx, tx, receipt, assignments)
		if err != nil {
			return err
		}
		result.Totals = totals
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store categorization of receipt %d: %w", receipt.ID, err)
	}
	result.Assignments = assignments

	e.metrics.ItemsCategorized(metrics.SourcePattern, result.PatternMatched)
	e.metrics.ItemsCategorized(metrics.SourceLLM, result.Classified)
	e.metrics.ItemsUnassigned(len(result.Unassigned))
	e.metrics.DuplicateAssignments(result.Duplicates)

	slog.Info("Categorized receipt",
		"receipt_id", receipt.ID,
		"pattern_matched", result.PatternMatched,
		"classified", result.Classified,
		"unassigned", len(result.Unassigned),
		"duplicates", result.Duplicates,
		"dropped", result.Dropped,
		"categories", len(result.Totals))

	return result, nil
}

// classify sends req and turns the reply into proposals. Unknown category
// names and out-of-range positions are dropped with a warning.
func (e *Engine) classify(ctx context.Context, receiptID int64, req llm.ClassificationRequest, result *CategorizeResult) ([]proposal, error) {
	start := time.Now()
	reply, err := e.classifier.Classify(ctx, req)
	e.metrics.ObserveClassification(time.Since(start))
	if err != nil {
		return nil, &common.ClassificationError{ReceiptID: receiptID, Err: err}
	}

	mapping, err := llm.ParseCategoryMapping(reply)
	if err != nil {
		return nil, &common.ClassificationError{ReceiptID: receiptID, Err: err}
	}

	names := make([]string, 0, len(mapping))
	for name := range mapping {
		names = append(names, name)
	}
	sort.Strings(names)

	var proposals []proposal
	for _, name := range names {
		positions := mapping[name]
		category, ok := model.ParseCategory(name)
		if !ok {
			result.warn(WarnUnknownCategory, "category %q is not in the vocabulary, %d item(s) left unassigned", name, len(positions))
			result.Dropped += len(positions)
			continue
		}
		for _, pos := range positions {
			idx, ok := req.Remap(pos)
			if !ok {
				result.warn(WarnPositionOutOfRange, "classifier returned item %d for %s but only %d were sent", pos, category, req.Len())
				result.Dropped++
				continue
			}
			proposals = append(proposals, proposal{index: idx, category: category, source: metrics.SourceLLM})
		}
	}
	return proposals, nil
}

// merge keeps the first proposal per item index.
func (e *Engine) merge(receipt *model.Receipt, proposals []proposal, result *CategorizeResult) []model.Assignment {
	assigned := make(map[int]model.Category, len(proposals))
	var assignments []model.Assignment

	for _, p := range proposals {
		if first, ok := assigned[p.index]; ok {
			result.Duplicates++
			result.warn(WarnDuplicateAssignment, "item %d already assigned to %s, ignoring %s", p.index, first, p.category)
			continue
		}
		item, _ := receipt.Item(p.index)
		assigned[p.index] = p.category
		assignments = append(assignments, model.Assignment{
			ReceiptID: receipt.ID,
			ItemIndex: p.index,
			ItemName:  item.Name,
			ItemPrice: item.TotalPrice,
			Category:  p.category,
		})
		if p.source == metrics.SourcePattern {
			result.PatternMatched++
		} else {
			result.Classified++
		}
	}

	for _, item := range receipt.Items {
		if !item.IsVoid() {
			if _, ok := assigned[item.Index]; !ok {
				result.Unassigned = append(result.Unassigned, item.Index)
			}
		}
	}

	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].ItemIndex < assignments[j].ItemIndex
	})
	return assignments
}
