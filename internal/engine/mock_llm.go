package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/Veraticus/receipt-ledger/internal/common"
	"github.com/Veraticus/receipt-ledger/internal/llm"
	"github.com/Veraticus/receipt-ledger/internal/model"
)

// MockClassifier is a test implementation of the Classifier interface.
// By default it assigns categories from keywords in item names and wraps
// the reply in a markdown code fence, the way real models often do.
type MockClassifier struct {
	// Reply, when set, is returned verbatim instead of the keyword mapping.
	Reply string
	Err   error
	calls []llm.ClassificationRequest
	mu    sync.Mutex
}

// NewMockClassifier creates a new mock classifier.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{
		calls: make([]llm.ClassificationRequest, 0),
	}
}

// Classify records req and returns the configured or keyword-based reply.
func (m *MockClassifier) Classify(_ context.Context, req llm.ClassificationRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req)

	if m.Err != nil {
		return "", m.Err
	}
	if m.Reply != "" {
		return m.Reply, nil
	}

	mapping := make(map[string][]int)
	for pos, item := range req.Items {
		category := keywordCategory(item.Name)
		mapping[category.String()] = append(mapping[category.String()], pos)
	}

	data, err := json.Marshal(mapping)
	if err != nil {
		return "", err
	}
	return "```json\n" + string(data) + "\n```", nil
}

// Calls returns the requests seen so far.
func (m *MockClassifier) Calls() []llm.ClassificationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.ClassificationRequest(nil), m.calls...)
}

func keywordCategory(name string) model.Category {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "frango") || strings.Contains(lower, "carne") || strings.Contains(lower, "ovos"):
		return model.CategoryProteins
	case strings.Contains(lower, "arroz") || strings.Contains(lower, "feijao") || strings.Contains(lower, "macarrao") || strings.Contains(lower, "pao"):
		return model.CategoryGrainsPasta
	case strings.Contains(lower, "banana") || strings.Contains(lower, "tomate") || strings.Contains(lower, "alface"):
		return model.CategoryFruitsVegetables
	case strings.Contains(lower, "leite") || strings.Contains(lower, "queijo") || strings.Contains(lower, "iogurte"):
		return model.CategoryDairy
	case strings.Contains(lower, "coca") || strings.Contains(lower, "suco") || strings.Contains(lower, "agua") || strings.Contains(lower, "cerveja"):
		return model.CategoryBeverages
	case strings.Contains(lower, "sabao") || strings.Contains(lower, "detergente") || strings.Contains(lower, "shampoo"):
		return model.CategoryHygieneCleaning
	case strings.Contains(lower, "pizza") || strings.Contains(lower, "biscoito") || strings.Contains(lower, "chocolate"):
		return model.CategoryFrozenProcessed
	default:
		return model.CategoryFallback
	}
}

// MockFetcher serves receipt pages from memory. Unknown URLs fail with a 404
// *common.FetchError.
type MockFetcher struct {
	Pages map[string]string
	Err   error
	calls []string
	mu    sync.Mutex
}

// NewMockFetcher creates a fetcher serving pages keyed by URL.
func NewMockFetcher(pages map[string]string) *MockFetcher {
	if pages == nil {
		pages = make(map[string]string)
	}
	return &MockFetcher{Pages: pages}
}

// Fetch returns the page stored for url.
func (m *MockFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, url)

	if m.Err != nil {
		return nil, m.Err
	}
	page, ok := m.Pages[url]
	if !ok {
		return nil, &common.FetchError{URL: url, StatusCode: 404, Err: fmt.Errorf("no page for %s", url)}
	}
	return []byte(page), nil
}

// Calls returns the URLs fetched so far.
func (m *MockFetcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
