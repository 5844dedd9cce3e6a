package engine

import (
	"context"

	"github.com/Veraticus/receipt-ledger/internal/llm"
)

// Fetcher retrieves a receipt page. A failure must not leave anything behind.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Classifier sends one batch of unmatched items to an external model and
// returns its raw reply.
type Classifier interface {
	Classify(ctx context.Context, req llm.ClassificationRequest) (string, error)
}
