package llm

import (
	"context"
	"fmt"
	"log/slog"
)

// ItemClassifier sends classification requests through a Client.
type ItemClassifier struct {
	client Client
}

// NewItemClassifier wraps client.
func NewItemClassifier(client Client) *ItemClassifier {
	return &ItemClassifier{client: client}
}

// NewClassifier creates an ItemClassifier for the configured provider.
func NewClassifier(cfg Config) (*ItemClassifier, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewItemClassifier(client), nil
}

// Classify returns the model's raw reply for req. The call is not retried.
func (c *ItemClassifier) Classify(ctx context.Context, req ClassificationRequest) (string, error) {
	if req.Len() == 0 {
		return "{}", nil
	}

	slog.Info("Sending items to classifier", "items", req.Len(), "prompt_length", len(req.Prompt))

	reply, err := c.client.Complete(ctx, req.System, req.Prompt)
	if err != nil {
		return "", fmt.Errorf("classification request failed: %w", err)
	}

	slog.Debug("Classifier reply", "content", reply)
	return reply, nil
}
