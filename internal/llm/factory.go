package llm

import (
	"fmt"
	"strings"

	"github.com/Veraticus/receipt-ledger/internal/common"
)

// NewClient creates a provider client from cfg, rate limited when
// cfg.RateLimit is set.
func NewClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s API key", common.ErrMissingConfig, cfg.Provider)
	}

	var (
		client Client
		err    error
	)

	switch strings.ToLower(cfg.Provider) {
	case "openai":
		client, err = newOpenAIClient(cfg)
	case "anthropic":
		client, err = newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %s", common.ErrInvalidConfig, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RateLimit > 0 {
		client = newRateLimitedClient(client, cfg.RateLimit)
	}
	return client, nil
}
