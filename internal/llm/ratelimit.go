package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// rateLimitedClient spaces out requests to the wrapped client. It never retries.
type rateLimitedClient struct {
	next    Client
	limiter *rate.Limiter
}

func newRateLimitedClient(next Client, requestsPerMinute int) *rateLimitedClient {
	return &rateLimitedClient{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
	}
}

func (c *rateLimitedClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter canceled: %w", err)
	}
	return c.next.Complete(ctx, system, prompt)
}
