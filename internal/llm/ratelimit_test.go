package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitedClient_Spacing(t *testing.T) {
	// 1200 per minute is one request every 50ms.
	stub := &stubClient{reply: "{}"}
	client := newRateLimitedClient(stub, 1200)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Complete(ctx, "s", "p")
		require.NoError(t, err)
	}

	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.Len(t, stub.prompts, 3)
}

func TestRateLimitedClient_CancelWhileWaiting(t *testing.T) {
	stub := &stubClient{reply: "{}"}
	client := newRateLimitedClient(stub, 1)

	_, err := client.Complete(context.Background(), "s", "p")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := client.Complete(ctx, "s", "p")
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limiter canceled")
	case <-time.After(5 * time.Second):
		t.Fatal("limiter ignored cancellation")
	}
	assert.Len(t, stub.prompts, 1)
}

func TestRateLimitedClient_PassesErrorsThrough(t *testing.T) {
	boom := errors.New("provider down")
	client := newRateLimitedClient(&stubClient{err: boom}, 600)

	_, err := client.Complete(context.Background(), "s", "p")
	assert.ErrorIs(t, err, boom)
}
