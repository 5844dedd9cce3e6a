package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer provides thread-safe access to a bytes.Buffer.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (s *syncBuffer) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestNewInterruptHandler(t *testing.T) {
	tests := []struct {
		writer io.Writer
		name   string
	}{
		{
			name:   "with custom writer",
			writer: &bytes.Buffer{},
		},
		{
			name:   "with nil writer",
			writer: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewInterruptHandler(tt.writer)
			assert.NotNil(t, handler)
			assert.NotNil(t, handler.writer)
			assert.False(t, handler.WasInterrupted())
		})
	}
}

func TestHandleInterrupts_Signal(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output)

	ctx := handler.HandleInterrupts(context.Background(), func() []string {
		return []string{"https://example.com/nfce/2", "https://example.com/nfce/3"}
	})

	select {
	case <-ctx.Done():
		t.Fatal("context should not be canceled initially")
	default:
	}

	handler.signals <- os.Interrupt
	handler.signals <- os.Interrupt

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not canceled after interrupt")
	}

	assert.Eventually(t, handler.WasInterrupted, time.Second, 10*time.Millisecond)
	out := output.String()
	assert.Equal(t, 1, strings.Count(out, "Ingest interrupted!"), "message is shown once")
	assert.Contains(t, out, "2 receipt(s) not ingested")
	assert.Contains(t, out, "https://example.com/nfce/3")
}

func TestHandleInterrupts_Stop(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output)

	ctx := handler.HandleInterrupts(context.Background(), nil)
	handler.Stop()
	handler.Stop()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not released by Stop")
	}
	assert.False(t, handler.WasInterrupted())
	assert.Empty(t, output.String())
}

func TestHandleInterrupts_ParentCanceled(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output)

	parent, cancel := context.WithCancel(context.Background())
	ctx := handler.HandleInterrupts(parent, nil)
	cancel()

	<-ctx.Done()
	time.Sleep(20 * time.Millisecond)
	assert.False(t, handler.WasInterrupted(), "a canceled parent is not an interrupt")
	assert.Empty(t, output.String())
}

func TestShowInterruptMessage(t *testing.T) {
	tests := []struct {
		pending     func() []string
		name        string
		expected    []string
		notExpected []string
	}{
		{
			name:        "nothing pending",
			expected:    []string{"Ingest interrupted!", "Receipts already stored are kept."},
			notExpected: []string{"not ingested"},
		},
		{
			name:     "urls pending",
			pending:  func() []string { return []string{"https://example.com/a"} },
			expected: []string{"1 receipt(s) not ingested", "https://example.com/a"},
		},
		{
			name:        "empty pending list",
			pending:     func() []string { return nil },
			notExpected: []string{"not ingested"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer
			handler := &InterruptHandler{writer: &output, pending: tt.pending}

			handler.showInterruptMessage()

			out := output.String()
			for _, want := range tt.expected {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.notExpected {
				assert.NotContains(t, out, unwanted)
			}
		})
	}
}

func TestHandleInterrupts_NoLeakAfterStop(t *testing.T) {
	handler := NewInterruptHandler(&syncBuffer{})
	ctx := handler.HandleInterrupts(context.Background(), nil)
	handler.Stop()
	<-ctx.Done()
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}
