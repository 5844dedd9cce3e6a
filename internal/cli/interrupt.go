package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler cancels a batch ingest on SIGINT or SIGTERM and tells the
// user what was kept.
type InterruptHandler struct {
	writer      io.Writer
	pending     func() []string
	signals     chan os.Signal
	stop        chan struct{}
	stopOnce    sync.Once
	interrupted bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a new interrupt handler.
func NewInterruptHandler(writer io.Writer) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	return &InterruptHandler{
		writer:  writer,
		signals: make(chan os.Signal, 1),
		stop:    make(chan struct{}),
	}
}

// HandleInterrupts returns a context that is canceled on interrupt. pending,
// if set, reports the URLs not yet ingested so they can be printed. Call Stop
// once the batch is done.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context, pending func() []string) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	h.pending = pending

	signal.Notify(h.signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer cancel()
		defer signal.Stop(h.signals)
		select {
		case <-h.signals:
		case <-h.stop:
			return
		case <-ctx.Done():
			return
		}
		h.mu.Lock()
		if !h.interrupted {
			h.interrupted = true
			h.showInterruptMessage()
		}
		h.mu.Unlock()
	}()

	return ctx
}

func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n\n" + FormatWarning("Ingest interrupted!")
	msg += "\n" + FormatInfo("Receipts already stored are kept.")

	if h.pending != nil {
		if remaining := h.pending(); len(remaining) > 0 {
			msg += "\n" + FormatInfo(fmt.Sprintf("%d receipt(s) not ingested:", len(remaining)))
			for _, url := range remaining {
				msg += "\n  " + url
			}
		}
	}
	msg += "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// Stop releases the signal handler and the context it returned.
func (h *InterruptHandler) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// WasInterrupted returns true if the process was interrupted.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}
