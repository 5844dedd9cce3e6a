package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// LineReader reads lines from a terminal or file while honoring context
// cancellation.
type LineReader struct {
	reader      *bufio.Reader
	readingLock sync.Mutex
}

// NewLineReader wraps reader.
func NewLineReader(reader io.Reader) *LineReader {
	return &LineReader{reader: bufio.NewReader(reader)}
}

// ReadLine returns the next line without surrounding whitespace. The final
// line of a stream may lack a newline.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		r.readingLock.Lock()
		defer r.readingLock.Unlock()

		value, err := r.reader.ReadString('\n')
		if errors.Is(err, io.EOF) && value != "" {
			err = nil
		}
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		// The read goroutine finishes on its own when input arrives.
		return "", ErrInputCancelled
	case res := <-resultCh:
		return strings.TrimSpace(res.value), res.err
	}
}

// ReadURLs collects receipt URLs, one per line. Blank lines and lines
// starting with # are skipped.
func ReadURLs(ctx context.Context, reader io.Reader) ([]string, error) {
	lr := NewLineReader(reader)
	var urls []string
	for {
		line, err := lr.ReadLine(ctx)
		if errors.Is(err, io.EOF) {
			return urls, nil
		}
		if err != nil {
			return nil, err
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
}

// Confirm asks a yes/no question and defaults to no.
func Confirm(ctx context.Context, reader io.Reader, writer io.Writer, question string) (bool, error) {
	if _, err := fmt.Fprintf(writer, "%s[y/N] ", FormatPrompt(question)); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}

	answer, err := NewLineReader(reader).ReadLine(ctx)
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	switch strings.ToLower(answer) {
	case "y", "yes", "s", "sim":
		return true, nil
	default:
		return false, nil
	}
}
