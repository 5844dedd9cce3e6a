package service

import (
	"context"
	"fmt"
)

// WithTx runs fn inside a transaction on store. The transaction is committed
// when fn succeeds and rolled back otherwise.
func WithTx(ctx context.Context, store Storage, fn func(tx Storage) error) error {
	tx, err := store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
