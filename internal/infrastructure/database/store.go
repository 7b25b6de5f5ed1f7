// Package database is the Postgres-backed domain.Store implementation, built the way
// services/shipping and services/order build their repositories: sqlx against *sqlx.DB/
// *sqlx.Tx, domain structs scanned directly via their `db:"..."` tags, sql.ErrNoRows
// translated to domain.ErrNotFound, everything else wrapped with fmt.Errorf("...: %w").
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/italoogomes/motoflash/internal/domain"
)

// Store implements domain.Store. A zero-value db field (ext only) means this Store is
// already bound to a transaction, matching the "WithinTx on a tx-bound Store runs fn
// directly" contract in internal/domain/store.go.
type Store struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
}

// New constructs a Store backed by db.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, ext: db}
}

// WithinTx runs fn against a Store bound to a single Postgres transaction, committing on
// success and rolling back on any error, including a panic recovered and re-thrown after
// rollback. Called on an already tx-bound Store, it runs fn directly: no nested
// transactions.
func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txStore := &Store{ext: tx}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %v: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// notFound translates sql.ErrNoRows to domain.ErrNotFound, wrapping any other error as
// InternalError via the caller's own fmt.Errorf.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
