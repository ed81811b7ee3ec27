package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

var terminalStatuses = []string{string(StatusCompleted), string(StatusFailed)}

// Store provides database operations for bridge transactions
type Store struct {
	db *bun.DB
}

// NewStore creates a new transaction store on an established connection
func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the bridge_transactions table if it does not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*TransactionDao)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create bridge_transactions table: %w", err)
	}
	return nil
}

// Create inserts a new transaction record
func (s *Store) Create(ctx context.Context, tx *Transaction) error {
	_, err := s.db.NewInsert().
		Model(toDao(tx)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// Get retrieves a transaction by id. Returns (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, id string) (*Transaction, error) {
	dao := new(TransactionDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return toTransaction(dao)
}

// Update persists the full transaction record
func (s *Store) Update(ctx context.Context, tx *Transaction) error {
	_, err := s.db.NewUpdate().
		Model(toDao(tx)).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

// UpdateStatus writes status and updated_at for a transaction
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status, updatedAt time.Time) error {
	_, err := s.db.NewUpdate().
		Model((*TransactionDao)(nil)).
		Set("status = ?", string(status)).
		Set("updated_at = ?", updatedAt).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	return nil
}

// ListNonTerminal retrieves all transactions not yet in a terminal state
func (s *Store) ListNonTerminal(ctx context.Context) ([]*Transaction, error) {
	var daos []TransactionDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("status NOT IN (?)", bun.In(terminalStatuses)).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list non-terminal transactions: %w", err)
	}
	return toTransactions(daos)
}

// ListCreatedSince retrieves transactions created at or after the given time
func (s *Store) ListCreatedSince(ctx context.Context, since time.Time) ([]*Transaction, error) {
	var daos []TransactionDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("created_at >= ?", since).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions since %s: %w", since, err)
	}
	return toTransactions(daos)
}

// ListBySender retrieves transactions initiated by the given sender address
func (s *Store) ListBySender(ctx context.Context, sender string, limit int) ([]*Transaction, error) {
	var daos []TransactionDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("sender_address = ?", sender).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for sender %s: %w", sender, err)
	}
	return toTransactions(daos)
}

func toTransactions(daos []TransactionDao) ([]*Transaction, error) {
	out := make([]*Transaction, len(daos))
	for i := range daos {
		tx, err := toTransaction(&daos[i])
		if err != nil {
			return nil, err
		}
		out[i] = tx
	}
	return out, nil
}
