package cache

import (
	"context"

	"github.com/yieldrail/bridge-orchestrator/pkg/db"
)

// GetTransaction reads a transaction shadow copy. Returns (nil, nil) on a
// cache miss.
func (c *Cache) GetTransaction(ctx context.Context, id string) (*db.Transaction, error) {
	var tx db.Transaction
	ok, err := c.GetJSON(ctx, TransactionKey(id), &tx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &tx, nil
}

// SetTransaction writes a transaction shadow copy with the configured TTL
func (c *Cache) SetTransaction(ctx context.Context, tx *db.Transaction) error {
	return c.SetJSON(ctx, TransactionKey(tx.ID), tx, c.transactionTTL)
}

// DeleteTransaction invalidates a transaction shadow copy
func (c *Cache) DeleteTransaction(ctx context.Context, id string) error {
	return c.Delete(ctx, TransactionKey(id))
}
