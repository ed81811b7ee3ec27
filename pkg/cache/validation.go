package cache

import (
	"context"

	"github.com/yieldrail/bridge-orchestrator/pkg/consensus"
)

// SetValidationResult persists a consensus result with the configured TTL
func (c *Cache) SetValidationResult(ctx context.Context, result *consensus.Result) error {
	return c.SetJSON(ctx, ValidationKey(result.TransactionID), result, c.validationTTL)
}

// GetValidationResult reads a consensus result. Returns (nil, nil) on a miss.
func (c *Cache) GetValidationResult(ctx context.Context, transactionID string) (*consensus.Result, error) {
	var result consensus.Result
	ok, err := c.GetJSON(ctx, ValidationKey(transactionID), &result)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &result, nil
}
