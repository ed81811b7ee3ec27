package bridge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/yieldrail/bridge-orchestrator/pkg/db"
)

// ChainAdapter performs the on-chain legs of a settled transfer: locking
// funds on the source chain and releasing them on the destination. Real
// protocol clients plug in here; tests substitute a deterministic double.
type ChainAdapter interface {
	SubmitSourceLock(ctx context.Context, tx *db.Transaction) (txHash string, err error)
	SubmitDestinationRelease(ctx context.Context, tx *db.Transaction) (txHash string, externalID string, err error)
}

// SimulatedAdapter derives deterministic transaction hashes without touching
// any chain. It stands in for the protocol clients in local deployments.
type SimulatedAdapter struct{}

func (SimulatedAdapter) SubmitSourceLock(_ context.Context, tx *db.Transaction) (string, error) {
	return simulatedHash(tx.ID, tx.SourceChain), nil
}

func (SimulatedAdapter) SubmitDestinationRelease(_ context.Context, tx *db.Transaction) (string, string, error) {
	return simulatedHash(tx.ID, tx.DestinationChain), "sim-" + tx.ID, nil
}

func simulatedHash(id, chain string) string {
	sum := sha256.Sum256([]byte(id + ":" + chain))
	return "0x" + hex.EncodeToString(sum[:])
}
