// Package consensus runs quorum votes among the configured validator set to
// approve pending bridge transfers.
package consensus

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"github.com/yieldrail/bridge-orchestrator/internal/metrics"
	apperrors "github.com/yieldrail/bridge-orchestrator/pkg/app/errors"
	"github.com/yieldrail/bridge-orchestrator/pkg/config"
)

// ResultStore persists consensus results keyed by transaction id with a
// bounded TTL. An un-persisted result cannot later be retrieved for audit,
// so a failed write is a hard failure for the round.
type ResultStore interface {
	SetValidationResult(ctx context.Context, result *Result) error
	GetValidationResult(ctx context.Context, transactionID string) (*Result, error)
}

// SignerAdapter collects one validator's signature over a transaction digest.
// The production deployment wires the real validator transport here; tests
// substitute a deterministic double.
type SignerAdapter interface {
	CollectSignature(ctx context.Context, validator Validator, digest string) (Signature, bool, error)
}

// Engine coordinates quorum votes for bridge transactions
type Engine struct {
	validators []Validator
	signer     SignerAdapter
	results    ResultStore
	timeout    time.Duration
	logger     *zap.Logger
}

// NewEngine creates a consensus engine over the configured validator set
func NewEngine(cfg *config.ConsensusConfig, signer SignerAdapter, results ResultStore, timeout time.Duration, logger *zap.Logger) *Engine {
	validators := make([]Validator, 0, len(cfg.Validators))
	now := time.Now()
	for _, v := range cfg.Validators {
		validators = append(validators, Validator{
			ID:         v.ID,
			Address:    v.Address,
			Active:     v.Active,
			Reputation: v.Reputation,
			LastSeen:   now,
		})
	}
	if signer == nil {
		signer = SimulatedSigner{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Engine{
		validators: validators,
		signer:     signer,
		results:    results,
		timeout:    timeout,
		logger:     logger,
	}
}

// ActiveValidators returns the validators eligible to vote
func (e *Engine) ActiveValidators() []Validator {
	active := make([]Validator, 0, len(e.validators))
	for _, v := range e.validators {
		if v.Active {
			active = append(active, v)
		}
	}
	return active
}

// RequiredQuorum returns the signer count needed for consensus among n
// active validators: ceiling of two thirds.
func RequiredQuorum(n int) int {
	if n <= 0 {
		return 0
	}
	return (2*n + 2) / 3
}

// RequestConsensus runs one quorum round for the transaction and persists the
// outcome. Once requested, the round runs to completion or failure within the
// engine's timeout; there is no caller-facing cancellation.
//
// Returns an error only when the result cannot be persisted; an unsuccessful
// vote is reported through Result.ConsensusReached.
func (e *Engine) RequestConsensus(ctx context.Context, transactionID string, payload string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	active := e.ActiveValidators()
	required := RequiredQuorum(len(active))
	digest := transactionDigest(transactionID, payload)

	signatures := make([]Signature, 0, len(active))
	for _, v := range active {
		sig, ok, err := e.signer.CollectSignature(ctx, v, digest)
		if err != nil {
			e.logger.Warn("Validator signature collection failed",
				zap.String("transaction_id", transactionID),
				zap.String("validator_id", v.ID),
				zap.Error(err))
			continue
		}
		if ok {
			signatures = append(signatures, sig)
		}
	}

	result := &Result{
		TransactionID:      transactionID,
		ConsensusReached:   required > 0 && len(signatures) >= required,
		Signatures:         signatures,
		RequiredValidators: required,
		ActualValidators:   len(signatures),
		Timestamp:          time.Now(),
	}

	if err := e.results.SetValidationResult(ctx, result); err != nil {
		metrics.ConsensusRounds.WithLabelValues("persist_error").Inc()
		return nil, apperrors.ConsensusFailure(err, "Failed to achieve validator consensus")
	}

	outcome := "rejected"
	if result.ConsensusReached {
		outcome = "reached"
	}
	metrics.ConsensusRounds.WithLabelValues(outcome).Inc()

	e.logger.Info("Consensus round finished",
		zap.String("transaction_id", transactionID),
		zap.Bool("reached", result.ConsensusReached),
		zap.Int("required", required),
		zap.Int("actual", len(signatures)))

	return result, nil
}

// ValidationResult returns the persisted consensus result for a transaction,
// or nil when absent. Read failures are treated as "not found": validation
// results are a convenience view, not load-bearing for correctness.
func (e *Engine) ValidationResult(ctx context.Context, transactionID string) (*Result, error) {
	result, err := e.results.GetValidationResult(ctx, transactionID)
	if err != nil {
		e.logger.Debug("Validation result lookup failed, treating as missing",
			zap.String("transaction_id", transactionID),
			zap.Error(err))
		return nil, nil
	}
	return result, nil
}

func transactionDigest(transactionID, payload string) string {
	sum := sha256.Sum256([]byte(transactionID + ":" + payload))
	return hex.EncodeToString(sum[:])
}

// SimulatedSigner produces deterministic signatures for every validator asked.
// It stands in for the real validator transport in local deployments.
type SimulatedSigner struct{}

// CollectSignature returns a deterministic signature derived from the
// validator id and the transaction digest.
func (SimulatedSigner) CollectSignature(_ context.Context, validator Validator, digest string) (Signature, bool, error) {
	sum := sha256.Sum256([]byte(validator.ID + ":" + digest))
	return Signature{
		ValidatorID: validator.ID,
		Signature:   "0x" + hex.EncodeToString(sum[:]),
		Timestamp:   time.Now(),
	}, true, nil
}
