// Package bridge implements the bridge transaction state machine: it creates,
// validates, and advances transactions through their lifecycle, delegating to
// the liquidity manager and consensus engine.
package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yieldrail/bridge-orchestrator/internal/metrics"
	apperrors "github.com/yieldrail/bridge-orchestrator/pkg/app/errors"
	"github.com/yieldrail/bridge-orchestrator/pkg/chains"
	"github.com/yieldrail/bridge-orchestrator/pkg/config"
	"github.com/yieldrail/bridge-orchestrator/pkg/consensus"
	"github.com/yieldrail/bridge-orchestrator/pkg/db"
	"github.com/yieldrail/bridge-orchestrator/pkg/liquidity"
	"github.com/yieldrail/bridge-orchestrator/pkg/notify"
	"github.com/yieldrail/bridge-orchestrator/pkg/subscriptions"
)

// TransactionStore defines the durable store operations the service needs
type TransactionStore interface {
	Create(ctx context.Context, tx *db.Transaction) error
	Get(ctx context.Context, id string) (*db.Transaction, error)
	Update(ctx context.Context, tx *db.Transaction) error
	UpdateStatus(ctx context.Context, id string, status db.Status, updatedAt time.Time) error
	ListNonTerminal(ctx context.Context) ([]*db.Transaction, error)
	ListCreatedSince(ctx context.Context, since time.Time) ([]*db.Transaction, error)
	ListBySender(ctx context.Context, sender string, limit int) ([]*db.Transaction, error)
}

// TransactionCache defines the shadow-copy cache operations. All of these are
// advisory: callers degrade to the store on any error.
type TransactionCache interface {
	GetTransaction(ctx context.Context, id string) (*db.Transaction, error)
	SetTransaction(ctx context.Context, tx *db.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
}

// ConsensusService runs quorum rounds and serves persisted results
type ConsensusService interface {
	RequestConsensus(ctx context.Context, transactionID string, payload string) (*consensus.Result, error)
	ValidationResult(ctx context.Context, transactionID string) (*consensus.Result, error)
}

// LiquidityService manages pool reservations and settlement deltas
type LiquidityService interface {
	CheckAvailability(sourceChain, destChain string, amount decimal.Decimal, token string) *liquidity.Availability
	Reserve(sourceChain, destChain string, amount decimal.Decimal, token string) error
	Release(sourceChain, destChain string, amount decimal.Decimal, token string)
	ApplyTransfer(sourceChain, destChain string, amount decimal.Decimal, token string) error
}

// UpdateTracker receives status-change entries for the subscription log
type UpdateTracker interface {
	Record(transactionID string, update subscriptions.Update)
}

// SettlementRecorder receives terminal outcomes for running counters
type SettlementRecorder interface {
	RecordSettlement(status db.Status, processingTime time.Duration, volume, fee decimal.Decimal)
}

// Service is the bridge transaction state machine
type Service struct {
	cfg       config.BridgeConfig
	registry  *chains.Registry
	store     TransactionStore
	cache     TransactionCache
	consensus ConsensusService
	liquidity LiquidityService
	adapter   ChainAdapter
	tracker   UpdateTracker
	notifier  notify.Notifier
	recorder  SettlementRecorder
	logger    *zap.Logger

	locksMu sync.Mutex
	locks   map[string]*txLock

	wg sync.WaitGroup
}

// NewService wires the state machine to its collaborators. recorder may be
// nil when no monitoring is attached.
func NewService(
	cfg config.BridgeConfig,
	registry *chains.Registry,
	store TransactionStore,
	cache TransactionCache,
	consensusSvc ConsensusService,
	liquiditySvc LiquidityService,
	adapter ChainAdapter,
	tracker UpdateTracker,
	notifier notify.Notifier,
	recorder SettlementRecorder,
	logger *zap.Logger,
) *Service {
	if adapter == nil {
		adapter = SimulatedAdapter{}
	}
	return &Service{
		cfg:       cfg,
		registry:  registry,
		store:     store,
		cache:     cache,
		consensus: consensusSvc,
		liquidity: liquiditySvc,
		adapter:   adapter,
		tracker:   tracker,
		notifier:  notifier,
		recorder:  recorder,
		logger:    logger,
		locks:     make(map[string]*txLock),
	}
}

// Close waits for in-flight asynchronous processing to finish
func (s *Service) Close() {
	s.wg.Wait()
}

// txLock is a refcounted per-transaction mutex. The map entry is dropped when
// the last holder releases it, so the lock table does not grow with the
// transaction history.
type txLock struct {
	mu   sync.Mutex
	refs int
}

// acquireLock serializes operations on a single transaction id
func (s *Service) acquireLock(id string) *txLock {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &txLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return l
}

func (s *Service) releaseLock(id string, l *txLock) {
	l.mu.Unlock()

	s.locksMu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, id)
	}
	s.locksMu.Unlock()
}

// loadForUpdate reads the authoritative record from the store. Transition
// decisions never trust the cache shadow, which can lag behind the store
// when a best-effort cache refresh was swallowed.
func (s *Service) loadForUpdate(ctx context.Context, id string) (*db.Transaction, error) {
	tx, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, apperrors.DependencyError(err, "failed to load transaction")
	}
	return tx, nil
}

// InitiateBridge validates the request, reserves liquidity, persists a new
// INITIATED record, and kicks off asynchronous processing. Any validation
// failure surfaces before a single write happens.
func (s *Service) InitiateBridge(ctx context.Context, req *InitiateRequest) (*db.Transaction, error) {
	src, ok := s.registry.Get(req.SourceChain)
	if !ok {
		return nil, apperrors.ValidationError(nil, "unsupported source chain: "+req.SourceChain)
	}
	dst, ok := s.registry.Get(req.DestinationChain)
	if !ok {
		return nil, apperrors.ValidationError(nil, "unsupported destination chain: "+req.DestinationChain)
	}
	if src.ID == dst.ID {
		return nil, apperrors.ValidationError(nil, "source and destination chains must differ")
	}
	if !req.Amount.IsPositive() {
		return nil, apperrors.ValidationError(nil, "amount must be positive")
	}
	if !common.IsHexAddress(req.SenderAddress) {
		return nil, apperrors.ValidationError(nil, "malformed sender address")
	}
	if !common.IsHexAddress(req.RecipientAddress) {
		return nil, apperrors.ValidationError(nil, "malformed recipient address")
	}

	availability := s.liquidity.CheckAvailability(src.ID, dst.ID, req.Amount, req.Token)
	if !availability.Available {
		return nil, apperrors.ValidationError(nil, availability.Reason)
	}

	fee := s.CalculateBridgeFee(src.ID, dst.ID, req.Amount)
	transit := s.EstimateBridgeTime(src.ID, dst.ID)
	now := time.Now()

	tx := &db.Transaction{
		ID:                uuid.New().String(),
		PaymentID:         req.PaymentID,
		SourceChain:       src.ID,
		DestinationChain:  dst.ID,
		Token:             req.Token,
		SourceAmount:      req.Amount,
		DestinationAmount: req.Amount.Sub(fee),
		BridgeFee:         fee,
		EstimatedYield:    s.CalculateTransitYield(req.Amount, transit),
		SenderAddress:     req.SenderAddress,
		RecipientAddress:  req.RecipientAddress,
		Status:            db.StatusInitiated,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	// Reserve before the insert so two concurrent initiations cannot both
	// pass the availability check and overdraw the pool.
	if err := s.liquidity.Reserve(src.ID, dst.ID, req.Amount, req.Token); err != nil {
		return nil, apperrors.ValidationError(err, err.Error())
	}

	if err := s.store.Create(ctx, tx); err != nil {
		s.liquidity.Release(src.ID, dst.ID, req.Amount, req.Token)
		return nil, apperrors.DependencyError(err, "Bridge initiation failed")
	}

	s.cacheSet(ctx, tx)
	s.tracker.Record(tx.ID, subscriptions.Update{
		Type:      subscriptions.UpdateStatusChange,
		NewStatus: string(db.StatusInitiated),
	})

	s.logger.Info("Bridge transaction initiated",
		zap.String("transaction_id", tx.ID),
		zap.String("source_chain", tx.SourceChain),
		zap.String("destination_chain", tx.DestinationChain),
		zap.String("amount", tx.SourceAmount.String()),
		zap.String("fee", tx.BridgeFee.String()))

	s.processAsync(tx.ID)

	return tx, nil
}

// processAsync drives a transaction through consensus and settlement on a
// detached context; the caller's request finishes before processing does.
func (s *Service) processAsync(id string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.ProcessBridgeTransaction(context.Background(), id); err != nil {
			s.logger.Error("Bridge processing failed",
				zap.String("transaction_id", id),
				zap.Error(err))
			metrics.ErrorsTotal.WithLabelValues("bridge", "processing").Inc()
		}
	}()
}

// ProcessBridgeTransaction advances a transaction through consensus and the
// chain-interaction states to COMPLETED or FAILED. A consensus rejection
// durably transitions the record to FAILED before the error is returned.
func (s *Service) ProcessBridgeTransaction(ctx context.Context, id string) error {
	lock := s.acquireLock(id)
	defer s.releaseLock(id, lock)

	tx, err := s.loadForUpdate(ctx, id)
	if err != nil {
		return err
	}
	if tx == nil {
		return apperrors.NotFoundError(nil, "Transaction not found")
	}
	if tx.Status.IsTerminal() {
		return apperrors.ConflictError(nil, "transaction already in terminal state")
	}

	started := tx.CreatedAt

	if err := s.setStatus(ctx, tx, db.StatusBridgePending); err != nil {
		return err
	}

	payload := fmt.Sprintf("%s:%s:%s:%s:%s", tx.ID, tx.SourceChain, tx.DestinationChain, tx.Token, tx.SourceAmount)
	result, err := s.consensus.RequestConsensus(ctx, tx.ID, payload)
	if err != nil {
		// Persistence of the consensus result failed; the transaction stays
		// in BRIDGE_PENDING for a later retry or the staleness sweep.
		return err
	}

	if !result.ConsensusReached {
		s.failTransaction(ctx, tx, started)
		return apperrors.ConsensusFailure(nil, "Validator consensus not reached")
	}

	sourceHash, err := s.adapter.SubmitSourceLock(ctx, tx)
	if err != nil {
		s.failTransaction(ctx, tx, started)
		return apperrors.DependencyError(err, "source chain interaction failed")
	}
	destHash, externalID, err := s.adapter.SubmitDestinationRelease(ctx, tx)
	if err != nil {
		s.failTransaction(ctx, tx, started)
		return apperrors.DependencyError(err, "destination chain interaction failed")
	}

	elapsed := time.Since(started)
	actualYield := s.CalculateTransitYield(tx.SourceAmount, elapsed)

	tx.SourceTxHash = &sourceHash
	tx.DestinationTxHash = &destHash
	tx.ExternalBridgeID = &externalID
	tx.ActualYield = &actualYield
	tx.Status = db.StatusCompleted
	tx.UpdatedAt = time.Now()

	if err := s.store.Update(ctx, tx); err != nil {
		return apperrors.DependencyError(err, "failed to persist completed transaction")
	}
	s.cacheSet(ctx, tx)
	s.tracker.Record(tx.ID, subscriptions.Update{
		Type:      subscriptions.UpdateStatusChange,
		NewStatus: string(db.StatusCompleted),
	})

	if err := s.liquidity.ApplyTransfer(tx.SourceChain, tx.DestinationChain, tx.SourceAmount, tx.Token); err != nil {
		// Settlement succeeded on chain; a pool bookkeeping failure is an
		// operator problem, not a caller one.
		s.logger.Error("Liquidity settlement failed",
			zap.String("transaction_id", tx.ID),
			zap.Error(err))
		metrics.ErrorsTotal.WithLabelValues("liquidity", "settlement").Inc()
	}

	s.recordSettlement(db.StatusCompleted, elapsed, tx)
	s.notifyAsync(tx.ID, true)

	s.logger.Info("Bridge transaction completed",
		zap.String("transaction_id", tx.ID),
		zap.Duration("elapsed", elapsed))

	return nil
}

// failTransaction durably transitions to FAILED and releases the reservation.
// Called with the per-transaction lock held.
func (s *Service) failTransaction(ctx context.Context, tx *db.Transaction, started time.Time) {
	if err := s.setStatus(ctx, tx, db.StatusFailed); err != nil {
		s.logger.Error("Failed to persist FAILED status",
			zap.String("transaction_id", tx.ID),
			zap.Error(err))
	}
	s.liquidity.Release(tx.SourceChain, tx.DestinationChain, tx.SourceAmount, tx.Token)
	s.recordSettlement(db.StatusFailed, time.Since(started), tx)
	s.notifyAsync(tx.ID, false)
}

// setStatus writes status and updated_at to the store (authoritative), then
// refreshes the cache and update log best-effort.
func (s *Service) setStatus(ctx context.Context, tx *db.Transaction, status db.Status) error {
	now := time.Now()
	if err := s.store.UpdateStatus(ctx, tx.ID, status, now); err != nil {
		return apperrors.DependencyError(err, "failed to update transaction status")
	}
	tx.Status = status
	tx.UpdatedAt = now

	s.cacheSet(ctx, tx)
	s.tracker.Record(tx.ID, subscriptions.Update{
		Type:      subscriptions.UpdateStatusChange,
		NewStatus: string(status),
	})
	return nil
}

// UpdateTransactionStatus writes status + updatedAt to the store. The store
// write is authoritative; cache refresh failures never fail the call.
func (s *Service) UpdateTransactionStatus(ctx context.Context, id string, status db.Status) error {
	lock := s.acquireLock(id)
	defer s.releaseLock(id, lock)

	tx, err := s.loadForUpdate(ctx, id)
	if err != nil {
		return err
	}
	if tx == nil {
		return apperrors.NotFoundError(nil, "Transaction not found")
	}
	return s.setStatus(ctx, tx, status)
}

// GetBridgeTransaction is a cache-first read-through: serve from cache when
// present, fall back to the store on a miss or any cache error, and refresh
// the cache after a successful store read. Returns (nil, nil) when the
// transaction exists in neither.
func (s *Service) GetBridgeTransaction(ctx context.Context, id string) (*db.Transaction, error) {
	cached, err := s.cache.GetTransaction(ctx, id)
	if err != nil {
		s.logger.Warn("Cache read failed, falling back to store",
			zap.String("transaction_id", id),
			zap.Error(err))
		metrics.ErrorsTotal.WithLabelValues("cache", "read").Inc()
	} else if cached != nil {
		return cached, nil
	}

	tx, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, apperrors.DependencyError(err, "failed to load transaction")
	}
	if tx == nil {
		return nil, nil
	}

	s.cacheSet(ctx, tx)
	return tx, nil
}

// CancelBridgeTransaction cancels a transaction still in its cancelable
// window. Returns false, without error, when the transaction is absent or
// already past that window.
func (s *Service) CancelBridgeTransaction(ctx context.Context, id string) (bool, error) {
	lock := s.acquireLock(id)
	defer s.releaseLock(id, lock)

	tx, err := s.loadForUpdate(ctx, id)
	if err != nil {
		return false, err
	}
	if tx == nil || tx.Status != db.StatusInitiated {
		return false, nil
	}

	if err := s.setStatus(ctx, tx, db.StatusFailed); err != nil {
		return false, err
	}
	s.liquidity.Release(tx.SourceChain, tx.DestinationChain, tx.SourceAmount, tx.Token)
	s.recordSettlement(db.StatusFailed, time.Since(tx.CreatedAt), tx)
	s.notifyAsync(tx.ID, false)

	s.logger.Info("Bridge transaction canceled", zap.String("transaction_id", id))
	return true, nil
}

// RetryBridgeTransaction re-queues a FAILED transaction. Returns false for
// any other status or a missing transaction, without mutating state.
func (s *Service) RetryBridgeTransaction(ctx context.Context, id string) (bool, error) {
	lock := s.acquireLock(id)

	tx, err := s.loadForUpdate(ctx, id)
	if err != nil {
		s.releaseLock(id, lock)
		return false, err
	}
	if tx == nil || tx.Status != db.StatusFailed {
		s.releaseLock(id, lock)
		return false, nil
	}

	// The reservation was released when the transaction failed.
	if err := s.liquidity.Reserve(tx.SourceChain, tx.DestinationChain, tx.SourceAmount, tx.Token); err != nil {
		s.releaseLock(id, lock)
		return false, apperrors.ValidationError(err, err.Error())
	}

	if err := s.setStatus(ctx, tx, db.StatusInitiated); err != nil {
		s.liquidity.Release(tx.SourceChain, tx.DestinationChain, tx.SourceAmount, tx.Token)
		s.releaseLock(id, lock)
		return false, err
	}
	s.releaseLock(id, lock)

	s.processAsync(id)

	s.logger.Info("Bridge transaction re-queued", zap.String("transaction_id", id))
	return true, nil
}

// HistoryProvider serves the update log for the composed status view
type HistoryProvider interface {
	History(transactionID string) *subscriptions.History
}

// GetBridgeStatus composes the transaction, its consensus result, and its
// update history into one view. Returns (nil, nil) when the transaction does
// not exist.
func (s *Service) GetBridgeStatus(ctx context.Context, id string, history HistoryProvider) (*StatusView, error) {
	tx, err := s.GetBridgeTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, nil
	}

	validation, _ := s.consensus.ValidationResult(ctx, id)

	var updates []subscriptions.Update
	if h := history.History(id); h != nil {
		updates = h.Updates
	}

	return &StatusView{
		Transaction:         tx,
		Validation:          validation,
		Updates:             updates,
		CanCancel:           tx.Status == db.StatusInitiated,
		CanRetry:            tx.Status == db.StatusFailed,
		EstimatedCompletion: tx.CreatedAt.Add(s.EstimateBridgeTime(tx.SourceChain, tx.DestinationChain)),
	}, nil
}

// SynchronizeChainState force-fails transactions stuck in a non-terminal
// state past the staleness threshold and invalidates their cache entries.
// Finding nothing stale is not an error.
func (s *Service) SynchronizeChainState(ctx context.Context) error {
	stuck, err := s.store.ListNonTerminal(ctx)
	if err != nil {
		return apperrors.DependencyError(err, "failed to list non-terminal transactions")
	}

	threshold := s.cfg.StalenessThreshold
	swept := 0
	for _, tx := range stuck {
		if time.Since(tx.CreatedAt) <= threshold {
			continue
		}

		lock := s.acquireLock(tx.ID)
		current, err := s.store.Get(ctx, tx.ID)
		if err != nil || current == nil || current.Status.IsTerminal() {
			s.releaseLock(tx.ID, lock)
			continue
		}

		if err := s.store.UpdateStatus(ctx, tx.ID, db.StatusFailed, time.Now()); err != nil {
			s.logger.Error("Failed to force-fail stale transaction",
				zap.String("transaction_id", tx.ID),
				zap.Error(err))
			s.releaseLock(tx.ID, lock)
			continue
		}
		if err := s.cache.DeleteTransaction(ctx, tx.ID); err != nil {
			s.logger.Warn("Failed to invalidate cache for stale transaction",
				zap.String("transaction_id", tx.ID),
				zap.Error(err))
		}
		s.liquidity.Release(current.SourceChain, current.DestinationChain, current.SourceAmount, current.Token)
		s.tracker.Record(tx.ID, subscriptions.Update{
			Type:      subscriptions.UpdateStatusChange,
			NewStatus: string(db.StatusFailed),
		})
		s.releaseLock(tx.ID, lock)

		s.recordSettlement(db.StatusFailed, time.Since(current.CreatedAt), current)
		s.notifyAsync(tx.ID, false)
		metrics.StaleTransactionsSwept.Inc()
		swept++

		s.logger.Warn("Force-failed stale transaction",
			zap.String("transaction_id", tx.ID),
			zap.Time("created_at", tx.CreatedAt))
	}

	if swept > 0 {
		s.logger.Info("Synchronization sweep finished", zap.Int("swept", swept))
	}
	return nil
}

// GetBridgeAnalytics aggregates transactions over a symbolic time range
// (day, week, month).
func (s *Service) GetBridgeAnalytics(ctx context.Context, timeRange string) (*Analytics, error) {
	var window time.Duration
	switch timeRange {
	case "day":
		window = 24 * time.Hour
	case "week":
		window = 7 * 24 * time.Hour
	case "month":
		window = 30 * 24 * time.Hour
	default:
		return nil, apperrors.ValidationError(nil, "invalid time range: "+timeRange)
	}

	txs, err := s.store.ListCreatedSince(ctx, time.Now().Add(-window))
	if err != nil {
		return nil, apperrors.DependencyError(err, "failed to load transactions for analytics")
	}

	analytics := &Analytics{
		TimeRange:   timeRange,
		TotalVolume: decimal.Zero,
		TotalFees:   decimal.Zero,
	}
	for _, tx := range txs {
		analytics.TotalTransactions++
		switch tx.Status {
		case db.StatusCompleted:
			analytics.SuccessfulTransactions++
		case db.StatusFailed:
			analytics.FailedTransactions++
		}
		analytics.TotalVolume = analytics.TotalVolume.Add(tx.SourceAmount)
		analytics.TotalFees = analytics.TotalFees.Add(tx.BridgeFee)
	}
	if analytics.TotalTransactions > 0 {
		analytics.SuccessRate = float64(analytics.SuccessfulTransactions) / float64(analytics.TotalTransactions)
	}

	return analytics, nil
}

// ListBySender returns recent transactions initiated by the given address
func (s *Service) ListBySender(ctx context.Context, sender string, limit int) ([]*db.Transaction, error) {
	if !common.IsHexAddress(sender) {
		return nil, apperrors.ValidationError(nil, "malformed sender address")
	}
	if limit <= 0 {
		limit = 100
	}
	txs, err := s.store.ListBySender(ctx, sender, limit)
	if err != nil {
		return nil, apperrors.DependencyError(err, "failed to list transactions")
	}
	return txs, nil
}

// cacheSet refreshes the shadow copy best-effort
func (s *Service) cacheSet(ctx context.Context, tx *db.Transaction) {
	if err := s.cache.SetTransaction(ctx, tx); err != nil {
		s.logger.Warn("Cache write failed",
			zap.String("transaction_id", tx.ID),
			zap.Error(err))
		metrics.ErrorsTotal.WithLabelValues("cache", "write").Inc()
	}
}

// notifyAsync tells the notification collaborator about a terminal outcome
// without blocking the state machine
func (s *Service) notifyAsync(id string, success bool) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if success {
			s.notifier.NotifySuccess(context.Background(), id)
		} else {
			s.notifier.NotifyFailure(context.Background(), id)
		}
	}()
}

func (s *Service) recordSettlement(status db.Status, elapsed time.Duration, tx *db.Transaction) {
	metrics.TransactionsTotal.WithLabelValues(string(status)).Inc()
	result := "failure"
	if status == db.StatusCompleted {
		result = "success"
	}
	metrics.ProcessingDuration.WithLabelValues(result).Observe(elapsed.Seconds())
	amount, _ := tx.SourceAmount.Float64()
	metrics.TransactionAmount.WithLabelValues(tx.Token).Observe(amount)

	if s.recorder != nil {
		s.recorder.RecordSettlement(status, elapsed, tx.SourceAmount, tx.BridgeFee)
	}
}
