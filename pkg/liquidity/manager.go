// Package liquidity manages per-(source, destination, token) liquidity pools
// under concurrent demand.
package liquidity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yieldrail/bridge-orchestrator/internal/metrics"
	"github.com/yieldrail/bridge-orchestrator/pkg/config"
)

// entry is a pool plus its concurrency guard. Balance mutation across
// different transfers on the same pool must be serialized: both sides of the
// availability-then-reserve race go through the entry mutex.
type entry struct {
	mu   sync.Mutex
	pool Pool
}

// Manager holds the pool set, seeded from static configuration at startup.
// Pools are never deleted, only deactivated.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string

	ceiling      decimal.Decimal
	retryBackoff time.Duration
	logger       *zap.Logger
}

func poolKey(sourceChain, destChain, token string) string {
	return sourceChain + "|" + destChain + "|" + token
}

// NewManager builds the pool set from configuration
func NewManager(cfg *config.LiquidityConfig, logger *zap.Logger) (*Manager, error) {
	ceiling := cfg.UtilizationCeiling
	if ceiling <= 0 {
		ceiling = 0.8
	}
	retryBackoff := cfg.RetryBackoff
	if retryBackoff <= 0 {
		retryBackoff = time.Minute
	}

	m := &Manager{
		entries:      make(map[string]*entry, len(cfg.Pools)),
		ceiling:      decimal.NewFromFloat(ceiling),
		retryBackoff: retryBackoff,
		logger:       logger,
	}

	for _, pc := range cfg.Pools {
		sourceBalance, err := decimal.NewFromString(pc.SourceBalance)
		if err != nil {
			return nil, fmt.Errorf("invalid source_balance for pool %s->%s %s: %w", pc.SourceChain, pc.DestinationChain, pc.Token, err)
		}
		destBalance, err := decimal.NewFromString(pc.DestinationBalance)
		if err != nil {
			return nil, fmt.Errorf("invalid destination_balance for pool %s->%s %s: %w", pc.SourceChain, pc.DestinationChain, pc.Token, err)
		}
		minLiquidity, err := decimal.NewFromString(pc.MinLiquidity)
		if err != nil {
			return nil, fmt.Errorf("invalid min_liquidity for pool %s->%s %s: %w", pc.SourceChain, pc.DestinationChain, pc.Token, err)
		}
		maxLiquidity, err := decimal.NewFromString(pc.MaxLiquidity)
		if err != nil {
			return nil, fmt.Errorf("invalid max_liquidity for pool %s->%s %s: %w", pc.SourceChain, pc.DestinationChain, pc.Token, err)
		}

		key := poolKey(pc.SourceChain, pc.DestinationChain, pc.Token)
		m.entries[key] = &entry{pool: Pool{
			ID:                 uuid.New().String(),
			SourceChain:        pc.SourceChain,
			DestinationChain:   pc.DestinationChain,
			Token:              pc.Token,
			SourceBalance:      sourceBalance,
			DestinationBalance: destBalance,
			Outstanding:        decimal.Zero,
			UtilizationRate:    decimal.Zero,
			RebalanceThreshold: pc.RebalanceThreshold,
			MinLiquidity:       minLiquidity,
			MaxLiquidity:       maxLiquidity,
			Active:             true,
			UpdatedAt:          time.Now(),
		}}
		m.order = append(m.order, key)
	}

	return m, nil
}

// Pools returns a full snapshot of all pools
func (m *Manager) Pools() []Pool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Pool, 0, len(m.order))
	for _, key := range m.order {
		e := m.entries[key]
		e.mu.Lock()
		out = append(out, e.pool)
		e.mu.Unlock()
	}
	return out
}

// Pool returns the active pool for the tuple, or nil when none exists
func (m *Manager) Pool(sourceChain, destChain, token string) *Pool {
	e := m.entry(sourceChain, destChain, token)
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.pool.Active {
		return nil
	}
	snapshot := e.pool
	return &snapshot
}

func (m *Manager) entry(sourceChain, destChain, token string) *entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[poolKey(sourceChain, destChain, token)]
}

// CheckAvailability answers whether the pool can currently service a transfer
// of the given amount. Availability is monotonic in the amount: anything at or
// below a servable amount is also servable against the same pool state.
func (m *Manager) CheckAvailability(sourceChain, destChain string, amount decimal.Decimal, token string) *Availability {
	e := m.entry(sourceChain, destChain, token)
	if e == nil {
		return &Availability{Reason: ReasonNoPool, SuggestedAmount: decimal.Zero}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.pool.Active {
		return &Availability{Reason: ReasonNoPool, SuggestedAmount: decimal.Zero}
	}

	servable := m.servableLocked(&e.pool)
	if amount.LessThanOrEqual(servable) {
		return &Availability{Available: true, SuggestedAmount: amount}
	}

	return &Availability{
		Reason:            ReasonInsufficient,
		SuggestedAmount:   servable,
		EstimatedWaitTime: m.retryBackoff.Milliseconds(),
	}
}

// servableLocked computes the largest amount the pool can currently service:
// bounded by the utilization ceiling and by the destination-side balance.
// Caller holds the entry lock.
func (m *Manager) servableLocked(p *Pool) decimal.Decimal {
	headroom := p.Capacity().Mul(m.ceiling).Sub(p.Outstanding)
	servable := decimal.Min(headroom, p.DestinationBalance)
	if servable.IsNegative() {
		return decimal.Zero
	}
	return servable
}

// Reserve atomically re-checks availability and commits the amount as
// outstanding. The reserve must later be settled with ApplyTransfer or undone
// with Release; this is what prevents two concurrent transfers from both
// passing an availability check and overdrawing the pool.
func (m *Manager) Reserve(sourceChain, destChain string, amount decimal.Decimal, token string) error {
	e := m.entry(sourceChain, destChain, token)
	if e == nil {
		return fmt.Errorf("%s: %s->%s %s", ReasonNoPool, sourceChain, destChain, token)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.pool.Active {
		return fmt.Errorf("%s: %s->%s %s", ReasonNoPool, sourceChain, destChain, token)
	}
	if amount.GreaterThan(m.servableLocked(&e.pool)) {
		return fmt.Errorf("%s: requested %s, servable %s", ReasonInsufficient, amount, m.servableLocked(&e.pool))
	}

	e.pool.Outstanding = e.pool.Outstanding.Add(amount)
	m.recomputeLocked(&e.pool)
	return nil
}

// Release undoes a reservation for a transfer that will not settle
func (m *Manager) Release(sourceChain, destChain string, amount decimal.Decimal, token string) {
	e := m.entry(sourceChain, destChain, token)
	if e == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.pool.Outstanding = e.pool.Outstanding.Sub(amount)
	if e.pool.Outstanding.IsNegative() {
		e.pool.Outstanding = decimal.Zero
	}
	m.recomputeLocked(&e.pool)
}

// ApplyTransfer applies a settled transfer's balance delta to both sides of
// the pool and clears the reservation. Callers must not apply the same
// settlement twice. A delta that would drive the destination balance below
// zero is rejected.
func (m *Manager) ApplyTransfer(sourceChain, destChain string, amount decimal.Decimal, token string) error {
	e := m.entry(sourceChain, destChain, token)
	if e == nil {
		return fmt.Errorf("%s: %s->%s %s", ReasonNoPool, sourceChain, destChain, token)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	newDest := e.pool.DestinationBalance.Sub(amount)
	if newDest.IsNegative() {
		return fmt.Errorf("transfer of %s would overdraw destination balance %s on pool %s", amount, e.pool.DestinationBalance, e.pool.ID)
	}

	e.pool.SourceBalance = e.pool.SourceBalance.Add(amount)
	e.pool.DestinationBalance = newDest
	e.pool.Outstanding = e.pool.Outstanding.Sub(amount)
	if e.pool.Outstanding.IsNegative() {
		e.pool.Outstanding = decimal.Zero
	}
	m.recomputeLocked(&e.pool)
	return nil
}

// recomputeLocked refreshes utilization after any balance mutation.
// Caller holds the entry lock.
func (m *Manager) recomputeLocked(p *Pool) {
	capacity := p.Capacity()
	if capacity.IsPositive() {
		p.UtilizationRate = p.Outstanding.Div(capacity)
	} else {
		p.UtilizationRate = decimal.Zero
	}
	p.UpdatedAt = time.Now()

	utilization, _ := p.UtilizationRate.Float64()
	metrics.LiquidityUtilization.WithLabelValues(p.SourceChain, p.DestinationChain, p.Token).Set(utilization)
}

// Optimize runs one rebalancing pass over all pools, equalizing the two sides
// of any pool whose utilization exceeds its rebalance threshold. It never
// returns an error: a pool that cannot be rebalanced is logged and skipped.
func (m *Manager) Optimize(ctx context.Context) error {
	m.mu.RLock()
	keys := make([]string, len(m.order))
	copy(keys, m.order)
	m.mu.RUnlock()

	for _, key := range keys {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		m.mu.RLock()
		e := m.entries[key]
		m.mu.RUnlock()
		if e == nil {
			continue
		}

		e.mu.Lock()
		p := &e.pool
		utilization, _ := p.UtilizationRate.Float64()
		if !p.Active || utilization <= p.RebalanceThreshold {
			e.mu.Unlock()
			continue
		}

		// Equalize both sides, respecting the per-side bounds.
		target := p.Capacity().Div(decimal.NewFromInt(2))
		target = decimal.Max(target, p.MinLiquidity)
		if p.MaxLiquidity.IsPositive() {
			target = decimal.Min(target, p.MaxLiquidity)
		}
		moved := target.Sub(p.DestinationBalance)
		p.SourceBalance = p.Capacity().Sub(target)
		p.DestinationBalance = target
		m.recomputeLocked(p)
		snapshot := *p
		e.mu.Unlock()

		m.logger.Info("Rebalanced liquidity pool",
			zap.String("pool_id", snapshot.ID),
			zap.String("source_chain", snapshot.SourceChain),
			zap.String("destination_chain", snapshot.DestinationChain),
			zap.String("token", snapshot.Token),
			zap.String("moved", moved.String()))
	}

	return nil
}

// Deactivate takes a pool out of rotation without deleting it
func (m *Manager) Deactivate(sourceChain, destChain, token string) bool {
	e := m.entry(sourceChain, destChain, token)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pool.Active = false
	e.pool.UpdatedAt = time.Now()
	return true
}
