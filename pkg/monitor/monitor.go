// Package monitor keeps running health counters and drives the periodic
// background sweep that force-fails stale transactions and rebalances
// liquidity pools.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yieldrail/bridge-orchestrator/internal/metrics"
	"github.com/yieldrail/bridge-orchestrator/pkg/config"
	"github.com/yieldrail/bridge-orchestrator/pkg/db"
	"github.com/yieldrail/bridge-orchestrator/pkg/liquidity"
)

// Synchronizer reconciles transaction state against the staleness threshold
type Synchronizer interface {
	SynchronizeChainState(ctx context.Context) error
}

// Optimizer rebalances liquidity pools
type Optimizer interface {
	Optimize(ctx context.Context) error
}

// PoolSource serves the current liquidity pool snapshot
type PoolSource interface {
	Pools() []liquidity.Pool
}

// Metrics is a point-in-time snapshot of the running counters
type Metrics struct {
	TotalTransactions      int64           `json:"totalTransactions"`
	SuccessfulTransactions int64           `json:"successfulTransactions"`
	FailedTransactions     int64           `json:"failedTransactions"`
	TotalVolume            decimal.Decimal `json:"totalVolume"`
	TotalFees              decimal.Decimal `json:"totalFees"`
	AverageProcessingTime  time.Duration   `json:"averageProcessingTime"`
	LiquidityUtilization   float64         `json:"liquidityUtilization"`
	LastSweepAt            time.Time       `json:"lastSweepAt"`
	Running                bool            `json:"running"`
}

// Monitor accumulates settlement counters and owns the sweep loop
type Monitor struct {
	cfg          config.MonitoringConfig
	synchronizer Synchronizer
	optimizer    Optimizer
	pools        PoolSource
	logger       *zap.Logger

	mu              sync.Mutex
	totalCount      int64
	successCount    int64
	failureCount    int64
	totalVolume     decimal.Decimal
	totalFees       decimal.Decimal
	totalProcessing time.Duration
	lastSweepAt     time.Time

	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewMonitor creates a stopped monitor. pools may be nil, in which case the
// snapshot reports zero utilization.
func NewMonitor(cfg config.MonitoringConfig, synchronizer Synchronizer, optimizer Optimizer, pools PoolSource, logger *zap.Logger) *Monitor {
	return &Monitor{
		cfg:          cfg,
		synchronizer: synchronizer,
		optimizer:    optimizer,
		pools:        pools,
		logger:       logger,
		totalVolume:  decimal.Zero,
		totalFees:    decimal.Zero,
	}
}

// SetSynchronizer attaches the transaction synchronizer after construction.
// The monitor is built before the bridge service because the service reports
// settlements back to it.
func (m *Monitor) SetSynchronizer(s Synchronizer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.synchronizer = s
}

// RecordSettlement folds one terminal outcome into the running counters
func (m *Monitor) RecordSettlement(status db.Status, processingTime time.Duration, volume, fee decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalCount++
	switch status {
	case db.StatusCompleted:
		m.successCount++
	case db.StatusFailed:
		m.failureCount++
	}
	m.totalVolume = m.totalVolume.Add(volume)
	m.totalFees = m.totalFees.Add(fee)
	m.totalProcessing += processingTime
}

// Metrics returns a snapshot of the running counters plus the current
// capacity-weighted liquidity utilization across active pools
func (m *Monitor) Metrics() Metrics {
	utilization := m.utilization()

	m.mu.Lock()
	defer m.mu.Unlock()

	var avg time.Duration
	if m.totalCount > 0 {
		avg = m.totalProcessing / time.Duration(m.totalCount)
	}

	return Metrics{
		TotalTransactions:      m.totalCount,
		SuccessfulTransactions: m.successCount,
		FailedTransactions:     m.failureCount,
		TotalVolume:            m.totalVolume,
		TotalFees:              m.totalFees,
		AverageProcessingTime:  avg,
		LiquidityUtilization:   utilization,
		LastSweepAt:            m.lastSweepAt,
		Running:                m.running,
	}
}

// utilization folds all active pools into one outstanding/capacity ratio
func (m *Monitor) utilization() float64 {
	if m.pools == nil {
		return 0
	}

	outstanding := decimal.Zero
	capacity := decimal.Zero
	for _, p := range m.pools.Pools() {
		if !p.Active {
			continue
		}
		outstanding = outstanding.Add(p.Outstanding)
		capacity = capacity.Add(p.Capacity())
	}
	if !capacity.IsPositive() {
		return 0
	}

	ratio, _ := outstanding.Div(capacity).Float64()
	return ratio
}

// Start launches the periodic sweep loop. Calling Start on a running monitor
// is a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	stopCh := m.stopCh
	m.mu.Unlock()

	m.wg.Add(1)
	go m.loop(stopCh)

	m.logger.Info("Monitoring started", zap.Duration("sweep_interval", m.cfg.SweepInterval))
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish.
// Calling Stop on a stopped monitor is a no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopCh)
	m.mu.Unlock()

	m.wg.Wait()
	m.logger.Info("Monitoring stopped")
}

// Running reports whether the sweep loop is active
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) loop(stopCh <-chan struct{}) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			m.Sweep(context.Background())
		}
	}
}

// Sweep runs one synchronization and optimization pass. Errors are logged
// and counted; a failing pass never stops the loop.
func (m *Monitor) Sweep(ctx context.Context) {
	m.mu.Lock()
	synchronizer := m.synchronizer
	m.mu.Unlock()

	if synchronizer != nil {
		if err := synchronizer.SynchronizeChainState(ctx); err != nil {
			m.logger.Error("Synchronization sweep failed", zap.Error(err))
			metrics.ErrorsTotal.WithLabelValues("monitor", "synchronize").Inc()
		}
	}
	if err := m.optimizer.Optimize(ctx); err != nil {
		m.logger.Error("Liquidity optimization failed", zap.Error(err))
		metrics.ErrorsTotal.WithLabelValues("monitor", "optimize").Inc()
	}

	m.mu.Lock()
	m.lastSweepAt = time.Now()
	m.mu.Unlock()
}
