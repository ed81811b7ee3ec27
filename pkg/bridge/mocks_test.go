package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yieldrail/bridge-orchestrator/pkg/consensus"
	"github.com/yieldrail/bridge-orchestrator/pkg/db"
	"github.com/yieldrail/bridge-orchestrator/pkg/liquidity"
	"github.com/yieldrail/bridge-orchestrator/pkg/subscriptions"
)

// MockStore is an in-memory TransactionStore with per-method overrides
type MockStore struct {
	mu           sync.Mutex
	transactions map[string]*db.Transaction

	CreateFunc       func(ctx context.Context, tx *db.Transaction) error
	GetFunc          func(ctx context.Context, id string) (*db.Transaction, error)
	UpdateFunc       func(ctx context.Context, tx *db.Transaction) error
	UpdateStatusFunc func(ctx context.Context, id string, status db.Status, updatedAt time.Time) error
}

func NewMockStore() *MockStore {
	return &MockStore{transactions: make(map[string]*db.Transaction)}
}

func (m *MockStore) put(tx *db.Transaction) {
	clone := *tx
	m.transactions[tx.ID] = &clone
}

func (m *MockStore) Create(ctx context.Context, tx *db.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(tx)
	return nil
}

func (m *MockStore) Get(ctx context.Context, id string) (*db.Transaction, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[id]
	if !ok {
		return nil, nil
	}
	clone := *tx
	return &clone, nil
}

func (m *MockStore) Update(ctx context.Context, tx *db.Transaction) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(tx)
	return nil
}

func (m *MockStore) UpdateStatus(ctx context.Context, id string, status db.Status, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx, ok := m.transactions[id]; ok {
		tx.Status = status
		tx.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockStore) ListNonTerminal(ctx context.Context) ([]*db.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*db.Transaction
	for _, tx := range m.transactions {
		if !tx.Status.IsTerminal() {
			clone := *tx
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *MockStore) ListCreatedSince(ctx context.Context, since time.Time) ([]*db.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*db.Transaction
	for _, tx := range m.transactions {
		if tx.CreatedAt.After(since) {
			clone := *tx
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *MockStore) ListBySender(ctx context.Context, sender string, limit int) ([]*db.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*db.Transaction
	for _, tx := range m.transactions {
		if tx.SenderAddress == sender && len(out) < limit {
			clone := *tx
			out = append(out, &clone)
		}
	}
	return out, nil
}

// Status reads the stored status directly, bypassing the service
func (m *MockStore) Status(id string) db.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx, ok := m.transactions[id]; ok {
		return tx.Status
	}
	return ""
}

// MockCache is an in-memory TransactionCache with per-method overrides
type MockCache struct {
	mu           sync.Mutex
	transactions map[string]*db.Transaction

	GetTransactionFunc    func(ctx context.Context, id string) (*db.Transaction, error)
	SetTransactionFunc    func(ctx context.Context, tx *db.Transaction) error
	DeleteTransactionFunc func(ctx context.Context, id string) error
}

func NewMockCache() *MockCache {
	return &MockCache{transactions: make(map[string]*db.Transaction)}
}

func (m *MockCache) GetTransaction(ctx context.Context, id string) (*db.Transaction, error) {
	if m.GetTransactionFunc != nil {
		return m.GetTransactionFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[id]
	if !ok {
		return nil, nil
	}
	clone := *tx
	return &clone, nil
}

func (m *MockCache) SetTransaction(ctx context.Context, tx *db.Transaction) error {
	if m.SetTransactionFunc != nil {
		return m.SetTransactionFunc(ctx, tx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *tx
	m.transactions[tx.ID] = &clone
	return nil
}

func (m *MockCache) DeleteTransaction(ctx context.Context, id string) error {
	if m.DeleteTransactionFunc != nil {
		return m.DeleteTransactionFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.transactions, id)
	return nil
}

// Contains reports whether the cache holds the id
func (m *MockCache) Contains(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.transactions[id]
	return ok
}

// MockConsensus is a ConsensusService double
type MockConsensus struct {
	RequestConsensusFunc func(ctx context.Context, transactionID string, payload string) (*consensus.Result, error)
	ValidationResultFunc func(ctx context.Context, transactionID string) (*consensus.Result, error)
}

func (m *MockConsensus) RequestConsensus(ctx context.Context, transactionID string, payload string) (*consensus.Result, error) {
	if m.RequestConsensusFunc != nil {
		return m.RequestConsensusFunc(ctx, transactionID, payload)
	}
	return &consensus.Result{
		TransactionID:      transactionID,
		ConsensusReached:   true,
		RequiredValidators: 2,
		ActualValidators:   3,
		Timestamp:          time.Now(),
	}, nil
}

func (m *MockConsensus) ValidationResult(ctx context.Context, transactionID string) (*consensus.Result, error) {
	if m.ValidationResultFunc != nil {
		return m.ValidationResultFunc(ctx, transactionID)
	}
	return nil, nil
}

// MockLiquidity is a LiquidityService double tracking reserve/release calls
type MockLiquidity struct {
	mu        sync.Mutex
	Reserved  decimal.Decimal
	Released  decimal.Decimal
	Applied   decimal.Decimal
	Transfers int

	CheckAvailabilityFunc func(sourceChain, destChain string, amount decimal.Decimal, token string) *liquidity.Availability
	ReserveFunc           func(sourceChain, destChain string, amount decimal.Decimal, token string) error
	ApplyTransferFunc     func(sourceChain, destChain string, amount decimal.Decimal, token string) error
}

func NewMockLiquidity() *MockLiquidity {
	return &MockLiquidity{
		Reserved: decimal.Zero,
		Released: decimal.Zero,
		Applied:  decimal.Zero,
	}
}

func (m *MockLiquidity) CheckAvailability(sourceChain, destChain string, amount decimal.Decimal, token string) *liquidity.Availability {
	if m.CheckAvailabilityFunc != nil {
		return m.CheckAvailabilityFunc(sourceChain, destChain, amount, token)
	}
	return &liquidity.Availability{Available: true, SuggestedAmount: amount}
}

func (m *MockLiquidity) Reserve(sourceChain, destChain string, amount decimal.Decimal, token string) error {
	if m.ReserveFunc != nil {
		return m.ReserveFunc(sourceChain, destChain, amount, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reserved = m.Reserved.Add(amount)
	return nil
}

func (m *MockLiquidity) Release(sourceChain, destChain string, amount decimal.Decimal, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Released = m.Released.Add(amount)
}

func (m *MockLiquidity) ApplyTransfer(sourceChain, destChain string, amount decimal.Decimal, token string) error {
	if m.ApplyTransferFunc != nil {
		return m.ApplyTransferFunc(sourceChain, destChain, amount, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Applied = m.Applied.Add(amount)
	m.Transfers++
	return nil
}

func (m *MockLiquidity) ReleasedTotal() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Released
}

func (m *MockLiquidity) AppliedTotal() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Applied
}

// MockNotifier records terminal notifications
type MockNotifier struct {
	mu        sync.Mutex
	Successes []string
	Failures  []string
}

func (m *MockNotifier) NotifySuccess(_ context.Context, transactionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Successes = append(m.Successes, transactionID)
}

func (m *MockNotifier) NotifyFailure(_ context.Context, transactionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failures = append(m.Failures, transactionID)
}

// MockTracker records status-change updates
type MockTracker struct {
	mu      sync.Mutex
	Updates map[string][]subscriptions.Update
}

func NewMockTracker() *MockTracker {
	return &MockTracker{Updates: make(map[string][]subscriptions.Update)}
}

func (m *MockTracker) Record(transactionID string, update subscriptions.Update) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Updates[transactionID] = append(m.Updates[transactionID], update)
}

func (m *MockTracker) Statuses(transactionID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, u := range m.Updates[transactionID] {
		out = append(out, u.NewStatus)
	}
	return out
}

// MockAdapter is a ChainAdapter double
type MockAdapter struct {
	SubmitSourceLockFunc         func(ctx context.Context, tx *db.Transaction) (string, error)
	SubmitDestinationReleaseFunc func(ctx context.Context, tx *db.Transaction) (string, string, error)
}

func (m *MockAdapter) SubmitSourceLock(ctx context.Context, tx *db.Transaction) (string, error) {
	if m.SubmitSourceLockFunc != nil {
		return m.SubmitSourceLockFunc(ctx, tx)
	}
	return "0xsource", nil
}

func (m *MockAdapter) SubmitDestinationRelease(ctx context.Context, tx *db.Transaction) (string, string, error) {
	if m.SubmitDestinationReleaseFunc != nil {
		return m.SubmitDestinationReleaseFunc(ctx, tx)
	}
	return "0xdest", "ext-1", nil
}
