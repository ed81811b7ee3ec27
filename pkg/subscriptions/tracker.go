// Package subscriptions tracks per-transaction subscriber sets and update
// logs for real-time status streaming. State is process-local and reset on
// restart; scaling this out means replacing the in-process map with a
// message-bus fan-out.
package subscriptions

import (
	"sync"
	"time"

	"github.com/yieldrail/bridge-orchestrator/internal/metrics"
)

// UpdateType tags one entry in a transaction's update log
type UpdateType string

// UpdateStatusChange marks a status transition entry
const UpdateStatusChange UpdateType = "status_change"

// Update is one append-only entry in a transaction's history
type Update struct {
	Type      UpdateType `json:"type"`
	NewStatus string     `json:"newStatus"`
	Timestamp time.Time  `json:"timestamp"`
}

// History is the tracked view of one transaction
type History struct {
	Updates         []Update  `json:"updates"`
	LastUpdated     time.Time `json:"lastUpdated"`
	SubscriberCount int       `json:"subscriberCount"`
}

// Stats is a point-in-time aggregate over all tracked transactions
type Stats struct {
	TotalTransactions                int       `json:"totalTransactions"`
	TotalSubscribers                 int       `json:"totalSubscribers"`
	AverageSubscribersPerTransaction float64   `json:"averageSubscribersPerTransaction"`
	LastUpdated                      time.Time `json:"lastUpdated"`
}

type trackedTransaction struct {
	subscribers map[string]struct{}
	updates     []Update
	lastUpdated time.Time
}

// Tracker maintains subscriber sets and update logs per transaction
type Tracker struct {
	mu           sync.RWMutex
	transactions map[string]*trackedTransaction
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{transactions: make(map[string]*trackedTransaction)}
}

func (t *Tracker) trackLocked(transactionID string) *trackedTransaction {
	tracked, ok := t.transactions[transactionID]
	if !ok {
		tracked = &trackedTransaction{subscribers: make(map[string]struct{})}
		t.transactions[transactionID] = tracked
	}
	return tracked
}

// Record appends an update to the transaction's history
func (t *Tracker) Record(transactionID string, update Update) {
	if update.Timestamp.IsZero() {
		update.Timestamp = time.Now()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	tracked := t.trackLocked(transactionID)
	tracked.updates = append(tracked.updates, update)
	tracked.lastUpdated = update.Timestamp
}

// Subscribe adds a subscriber to the transaction's set. A no-op when already
// subscribed.
func (t *Tracker) Subscribe(transactionID, subscriberID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracked := t.trackLocked(transactionID)
	if _, ok := tracked.subscribers[subscriberID]; !ok {
		tracked.subscribers[subscriberID] = struct{}{}
		metrics.ActiveSubscribers.Inc()
	}
}

// Unsubscribe removes a subscriber from the transaction's set. A no-op when
// the transaction or subscriber is unknown.
func (t *Tracker) Unsubscribe(transactionID, subscriberID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracked, ok := t.transactions[transactionID]
	if !ok {
		return
	}
	if _, ok := tracked.subscribers[subscriberID]; ok {
		delete(tracked.subscribers, subscriberID)
		metrics.ActiveSubscribers.Dec()
	}
}

// History returns the update log and subscriber count for a transaction.
// Returns nil when the transaction was never tracked.
func (t *Tracker) History(transactionID string) *History {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tracked, ok := t.transactions[transactionID]
	if !ok {
		return nil
	}

	updates := make([]Update, len(tracked.updates))
	copy(updates, tracked.updates)

	return &History{
		Updates:         updates,
		LastUpdated:     tracked.lastUpdated,
		SubscriberCount: len(tracked.subscribers),
	}
}

// Stats aggregates subscriber counts over all tracked transactions
func (t *Tracker) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	total := 0
	for _, tracked := range t.transactions {
		total += len(tracked.subscribers)
	}

	average := 0.0
	if len(t.transactions) > 0 {
		average = float64(total) / float64(len(t.transactions))
	}

	return Stats{
		TotalTransactions:                len(t.transactions),
		TotalSubscribers:                 total,
		AverageSubscribersPerTransaction: average,
		LastUpdated:                      time.Now(),
	}
}
