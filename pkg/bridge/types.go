package bridge

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yieldrail/bridge-orchestrator/pkg/consensus"
	"github.com/yieldrail/bridge-orchestrator/pkg/db"
	"github.com/yieldrail/bridge-orchestrator/pkg/subscriptions"
)

// InitiateRequest carries the caller's bridge parameters
type InitiateRequest struct {
	SourceChain      string
	DestinationChain string
	Amount           decimal.Decimal
	Token            string
	SenderAddress    string
	RecipientAddress string
	PaymentID        *string
}

// Estimate is the fee/time/yield quote for a prospective bridge
type Estimate struct {
	Fee             decimal.Decimal `json:"fee"`
	EstimatedTimeMs int64           `json:"estimatedTime"`
	EstimatedYield  decimal.Decimal `json:"estimatedYield"`
}

// StatusView composes a transaction with its consensus outcome and update
// history into one caller-facing view
type StatusView struct {
	Transaction         *db.Transaction        `json:"transaction"`
	Validation          *consensus.Result      `json:"validation,omitempty"`
	Updates             []subscriptions.Update `json:"updates"`
	CanCancel           bool                   `json:"canCancel"`
	CanRetry            bool                   `json:"canRetry"`
	EstimatedCompletion time.Time              `json:"estimatedCompletion"`
}

// Analytics aggregates transactions over a symbolic time range
type Analytics struct {
	TimeRange              string          `json:"timeRange"`
	TotalTransactions      int             `json:"totalTransactions"`
	SuccessfulTransactions int             `json:"successfulTransactions"`
	FailedTransactions     int             `json:"failedTransactions"`
	SuccessRate            float64         `json:"successRate"`
	TotalVolume            decimal.Decimal `json:"totalVolume"`
	TotalFees              decimal.Decimal `json:"totalFees"`
}
