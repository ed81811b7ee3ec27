package liquidity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pool is a snapshot of one liquidity pool, identified by
// (source chain, destination chain, token).
type Pool struct {
	ID                 string          `json:"id"`
	SourceChain        string          `json:"sourceChain"`
	DestinationChain   string          `json:"destinationChain"`
	Token              string          `json:"token"`
	SourceBalance      decimal.Decimal `json:"sourceBalance"`
	DestinationBalance decimal.Decimal `json:"destinationBalance"`
	Outstanding        decimal.Decimal `json:"outstanding"`
	UtilizationRate    decimal.Decimal `json:"utilizationRate"`
	RebalanceThreshold float64         `json:"rebalanceThreshold"`
	MinLiquidity       decimal.Decimal `json:"minLiquidity"`
	MaxLiquidity       decimal.Decimal `json:"maxLiquidity"`
	Active             bool            `json:"isActive"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// Capacity is the total liquidity held on both sides of the pool
func (p *Pool) Capacity() decimal.Decimal {
	return p.SourceBalance.Add(p.DestinationBalance)
}

// Availability is the answer to a liquidity check
type Availability struct {
	Available         bool            `json:"available"`
	Reason            string          `json:"reason"`
	SuggestedAmount   decimal.Decimal `json:"suggestedAmount"`
	EstimatedWaitTime int64           `json:"estimatedWaitTime"`
}

// ReasonNoPool is returned when no active pool matches the requested tuple
const ReasonNoPool = "No active liquidity pool found"

// ReasonInsufficient is returned when the requested amount would push
// utilization past the pool's safe ceiling
const ReasonInsufficient = "Insufficient liquidity for requested amount"
