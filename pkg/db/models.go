package db

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the current state of a bridge transaction
type Status string

const (
	StatusInitiated     Status = "INITIATED"
	StatusBridgePending Status = "BRIDGE_PENDING"
	StatusCompleted     Status = "COMPLETED"
	StatusFailed        Status = "FAILED"
)

// IsTerminal reports whether no further transitions are allowed from s
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Transaction is the bridge transaction aggregate. The durable store and the
// cache each hold a copy; the cache is a performance shadow and never the
// sole source of truth.
type Transaction struct {
	ID                string           `json:"id"`
	PaymentID         *string          `json:"paymentId,omitempty"`
	SourceChain       string           `json:"sourceChain"`
	DestinationChain  string           `json:"destinationChain"`
	Token             string           `json:"token"`
	SourceAmount      decimal.Decimal  `json:"sourceAmount"`
	DestinationAmount decimal.Decimal  `json:"destinationAmount"`
	BridgeFee         decimal.Decimal  `json:"bridgeFee"`
	EstimatedYield    decimal.Decimal  `json:"estimatedYield"`
	ActualYield       *decimal.Decimal `json:"actualYield,omitempty"`
	SenderAddress     string           `json:"senderAddress"`
	RecipientAddress  string           `json:"recipientAddress"`
	Status            Status           `json:"status"`
	SourceTxHash      *string          `json:"sourceTxHash,omitempty"`
	DestinationTxHash *string          `json:"destinationTxHash,omitempty"`
	ExternalBridgeID  *string          `json:"externalBridgeId,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}
