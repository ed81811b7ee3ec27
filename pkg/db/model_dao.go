package db

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// TransactionDao is a data access object that maps directly to the
// 'bridge_transactions' table in PostgreSQL.
type TransactionDao struct {
	bun.BaseModel     `bun:"table:bridge_transactions,alias:bt"`
	ID                string     `bun:"id,pk,type:varchar(64)"`
	PaymentID         *string    `bun:"payment_id,type:varchar(64)"`
	SourceChain       string     `bun:"source_chain,notnull,type:varchar(32)"`
	DestinationChain  string     `bun:"destination_chain,notnull,type:varchar(32)"`
	Token             string     `bun:"token,notnull,type:varchar(16)"`
	SourceAmount      string     `bun:"source_amount,notnull,type:numeric(38,18)"`
	DestinationAmount string     `bun:"destination_amount,notnull,type:numeric(38,18)"`
	BridgeFee         string     `bun:"bridge_fee,notnull,type:numeric(38,18)"`
	EstimatedYield    string     `bun:"estimated_yield,notnull,type:numeric(38,18)"`
	ActualYield       *string    `bun:"actual_yield,type:numeric(38,18)"`
	SenderAddress     string     `bun:"sender_address,notnull,type:varchar(64)"`
	RecipientAddress  string     `bun:"recipient_address,notnull,type:varchar(64)"`
	Status            string     `bun:"status,notnull,type:varchar(20)"`
	SourceTxHash      *string    `bun:"source_tx_hash,type:varchar(66)"`
	DestinationTxHash *string    `bun:"destination_tx_hash,type:varchar(66)"`
	ExternalBridgeID  *string    `bun:"external_bridge_id,type:varchar(128)"`
	CreatedAt         time.Time  `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt         time.Time  `bun:"updated_at,nullzero,default:current_timestamp"`
}

func toDao(tx *Transaction) *TransactionDao {
	dao := &TransactionDao{
		ID:                tx.ID,
		PaymentID:         tx.PaymentID,
		SourceChain:       tx.SourceChain,
		DestinationChain:  tx.DestinationChain,
		Token:             tx.Token,
		SourceAmount:      tx.SourceAmount.String(),
		DestinationAmount: tx.DestinationAmount.String(),
		BridgeFee:         tx.BridgeFee.String(),
		EstimatedYield:    tx.EstimatedYield.String(),
		SenderAddress:     tx.SenderAddress,
		RecipientAddress:  tx.RecipientAddress,
		Status:            string(tx.Status),
		SourceTxHash:      tx.SourceTxHash,
		DestinationTxHash: tx.DestinationTxHash,
		ExternalBridgeID:  tx.ExternalBridgeID,
		CreatedAt:         tx.CreatedAt,
		UpdatedAt:         tx.UpdatedAt,
	}
	if tx.ActualYield != nil {
		s := tx.ActualYield.String()
		dao.ActualYield = &s
	}
	return dao
}

func toTransaction(dao *TransactionDao) (*Transaction, error) {
	sourceAmount, err := decimal.NewFromString(dao.SourceAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid source_amount for %s: %w", dao.ID, err)
	}
	destinationAmount, err := decimal.NewFromString(dao.DestinationAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid destination_amount for %s: %w", dao.ID, err)
	}
	bridgeFee, err := decimal.NewFromString(dao.BridgeFee)
	if err != nil {
		return nil, fmt.Errorf("invalid bridge_fee for %s: %w", dao.ID, err)
	}
	estimatedYield, err := decimal.NewFromString(dao.EstimatedYield)
	if err != nil {
		return nil, fmt.Errorf("invalid estimated_yield for %s: %w", dao.ID, err)
	}

	tx := &Transaction{
		ID:                dao.ID,
		PaymentID:         dao.PaymentID,
		SourceChain:       dao.SourceChain,
		DestinationChain:  dao.DestinationChain,
		Token:             dao.Token,
		SourceAmount:      sourceAmount,
		DestinationAmount: destinationAmount,
		BridgeFee:         bridgeFee,
		EstimatedYield:    estimatedYield,
		SenderAddress:     dao.SenderAddress,
		RecipientAddress:  dao.RecipientAddress,
		Status:            Status(dao.Status),
		SourceTxHash:      dao.SourceTxHash,
		DestinationTxHash: dao.DestinationTxHash,
		ExternalBridgeID:  dao.ExternalBridgeID,
		CreatedAt:         dao.CreatedAt,
		UpdatedAt:         dao.UpdatedAt,
	}
	if dao.ActualYield != nil {
		actualYield, err := decimal.NewFromString(*dao.ActualYield)
		if err != nil {
			return nil, fmt.Errorf("invalid actual_yield for %s: %w", dao.ID, err)
		}
		tx.ActualYield = &actualYield
	}
	return tx, nil
}
