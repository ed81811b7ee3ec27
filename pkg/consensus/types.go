package consensus

import "time"

// Validator is one member of the static validator set. Only active validators
// participate in consensus rounds.
type Validator struct {
	ID         string    `json:"id"`
	Address    string    `json:"address"`
	Active     bool      `json:"isActive"`
	Reputation float64   `json:"reputation"`
	LastSeen   time.Time `json:"lastSeen"`
}

// Signature is one validator's approval of a bridge transaction
type Signature struct {
	ValidatorID string    `json:"validatorId"`
	Signature   string    `json:"signature"`
	Timestamp   time.Time `json:"timestamp"`
}

// Result is the outcome of a consensus round, keyed by transaction id.
// Ephemeral: a lost entry can be regenerated by re-running consensus.
type Result struct {
	TransactionID      string      `json:"transactionId"`
	ConsensusReached   bool        `json:"consensusReached"`
	Signatures         []Signature `json:"signatures"`
	RequiredValidators int         `json:"requiredValidators"`
	ActualValidators   int         `json:"actualValidators"`
	Timestamp          time.Time   `json:"timestamp"`
}
