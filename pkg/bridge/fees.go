package bridge

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/yieldrail/bridge-orchestrator/pkg/app/errors"
)

const msPerYear = 365 * 24 * 60 * 60 * 1000

// CalculateBridgeFee computes the deterministic fee for a transfer. The base
// rate scales with amount; cross-ecosystem pairs pay a multiplier over
// same-ecosystem pairs, and testnet-to-testnet pairs get a discount.
func (s *Service) CalculateBridgeFee(sourceChain, destChain string, amount decimal.Decimal) decimal.Decimal {
	fee := amount.Mul(decimal.NewFromFloat(s.cfg.BaseFeeRate))

	if !s.registry.SameEcosystem(sourceChain, destChain) {
		fee = fee.Mul(decimal.NewFromFloat(s.cfg.CrossEcosystemMultiplier))
	}

	src, okSrc := s.registry.Get(sourceChain)
	dst, okDst := s.registry.Get(destChain)
	if okSrc && okDst && src.IsTestnet && dst.IsTestnet {
		fee = fee.Mul(decimal.NewFromFloat(s.cfg.TestnetDiscount))
	}

	return fee
}

// EstimateBridgeTime returns the expected transit time for a chain pair
func (s *Service) EstimateBridgeTime(sourceChain, destChain string) time.Duration {
	return s.registry.EstimateBridgeTime(sourceChain, destChain)
}

// CalculateTransitYield computes the yield accrued while funds are in
// transit: amount * annualRate * (transit / year). Exactly zero for zero
// transit time, and never negative.
func (s *Service) CalculateTransitYield(amount decimal.Decimal, transit time.Duration) decimal.Decimal {
	if transit <= 0 {
		return decimal.Zero
	}

	yield := amount.
		Mul(decimal.NewFromFloat(s.cfg.AnnualYieldRate)).
		Mul(decimal.NewFromInt(transit.Milliseconds())).
		Div(decimal.NewFromInt(msPerYear))

	if yield.IsNegative() {
		return decimal.Zero
	}
	return yield
}

// BridgeEstimate quotes fee, transit time, and estimated yield for a
// prospective transfer
func (s *Service) BridgeEstimate(sourceChain, destChain string, amount decimal.Decimal) (*Estimate, error) {
	if !s.registry.IsValid(sourceChain) {
		return nil, apperrors.ValidationError(nil, "unsupported source chain: "+sourceChain)
	}
	if !s.registry.IsValid(destChain) {
		return nil, apperrors.ValidationError(nil, "unsupported destination chain: "+destChain)
	}
	if !amount.IsPositive() {
		return nil, apperrors.ValidationError(nil, "amount must be positive")
	}

	transit := s.EstimateBridgeTime(sourceChain, destChain)
	return &Estimate{
		Fee:             s.CalculateBridgeFee(sourceChain, destChain, amount),
		EstimatedTimeMs: transit.Milliseconds(),
		EstimatedYield:  s.CalculateTransitYield(amount, transit),
	}, nil
}
