package bridge

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yieldrail/bridge-orchestrator/pkg/chains"
	"github.com/yieldrail/bridge-orchestrator/pkg/config"
)

func newFeeTestService(t *testing.T) *Service {
	t.Helper()
	cfg := config.BridgeConfig{
		BaseFeeRate:              0.003,
		CrossEcosystemMultiplier: 1.5,
		TestnetDiscount:          0.5,
		AnnualYieldRate:          0.05,
		StalenessThreshold:       24 * time.Hour,
	}
	return NewService(cfg, chains.NewRegistry(), NewMockStore(), NewMockCache(),
		&MockConsensus{}, NewMockLiquidity(), &MockAdapter{}, NewMockTracker(),
		&MockNotifier{}, nil, zap.NewNop())
}

func TestCalculateBridgeFee_SameEcosystemMainnet(t *testing.T) {
	s := newFeeTestService(t)

	fee := s.CalculateBridgeFee("ethereum", "arbitrum", decimal.NewFromInt(1000))
	if !fee.Equal(decimal.NewFromInt(3)) {
		t.Errorf("Expected fee 3, got %s", fee)
	}
}

func TestCalculateBridgeFee_CrossEcosystemMultiplier(t *testing.T) {
	s := newFeeTestService(t)

	fee := s.CalculateBridgeFee("ethereum", "polygon", decimal.NewFromInt(1000))
	// 1000 * 0.003 * 1.5
	if !fee.Equal(decimal.NewFromFloat(4.5)) {
		t.Errorf("Expected fee 4.5, got %s", fee)
	}
}

func TestCalculateBridgeFee_TestnetDiscount(t *testing.T) {
	s := newFeeTestService(t)

	// Same ecosystem, both testnets: 1000 * 0.003 * 0.5
	fee := s.CalculateBridgeFee("sepolia", "arbitrumSepolia", decimal.NewFromInt(1000))
	if !fee.Equal(decimal.NewFromFloat(1.5)) {
		t.Errorf("Expected fee 1.5, got %s", fee)
	}
}

func TestCalculateBridgeFee_CrossEcosystemTestnet(t *testing.T) {
	s := newFeeTestService(t)

	// Cross ecosystem and both testnets: 1000 * 0.003 * 1.5 * 0.5
	fee := s.CalculateBridgeFee("sepolia", "mumbai", decimal.NewFromInt(1000))
	if !fee.Equal(decimal.NewFromFloat(2.25)) {
		t.Errorf("Expected fee 2.25, got %s", fee)
	}
}

func TestCalculateBridgeFee_MixedTestnetNoDiscount(t *testing.T) {
	s := newFeeTestService(t)

	// Mainnet to testnet pairs do not get the discount.
	fee := s.CalculateBridgeFee("ethereum", "sepolia", decimal.NewFromInt(1000))
	if !fee.Equal(decimal.NewFromInt(3)) {
		t.Errorf("Expected fee 3 without discount, got %s", fee)
	}
}

func TestCalculateTransitYield_ZeroAtZeroTransit(t *testing.T) {
	s := newFeeTestService(t)

	yield := s.CalculateTransitYield(decimal.NewFromInt(1000), 0)
	if !yield.IsZero() {
		t.Errorf("Expected zero yield at zero transit, got %s", yield)
	}

	yield = s.CalculateTransitYield(decimal.NewFromInt(1000), -time.Second)
	if !yield.IsZero() {
		t.Errorf("Expected zero yield for negative transit, got %s", yield)
	}
}

func TestCalculateTransitYield_ScalesWithTime(t *testing.T) {
	s := newFeeTestService(t)
	amount := decimal.NewFromInt(1000)

	halfYear := s.CalculateTransitYield(amount, 365*12*time.Hour)
	quarterYear := s.CalculateTransitYield(amount, 365*6*time.Hour)

	// 1000 * 0.05 scaled by the transit fraction of a year.
	if !halfYear.Equal(decimal.NewFromInt(25)) {
		t.Errorf("Expected yield 25 over half a year, got %s", halfYear)
	}
	if !quarterYear.Equal(decimal.NewFromFloat(12.5)) {
		t.Errorf("Expected yield 12.5 over a quarter year, got %s", quarterYear)
	}
}

func TestCalculateTransitYield_OneYearIsAnnualRate(t *testing.T) {
	s := newFeeTestService(t)

	year := 365 * 24 * time.Hour
	yield := s.CalculateTransitYield(decimal.NewFromInt(1000), year)
	// 1000 * 0.05 over a full year.
	if !yield.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected yield 50 over a year, got %s", yield)
	}
}

func TestBridgeEstimate(t *testing.T) {
	s := newFeeTestService(t)

	est, err := s.BridgeEstimate("ethereum", "polygon", decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("BridgeEstimate failed: %v", err)
	}
	if !est.Fee.Equal(decimal.NewFromFloat(4.5)) {
		t.Errorf("Expected fee 4.5, got %s", est.Fee)
	}
	if est.EstimatedTimeMs != 600000 {
		t.Errorf("Expected 600000ms for cross-ecosystem mainnet, got %d", est.EstimatedTimeMs)
	}
	if !est.EstimatedYield.IsPositive() {
		t.Errorf("Expected positive estimated yield, got %s", est.EstimatedYield)
	}
}

func TestBridgeEstimate_InvalidInputs(t *testing.T) {
	s := newFeeTestService(t)

	if _, err := s.BridgeEstimate("unknown", "polygon", decimal.NewFromInt(1)); err == nil {
		t.Error("Expected error for unknown source chain")
	}
	if _, err := s.BridgeEstimate("ethereum", "unknown", decimal.NewFromInt(1)); err == nil {
		t.Error("Expected error for unknown destination chain")
	}
	if _, err := s.BridgeEstimate("ethereum", "polygon", decimal.Zero); err == nil {
		t.Error("Expected error for non-positive amount")
	}
}
