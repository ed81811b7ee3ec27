package chains

import (
	"testing"
	"time"
)

func TestRegistry_Supported(t *testing.T) {
	r := NewRegistry()

	supported := r.Supported()
	if len(supported) != 6 {
		t.Fatalf("Expected 6 supported chains, got %d", len(supported))
	}

	seen := make(map[string]bool)
	for _, c := range supported {
		seen[c.ID] = true
	}
	for _, id := range []string{"ethereum", "polygon", "arbitrum", "sepolia", "mumbai", "arbitrumSepolia"} {
		if !seen[id] {
			t.Errorf("Expected chain %s in supported set", id)
		}
	}
}

func TestRegistry_Get_SymbolicAndNumeric(t *testing.T) {
	r := NewRegistry()

	byName, ok := r.Get("ethereum")
	if !ok {
		t.Fatal("Expected ethereum to resolve by symbolic id")
	}
	byChainID, ok := r.Get("1")
	if !ok {
		t.Fatal("Expected ethereum to resolve by numeric chain id")
	}
	if byName.ID != byChainID.ID {
		t.Errorf("Expected same chain for both forms, got %s and %s", byName.ID, byChainID.ID)
	}

	if _, ok := r.Get("137"); !ok {
		t.Error("Expected polygon to resolve by numeric chain id")
	}
	if _, ok := r.Get("unknown"); ok {
		t.Error("Expected unknown chain to not resolve")
	}
}

func TestRegistry_IsValid(t *testing.T) {
	r := NewRegistry()

	if !r.IsValid("arbitrumSepolia") {
		t.Error("Expected arbitrumSepolia to be valid")
	}
	if !r.IsValid("421614") {
		t.Error("Expected 421614 to be valid")
	}
	if r.IsValid("solana") {
		t.Error("Expected solana to be invalid")
	}
	if r.IsValid("") {
		t.Error("Expected empty id to be invalid")
	}
}

func TestRegistry_SameEcosystem(t *testing.T) {
	r := NewRegistry()

	cases := []struct {
		a, b string
		want bool
	}{
		{"ethereum", "arbitrum", true},
		{"ethereum", "sepolia", true},
		{"sepolia", "arbitrumSepolia", true},
		{"polygon", "mumbai", true},
		{"ethereum", "polygon", false},
		{"arbitrum", "mumbai", false},
		{"ethereum", "unknown", false},
	}

	for _, c := range cases {
		if got := r.SameEcosystem(c.a, c.b); got != c.want {
			t.Errorf("SameEcosystem(%s, %s) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestRegistry_EstimateBridgeTime(t *testing.T) {
	r := NewRegistry()

	cases := []struct {
		name     string
		src, dst string
		want     time.Duration
	}{
		{"same ecosystem mainnet", "ethereum", "arbitrum", 180 * time.Second},
		{"same ecosystem testnet", "sepolia", "arbitrumSepolia", 120 * time.Second},
		{"cross ecosystem mainnet", "ethereum", "polygon", 600 * time.Second},
		{"cross ecosystem testnet", "sepolia", "mumbai", 420 * time.Second},
		{"unrecognized pair", "ethereum", "unknown", 300 * time.Second},
		{"both unrecognized", "foo", "bar", 300 * time.Second},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := r.EstimateBridgeTime(c.src, c.dst); got != c.want {
				t.Errorf("EstimateBridgeTime(%s, %s) = %v, want %v", c.src, c.dst, got, c.want)
			}
		})
	}
}

func TestRegistry_EstimateBridgeTime_NumericAliases(t *testing.T) {
	r := NewRegistry()

	symbolic := r.EstimateBridgeTime("ethereum", "polygon")
	numeric := r.EstimateBridgeTime("1", "137")
	if symbolic != numeric {
		t.Errorf("Expected identical estimates for symbolic and numeric ids, got %v and %v", symbolic, numeric)
	}
}
