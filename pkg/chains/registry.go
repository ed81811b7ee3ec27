// Package chains holds the static catalogue of supported chains.
package chains

import (
	"strconv"
	"time"
)

// Ecosystem identifies the settlement layer a chain belongs to. Chains in the
// same ecosystem bridge cheaper and faster than chains spanning unrelated
// base layers.
type Ecosystem string

const (
	EcosystemEthereum Ecosystem = "ethereum"
	EcosystemPolygon  Ecosystem = "polygon"
)

// Config describes one supported chain
type Config struct {
	ID             string    `json:"id"`
	ChainID        int64     `json:"chainId"`
	Name           string    `json:"name"`
	NativeCurrency string    `json:"nativeCurrency"`
	ExplorerURL    string    `json:"explorerUrl"`
	IsTestnet      bool      `json:"isTestnet"`
	AvgBlockTimeMs int64     `json:"avgBlockTimeMs"`
	Ecosystem      Ecosystem `json:"-"`
}

// DefaultBridgeTime is returned for any chain pair the registry does not
// recognize.
const DefaultBridgeTime = 300_000 * time.Millisecond

var supported = []Config{
	{ID: "ethereum", ChainID: 1, Name: "Ethereum", NativeCurrency: "ETH", ExplorerURL: "https://etherscan.io", IsTestnet: false, AvgBlockTimeMs: 12000, Ecosystem: EcosystemEthereum},
	{ID: "polygon", ChainID: 137, Name: "Polygon", NativeCurrency: "MATIC", ExplorerURL: "https://polygonscan.com", IsTestnet: false, AvgBlockTimeMs: 2100, Ecosystem: EcosystemPolygon},
	{ID: "arbitrum", ChainID: 42161, Name: "Arbitrum One", NativeCurrency: "ETH", ExplorerURL: "https://arbiscan.io", IsTestnet: false, AvgBlockTimeMs: 250, Ecosystem: EcosystemEthereum},
	{ID: "sepolia", ChainID: 11155111, Name: "Sepolia", NativeCurrency: "ETH", ExplorerURL: "https://sepolia.etherscan.io", IsTestnet: true, AvgBlockTimeMs: 12500, Ecosystem: EcosystemEthereum},
	{ID: "mumbai", ChainID: 80001, Name: "Mumbai", NativeCurrency: "MATIC", ExplorerURL: "https://mumbai.polygonscan.com", IsTestnet: true, AvgBlockTimeMs: 2200, Ecosystem: EcosystemPolygon},
	{ID: "arbitrumSepolia", ChainID: 421614, Name: "Arbitrum Sepolia", NativeCurrency: "ETH", ExplorerURL: "https://sepolia.arbiscan.io", IsTestnet: true, AvgBlockTimeMs: 300, Ecosystem: EcosystemEthereum},
}

// Registry is the static catalogue of supported chains. Pure lookup, no state.
type Registry struct {
	byID      map[string]Config
	byChainID map[string]Config
	order     []string
}

// NewRegistry builds the registry from the built-in chain table
func NewRegistry() *Registry {
	r := &Registry{
		byID:      make(map[string]Config, len(supported)),
		byChainID: make(map[string]Config, len(supported)),
	}
	for _, c := range supported {
		r.byID[c.ID] = c
		r.byChainID[chainIDKey(c.ChainID)] = c
		r.order = append(r.order, c.ID)
	}
	return r
}

func chainIDKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Supported returns all supported chains in registration order
func (r *Registry) Supported() []Config {
	out := make([]Config, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Get resolves a chain by its identifier. Both the symbolic id ("ethereum")
// and the numeric chain-id form ("1") are accepted.
func (r *Registry) Get(id string) (Config, bool) {
	if c, ok := r.byID[id]; ok {
		return c, true
	}
	c, ok := r.byChainID[id]
	return c, ok
}

// IsValid reports whether the chain identifier is supported
func (r *Registry) IsValid(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// SameEcosystem reports whether two chains share a settlement layer. Unknown
// chains are never in the same ecosystem.
func (r *Registry) SameEcosystem(a, b string) bool {
	ca, okA := r.Get(a)
	cb, okB := r.Get(b)
	return okA && okB && ca.Ecosystem == cb.Ecosystem
}

// EstimateBridgeTime returns the expected transit time for a source/destination
// pair. Unrecognized pairs get DefaultBridgeTime; recognized same-ecosystem
// pairs are faster than cross-ecosystem ones, and testnet pairs faster than
// their mainnet counterparts.
func (r *Registry) EstimateBridgeTime(source, destination string) time.Duration {
	src, okSrc := r.Get(source)
	dst, okDst := r.Get(destination)
	if !okSrc || !okDst {
		return DefaultBridgeTime
	}

	testnetPair := src.IsTestnet && dst.IsTestnet
	if src.Ecosystem == dst.Ecosystem {
		if testnetPair {
			return 120_000 * time.Millisecond
		}
		return 180_000 * time.Millisecond
	}
	if testnetPair {
		return 420_000 * time.Millisecond
	}
	return 600_000 * time.Millisecond
}
