package chains

import (
	"errors"
	"fmt"

	"aavetx/internal/domain"
)

var ErrUnknownChain = errors.New("unknown chain")

// Entry holds the static per-chain strings: the subgraph endpoint and the
// explorer prefixes that an address or transaction hash is appended to.
type Entry struct {
	Chain      domain.Chain `json:"chain"`
	Endpoint   string       `json:"endpoint"`
	AddressURL string       `json:"address_url"`
	TxURL      string       `json:"tx_url"`
}

func (e Entry) AddressLink(address string) string {
	return e.AddressURL + address
}

func (e Entry) TxLink(hash string) string {
	return e.TxURL + hash
}

// Registry is an ordered, immutable set of entries. Lookups scan it in
// declaration order, so the order is part of its contract.
type Registry struct {
	entries []Entry
	index   map[domain.Chain]int
}

func New(entries ...Entry) (*Registry, error) {
	r := &Registry{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[domain.Chain]int, len(entries)),
	}
	for _, entry := range entries {
		if entry.Chain == "" {
			return nil, errors.New("chain name is required")
		}
		if entry.Endpoint == "" {
			return nil, fmt.Errorf("endpoint is required for %s", entry.Chain)
		}
		if _, ok := r.index[entry.Chain]; ok {
			return nil, fmt.Errorf("duplicate chain %s", entry.Chain)
		}
		r.index[entry.Chain] = len(r.entries)
		r.entries = append(r.entries, entry)
	}
	return r, nil
}

// Default returns the registry of supported Aave deployments.
func Default() *Registry {
	r, err := New(defaultEntries...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Len() int {
	return len(r.entries)
}

// Entries returns a copy of the entries in registry order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Registry) Lookup(chain domain.Chain) (Entry, error) {
	i, ok := r.index[chain]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownChain, chain)
	}
	return r.entries[i], nil
}

const subgraphBase = "https://api.thegraph.com/subgraphs/name/messari/"

var defaultEntries = []Entry{
	{
		Chain:      domain.ChainEthereum,
		Endpoint:   subgraphBase + "aave-v2-ethereum-extended",
		AddressURL: "https://etherscan.io/address/",
		TxURL:      "https://etherscan.io/tx/",
	},
	{
		Chain:      domain.ChainPolygonV2,
		Endpoint:   subgraphBase + "aave-v2-polygon-extended",
		AddressURL: "https://polygonscan.com/address/",
		TxURL:      "https://polygonscan.com/tx/",
	},
	{
		Chain:      domain.ChainPolygonV3,
		Endpoint:   subgraphBase + "aave-v3-polygon-extended",
		AddressURL: "https://polygonscan.com/address/",
		TxURL:      "https://polygonscan.com/tx/",
	},
	{
		Chain:      domain.ChainAvalancheV2,
		Endpoint:   subgraphBase + "aave-v2-avalanche-extended",
		AddressURL: "https://snowtrace.io/address/",
		TxURL:      "https://snowtrace.io/tx/",
	},
	{
		Chain:      domain.ChainAvalancheV3,
		Endpoint:   subgraphBase + "aave-v3-avalanche",
		AddressURL: "https://snowtrace.io/address/",
		TxURL:      "https://snowtrace.io/tx/",
	},
	{
		Chain:      domain.ChainOptimism,
		Endpoint:   subgraphBase + "aave-v3-optimism-extended",
		AddressURL: "https://optimistic.etherscan.io/address/",
		TxURL:      "https://optimistic.etherscan.io/tx/",
	},
	{
		Chain:      domain.ChainArbitrum,
		Endpoint:   subgraphBase + "aave-v3-arbitrum-extended",
		AddressURL: "https://arbiscan.io/address/",
		TxURL:      "https://arbiscan.io/tx/",
	},
	{
		Chain:      domain.ChainHarmony,
		Endpoint:   subgraphBase + "aave-v3-harmony-extended",
		AddressURL: "https://explorer.harmony.one/address/",
		TxURL:      "https://explorer.harmony.one/tx/",
	},
	{
		Chain:      domain.ChainFantom,
		Endpoint:   subgraphBase + "aave-v3-fantom-extended",
		AddressURL: "https://ftmscan.com/address/",
		TxURL:      "https://ftmscan.com/tx/",
	},
}
