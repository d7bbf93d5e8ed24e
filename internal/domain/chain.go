package domain

// Chain identifies a network and lending protocol version pair.
type Chain string

const (
	ChainEthereum    Chain = "Ethereum"
	ChainPolygonV2   Chain = "Polygon v2"
	ChainPolygonV3   Chain = "Polygon v3"
	ChainAvalancheV2 Chain = "Avalanche v2"
	ChainAvalancheV3 Chain = "Avalanche v3"
	ChainOptimism    Chain = "Optimism"
	ChainArbitrum    Chain = "Arbitrum"
	ChainHarmony     Chain = "Harmony"
	ChainFantom      Chain = "Fantom"
)

func (c Chain) String() string {
	return string(c)
}
