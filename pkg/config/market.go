package config

// MarketConfig tunes the request/bid engine and list endpoints.
type MarketConfig struct {
	MinProposalLength int
	// MinBidAmount is the smallest accepted bid; never below 0.01
	MinBidAmount    float64
	DefaultPageSize int
	MaxPageSize     int
}

func DefaultMarketConfig() MarketConfig {
	return MarketConfig{
		MinProposalLength: 50,
		MinBidAmount:      0.01,
		DefaultPageSize:   20,
		MaxPageSize:       100,
	}
}

func loadMarketConfig() MarketConfig {
	d := DefaultMarketConfig()
	return MarketConfig{
		MinProposalLength: getEnvInt("MIN_PROPOSAL_LENGTH", d.MinProposalLength),
		MinBidAmount:      getEnvFloat("MIN_BID_AMOUNT", d.MinBidAmount),
		DefaultPageSize:   getEnvInt("DEFAULT_PAGE_SIZE", d.DefaultPageSize),
		MaxPageSize:       getEnvInt("MAX_PAGE_SIZE", d.MaxPageSize),
	}
}
