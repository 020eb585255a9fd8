package marketcontainer

import (
	"github.com/Abraxas-365/contractorconnect/pkg/config"
	"github.com/Abraxas-365/contractorconnect/pkg/fsx"
	"github.com/Abraxas-365/contractorconnect/pkg/logx"
	"github.com/Abraxas-365/contractorconnect/pkg/market/bid"
	"github.com/Abraxas-365/contractorconnect/pkg/market/marketapi"
	"github.com/Abraxas-365/contractorconnect/pkg/market/marketinfra"
	"github.com/Abraxas-365/contractorconnect/pkg/market/marketsrv"
	"github.com/Abraxas-365/contractorconnect/pkg/market/workrequest"
	"github.com/jmoiron/sqlx"
)

type Deps struct {
	// DB may be nil, in which case an in-memory store is used (development only).
	DB  *sqlx.DB
	Cfg *config.Config

	// Files stores request images.
	Files fsx.FileSystem
	// Users checks contractors named in status changes. Optional.
	Users marketsrv.UserDirectory
}

// Container is the public surface of the marketplace module.
type Container struct {
	RequestService *marketsrv.RequestService
	BidService     *marketsrv.BidService

	RequestHandlers *marketapi.RequestHandlers
	BidHandlers     *marketapi.BidHandlers
}

func New(deps Deps) *Container {
	logx.Info("🔧 Initializing marketplace container...")

	cfg := deps.Cfg

	var requests workrequest.Repository
	var bids bid.Repository
	if deps.DB != nil {
		requests = marketinfra.NewPostgresRequestRepository(deps.DB)
		bids = marketinfra.NewPostgresBidRepository(deps.DB)
	} else {
		store := marketinfra.NewMemoryStore()
		requests = store.Requests()
		bids = store.Bids()
		logx.Warn("  ⚠️  Using in-memory request and bid stores (not recommended for production)")
	}

	opts := []marketsrv.Option{marketsrv.WithMaxImageBytes(int64(cfg.Storage.MaxBytes))}
	if deps.Users != nil {
		opts = append(opts, marketsrv.WithUserDirectory(deps.Users))
	}

	c := &Container{
		RequestService: marketsrv.NewRequestService(requests, deps.Files, cfg.Market, opts...),
		BidService:     marketsrv.NewBidService(bids, requests, cfg.Market, opts...),
	}
	c.RequestHandlers = marketapi.NewRequestHandlers(c.RequestService)
	c.BidHandlers = marketapi.NewBidHandlers(c.BidService)

	logx.Infof("✅ Marketplace container initialized (min proposal %d chars)", cfg.Market.MinProposalLength)
	return c
}
