package metrics

import "expvar"

var (
	ProjectsCreated  = expvar.NewInt("projects_created")
	TradeHubsCreated = expvar.NewInt("trade_hubs_created")
	AssetsMinted     = expvar.NewInt("assets_minted")
	ListingsCreated  = expvar.NewInt("listings_created")
	ListingsDelisted = expvar.NewInt("listings_delisted")
	AssetsPurchased  = expvar.NewInt("assets_purchased")
	FeeWithdrawals   = expvar.NewInt("fee_withdrawals")
	OpFailures       = expvar.NewInt("op_failures")
)
