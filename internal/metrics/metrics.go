package metrics

import "expvar"

var (
	OrderBookLoads      = expvar.NewInt("orderbook_loads")
	OrderBookStaleDrops = expvar.NewInt("orderbook_stale_drops")
	OrderBookSoftFails  = expvar.NewInt("orderbook_soft_fails")
	BalanceLoads        = expvar.NewInt("balance_loads")
	BalanceStaleDrops   = expvar.NewInt("balance_stale_drops")
	BalanceSoftFails    = expvar.NewInt("balance_soft_fails")
	TradeAttempts       = expvar.NewMap("trade_attempts")
	TradeRejections     = expvar.NewMap("trade_rejections")
	SubmissionFailures  = expvar.NewMap("submission_failures")
)
