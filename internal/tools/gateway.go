package tools

import (
	"context"

	"binance-mcp/internal/domain"
)

// Gateway is the exchange surface the handlers depend on. *gateway.Client
// satisfies it.
type Gateway interface {
	Ping(ctx context.Context) error
	ServerTime(ctx context.Context) (int64, error)
	IsTestnet() bool
	ExchangeInfo(ctx context.Context, market domain.Market) (*domain.ExchangeInfo, error)

	AccountInfo(ctx context.Context) (*domain.AccountInfo, error)
	FuturesAccount(ctx context.Context) (*domain.FuturesAccount, error)
	FuturesPositions(ctx context.Context, symbol string) ([]domain.Position, error)

	PlaceSpotOrder(ctx context.Context, req domain.SpotOrderRequest) (*domain.Order, error)
	CancelSpotOrder(ctx context.Context, symbol string, orderID int64) (*domain.Order, error)
	SpotOpenOrders(ctx context.Context, symbol string) ([]domain.Order, error)
	SpotOrderHistory(ctx context.Context, q domain.HistoryQuery) ([]domain.Order, error)
	SpotTrades(ctx context.Context, q domain.HistoryQuery) ([]domain.Trade, error)

	PlaceFuturesOrder(ctx context.Context, req domain.FuturesOrderRequest) (*domain.Order, error)
	CancelFuturesOrder(ctx context.Context, symbol string, orderID int64) (*domain.Order, error)
	FuturesOpenOrders(ctx context.Context, symbol string) ([]domain.Order, error)
	FuturesOrderHistory(ctx context.Context, q domain.HistoryQuery) ([]domain.Order, error)
	FuturesTrades(ctx context.Context, q domain.HistoryQuery) ([]domain.Trade, error)
	ChangeLeverage(ctx context.Context, symbol string, leverage int) (*domain.LeverageChange, error)
	SetMarginType(ctx context.Context, symbol, marginType string) error
	PremiumIndex(ctx context.Context, symbol string) (*domain.PremiumIndex, error)

	Price(ctx context.Context, market domain.Market, symbol string) (*domain.PriceTicker, error)
	Prices(ctx context.Context, market domain.Market) ([]domain.PriceTicker, error)
	SpotOrderBook(ctx context.Context, symbol string, limit int) (*domain.OrderBook, error)
	Klines(ctx context.Context, market domain.Market, q domain.KlineQuery) ([]domain.Kline, error)
	Ticker24h(ctx context.Context, market domain.Market, symbol string) (*domain.Ticker24h, error)
	Tickers24h(ctx context.Context, market domain.Market) ([]domain.Ticker24h, error)
}
