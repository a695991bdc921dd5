package domain

import "github.com/shopspring/decimal"

const (
	SideBuy  = "BUY"
	SideSell = "SELL"

	OrderTypeMarket = "MARKET"
	OrderTypeLimit  = "LIMIT"

	TimeInForceGTC = "GTC"

	PositionSideBoth  = "BOTH"
	PositionSideLong  = "LONG"
	PositionSideShort = "SHORT"

	MarginIsolated = "ISOLATED"
	MarginCrossed  = "CROSSED"
)

// Order covers both spot and futures order payloads. Fields that only one
// market reports stay zero for the other.
type Order struct {
	Symbol              string          `json:"symbol"`
	OrderID             int64           `json:"orderId"`
	ClientOrderID       string          `json:"clientOrderId"`
	Price               decimal.Decimal `json:"price"`
	AvgPrice            decimal.Decimal `json:"avgPrice"`
	OrigQty             decimal.Decimal `json:"origQty"`
	ExecutedQty         decimal.Decimal `json:"executedQty"`
	CummulativeQuoteQty decimal.Decimal `json:"cummulativeQuoteQty"`
	CumQuote            decimal.Decimal `json:"cumQuote"`
	Status              string          `json:"status"`
	TimeInForce         string          `json:"timeInForce"`
	Type                string          `json:"type"`
	Side                string          `json:"side"`
	StopPrice           decimal.Decimal `json:"stopPrice"`
	PositionSide        string          `json:"positionSide"`
	ReduceOnly          bool            `json:"reduceOnly"`
	ClosePosition       bool            `json:"closePosition"`
	Time                int64           `json:"time"`
	UpdateTime          int64           `json:"updateTime"`
	TransactTime        int64           `json:"transactTime"`

	// Leverage and MarginType are not part of the exchange payload. They stay
	// empty unless a caller already knows them, and render as N/A and Cross.
	Leverage   int    `json:"-"`
	MarginType string `json:"-"`
}

// CreatedAt returns the best available creation time in milliseconds.
func (o Order) CreatedAt() int64 {
	switch {
	case o.TransactTime > 0:
		return o.TransactTime
	case o.Time > 0:
		return o.Time
	default:
		return o.UpdateTime
	}
}

// QuoteQty returns the spot or futures cumulative quote quantity.
func (o Order) QuoteQty() decimal.Decimal {
	if !o.CummulativeQuoteQty.IsZero() {
		return o.CummulativeQuoteQty
	}
	return o.CumQuote
}

type Trade struct {
	ID              int64           `json:"id"`
	Symbol          string          `json:"symbol"`
	OrderID         int64           `json:"orderId"`
	Price           decimal.Decimal `json:"price"`
	Qty             decimal.Decimal `json:"qty"`
	QuoteQty        decimal.Decimal `json:"quoteQty"`
	Commission      decimal.Decimal `json:"commission"`
	CommissionAsset string          `json:"commissionAsset"`
	Time            int64           `json:"time"`
	IsBuyer         bool            `json:"isBuyer"`
	IsMaker         bool            `json:"isMaker"`
	Buyer           bool            `json:"buyer"`
	Maker           bool            `json:"maker"`
	Side            string          `json:"side"`
	PositionSide    string          `json:"positionSide"`
	RealizedPnl     decimal.Decimal `json:"realizedPnl"`
}

type LeverageChange struct {
	Symbol           string          `json:"symbol"`
	Leverage         int             `json:"leverage"`
	MaxNotionalValue decimal.Decimal `json:"maxNotionalValue"`
}

type SpotOrderRequest struct {
	Symbol           string
	Side             string
	Type             string
	Quantity         decimal.Decimal
	Price            decimal.NullDecimal
	StopPrice        decimal.NullDecimal
	TimeInForce      string
	NewClientOrderID string
}

type FuturesOrderRequest struct {
	Symbol           string
	Side             string
	Type             string
	PositionSide     string
	Quantity         decimal.Decimal
	Price            decimal.NullDecimal
	StopPrice        decimal.NullDecimal
	CallbackRate     decimal.NullDecimal
	TimeInForce      string
	ReduceOnly       bool
	ClosePosition    bool
	NewClientOrderID string
}

// HistoryQuery narrows order and trade history lookups. Zero values are omitted.
type HistoryQuery struct {
	Symbol    string
	OrderID   int64
	FromID    int64
	StartTime int64
	EndTime   int64
	Limit     int
}
