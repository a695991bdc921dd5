package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

type PriceTicker struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Time   int64           `json:"time,omitempty"`
}

type Ticker24h struct {
	Symbol             string          `json:"symbol"`
	PriceChange        decimal.Decimal `json:"priceChange"`
	PriceChangePercent decimal.Decimal `json:"priceChangePercent"`
	WeightedAvgPrice   decimal.Decimal `json:"weightedAvgPrice"`
	PrevClosePrice     decimal.Decimal `json:"prevClosePrice"`
	LastPrice          decimal.Decimal `json:"lastPrice"`
	BidPrice           decimal.Decimal `json:"bidPrice"`
	AskPrice           decimal.Decimal `json:"askPrice"`
	OpenPrice          decimal.Decimal `json:"openPrice"`
	HighPrice          decimal.Decimal `json:"highPrice"`
	LowPrice           decimal.Decimal `json:"lowPrice"`
	Volume             decimal.Decimal `json:"volume"`
	QuoteVolume        decimal.Decimal `json:"quoteVolume"`
	OpenTime           int64           `json:"openTime"`
	CloseTime          int64           `json:"closeTime"`
	Count              int64           `json:"count"`
}

// BookLevel decodes the exchange's ["price","qty"] pair.
type BookLevel struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

func (l *BookLevel) UnmarshalJSON(b []byte) error {
	var raw []decimal.Decimal
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode book level: %w", err)
	}
	if len(raw) < 2 {
		return fmt.Errorf("decode book level: expected 2 fields, got %d", len(raw))
	}
	l.Price, l.Quantity = raw[0], raw[1]
	return nil
}

type OrderBook struct {
	LastUpdateID int64       `json:"lastUpdateId"`
	Bids         []BookLevel `json:"bids"`
	Asks         []BookLevel `json:"asks"`
}

// Kline decodes the exchange's positional candle array.
type Kline struct {
	OpenTime            int64           `json:"openTime"`
	Open                decimal.Decimal `json:"open"`
	High                decimal.Decimal `json:"high"`
	Low                 decimal.Decimal `json:"low"`
	Close               decimal.Decimal `json:"close"`
	Volume              decimal.Decimal `json:"volume"`
	CloseTime           int64           `json:"closeTime"`
	QuoteVolume         decimal.Decimal `json:"quoteVolume"`
	Trades              int64           `json:"trades"`
	TakerBuyBaseVolume  decimal.Decimal `json:"takerBuyBaseVolume"`
	TakerBuyQuoteVolume decimal.Decimal `json:"takerBuyQuoteVolume"`
}

func (k *Kline) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode kline: %w", err)
	}
	if len(raw) < 11 {
		return fmt.Errorf("decode kline: expected 11 fields, got %d", len(raw))
	}
	targets := []any{
		&k.OpenTime, &k.Open, &k.High, &k.Low, &k.Close, &k.Volume,
		&k.CloseTime, &k.QuoteVolume, &k.Trades, &k.TakerBuyBaseVolume, &k.TakerBuyQuoteVolume,
	}
	for i, target := range targets {
		if err := json.Unmarshal(raw[i], target); err != nil {
			return fmt.Errorf("decode kline field %d: %w", i, err)
		}
	}
	return nil
}

type KlineQuery struct {
	Symbol    string
	Interval  string
	StartTime int64
	EndTime   int64
	Limit     int
}

type PremiumIndex struct {
	Symbol          string          `json:"symbol"`
	MarkPrice       decimal.Decimal `json:"markPrice"`
	IndexPrice      decimal.Decimal `json:"indexPrice"`
	LastFundingRate decimal.Decimal `json:"lastFundingRate"`
	InterestRate    decimal.Decimal `json:"interestRate"`
	NextFundingTime int64           `json:"nextFundingTime"`
	Time            int64           `json:"time"`
}

const (
	FilterPrice       = "PRICE_FILTER"
	FilterLotSize     = "LOT_SIZE"
	FilterMinNotional = "MIN_NOTIONAL"
	FilterNotional    = "NOTIONAL"
)

// SymbolFilter flattens the exchange filter variants. Only the fields the
// precision checks read are decoded.
type SymbolFilter struct {
	FilterType  string          `json:"filterType"`
	MinPrice    decimal.Decimal `json:"minPrice"`
	MaxPrice    decimal.Decimal `json:"maxPrice"`
	TickSize    decimal.Decimal `json:"tickSize"`
	MinQty      decimal.Decimal `json:"minQty"`
	MaxQty      decimal.Decimal `json:"maxQty"`
	StepSize    decimal.Decimal `json:"stepSize"`
	MinNotional decimal.Decimal `json:"minNotional"`
	Notional    decimal.Decimal `json:"notional"`
}

type SymbolInfo struct {
	Symbol             string         `json:"symbol"`
	Status             string         `json:"status"`
	BaseAsset          string         `json:"baseAsset"`
	QuoteAsset         string         `json:"quoteAsset"`
	BaseAssetPrecision int            `json:"baseAssetPrecision"`
	QuotePrecision     int            `json:"quotePrecision"`
	PricePrecision     int            `json:"pricePrecision"`
	QuantityPrecision  int            `json:"quantityPrecision"`
	ContractType       string         `json:"contractType,omitempty"`
	OrderTypes         []string       `json:"orderTypes"`
	Filters            []SymbolFilter `json:"filters"`
}

func (s SymbolInfo) Filter(filterType string) (SymbolFilter, bool) {
	for _, f := range s.Filters {
		if f.FilterType == filterType {
			return f, true
		}
	}
	return SymbolFilter{}, false
}

// MinNotional reads MIN_NOTIONAL first and NOTIONAL second. Futures report
// the value under "notional", spot under "minNotional".
func (s SymbolInfo) MinNotional() (decimal.Decimal, bool) {
	for _, ft := range []string{FilterMinNotional, FilterNotional} {
		f, ok := s.Filter(ft)
		if !ok {
			continue
		}
		if !f.MinNotional.IsZero() {
			return f.MinNotional, true
		}
		if !f.Notional.IsZero() {
			return f.Notional, true
		}
	}
	return decimal.Zero, false
}

type ExchangeInfo struct {
	Timezone   string       `json:"timezone"`
	ServerTime int64        `json:"serverTime"`
	Symbols    []SymbolInfo `json:"symbols"`
}

func (e ExchangeInfo) Symbol(name string) (SymbolInfo, bool) {
	for _, s := range e.Symbols {
		if s.Symbol == name {
			return s, true
		}
	}
	return SymbolInfo{}, false
}
