package domain

import "github.com/shopspring/decimal"

// Balance is one spot wallet line.
type Balance struct {
	Asset  string          `json:"asset"`
	Free   decimal.Decimal `json:"free"`
	Locked decimal.Decimal `json:"locked"`
}

func (b Balance) Total() decimal.Decimal {
	return b.Free.Add(b.Locked)
}

func (b Balance) IsEmpty() bool {
	return b.Total().Sign() <= 0
}

type AccountInfo struct {
	AccountType string    `json:"accountType"`
	CanTrade    bool      `json:"canTrade"`
	CanWithdraw bool      `json:"canWithdraw"`
	CanDeposit  bool      `json:"canDeposit"`
	UpdateTime  int64     `json:"updateTime"`
	Permissions []string  `json:"permissions"`
	Balances    []Balance `json:"balances"`
}

// NonEmptyBalances returns balances with free+locked above zero, in exchange order.
func (a AccountInfo) NonEmptyBalances() []Balance {
	out := make([]Balance, 0, len(a.Balances))
	for _, b := range a.Balances {
		if !b.IsEmpty() {
			out = append(out, b)
		}
	}
	return out
}

type FuturesAsset struct {
	Asset            string          `json:"asset"`
	WalletBalance    decimal.Decimal `json:"walletBalance"`
	UnrealizedProfit decimal.Decimal `json:"unrealizedProfit"`
	MarginBalance    decimal.Decimal `json:"marginBalance"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
}

type FuturesAccount struct {
	TotalWalletBalance    decimal.Decimal `json:"totalWalletBalance"`
	TotalUnrealizedProfit decimal.Decimal `json:"totalUnrealizedProfit"`
	TotalMarginBalance    decimal.Decimal `json:"totalMarginBalance"`
	AvailableBalance      decimal.Decimal `json:"availableBalance"`
	MaxWithdrawAmount     decimal.Decimal `json:"maxWithdrawAmount"`
	CanTrade              bool            `json:"canTrade"`
	CanDeposit            bool            `json:"canDeposit"`
	CanWithdraw           bool            `json:"canWithdraw"`
	UpdateTime            int64           `json:"updateTime"`
	Assets                []FuturesAsset  `json:"assets"`
}

// Position is one row of the futures position risk endpoint.
type Position struct {
	Symbol           string          `json:"symbol"`
	PositionAmt      decimal.Decimal `json:"positionAmt"`
	EntryPrice       decimal.Decimal `json:"entryPrice"`
	MarkPrice        decimal.Decimal `json:"markPrice"`
	UnRealizedProfit decimal.Decimal `json:"unRealizedProfit"`
	LiquidationPrice decimal.Decimal `json:"liquidationPrice"`
	Leverage         decimal.Decimal `json:"leverage"`
	MarginType       string          `json:"marginType"`
	PositionSide     string          `json:"positionSide"`
	IsolatedMargin   decimal.Decimal `json:"isolatedMargin"`
}

func (p Position) IsOpen() bool {
	return !p.PositionAmt.IsZero()
}

func (p Position) IsLong() bool {
	return p.PositionAmt.Sign() > 0
}

// Notional is |amount| * mark.
func (p Position) Notional() decimal.Decimal {
	return p.PositionAmt.Abs().Mul(p.MarkPrice)
}
