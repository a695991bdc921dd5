package format

import (
	"fmt"
	"math"
	"strings"
	"time"

	"binance-mcp/internal/domain"
)

const (
	maxBalanceLines  = 10
	maxPositionLines = 5
	maxAccountAssets = 5
)

// EmptyBalancesMessage is returned by Balances for an account with no assets.
const EmptyBalancesMessage = `💰 Spot account balances

📊 Account status: empty
Assets held: 0
Total value: available after a deposit

💡 Suggestions:
Deposit USDT or another asset to start trading
Keep some USDT as a trading reserve
Use binance_spot_balances to check your balances regularly`

// FlatPositionsMessage is returned by Positions when nothing is open.
const FlatPositionsMessage = `🚀 Futures positions

📊 Position status: flat
Open contracts: 0
Net exposure: 0 USDT

💡 Suggestions:
No open positions, open new ones based on your market analysis
Analyse the market and make a trading plan first
Futures are risky, keep position sizes reasonable`

// Balances summarises spot balances. Callers pass only non-empty balances.
func Balances(balances []domain.Balance, now time.Time) string {
	if len(balances) == 0 {
		return EmptyBalancesMessage
	}

	var b strings.Builder
	fmt.Fprintf(&b, "💰 Spot account balances\n\n📊 Overview:\nAssets held: %d\nUpdated: %s\n\n💎 Holdings:\n\n",
		len(balances), Timestamp(now.UnixMilli()))

	hasLocked := false
	for _, bal := range balances {
		if bal.Locked.Sign() > 0 {
			hasLocked = true
		}
	}

	for i, bal := range balances {
		if i >= maxBalanceLines {
			break
		}
		locked := bal.Locked.Sign() > 0
		lockedNote, status := "", "fully available"
		if locked {
			lockedNote, status = " (open orders)", "partially locked"
		}
		fmt.Fprintf(&b, "%s %s (%s)\nAvailable: %s\nLocked: %s%s\nTotal: %s\nStatus: %s\n\n",
			CurrencyEmoji(bal.Asset), bal.Asset, CurrencyName(bal.Asset),
			Quantity(bal.Free.InexactFloat64(), bal.Asset),
			Quantity(bal.Locked.InexactFloat64(), bal.Asset), lockedNote,
			Quantity(bal.Total().InexactFloat64(), bal.Asset),
			status,
		)
	}
	if len(balances) > maxBalanceLines {
		fmt.Fprintf(&b, "... %d more assets not shown\n\n", len(balances)-maxBalanceLines)
	}

	spread := "fairly concentrated"
	if len(balances) > 3 {
		spread = "fairly diversified"
	}
	liquidity := "funds are fully liquid"
	if hasLocked {
		liquidity = "some funds are held by open orders, which is normal"
	}
	fmt.Fprintf(&b, "💡 Suggestions:\nYour holdings are %s and %s.\n", spread, liquidity)
	b.WriteString("Keep an eye on price trends and rebalance when needed.\n")
	b.WriteString("Use the price tools to estimate the total value in USD.")
	return b.String()
}

// RiskLevel labels unrealised pnl as a percentage of notional.
func RiskLevel(pnl, notional float64) string {
	pct := ratioPct(pnl, notional)
	switch {
	case pct > 5:
		return "🟢 Low risk"
	case pct > -5:
		return "🟡 Medium risk"
	case pct > -15:
		return "🟠 High risk"
	default:
		return "🔴 Extreme risk"
	}
}

// LiquidationDistance is the signed percentage between mark and liquidation
// price, positive while the position is on the safe side.
func LiquidationDistance(p domain.Position) float64 {
	mark := p.MarkPrice.InexactFloat64()
	if mark == 0 {
		return 0
	}
	dir := 1.0
	if !p.IsLong() {
		dir = -1
	}
	return (mark - p.LiquidationPrice.InexactFloat64()) / mark * 100 * dir
}

// LiquidationBand classifies the absolute liquidation distance.
func LiquidationBand(distance float64) string {
	d := math.Abs(distance)
	switch {
	case d > 20:
		return "relatively safe"
	case d > 10:
		return "watch closely"
	case d > 5:
		return "high risk"
	default:
		return "critical"
	}
}

func leverageBand(l float64) string {
	switch {
	case l > 10:
		return "high risk"
	case l > 5:
		return "medium risk"
	default:
		return "low risk"
	}
}

// Positions summarises open futures positions; zero-size rows are ignored.
func Positions(positions []domain.Position) string {
	open := make([]domain.Position, 0, len(positions))
	for _, p := range positions {
		if p.IsOpen() {
			open = append(open, p)
		}
	}
	if len(open) == 0 {
		return FlatPositionsMessage
	}

	var totalNotional, totalPnl, longExposure, shortExposure float64
	longs, shorts := 0, 0
	for _, p := range open {
		n := p.Notional().InexactFloat64()
		totalNotional += n
		totalPnl += p.UnRealizedProfit.InexactFloat64()
		if p.IsLong() {
			longs++
			longExposure += n
		} else {
			shorts++
			shortExposure += n
		}
	}

	bias := "balanced"
	switch {
	case longs > shorts:
		bias = "net long"
	case shorts > longs:
		bias = "net short"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🚀 Futures positions\n\n📈 Overview:\nOpen contracts: %d\nTotal notional: %s USDT\nNet bias: %s\nRisk level: %s\n\n💰 Position details:\n\n",
		len(open), Price(totalNotional, ""), bias, RiskLevel(totalPnl, totalNotional))

	for i, p := range open {
		if i >= maxPositionLines {
			break
		}
		writePosition(&b, i+1, p)
	}

	fmt.Fprintf(&b, "📊 Overall:\nTotal PnL: %s%s USDT (%s)\nLong exposure: %s USDT\nShort exposure: %s USDT\n\n💡 Suggestions:\n%s",
		signed(totalPnl), Price(totalPnl, ""), Percentage(ratioPct(totalPnl, totalNotional)),
		Price(longExposure, ""), Price(shortExposure, ""),
		positionAdvice(totalPnl, open),
	)
	return b.String()
}

func writePosition(b *strings.Builder, index int, p domain.Position) {
	base := BaseAsset(p.Symbol)
	direction, qtySign := "Short (SHORT)", ""
	if p.IsLong() {
		direction, qtySign = "Long (LONG)", "+"
	}
	pnl := p.UnRealizedProfit.InexactFloat64()
	pnlStatus := "❌ In loss"
	if pnl >= 0 {
		pnlStatus = "✅ In profit"
	}
	notional := p.Notional().InexactFloat64()
	leverage := p.Leverage.InexactFloat64()
	margin := "Cross"
	if strings.EqualFold(p.MarginType, "isolated") {
		margin = "Isolated"
	}
	distance := LiquidationDistance(p)

	fmt.Fprintf(b, "[%d] %s %s perpetual\nDirection: %s\nSize: %s%s\nEntry price: %s USDT\nMark price: %s USDT\nValue: %s USDT\n\n",
		index, CurrencyEmoji(base), p.Symbol, direction,
		qtySign, Quantity(p.PositionAmt.Abs().InexactFloat64(), base),
		Price(p.EntryPrice.InexactFloat64(), ""), Price(p.MarkPrice.InexactFloat64(), ""), Price(notional, ""))
	fmt.Fprintf(b, "💸 PnL:\nUnrealised: %s%s USDT (%s)\nStatus: %s\n\n",
		signed(pnl), Price(pnl, ""), Percentage(ratioPct(pnl, notional)), pnlStatus)
	fmt.Fprintf(b, "⚖️ Risk:\nLeverage: %sx (%s)\nMargin type: %s\nLiquidation price: %s USDT\nDistance to liquidation: %s (%s)\n\n",
		NumberDecimals(leverage, 2), leverageBand(leverage), margin,
		Price(p.LiquidationPrice.InexactFloat64(), ""), Percentage(distance), LiquidationBand(distance))
}

func positionAdvice(totalPnl float64, open []domain.Position) string {
	if totalPnl > 0 {
		return "Positions are in profit overall, consider taking partial profit.\nWatch the market and adjust your stop levels."
	}
	for _, p := range open {
		if math.Abs(LiquidationDistance(p)) < 10 {
			return "Some positions are close to liquidation, reduce them now.\nAdd margin or set a stop-loss to lower the risk."
		}
	}
	return "Position risk is under control, but keep watching the market.\nKeep a clear stop-loss and take-profit plan."
}

func flag(ok bool, yes, no string) string {
	if ok {
		return "✅ " + yes
	}
	return "❌ " + no
}

// AccountInfo renders the spot account permissions and asset counts.
func AccountInfo(acct domain.AccountInfo) string {
	accountType := "Spot account"
	if acct.AccountType != "" && acct.AccountType != "SPOT" {
		accountType = acct.AccountType + " account"
	}

	var b strings.Builder
	b.WriteString("👤 Account overview\n\n📋 Basics:\n")
	fmt.Fprintf(&b, "Account type: %s\n", accountType)
	fmt.Fprintf(&b, "Trading: %s\n", flag(acct.CanTrade, "enabled", "disabled"))
	fmt.Fprintf(&b, "Withdrawals: %s\n", flag(acct.CanWithdraw, "enabled", "disabled"))
	fmt.Fprintf(&b, "Deposits: %s\n", flag(acct.CanDeposit, "enabled", "disabled"))
	if acct.UpdateTime > 0 {
		fmt.Fprintf(&b, "Updated: %s\n", Timestamp(acct.UpdateTime))
	}

	if len(acct.Balances) > 0 {
		active := acct.NonEmptyBalances()
		fmt.Fprintf(&b, "\n📊 Assets:\nActive assets: %d\nTotal assets: %d\n\n", len(active), len(acct.Balances))
		for i, bal := range active {
			if i >= maxAccountAssets {
				break
			}
			fmt.Fprintf(&b, "%s %s: %s\n", CurrencyEmoji(bal.Asset), bal.Asset, Number(bal.Total().InexactFloat64()))
		}
		if len(active) > maxAccountAssets {
			fmt.Fprintf(&b, "... and %d more assets\n", len(active)-maxAccountAssets)
		}
	}

	b.WriteString("\n💡 Review your account permissions regularly to keep trading safe")
	return b.String()
}
