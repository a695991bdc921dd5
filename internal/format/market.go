package format

import (
	"fmt"
	"strings"
	"time"

	"binance-mcp/internal/domain"
)

const maxBookLevels = 5

func quoteSuffix(symbol string) string {
	if strings.Contains(symbol, "USDT") {
		return " USDT"
	}
	return ""
}

func PriceTicker(t domain.PriceTicker, now time.Time) string {
	return fmt.Sprintf("💰 %s current price\n\nPrice: %s%s\nUpdated: %s\n\n💡 Prices are indicative, fills may differ",
		t.Symbol, Number(t.Price.InexactFloat64()), quoteSuffix(t.Symbol), Timestamp(now.UnixMilli()))
}

func Ticker24h(t domain.Ticker24h, now time.Time) string {
	change := t.PriceChangePercent.InexactFloat64()
	trend, trendText := "📈", "up"
	if change < 0 {
		trend, trendText = "📉", "down"
	}
	q := quoteSuffix(t.Symbol)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s 24h ticker\n\n", trend, t.Symbol)
	fmt.Fprintf(&b, "💰 Last price: %s%s\n", Number(t.LastPrice.InexactFloat64()), q)
	fmt.Fprintf(&b, "📊 24h change: %s (%s)\n", Percentage(change), trendText)
	fmt.Fprintf(&b, "📈 High: %s%s\n", Number(t.HighPrice.InexactFloat64()), q)
	fmt.Fprintf(&b, "📉 Low: %s%s\n", Number(t.LowPrice.InexactFloat64()), q)
	fmt.Fprintf(&b, "🕐 Open: %s%s\n", Number(t.OpenPrice.InexactFloat64()), q)
	fmt.Fprintf(&b, "📦 24h volume: %s %s\n\n", Number(t.Volume.InexactFloat64()), BaseAsset(t.Symbol))
	fmt.Fprintf(&b, "💡 Updated: %s", Timestamp(now.UnixMilli()))
	return b.String()
}

// OrderBook shows the best five asks and bids.
func OrderBook(book domain.OrderBook) string {
	var b strings.Builder
	b.WriteString("📊 Order book depth\n\n🔴 Asks:\n")
	writeLevels(&b, book.Asks)
	b.WriteString("\n🟢 Bids:\n")
	writeLevels(&b, book.Bids)
	b.WriteString("\n💡 Depth is live, levels are sorted by priority")
	return b.String()
}

func writeLevels(b *strings.Builder, levels []domain.BookLevel) {
	for i, l := range levels {
		if i >= maxBookLevels {
			return
		}
		fmt.Fprintf(b, "%d. %s | %s\n", i+1, Number(l.Price.InexactFloat64()), Number(l.Quantity.InexactFloat64()))
	}
}
