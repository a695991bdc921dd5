package format

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"binance-mcp/internal/domain"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNumber(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1234567, "1,234,567"},
		{1234.5, "1,234.5"},
		{-98765.432, "-98,765.43"},
		{12.3456, "12.35"},
		{12, "12"},
		{0.5, "0.5"},
		{-0.25, "-0.25"},
	}
	for _, c := range cases {
		if got := Number(c.in); got != c.want {
			t.Fatalf("Number(%v) = %q, want %q", c.in, got, c.want)
		}
	}
	if got := NumberDecimals(0.000012345, 8); !strings.HasPrefix(got, "0.0000123") {
		t.Fatalf("unexpected small number: %q", got)
	}
	if got := NumberDecimals(0.1234, 2); got != "0.12" {
		t.Fatalf("unexpected 2-decimal number: %q", got)
	}
}

func TestPercentage(t *testing.T) {
	if got := Percentage(-3.456); got != "-3.46%" {
		t.Fatalf("got %q", got)
	}
	if got := Percentage(2); got != "+2.00%" {
		t.Fatalf("got %q", got)
	}
	if got := Percentage(0); got != "+0.00%" {
		t.Fatalf("got %q", got)
	}
}

func TestPriceQuantityTimestamp(t *testing.T) {
	if got := Price(43250.5, "BTCUSDT"); got != "43,250.5 USDT" {
		t.Fatalf("got %q", got)
	}
	if got := Price(0.05, "ETHBTC"); got != "0.05" {
		t.Fatalf("got %q", got)
	}
	if got := Quantity(0.00150000, "BTC"); got != "0.0015 BTC" {
		t.Fatalf("got %q", got)
	}
	if got := Timestamp(0); got != "1970-01-01 00:00:00 UTC" {
		t.Fatalf("got %q", got)
	}
}

func TestLabels(t *testing.T) {
	if OrderStatus("FILLED") != "✅ Filled" || OrderStatus("WEIRD") != "WEIRD" {
		t.Fatal("unexpected status labels")
	}
	if CurrencyEmoji("BTC") != "₿" || CurrencyEmoji("DOGE") != "💰" {
		t.Fatal("unexpected emoji")
	}
	if CurrencyName("ETH") != "Ethereum" || CurrencyName("DOGE") != "DOGE" {
		t.Fatal("unexpected names")
	}
	if BaseAsset("ETHBTC") != "ETH" || BaseAsset("BTCUSDT") != "BTC" {
		t.Fatal("unexpected base assets")
	}
}

func TestBalancesEmpty(t *testing.T) {
	if got := Balances(nil, time.Now()); got != EmptyBalancesMessage {
		t.Fatalf("unexpected empty message: %q", got)
	}
}

func TestBalancesTruncatesAtTen(t *testing.T) {
	balances := make([]domain.Balance, 12)
	for i := range balances {
		balances[i] = domain.Balance{Asset: fmt.Sprintf("A%02d", i), Free: decimal.NewFromInt(int64(i + 1))}
	}
	balances[0].Locked = dec("0.5")

	got := Balances(balances, time.UnixMilli(0))
	if n := strings.Count(got, "Available: "); n != 10 {
		t.Fatalf("expected 10 detail blocks, got %d", n)
	}
	if !strings.Contains(got, "... 2 more assets not shown") {
		t.Fatalf("missing truncation line:\n%s", got)
	}
	if !strings.Contains(got, "fairly diversified") || !strings.Contains(got, "held by open orders") {
		t.Fatalf("unexpected advice:\n%s", got)
	}
	if strings.Contains(got, "A11") {
		t.Fatal("11th asset should not be shown")
	}
}

func TestPositionsFlat(t *testing.T) {
	got := Positions([]domain.Position{{Symbol: "BTCUSDT"}})
	if got != FlatPositionsMessage {
		t.Fatalf("unexpected flat message: %q", got)
	}
}

func TestPositionsNearLiquidationIsNotSafe(t *testing.T) {
	p := domain.Position{
		Symbol:           "BTCUSDT",
		PositionAmt:      dec("0.5"),
		EntryPrice:       dec("50000"),
		MarkPrice:        dec("50000"),
		LiquidationPrice: dec("48000"),
		UnRealizedProfit: dec("-10"),
		Leverage:         dec("20"),
		MarginType:       "isolated",
	}
	distance := LiquidationDistance(p)
	if distance < 3.99 || distance > 4.01 {
		t.Fatalf("expected 4%% distance, got %v", distance)
	}
	band := LiquidationBand(distance)
	if band != "critical" && band != "high risk" {
		t.Fatalf("unexpected band %q", band)
	}

	got := Positions([]domain.Position{p})
	if strings.Contains(got, "relatively safe") {
		t.Fatalf("position near liquidation labelled safe:\n%s", got)
	}
	if !strings.Contains(got, "close to liquidation") {
		t.Fatalf("expected high-risk advice:\n%s", got)
	}
	if !strings.Contains(got, "Leverage: 20x (high risk)") || !strings.Contains(got, "Margin type: Isolated") {
		t.Fatalf("unexpected risk block:\n%s", got)
	}
}

func TestPositionsShortAndBias(t *testing.T) {
	short := domain.Position{
		Symbol:           "ETHUSDT",
		PositionAmt:      dec("-2"),
		MarkPrice:        dec("2000"),
		LiquidationPrice: dec("3000"),
		UnRealizedProfit: dec("400"),
		Leverage:         dec("3"),
	}
	if d := LiquidationDistance(short); d < 49.9 || d > 50.1 {
		t.Fatalf("expected 50%% distance for short, got %v", d)
	}
	got := Positions([]domain.Position{short})
	if !strings.Contains(got, "Net bias: net short") || !strings.Contains(got, "🟢 Low risk") {
		t.Fatalf("unexpected overview:\n%s", got)
	}
	if !strings.Contains(got, "taking partial profit") {
		t.Fatalf("expected profit advice:\n%s", got)
	}
}

func TestRiskLevel(t *testing.T) {
	cases := map[float64]string{6: "🟢 Low risk", 0: "🟡 Medium risk", -10: "🟠 High risk", -20: "🔴 Extreme risk"}
	for pnl, want := range cases {
		if got := RiskLevel(pnl, 100); got != want {
			t.Fatalf("RiskLevel(%v) = %q, want %q", pnl, got, want)
		}
	}
}

func TestSpotOrder(t *testing.T) {
	got := SpotOrder(domain.Order{
		Symbol: "BTCUSDT", OrderID: 42, Side: "BUY", Type: "LIMIT", Status: "NEW",
		Price: dec("43000"), OrigQty: dec("0.01"), TransactTime: 1700000000000,
	})
	for _, want := range []string{"Order ID: #42", "(BTC/USDT spot)", "Limit price: 43,000 USDT", "⏳ New (awaiting fill)", "GTC"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Executed quantity") {
		t.Fatal("unexpected executed line")
	}

	got = SpotOrder(domain.Order{Symbol: "ETHUSDT", Side: "SELL", Type: "MARKET", Status: "FILLED", ExecutedQty: dec("1")})
	if !strings.Contains(got, "Market execution") || !strings.Contains(got, "✅ Order fully filled") {
		t.Fatalf("unexpected market order text:\n%s", got)
	}

	for orderType, priced := range map[string]bool{"TAKE_PROFIT": false, "STOP_LOSS": false, "TAKE_PROFIT_LIMIT": true, "LIMIT_MAKER": true} {
		got = SpotOrder(domain.Order{Symbol: "BTCUSDT", Side: "SELL", Type: orderType, Status: "NEW", Price: dec("50000"), OrigQty: dec("0.01")})
		if strings.Contains(got, "Limit price") != priced {
			t.Fatalf("%s: expected limit price line %v in:\n%s", orderType, priced, got)
		}
	}
}

func TestFuturesOrder(t *testing.T) {
	got := FuturesOrder(domain.Order{Symbol: "BTCUSDT", Side: "SELL", Type: "MARKET", Status: "NEW", OrigQty: dec("0.1")})
	for _, want := range []string{"BTCUSDT perpetual", "Short (sell to open)", "Position side: both-way", "Leverage: N/Ax", "Margin type: Cross"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}

	for orderType, priced := range map[string]bool{"TAKE_PROFIT": true, "STOP": true, "STOP_MARKET": false, "TAKE_PROFIT_MARKET": false} {
		got = FuturesOrder(domain.Order{Symbol: "BTCUSDT", Side: "SELL", Type: orderType, Status: "NEW", Price: dec("50000"), OrigQty: dec("0.1")})
		if strings.Contains(got, "Limit price") != priced {
			t.Fatalf("%s: expected limit price line %v in:\n%s", orderType, priced, got)
		}
	}
}

func TestOrderBook(t *testing.T) {
	book := domain.OrderBook{}
	for i := 0; i < 7; i++ {
		book.Asks = append(book.Asks, domain.BookLevel{Price: decimal.NewFromInt(int64(100 + i)), Quantity: dec("1")})
	}
	got := OrderBook(book)
	if !strings.Contains(got, "5. 104 | 1") || strings.Contains(got, "6. ") {
		t.Fatalf("unexpected book:\n%s", got)
	}
}

func TestAccountInfo(t *testing.T) {
	got := AccountInfo(domain.AccountInfo{
		AccountType: "SPOT",
		CanTrade:    true,
		Balances: []domain.Balance{
			{Asset: "BTC", Free: dec("1")},
			{Asset: "XYZ"},
		},
	})
	for _, want := range []string{"Account type: Spot account", "Trading: ✅ enabled", "Withdrawals: ❌ disabled", "Active assets: 1", "₿ BTC: 1"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
}
