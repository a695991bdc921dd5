package validation

import (
	"strings"
	"testing"
)

func TestAllReportsEveryFailure(t *testing.T) {
	o := All(
		Check("symbol", Symbol("BTC-USDT", true)),
		Check("side", Side("BUY", true)),
		Check("price", Price(ptr(-1), true)),
	)
	if o.Valid {
		t.Fatal("expected failure")
	}
	lines := strings.Split(o.Error, "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "symbol: ") || !strings.HasPrefix(lines[1], "price: ") {
		t.Fatalf("unexpected error lines: %q", lines)
	}
	if len(o.Suggestions) != 6 {
		t.Fatalf("expected merged suggestions, got %d", len(o.Suggestions))
	}
}

func TestAllMergesWarningsAndData(t *testing.T) {
	o := All(
		Check("symbol", Symbol("ethusdt", true)),
		Check("type", OrderType("")),
		Check("price", Price(nil, false)),
	)
	if !o.Valid {
		t.Fatalf("unexpected failure: %s", o.Error)
	}
	values := o.Values()
	if values["symbol"] != "ETHUSDT" || values["type"] != "MARKET" {
		t.Fatalf("unexpected values: %v", values)
	}
	if v, ok := values["price"]; !ok || v != nil {
		t.Fatalf("expected nil price entry, got %v", v)
	}
	if len(o.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", o.Warnings)
	}
}

func TestValidateRuleTable(t *testing.T) {
	params := map[string]any{
		"symbol":   "btcusdt",
		"quantity": "lots",
		"leverage": float64(200),
	}
	o := Validate(params, []Rule{
		{Key: "symbol", Kind: KindSymbol, Required: true},
		{Key: "quantity", Kind: KindQuantity, Required: true},
		{Key: "leverage", Kind: KindLeverage},
		{Key: "note", Kind: KindAny},
	})
	if o.Valid {
		t.Fatal("expected failure")
	}
	if !strings.Contains(o.Error, "quantity: Quantity must be a positive number") || !strings.Contains(o.Error, "leverage: ") {
		t.Fatalf("unexpected error: %s", o.Error)
	}
	if strings.Contains(o.Error, "symbol:") {
		t.Fatalf("symbol should have passed: %s", o.Error)
	}
}

func TestFormatError(t *testing.T) {
	got := FormatError(Outcome{Error: "price: bad", Suggestions: []string{"a", "b"}})
	want := "❌ Parameter validation failed:\n\nprice: bad\n\n💡 Suggestions:\n• a\n• b\n"
	if got != want {
		t.Fatalf("unexpected message:\n%q\nwant\n%q", got, want)
	}
	if got := FormatError(Outcome{Error: "x"}); got != "❌ Parameter validation failed:\n\nx" {
		t.Fatalf("unexpected message without suggestions: %q", got)
	}
}

func TestFormatWarnings(t *testing.T) {
	if got := FormatWarnings(nil); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
	if got := FormatWarnings([]string{"w1"}); got != "⚠️ Parameter notices:\n• w1\n" {
		t.Fatalf("unexpected warnings: %q", got)
	}
}
