package format

var orderStatusLabels = map[string]string{
	"NEW":              "⏳ New (awaiting fill)",
	"PARTIALLY_FILLED": "🔄 Partially filled",
	"FILLED":           "✅ Filled",
	"CANCELED":         "❌ Canceled",
	"PENDING_CANCEL":   "⏳ Cancel pending",
	"REJECTED":         "❌ Rejected",
	"EXPIRED":          "⏰ Expired",
}

var currencyEmoji = map[string]string{
	"BTC":  "₿",
	"ETH":  "🔷",
	"BNB":  "🟠",
	"USDT": "🟡",
	"BUSD": "🔵",
	"ADA":  "🔵",
	"DOT":  "⚪",
	"LINK": "🔗",
	"LTC":  "🥈",
	"XRP":  "💧",
}

var currencyNames = map[string]string{
	"BTC":  "Bitcoin",
	"ETH":  "Ethereum",
	"BNB":  "BNB",
	"USDT": "Tether",
	"BUSD": "Binance USD",
	"ADA":  "Cardano",
	"DOT":  "Polkadot",
	"LINK": "Chainlink",
	"LTC":  "Litecoin",
	"XRP":  "XRP",
}

// OrderStatus passes unknown codes through unchanged.
func OrderStatus(code string) string {
	if label, ok := orderStatusLabels[code]; ok {
		return label
	}
	return code
}

func CurrencyEmoji(asset string) string {
	if e, ok := currencyEmoji[asset]; ok {
		return e
	}
	return "💰"
}

func CurrencyName(asset string) string {
	if n, ok := currencyNames[asset]; ok {
		return n
	}
	return asset
}
