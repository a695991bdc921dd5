package tools

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"binance-mcp/internal/domain"
	"binance-mcp/internal/format"
	"binance-mcp/internal/validation"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	defaultMinQty           = 0.001
	defaultMaxPriceImpact   = 1.0
	fundingIntervalHours    = 8
	arbitrageThresholdPct   = 0.5
	significantSpreadPct    = 1.0
	highMarginUsagePct      = 80
	mediumMarginUsagePct    = 50
	marginUsageAdvicePct    = 70
	lossPositionShare       = 0.6
	unrealizedLossShare     = 0.05
	optimalTradeBookDepth   = 100
	minRiskAmount           = 1
	minPriceImpact          = 0.1
	maxPriceImpact          = 10
	maxFundingPositionSize  = 1_000_000
	fundingSettlementsInDay = 24 / fundingIntervalHours
)

var baseAssetPattern = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

func AnalyticsTools() []Descriptor {
	return []Descriptor{
		{
			Name:   "binance_calculate_position_size",
			Domain: DomainAnalytics,
			Description: "Calculate a futures position size from the amount you are willing to lose, the entry price, " +
				"the stop-loss price and the leverage. The size respects the symbol's minimum quantity.",
			InputSchema: object(props{
				"symbol":        symbolProp(),
				"riskAmount":    atLeast(numberProp("Maximum loss you accept on this trade, in USDT"), minRiskAmount),
				"entryPrice":    atLeast(numberProp("Planned entry price"), 0.01),
				"stopLossPrice": atLeast(numberProp("Stop-loss price"), 0.01),
				"leverage":      between(numberProp("Leverage, 1-125"), 1, 125),
			}, "symbol", "riskAmount", "entryPrice", "stopLossPrice", "leverage"),
			Example: map[string]any{"symbol": "BTCUSDT", "riskAmount": 100, "entryPrice": 50000, "stopLossPrice": 48000, "leverage": 10},
		},
		{
			Name:        "binance_analyze_portfolio_risk",
			Domain:      DomainAnalytics,
			Description: "Analyse margin usage, open futures positions and spot holdings, and suggest risk adjustments.",
			InputSchema: object(props{}),
			Example:     map[string]any{},
		},
		{
			Name:        "binance_compare_spot_futures_price",
			Domain:      DomainAnalytics,
			Description: "Compare the spot and perpetual futures price of an asset against USDT and flag basis arbitrage.",
			InputSchema: object(props{
				"symbol": stringProp("Base asset such as BTC or ETH. The USDT pair is compared."),
			}, "symbol"),
			Example: map[string]any{"symbol": "BTC"},
		},
		{
			Name:        "binance_calculate_funding_cost",
			Domain:      DomainAnalytics,
			Description: "Estimate the funding paid or received for holding a futures position, from the current funding rate.",
			InputSchema: object(props{
				"symbol":       symbolProp(),
				"positionSize": between(numberProp("Position size in the base asset, positive for long and negative for short"), -maxFundingPositionSize, maxFundingPositionSize),
				"holdHours":    atLeast(numberProp("How long the position is held, in hours"), 1),
			}, "symbol", "positionSize", "holdHours"),
			Example: map[string]any{"symbol": "BTCUSDT", "positionSize": 0.5, "holdHours": 24},
		},
		{
			Name:        "binance_check_order_precision",
			Domain:      DomainAnalytics,
			Description: "Check a price and quantity against the symbol's tick size, step size and minimum notional, and suggest valid values.",
			InputSchema: object(props{
				"symbol":   symbolProp(),
				"price":    atLeast(numberProp("Order price"), 0.01),
				"quantity": atLeast(numberProp("Order quantity"), 0.001),
				"market":   enumProp("Market whose rules apply (default spot)", string(domain.MarketSpot), string(domain.MarketFutures)),
			}, "symbol", "price", "quantity"),
			Example: map[string]any{"symbol": "BTCUSDT", "price": 50000.123, "quantity": 0.0015, "market": "spot"},
		},
		{
			Name:        "binance_get_optimal_trade_size",
			Domain:      DomainAnalytics,
			Description: "Walk the spot order book to find how much can be traded before the price moves more than the allowed impact.",
			InputSchema: object(props{
				"symbol":         symbolProp(),
				"side":           enumProp("BUY walks the asks, SELL walks the bids", domain.SideBuy, domain.SideSell),
				"maxPriceImpact": between(numberProp("Maximum accepted price impact in percent (default 1.0)"), minPriceImpact, maxPriceImpact),
			}, "symbol", "side"),
			Example: map[string]any{"symbol": "ETHUSDT", "side": "BUY", "maxPriceImpact": 0.5},
		},
	}
}

func (h *Handlers) HandleAnalyticsTool(ctx context.Context, name string, a Args) Result {
	switch name {
	case "binance_calculate_position_size":
		return h.positionSize(ctx, a)
	case "binance_analyze_portfolio_risk":
		return h.portfolioRisk(ctx)
	case "binance_compare_spot_futures_price":
		return h.compareSpotFutures(ctx, a)
	case "binance_calculate_funding_cost":
		return h.fundingCost(ctx, a)
	case "binance_check_order_precision":
		return h.orderPrecision(ctx, a)
	case "binance_get_optimal_trade_size":
		return h.optimalTradeSize(ctx, a)
	default:
		return unknownInDomain(DomainAnalytics, name)
	}
}

func pct(v float64, decimals int) string {
	return fmt.Sprintf("%.*f%%", decimals, v)
}

func atLeastOutcome(a Args, key string, min float64) validation.Outcome {
	n, err := a.number(key)
	switch {
	case err != nil:
		return validation.Outcome{Error: err.Error()}
	case n == nil:
		return validation.Outcome{Error: key + " is required"}
	case *n < min:
		return validation.Outcome{Error: fmt.Sprintf("%s must be at least %v, current value: %v", key, min, *n)}
	}
	return validation.Outcome{Valid: true, Data: *n}
}

func (h *Handlers) positionSize(ctx context.Context, a Args) Result {
	leverage := validation.Outcome{Error: "leverage is required"}
	if a.has("leverage") {
		leverage = numeric(a, "leverage", true, func(n *float64, _ bool) validation.Outcome {
			return validation.Leverage(n)
		})
	}
	checked := validation.All(
		validation.Check("symbol", validation.Symbol(a.str("symbol"), true)),
		validation.Check("riskAmount", atLeastOutcome(a, "riskAmount", minRiskAmount)),
		validation.Check("entryPrice", numeric(a, "entryPrice", true, validation.Price)),
		validation.Check("stopLossPrice", numeric(a, "stopLossPrice", true, validation.Price)),
		validation.Check("leverage", leverage),
	)
	if !checked.Valid {
		return invalid(checked)
	}
	v := checked.Values()
	symbol := v["symbol"].(string)
	risk := v["riskAmount"].(float64)
	entry := v["entryPrice"].(float64)
	stop := v["stopLossPrice"].(float64)
	lev := v["leverage"].(float64)
	if entry == stop {
		return invalidf("stopLossPrice must differ from entryPrice",
			"Long: stop below entry", "Short: stop above entry")
	}

	info, err := h.gw.ExchangeInfo(ctx, domain.MarketFutures)
	if err != nil {
		return fromError(err)
	}
	minQty := defaultMinQty
	if s, found := info.Symbol(symbol); found {
		if f, has := s.Filter(domain.FilterLotSize); has && f.MinQty.Sign() > 0 {
			minQty = f.MinQty.InexactFloat64()
		}
	}

	priceRisk := math.Abs(entry - stop)
	riskPerContract := priceRisk / lev
	maxContracts := math.Floor(risk / riskPerContract)
	recommended := math.Max(maxContracts*minQty, minQty)
	actualRisk := recommended * riskPerContract
	requiredMargin := recommended * entry / lev

	direction := domain.PositionSideLong
	if stop > entry {
		direction = domain.PositionSideShort
	}
	return ok(map[string]any{
		"recommendedSize": recommended,
		"actualRisk":      actualRisk,
		"requiredMargin":  requiredMargin,
		"riskPerContract": riskPerContract,
		"priceRisk":       priceRisk,
		"riskRatio":       pct(actualRisk/risk*100, 2),
		"analysis": map[string]any{
			"symbol":        symbol,
			"direction":     direction,
			"entryPrice":    entry,
			"stopLossPrice": stop,
			"leverage":      lev,
			"minQty":        minQty,
		},
		"warnings": checked.Warnings,
	})
}

func (h *Handlers) portfolioRisk(ctx context.Context) Result {
	var (
		futures   *domain.FuturesAccount
		spot      *domain.AccountInfo
		positions []domain.Position
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		futures, err = h.gw.FuturesAccount(gctx)
		return err
	})
	g.Go(func() (err error) {
		spot, err = h.gw.AccountInfo(gctx)
		return err
	})
	g.Go(func() (err error) {
		positions, err = h.gw.FuturesPositions(gctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return fromError(err)
	}

	total := futures.TotalMarginBalance.InexactFloat64()
	available := futures.AvailableBalance.InexactFloat64()
	used := total - available
	usage := 0.0
	if total > 0 {
		usage = used / total * 100
	}
	riskLevel := "LOW"
	switch {
	case usage > highMarginUsagePct:
		riskLevel = "HIGH"
	case usage > mediumMarginUsagePct:
		riskLevel = "MEDIUM"
	}

	open := positionsBySide(positions, "")
	var profitable, losing int
	var pnl float64
	for _, p := range open {
		u := p.UnRealizedProfit.InexactFloat64()
		pnl += u
		switch {
		case u > 0:
			profitable++
		case u < 0:
			losing++
		}
	}

	balances := spot.NonEmptyBalances()
	var spotTotal float64
	for _, b := range balances {
		spotTotal += b.Total().InexactFloat64()
	}

	recommendations := []string{}
	if usage > marginUsageAdvicePct {
		recommendations = append(recommendations, "Margin usage is high, reduce positions or add funds")
	}
	if float64(losing) > float64(len(open))*lossPositionShare {
		recommendations = append(recommendations, "Most positions are losing, review your stop-loss strategy")
	}
	if pnl < -total*unrealizedLossShare {
		recommendations = append(recommendations, "Unrealized losses are large, adjust your position management")
	}

	return ok(map[string]any{
		"overview": map[string]any{
			"totalBalance":     total,
			"availableBalance": available,
			"usedMargin":       used,
			"marginUsageRatio": pct(usage, 2),
			"riskLevel":        riskLevel,
		},
		"positions": map[string]any{
			"totalPositions":      len(open),
			"profitablePositions": profitable,
			"lossPositions":       losing,
			"totalUnrealizedPnl":  pnl,
		},
		"spotAssets": map[string]any{
			"totalAssets": len(balances),
			"totalValue":  spotTotal,
		},
		"recommendations": recommendations,
	})
}

// baseAssetArg accepts BTC as well as BTCUSDT and returns BTC.
func baseAssetArg(a Args) (string, Result, bool) {
	base := a.upper("symbol")
	if base == "" {
		return "", invalidf("symbol is required, e.g. BTC or ETH"), false
	}
	if trimmed := strings.TrimSuffix(base, "USDT"); trimmed != base && trimmed != "" {
		base = trimmed
	}
	if !baseAssetPattern.MatchString(base) {
		return "", invalidf(fmt.Sprintf("Invalid base asset: %q", a.str("symbol")), "Use the base asset only, e.g. BTC or ETH"), false
	}
	return base, Result{}, true
}

func (h *Handlers) compareSpotFutures(ctx context.Context, a Args) Result {
	base, res, valid := baseAssetArg(a)
	if !valid {
		return res
	}
	pair := base + "USDT"

	var spot, futures *domain.PriceTicker
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		spot, err = h.gw.Price(gctx, domain.MarketSpot, pair)
		return err
	})
	g.Go(func() (err error) {
		futures, err = h.gw.Price(gctx, domain.MarketFutures, pair)
		return err
	})
	if err := g.Wait(); err != nil {
		return fromError(err)
	}

	s := spot.Price.InexactFloat64()
	f := futures.Price.InexactFloat64()
	if s <= 0 {
		return unexpected(fmt.Sprintf("spot price for %s is not positive", pair))
	}
	diff := f - s
	diffPct := diff / s * 100

	opportunity := "NONE"
	if math.Abs(diffPct) > arbitrageThresholdPct {
		opportunity = "BUY_FUTURES_SELL_SPOT"
		if diffPct > 0 {
			opportunity = "SELL_FUTURES_BUY_SPOT"
		}
	}
	premium := "futures discount"
	if diffPct > 0 {
		premium = "futures premium"
	}
	significance := "NORMAL"
	if math.Abs(diffPct) > significantSpreadPct {
		significance = "SIGNIFICANT"
	}

	return ok(map[string]any{
		"symbol":               base,
		"pair":                 pair,
		"spotPrice":            s,
		"futuresPrice":         f,
		"priceDifference":      diff,
		"diffPercent":          pct(diffPct, 4),
		"arbitrageOpportunity": opportunity,
		"analysis": map[string]any{
			"premium":      premium,
			"significance": significance,
			"timestamp":    h.now().UnixMilli(),
		},
	})
}

func (h *Handlers) fundingCost(ctx context.Context, a Args) Result {
	size := validation.Outcome{Error: "positionSize is required, must be non-zero and at most 1000000 in absolute value"}
	if n, err := a.number("positionSize"); err != nil {
		size = validation.Outcome{Error: err.Error()}
	} else if n != nil && *n != 0 && math.Abs(*n) <= maxFundingPositionSize {
		size = validation.Outcome{Valid: true, Data: *n}
	}
	checked := validation.All(
		validation.Check("symbol", validation.Symbol(a.str("symbol"), true)),
		validation.Check("positionSize", size),
		validation.Check("holdHours", atLeastOutcome(a, "holdHours", 1)),
	)
	if !checked.Valid {
		return invalid(checked)
	}
	v := checked.Values()
	symbol := v["symbol"].(string)
	positionSize := v["positionSize"].(float64)
	hours := v["holdHours"].(float64)

	idx, err := h.gw.PremiumIndex(ctx, symbol)
	if err != nil {
		return fromError(err)
	}
	mark := idx.MarkPrice.InexactFloat64()
	rate := idx.LastFundingRate.InexactFloat64()
	settlements := int(math.Ceil(hours / fundingIntervalHours))
	notional := math.Abs(positionSize) * mark

	// Positive values are paid by the position holder.
	perSettlement := notional * rate
	side := domain.PositionSideLong
	if positionSize < 0 {
		side = domain.PositionSideShort
		perSettlement = -perSettlement
	}
	total := perSettlement * float64(settlements)
	direction := "you pay funding"
	if perSettlement < 0 {
		direction = "you receive funding"
	}

	return ok(map[string]any{
		"symbol":            symbol,
		"positionSide":      side,
		"positionSize":      positionSize,
		"markPrice":         mark,
		"fundingRate":       pct(rate*100, 4),
		"nextFundingTime":   format.Timestamp(idx.NextFundingTime),
		"notional":          notional,
		"holdHours":         hours,
		"settlements":       settlements,
		"costPerSettlement": perSettlement,
		"totalCost":         total,
		"dailyCost":         perSettlement * fundingSettlementsInDay,
		"hourlyCost":        perSettlement / fundingIntervalHours,
		"annualizedRate":    pct(rate*fundingSettlementsInDay*365*100, 2),
		"direction":         direction,
	})
}

type precisionCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// floorToStep aligns v down to min + k*step.
func floorToStep(v, min, step decimal.Decimal) decimal.Decimal {
	if step.Sign() <= 0 {
		return v
	}
	return v.Sub(min).Div(step).Floor().Mul(step).Add(min)
}

func ceilToStep(v, min, step decimal.Decimal) decimal.Decimal {
	if step.Sign() <= 0 {
		return v
	}
	return v.Sub(min).Div(step).Ceil().Mul(step).Add(min)
}

func (h *Handlers) orderPrecision(ctx context.Context, a Args) Result {
	checked := validation.All(
		validation.Check("symbol", validation.Symbol(a.str("symbol"), true)),
		validation.Check("price", numeric(a, "price", true, validation.Price)),
		validation.Check("quantity", numeric(a, "quantity", true, validation.Quantity)),
	)
	if !checked.Valid {
		return invalid(checked)
	}
	market, res, valid := marketArg(a)
	if !valid {
		return res
	}
	v := checked.Values()
	symbol := v["symbol"].(string)
	price := decimal.NewFromFloat(v["price"].(float64))
	qty := decimal.NewFromFloat(v["quantity"].(float64))

	info, err := h.gw.ExchangeInfo(ctx, market)
	if err != nil {
		return fromError(err)
	}
	sym, found := info.Symbol(symbol)
	if !found {
		return invalidf(fmt.Sprintf("Symbol %s is not listed on the %s market", symbol, market),
			"Check the symbol with binance_exchange_info")
	}

	var checks []precisionCheck
	add := func(name string, passed bool, detail string) {
		checks = append(checks, precisionCheck{Name: name, Passed: passed, Detail: detail})
	}
	suggestedPrice, suggestedQty := price, qty
	filters := map[string]any{}

	if f, has := sym.Filter(domain.FilterPrice); has {
		filters["tickSize"] = f.TickSize.String()
		if f.TickSize.Sign() > 0 {
			aligned := price.Sub(f.MinPrice).Mod(f.TickSize).IsZero()
			add("tickSize", aligned, fmt.Sprintf("price must be a multiple of %s", f.TickSize))
			suggestedPrice = floorToStep(price, f.MinPrice, f.TickSize)
		}
		if f.MinPrice.Sign() > 0 {
			add("minPrice", price.GreaterThanOrEqual(f.MinPrice), "price must be at least "+f.MinPrice.String())
			if suggestedPrice.LessThan(f.MinPrice) {
				suggestedPrice = f.MinPrice
			}
		}
		if f.MaxPrice.Sign() > 0 {
			add("maxPrice", price.LessThanOrEqual(f.MaxPrice), "price must be at most "+f.MaxPrice.String())
			if suggestedPrice.GreaterThan(f.MaxPrice) {
				suggestedPrice = f.MaxPrice
			}
		}
	}

	if f, has := sym.Filter(domain.FilterLotSize); has {
		filters["stepSize"] = f.StepSize.String()
		filters["minQty"] = f.MinQty.String()
		filters["maxQty"] = f.MaxQty.String()
		if f.StepSize.Sign() > 0 {
			aligned := qty.Sub(f.MinQty).Mod(f.StepSize).IsZero()
			add("stepSize", aligned, fmt.Sprintf("quantity must be a multiple of %s", f.StepSize))
			suggestedQty = floorToStep(qty, f.MinQty, f.StepSize)
		}
		if f.MinQty.Sign() > 0 {
			add("minQty", qty.GreaterThanOrEqual(f.MinQty), "quantity must be at least "+f.MinQty.String())
			if suggestedQty.LessThan(f.MinQty) {
				suggestedQty = f.MinQty
			}
		}
		if f.MaxQty.Sign() > 0 {
			add("maxQty", qty.LessThanOrEqual(f.MaxQty), "quantity must be at most "+f.MaxQty.String())
			if suggestedQty.GreaterThan(f.MaxQty) {
				suggestedQty = f.MaxQty
			}
		}
	}

	if minNotional, has := sym.MinNotional(); has {
		filters["minNotional"] = minNotional.String()
		notional := price.Mul(qty)
		add("minNotional", notional.GreaterThanOrEqual(minNotional),
			fmt.Sprintf("price x quantity = %s, minimum is %s", notional, minNotional))
		if suggestedPrice.Sign() > 0 && suggestedPrice.Mul(suggestedQty).LessThan(minNotional) {
			needed := minNotional.Div(suggestedPrice)
			if lot, hasLot := sym.Filter(domain.FilterLotSize); hasLot {
				needed = ceilToStep(needed, lot.MinQty, lot.StepSize)
			}
			suggestedQty = needed
		}
	}

	allPassed := true
	for _, c := range checks {
		allPassed = allPassed && c.Passed
	}
	return ok(map[string]any{
		"symbol":  symbol,
		"market":  market,
		"valid":   allPassed,
		"checks":  checks,
		"filters": filters,
		"suggested": map[string]any{
			"price":    suggestedPrice.String(),
			"quantity": suggestedQty.String(),
		},
	})
}

func (h *Handlers) optimalTradeSize(ctx context.Context, a Args) Result {
	impact := validation.Outcome{Valid: true, Data: defaultMaxPriceImpact}
	if n, err := a.number("maxPriceImpact"); err != nil {
		impact = validation.Outcome{Error: err.Error()}
	} else if n != nil {
		if *n < minPriceImpact || *n > maxPriceImpact {
			impact = validation.Outcome{Error: fmt.Sprintf("maxPriceImpact must be between %v and %v, current value: %v", minPriceImpact, maxPriceImpact, *n)}
		} else {
			impact.Data = *n
		}
	}
	checked := validation.All(
		validation.Check("symbol", validation.Symbol(a.str("symbol"), true)),
		validation.Check("side", validation.Side(a.str("side"), true)),
		validation.Check("maxPriceImpact", impact),
	)
	if !checked.Valid {
		return invalid(checked)
	}
	v := checked.Values()
	symbol := v["symbol"].(string)
	side := v["side"].(string)
	maxImpact := decimal.NewFromFloat(v["maxPriceImpact"].(float64))

	book, err := h.gw.SpotOrderBook(ctx, symbol, optimalTradeBookDepth)
	if err != nil {
		return fromError(err)
	}
	levels := book.Asks
	if side == domain.SideSell {
		levels = book.Bids
	}
	if len(levels) == 0 {
		return failure(KindExchange, fmt.Sprintf("order book for %s has no %s liquidity", symbol, strings.ToLower(side)))
	}

	hundred := decimal.NewFromInt(100)
	best := levels[0].Price
	if best.Sign() <= 0 {
		return failure(KindExchange, fmt.Sprintf("order book for %s has a non-positive best %s price: %s", symbol, strings.ToLower(side), best))
	}
	var qty, notional, lastImpact decimal.Decimal
	used := 0
	for _, l := range levels {
		dev := l.Price.Sub(best).Abs().Div(best).Mul(hundred)
		if dev.GreaterThan(maxImpact) {
			break
		}
		qty = qty.Add(l.Quantity)
		notional = notional.Add(l.Price.Mul(l.Quantity))
		lastImpact = dev
		used++
	}
	if qty.IsZero() {
		return failure(KindExchange, fmt.Sprintf("order book for %s reports no quantity at the best price", symbol))
	}
	avg := notional.Div(qty)
	effective := avg.Sub(best).Abs().Div(best).Mul(hundred)

	return ok(map[string]any{
		"symbol":           symbol,
		"side":             side,
		"bestPrice":        best.InexactFloat64(),
		"maxPriceImpact":   pct(maxImpact.InexactFloat64(), 2),
		"optimalQuantity":  qty.InexactFloat64(),
		"notional":         notional.InexactFloat64(),
		"averagePrice":     avg.InexactFloat64(),
		"levelsUsed":       used,
		"levelsAvailable":  len(levels),
		"effectiveImpact":  pct(effective.InexactFloat64(), 4),
		"worstLevelImpact": pct(lastImpact.InexactFloat64(), 4),
	})
}
