package tools

import (
	"context"
	"sync"

	"binance-mcp/internal/format"
)

func AccountTools() []Descriptor {
	return []Descriptor{
		{
			Name:        "binance_account_info",
			Domain:      DomainAccount,
			Description: "Get spot account information: account type, trading permissions and a summary of non-empty balances.",
			InputSchema: object(props{}),
			Example:     map[string]any{},
		},
		{
			Name:        "binance_spot_balances",
			Domain:      DomainAccount,
			Description: "List spot balances with available and locked amounts. Empty balances are hidden.",
			InputSchema: object(props{}),
			Example:     map[string]any{},
		},
		{
			Name:        "binance_portfolio_account",
			Domain:      DomainAccount,
			Description: "Get USD-M futures account totals: wallet, margin and available balance, plus every asset with a wallet balance.",
			InputSchema: object(props{}),
			Example:     map[string]any{},
		},
		{
			Name:        "binance_futures_positions",
			Domain:      DomainAccount,
			Description: "Summarise open futures positions with PnL, leverage and distance to liquidation. Optionally filter by symbol.",
			InputSchema: object(props{"symbol": symbolProp()}),
			Example:     map[string]any{"symbol": "BTCUSDT"},
		},
		{
			Name:        "binance_account_status",
			Domain:      DomainAccount,
			Description: "Check API connectivity and the clock offset between this server and the exchange.",
			InputSchema: object(props{}),
			Example:     map[string]any{},
		},
	}
}

func (h *Handlers) HandleAccountTool(ctx context.Context, name string, a Args) Result {
	switch name {
	case "binance_account_info":
		acct, err := h.gw.AccountInfo(ctx)
		if err != nil {
			return fromError(err)
		}
		return ok(map[string]any{
			"summary":      format.AccountInfo(*acct),
			"accountType":  acct.AccountType,
			"canTrade":     acct.CanTrade,
			"canWithdraw":  acct.CanWithdraw,
			"canDeposit":   acct.CanDeposit,
			"updateTime":   acct.UpdateTime,
			"permissions":  acct.Permissions,
			"balanceCount": len(acct.NonEmptyBalances()),
		})

	case "binance_spot_balances":
		acct, err := h.gw.AccountInfo(ctx)
		if err != nil {
			return fromError(err)
		}
		return ok(format.Balances(acct.NonEmptyBalances(), h.now()))

	case "binance_portfolio_account":
		acct, err := h.gw.FuturesAccount(ctx)
		if err != nil {
			return fromError(err)
		}
		assets := make([]map[string]any, 0, len(acct.Assets))
		for _, as := range acct.Assets {
			if as.WalletBalance.Sign() <= 0 {
				continue
			}
			assets = append(assets, map[string]any{
				"asset":            as.Asset,
				"walletBalance":    as.WalletBalance.InexactFloat64(),
				"unrealizedProfit": as.UnrealizedProfit.InexactFloat64(),
				"marginBalance":    as.MarginBalance.InexactFloat64(),
				"availableBalance": as.AvailableBalance.InexactFloat64(),
			})
		}
		return ok(map[string]any{
			"totalWalletBalance":    acct.TotalWalletBalance.InexactFloat64(),
			"totalUnrealizedProfit": acct.TotalUnrealizedProfit.InexactFloat64(),
			"totalMarginBalance":    acct.TotalMarginBalance.InexactFloat64(),
			"availableBalance":      acct.AvailableBalance.InexactFloat64(),
			"maxWithdrawAmount":     acct.MaxWithdrawAmount.InexactFloat64(),
			"canTrade":              acct.CanTrade,
			"assets":                assets,
		})

	case "binance_futures_positions":
		symbol, res, valid := symbolArg(a, false)
		if !valid {
			return res
		}
		positions, err := h.gw.FuturesPositions(ctx, symbol)
		if err != nil {
			return fromError(err)
		}
		return ok(format.Positions(positions))

	case "binance_account_status":
		return h.accountStatus(ctx)

	default:
		return unknownInDomain(DomainAccount, name)
	}
}

// accountStatus runs the ping and the time lookup concurrently. A failed
// ping is reported as a connectivity flag; a failed time lookup fails the
// call.
func (h *Handlers) accountStatus(ctx context.Context) Result {
	var (
		wg         sync.WaitGroup
		pingErr    error
		serverTime int64
		timeErr    error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		pingErr = h.gw.Ping(ctx)
	}()
	go func() {
		defer wg.Done()
		serverTime, timeErr = h.gw.ServerTime(ctx)
	}()
	wg.Wait()

	if timeErr != nil {
		return fromError(timeErr)
	}
	local := h.now().UnixMilli()
	return ok(map[string]any{
		"connectivity":   pingErr == nil,
		"serverTime":     serverTime,
		"localTime":      local,
		"timeDifference": local - serverTime,
		"testnet":        h.gw.IsTestnet(),
	})
}
