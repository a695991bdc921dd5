package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// ToolInvocation is the audit record of a single tool dispatch. Account
// scopes it to the Binance key that made the call.
type ToolInvocation struct {
	ID         string          `json:"id"`
	Account    string          `json:"account,omitempty"`
	Tool       string          `json:"tool"`
	Domain     string          `json:"domain"`
	Arguments  json.RawMessage `json:"arguments,omitempty"`
	Success    bool            `json:"success"`
	ErrorKind  string          `json:"error_kind,omitempty"`
	Error      string          `json:"error,omitempty"`
	DurationMs int64           `json:"duration_ms"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AccountKey derives a stable, non-reversible account id from a Binance API
// key. An empty key maps to the empty account.
func AccountKey(apiKey string) string {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:8])
}

// Market selects spot or USD-M futures endpoints.
type Market string

const (
	MarketSpot    Market = "spot"
	MarketFutures Market = "futures"
)

// ConnectivityStatus is the last result of a periodic exchange ping.
type ConnectivityStatus struct {
	Connected    bool      `json:"connected"`
	Testnet      bool      `json:"testnet"`
	ServerTime   int64     `json:"server_time,omitempty"`
	ClockDriftMs int64     `json:"clock_drift_ms"`
	CheckedAt    time.Time `json:"checked_at"`
	Error        string    `json:"error,omitempty"`
}
