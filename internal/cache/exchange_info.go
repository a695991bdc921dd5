package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"binance-mcp/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	exchangeInfoKeyPrefix  = "binance:exchange-info:"
	defaultExchangeInfoTTL = 5 * time.Minute
)

// ExchangeInfoStore keeps exchange info snapshots in Redis, one key per
// market. Redis failures are logged and read as a miss.
type ExchangeInfoStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewExchangeInfoStore(client *redis.Client, ttl time.Duration) *ExchangeInfoStore {
	if ttl <= 0 {
		ttl = defaultExchangeInfoTTL
	}
	return &ExchangeInfoStore{client: client, ttl: ttl, logger: slog.Default()}
}

func ExchangeInfoKey(market domain.Market) string {
	return exchangeInfoKeyPrefix + string(market)
}

func (s *ExchangeInfoStore) Load(ctx context.Context, market domain.Market) (*domain.ExchangeInfo, bool) {
	if s == nil || s.client == nil {
		return nil, false
	}
	raw, err := s.client.Get(ctx, ExchangeInfoKey(market)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("exchange info cache read failed", "market", market, "error", err)
		}
		return nil, false
	}
	var info domain.ExchangeInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		s.logger.Warn("exchange info cache entry corrupt", "market", market, "error", err)
		return nil, false
	}
	return &info, true
}

func (s *ExchangeInfoStore) Store(ctx context.Context, market domain.Market, info *domain.ExchangeInfo) {
	if s == nil || s.client == nil || info == nil {
		return
	}
	raw, err := json.Marshal(info)
	if err != nil {
		s.logger.Warn("exchange info encode failed", "market", market, "error", err)
		return
	}
	if err := s.client.Set(ctx, ExchangeInfoKey(market), raw, s.ttl).Err(); err != nil {
		s.logger.Warn("exchange info cache write failed", "market", market, "error", err)
	}
}
