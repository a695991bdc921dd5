package job

import (
	"context"
	"log"
	"sync"
	"time"

	"binance-mcp/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultHealthInterval = time.Minute
	checkTimeout          = 10 * time.Second
)

type ExchangePinger interface {
	Ping(ctx context.Context) error
	ServerTime(ctx context.Context) (int64, error)
}

// ConnectivityMonitor pings the exchange on a fixed period and keeps the last
// result for health endpoints.
type ConnectivityMonitor struct {
	tracer   trace.Tracer
	pinger   ExchangePinger
	testnet  bool
	interval time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	status   domain.ConnectivityStatus
	onChange func(prev, cur domain.ConnectivityStatus)
}

func NewConnectivityMonitor(tracer trace.Tracer, pinger ExchangePinger, testnet bool, pollSecs int) *ConnectivityMonitor {
	interval := time.Duration(pollSecs) * time.Second
	if interval <= 0 {
		interval = defaultHealthInterval
	}
	return &ConnectivityMonitor{
		tracer:   tracer,
		pinger:   pinger,
		testnet:  testnet,
		interval: interval,
		now:      time.Now,
		status:   domain.ConnectivityStatus{Testnet: testnet, Error: "not checked yet"},
	}
}

// OnChange registers fn to run whenever Connected flips.
func (m *ConnectivityMonitor) OnChange(fn func(prev, cur domain.ConnectivityStatus)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// Start checks immediately and then on every tick. Blocks until ctx is
// cancelled.
func (m *ConnectivityMonitor) Start(ctx context.Context) {
	log.Printf("Connectivity monitor starting (every %s)...", m.interval)
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Connectivity monitor stopped")
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check runs one ping and server time round trip and stores the result.
func (m *ConnectivityMonitor) Check(ctx context.Context) domain.ConnectivityStatus {
	ctx, span := m.tracer.Start(ctx, "job.connectivity-check")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	st := domain.ConnectivityStatus{Testnet: m.testnet}
	if err := m.pinger.Ping(ctx); err != nil {
		st.Error = err.Error()
	} else {
		before := m.now()
		serverTime, err := m.pinger.ServerTime(ctx)
		after := m.now()
		if err != nil {
			st.Error = err.Error()
		} else {
			midpoint := before.Add(after.Sub(before) / 2)
			st.Connected = true
			st.ServerTime = serverTime
			st.ClockDriftMs = serverTime - midpoint.UnixMilli()
		}
	}
	st.CheckedAt = m.now().UTC()
	span.SetAttributes(
		attribute.Bool("binance.connected", st.Connected),
		attribute.Int64("binance.clock_drift_ms", st.ClockDriftMs),
	)

	m.mu.Lock()
	prev := m.status
	m.status = st
	hook := m.onChange
	m.mu.Unlock()

	if !st.Connected {
		log.Printf("Binance connectivity check failed: %s", st.Error)
	}
	if hook != nil && prev.Connected != st.Connected && !prev.CheckedAt.IsZero() {
		hook(prev, st)
	}
	return st
}

func (m *ConnectivityMonitor) Status() domain.ConnectivityStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}
