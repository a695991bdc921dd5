package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	"binance-mcp/internal/domain"

	tele "gopkg.in/telebot.v3"
)

func TestStartTelegramBotSkipsWithoutToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	if n := StartTelegramBot(context.Background(), nil, []int64{1}); n != nil {
		t.Fatal("expected nil notifier without token")
	}
}

func TestRegisterHandlersEndpoints(t *testing.T) {
	reg := &recordingRegistrar{}
	registerHandlers(reg, nil, NewTradeNotifier(nil))

	want := []string{"/ping", "/status", "/alerts"}
	if len(reg.endpoints) != len(want) {
		t.Fatalf("expected %v, got %v", want, reg.endpoints)
	}
	for i, e := range want {
		if reg.endpoints[i] != e {
			t.Fatalf("expected %v, got %v", want, reg.endpoints)
		}
	}
}

func TestAlertsReply(t *testing.T) {
	n := NewTradeNotifier(nil, 42)

	if got := alertsReply(n, 999, []string{"on"}); got != "This chat is not allowed to receive trade notifications." {
		t.Fatalf("expected refusal for unlisted chat, got %q", got)
	}
	if n.IsSubscribed(999) {
		t.Fatal("unlisted chat must not be subscribed")
	}
	if got := alertsReply(n, 999, nil); got != "Notifications status: OFF" {
		t.Fatalf("unexpected status reply %q", got)
	}

	if got := alertsReply(n, 42, []string{"off"}); got != "Trade notifications disabled for this chat." {
		t.Fatalf("unexpected reply %q", got)
	}
	if got := alertsReply(n, 42, []string{"on"}); got != "Trade notifications enabled for this chat." {
		t.Fatalf("unexpected reply %q", got)
	}
	if got := alertsReply(n, 42, []string{"on"}); got != "Trade notifications are already enabled for this chat." {
		t.Fatalf("unexpected reply %q", got)
	}
	if got := alertsReply(n, 42, []string{"maybe"}); !strings.HasPrefix(got, "Usage:") {
		t.Fatalf("expected usage, got %q", got)
	}
}

func TestFormatStatus(t *testing.T) {
	up := formatStatus(domain.ConnectivityStatus{
		Connected:    true,
		Testnet:      true,
		ServerTime:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).UnixMilli(),
		ClockDriftMs: -40,
	})
	if !strings.HasPrefix(up, "🟢 Binance testnet reachable") || !strings.Contains(up, "2024-01-02T03:04:05Z") || !strings.Contains(up, "-40ms") {
		t.Fatalf("unexpected status text: %q", up)
	}

	down := formatStatus(domain.ConnectivityStatus{Error: "API error 418: banned"})
	if down != "🔴 Binance mainnet unreachable\nError: API error 418: banned" {
		t.Fatalf("unexpected status text: %q", down)
	}
}

type recordingRegistrar struct {
	endpoints []string
}

func (r *recordingRegistrar) Handle(endpoint interface{}, h tele.HandlerFunc, m ...tele.MiddlewareFunc) {
	r.endpoints = append(r.endpoints, endpoint.(string))
}
