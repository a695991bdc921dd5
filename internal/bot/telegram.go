package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"binance-mcp/internal/domain"

	tele "gopkg.in/telebot.v3"
)

type StatusChecker interface {
	Check(ctx context.Context) domain.ConnectivityStatus
}

// StartTelegramBot starts the bot and its notifier. It returns nil when
// TELEGRAM_BOT_TOKEN is unset.
func StartTelegramBot(ctx context.Context, status StatusChecker, chatIDs []int64) *TradeNotifier {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}
	notifier := NewTradeNotifier(b, chatIDs...)
	registerHandlers(b, status, notifier)

	log.Printf("Telegram bot started (%d chats subscribed)", notifier.SubscriberCount())
	go b.Start()
	go notifier.Run(ctx)
	go func() {
		<-ctx.Done()
		b.Stop()
	}()
	return notifier
}

type handlerRegistrar interface {
	Handle(endpoint interface{}, h tele.HandlerFunc, m ...tele.MiddlewareFunc)
}

func registerHandlers(b handlerRegistrar, status StatusChecker, notifier *TradeNotifier) {
	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/status", func(c tele.Context) error {
		if status == nil {
			return c.Send("Status check unavailable")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return c.Send(formatStatus(status.Check(ctx)))
	})

	b.Handle("/alerts", func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return c.Send("Unable to detect chat")
		}
		return c.Send(alertsReply(notifier, chat.ID, c.Args()))
	})
}

func alertsReply(notifier *TradeNotifier, chatID int64, args []string) string {
	mode, err := parseAlertMode(args)
	if err != nil {
		return "Usage: /alerts on | /alerts off | /alerts status"
	}

	switch mode {
	case "on":
		added, err := notifier.Subscribe(chatID)
		if errors.Is(err, ErrChatNotAllowed) {
			log.Printf("refused /alerts on from chat %d", chatID)
			return "This chat is not allowed to receive trade notifications."
		}
		if added {
			return "Trade notifications enabled for this chat."
		}
		return "Trade notifications are already enabled for this chat."
	case "off":
		if notifier.Unsubscribe(chatID) {
			return "Trade notifications disabled for this chat."
		}
		return "Trade notifications are already disabled for this chat."
	default:
		if notifier.IsSubscribed(chatID) {
			return "Notifications status: ON"
		}
		return "Notifications status: OFF"
	}
}

func formatStatus(st domain.ConnectivityStatus) string {
	network := "mainnet"
	if st.Testnet {
		network = "testnet"
	}
	if !st.Connected {
		return fmt.Sprintf("🔴 Binance %s unreachable\nError: %s", network, st.Error)
	}
	lines := []string{
		fmt.Sprintf("🟢 Binance %s reachable", network),
		"Server time: " + time.UnixMilli(st.ServerTime).UTC().Format(time.RFC3339),
		fmt.Sprintf("Clock drift: %dms", st.ClockDriftMs),
	}
	return strings.Join(lines, "\n")
}
