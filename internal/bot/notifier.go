package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"binance-mcp/internal/domain"

	tele "gopkg.in/telebot.v3"
)

const notifyQueueSize = 64

// ErrChatNotAllowed is returned when a chat outside TELEGRAM_CHAT_IDS asks
// for notifications.
var ErrChatNotAllowed = errors.New("chat is not allowed to receive trade notifications")

type messageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// tradingTools are the state-changing tools whose successful calls are
// broadcast.
var tradingTools = map[string]struct{}{
	"binance_spot_place_order":          {},
	"binance_spot_cancel_order":         {},
	"binance_spot_cancel_all_orders":    {},
	"binance_futures_place_order":       {},
	"binance_futures_cancel_order":      {},
	"binance_futures_cancel_all_orders": {},
	"binance_futures_close_position":    {},
	"binance_futures_change_leverage":   {},
	"binance_futures_set_margin_type":   {},
}

// TradeNotifier forwards successful trading tool calls to subscribed chats.
// Messages are queued so a slow Telegram API never holds up a tool call.
// Only the configured chats may subscribe, and only invocations made with
// the notifier's account are forwarded.
type TradeNotifier struct {
	sender messageSender
	queue  chan string

	mu          sync.RWMutex
	allowed     map[int64]struct{}
	subscribers map[int64]struct{}
	account     string
}

func NewTradeNotifier(sender messageSender, chatIDs ...int64) *TradeNotifier {
	n := &TradeNotifier{
		sender:      sender,
		queue:       make(chan string, notifyQueueSize),
		allowed:     make(map[int64]struct{}),
		subscribers: make(map[int64]struct{}),
	}
	for _, id := range chatIDs {
		n.allowed[id] = struct{}{}
		n.subscribers[id] = struct{}{}
	}
	return n
}

// SetAccount limits Observe to invocations recorded for account.
func (n *TradeNotifier) SetAccount(account string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.account = account
}

// Subscribe reports false when chatID is already subscribed.
func (n *TradeNotifier) Subscribe(chatID int64) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.allowed[chatID]; !ok {
		return false, ErrChatNotAllowed
	}
	if _, exists := n.subscribers[chatID]; exists {
		return false, nil
	}
	n.subscribers[chatID] = struct{}{}
	return true, nil
}

func (n *TradeNotifier) Unsubscribe(chatID int64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.subscribers[chatID]; !exists {
		return false
	}
	delete(n.subscribers, chatID)
	return true
}

func (n *TradeNotifier) IsSubscribed(chatID int64) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	_, exists := n.subscribers[chatID]
	return exists
}

func (n *TradeNotifier) SubscriberCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subscribers)
}

// Observe queues a message for successful trading invocations and ignores
// everything else.
func (n *TradeNotifier) Observe(ctx context.Context, inv domain.ToolInvocation) {
	if n == nil || !inv.Success {
		return
	}
	if _, ok := tradingTools[inv.Tool]; !ok {
		return
	}
	n.mu.RLock()
	account := n.account
	n.mu.RUnlock()
	if inv.Account != account {
		return
	}
	n.enqueue(formatTradeMessage(inv))
}

// NotifyConnectivity announces a connectivity transition.
func (n *TradeNotifier) NotifyConnectivity(prev, cur domain.ConnectivityStatus) {
	if n == nil {
		return
	}
	if cur.Connected {
		n.enqueue("🟢 Binance connectivity restored")
		return
	}
	n.enqueue("🔴 Binance connectivity lost: " + cur.Error)
}

func (n *TradeNotifier) enqueue(msg string) {
	select {
	case n.queue <- msg:
	default:
		log.Printf("trade notification dropped, queue full: %q", firstLine(msg))
	}
}

// Run delivers queued messages until ctx is cancelled.
func (n *TradeNotifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-n.queue:
			if err := n.broadcast(msg); err != nil {
				log.Printf("trade notification error: %v", err)
			}
		}
	}
}

func (n *TradeNotifier) broadcast(msg string) error {
	if n.sender == nil {
		return nil
	}
	chatIDs := n.snapshotSubscribers()
	var failures []string
	for _, chatID := range chatIDs {
		if _, err := n.sender.Send(&tele.Chat{ID: chatID}, msg); err != nil {
			failures = append(failures, fmt.Sprintf("chat %d: %v", chatID, err))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("failed sending %d notifications: %s", len(failures), strings.Join(failures, "; "))
	}
	return nil
}

func (n *TradeNotifier) snapshotSubscribers() []int64 {
	n.mu.RLock()
	defer n.mu.RUnlock()

	chatIDs := make([]int64, 0, len(n.subscribers))
	for chatID := range n.subscribers {
		chatIDs = append(chatIDs, chatID)
	}
	sort.Slice(chatIDs, func(i, j int) bool { return chatIDs[i] < chatIDs[j] })
	return chatIDs
}

func parseAlertMode(args []string) (string, error) {
	if len(args) == 0 {
		return "status", nil
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "on":
		return "on", nil
	case "off":
		return "off", nil
	case "status":
		return "status", nil
	default:
		return "", fmt.Errorf("invalid mode")
	}
}

func formatTradeMessage(inv domain.ToolInvocation) string {
	lines := []string{
		fmt.Sprintf("✅ %s (%s)", strings.TrimPrefix(inv.Tool, "binance_"), inv.Domain),
	}

	var args map[string]any
	if len(inv.Arguments) > 0 && json.Unmarshal(inv.Arguments, &args) == nil {
		keys := make([]string, 0, len(args))
		for k := range args {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s: %v", k, args[k]))
		}
	}
	lines = append(lines, inv.CreatedAt.UTC().Format(time.RFC822))
	return strings.Join(lines, "\n")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
