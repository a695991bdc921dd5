package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"binance-mcp/internal/tools"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestToolsListAndInvoke(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, dispatcher, _ := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	list, err := session.ListTools(ctx, &sdkmcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("list tools failed: %v", err)
	}
	if len(list.Tools) != len(tools.AllTools()) {
		t.Fatalf("expected %d tools, got %d", len(tools.AllTools()), len(list.Tools))
	}

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "binance_spot_price", Arguments: map[string]any{"symbol": "btcusdt"}})
	if err != nil {
		t.Fatalf("call tool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", textOf(res))
	}
	if !strings.Contains(textOf(res), "\n  \"price\": 50000.5") {
		t.Fatalf("expected indented JSON, got %q", textOf(res))
	}
	if res.StructuredContent == nil {
		t.Fatal("expected structured content for object data")
	}

	var args map[string]any
	if err := json.Unmarshal(dispatcher.lastArgs, &args); err != nil {
		t.Fatalf("decode forwarded args: %v", err)
	}
	if dispatcher.lastName != "binance_spot_price" || args["symbol"] != "btcusdt" {
		t.Fatalf("unexpected dispatch: %s %v", dispatcher.lastName, args)
	}
}

func TestToolsTextAndListResults(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, _, _ := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "binance_spot_balances"})
	if err != nil {
		t.Fatalf("call tool failed: %v", err)
	}
	if textOf(res) != "💰 Spot balances\n\nBTC: 0.1" {
		t.Fatalf("expected text data verbatim, got %q", textOf(res))
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "binance_futures_open_orders", Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("call tool failed: %v", err)
	}
	if res.IsError || !strings.HasPrefix(textOf(res), "[") {
		t.Fatalf("expected JSON array text, got %q", textOf(res))
	}
}

func TestToolsFailureRendering(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, _, _ := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "binance_spot_place_order",
		Arguments: map[string]any{"symbol": "BTCUSDT", "side": "BUY", "type": "LIMIT", "quantity": 1},
	})
	if err != nil {
		t.Fatalf("unexpected protocol error: %v", err)
	}
	if !res.IsError || !strings.HasPrefix(textOf(res), "❌ Parameter validation failed") {
		t.Fatalf("expected validation text unwrapped, got %q", textOf(res))
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "binance_account_info"})
	if err != nil {
		t.Fatalf("unexpected protocol error: %v", err)
	}
	want := failureHeader + "\n\nAPI error 401: Invalid API-key\n\n" + failureFooter
	if !res.IsError || textOf(res) != want {
		t.Fatalf("expected wrapped failure, got %q", textOf(res))
	}
}

func TestUnregisteredToolIsProtocolError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, _, _ := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	if _, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "binance_make_coffee"}); err == nil {
		t.Fatal("expected error for an unregistered tool")
	}
}

func TestFailureTextRules(t *testing.T) {
	cases := []struct {
		res  tools.Result
		want string
	}{
		{tools.Result{Error: "unknown tool: x", Kind: tools.KindUnknownTool}, "unknown tool: x"},
		{tools.Result{Error: "boom\n\n💡 retry", Kind: tools.KindUnexpected}, "boom\n\n💡 retry"},
		{tools.Result{Error: "timeout", Kind: tools.KindGateway}, failureHeader + "\n\ntimeout\n\n" + failureFooter},
	}
	for _, c := range cases {
		if got := failureText(c.res); got != c.want {
			t.Fatalf("failureText(%+v): expected %q, got %q", c.res, c.want, got)
		}
	}
}
