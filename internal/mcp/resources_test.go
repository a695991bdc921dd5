package mcp

import (
	"context"
	"testing"
	"time"

	"binance-mcp/internal/domain"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestResourcesStaticAndTemplated(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, _, invocations := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	list, err := session.ListResources(ctx, &sdkmcp.ListResourcesParams{})
	if err != nil {
		t.Fatalf("list resources failed: %v", err)
	}
	if len(list.Resources) != 2 {
		t.Fatalf("expected 2 static resources, got %d", len(list.Resources))
	}

	templates, err := session.ListResourceTemplates(ctx, &sdkmcp.ListResourceTemplatesParams{})
	if err != nil {
		t.Fatalf("list templates failed: %v", err)
	}
	if len(templates.ResourceTemplates) != 1 {
		t.Fatalf("expected 1 resource template, got %d", len(templates.ResourceTemplates))
	}

	readRes, err := session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "binance://tools"})
	if err != nil {
		t.Fatalf("read catalogue failed: %v", err)
	}
	var cat catalogueOutput
	if err := decodeResourceJSON(readRes, &cat); err != nil {
		t.Fatalf("decode catalogue failed: %v", err)
	}
	if cat.Total != 35 || len(cat.Domains["analytics"]) != 6 {
		t.Fatalf("unexpected catalogue: total=%d analytics=%d", cat.Total, len(cat.Domains["analytics"]))
	}

	readRes, err = session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "binance://status"})
	if err != nil {
		t.Fatalf("read status failed: %v", err)
	}
	var status domain.ConnectivityStatus
	if err := decodeResourceJSON(readRes, &status); err != nil {
		t.Fatalf("decode status failed: %v", err)
	}
	if !status.Connected || status.ClockDriftMs != 12 {
		t.Fatalf("unexpected status: %+v", status)
	}

	readRes, err = session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "binance://invocations/recent?limit=1"})
	if err != nil {
		t.Fatalf("read invocations failed: %v", err)
	}
	var out invocationsOutput
	if err := decodeResourceJSON(readRes, &out); err != nil {
		t.Fatalf("decode invocations failed: %v", err)
	}
	if len(out.Invocations) != 1 || invocations.lastLimit != 1 {
		t.Fatalf("expected one invocation with limit 1, got %d (limit %d)", len(out.Invocations), invocations.lastLimit)
	}
}

func TestUnknownResource(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, _, _ := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	_, err = session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "binance://orders/open"})
	if err == nil {
		t.Fatal("expected resource not found error for binance://orders/open")
	}
}

func TestNormalizeInvocationLimit(t *testing.T) {
	cases := map[int]int{0: defaultInvocationLimit, -3: defaultInvocationLimit, 20: 20, 10000: maxInvocationLimit}
	for in, want := range cases {
		if got := normalizeInvocationLimit(in); got != want {
			t.Fatalf("normalizeInvocationLimit(%d): expected %d, got %d", in, want, got)
		}
	}
}
