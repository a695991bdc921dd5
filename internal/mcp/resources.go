package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerResources(server *mcp.Server, dispatcher Dispatcher, status StatusReader, invocations InvocationLister) {
	server.AddResource(&mcp.Resource{
		URI:         "binance://tools",
		Name:        "tool-catalogue",
		Description: "Every Binance tool grouped by domain, with its required arguments",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		_ = ctx
		return jsonResource(req.Params.URI, catalogue(dispatcher.Descriptors()))
	})

	server.AddResource(&mcp.Resource{
		URI:         "binance://status",
		Name:        "connectivity-status",
		Description: "Last exchange connectivity check and clock drift",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if status == nil {
			return nil, fmt.Errorf("connectivity monitor unavailable")
		}
		return jsonResource(req.Params.URI, status.Status())
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "binance://invocations/recent{?limit}",
		Name:        "recent-invocations",
		Description: "Most recent tool invocations made with this session's Binance account; optional limit query param",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if invocations == nil {
			return nil, fmt.Errorf("invocation log unavailable")
		}

		parsed, err := url.Parse(req.Params.URI)
		if err != nil {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if parsed.Scheme != "binance" || parsed.Host != "invocations" || strings.Trim(parsed.Path, "/") != "recent" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		limit := defaultInvocationLimit
		if rawLimit := strings.TrimSpace(parsed.Query().Get("limit")); rawLimit != "" {
			n, err := strconv.Atoi(rawLimit)
			if err != nil {
				return nil, fmt.Errorf("invalid limit: %s", rawLimit)
			}
			limit = normalizeInvocationLimit(n)
		}

		list, err := invocations.ListRecent(ctx, limit)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, invocationsOutput{Invocations: list})
	})
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		}},
	}, nil
}
