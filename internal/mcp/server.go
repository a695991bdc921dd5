// Package mcp exposes the tool registry over the Model Context Protocol, on
// stdio or streamable HTTP.
package mcp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultRequestTimeout = 15 * time.Second

	apiKeyHeader    = "X-Binance-Api-Key"
	secretKeyHeader = "X-Binance-Secret-Key"
)

type ServerConfig struct {
	Name           string
	Version        string
	RequestTimeout time.Duration
}

// SessionFactory builds a server bound to caller-supplied Binance credentials.
type SessionFactory func(apiKey, secretKey string) *sdkmcp.Server

func NewServer(tracer trace.Tracer, dispatcher Dispatcher, status StatusReader, invocations InvocationLister, cfg ServerConfig) *sdkmcp.Server {
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	name := cfg.Name
	if name == "" {
		name = "binance-mcp"
	}
	version := cfg.Version
	if version == "" {
		version = "1.0.0"
	}

	srv := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    name,
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: "Use these tools to query Binance market data, inspect spot and futures accounts, " +
			"place or cancel orders and run risk calculations. Arguments are validated before any order is sent.",
		Logger: slog.Default(),
	})

	srv.AddReceivingMiddleware(timeoutMiddleware(requestTimeout))
	if tracer != nil {
		srv.AddReceivingMiddleware(tracingMiddleware(tracer))
	}

	registerTools(srv, dispatcher)
	registerResources(srv, dispatcher, status, invocations)
	return srv
}

// NewHTTPTransportHandler serves server over streamable HTTP. A session that
// opens with both credential headers gets its own server from sessions.
func NewHTTPTransportHandler(server *sdkmcp.Server, sessions SessionFactory, cfg HTTPHandlerConfig) http.Handler {
	base := sdkmcp.NewStreamableHTTPHandler(func(r *http.Request) *sdkmcp.Server {
		if sessions == nil {
			return server
		}
		key, secret := credentialHeaders(r)
		if key == "" || secret == "" {
			return server
		}
		return sessions(key, secret)
	}, &sdkmcp.StreamableHTTPOptions{})
	return wrapHTTPHandler(base, cfg)
}

func credentialHeaders(r *http.Request) (string, string) {
	return strings.TrimSpace(r.Header.Get(apiKeyHeader)), strings.TrimSpace(r.Header.Get(secretKeyHeader))
}

func timeoutMiddleware(timeout time.Duration) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if timeout <= 0 {
				return next(ctx, method, req)
			}
			timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(timeoutCtx, method, req)
		}
	}
}

func tracingMiddleware(tracer trace.Tracer) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			spanName := mcpSpanName(method, req)
			ctx, span := tracer.Start(ctx, spanName)
			span.SetAttributes(attribute.String("mcp.method", method))
			defer span.End()

			if callReq, ok := req.(*sdkmcp.CallToolRequest); ok {
				span.SetAttributes(attribute.String("mcp.tool", strings.TrimSpace(callReq.Params.Name)))
			}
			if readReq, ok := req.(*sdkmcp.ReadResourceRequest); ok {
				span.SetAttributes(attribute.String("mcp.resource.uri", strings.TrimSpace(readReq.Params.URI)))
			}

			result, err := next(ctx, method, req)
			if err != nil {
				span.RecordError(err)
			}
			if toolRes, ok := result.(*sdkmcp.CallToolResult); ok && toolRes != nil {
				span.SetAttributes(attribute.Bool("mcp.tool.error", toolRes.IsError))
			}
			return result, err
		}
	}
}

func mcpSpanName(method string, req sdkmcp.Request) string {
	switch method {
	case "tools/call":
		if callReq, ok := req.(*sdkmcp.CallToolRequest); ok {
			name := strings.TrimSpace(callReq.Params.Name)
			if name != "" {
				return "mcp.tool." + strings.ReplaceAll(name, "/", ".")
			}
		}
		return "mcp.tool.call"
	case "resources/read":
		return "mcp.resource.read"
	default:
		return "mcp." + strings.ReplaceAll(method, "/", ".")
	}
}
