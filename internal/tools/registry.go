// Package tools holds the tool catalogue and the dispatcher that routes a
// tool call to its domain handler through a static registration table.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"binance-mcp/internal/domain"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Domain string

const (
	DomainAccount   Domain = "account"
	DomainSpot      Domain = "spot"
	DomainFutures   Domain = "futures"
	DomainMarket    Domain = "market"
	DomainAnalytics Domain = "analytics"
)

// Descriptor describes one tool. Example is a valid argument object used by
// catalogue checks and documentation.
type Descriptor struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Domain      Domain             `json:"domain"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
	Example     map[string]any     `json:"example,omitempty"`
}

// Required lists the schema's required argument names.
func (d Descriptor) Required() []string {
	if d.InputSchema == nil {
		return nil
	}
	return d.InputSchema.Required
}

// Observer is notified after every dispatch.
type Observer interface {
	Observe(ctx context.Context, inv domain.ToolInvocation)
}

type handleFunc func(ctx context.Context, name string, a Args) Result

type route struct {
	domain Domain
	handle handleFunc
}

type Registry struct {
	handlers    *Handlers
	routes      map[string]route
	descriptors []Descriptor
	tracer      trace.Tracer
	observers   []Observer
	logger      *slog.Logger
	account     string
}

type Option func(*Registry)

func WithTracer(t trace.Tracer) Option {
	return func(r *Registry) { r.tracer = t }
}

func WithObserver(o Observer) Option {
	return func(r *Registry) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// WithAccount stamps every recorded invocation with account.
func WithAccount(account string) Option {
	return func(r *Registry) { r.account = account }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithClock overrides the handlers' time source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.handlers.now = now }
}

// AllTools returns every descriptor in catalogue order.
func AllTools() []Descriptor {
	var all []Descriptor
	all = append(all, AccountTools()...)
	all = append(all, SpotTools()...)
	all = append(all, FuturesTools()...)
	all = append(all, MarketTools()...)
	all = append(all, AnalyticsTools()...)
	return all
}

// NewRegistry builds the routing table. It panics on a duplicate tool name,
// which can only come from a broken catalogue.
func NewRegistry(gw Gateway, opts ...Option) *Registry {
	r := &Registry{
		handlers: NewHandlers(gw),
		routes:   make(map[string]route),
		tracer:   trace.NewNoopTracerProvider().Tracer("tools"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	byDomain := map[Domain]handleFunc{
		DomainAccount:   r.handlers.HandleAccountTool,
		DomainSpot:      r.handlers.HandleSpotTool,
		DomainFutures:   r.handlers.HandleFuturesTool,
		DomainMarket:    r.handlers.HandleMarketTool,
		DomainAnalytics: r.handlers.HandleAnalyticsTool,
	}
	for _, d := range AllTools() {
		if _, dup := r.routes[d.Name]; dup {
			panic(fmt.Sprintf("tools: duplicate tool name %q", d.Name))
		}
		r.routes[d.Name] = route{domain: d.Domain, handle: byDomain[d.Domain]}
		r.descriptors = append(r.descriptors, d)
	}
	return r
}

func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

func (r *Registry) Descriptor(name string) (Descriptor, bool) {
	for _, d := range r.descriptors {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Route reports the domain a tool name is registered under.
func (r *Registry) Route(name string) (Domain, bool) {
	rt, ok := r.routes[name]
	return rt.domain, ok
}

// Dispatch runs one tool call. It never panics and never returns a Go error;
// every failure is carried by the Result.
func (r *Registry) Dispatch(ctx context.Context, name string, raw json.RawMessage) (res Result) {
	start := time.Now()
	rt, ok := r.routes[name]

	ctx, span := r.tracer.Start(ctx, "tools.dispatch",
		trace.WithAttributes(
			attribute.String("mcp.tool", name),
			attribute.String("tool.domain", string(rt.domain)),
		),
	)
	defer span.End()

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("tool handler panicked", "tool", name, "panic", p)
			res = unexpected(fmt.Sprintf("internal error while running %s: %v", name, p))
		}
		if !res.Success {
			span.SetStatus(codes.Error, string(res.Kind))
		}
		r.finish(ctx, name, rt.domain, raw, res, time.Since(start))
	}()

	if !ok {
		return failure(KindUnknownTool, "unknown tool: "+name)
	}
	a, err := DecodeArgs(raw)
	if err != nil {
		return invalidf(err.Error(), "Send the tool arguments as a JSON object")
	}
	return rt.handle(ctx, name, a)
}

func (r *Registry) finish(ctx context.Context, name string, d Domain, raw json.RawMessage, res Result, elapsed time.Duration) {
	r.logger.Info("tool call",
		"tool", name,
		"domain", string(d),
		"success", res.Success,
		"kind", string(res.Kind),
		"duration", elapsed,
	)
	if len(r.observers) == 0 {
		return
	}
	inv := domain.ToolInvocation{
		ID:         uuid.NewString(),
		Account:    r.account,
		Tool:       name,
		Domain:     string(d),
		Success:    res.Success,
		ErrorKind:  string(res.Kind),
		Error:      res.Error,
		DurationMs: elapsed.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	if len(raw) > 0 && json.Valid(raw) {
		inv.Arguments = append(json.RawMessage(nil), raw...)
	}
	for _, o := range r.observers {
		o.Observe(ctx, inv)
	}
}
