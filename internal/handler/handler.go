package handler

import (
	"context"
	"encoding/json"

	"binance-mcp/internal/domain"
	"binance-mcp/internal/tools"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type ToolDispatcher interface {
	Dispatch(ctx context.Context, name string, raw json.RawMessage) tools.Result
	Descriptors() []tools.Descriptor
}

type StatusReader interface {
	Status() domain.ConnectivityStatus
}

type InvocationLister interface {
	ListRecent(ctx context.Context, limit int) ([]domain.ToolInvocation, error)
}

type Handler struct {
	tracer      trace.Tracer
	dispatcher  ToolDispatcher
	status      StatusReader
	invocations InvocationLister
	authToken   string
}

// New builds the REST facade. status and invocations may be nil. Every /api
// route requires authToken as a bearer token.
func New(
	tracer trace.Tracer,
	dispatcher ToolDispatcher,
	status StatusReader,
	invocations InvocationLister,
	authToken string,
) *Handler {
	return &Handler{
		tracer:      tracer,
		dispatcher:  dispatcher,
		status:      status,
		invocations: invocations,
		authToken:   authToken,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api", RequireBearer(h.authToken))
	api.GET("/tools", h.ListTools)
	api.POST("/tools/:name", h.CallTool)
	api.GET("/invocations", h.ListInvocations)
}
