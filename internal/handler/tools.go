package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"binance-mcp/internal/tools"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultInvocationLimit = 50
	maxInvocationLimit     = 500
	maxToolBodyBytes       = 1 << 20
)

// ListTools godoc
// @Summary      List tools
// @Description  Returns the tool catalogue with input schemas, optionally filtered by domain
// @Tags         tools
// @Produce      json
// @Param        domain  query  string  false  "Tool domain (account, spot, futures, market, analytics)"
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/tools [get]
func (h *Handler) ListTools(c *gin.Context) {
	filter := tools.Domain(strings.ToLower(strings.TrimSpace(c.Query("domain"))))

	out := make([]tools.Descriptor, 0, 64)
	for _, d := range h.dispatcher.Descriptors() {
		if filter != "" && d.Domain != filter {
			continue
		}
		out = append(out, d)
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "tools": out})
}

// CallTool godoc
// @Summary      Invoke a tool
// @Description  Runs a tool with the JSON request body as its arguments and returns the result envelope
// @Tags         tools
// @Accept       json
// @Produce      json
// @Param        name  path  string  true  "Tool name (e.g., binance_spot_price)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Failure      502  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/tools/{name} [post]
func (h *Handler) CallTool(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.call-tool")
	defer span.End()
	span.SetAttributes(attribute.String("mcp.tool", name))

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxToolBodyBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "failed to read request body"})
		return
	}
	if len(raw) > maxToolBodyBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "request body too large"})
		return
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		raw = nil
	}

	res := h.dispatcher.Dispatch(ctx, name, json.RawMessage(raw))
	span.SetAttributes(attribute.Bool("tool.success", res.Success))

	body := gin.H{"success": res.Success}
	if res.Success {
		body["data"] = res.Data
	} else {
		body["error"] = res.Error
		body["kind"] = string(res.Kind)
	}
	c.JSON(statusForResult(res), body)
}

// ListInvocations godoc
// @Summary      Recent tool invocations
// @Description  Returns the newest audit log entries
// @Tags         tools
// @Produce      json
// @Param        limit  query  int  false  "Number of entries (default 50, max 500)"  default(50)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Security     BearerAuth
// @Router       /api/invocations [get]
func (h *Handler) ListInvocations(c *gin.Context) {
	if h.invocations == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "invocation audit log disabled"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.list-invocations")
	defer span.End()

	limit := defaultInvocationLimit
	if rawLimit := strings.TrimSpace(c.Query("limit")); rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n <= 0 || n > maxInvocationLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	list, err := h.invocations.ListRecent(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(list), "invocations": list})
}

func statusForResult(res tools.Result) int {
	if res.Success {
		return http.StatusOK
	}
	switch res.Kind {
	case tools.KindValidation:
		return http.StatusBadRequest
	case tools.KindUnknownTool:
		return http.StatusNotFound
	case tools.KindExchange:
		return http.StatusBadGateway
	case tools.KindGateway:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
