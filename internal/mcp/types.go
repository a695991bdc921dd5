package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"binance-mcp/internal/domain"
	"binance-mcp/internal/tools"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	defaultInvocationLimit = 50
	maxInvocationLimit     = 500

	failureHeader = "❌ Operation failed"
	failureFooter = "💡 If you need help, check the parameters or contact support."
)

// Dispatcher runs a named tool. *tools.Registry satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, raw json.RawMessage) tools.Result
	Descriptors() []tools.Descriptor
}

// StatusReader exposes the last connectivity check.
type StatusReader interface {
	Status() domain.ConnectivityStatus
}

// InvocationLister reads the tool invocation audit log.
type InvocationLister interface {
	ListRecent(ctx context.Context, limit int) ([]domain.ToolInvocation, error)
}

type catalogueEntry struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Required    []string `json:"required"`
}

type catalogueOutput struct {
	Total   int                               `json:"total"`
	Domains map[tools.Domain][]catalogueEntry `json:"domains"`
}

type invocationsOutput struct {
	Invocations []domain.ToolInvocation `json:"invocations"`
}

func catalogue(descriptors []tools.Descriptor) catalogueOutput {
	out := catalogueOutput{Total: len(descriptors), Domains: make(map[tools.Domain][]catalogueEntry)}
	for _, d := range descriptors {
		out.Domains[d.Domain] = append(out.Domains[d.Domain], catalogueEntry{
			Name:        d.Name,
			Description: d.Description,
			Required:    d.Required(),
		})
	}
	return out
}

// renderResult turns a tool envelope into MCP content. Strings pass through;
// anything else becomes indented JSON and is attached as structured content.
func renderResult(res tools.Result) *sdkmcp.CallToolResult {
	if !res.Success {
		return &sdkmcp.CallToolResult{
			Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: failureText(res)}},
			IsError: true,
		}
	}

	if text, ok := res.Data.(string); ok {
		return &sdkmcp.CallToolResult{Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}}}
	}
	body, err := json.MarshalIndent(res.Data, "", "  ")
	if err != nil {
		return &sdkmcp.CallToolResult{
			Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: failureHeader + "\n\nencode result: " + err.Error()}},
			IsError: true,
		}
	}
	out := &sdkmcp.CallToolResult{Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(body)}}}
	if structured := asObject(body); structured != nil {
		out.StructuredContent = structured
	}
	return out
}

// failureText wraps messages that carry neither a header nor advice.
func failureText(res tools.Result) string {
	msg := res.Error
	if res.Kind == tools.KindUnknownTool || strings.HasPrefix(msg, "❌") || strings.Contains(msg, "💡") {
		return msg
	}
	return failureHeader + "\n\n" + msg + "\n\n" + failureFooter
}

// asObject returns body as a JSON object, or nil when it is an array or scalar.
// Structured content must be an object.
func asObject(body []byte) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil
	}
	return obj
}

func normalizeInvocationLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultInvocationLimit
	case limit > maxInvocationLimit:
		return maxInvocationLimit
	}
	return limit
}
