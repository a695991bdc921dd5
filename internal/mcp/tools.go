package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *sdkmcp.Server, dispatcher Dispatcher) {
	for _, d := range dispatcher.Descriptors() {
		name := d.Name
		server.AddTool(&sdkmcp.Tool{
			Name:        name,
			Description: d.Description,
			InputSchema: d.InputSchema,
		}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			var raw []byte
			if req.Params != nil {
				raw = req.Params.Arguments
			}
			return renderResult(dispatcher.Dispatch(ctx, name, raw)), nil
		})
	}
}
