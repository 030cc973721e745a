package battlecard

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/coursecast/kit"
)

// RegisterMCP registers the battlecard tool on an MCP server.
func (e *Engine) RegisterMCP(srv *mcp.Server) {
	type req struct {
		Channels  []string `json:"channels"`
		MaxVideos int      `json:"max_videos_per_channel"`
	}

	tool := &mcp.Tool{
		Name:        "weekly_battlecard",
		Description: "Generate a competitive battlecard from the recent videos of up to 4 YouTube channels",
		InputSchema: kit.InputSchema(map[string]any{
			"channels": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Channel URLs, 1 to 4",
			},
			"max_videos_per_channel": map[string]any{
				"type":        "integer",
				"description": "Recent videos to analyze per channel, 1 to 10",
			},
		}, []string{"channels"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return e.Generate(ctx, p.Channels, p.MaxVideos)
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var p req
		if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &p}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
