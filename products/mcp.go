package products

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/coursecast/kit"
)

// RegisterMCP registers catalog tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerQuery(srv)
	s.registerSync(srv)
}

func (s *Service) registerQuery(srv *mcp.Server) {
	type req struct {
		Offset  int    `json:"offset"`
		Limit   int    `json:"limit"`
		Q       string `json:"q"`
		Refresh bool   `json:"refresh"`
	}

	tool := &mcp.Tool{
		Name:        "ai_products_query",
		Description: "Search and page through the AI product catalog",
		InputSchema: kit.InputSchema(map[string]any{
			"offset":  map[string]any{"type": "integer", "description": "Records to skip"},
			"limit":   map[string]any{"type": "integer", "description": "Page size, max 200"},
			"q":       map[string]any{"type": "string", "description": "Substring filter over name, category, tags, features"},
			"refresh": map[string]any{"type": "boolean", "description": "Re-sync first when the catalog is older than 24h"},
		}, nil),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return s.Query(ctx, QueryOptions{Offset: p.Offset, Limit: p.Limit, Q: p.Q, Refresh: p.Refresh})
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

func (s *Service) registerSync(srv *mcp.Server) {
	type req struct {
		Source string `json:"source"`
	}

	tool := &mcp.Tool{
		Name:        "ai_products_sync",
		Description: "Merge product records from an external source into the catalog",
		InputSchema: kit.InputSchema(map[string]any{
			"source": map[string]any{"type": "string", "description": "Sync source: feed, zapier, or sources"},
		}, nil),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		if err := s.Sync(ctx, p.Source); err != nil {
			return nil, err
		}
		return s.Query(ctx, QueryOptions{})
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
