package coursejob

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/coursecast/kit"
)

// RegisterMCP registers course job tools on an MCP server.
func (c *Coordinator) RegisterMCP(srv *mcp.Server) {
	c.registerSubmit(srv)
	c.registerStatus(srv)
}

func (c *Coordinator) registerSubmit(srv *mcp.Server) {
	type req struct {
		PlaylistURL string `json:"playlist_url"`
	}

	tool := &mcp.Tool{
		Name:        "course_submit",
		Description: "Start an asynchronous course-generation job for a YouTube playlist",
		InputSchema: kit.InputSchema(map[string]any{
			"playlist_url": map[string]any{"type": "string", "description": "YouTube playlist URL"},
		}, []string{"playlist_url"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		jobID, err := c.Submit(ctx, p.PlaylistURL)
		if err != nil {
			return nil, err
		}
		return map[string]string{"job_id": jobID}, nil
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

func (c *Coordinator) registerStatus(srv *mcp.Server) {
	type req struct {
		JobID string `json:"job_id"`
	}

	tool := &mcp.Tool{
		Name:        "course_status",
		Description: "Poll the status, progress, and result of a course-generation job",
		InputSchema: kit.InputSchema(map[string]any{
			"job_id": map[string]any{"type": "string", "description": "Job ID returned by course_submit"},
		}, []string{"job_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return c.Get(ctx, p.JobID)
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
