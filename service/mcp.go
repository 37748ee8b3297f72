package service

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/revpull/pipeline"
	"github.com/hazyhaar/revpull/review"
	"github.com/hazyhaar/revpull/store"
)

// RegisterMCP registers the extraction tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	type extractIn struct {
		URL string `json:"url" jsonschema:"listing URL to extract reviews from"`
	}
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "reviews_extract",
		Description: "Extract all reviews from a map-listing page. Returns the records, terminal status, and error classification.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in extractIn) (*mcp.CallToolResult, *pipeline.Result, error) {
		if in.URL == "" {
			return nil, nil, fmt.Errorf("url is required")
		}
		res, err := s.Extract(ctx, in.URL)
		if err != nil {
			return nil, nil, err
		}
		return nil, res, nil
	})

	type listIn struct {
		Limit int `json:"limit,omitempty" jsonschema:"maximum runs to return, default 50"`
	}
	type listOut struct {
		Runs []store.RunSummary `json:"runs"`
	}
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "reviews_list_runs",
		Description: "List past extraction runs, most recent first.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in listIn) (*mcp.CallToolResult, listOut, error) {
		if s.st == nil {
			return nil, listOut{}, fmt.Errorf("store disabled")
		}
		runs, err := s.st.ListRuns(ctx, in.Limit)
		if err != nil {
			return nil, listOut{}, err
		}
		return nil, listOut{Runs: runs}, nil
	})

	type getIn struct {
		RunID string `json:"run_id" jsonschema:"id of the run to fetch"`
	}
	type getOut struct {
		Run     *store.RunSummary `json:"run"`
		Records []review.Record   `json:"records"`
	}
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "reviews_get_run",
		Description: "Fetch one extraction run with its records.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in getIn) (*mcp.CallToolResult, getOut, error) {
		if s.st == nil {
			return nil, getOut{}, fmt.Errorf("store disabled")
		}
		run, err := s.st.GetRun(ctx, in.RunID)
		if err != nil {
			return nil, getOut{}, err
		}
		if run == nil {
			return nil, getOut{}, fmt.Errorf("run %s not found", in.RunID)
		}
		recs, err := s.st.GetRecords(ctx, in.RunID)
		if err != nil {
			return nil, getOut{}, err
		}
		return nil, getOut{Run: run, Records: recs}, nil
	})
}

// ServeMCP runs an MCP server over stdio until ctx is cancelled.
func (s *Service) ServeMCP(ctx context.Context) error {
	srv := mcp.NewServer(&mcp.Implementation{Name: "revpull", Version: "1.0.0"}, nil)
	s.RegisterMCP(srv)
	return srv.Run(ctx, &mcp.StdioTransport{})
}
