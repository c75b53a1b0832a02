package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/brianbrunner/just2guys/services"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type StandingsArgs struct {
	LeagueKey string `json:"league_key" jsonschema:"League key (required)"`
	Division  string `json:"division,omitempty" jsonschema:"Division A or B (empty = whole league)"`
}

type BracketArgs struct {
	LeagueKey string `json:"league_key" jsonschema:"League key (required)"`
}

type RivalryArgs struct {
	ManagerKey string `json:"manager_key" jsonschema:"Manager key (required)"`
}

// NewMCPServer registers the read-only league tools.
func NewMCPServer(ls services.LeagueService, hs services.HistoryService, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "just2guys", Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "league_standings",
		Description: "Regular-season standings for a league, ranked by division, wins, points for and points against",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args StandingsArgs) (*mcp.CallToolResult, any, error) {
		if args.LeagueKey == "" {
			return toolError(errors.New("league_key is required")), nil, nil
		}
		rows, err := ls.Standings(ctx, args.LeagueKey, args.Division)
		return toolJSON(rows, err)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "playoff_bracket",
		Description: "Playoff rounds for weeks 14 to 16 and the champion once decided",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args BracketArgs) (*mcp.CallToolResult, any, error) {
		if args.LeagueKey == "" {
			return toolError(errors.New("league_key is required")), nil, nil
		}
		view, err := ls.Bracket(ctx, args.LeagueKey)
		return toolJSON(view, err)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "manager_rivalries",
		Description: "All-time head-to-head records of one manager against every opponent",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args RivalryArgs) (*mcp.CallToolResult, any, error) {
		if args.ManagerKey == "" {
			return toolError(errors.New("manager_key is required")), nil, nil
		}
		records, err := hs.ManagerRivalries(ctx, args.ManagerKey)
		return toolJSON(records, err)
	})

	return server
}

// NewMCPHandler serves the tools over streamable HTTP.
func NewMCPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

func toolJSON(v any, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		return toolError(err), nil, nil
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(raw)}},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)}},
	}
}
