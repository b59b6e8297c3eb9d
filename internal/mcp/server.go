// Package mcp exposes a read-only view of public guild data over the Model
// Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/emberline/guildhall/application/service"
	"github.com/emberline/guildhall/domain/character"
	"github.com/emberline/guildhall/domain/mission"
	"github.com/emberline/guildhall/domain/page"
	"github.com/emberline/guildhall/domain/session"
	"github.com/emberline/guildhall/internal/domain"
)

const (
	defaultSearchLimit  = 5
	defaultMissionLimit = 10
	maxMissionLimit     = 50
)

// CharacterSearcher finds public characters by name.
type CharacterSearcher interface {
	SearchPublic(ctx context.Context, name string, limit int) ([]character.Character, error)
}

// MissionLister lists the mission log.
type MissionLister interface {
	List(ctx context.Context, params *service.MissionListParams) ([]mission.Mission, int64, error)
}

// PageReader reads a content page by slug.
type PageReader interface {
	Get(ctx context.Context, slug string) (page.Page, error)
}

// Server wraps the MCP server with guildhall tools.
type Server struct {
	mcpServer  *server.MCPServer
	characters CharacterSearcher
	missions   MissionLister
	pages      PageReader
	logger     *slog.Logger
}

// NewServer creates an MCP server. Every call runs as an anonymous viewer,
// so only public data is reachable.
func NewServer(
	characters CharacterSearcher,
	missions MissionLister,
	pages PageReader,
	version string,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		characters: characters,
		missions:   missions,
		pages:      pages,
		logger:     logger,
	}

	mcpServer := server.NewMCPServer(
		"guildhall",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(mcp.NewTool("search_characters",
		mcp.WithDescription("Search public player characters by name"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Part of the character name"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum results (default %d, at most %d)", defaultSearchLimit, service.MaxSearchLimit)),
		),
	), s.handleSearchCharacters)

	mcpServer.AddTool(mcp.NewTool("list_missions",
		mcp.WithDescription("List the most recently played missions"),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum results (default %d, at most %d)", defaultMissionLimit, maxMissionLimit)),
		),
	), s.handleListMissions)

	mcpServer.AddTool(mcp.NewTool("get_page",
		mcp.WithDescription("Read a public content page as Markdown"),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("The page slug, for example house-rules"),
		),
	), s.handleGetPage)
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	tmpl := mcp.NewResourceTemplate(
		PageURITemplate,
		"page",
		mcp.WithTemplateDescription("A public content page"),
		mcp.WithTemplateMIMEType(markdownMIME),
	)
	mcpServer.AddResourceTemplate(tmpl, s.readPage)
}

// public strips any identity from ctx.
func public(ctx context.Context) context.Context {
	return session.WithSession(ctx, session.Anonymous())
}

type characterResult struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Level    int    `json:"level"`
	XP       int    `json:"xp"`
	Gold     int    `json:"gold"`
	Bio      string `json:"bio,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

func (s *Server) handleSearchCharacters(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name is required"), nil
	}
	limit := request.GetInt("limit", defaultSearchLimit)

	chars, err := s.characters.SearchPublic(public(ctx), name, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "character search failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	results := make([]characterResult, 0, len(chars))
	for _, c := range chars {
		if !c.Public() {
			continue
		}
		results = append(results, characterResult{
			ID:       c.ID(),
			Name:     c.Name(),
			Level:    c.Level(),
			XP:       c.XP(),
			Gold:     c.Gold(),
			Bio:      c.Bio(),
			ImageURL: c.ImageURL(),
		})
	}
	return textResult(results)
}

type missionResult struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Summary    string    `json:"summary,omitempty"`
	Outcome    string    `json:"outcome"`
	PlayedAt   time.Time `json:"played_at"`
	XPReward   int       `json:"xp_reward"`
	GoldReward int       `json:"gold_reward"`
}

func (s *Server) handleListMissions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", defaultMissionLimit)
	if limit <= 0 {
		limit = defaultMissionLimit
	}
	limit = min(limit, maxMissionLimit)

	missions, _, err := s.missions.List(public(ctx), &service.MissionListParams{Limit: limit})
	if err != nil {
		s.logger.ErrorContext(ctx, "mission list failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("list missions failed: %v", err)), nil
	}

	results := make([]missionResult, len(missions))
	for i, m := range missions {
		results[i] = missionResult{
			ID:         m.ID(),
			Title:      m.Title(),
			Summary:    m.Summary(),
			Outcome:    string(m.Outcome()),
			PlayedAt:   m.PlayedAt(),
			XPReward:   m.XPReward(),
			GoldReward: m.GoldReward(),
		}
	}
	return textResult(results)
}

type pageResult struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Body  string `json:"body"`
	URI   string `json:"uri"`
}

func (s *Server) handleGetPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := request.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError("slug is required"), nil
	}

	p, err := s.pages.Get(public(ctx), slug)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrForbidden) {
		return mcp.NewToolResultError(fmt.Sprintf("page not found: %s", slug)), nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "page read failed", slog.String("slug", slug), slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to get page: %v", err)), nil
	}

	return textResult(pageResult{
		Slug:  p.Slug(),
		Title: p.Title(),
		Body:  p.Body(),
		URI:   NewPageURI(p.Slug()).String(),
	})
}

func (s *Server) readPage(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri, err := ParsePageURI(request.Params.URI)
	if err != nil {
		return nil, err
	}
	p, err := s.pages.Get(public(ctx), uri.Slug())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri.String(),
			MIMEType: markdownMIME,
			Text:     "# " + p.Title() + "\n\n" + p.Body(),
		},
	}, nil
}

func textResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
