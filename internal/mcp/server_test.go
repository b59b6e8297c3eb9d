package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/emberline/guildhall/application/service"
	"github.com/emberline/guildhall/domain/character"
	"github.com/emberline/guildhall/domain/mission"
	"github.com/emberline/guildhall/domain/page"
	"github.com/emberline/guildhall/domain/profile"
	"github.com/emberline/guildhall/domain/session"
	"github.com/emberline/guildhall/internal/domain"
	"github.com/mark3labs/mcp-go/mcp"
)

var testTime = time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

// fakeCharacters returns canned characters and records the viewer it saw.
type fakeCharacters struct {
	chars  []character.Character
	viewer session.Viewer
	limit  int
}

func (f *fakeCharacters) SearchPublic(ctx context.Context, name string, limit int) ([]character.Character, error) {
	f.viewer = session.FromContext(ctx).Viewer()
	f.limit = limit
	var out []character.Character
	for _, c := range f.chars {
		if strings.Contains(strings.ToLower(c.Name()), strings.ToLower(name)) {
			out = append(out, c)
		}
	}
	return out, nil
}

// fakeMissions returns canned missions and records the params it saw.
type fakeMissions struct {
	missions []mission.Mission
	params   service.MissionListParams
}

func (f *fakeMissions) List(_ context.Context, params *service.MissionListParams) ([]mission.Mission, int64, error) {
	f.params = *params
	return f.missions, int64(len(f.missions)), nil
}

// fakePages applies page access rules to the viewer on ctx.
type fakePages struct {
	pages map[string]page.Page
}

func (f *fakePages) Get(ctx context.Context, slug string) (page.Page, error) {
	p, ok := f.pages[slug]
	if !ok {
		return page.Page{}, domain.ErrNotFound
	}
	if err := p.CheckAccess(session.FromContext(ctx).Viewer()); err != nil {
		return page.Page{}, err
	}
	return p, nil
}

type fixture struct {
	srv        *Server
	characters *fakeCharacters
	missions   *fakeMissions
}

func testServer() fixture {
	chars := &fakeCharacters{chars: []character.Character{
		character.ReconstructCharacter("c1", "u1", "Kael Stormborn", "", 3, 450, 20, "A wandering blade.", "", true, testTime, testTime),
		character.ReconstructCharacter("c2", "u2", "Kaela", "", 1, 0, 0, "", "", true, testTime, testTime),
	}}
	missions := &fakeMissions{missions: []mission.Mission{
		mission.ReconstructMission("m1", "The Sunken Vault", "Recovered the idol.", mission.OutcomeSuccess,
			testTime, "", "", "u1", 150, 40, nil, testTime, testTime),
	}}
	pages := &fakePages{pages: map[string]page.Page{
		"house-rules": page.ReconstructPage("p1", "house-rules", "House Rules", "Roll **2d6**.", page.AccessPublic, true, testTime, testTime),
		"gm-notes":    page.ReconstructPage("p2", "gm-notes", "GM Notes", "secret", page.AccessAdmin, true, testTime, testTime),
	}}
	return fixture{
		srv:        NewServer(chars, missions, pages, "0.1.0-test", nil),
		characters: chars,
		missions:   missions,
	}
}

// sendMessage marshals a JSON-RPC request, sends it through HandleMessage,
// and returns the JSONRPCResponse.
func sendMessage(t *testing.T, srv *Server, method string, id int, params map[string]any) mcp.JSONRPCResponse {
	t.Helper()
	return sendMessageCtx(t, context.Background(), srv, method, id, params)
}

func sendMessageCtx(t *testing.T, ctx context.Context, srv *Server, method string, id int, params map[string]any) mcp.JSONRPCResponse {
	t.Helper()

	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		msg["params"] = params
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	result := srv.MCPServer().HandleMessage(ctx, raw)

	resp, ok := result.(mcp.JSONRPCResponse)
	if !ok {
		t.Fatalf("expected JSONRPCResponse, got %T: %+v", result, result)
	}
	return resp
}

// resultJSON re-marshals the Result field through JSON into dst.
func resultJSON(t *testing.T, resp mcp.JSONRPCResponse, dst any) {
	t.Helper()
	b, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		t.Fatalf("unmarshal result into %T: %v", dst, err)
	}
}

func initializeParams() map[string]any {
	return map[string]any{
		"protocolVersion": "2025-06-18",
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    "test-client",
			"version": "0.0.1",
		},
	}
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) mcp.CallToolResult {
	t.Helper()
	sendMessage(t, srv, "initialize", 1, initializeParams())
	resp := sendMessage(t, srv, "tools/call", 2, map[string]any{
		"name":      name,
		"arguments": args,
	})
	var result mcp.CallToolResult
	resultJSON(t, resp, &result)
	return result
}

func TestServer_Initialize(t *testing.T) {
	f := testServer()
	resp := sendMessage(t, f.srv, "initialize", 1, initializeParams())

	var result mcp.InitializeResult
	resultJSON(t, resp, &result)

	if result.ServerInfo.Name != "guildhall" {
		t.Errorf("expected server name guildhall, got %s", result.ServerInfo.Name)
	}
	if result.ServerInfo.Version != "0.1.0-test" {
		t.Errorf("expected version 0.1.0-test, got %s", result.ServerInfo.Version)
	}
	if result.Capabilities.Tools == nil {
		t.Error("expected tools capability to be present")
	}
	if result.Capabilities.Resources == nil {
		t.Error("expected resources capability to be present")
	}
}

func TestServer_ListTools(t *testing.T) {
	f := testServer()
	sendMessage(t, f.srv, "initialize", 1, initializeParams())

	resp := sendMessage(t, f.srv, "tools/list", 2, nil)

	var result mcp.ListToolsResult
	resultJSON(t, resp, &result)

	if len(result.Tools) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(result.Tools))
	}

	tools := map[string]mcp.Tool{}
	for _, tool := range result.Tools {
		tools[tool.Name] = tool
	}
	for _, name := range []string{"search_characters", "list_missions", "get_page"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing tool: %s", name)
		}
	}

	search := tools["search_characters"]
	if _, ok := search.InputSchema.Properties["limit"]; !ok {
		t.Error("search_characters missing limit parameter")
	}
	if !contains(search.InputSchema.Required, "name") {
		t.Error("name should be required")
	}
	if !contains(tools["get_page"].InputSchema.Required, "slug") {
		t.Error("slug should be required")
	}
}

func TestServer_SearchCharacters(t *testing.T) {
	f := testServer()
	result := callTool(t, f.srv, "search_characters", map[string]any{"name": "kael", "limit": 2})

	if result.IsError {
		t.Fatalf("expected success, got error: %s", textFromContent(t, result))
	}

	var items []struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Level int    `json:"level"`
		XP    int    `json:"xp"`
	}
	if err := json.Unmarshal([]byte(textFromContent(t, result)), &items); err != nil {
		t.Fatalf("unmarshal search results: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 results, got %d", len(items))
	}
	if items[0].Name != "Kael Stormborn" || items[0].Level != 3 || items[0].XP != 450 {
		t.Errorf("unexpected first result: %+v", items[0])
	}
	if f.characters.limit != 2 {
		t.Errorf("expected limit 2, got %d", f.characters.limit)
	}
}

func TestServer_SearchCharactersRunsAnonymously(t *testing.T) {
	f := testServer()
	admin := profile.ReconstructProfile("admin-1", "root", "Root", profile.RoleAdmin, testTime, testTime)
	ctx := session.WithSession(context.Background(), session.New("token", admin))

	sendMessageCtx(t, ctx, f.srv, "initialize", 1, initializeParams())
	sendMessageCtx(t, ctx, f.srv, "tools/call", 2, map[string]any{
		"name":      "search_characters",
		"arguments": map[string]any{"name": "kael"},
	})

	if f.characters.viewer.Authenticated() {
		t.Errorf("expected anonymous viewer, got %+v", f.characters.viewer)
	}
	if f.characters.limit != defaultSearchLimit {
		t.Errorf("expected default limit %d, got %d", defaultSearchLimit, f.characters.limit)
	}
}

func TestServer_SearchCharactersMissingName(t *testing.T) {
	f := testServer()
	result := callTool(t, f.srv, "search_characters", map[string]any{})

	if !result.IsError {
		t.Fatal("expected error response")
	}
	if text := textFromContent(t, result); !strings.Contains(text, "name is required") {
		t.Errorf("expected 'name is required', got: %s", text)
	}
}

func TestServer_ListMissions(t *testing.T) {
	f := testServer()
	result := callTool(t, f.srv, "list_missions", map[string]any{"limit": 500})

	if result.IsError {
		t.Fatalf("expected success, got error: %s", textFromContent(t, result))
	}

	var items []struct {
		ID       string    `json:"id"`
		Title    string    `json:"title"`
		Outcome  string    `json:"outcome"`
		PlayedAt time.Time `json:"played_at"`
		XPReward int       `json:"xp_reward"`
	}
	if err := json.Unmarshal([]byte(textFromContent(t, result)), &items); err != nil {
		t.Fatalf("unmarshal missions: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 mission, got %d", len(items))
	}
	if items[0].Title != "The Sunken Vault" || items[0].Outcome != "success" || items[0].XPReward != 150 {
		t.Errorf("unexpected mission: %+v", items[0])
	}
	if !items[0].PlayedAt.Equal(testTime) {
		t.Errorf("expected played_at %s, got %s", testTime, items[0].PlayedAt)
	}
	if f.missions.params.Limit != maxMissionLimit {
		t.Errorf("expected limit clamped to %d, got %d", maxMissionLimit, f.missions.params.Limit)
	}
}

func TestServer_GetPage(t *testing.T) {
	f := testServer()
	result := callTool(t, f.srv, "get_page", map[string]any{"slug": "house-rules"})

	if result.IsError {
		t.Fatalf("expected success, got error: %s", textFromContent(t, result))
	}

	var got struct {
		Slug  string `json:"slug"`
		Title string `json:"title"`
		Body  string `json:"body"`
		URI   string `json:"uri"`
	}
	if err := json.Unmarshal([]byte(textFromContent(t, result)), &got); err != nil {
		t.Fatalf("unmarshal page: %v", err)
	}
	if got.Title != "House Rules" || got.Body != "Roll **2d6**." {
		t.Errorf("unexpected page: %+v", got)
	}
	if got.URI != "guildhall://pages/house-rules" {
		t.Errorf("unexpected uri: %s", got.URI)
	}
}

func TestServer_GetPageHidesRestricted(t *testing.T) {
	f := testServer()
	for _, slug := range []string{"gm-notes", "missing"} {
		result := callTool(t, f.srv, "get_page", map[string]any{"slug": slug})
		if !result.IsError {
			t.Fatalf("expected error for %s", slug)
		}
		if text := textFromContent(t, result); !strings.Contains(text, "page not found") {
			t.Errorf("expected 'page not found' for %s, got: %s", slug, text)
		}
	}
}

func TestServer_ReadPageResource(t *testing.T) {
	f := testServer()
	sendMessage(t, f.srv, "initialize", 1, initializeParams())

	resp := sendMessage(t, f.srv, "resources/read", 2, map[string]any{
		"uri": "guildhall://pages/house-rules",
	})

	var result struct {
		Contents []struct {
			URI      string `json:"uri"`
			MIMEType string `json:"mimeType"`
			Text     string `json:"text"`
		} `json:"contents"`
	}
	resultJSON(t, resp, &result)

	if len(result.Contents) != 1 {
		t.Fatalf("expected 1 content item, got %d", len(result.Contents))
	}
	c := result.Contents[0]
	if c.MIMEType != "text/markdown" {
		t.Errorf("expected text/markdown, got %s", c.MIMEType)
	}
	if !strings.HasPrefix(c.Text, "# House Rules") {
		t.Errorf("expected title heading, got %q", c.Text)
	}
}

// textFromContent extracts the text string from the first content item
// of a CallToolResult. It round-trips through JSON because in-process
// responses may hold the content as a map rather than a typed struct.
func textFromContent(t *testing.T, result mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	b, err := json.Marshal(result.Content[0])
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	var tc struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(b, &tc); err != nil {
		t.Fatalf("unmarshal text content: %v", err)
	}
	return tc.Text
}

func contains(items []string, target string) bool {
	for _, s := range items {
		if s == target {
			return true
		}
	}
	return false
}

var (
	_ CharacterSearcher = (*fakeCharacters)(nil)
	_ MissionLister     = (*fakeMissions)(nil)
	_ PageReader        = (*fakePages)(nil)
)
