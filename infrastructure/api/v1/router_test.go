package v1_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberline/guildhall"
	"github.com/emberline/guildhall/application/service"
	"github.com/emberline/guildhall/domain/extraction"
	"github.com/emberline/guildhall/domain/profile"
	"github.com/emberline/guildhall/domain/session"
	v1 "github.com/emberline/guildhall/infrastructure/api/v1"
)

type fixedExtractor struct {
	doc map[string]any
}

func (f fixedExtractor) Extract(context.Context, string, extraction.Schema) (json.RawMessage, error) {
	return json.Marshal(f.doc)
}

func newTestClient(t *testing.T, opts ...guildhall.Option) *guildhall.Client {
	t.Helper()
	tmpDir := t.TempDir()
	opts = append([]guildhall.Option{
		guildhall.WithSQLite(filepath.Join(tmpDir, "test.db")),
		guildhall.WithDataDir(tmpDir),
	}, opts...)
	client, err := guildhall.New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// member signs subject in with role and returns the session to attach to
// requests.
func member(t *testing.T, client *guildhall.Client, subject string, role profile.Role) *session.Session {
	t.Helper()
	ctx := context.Background()
	p, err := client.Profiles.EnsureProfile(ctx, service.Identity{Subject: subject, Username: subject})
	require.NoError(t, err)
	if role != profile.RolePlayer {
		p, err = client.Profiles.SetRole(client.SystemContext(ctx), p.ID(), role)
		require.NoError(t, err)
	}
	s := session.New("", p)
	return &s
}

func serve(t *testing.T, routes chi.Router, sess *session.Session, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess != nil {
		req = req.WithContext(session.WithSession(req.Context(), *sess))
	}
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)
	return w
}

type document struct {
	Data     json.RawMessage  `json:"data"`
	Meta     map[string]any   `json:"meta"`
	Included []map[string]any `json:"included"`
	Errors   []struct {
		Status string `json:"status"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

type resource struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes"`
	Meta       map[string]any `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) document {
	t.Helper()
	var doc document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc), w.Body.String())
	return doc
}

func one(t *testing.T, w *httptest.ResponseRecorder) resource {
	t.Helper()
	var r resource
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &r))
	return r
}

func many(t *testing.T, w *httptest.ResponseRecorder) []resource {
	t.Helper()
	var rs []resource
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &rs))
	return rs
}

func TestProfilesRouter(t *testing.T) {
	client := newTestClient(t)
	routes := v1.NewProfilesRouter(client).Routes()
	player := member(t, client, "u1", profile.RolePlayer)
	admin := member(t, client, "root", profile.RoleAdmin)

	w := serve(t, routes, nil, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(t, routes, player, http.MethodPatch, "/me", map[string]any{"display_name": "Aria"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Aria", one(t, w).Attributes["display_name"])

	w = serve(t, routes, player, http.MethodPatch, "/me", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(t, routes, player, http.MethodPut, "/u1/role", map[string]any{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(t, routes, admin, http.MethodPut, "/u1/role", map[string]any{"role": "gm"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "gm", one(t, w).Attributes["role"])

	w = serve(t, routes, admin, http.MethodPut, "/u1/role", map[string]any{"role": "dragon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCharactersRouter(t *testing.T) {
	client := newTestClient(t)
	routes := v1.NewCharactersRouter(client).Routes()
	owner := member(t, client, "u1", profile.RolePlayer)
	other := member(t, client, "u2", profile.RolePlayer)

	w := serve(t, routes, owner, http.MethodPost, "/", map[string]any{"name": "Kael Stormborn", "public": true, "xp": 100})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	kael := one(t, w)

	w = serve(t, routes, owner, http.MethodPost, "/", map[string]any{"name": "Secret Sal"})
	require.Equal(t, http.StatusCreated, w.Code)
	sal := one(t, w)

	w = serve(t, routes, owner, http.MethodPost, "/", map[string]any{"name": "", "image_url": "nope"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Errors[0].Detail, "name is required")

	w = serve(t, routes, owner, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, many(t, w), 2)

	t.Run("search finds public characters only", func(t *testing.T) {
		w := serve(t, routes, nil, http.MethodGet, "/search?q=kael", nil)
		require.Equal(t, http.StatusOK, w.Code)
		results := many(t, w)
		require.Len(t, results, 1)
		assert.Equal(t, kael.ID, results[0].ID)

		w = serve(t, routes, nil, http.MethodGet, "/search?q=sal", nil)
		assert.Empty(t, many(t, w))

		w = serve(t, routes, nil, http.MethodGet, "/search", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("private characters are hidden from others", func(t *testing.T) {
		w := serve(t, routes, other, http.MethodGet, "/"+sal.ID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = serve(t, routes, owner, http.MethodGet, "/"+sal.ID, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("only the owner edits", func(t *testing.T) {
		w := serve(t, routes, other, http.MethodPatch, "/"+kael.ID, map[string]any{"gold": 5})
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = serve(t, routes, owner, http.MethodPatch, "/"+kael.ID, map[string]any{"gold": 5})
		require.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, 5, one(t, w).Attributes["gold"])
	})

	w = serve(t, routes, nil, http.MethodGet, "/"+kael.ID+"/progression", nil)
	require.Equal(t, http.StatusOK, w.Code)
	progression := one(t, w)
	assert.EqualValues(t, 100, progression.Attributes["total_xp"])
	assert.EqualValues(t, 0, progression.Attributes["missions"])

	w = serve(t, routes, owner, http.MethodDelete, "/"+sal.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestClassesRouter_TeaserHidesVersions(t *testing.T) {
	client := newTestClient(t)
	routes := v1.NewClassesRouter(client).Routes()
	admin := member(t, client, "root", profile.RoleAdmin)
	player := member(t, client, "u1", profile.RolePlayer)

	w := serve(t, routes, player, http.MethodPost, "/", map[string]any{"name": "Warden"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(t, routes, admin, http.MethodPost, "/", map[string]any{
		"name": "Warden", "teaser": true, "published": true, "abilities": "Shield wall",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	slug := one(t, w).Attributes["slug"].(string)

	w = serve(t, routes, admin, http.MethodPost, "/"+slug+"/versions", map[string]any{"abilities": "Shield wall II"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.EqualValues(t, 2, one(t, w).Attributes["number"])

	w = serve(t, routes, player, http.MethodGet, "/"+slug, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := one(t, w)
	assert.Equal(t, true, view.Meta["gated"])
	assert.Nil(t, view.Attributes["current_version"])

	w = serve(t, routes, admin, http.MethodGet, "/"+slug, nil)
	current := one(t, w).Attributes["current_version"].(map[string]any)
	assert.EqualValues(t, 2, current["number"])
}

func TestMissionsRouter(t *testing.T) {
	client := newTestClient(t)
	routes := v1.NewMissionsRouter(client).Routes()
	owner := member(t, client, "u1", profile.RolePlayer)
	other := member(t, client, "u2", profile.RolePlayer)

	chars := v1.NewCharactersRouter(client).Routes()
	w := serve(t, chars, owner, http.MethodPost, "/", map[string]any{"name": "Jon", "xp": 10, "public": true})
	require.Equal(t, http.StatusCreated, w.Code)
	jon := one(t, w)

	for _, title := range []string{"First Light", "The Sunken Vault", "Ashes"} {
		w := serve(t, routes, owner, http.MethodPost, "/", map[string]any{
			"title": title, "outcome": "success", "played_at": "2026-03-07", "xp_reward": 50,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w = serve(t, routes, owner, http.MethodPost, "/", map[string]any{"title": "Bad", "played_at": "someday maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(t, routes, nil, http.MethodPost, "/", map[string]any{"title": "Anonymous"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(t, routes, nil, http.MethodGet, "/?page=1&page_size=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	doc := decode(t, w)
	assert.EqualValues(t, 3, doc.Meta["total_count"])
	assert.EqualValues(t, 2, doc.Meta["total_pages"])
	list := many(t, w)
	require.Len(t, list, 2)
	missionID := list[0].ID

	w = serve(t, routes, nil, http.MethodGet, "/?outcome=sideways", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(t, routes, other, http.MethodPost, "/"+missionID+"/characters", map[string]any{"character_id": jon.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(t, routes, owner, http.MethodPost, "/"+missionID+"/characters", map[string]any{"character_id": jon.ID})
	assert.Equal(t, http.StatusCreated, w.Code)
	w = serve(t, routes, owner, http.MethodPost, "/"+missionID+"/characters", map[string]any{"character_id": jon.ID})
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(t, routes, nil, http.MethodGet, "/"+missionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode(t, w)
	require.Len(t, detail.Included, 1)
	assert.Equal(t, jon.ID, detail.Included[0]["id"])

	w = serve(t, chars, nil, http.MethodGet, "/"+jon.ID+"/progression", nil)
	assert.EqualValues(t, 60, one(t, w).Attributes["total_xp"])

	w = serve(t, routes, owner, http.MethodDelete, "/"+missionID+"/characters/"+jon.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(t, routes, owner, http.MethodPatch, "/"+missionID, map[string]any{"outcome": "failure"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "failure", one(t, w).Attributes["outcome"])

	w = serve(t, routes, owner, http.MethodDelete, "/"+missionID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = serve(t, routes, nil, http.MethodGet, "/"+missionID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLFGRouter(t *testing.T) {
	client := newTestClient(t)
	routes := v1.NewLFGRouter(client).Routes()
	author := member(t, client, "u1", profile.RolePlayer)
	other := member(t, client, "u2", profile.RolePlayer)

	w := serve(t, routes, author, http.MethodPost, "/", map[string]any{
		"title": "Vault delve", "starts_at": "2099-01-02T19:00:00Z", "seats": 4,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	post := one(t, w)
	assert.EqualValues(t, 180, post.Attributes["duration_minutes"])
	assert.Contains(t, post.Attributes["calendar_url"], "calendar.google.com")

	w = serve(t, routes, author, http.MethodPost, "/", map[string]any{"title": "No date"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(t, routes, nil, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, many(t, w), 1)

	w = serve(t, routes, other, http.MethodPost, "/"+post.ID+"/close", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(t, routes, author, http.MethodPost, "/"+post.ID+"/close", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "closed", one(t, w).Attributes["status"])

	w = serve(t, routes, nil, http.MethodGet, "/", nil)
	assert.Empty(t, many(t, w))
}

func TestPagesRouter_AccessLevels(t *testing.T) {
	client := newTestClient(t)
	routes := v1.NewPagesRouter(client).Routes()
	admin := member(t, client, "root", profile.RoleAdmin)
	player := member(t, client, "u1", profile.RolePlayer)

	for _, p := range []map[string]any{
		{"title": "House Rules", "access": "public", "published": true, "body": "Be kind."},
		{"title": "Members Lounge", "access": "members", "published": true},
		{"title": "GM Notes", "access": "admin", "published": true},
		{"title": "Draft", "access": "public", "published": false},
	} {
		w := serve(t, routes, admin, http.MethodPost, "/", p)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := serve(t, routes, nil, http.MethodGet, "/", nil)
	assert.Len(t, many(t, w), 1)
	w = serve(t, routes, player, http.MethodGet, "/", nil)
	assert.Len(t, many(t, w), 2)
	w = serve(t, routes, admin, http.MethodGet, "/?page_size=3", nil)
	assert.Len(t, many(t, w), 3)
	assert.EqualValues(t, 4, decode(t, w).Meta["total_count"])

	assert.Equal(t, http.StatusOK, serve(t, routes, nil, http.MethodGet, "/house-rules", nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(t, routes, nil, http.MethodGet, "/members-lounge", nil).Code)
	assert.Equal(t, http.StatusForbidden, serve(t, routes, player, http.MethodGet, "/gm-notes", nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(t, routes, player, http.MethodGet, "/draft", nil).Code)

	w = serve(t, routes, player, http.MethodPatch, "/house-rules", map[string]any{"body": "Be loud."})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = serve(t, routes, admin, http.MethodPatch, "/house-rules", map[string]any{"access": "everyone"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNavRouter(t *testing.T) {
	client := newTestClient(t)
	routes := v1.NewNavRouter(client).Routes()
	admin := member(t, client, "root", profile.RoleAdmin)
	player := member(t, client, "u1", profile.RolePlayer)

	w := serve(t, routes, admin, http.MethodPost, "/items", map[string]any{"label": "Home", "type": "link", "url": "/", "position": 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = serve(t, routes, admin, http.MethodPost, "/items", map[string]any{"label": "Admin", "type": "dropdown", "requires_admin": true, "position": 2})
	require.Equal(t, http.StatusCreated, w.Code)
	adminMenu := one(t, w)
	w = serve(t, routes, admin, http.MethodPost, "/items", map[string]any{"label": "Users", "type": "link", "url": "/admin/users", "parent_id": adminMenu.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = serve(t, routes, player, http.MethodPost, "/items", map[string]any{"label": "Mine", "type": "link", "url": "/"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	var tree struct {
		Data []struct {
			Label     string `json:"label"`
			Href      string `json:"href"`
			Navigable bool   `json:"navigable"`
			Children  []any  `json:"children"`
		} `json:"data"`
		Meta map[string]any `json:"meta"`
	}

	w = serve(t, routes, player, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tree))
	require.Len(t, tree.Data, 1)
	assert.Equal(t, "Home", tree.Data[0].Label)
	assert.Nil(t, tree.Meta)

	w = serve(t, routes, admin, http.MethodGet, "/", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tree))
	require.Len(t, tree.Data, 2)
	assert.True(t, tree.Data[0].Navigable)
	assert.Empty(t, tree.Data[1].Href)
	assert.False(t, tree.Data[1].Navigable)
	assert.Len(t, tree.Data[1].Children, 1)
	assert.NotNil(t, tree.Meta)

	w = serve(t, routes, admin, http.MethodDelete, "/items/"+adminMenu.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRulesRouter_UploadGrantDownload(t *testing.T) {
	client := newTestClient(t)
	routes := v1.NewRulesRouter(client).Routes()
	admin := member(t, client, "root", profile.RoleAdmin)
	player := member(t, client, "u1", profile.RolePlayer)

	upload := func(sess *session.Session) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("title", "Core Rules"))
		require.NoError(t, mw.WriteField("free", "false"))
		fw, err := mw.CreateFormFile("file", "core.pdf")
		require.NoError(t, err)
		_, err = fw.Write([]byte("%PDF-1.7 core rules"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req = req.WithContext(session.WithSession(req.Context(), *sess))
		w := httptest.NewRecorder()
		routes.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusForbidden, upload(player).Code)

	w := upload(admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	book := one(t, w)
	slug := book.Attributes["slug"].(string)
	assert.EqualValues(t, len("%PDF-1.7 core rules"), book.Attributes["size_bytes"])

	w = serve(t, routes, nil, http.MethodGet, "/"+slug+"/download", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = serve(t, routes, player, http.MethodGet, "/"+slug+"/download", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(t, routes, player, http.MethodGet, "/"+slug, nil)
	assert.Equal(t, "locked", one(t, w).Attributes["reason"])

	w = serve(t, routes, admin, http.MethodPost, "/"+slug+"/unlocks", map[string]any{"profile_id": "u1", "expires_at": "2099-01-01"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	unlock := one(t, w)

	w = serve(t, routes, player, http.MethodGet, "/"+slug+"/download", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), slug+".pdf")
	assert.Equal(t, "%PDF-1.7 core rules", w.Body.String())

	w = serve(t, routes, admin, http.MethodGet, "/"+slug+"/unlocks", nil)
	assert.Len(t, many(t, w), 1)

	w = serve(t, routes, admin, http.MethodDelete, "/unlocks/"+unlock.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = serve(t, routes, player, http.MethodGet, "/"+slug+"/download", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRulesRouter_UploadRequiresMultipart(t *testing.T) {
	client := newTestClient(t)
	routes := v1.NewRulesRouter(client).Routes()
	admin := member(t, client, "root", profile.RoleAdmin)

	w := serve(t, routes, admin, http.MethodPost, "/", map[string]any{"title": "Core"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportRouter(t *testing.T) {
	client := newTestClient(t, guildhall.WithExtractor(fixedExtractor{doc: map[string]any{
		"title":        "The Sunken Vault",
		"outcome":      "a resounding success",
		"played_at":    "2026-03-07",
		"participants": []string{"Jon", "Zorblax the Unknowable"},
	}}))
	owner := member(t, client, "u1", profile.RolePlayer)
	_, err := client.Characters.Create(session.WithSession(context.Background(), *owner), &service.CharacterParams{Name: "Jon"})
	require.NoError(t, err)

	routes := v1.NewImportRouter(client).Routes()

	w := serve(t, routes, nil, http.MethodPost, "/missions", map[string]any{"text": "notes"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(t, routes, owner, http.MethodPost, "/missions", map[string]any{"text": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(t, routes, owner, http.MethodPost, "/missions", map[string]any{"text": "Jon and Zorblax cracked the vault."})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	result := one(t, w)
	assert.Equal(t, "success", result.Attributes["outcome"])
	assert.Equal(t, []any{"Zorblax the Unknowable"}, result.Attributes["unregistered_names"])
	assert.Len(t, result.Meta["linked"], 1)
	assert.Len(t, result.Meta["unresolved"], 1)
}

func TestImportRouter_NoLanguageModel(t *testing.T) {
	client := newTestClient(t)
	owner := member(t, client, "u1", profile.RolePlayer)
	routes := v1.NewImportRouter(client).Routes()

	w := serve(t, routes, owner, http.MethodPost, "/characters", map[string]any{"text": "A ranger named Ivy."})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "no language model"))
}
