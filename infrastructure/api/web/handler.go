// Package web serves the server-rendered member site: the dashboard, content
// pages, character sheets, the mission log, classes, the LFG board, the
// rulebook shelf and the import form.
package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/emberline/guildhall"
	"github.com/emberline/guildhall/application/service"
	"github.com/emberline/guildhall/domain/character"
	"github.com/emberline/guildhall/domain/lfg"
	"github.com/emberline/guildhall/domain/session"
	"github.com/emberline/guildhall/infrastructure/api/middleware"
	"github.com/emberline/guildhall/infrastructure/markdown"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	dashboardLimit  = 5
	missionPageSize = 20
	lfgLimit        = 50
	maxImportBytes  = 256 << 10
)

// Option configures a Handler.
type Option func(*Handler)

// WithImportLimiter rate-limits POST /import with mw.
func WithImportLimiter(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) { h.importLimiter = mw }
}

// WithClock sets the clock used for relative times and calendar stamps.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// Handler renders the web pages.
type Handler struct {
	client        *guildhall.Client
	pages         map[string]*template.Template
	importLimiter func(http.Handler) http.Handler
	now           func() time.Time
	logger        *slog.Logger
}

// NewHandler parses the embedded templates and returns a Handler.
func NewHandler(client *guildhall.Client, opts ...Option) (*Handler, error) {
	h := &Handler{
		client: client,
		now:    time.Now,
		logger: client.Logger(),
	}
	for _, opt := range opts {
		opt(h)
	}

	pages, err := parseTemplates(funcMap(markdown.NewRenderer(), h.now))
	if err != nil {
		return nil, err
	}
	h.pages = pages
	return h, nil
}

func parseTemplates(funcs template.FuncMap) (map[string]*template.Template, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		if name == "templates/layout.html" {
			continue
		}
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		key := strings.TrimSuffix(strings.TrimPrefix(name, "templates/"), ".html")
		pages[key] = t
	}
	return pages, nil
}

// Routes returns the web routes.
func (h *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	static, _ := fs.Sub(staticFS, "static")
	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(static)))

	router.Get("/", h.Dashboard)
	router.Get("/pages/{slug}", h.Page)
	router.Get("/characters/{id}", h.Character)
	router.Get("/missions", h.Missions)
	router.Get("/missions/{id}", h.Mission)
	router.Get("/classes/{slug}", h.Class)
	router.Get("/lfg", h.LFG)
	router.Get("/lfg/{id}.ics", h.Calendar)
	router.Get("/rules", h.Rules)
	router.Get("/import", h.ImportForm)

	submit := http.Handler(http.HandlerFunc(h.Import))
	if h.importLimiter != nil {
		submit = h.importLimiter(submit)
	}
	router.Method(http.MethodPost, "/import", submit)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.fail(w, r, fmt.Errorf("%s: %w", r.URL.Path, errNotFound))
	})
	return router
}

var errNotFound = errors.New("page not found")

// layout is what every page template receives.
type layout struct {
	Title  string
	Nav    []navView
	Viewer session.Viewer
	Data   any
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	t, ok := h.pages[name]
	if !ok {
		h.logger.ErrorContext(r.Context(), "unknown template", slog.String("template", name))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	viewer := session.FromContext(r.Context()).Viewer()
	tree := h.client.Navigation.Tree(r.Context(), viewer)

	var buf bytes.Buffer
	err := t.ExecuteTemplate(&buf, "layout", layout{
		Title:  title,
		Nav:    navViews(tree.Roots()),
		Viewer: viewer,
		Data:   data,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "render failed", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type errorData struct {
	Title  string
	Detail string
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, title, detail := middleware.Classify(err)
	if errors.Is(err, errNotFound) {
		status, title, detail = http.StatusNotFound, "Not Found", "There is nothing at this address."
	}
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "page failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		detail = "Something went wrong. Try again later."
	}
	h.render(w, r, status, "error", title, errorData{Title: title, Detail: detail})
}

type dashboardData struct {
	Characters []characterView
	Posts      []postView
	Missions   []missionView
}

// Dashboard shows open LFG posts, recent missions and the viewer's characters.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer := session.FromContext(ctx).Viewer()

	var data dashboardData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		posts, err := h.client.LFG.Open(gctx, dashboardLimit)
		if err != nil {
			return err
		}
		data.Posts = postViews(posts, func(p lfg.Post) bool { return p.EditableBy(viewer) })
		return nil
	})
	g.Go(func() error {
		missions, _, err := h.client.Missions.List(gctx, &service.MissionListParams{Limit: dashboardLimit})
		if err != nil {
			return err
		}
		data.Missions = missionViews(missions)
		return nil
	})
	if viewer.Authenticated() {
		g.Go(func() error {
			chars, err := h.client.Characters.ListOwn(gctx)
			if err != nil {
				return err
			}
			data.Characters = characterViews(chars)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		h.fail(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "dashboard", "Home", data)
}

// Page renders a content page.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	p, err := h.client.Pages.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "page", p.Title(), toPageView(p))
}

type characterData struct {
	Character   characterView
	ClassName   string
	Progression character.Progression
	Missions    []missionView
}

// Character renders a character sheet with its progression.
func (h *Handler) Character(w http.ResponseWriter, r *http.Request) {
	detail, err := h.client.Characters.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "character", detail.Character.Name(), characterData{
		Character:   toCharacterView(detail.Character),
		ClassName:   detail.ClassName,
		Progression: detail.Progression,
		Missions:    missionViews(detail.Missions),
	})
}

type missionsData struct {
	Missions   []missionView
	Page       int
	TotalPages int
	PrevPage   int
	NextPage   int
}

// Missions renders one page of the mission log, newest first.
func (h *Handler) Missions(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err == nil && n > 0 {
			page = n
		}
	}

	missions, total, err := h.client.Missions.List(r.Context(), &service.MissionListParams{
		Limit:  missionPageSize,
		Offset: (page - 1) * missionPageSize,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	totalPages := max(1, int((total+missionPageSize-1)/missionPageSize))
	data := missionsData{
		Missions:   missionViews(missions),
		Page:       page,
		TotalPages: totalPages,
	}
	if page > 1 {
		data.PrevPage = page - 1
	}
	if page < totalPages {
		data.NextPage = page + 1
	}
	h.render(w, r, http.StatusOK, "missions", "Mission log", data)
}

type missionData struct {
	Mission      missionView
	Participants []characterView
	CreatorName  string
	GMName       string
}

// Mission renders one mission with its party.
func (h *Handler) Mission(w http.ResponseWriter, r *http.Request) {
	detail, err := h.client.Missions.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "mission", detail.Mission.Title(), missionData{
		Mission:      toMissionView(detail.Mission),
		Participants: characterViews(detail.Participants),
		CreatorName:  detail.CreatorName,
		GMName:       detail.GMName,
	})
}

// Class renders a class. Teaser classes show only the summary to guests.
func (h *Handler) Class(w http.ResponseWriter, r *http.Request) {
	view, err := h.client.Classes.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "class", view.Class().Name(), toClassView(view))
}

type lfgData struct {
	Posts []postView
}

// LFG renders the open looking-for-group posts.
func (h *Handler) LFG(w http.ResponseWriter, r *http.Request) {
	posts, err := h.client.LFG.Open(r.Context(), lfgLimit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	viewer := session.FromContext(r.Context()).Viewer()
	h.render(w, r, http.StatusOK, "lfg", "Looking for group", lfgData{
		Posts: postViews(posts, func(p lfg.Post) bool { return p.EditableBy(viewer) }),
	})
}

// Calendar serves a post as an iCalendar file.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	post, err := h.client.LFG.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+post.ID()+`.ics"`)
	_, _ = w.Write([]byte(lfg.ICS(post, r.Host, h.now())))
}

type rulesData struct {
	Rulebooks []rulebookView
}

// Rules lists the rulebooks with the viewer's access to each.
func (h *Handler) Rules(w http.ResponseWriter, r *http.Request) {
	books, err := h.client.Rules.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "rules", "Rulebooks", rulesData{Rulebooks: rulebookViews(books)})
}

type importData struct {
	Enabled bool
	Kind    string
	Text    string
	Error   string
}

// ImportForm renders the import form.
func (h *Handler) ImportForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "import", "Import", importData{
		Enabled: h.client.ImportEnabled(),
		Kind:    r.URL.Query().Get("kind"),
	})
}

// Import runs an import from the form and redirects to what it created. A
// failed import re-renders the form with the submitted text kept.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "import", "Import", importData{
			Enabled: h.client.ImportEnabled(),
			Error:   "The submitted form could not be read.",
		})
		return
	}

	data := importData{
		Enabled: h.client.ImportEnabled(),
		Kind:    r.PostForm.Get("kind"),
		Text:    r.PostForm.Get("text"),
	}
	if strings.TrimSpace(data.Text) == "" {
		data.Error = "Paste some text to import."
		h.render(w, r, http.StatusBadRequest, "import", "Import", data)
		return
	}

	var (
		target string
		err    error
	)
	switch data.Kind {
	case "character":
		var res service.CharacterImportResult
		res, err = h.client.Import.ImportCharacter(r.Context(), data.Text)
		target = "/characters/" + res.Character.ID()
	default:
		var res service.ImportResult
		res, err = h.client.Import.ImportMission(r.Context(), data.Text)
		target = "/missions/" + res.Mission.ID()
	}
	if err != nil {
		status, _, detail := middleware.Classify(err)
		if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
			h.logger.ErrorContext(r.Context(), "import failed", slog.String("kind", data.Kind), slog.Any("error", err))
			detail = "The import failed. Try again later."
		}
		data.Error = detail
		h.render(w, r, status, "import", "Import", data)
		return
	}

	http.Redirect(w, r, target, http.StatusSeeOther)
}
