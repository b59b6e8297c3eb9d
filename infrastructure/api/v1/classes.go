package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/emberline/guildhall"
	"github.com/emberline/guildhall/infrastructure/api/jsonapi"
	"github.com/emberline/guildhall/infrastructure/api/middleware"
	"github.com/emberline/guildhall/infrastructure/api/v1/dto"
	"github.com/emberline/guildhall/infrastructure/api/validation"
)

// ClassesRouter handles class endpoints.
type ClassesRouter struct {
	client     *guildhall.Client
	serializer *jsonapi.Serializer
	logger     *slog.Logger
}

// NewClassesRouter creates a new ClassesRouter.
func NewClassesRouter(client *guildhall.Client) *ClassesRouter {
	return &ClassesRouter{
		client:     client,
		serializer: jsonapi.NewSerializer(),
		logger:     client.Logger(),
	}
}

// Routes returns the chi router for class endpoints.
func (r *ClassesRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/", r.Create)
	router.Get("/{slug}", r.Get)
	router.Patch("/{slug}", r.Update)
	router.Delete("/{slug}", r.Delete)
	router.Post("/{slug}/versions", r.AddVersion)

	return router
}

// List handles GET /api/v1/classes.
func (r *ClassesRouter) List(w http.ResponseWriter, req *http.Request) {
	classes, err := r.client.Classes.List(req.Context())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewListResponse(r.serializer.ClassResources(classes)))
}

// Get handles GET /api/v1/classes/{slug}. Teaser classes come back without
// their versions unless the caller is an admin.
func (r *ClassesRouter) Get(w http.ResponseWriter, req *http.Request) {
	view, err := r.client.Classes.Get(req.Context(), chi.URLParam(req, "slug"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.ClassViewResource(view)))
}

// Create handles POST /api/v1/classes.
func (r *ClassesRouter) Create(w http.ResponseWriter, req *http.Request) {
	var body dto.ClassRequest
	if err := validation.Decode(req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	view, err := r.client.Classes.Create(req.Context(), body.Params())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, jsonapi.NewSingleResponse(r.serializer.ClassViewResource(view)))
}

// Update handles PATCH /api/v1/classes/{slug}.
func (r *ClassesRouter) Update(w http.ResponseWriter, req *http.Request) {
	var body dto.ClassPatchRequest
	if err := validation.Decode(req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	c, err := r.client.Classes.Update(req.Context(), chi.URLParam(req, "slug"), body.Patch())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.ClassResource(c)))
}

// AddVersion handles POST /api/v1/classes/{slug}/versions.
func (r *ClassesRouter) AddVersion(w http.ResponseWriter, req *http.Request) {
	var body dto.VersionRequest
	if err := validation.Decode(req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	v, err := r.client.Classes.AddVersion(req.Context(), chi.URLParam(req, "slug"), body.Params())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, jsonapi.NewSingleResponse(r.serializer.VersionResource(v)))
}

// Delete handles DELETE /api/v1/classes/{slug}.
func (r *ClassesRouter) Delete(w http.ResponseWriter, req *http.Request) {
	if err := r.client.Classes.Delete(req.Context(), chi.URLParam(req, "slug")); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
