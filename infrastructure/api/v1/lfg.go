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

// LFGRouter handles looking-for-group endpoints.
type LFGRouter struct {
	client     *guildhall.Client
	serializer *jsonapi.Serializer
	logger     *slog.Logger
}

// NewLFGRouter creates a new LFGRouter.
func NewLFGRouter(client *guildhall.Client) *LFGRouter {
	return &LFGRouter{
		client:     client,
		serializer: jsonapi.NewSerializer(),
		logger:     client.Logger(),
	}
}

// Routes returns the chi router for LFG endpoints.
func (r *LFGRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.ListOpen)
	router.Post("/", r.Create)
	router.Get("/{id}", r.Get)
	router.Patch("/{id}", r.Update)
	router.Post("/{id}/close", r.Close)
	router.Delete("/{id}", r.Delete)

	return router
}

// ListOpen handles GET /api/v1/lfg. Only open posts that have not started
// are listed, soonest first.
func (r *LFGRouter) ListOpen(w http.ResponseWriter, req *http.Request) {
	limit := min(positiveInt(req.URL.Query().Get("limit")), MaxPageSize)

	posts, err := r.client.LFG.Open(req.Context(), limit)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewListResponse(r.serializer.LFGPostResources(posts)))
}

// Get handles GET /api/v1/lfg/{id}.
func (r *LFGRouter) Get(w http.ResponseWriter, req *http.Request) {
	p, err := r.client.LFG.Get(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.LFGPostResource(p)))
}

// Create handles POST /api/v1/lfg.
func (r *LFGRouter) Create(w http.ResponseWriter, req *http.Request) {
	var body dto.PostRequest
	if err := validation.Decode(req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	params, err := body.Params()
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	p, err := r.client.LFG.Create(req.Context(), params)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, jsonapi.NewSingleResponse(r.serializer.LFGPostResource(p)))
}

// Update handles PATCH /api/v1/lfg/{id}.
func (r *LFGRouter) Update(w http.ResponseWriter, req *http.Request) {
	var body dto.PostPatchRequest
	if err := validation.Decode(req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	patch, err := body.Patch()
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	p, err := r.client.LFG.Update(req.Context(), chi.URLParam(req, "id"), patch)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.LFGPostResource(p)))
}

// Close handles POST /api/v1/lfg/{id}/close.
func (r *LFGRouter) Close(w http.ResponseWriter, req *http.Request) {
	p, err := r.client.LFG.Close(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.LFGPostResource(p)))
}

// Delete handles DELETE /api/v1/lfg/{id}.
func (r *LFGRouter) Delete(w http.ResponseWriter, req *http.Request) {
	if err := r.client.LFG.Delete(req.Context(), chi.URLParam(req, "id")); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
