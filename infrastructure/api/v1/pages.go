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

// PagesRouter handles content page endpoints.
type PagesRouter struct {
	client     *guildhall.Client
	serializer *jsonapi.Serializer
	logger     *slog.Logger
}

// NewPagesRouter creates a new PagesRouter.
func NewPagesRouter(client *guildhall.Client) *PagesRouter {
	return &PagesRouter{
		client:     client,
		serializer: jsonapi.NewSerializer(),
		logger:     client.Logger(),
	}
}

// Routes returns the chi router for page endpoints.
func (r *PagesRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/", r.Create)
	router.Get("/{slug}", r.Get)
	router.Patch("/{slug}", r.Update)
	router.Delete("/{slug}", r.Delete)

	return router
}

// List handles GET /api/v1/pages. Pages the caller may not read are left out.
func (r *PagesRouter) List(w http.ResponseWriter, req *http.Request) {
	pages, err := r.client.Pages.List(req.Context())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	paging := ParsePaging(req.URL.Query())

	doc := jsonapi.NewListResponse(r.serializer.PageResources(Slice(pages, paging)))
	Paginate(doc, req, paging, int64(len(pages)))
	middleware.WriteJSON(w, http.StatusOK, doc)
}

// Get handles GET /api/v1/pages/{slug}.
//
//	@Summary		Get page
//	@Description	Unpublished or restricted pages answer 404 or 401/403 by access level
//	@Tags			pages
//	@Produce		json
//	@Param			slug	path		string	true	"Page slug"
//	@Success		200		{object}	jsonapi.Document
//	@Failure		404		{object}	middleware.JSONAPIErrorResponse
//	@Router			/pages/{slug} [get]
func (r *PagesRouter) Get(w http.ResponseWriter, req *http.Request) {
	p, err := r.client.Pages.Get(req.Context(), chi.URLParam(req, "slug"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.PageResource(p)))
}

// Create handles POST /api/v1/pages.
func (r *PagesRouter) Create(w http.ResponseWriter, req *http.Request) {
	var body dto.PageRequest
	if err := validation.Decode(req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	p, err := r.client.Pages.Create(req.Context(), body.Params())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, jsonapi.NewSingleResponse(r.serializer.PageResource(p)))
}

// Update handles PATCH /api/v1/pages/{slug}.
func (r *PagesRouter) Update(w http.ResponseWriter, req *http.Request) {
	var body dto.PagePatchRequest
	if err := validation.Decode(req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	p, err := r.client.Pages.Update(req.Context(), chi.URLParam(req, "slug"), body.Patch())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.PageResource(p)))
}

// Delete handles DELETE /api/v1/pages/{slug}.
func (r *PagesRouter) Delete(w http.ResponseWriter, req *http.Request) {
	if err := r.client.Pages.Delete(req.Context(), chi.URLParam(req, "slug")); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
