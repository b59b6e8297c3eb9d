// Package v1 provides the v1 API routes.
package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/emberline/guildhall"
	"github.com/emberline/guildhall/domain/session"
	"github.com/emberline/guildhall/infrastructure/api/jsonapi"
	"github.com/emberline/guildhall/infrastructure/api/middleware"
	"github.com/emberline/guildhall/infrastructure/api/v1/dto"
	"github.com/emberline/guildhall/infrastructure/api/validation"
)

// NavRouter handles navigation endpoints.
type NavRouter struct {
	client     *guildhall.Client
	serializer *jsonapi.Serializer
	logger     *slog.Logger
}

// NewNavRouter creates a new NavRouter.
func NewNavRouter(client *guildhall.Client) *NavRouter {
	return &NavRouter{
		client:     client,
		serializer: jsonapi.NewSerializer(),
		logger:     client.Logger(),
	}
}

// Routes returns the chi router for navigation endpoints.
func (r *NavRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.Tree)
	router.Get("/items", r.ListItems)
	router.Post("/items", r.CreateItem)
	router.Put("/items/{id}", r.UpdateItem)
	router.Delete("/items/{id}", r.DeleteItem)

	return router
}

// Tree handles GET /api/v1/nav.
//
//	@Summary		Navigation tree
//	@Description	Menu entries visible to the caller. Admins also get the rows that were left out.
//	@Tags			nav
//	@Produce		json
//	@Success		200	{object}	jsonapi.NavTreeResponse
//	@Router			/nav [get]
func (r *NavRouter) Tree(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	viewer := session.FromContext(ctx).Viewer()
	tree := r.client.Navigation.Tree(ctx, viewer)
	middleware.WriteJSON(w, http.StatusOK, r.serializer.NavTree(tree, viewer.IsAdmin()))
}

// ListItems handles GET /api/v1/nav/items.
func (r *NavRouter) ListItems(w http.ResponseWriter, req *http.Request) {
	items, err := r.client.Navigation.Items(req.Context())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewListResponse(r.serializer.NavItemResources(items)))
}

// CreateItem handles POST /api/v1/nav/items.
func (r *NavRouter) CreateItem(w http.ResponseWriter, req *http.Request) {
	var body dto.NavItemRequest
	if err := validation.Decode(req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	item, err := r.client.Navigation.Create(req.Context(), body.Params())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, jsonapi.NewSingleResponse(r.serializer.NavItemResource(item)))
}

// UpdateItem handles PUT /api/v1/nav/items/{id}.
func (r *NavRouter) UpdateItem(w http.ResponseWriter, req *http.Request) {
	var body dto.NavItemRequest
	if err := validation.Decode(req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	item, err := r.client.Navigation.Update(req.Context(), chi.URLParam(req, "id"), body.Params())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.NavItemResource(item)))
}

// DeleteItem handles DELETE /api/v1/nav/items/{id}.
func (r *NavRouter) DeleteItem(w http.ResponseWriter, req *http.Request) {
	if err := r.client.Navigation.Delete(req.Context(), chi.URLParam(req, "id")); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
