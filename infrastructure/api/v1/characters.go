package v1

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/emberline/guildhall"
	"github.com/emberline/guildhall/infrastructure/api/jsonapi"
	"github.com/emberline/guildhall/infrastructure/api/middleware"
	"github.com/emberline/guildhall/infrastructure/api/v1/dto"
	"github.com/emberline/guildhall/infrastructure/api/validation"
)

// CharactersRouter handles character endpoints.
type CharactersRouter struct {
	client     *guildhall.Client
	serializer *jsonapi.Serializer
	logger     *slog.Logger
}

// NewCharactersRouter creates a new CharactersRouter.
func NewCharactersRouter(client *guildhall.Client) *CharactersRouter {
	return &CharactersRouter{
		client:     client,
		serializer: jsonapi.NewSerializer(),
		logger:     client.Logger(),
	}
}

// Routes returns the chi router for character endpoints.
func (r *CharactersRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.ListOwn)
	router.Post("/", r.Create)
	router.Get("/search", r.Search)
	router.Get("/{id}", r.Get)
	router.Patch("/{id}", r.Update)
	router.Delete("/{id}", r.Delete)
	router.Get("/{id}/progression", r.Progression)

	return router
}

// ListOwn handles GET /api/v1/characters.
//
//	@Summary	List own characters
//	@Tags		characters
//	@Produce	json
//	@Success	200	{object}	jsonapi.Document
//	@Failure	401	{object}	middleware.JSONAPIErrorResponse
//	@Router		/characters [get]
func (r *CharactersRouter) ListOwn(w http.ResponseWriter, req *http.Request) {
	chars, err := r.client.Characters.ListOwn(req.Context())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewListResponse(r.serializer.CharacterResources(chars)))
}

// Search handles GET /api/v1/characters/search?q=.
//
//	@Summary	Search public characters
//	@Tags		characters
//	@Produce	json
//	@Param		q		query	string	true	"Part of the name"
//	@Param		limit	query	int		false	"Maximum results"
//	@Success	200	{object}	jsonapi.Document
//	@Failure	400	{object}	middleware.JSONAPIErrorResponse
//	@Router		/characters/search [get]
func (r *CharactersRouter) Search(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query().Get("q")
	if q == "" {
		middleware.WriteError(w, req, validation.NewRequestError(validation.FieldError{
			Field: "q", Tag: "required", Message: "q is required",
		}), r.logger)
		return
	}
	limit := 0
	if raw := req.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			middleware.WriteError(w, req, validation.NewRequestError(validation.FieldError{
				Field: "limit", Tag: "gt", Message: "limit must be a positive number",
			}), r.logger)
			return
		}
		limit = n
	}

	chars, err := r.client.Characters.SearchPublic(req.Context(), q, limit)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewListResponse(r.serializer.CharacterResources(chars)))
}

// Get handles GET /api/v1/characters/{id}.
func (r *CharactersRouter) Get(w http.ResponseWriter, req *http.Request) {
	detail, err := r.client.Characters.Detail(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.CharacterDetailResource(detail)))
}

// Progression handles GET /api/v1/characters/{id}/progression.
func (r *CharactersRouter) Progression(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")
	p, err := r.client.Characters.Progression(req.Context(), id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.ProgressionResource(id, p)))
}

// Create handles POST /api/v1/characters.
func (r *CharactersRouter) Create(w http.ResponseWriter, req *http.Request) {
	var body dto.CharacterRequest
	if err := validation.Decode(req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	c, err := r.client.Characters.Create(req.Context(), body.Params())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, jsonapi.NewSingleResponse(r.serializer.CharacterResource(c)))
}

// Update handles PATCH /api/v1/characters/{id}.
func (r *CharactersRouter) Update(w http.ResponseWriter, req *http.Request) {
	var body dto.CharacterPatchRequest
	if err := validation.Decode(req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	c, err := r.client.Characters.Update(req.Context(), chi.URLParam(req, "id"), body.Patch())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.CharacterResource(c)))
}

// Delete handles DELETE /api/v1/characters/{id}.
func (r *CharactersRouter) Delete(w http.ResponseWriter, req *http.Request) {
	if err := r.client.Characters.Delete(req.Context(), chi.URLParam(req, "id")); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
