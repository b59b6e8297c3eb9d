package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/emberline/guildhall"
	"github.com/emberline/guildhall/domain/profile"
	"github.com/emberline/guildhall/infrastructure/api/jsonapi"
	"github.com/emberline/guildhall/infrastructure/api/middleware"
	"github.com/emberline/guildhall/infrastructure/api/v1/dto"
	"github.com/emberline/guildhall/infrastructure/api/validation"
)

// ProfilesRouter handles profile endpoints.
type ProfilesRouter struct {
	client     *guildhall.Client
	serializer *jsonapi.Serializer
	logger     *slog.Logger
}

// NewProfilesRouter creates a new ProfilesRouter.
func NewProfilesRouter(client *guildhall.Client) *ProfilesRouter {
	return &ProfilesRouter{
		client:     client,
		serializer: jsonapi.NewSerializer(),
		logger:     client.Logger(),
	}
}

// Routes returns the chi router for profile endpoints.
func (r *ProfilesRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/me", r.Me)
	router.Patch("/me", r.UpdateMe)
	router.Put("/{id}/role", r.SetRole)

	return router
}

// Me handles GET /api/v1/profiles/me.
//
//	@Summary	Current profile
//	@Tags		profiles
//	@Produce	json
//	@Success	200	{object}	jsonapi.Document
//	@Failure	401	{object}	middleware.JSONAPIErrorResponse
//	@Router		/profiles/me [get]
func (r *ProfilesRouter) Me(w http.ResponseWriter, req *http.Request) {
	p, err := r.client.Profiles.Me(req.Context())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.ProfileResource(p)))
}

// UpdateMe handles PATCH /api/v1/profiles/me.
func (r *ProfilesRouter) UpdateMe(w http.ResponseWriter, req *http.Request) {
	var body dto.ProfileUpdateRequest
	if err := validation.Decode(req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	p, err := r.client.Profiles.UpdateMe(req.Context(), body.DisplayName)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.ProfileResource(p)))
}

// SetRole handles PUT /api/v1/profiles/{id}/role.
func (r *ProfilesRouter) SetRole(w http.ResponseWriter, req *http.Request) {
	var body dto.RoleRequest
	if err := validation.Decode(req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	p, err := r.client.Profiles.SetRole(req.Context(), chi.URLParam(req, "id"), profile.Role(body.Role))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.ProfileResource(p)))
}
