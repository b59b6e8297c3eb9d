package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/emberline/guildhall"
	"github.com/emberline/guildhall/application/service"
	"github.com/emberline/guildhall/infrastructure/api/jsonapi"
	"github.com/emberline/guildhall/infrastructure/api/middleware"
	"github.com/emberline/guildhall/infrastructure/api/v1/dto"
	"github.com/emberline/guildhall/infrastructure/api/validation"
)

// MissionsRouter handles mission log endpoints.
type MissionsRouter struct {
	client     *guildhall.Client
	serializer *jsonapi.Serializer
	now        func() time.Time
	logger     *slog.Logger
}

// NewMissionsRouter creates a new MissionsRouter.
func NewMissionsRouter(client *guildhall.Client) *MissionsRouter {
	return &MissionsRouter{
		client:     client,
		serializer: jsonapi.NewSerializer(),
		now:        time.Now,
		logger:     client.Logger(),
	}
}

// Routes returns the chi router for mission endpoints.
func (r *MissionsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/", r.Create)
	router.Get("/{id}", r.Get)
	router.Patch("/{id}", r.Update)
	router.Delete("/{id}", r.Delete)
	router.Post("/{id}/characters", r.AddCharacter)
	router.Delete("/{id}/characters/{characterID}", r.RemoveCharacter)

	return router
}

// List handles GET /api/v1/missions.
//
//	@Summary		List missions
//	@Description	Most recently played first
//	@Tags			missions
//	@Produce		json
//	@Param			outcome		query	string	false	"success, failure or pending"
//	@Param			creator_id	query	string	false	"Only missions logged by this profile"
//	@Param			page		query	int		false	"Page number (default: 1)"
//	@Param			page_size	query	int		false	"Results per page (default: 20, max: 100)"
//	@Success		200	{object}	jsonapi.Document
//	@Failure		400	{object}	middleware.JSONAPIErrorResponse
//	@Router			/missions [get]
func (r *MissionsRouter) List(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	paging := ParsePaging(q)

	missions, total, err := r.client.Missions.List(req.Context(), &service.MissionListParams{
		Outcome:   q.Get("outcome"),
		CreatorID: q.Get("creator_id"),
		Limit:     paging.Size,
		Offset:    paging.Offset(),
	})
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	doc := jsonapi.NewListResponse(r.serializer.MissionResources(missions))
	Paginate(doc, req, paging, total)
	middleware.WriteJSON(w, http.StatusOK, doc)
}

// Get handles GET /api/v1/missions/{id}. Participants the viewer may see are
// included.
func (r *MissionsRouter) Get(w http.ResponseWriter, req *http.Request) {
	detail, err := r.client.Missions.Detail(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, r.serializer.MissionDetailResponse(detail))
}

// Create handles POST /api/v1/missions.
func (r *MissionsRouter) Create(w http.ResponseWriter, req *http.Request) {
	var body dto.MissionRequest
	if err := validation.Decode(req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	params, err := body.Params(r.now())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	m, err := r.client.Missions.Create(req.Context(), params)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, jsonapi.NewSingleResponse(r.serializer.MissionResource(m)))
}

// Update handles PATCH /api/v1/missions/{id}.
func (r *MissionsRouter) Update(w http.ResponseWriter, req *http.Request) {
	var body dto.MissionPatchRequest
	if err := validation.Decode(req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	patch, err := body.Patch()
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	m, err := r.client.Missions.Update(req.Context(), chi.URLParam(req, "id"), patch)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.MissionResource(m)))
}

// Delete handles DELETE /api/v1/missions/{id}.
func (r *MissionsRouter) Delete(w http.ResponseWriter, req *http.Request) {
	if err := r.client.Missions.Delete(req.Context(), chi.URLParam(req, "id")); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddCharacter handles POST /api/v1/missions/{id}/characters. Linking an
// already linked character answers 200 instead of 201.
func (r *MissionsRouter) AddCharacter(w http.ResponseWriter, req *http.Request) {
	var body dto.ParticipantRequest
	if err := validation.Decode(req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	id := chi.URLParam(req, "id")
	created, err := r.client.Missions.AddCharacter(req.Context(), id, body.CharacterID)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	middleware.WriteJSON(w, status, jsonapi.NewSingleResponse(&jsonapi.Resource{
		Type: "mission_character",
		ID:   id + ":" + body.CharacterID,
		Attributes: map[string]string{
			"mission_id":   id,
			"character_id": body.CharacterID,
		},
	}))
}

// RemoveCharacter handles DELETE /api/v1/missions/{id}/characters/{characterID}.
func (r *MissionsRouter) RemoveCharacter(w http.ResponseWriter, req *http.Request) {
	err := r.client.Missions.RemoveCharacter(req.Context(), chi.URLParam(req, "id"), chi.URLParam(req, "characterID"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
