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

// ImportRouter turns free-text notes into missions and characters.
type ImportRouter struct {
	client     *guildhall.Client
	serializer *jsonapi.Serializer
	logger     *slog.Logger
}

// NewImportRouter creates a new ImportRouter.
func NewImportRouter(client *guildhall.Client) *ImportRouter {
	return &ImportRouter{
		client:     client,
		serializer: jsonapi.NewSerializer(),
		logger:     client.Logger(),
	}
}

// Routes returns the chi router for import endpoints.
func (r *ImportRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/missions", r.ImportMission)
	router.Post("/characters", r.ImportCharacter)

	return router
}

// ImportMission handles POST /api/v1/import/missions.
//
//	@Summary		Import mission notes
//	@Description	Extracts a mission from free text and links the participants it can resolve
//	@Tags			import
//	@Accept			json
//	@Produce		json
//	@Param			body	body		dto.ImportRequest	true	"Session notes"
//	@Success		201		{object}	jsonapi.Document
//	@Failure		400		{object}	middleware.JSONAPIErrorResponse
//	@Failure		401		{object}	middleware.JSONAPIErrorResponse
//	@Failure		502		{object}	middleware.JSONAPIErrorResponse
//	@Failure		503		{object}	middleware.JSONAPIErrorResponse
//	@Router			/import/missions [post]
func (r *ImportRouter) ImportMission(w http.ResponseWriter, req *http.Request) {
	var body dto.ImportRequest
	if err := validation.Decode(req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	result, err := r.client.Import.ImportMission(req.Context(), body.Text)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, r.serializer.MissionImportResponse(result))
}

// ImportCharacter handles POST /api/v1/import/characters.
func (r *ImportRouter) ImportCharacter(w http.ResponseWriter, req *http.Request) {
	var body dto.ImportRequest
	if err := validation.Decode(req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	result, err := r.client.Import.ImportCharacter(req.Context(), body.Text)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, r.serializer.CharacterImportResponse(result))
}
