package v1

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/emberline/guildhall"
	"github.com/emberline/guildhall/application/service"
	"github.com/emberline/guildhall/domain/session"
	"github.com/emberline/guildhall/infrastructure/api/jsonapi"
	"github.com/emberline/guildhall/infrastructure/api/middleware"
	"github.com/emberline/guildhall/infrastructure/api/v1/dto"
	"github.com/emberline/guildhall/infrastructure/api/validation"
)

// MaxUploadBytes caps a rulebook upload.
const MaxUploadBytes = 64 << 20

// uploadMemory is how much of a multipart form is kept in memory before
// spilling to temporary files.
const uploadMemory = 8 << 20

// RulesRouter handles rulebook endpoints.
type RulesRouter struct {
	client     *guildhall.Client
	serializer *jsonapi.Serializer
	logger     *slog.Logger
}

// NewRulesRouter creates a new RulesRouter.
func NewRulesRouter(client *guildhall.Client) *RulesRouter {
	return &RulesRouter{
		client:     client,
		serializer: jsonapi.NewSerializer(),
		logger:     client.Logger(),
	}
}

// Routes returns the chi router for rulebook endpoints.
func (r *RulesRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/", r.Upload)
	router.Delete("/unlocks/{id}", r.Revoke)
	router.Get("/{slug}", r.Get)
	router.Delete("/{slug}", r.Delete)
	router.Get("/{slug}/download", r.Download)
	router.Get("/{slug}/unlocks", r.ListUnlocks)
	router.Post("/{slug}/unlocks", r.Grant)

	return router
}

// List handles GET /api/v1/rules. Each rulebook carries the caller's access.
func (r *RulesRouter) List(w http.ResponseWriter, req *http.Request) {
	books, err := r.client.Rules.List(req.Context())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewListResponse(r.serializer.RulebookResources(books)))
}

// Get handles GET /api/v1/rules/{slug}.
func (r *RulesRouter) Get(w http.ResponseWriter, req *http.Request) {
	book, err := r.client.Rules.Get(req.Context(), chi.URLParam(req, "slug"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.RulebookResource(book)))
}

// Download handles GET /api/v1/rules/{slug}/download.
//
//	@Summary		Download rulebook
//	@Description	Streams the file when the rulebook is free, unlocked for the caller, or the caller is an admin
//	@Tags			rules
//	@Produce		application/pdf
//	@Param			slug	path	string	true	"Rulebook slug"
//	@Success		200
//	@Failure		401	{object}	middleware.JSONAPIErrorResponse
//	@Failure		403	{object}	middleware.JSONAPIErrorResponse
//	@Failure		404	{object}	middleware.JSONAPIErrorResponse
//	@Router			/rules/{slug}/download [get]
func (r *RulesRouter) Download(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	pdf, rc, err := r.client.Rules.Open(ctx, chi.URLParam(req, "slug"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	defer func() { _ = rc.Close() }()

	filename := pdf.Slug() + path.Ext(pdf.ObjectKey())
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	if pdf.SizeBytes() > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(pdf.SizeBytes(), 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		r.logger.WarnContext(ctx, "rulebook download interrupted", slog.String("slug", pdf.Slug()), slog.Any("error", err))
	}
}

// Upload handles POST /api/v1/rules as multipart/form-data with fields
// title, slug, description, free and file.
func (r *RulesRouter) Upload(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	if _, err := session.RequireAdmin(ctx); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	req.Body = http.MaxBytesReader(w, req.Body, MaxUploadBytes)
	if err := req.ParseMultipartForm(uploadMemory); err != nil {
		middleware.WriteError(w, req, uploadError(err), r.logger)
		return
	}
	defer func() { _ = req.MultipartForm.RemoveAll() }()

	file, header, err := req.FormFile("file")
	if err != nil {
		middleware.WriteError(w, req, validation.NewRequestError(validation.FieldError{
			Field: "file", Tag: "required", Message: "file is required",
		}), r.logger)
		return
	}
	defer func() { _ = file.Close() }()

	free, _ := strconv.ParseBool(req.FormValue("free"))
	pdf, err := r.client.Rules.Upload(ctx, &service.UploadParams{
		Title:       req.FormValue("title"),
		Slug:        req.FormValue("slug"),
		Description: req.FormValue("description"),
		Free:        free,
		Filename:    header.Filename,
		Content:     file,
	})
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	book, err := r.client.Rules.Get(ctx, pdf.Slug())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, jsonapi.NewSingleResponse(r.serializer.RulebookResource(book)))
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return middleware.NewStatusError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("upload must be at most %d bytes", tooLarge.Limit), err)
	}
	return validation.NewRequestError(validation.FieldError{
		Field:   "file",
		Tag:     "multipart",
		Message: "request must be multipart/form-data",
	})
}

// Delete handles DELETE /api/v1/rules/{slug}.
func (r *RulesRouter) Delete(w http.ResponseWriter, req *http.Request) {
	if err := r.client.Rules.Delete(req.Context(), chi.URLParam(req, "slug")); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListUnlocks handles GET /api/v1/rules/{slug}/unlocks.
func (r *RulesRouter) ListUnlocks(w http.ResponseWriter, req *http.Request) {
	unlocks, err := r.client.Rules.Unlocks(req.Context(), chi.URLParam(req, "slug"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewListResponse(r.serializer.UnlockResources(unlocks)))
}

// Grant handles POST /api/v1/rules/{slug}/unlocks.
func (r *RulesRouter) Grant(w http.ResponseWriter, req *http.Request) {
	var body dto.GrantRequest
	if err := validation.Decode(req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	params, err := body.Params()
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	u, err := r.client.Rules.Grant(req.Context(), chi.URLParam(req, "slug"), params)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, jsonapi.NewSingleResponse(r.serializer.UnlockResource(u)))
}

// Revoke handles DELETE /api/v1/rules/unlocks/{id}.
func (r *RulesRouter) Revoke(w http.ResponseWriter, req *http.Request) {
	if err := r.client.Rules.Revoke(req.Context(), chi.URLParam(req, "id")); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
