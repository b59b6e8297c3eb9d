package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/emberline/guildhall/domain/rules"
	"github.com/emberline/guildhall/domain/session"
	"github.com/emberline/guildhall/domain/store"
	"github.com/emberline/guildhall/internal/domain"
	"github.com/google/uuid"
)

// Rulebook is a rulebook with the viewer's access decision.
type Rulebook struct {
	PDF    rules.PDF
	Access rules.Decision
}

// UploadParams describes a new rulebook file.
type UploadParams struct {
	Title       string
	Slug        string
	Description string
	Free        bool
	Filename    string
	Content     io.Reader
}

// GrantParams describes a new unlock.
type GrantParams struct {
	ProfileID string
	ExpiresAt *time.Time
}

// Rules serves rulebook PDFs and manages unlocks.
type Rules struct {
	pdfs    rules.Store
	unlocks rules.UnlockStore
	objects rules.ObjectStore
	now     func() time.Time
	logger  *slog.Logger
}

// NewRules creates a Rules service.
func NewRules(pdfs rules.Store, unlocks rules.UnlockStore, objects rules.ObjectStore, logger *slog.Logger) *Rules {
	return &Rules{
		pdfs:    pdfs,
		unlocks: unlocks,
		objects: objects,
		now:     time.Now,
		logger:  loggerOrDefault(logger),
	}
}

// List returns every rulebook with the viewer's access to it.
func (s *Rules) List(ctx context.Context) ([]Rulebook, error) {
	pdfs, err := s.pdfs.Find(ctx, rules.ByTitle())
	if err != nil {
		return nil, fmt.Errorf("list rulebooks: %w", err)
	}
	viewer := session.FromContext(ctx).Viewer()
	unlocks, err := s.viewerUnlocks(ctx, viewer)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]Rulebook, len(pdfs))
	for i, p := range pdfs {
		out[i] = Rulebook{PDF: p, Access: rules.Access(p, viewer, unlocks, now)}
	}
	return out, nil
}

// Get returns one rulebook with the viewer's access to it.
func (s *Rules) Get(ctx context.Context, slug string) (Rulebook, error) {
	p, err := s.pdfs.FindOne(ctx, store.WithSlug(slug))
	if err != nil {
		return Rulebook{}, fmt.Errorf("get rulebook: %w", err)
	}
	viewer := session.FromContext(ctx).Viewer()
	unlocks, err := s.viewerUnlocks(ctx, viewer, rules.WithPDFID(p.ID()))
	if err != nil {
		return Rulebook{}, err
	}
	return Rulebook{PDF: p, Access: rules.Access(p, viewer, unlocks, s.now())}, nil
}

func (s *Rules) viewerUnlocks(ctx context.Context, v session.Viewer, opts ...store.Option) ([]rules.Unlock, error) {
	if !v.Authenticated() || v.IsAdmin() {
		return nil, nil
	}
	opts = append(opts, rules.WithProfileID(v.UserID))
	unlocks, err := s.unlocks.Find(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("list unlocks: %w", err)
	}
	return unlocks, nil
}

// Open returns the rulebook file when the viewer may download it. The caller
// closes the reader.
func (s *Rules) Open(ctx context.Context, slug string) (rules.PDF, io.ReadCloser, error) {
	book, err := s.Get(ctx, slug)
	if err != nil {
		return rules.PDF{}, nil, err
	}
	switch {
	case book.Access.Allowed:
	case book.Access.Reason == rules.ReasonAnonymous:
		return rules.PDF{}, nil, fmt.Errorf("%w: sign in to download %s", domain.ErrUnauthenticated, slug)
	default:
		return rules.PDF{}, nil, fmt.Errorf("%w: rulebook %s is %s", domain.ErrForbidden, slug, book.Access.Reason)
	}
	rc, err := s.objects.Open(ctx, book.PDF.ObjectKey())
	if err != nil {
		return rules.PDF{}, nil, fmt.Errorf("open rulebook file: %w", err)
	}
	return book.PDF, rc, nil
}

// Upload stores a rulebook file and its record. Admins only. The stored
// object is removed again when the record cannot be saved.
func (s *Rules) Upload(ctx context.Context, params *UploadParams) (rules.PDF, error) {
	if _, err := session.RequireAdmin(ctx); err != nil {
		return rules.PDF{}, err
	}
	if params.Content == nil {
		return rules.PDF{}, fmt.Errorf("%w: rulebook file is required", domain.ErrValidation)
	}
	id := uuid.NewString()
	ext := path.Ext(params.Filename)
	if ext == "" {
		ext = ".pdf"
	}
	key := path.Join("rules", id+ext)

	// Validate before writing the object.
	if _, err := rules.NewPDF(id, params.Slug, params.Title, params.Description, key, params.Free, 0); err != nil {
		return rules.PDF{}, err
	}
	size, err := s.objects.Put(ctx, key, params.Content)
	if err != nil {
		return rules.PDF{}, fmt.Errorf("store rulebook file: %w", err)
	}
	p, err := rules.NewPDF(id, params.Slug, params.Title, params.Description, key, params.Free, size)
	if err != nil {
		return rules.PDF{}, err
	}
	saved, err := s.pdfs.Save(ctx, p)
	if err != nil {
		if delErr := s.objects.Delete(ctx, key); delErr != nil {
			s.logger.WarnContext(ctx, "failed to remove orphaned rulebook file", slog.String("key", key), slog.Any("error", delErr))
		}
		return rules.PDF{}, fmt.Errorf("save rulebook: %w", err)
	}
	return saved, nil
}

// Delete removes a rulebook, its unlocks and its file. Admins only.
func (s *Rules) Delete(ctx context.Context, slug string) error {
	if _, err := session.RequireAdmin(ctx); err != nil {
		return err
	}
	p, err := s.pdfs.FindOne(ctx, store.WithSlug(slug))
	if err != nil {
		return fmt.Errorf("get rulebook: %w", err)
	}
	if err := s.pdfs.Delete(ctx, p); err != nil {
		return fmt.Errorf("delete rulebook: %w", err)
	}
	if err := s.objects.Delete(ctx, p.ObjectKey()); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "failed to remove rulebook file", slog.String("key", p.ObjectKey()), slog.Any("error", err))
	}
	return nil
}

// Unlocks lists the grants for a rulebook. Admins only.
func (s *Rules) Unlocks(ctx context.Context, slug string) ([]rules.Unlock, error) {
	if _, err := session.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	p, err := s.pdfs.FindOne(ctx, store.WithSlug(slug))
	if err != nil {
		return nil, fmt.Errorf("get rulebook: %w", err)
	}
	unlocks, err := s.unlocks.Find(ctx, rules.WithPDFID(p.ID()), store.WithOrderAsc("created_at"))
	if err != nil {
		return nil, fmt.Errorf("list unlocks: %w", err)
	}
	return unlocks, nil
}

// Grant unlocks a rulebook for a profile. Admins only.
func (s *Rules) Grant(ctx context.Context, slug string, params *GrantParams) (rules.Unlock, error) {
	sess, err := session.RequireAdmin(ctx)
	if err != nil {
		return rules.Unlock{}, err
	}
	p, err := s.pdfs.FindOne(ctx, store.WithSlug(slug))
	if err != nil {
		return rules.Unlock{}, fmt.Errorf("get rulebook: %w", err)
	}
	if params.ExpiresAt != nil && !params.ExpiresAt.After(s.now()) {
		return rules.Unlock{}, fmt.Errorf("%w: expiry must be in the future", domain.ErrValidation)
	}
	u, err := rules.NewUnlock(uuid.NewString(), p.ID(), params.ProfileID, sess.UserID(), params.ExpiresAt)
	if err != nil {
		return rules.Unlock{}, err
	}
	saved, err := s.unlocks.Save(ctx, u)
	if err != nil {
		return rules.Unlock{}, fmt.Errorf("save unlock: %w", err)
	}
	s.logger.InfoContext(ctx, "rulebook unlocked",
		slog.String("rulebook", p.Slug()),
		slog.String("profile_id", params.ProfileID),
	)
	return saved, nil
}

// Revoke removes an unlock. Admins only.
func (s *Rules) Revoke(ctx context.Context, unlockID string) error {
	if _, err := session.RequireAdmin(ctx); err != nil {
		return err
	}
	u, err := s.unlocks.FindOne(ctx, store.WithID(unlockID))
	if err != nil {
		return fmt.Errorf("get unlock: %w", err)
	}
	if err := s.unlocks.Delete(ctx, u); err != nil {
		return fmt.Errorf("delete unlock: %w", err)
	}
	return nil
}
