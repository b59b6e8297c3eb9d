// Package rules provides downloadable rulebook PDFs and per-profile unlocks.
package rules

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emberline/guildhall/domain/matching"
	"github.com/emberline/guildhall/domain/session"
	"github.com/emberline/guildhall/domain/store"
	"github.com/emberline/guildhall/internal/domain"
)

// PDF is a rulebook stored as an opaque object.
type PDF struct {
	id          string
	slug        string
	title       string
	description string
	objectKey   string
	free        bool
	sizeBytes   int64
	createdAt   time.Time
}

// NewPDF creates a rulebook record. An empty slug is derived from the title.
func NewPDF(id, slug, title, description, objectKey string, free bool, sizeBytes int64) (PDF, error) {
	title = strings.TrimSpace(title)
	if slug == "" {
		slug = matching.Slugify(title)
	}
	switch {
	case title == "":
		return PDF{}, fmt.Errorf("%w: rulebook title is required", domain.ErrValidation)
	case !matching.IsSlug(slug):
		return PDF{}, fmt.Errorf("%w: invalid rulebook slug %q", domain.ErrValidation, slug)
	case objectKey == "":
		return PDF{}, fmt.Errorf("%w: rulebook object key is required", domain.ErrValidation)
	}
	return PDF{
		id:          id,
		slug:        slug,
		title:       title,
		description: strings.TrimSpace(description),
		objectKey:   objectKey,
		free:        free,
		sizeBytes:   sizeBytes,
		createdAt:   time.Now().UTC(),
	}, nil
}

// ReconstructPDF recreates a rulebook from persistence.
func ReconstructPDF(id, slug, title, description, objectKey string, free bool, sizeBytes int64, createdAt time.Time) PDF {
	return PDF{
		id:          id,
		slug:        slug,
		title:       title,
		description: description,
		objectKey:   objectKey,
		free:        free,
		sizeBytes:   sizeBytes,
		createdAt:   createdAt,
	}
}

// ID returns the rulebook id.
func (p PDF) ID() string { return p.id }

// Slug returns the slug.
func (p PDF) Slug() string { return p.slug }

// Title returns the title.
func (p PDF) Title() string { return p.title }

// Description returns the description.
func (p PDF) Description() string { return p.description }

// ObjectKey returns the storage key of the file.
func (p PDF) ObjectKey() string { return p.objectKey }

// Free reports whether any signed-in profile may download it.
func (p PDF) Free() bool { return p.free }

// SizeBytes returns the file size.
func (p PDF) SizeBytes() int64 { return p.sizeBytes }

// CreatedAt returns the upload time.
func (p PDF) CreatedAt() time.Time { return p.createdAt }

// Unlock grants one profile access to one rulebook, optionally until a deadline.
type Unlock struct {
	id        string
	pdfID     string
	profileID string
	grantedBy string
	expiresAt *time.Time
	createdAt time.Time
}

// NewUnlock creates a grant. A nil expiresAt never expires.
func NewUnlock(id, pdfID, profileID, grantedBy string, expiresAt *time.Time) (Unlock, error) {
	if pdfID == "" || profileID == "" {
		return Unlock{}, fmt.Errorf("%w: unlock needs a rulebook and a profile", domain.ErrValidation)
	}
	u := Unlock{
		id:        id,
		pdfID:     pdfID,
		profileID: profileID,
		grantedBy: grantedBy,
		createdAt: time.Now().UTC(),
	}
	if expiresAt != nil {
		t := expiresAt.UTC()
		u.expiresAt = &t
	}
	return u, nil
}

// ReconstructUnlock recreates a grant from persistence.
func ReconstructUnlock(id, pdfID, profileID, grantedBy string, expiresAt *time.Time, createdAt time.Time) Unlock {
	return Unlock{
		id:        id,
		pdfID:     pdfID,
		profileID: profileID,
		grantedBy: grantedBy,
		expiresAt: expiresAt,
		createdAt: createdAt,
	}
}

// ID returns the unlock id.
func (u Unlock) ID() string { return u.id }

// PDFID returns the rulebook id.
func (u Unlock) PDFID() string { return u.pdfID }

// ProfileID returns the grantee.
func (u Unlock) ProfileID() string { return u.profileID }

// GrantedBy returns the admin who granted it.
func (u Unlock) GrantedBy() string { return u.grantedBy }

// ExpiresAt returns the deadline, or nil.
func (u Unlock) ExpiresAt() *time.Time { return u.expiresAt }

// CreatedAt returns when it was granted.
func (u Unlock) CreatedAt() time.Time { return u.createdAt }

// ActiveAt reports whether the grant is still valid at now.
func (u Unlock) ActiveAt(now time.Time) bool {
	return u.expiresAt == nil || u.expiresAt.After(now)
}

// Reason explains an access decision.
type Reason string

// Reason values.
const (
	ReasonAdmin     Reason = "admin"
	ReasonFree      Reason = "free"
	ReasonUnlocked  Reason = "unlocked"
	ReasonAnonymous Reason = "anonymous"
	ReasonExpired   Reason = "expired"
	ReasonLocked    Reason = "locked"
)

// Decision is the outcome of Access.
type Decision struct {
	Allowed   bool
	Reason    Reason
	ExpiresAt *time.Time
}

// Access decides whether v may download pdf given v's unlocks. Unlocks for
// other rulebooks or other profiles are ignored. When several grants are
// active the one lasting longest is reported.
func Access(pdf PDF, v session.Viewer, unlocks []Unlock, now time.Time) Decision {
	if v.IsAdmin() {
		return Decision{Allowed: true, Reason: ReasonAdmin}
	}
	if !v.Authenticated() {
		return Decision{Reason: ReasonAnonymous}
	}
	if pdf.free {
		return Decision{Allowed: true, Reason: ReasonFree}
	}

	var (
		best    *Unlock
		expired bool
	)
	for i := range unlocks {
		u := unlocks[i]
		if u.pdfID != pdf.id || u.profileID != v.UserID {
			continue
		}
		if !u.ActiveAt(now) {
			expired = true
			continue
		}
		if best == nil || outlasts(u, *best) {
			best = &unlocks[i]
		}
	}
	if best != nil {
		return Decision{Allowed: true, Reason: ReasonUnlocked, ExpiresAt: best.expiresAt}
	}
	if expired {
		return Decision{Reason: ReasonExpired}
	}
	return Decision{Reason: ReasonLocked}
}

func outlasts(a, b Unlock) bool {
	if b.expiresAt == nil {
		return false
	}
	return a.expiresAt == nil || a.expiresAt.After(*b.expiresAt)
}

// ObjectStore holds rulebook files.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Store persists rulebooks.
type Store interface {
	store.Store[PDF]
}

// UnlockStore persists grants.
type UnlockStore interface {
	store.Store[Unlock]
}

// WithPDFID filters unlocks by the "pdf_id" column.
func WithPDFID(id string) store.Option {
	return store.WithCondition("pdf_id", id)
}

// WithProfileID filters unlocks by the "profile_id" column.
func WithProfileID(id string) store.Option {
	return store.WithCondition("profile_id", id)
}

// ByTitle orders alphabetically by title.
func ByTitle() store.Option {
	return store.WithOrderAsc("title")
}
