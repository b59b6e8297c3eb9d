package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/emberline/guildhall/domain/lfg"
	"github.com/emberline/guildhall/domain/session"
	"github.com/emberline/guildhall/domain/store"
	"github.com/emberline/guildhall/internal/domain"
	"github.com/google/uuid"
)

// PostParams describes a new LFG post. A zero DurationMinutes uses the default.
type PostParams struct {
	Title           string
	Body            string
	StartsAt        time.Time
	DurationMinutes int
	Seats           int
}

// PostPatch lists the post fields to change.
type PostPatch struct {
	Title           *string
	Body            *string
	StartsAt        *time.Time
	DurationMinutes *int
	Seats           *int
}

// LFG manages "looking for group" posts.
type LFG struct {
	store  lfg.Store
	now    func() time.Time
	logger *slog.Logger
}

// NewLFG creates an LFG service.
func NewLFG(posts lfg.Store, logger *slog.Logger) *LFG {
	return &LFG{store: posts, now: time.Now, logger: loggerOrDefault(logger)}
}

// Open returns open posts that have not started yet, soonest first.
func (s *LFG) Open(ctx context.Context, limit int) ([]lfg.Post, error) {
	opts := []store.Option{
		lfg.WithStatus(lfg.StatusOpen),
		lfg.StartingAfter(s.now()),
		lfg.BySoonest(),
	}
	if limit > 0 {
		opts = append(opts, store.WithLimit(limit))
	}
	posts, err := s.store.Find(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("list lfg posts: %w", err)
	}
	return posts, nil
}

// Get returns one post.
func (s *LFG) Get(ctx context.Context, id string) (lfg.Post, error) {
	p, err := s.store.FindOne(ctx, store.WithID(id))
	if err != nil {
		return lfg.Post{}, fmt.Errorf("get lfg post: %w", err)
	}
	return p, nil
}

// Create adds a post by the signed-in member.
func (s *LFG) Create(ctx context.Context, params *PostParams) (lfg.Post, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return lfg.Post{}, err
	}
	opts := []lfg.Option{lfg.WithBody(params.Body)}
	if params.DurationMinutes > 0 {
		opts = append(opts, lfg.WithDuration(params.DurationMinutes))
	}
	if params.Seats > 0 {
		opts = append(opts, lfg.WithSeats(params.Seats))
	}
	p, err := lfg.NewPost(uuid.NewString(), sess.UserID(), params.Title, params.StartsAt, opts...)
	if err != nil {
		return lfg.Post{}, err
	}
	saved, err := s.store.Save(ctx, p)
	if err != nil {
		return lfg.Post{}, fmt.Errorf("save lfg post: %w", err)
	}
	return saved, nil
}

// Update changes a post. Authors and admins only.
func (s *LFG) Update(ctx context.Context, id string, patch *PostPatch) (lfg.Post, error) {
	p, err := s.editable(ctx, id)
	if err != nil {
		return lfg.Post{}, err
	}
	var opts []lfg.Option
	if patch.Title != nil {
		opts = append(opts, lfg.WithTitle(*patch.Title))
	}
	if patch.Body != nil {
		opts = append(opts, lfg.WithBody(*patch.Body))
	}
	if patch.StartsAt != nil {
		opts = append(opts, lfg.WithStartsAt(*patch.StartsAt))
	}
	if patch.DurationMinutes != nil {
		opts = append(opts, lfg.WithDuration(*patch.DurationMinutes))
	}
	if patch.Seats != nil {
		opts = append(opts, lfg.WithSeats(*patch.Seats))
	}
	updated, err := p.Apply(opts...)
	if err != nil {
		return lfg.Post{}, err
	}
	return s.save(ctx, updated)
}

// Close stops a post taking players. Authors and admins only.
func (s *LFG) Close(ctx context.Context, id string) (lfg.Post, error) {
	p, err := s.editable(ctx, id)
	if err != nil {
		return lfg.Post{}, err
	}
	return s.save(ctx, p.Close())
}

// Delete removes a post. Authors and admins only.
func (s *LFG) Delete(ctx context.Context, id string) error {
	p, err := s.editable(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, p); err != nil {
		return fmt.Errorf("delete lfg post: %w", err)
	}
	return nil
}

func (s *LFG) save(ctx context.Context, p lfg.Post) (lfg.Post, error) {
	saved, err := s.store.Save(ctx, p)
	if err != nil {
		return lfg.Post{}, fmt.Errorf("save lfg post: %w", err)
	}
	return saved, nil
}

func (s *LFG) editable(ctx context.Context, id string) (lfg.Post, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return lfg.Post{}, err
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return lfg.Post{}, err
	}
	if !p.EditableBy(sess.Viewer()) {
		return lfg.Post{}, fmt.Errorf("%w: not your post", domain.ErrForbidden)
	}
	return p, nil
}
