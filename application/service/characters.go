package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/emberline/guildhall/domain/character"
	"github.com/emberline/guildhall/domain/class"
	"github.com/emberline/guildhall/domain/mission"
	"github.com/emberline/guildhall/domain/session"
	"github.com/emberline/guildhall/domain/store"
	"github.com/emberline/guildhall/internal/domain"
	"github.com/google/uuid"
)

// MaxSearchLimit caps public character searches.
const MaxSearchLimit = 50

// CharacterParams describes a new character.
type CharacterParams struct {
	Name     string
	ClassID  string
	Level    int
	XP       int
	Gold     int
	Bio      string
	ImageURL string
	Public   bool
}

// CharacterPatch lists the fields to change. Nil fields are left alone.
type CharacterPatch struct {
	Name     *string
	ClassID  *string
	Level    *int
	XP       *int
	Gold     *int
	Bio      *string
	ImageURL *string
	Public   *bool
}

func (p *CharacterPatch) options() []character.Option {
	var opts []character.Option
	if p.Name != nil {
		opts = append(opts, character.WithName(*p.Name))
	}
	if p.ClassID != nil {
		opts = append(opts, character.WithClass(*p.ClassID))
	}
	if p.Level != nil {
		opts = append(opts, character.WithLevel(*p.Level))
	}
	if p.XP != nil {
		opts = append(opts, character.WithXP(*p.XP))
	}
	if p.Gold != nil {
		opts = append(opts, character.WithGold(*p.Gold))
	}
	if p.Bio != nil {
		opts = append(opts, character.WithBio(*p.Bio))
	}
	if p.ImageURL != nil {
		opts = append(opts, character.WithImageURL(*p.ImageURL))
	}
	if p.Public != nil {
		opts = append(opts, character.WithPublic(*p.Public))
	}
	return opts
}

// CharacterDetail is a character with the data its page shows.
type CharacterDetail struct {
	Character   character.Character
	ClassName   string
	Progression character.Progression
	Missions    []mission.Mission
}

// Characters manages player characters.
type Characters struct {
	store        character.Store
	searcher     character.Searcher
	participants mission.ParticipantStore
	classes      class.Store
	searchLimit  int
	logger       *slog.Logger
}

// NewCharacters creates a Characters service. searchLimit is the default
// number of public search hits.
func NewCharacters(
	characters character.Store,
	searcher character.Searcher,
	participants mission.ParticipantStore,
	classes class.Store,
	searchLimit int,
	logger *slog.Logger,
) *Characters {
	if searchLimit <= 0 {
		searchLimit = 5
	}
	return &Characters{
		store:        characters,
		searcher:     searcher,
		participants: participants,
		classes:      classes,
		searchLimit:  searchLimit,
		logger:       loggerOrDefault(logger),
	}
}

// ListOwn returns the signed-in member's characters.
func (s *Characters) ListOwn(ctx context.Context) ([]character.Character, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return nil, err
	}
	return s.ListFor(ctx, sess.UserID())
}

// ListFor returns a member's characters by name.
func (s *Characters) ListFor(ctx context.Context, ownerID string) ([]character.Character, error) {
	chars, err := s.store.Find(ctx, character.WithOwnerID(ownerID), character.ByName())
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	return chars, nil
}

// SearchPublic finds public characters by name. A non-positive limit uses
// the configured default.
func (s *Characters) SearchPublic(ctx context.Context, name string, limit int) ([]character.Character, error) {
	if limit <= 0 {
		limit = s.searchLimit
	}
	limit = min(limit, MaxSearchLimit)
	chars, err := s.searcher.SearchPublic(ctx, name, limit)
	if err != nil {
		return nil, fmt.Errorf("search characters: %w", err)
	}
	return chars, nil
}

// Get returns a character the viewer may see. Hidden characters are not found.
func (s *Characters) Get(ctx context.Context, id string) (character.Character, error) {
	c, err := s.store.FindOne(ctx, store.WithID(id))
	if err != nil {
		return character.Character{}, fmt.Errorf("get character: %w", err)
	}
	if !c.VisibleTo(session.FromContext(ctx).Viewer()) {
		return character.Character{}, fmt.Errorf("%w: character %s", domain.ErrNotFound, id)
	}
	return c, nil
}

// Detail returns a visible character with its class name and mission history.
func (s *Characters) Detail(ctx context.Context, id string) (CharacterDetail, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return CharacterDetail{}, err
	}
	missions, err := s.participants.MissionsFor(ctx, c.ID())
	if err != nil {
		return CharacterDetail{}, fmt.Errorf("load missions: %w", err)
	}
	return CharacterDetail{
		Character:   c,
		ClassName:   s.className(ctx, c.ClassID()),
		Progression: c.Progress(missions),
		Missions:    missions,
	}, nil
}

func (s *Characters) className(ctx context.Context, classID string) string {
	if classID == "" {
		return ""
	}
	k, err := s.classes.FindOne(ctx, store.WithID(classID))
	if err != nil {
		s.logger.WarnContext(ctx, "load class name", slog.String("class_id", classID), slog.String("error", err.Error()))
		return ""
	}
	return k.Name()
}

// Progression returns a visible character's totals.
func (s *Characters) Progression(ctx context.Context, id string) (character.Progression, error) {
	d, err := s.Detail(ctx, id)
	if err != nil {
		return character.Progression{}, err
	}
	return d.Progression, nil
}

// Create adds a character owned by the signed-in member.
func (s *Characters) Create(ctx context.Context, params *CharacterParams) (character.Character, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return character.Character{}, err
	}
	if err := s.checkClass(ctx, params.ClassID); err != nil {
		return character.Character{}, err
	}
	level := params.Level
	if level == 0 {
		level = 1
	}
	c, err := character.NewCharacter(uuid.NewString(), sess.UserID(), params.Name,
		character.WithClass(params.ClassID),
		character.WithLevel(level),
		character.WithXP(params.XP),
		character.WithGold(params.Gold),
		character.WithBio(params.Bio),
		character.WithImageURL(params.ImageURL),
		character.WithPublic(params.Public),
	)
	if err != nil {
		return character.Character{}, err
	}
	saved, err := s.store.Save(ctx, c)
	if err != nil {
		return character.Character{}, fmt.Errorf("save character: %w", err)
	}
	return saved, nil
}

// Update changes a character. Owners and admins only.
func (s *Characters) Update(ctx context.Context, id string, patch *CharacterPatch) (character.Character, error) {
	c, err := s.editable(ctx, id)
	if err != nil {
		return character.Character{}, err
	}
	if patch.ClassID != nil {
		if err := s.checkClass(ctx, *patch.ClassID); err != nil {
			return character.Character{}, err
		}
	}
	updated, err := c.Apply(patch.options()...)
	if err != nil {
		return character.Character{}, err
	}
	saved, err := s.store.Save(ctx, updated)
	if err != nil {
		return character.Character{}, fmt.Errorf("save character: %w", err)
	}
	return saved, nil
}

// Delete removes a character. Owners and admins only.
func (s *Characters) Delete(ctx context.Context, id string) error {
	c, err := s.editable(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, c); err != nil {
		return fmt.Errorf("delete character: %w", err)
	}
	return nil
}

func (s *Characters) editable(ctx context.Context, id string) (character.Character, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return character.Character{}, err
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return character.Character{}, err
	}
	if !c.EditableBy(sess.Viewer()) {
		return character.Character{}, fmt.Errorf("%w: not your character", domain.ErrForbidden)
	}
	return c, nil
}

func (s *Characters) checkClass(ctx context.Context, classID string) error {
	if classID == "" {
		return nil
	}
	_, err := s.classes.FindOne(ctx, store.WithID(classID))
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: unknown class %s", domain.ErrValidation, classID)
	}
	if err != nil {
		return fmt.Errorf("get class: %w", err)
	}
	return nil
}
