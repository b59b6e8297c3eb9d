// Package character provides player characters and their progression.
package character

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/emberline/guildhall/domain/mission"
	"github.com/emberline/guildhall/domain/session"
	"github.com/emberline/guildhall/domain/store"
	"github.com/emberline/guildhall/internal/domain"
)

// Character is a player character owned by one profile.
type Character struct {
	id        string
	ownerID   string
	name      string
	classID   string
	level     int
	xp        int
	gold      int
	bio       string
	imageURL  string
	public    bool
	createdAt time.Time
	updatedAt time.Time
}

// Option configures a Character.
type Option func(*Character)

// WithName sets the name.
func WithName(name string) Option {
	return func(c *Character) { c.name = strings.TrimSpace(name) }
}

// WithClass sets the class id. An empty id clears it.
func WithClass(id string) Option {
	return func(c *Character) { c.classID = id }
}

// WithLevel sets the level.
func WithLevel(level int) Option {
	return func(c *Character) { c.level = level }
}

// WithXP sets the base experience.
func WithXP(xp int) Option {
	return func(c *Character) { c.xp = xp }
}

// WithGold sets the base gold.
func WithGold(gold int) Option {
	return func(c *Character) { c.gold = gold }
}

// WithBio sets the biography.
func WithBio(bio string) Option {
	return func(c *Character) { c.bio = strings.TrimSpace(bio) }
}

// WithImageURL sets the portrait URL.
func WithImageURL(u string) Option {
	return func(c *Character) { c.imageURL = u }
}

// WithPublic sets whether the character is listed publicly.
func WithPublic(public bool) Option {
	return func(c *Character) { c.public = public }
}

// NewCharacter creates a level 1 private character.
func NewCharacter(id, ownerID, name string, opts ...Option) (Character, error) {
	now := time.Now().UTC()
	c := Character{
		id:        id,
		ownerID:   ownerID,
		name:      strings.TrimSpace(name),
		level:     1,
		createdAt: now,
		updatedAt: now,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.validate(); err != nil {
		return Character{}, err
	}
	return c, nil
}

// ReconstructCharacter recreates a character from persistence.
func ReconstructCharacter(
	id, ownerID, name, classID string,
	level, xp, gold int,
	bio, imageURL string,
	public bool,
	createdAt, updatedAt time.Time,
) Character {
	return Character{
		id:        id,
		ownerID:   ownerID,
		name:      name,
		classID:   classID,
		level:     level,
		xp:        xp,
		gold:      gold,
		bio:       bio,
		imageURL:  imageURL,
		public:    public,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (c Character) validate() error {
	switch {
	case c.name == "":
		return fmt.Errorf("%w: character name is required", domain.ErrValidation)
	case c.ownerID == "":
		return fmt.Errorf("%w: character owner is required", domain.ErrValidation)
	case c.level < 1:
		return fmt.Errorf("%w: level must be at least 1", domain.ErrValidation)
	case c.xp < 0 || c.gold < 0:
		return fmt.Errorf("%w: xp and gold cannot be negative", domain.ErrValidation)
	}
	return nil
}

// Apply returns a copy with opts applied.
func (c Character) Apply(opts ...Option) (Character, error) {
	for _, opt := range opts {
		opt(&c)
	}
	c.updatedAt = time.Now().UTC()
	if err := c.validate(); err != nil {
		return Character{}, err
	}
	return c, nil
}

// VisibleTo reports whether v may see the character. Private characters are
// shown to their owner and admins only.
func (c Character) VisibleTo(v session.Viewer) bool {
	return c.public || v.Owns(c.ownerID)
}

// EditableBy reports whether v may change or delete the character.
func (c Character) EditableBy(v session.Viewer) bool {
	return v.Owns(c.ownerID)
}

// ID returns the character id.
func (c Character) ID() string { return c.id }

// OwnerID returns the owning profile id.
func (c Character) OwnerID() string { return c.ownerID }

// Name returns the name.
func (c Character) Name() string { return c.name }

// ClassID returns the class id, or empty.
func (c Character) ClassID() string { return c.classID }

// Level returns the level.
func (c Character) Level() int { return c.level }

// XP returns the base experience, excluding mission rewards.
func (c Character) XP() int { return c.xp }

// Gold returns the base gold, excluding mission rewards.
func (c Character) Gold() int { return c.gold }

// Bio returns the biography.
func (c Character) Bio() string { return c.bio }

// ImageURL returns the portrait URL, or empty.
func (c Character) ImageURL() string { return c.imageURL }

// Public reports whether the character is publicly listed.
func (c Character) Public() bool { return c.public }

// CreatedAt returns the creation time.
func (c Character) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns the last update time.
func (c Character) UpdatedAt() time.Time { return c.updatedAt }

// Progression is a character's totals after mission rewards.
type Progression struct {
	BaseXP      int
	BaseGold    int
	MissionXP   int
	MissionGold int
	Missions    int
}

// TotalXP returns base plus earned experience.
func (p Progression) TotalXP() int { return p.BaseXP + p.MissionXP }

// TotalGold returns base plus earned gold.
func (p Progression) TotalGold() int { return p.BaseGold + p.MissionGold }

// Progress totals the rewards of the missions the character played.
func (c Character) Progress(missions []mission.Mission) Progression {
	p := Progression{BaseXP: c.xp, BaseGold: c.gold, Missions: len(missions)}
	for _, m := range missions {
		p.MissionXP += m.XPReward()
		p.MissionGold += m.GoldReward()
	}
	return p
}

// Store persists characters.
type Store interface {
	store.Store[Character]
}

// Searcher finds public characters by name.
type Searcher interface {
	SearchPublic(ctx context.Context, name string, limit int) ([]Character, error)
}

// WithOwnerID filters by the "owner_id" column.
func WithOwnerID(id string) store.Option {
	return store.WithCondition("owner_id", id)
}

// WithPublicOnly keeps publicly listed characters.
func WithPublicOnly() store.Option {
	return store.WithCondition("is_public", true)
}

// WithNameContains matches names case-insensitively.
func WithNameContains(text string) store.Option {
	return store.WithContains("name", text)
}

// ByName orders alphabetically.
func ByName() store.Option {
	return store.WithOrderAsc("name")
}
