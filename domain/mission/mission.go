// Package mission models played sessions, their outcome and the characters
// who took part.
package mission

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/emberline/guildhall/domain/matching"
	"github.com/emberline/guildhall/internal/domain"
)

// Mission is one logged game session.
type Mission struct {
	id                string
	title             string
	summary           string
	outcome           Outcome
	playedAt          time.Time
	recapURL          string
	gmID              string
	creatorID         string
	xpReward          int
	goldReward        int
	unregisteredNames []string
	createdAt         time.Time
	updatedAt         time.Time
}

// Option configures a Mission.
type Option func(*Mission)

// WithSummary sets the summary text.
func WithSummary(s string) Option {
	return func(m *Mission) { m.summary = strings.TrimSpace(s) }
}

// WithOutcome sets the outcome.
func WithOutcome(o Outcome) Option {
	return func(m *Mission) { m.outcome = o }
}

// WithPlayedAt sets when the mission was played.
func WithPlayedAt(t time.Time) Option {
	return func(m *Mission) { m.playedAt = t.UTC() }
}

// WithRecapURL sets the external recap link.
func WithRecapURL(u string) Option {
	return func(m *Mission) { m.recapURL = u }
}

// WithGM sets the game master profile.
func WithGM(id string) Option {
	return func(m *Mission) { m.gmID = id }
}

// WithRewards sets the experience and gold awarded to each participant.
func WithRewards(xp, gold int) Option {
	return func(m *Mission) {
		m.xpReward = xp
		m.goldReward = gold
	}
}

// WithTitle sets the title.
func WithTitle(title string) Option {
	return func(m *Mission) { m.title = strings.TrimSpace(title) }
}

// NewMission creates a mission logged by creatorID.
func NewMission(id, creatorID, title string, opts ...Option) (Mission, error) {
	now := time.Now().UTC()
	m := Mission{
		id:        id,
		title:     strings.TrimSpace(title),
		outcome:   OutcomePending,
		playedAt:  now,
		creatorID: creatorID,
		createdAt: now,
		updatedAt: now,
	}
	for _, opt := range opts {
		opt(&m)
	}
	if err := m.validate(); err != nil {
		return Mission{}, err
	}
	return m, nil
}

// ReconstructMission recreates a mission from persistence.
func ReconstructMission(
	id, title, summary string,
	outcome Outcome,
	playedAt time.Time,
	recapURL, gmID, creatorID string,
	xpReward, goldReward int,
	unregisteredNames []string,
	createdAt, updatedAt time.Time,
) Mission {
	return Mission{
		id:                id,
		title:             title,
		summary:           summary,
		outcome:           outcome,
		playedAt:          playedAt,
		recapURL:          recapURL,
		gmID:              gmID,
		creatorID:         creatorID,
		xpReward:          xpReward,
		goldReward:        goldReward,
		unregisteredNames: slices.Clone(unregisteredNames),
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

func (m Mission) validate() error {
	if m.title == "" {
		return fmt.Errorf("%w: mission title is required", domain.ErrValidation)
	}
	if m.creatorID == "" {
		return fmt.Errorf("%w: mission creator is required", domain.ErrValidation)
	}
	if m.xpReward < 0 || m.goldReward < 0 {
		return fmt.Errorf("%w: rewards cannot be negative", domain.ErrValidation)
	}
	if _, err := ValidateOutcome(string(m.outcome)); err != nil {
		return err
	}
	return nil
}

// Apply returns a copy with opts applied.
func (m Mission) Apply(opts ...Option) (Mission, error) {
	for _, opt := range opts {
		opt(&m)
	}
	m.updatedAt = time.Now().UTC()
	if err := m.validate(); err != nil {
		return Mission{}, err
	}
	return m, nil
}

// WithUnregisteredNames returns a copy recording names, merged with any
// already present and de-duplicated by normalized form.
func (m Mission) WithUnregisteredNames(names ...string) Mission {
	merged := append(slices.Clone(m.unregisteredNames), names...)
	m.unregisteredNames = matching.DedupeNames(merged)
	m.updatedAt = time.Now().UTC()
	return m
}

// ID returns the mission id.
func (m Mission) ID() string { return m.id }

// Title returns the title.
func (m Mission) Title() string { return m.title }

// Summary returns the summary.
func (m Mission) Summary() string { return m.summary }

// Outcome returns the outcome.
func (m Mission) Outcome() Outcome { return m.outcome }

// PlayedAt returns when the mission was played, in UTC.
func (m Mission) PlayedAt() time.Time { return m.playedAt }

// RecapURL returns the external recap link, if any.
func (m Mission) RecapURL() string { return m.recapURL }

// GMID returns the game master profile id, if any.
func (m Mission) GMID() string { return m.gmID }

// CreatorID returns the profile that logged the mission.
func (m Mission) CreatorID() string { return m.creatorID }

// XPReward returns the experience awarded to each participant.
func (m Mission) XPReward() int { return m.xpReward }

// GoldReward returns the gold awarded to each participant.
func (m Mission) GoldReward() int { return m.goldReward }

// UnregisteredNames returns participant names not linked to a character.
func (m Mission) UnregisteredNames() []string { return slices.Clone(m.unregisteredNames) }

// CreatedAt returns the creation time.
func (m Mission) CreatedAt() time.Time { return m.createdAt }

// UpdatedAt returns the last update time.
func (m Mission) UpdatedAt() time.Time { return m.updatedAt }

// Participant links a character to a mission.
type Participant struct {
	missionID   string
	characterID string
	createdAt   time.Time
}

// NewParticipant creates a participant link.
func NewParticipant(missionID, characterID string) Participant {
	return Participant{missionID: missionID, characterID: characterID, createdAt: time.Now().UTC()}
}

// ReconstructParticipant recreates a link from persistence.
func ReconstructParticipant(missionID, characterID string, createdAt time.Time) Participant {
	return Participant{missionID: missionID, characterID: characterID, createdAt: createdAt}
}

// MissionID returns the mission id.
func (p Participant) MissionID() string { return p.missionID }

// CharacterID returns the character id.
func (p Participant) CharacterID() string { return p.characterID }

// CreatedAt returns when the link was made.
func (p Participant) CreatedAt() time.Time { return p.createdAt }
