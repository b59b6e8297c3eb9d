package mission

import (
	"context"

	"github.com/emberline/guildhall/domain/store"
)

// Store persists missions.
type Store interface {
	store.Store[Mission]
}

// ParticipantStore persists mission participant links.
type ParticipantStore interface {
	// Link adds characterID to missionID. It reports false when the link
	// already existed.
	Link(ctx context.Context, missionID, characterID string) (bool, error)
	Unlink(ctx context.Context, missionID, characterID string) error
	Find(ctx context.Context, options ...store.Option) ([]Participant, error)
	// MissionsFor returns the missions a character took part in, newest first.
	MissionsFor(ctx context.Context, characterID string) ([]Mission, error)
}

// WithMissionID filters by the "mission_id" column.
func WithMissionID(id string) store.Option {
	return store.WithCondition("mission_id", id)
}

// WithMissionIDIn filters by several missions.
func WithMissionIDIn(ids []string) store.Option {
	return store.WithConditionIn("mission_id", ids)
}

// WithCharacterID filters by the "character_id" column.
func WithCharacterID(id string) store.Option {
	return store.WithCondition("character_id", id)
}

// WithCreatorID filters by the "creator_id" column.
func WithCreatorID(id string) store.Option {
	return store.WithCondition("creator_id", id)
}

// WithOutcomeFilter filters by the "outcome" column.
func WithOutcomeFilter(o Outcome) store.Option {
	return store.WithCondition("outcome", string(o))
}

// ByPlayedAtDesc orders newest first.
func ByPlayedAtDesc() store.Option {
	return store.WithOrderDesc("played_at")
}
