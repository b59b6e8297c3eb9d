package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/emberline/guildhall/domain/mission"
	"github.com/emberline/guildhall/internal/database"
	"github.com/emberline/guildhall/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MissionStore implements mission.Store.
type MissionStore struct {
	entityStore[mission.Mission, MissionModel]
}

// NewMissionStore creates a MissionStore.
func NewMissionStore(db database.Database) MissionStore {
	return MissionStore{newEntityStore[mission.Mission, MissionModel](db, MissionMapper{}, "mission")}
}

// Delete removes the mission and its participant links.
func (s MissionStore) Delete(ctx context.Context, m mission.Mission) error {
	return database.WithTransaction(ctx, s.Database(), func(tx *gorm.DB) error {
		if err := tx.Where("mission_id = ?", m.ID()).Delete(&MissionCharacterModel{}).Error; err != nil {
			return writeErr("delete", "mission links", err)
		}
		if err := tx.Delete(&MissionModel{ID: m.ID()}).Error; err != nil {
			return writeErr("delete", "mission", err)
		}
		return nil
	})
}

// ParticipantStore implements mission.ParticipantStore.
type ParticipantStore struct {
	database.Repository[mission.Participant, MissionCharacterModel]
}

// NewParticipantStore creates a ParticipantStore.
func NewParticipantStore(db database.Database) ParticipantStore {
	return ParticipantStore{
		Repository: database.NewRepository[mission.Participant, MissionCharacterModel](db, ParticipantMapper{}, "mission participant"),
	}
}

// Link adds a participant. Linking twice is a no-op that reports false.
// Both rows must exist; SQLite does not enforce the foreign keys.
func (s ParticipantStore) Link(ctx context.Context, missionID, characterID string) (bool, error) {
	return database.Tx(ctx, s.Database(), func(tx *gorm.DB) (bool, error) {
		if err := mustExist(tx, &MissionModel{}, "mission", missionID); err != nil {
			return false, err
		}
		if err := mustExist(tx, &CharacterModel{}, "character", characterID); err != nil {
			return false, err
		}
		row := MissionCharacterModel{MissionID: missionID, CharacterID: characterID, CreatedAt: time.Now().UTC()}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if result.Error != nil {
			return false, writeErr("link", "mission participant", result.Error)
		}
		return result.RowsAffected > 0, nil
	})
}

func mustExist(tx *gorm.DB, model any, label, id string) error {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("check %s: %w", label, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", label, id, domain.ErrNotFound)
	}
	return nil
}

// Unlink removes a participant. Removing a missing link is not an error.
func (s ParticipantStore) Unlink(ctx context.Context, missionID, characterID string) error {
	err := s.DeleteBy(ctx, mission.WithMissionID(missionID), mission.WithCharacterID(characterID))
	if err != nil {
		return fmt.Errorf("unlink: %w", err)
	}
	return nil
}

// MissionsFor returns the missions a character played, newest first.
func (s ParticipantStore) MissionsFor(ctx context.Context, characterID string) ([]mission.Mission, error) {
	var rows []MissionModel
	err := s.DB(ctx).
		Joins("JOIN mission_characters ON mission_characters.mission_id = missions.id").
		Where("mission_characters.character_id = ?", characterID).
		Order("missions.played_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find missions for character: %w", err)
	}
	out := make([]mission.Mission, len(rows))
	for i, r := range rows {
		out[i] = MissionMapper{}.ToDomain(r)
	}
	return out, nil
}

var (
	_ mission.Store            = MissionStore{}
	_ mission.ParticipantStore = ParticipantStore{}
)
