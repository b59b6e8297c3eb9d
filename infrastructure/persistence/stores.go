package persistence

import (
	"context"

	"github.com/emberline/guildhall/domain/character"
	"github.com/emberline/guildhall/domain/class"
	"github.com/emberline/guildhall/domain/lfg"
	"github.com/emberline/guildhall/domain/page"
	"github.com/emberline/guildhall/domain/profile"
	"github.com/emberline/guildhall/domain/rules"
	"github.com/emberline/guildhall/domain/store"
	"github.com/emberline/guildhall/internal/database"
	"gorm.io/gorm"
)

// entityStore adds Save and Delete to a database.Repository.
type entityStore[D any, E any] struct {
	database.Repository[D, E]
}

func newEntityStore[D any, E any](db database.Database, mapper database.EntityMapper[D, E], label string) entityStore[D, E] {
	return entityStore[D, E]{Repository: database.NewRepository[D, E](db, mapper, label)}
}

// Save inserts or updates an entity by primary key.
func (s entityStore[D, E]) Save(ctx context.Context, d D) (D, error) {
	model := s.Mapper().ToModel(d)
	if err := s.DB(ctx).Save(&model).Error; err != nil {
		var zero D
		return zero, writeErr("save", s.Label(), err)
	}
	return s.Mapper().ToDomain(model), nil
}

// Delete removes an entity by primary key.
func (s entityStore[D, E]) Delete(ctx context.Context, d D) error {
	model := s.Mapper().ToModel(d)
	if err := s.DB(ctx).Delete(&model).Error; err != nil {
		return writeErr("delete", s.Label(), err)
	}
	return nil
}

// ProfileStore implements profile.Store.
type ProfileStore struct {
	entityStore[profile.Profile, ProfileModel]
}

// NewProfileStore creates a ProfileStore.
func NewProfileStore(db database.Database) ProfileStore {
	return ProfileStore{newEntityStore[profile.Profile, ProfileModel](db, ProfileMapper{}, "profile")}
}

// CharacterStore implements character.Store and character.Searcher.
type CharacterStore struct {
	entityStore[character.Character, CharacterModel]
}

// NewCharacterStore creates a CharacterStore.
func NewCharacterStore(db database.Database) CharacterStore {
	return CharacterStore{newEntityStore[character.Character, CharacterModel](db, CharacterMapper{}, "character")}
}

// SearchPublic returns public characters whose name contains name, ignoring case.
func (s CharacterStore) SearchPublic(ctx context.Context, name string, limit int) ([]character.Character, error) {
	return s.Find(ctx,
		character.WithPublicOnly(),
		character.WithNameContains(name),
		character.ByName(),
		store.WithLimit(limit),
	)
}

// Delete removes the character and its mission links.
func (s CharacterStore) Delete(ctx context.Context, c character.Character) error {
	return database.WithTransaction(ctx, s.Database(), func(tx *gorm.DB) error {
		if err := tx.Where("character_id = ?", c.ID()).Delete(&MissionCharacterModel{}).Error; err != nil {
			return writeErr("delete", "mission links", err)
		}
		if err := tx.Delete(&CharacterModel{ID: c.ID()}).Error; err != nil {
			return writeErr("delete", "character", err)
		}
		return nil
	})
}

// ClassStore implements class.Store.
type ClassStore struct {
	entityStore[class.Class, ClassModel]
}

// NewClassStore creates a ClassStore.
func NewClassStore(db database.Database) ClassStore {
	return ClassStore{newEntityStore[class.Class, ClassModel](db, ClassMapper{}, "class")}
}

// Delete removes the class and all of its versions.
func (s ClassStore) Delete(ctx context.Context, c class.Class) error {
	return database.WithTransaction(ctx, s.Database(), func(tx *gorm.DB) error {
		if err := tx.Where("class_id = ?", c.ID()).Delete(&ClassVersionModel{}).Error; err != nil {
			return writeErr("delete", "class versions", err)
		}
		if err := tx.Model(&CharacterModel{}).Where("class_id = ?", c.ID()).Update("class_id", nil).Error; err != nil {
			return writeErr("detach", "characters", err)
		}
		if err := tx.Delete(&ClassModel{ID: c.ID()}).Error; err != nil {
			return writeErr("delete", "class", err)
		}
		return nil
	})
}

// ClassVersionStore implements class.VersionStore.
type ClassVersionStore struct {
	entityStore[class.Version, ClassVersionModel]
}

// NewClassVersionStore creates a ClassVersionStore.
func NewClassVersionStore(db database.Database) ClassVersionStore {
	return ClassVersionStore{newEntityStore[class.Version, ClassVersionModel](db, ClassVersionMapper{}, "class version")}
}

// LFGPostStore implements lfg.Store.
type LFGPostStore struct {
	entityStore[lfg.Post, LFGPostModel]
}

// NewLFGPostStore creates an LFGPostStore.
func NewLFGPostStore(db database.Database) LFGPostStore {
	return LFGPostStore{newEntityStore[lfg.Post, LFGPostModel](db, LFGPostMapper{}, "lfg post")}
}

// PageStore implements page.Store.
type PageStore struct {
	entityStore[page.Page, PageModel]
}

// NewPageStore creates a PageStore.
func NewPageStore(db database.Database) PageStore {
	return PageStore{newEntityStore[page.Page, PageModel](db, PageMapper{}, "page")}
}

// RulesPDFStore implements rules.Store.
type RulesPDFStore struct {
	entityStore[rules.PDF, RulesPDFModel]
}

// NewRulesPDFStore creates a RulesPDFStore.
func NewRulesPDFStore(db database.Database) RulesPDFStore {
	return RulesPDFStore{newEntityStore[rules.PDF, RulesPDFModel](db, RulesPDFMapper{}, "rulebook")}
}

// Delete removes the rulebook and its unlocks.
func (s RulesPDFStore) Delete(ctx context.Context, p rules.PDF) error {
	return database.WithTransaction(ctx, s.Database(), func(tx *gorm.DB) error {
		if err := tx.Where("pdf_id = ?", p.ID()).Delete(&RulesUnlockModel{}).Error; err != nil {
			return writeErr("delete", "unlocks", err)
		}
		if err := tx.Delete(&RulesPDFModel{ID: p.ID()}).Error; err != nil {
			return writeErr("delete", "rulebook", err)
		}
		return nil
	})
}

// RulesUnlockStore implements rules.UnlockStore.
type RulesUnlockStore struct {
	entityStore[rules.Unlock, RulesUnlockModel]
}

// NewRulesUnlockStore creates a RulesUnlockStore.
func NewRulesUnlockStore(db database.Database) RulesUnlockStore {
	return RulesUnlockStore{newEntityStore[rules.Unlock, RulesUnlockModel](db, RulesUnlockMapper{}, "unlock")}
}

var (
	_ profile.Store      = ProfileStore{}
	_ character.Store    = CharacterStore{}
	_ character.Searcher = CharacterStore{}
	_ class.Store        = ClassStore{}
	_ class.VersionStore = ClassVersionStore{}
	_ lfg.Store          = LFGPostStore{}
	_ page.Store         = PageStore{}
	_ rules.Store        = RulesPDFStore{}
	_ rules.UnlockStore  = RulesUnlockStore{}
)
