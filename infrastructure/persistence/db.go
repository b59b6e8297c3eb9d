// Package persistence stores the domain types in a relational database
// through gorm.
package persistence

import (
	"errors"
	"fmt"

	"github.com/emberline/guildhall/internal/database"
	"github.com/emberline/guildhall/internal/domain"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table.
func AutoMigrate(db database.Database) error {
	if err := db.GORM().AutoMigrate(
		&ProfileModel{},
		&CharacterModel{},
		&ClassModel{},
		&ClassVersionModel{},
		&MissionModel{},
		&MissionCharacterModel{},
		&LFGPostModel{},
		&PageModel{},
		&RulesPDFModel{},
		&RulesUnlockModel{},
		&NavItemModel{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// writeErr wraps a failed write, classifying unique violations as conflicts.
func writeErr(op, label string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s %s: %w", op, label, domain.ErrConflict)
	}
	return fmt.Errorf("%s %s: %w", op, label, err)
}
