package persistence

import (
	"database/sql/driver"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// ProfileModel is a row in profiles.
type ProfileModel struct {
	ID          string    `gorm:"column:id;primaryKey;size:36"`
	Username    string    `gorm:"column:username;uniqueIndex;size:255"`
	DisplayName string    `gorm:"column:display_name;size:255"`
	Role        string    `gorm:"column:role;index;size:16"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (ProfileModel) TableName() string { return "profiles" }

// CharacterModel is a row in characters.
type CharacterModel struct {
	ID        string    `gorm:"column:id;primaryKey;size:36"`
	OwnerID   string    `gorm:"column:owner_id;index;size:36"`
	Name      string    `gorm:"column:name;index;size:255"`
	ClassID   *string   `gorm:"column:class_id;index;size:36"`
	Level     int       `gorm:"column:level"`
	XP        int       `gorm:"column:xp"`
	Gold      int       `gorm:"column:gold"`
	Bio       string    `gorm:"column:bio;type:text"`
	ImageURL  *string   `gorm:"column:image_url;size:2048"`
	IsPublic  bool      `gorm:"column:is_public;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (CharacterModel) TableName() string { return "characters" }

// ClassModel is a row in classes.
type ClassModel struct {
	ID          string    `gorm:"column:id;primaryKey;size:36"`
	Slug        string    `gorm:"column:slug;uniqueIndex;size:255"`
	Name        string    `gorm:"column:name;size:255"`
	Summary     string    `gorm:"column:summary;type:text"`
	IsTeaser    bool      `gorm:"column:is_teaser"`
	IsPublished bool      `gorm:"column:is_published;index"`
	CreatedBy   string    `gorm:"column:created_by;size:36"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (ClassModel) TableName() string { return "classes" }

// ClassVersionModel is a row in class_versions.
type ClassVersionModel struct {
	ID        string    `gorm:"column:id;primaryKey;size:36"`
	ClassID   string    `gorm:"column:class_id;uniqueIndex:idx_class_version;size:36"`
	Version   int       `gorm:"column:version;uniqueIndex:idx_class_version"`
	Abilities string    `gorm:"column:abilities;type:text"`
	Gear      string    `gorm:"column:gear;type:text"`
	Notes     string    `gorm:"column:notes;type:text"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName returns the table name.
func (ClassVersionModel) TableName() string { return "class_versions" }

// MissionModel is a row in missions.
type MissionModel struct {
	ID                string     `gorm:"column:id;primaryKey;size:36"`
	Title             string     `gorm:"column:title;size:255"`
	Summary           string     `gorm:"column:summary;type:text"`
	Outcome           string     `gorm:"column:outcome;index;size:16"`
	PlayedAt          time.Time  `gorm:"column:played_at;index"`
	RecapURL          *string    `gorm:"column:recap_url;size:2048"`
	GMID              *string    `gorm:"column:gm_id;index;size:36"`
	CreatorID         string     `gorm:"column:creator_id;index;size:36"`
	XPReward          int        `gorm:"column:xp_reward"`
	GoldReward        int        `gorm:"column:gold_reward"`
	UnregisteredNames StringList `gorm:"column:unregistered_names;type:text"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (MissionModel) TableName() string { return "missions" }

// MissionCharacterModel is a row in mission_characters.
type MissionCharacterModel struct {
	MissionID   string    `gorm:"column:mission_id;primaryKey;size:36"`
	CharacterID string    `gorm:"column:character_id;primaryKey;index;size:36"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

// TableName returns the table name.
func (MissionCharacterModel) TableName() string { return "mission_characters" }

// LFGPostModel is a row in lfg_posts.
type LFGPostModel struct {
	ID              string    `gorm:"column:id;primaryKey;size:36"`
	AuthorID        string    `gorm:"column:author_id;index;size:36"`
	Title           string    `gorm:"column:title;size:255"`
	Body            string    `gorm:"column:body;type:text"`
	StartsAt        time.Time `gorm:"column:starts_at;index"`
	DurationMinutes int       `gorm:"column:duration_minutes"`
	Seats           int       `gorm:"column:seats"`
	Status          string    `gorm:"column:status;index;size:16"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (LFGPostModel) TableName() string { return "lfg_posts" }

// PageModel is a row in pages.
type PageModel struct {
	ID          string    `gorm:"column:id;primaryKey;size:36"`
	Slug        string    `gorm:"column:slug;uniqueIndex;size:255"`
	Title       string    `gorm:"column:title;size:255"`
	Body        string    `gorm:"column:body;type:text"`
	Access      string    `gorm:"column:access;size:16"`
	IsPublished bool      `gorm:"column:is_published;index"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (PageModel) TableName() string { return "pages" }

// RulesPDFModel is a row in rules_pdfs.
type RulesPDFModel struct {
	ID          string    `gorm:"column:id;primaryKey;size:36"`
	Slug        string    `gorm:"column:slug;uniqueIndex;size:255"`
	Title       string    `gorm:"column:title;size:255"`
	Description string    `gorm:"column:description;type:text"`
	ObjectKey   string    `gorm:"column:object_key;size:1024"`
	IsFree      bool      `gorm:"column:is_free"`
	SizeBytes   int64     `gorm:"column:size_bytes"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

// TableName returns the table name.
func (RulesPDFModel) TableName() string { return "rules_pdfs" }

// RulesUnlockModel is a row in rules_pdf_unlocks.
type RulesUnlockModel struct {
	ID        string     `gorm:"column:id;primaryKey;size:36"`
	PDFID     string     `gorm:"column:pdf_id;index;size:36"`
	ProfileID string     `gorm:"column:profile_id;index;size:36"`
	GrantedBy string     `gorm:"column:granted_by;size:36"`
	ExpiresAt *time.Time `gorm:"column:expires_at"`
	CreatedAt time.Time  `gorm:"column:created_at"`
}

// TableName returns the table name.
func (RulesUnlockModel) TableName() string { return "rules_pdf_unlocks" }

// NavItemModel is a row in nav_items.
type NavItemModel struct {
	ID            string    `gorm:"column:id;primaryKey;size:36"`
	Label         string    `gorm:"column:label;size:255"`
	Type          string    `gorm:"column:type;size:16"`
	URL           *string   `gorm:"column:url;size:2048"`
	PageID        *string   `gorm:"column:page_id;index;size:36"`
	ParentID      *string   `gorm:"column:parent_id;index;size:36"`
	Position      int       `gorm:"column:position"`
	RequiresAuth  bool      `gorm:"column:requires_auth"`
	RequiresAdmin bool      `gorm:"column:requires_admin"`
	IsActive      bool      `gorm:"column:is_active;index"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (NavItemModel) TableName() string { return "nav_items" }

// StringList is a string slice stored as a JSON array in a text column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("encode string list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("scan string list: unsupported type %T", value)
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decode string list: %w", err)
	}
	*l = out
	return nil
}
