package persistence

import (
	"time"

	"github.com/emberline/guildhall/domain/character"
	"github.com/emberline/guildhall/domain/class"
	"github.com/emberline/guildhall/domain/lfg"
	"github.com/emberline/guildhall/domain/mission"
	"github.com/emberline/guildhall/domain/nav"
	"github.com/emberline/guildhall/domain/page"
	"github.com/emberline/guildhall/domain/profile"
	"github.com/emberline/guildhall/domain/rules"
)

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ProfileMapper maps profiles.
type ProfileMapper struct{}

// ToDomain converts a row to a Profile.
func (ProfileMapper) ToDomain(e ProfileModel) profile.Profile {
	return profile.ReconstructProfile(e.ID, e.Username, e.DisplayName, profile.Role(e.Role), e.CreatedAt, e.UpdatedAt)
}

// ToModel converts a Profile to a row.
func (ProfileMapper) ToModel(p profile.Profile) ProfileModel {
	return ProfileModel{
		ID:          p.ID(),
		Username:    p.Username(),
		DisplayName: p.DisplayName(),
		Role:        string(p.Role()),
		CreatedAt:   p.CreatedAt(),
		UpdatedAt:   p.UpdatedAt(),
	}
}

// CharacterMapper maps characters.
type CharacterMapper struct{}

// ToDomain converts a row to a Character.
func (CharacterMapper) ToDomain(e CharacterModel) character.Character {
	return character.ReconstructCharacter(
		e.ID, e.OwnerID, e.Name, deref(e.ClassID),
		e.Level, e.XP, e.Gold,
		e.Bio, deref(e.ImageURL),
		e.IsPublic,
		e.CreatedAt, e.UpdatedAt,
	)
}

// ToModel converts a Character to a row.
func (CharacterMapper) ToModel(c character.Character) CharacterModel {
	return CharacterModel{
		ID:        c.ID(),
		OwnerID:   c.OwnerID(),
		Name:      c.Name(),
		ClassID:   optional(c.ClassID()),
		Level:     c.Level(),
		XP:        c.XP(),
		Gold:      c.Gold(),
		Bio:       c.Bio(),
		ImageURL:  optional(c.ImageURL()),
		IsPublic:  c.Public(),
		CreatedAt: c.CreatedAt(),
		UpdatedAt: c.UpdatedAt(),
	}
}

// ClassMapper maps classes.
type ClassMapper struct{}

// ToDomain converts a row to a Class.
func (ClassMapper) ToDomain(e ClassModel) class.Class {
	return class.ReconstructClass(e.ID, e.Slug, e.Name, e.Summary, e.IsTeaser, e.IsPublished, e.CreatedBy, e.CreatedAt, e.UpdatedAt)
}

// ToModel converts a Class to a row.
func (ClassMapper) ToModel(c class.Class) ClassModel {
	return ClassModel{
		ID:          c.ID(),
		Slug:        c.Slug(),
		Name:        c.Name(),
		Summary:     c.Summary(),
		IsTeaser:    c.Teaser(),
		IsPublished: c.Published(),
		CreatedBy:   c.CreatedBy(),
		CreatedAt:   c.CreatedAt(),
		UpdatedAt:   c.UpdatedAt(),
	}
}

// ClassVersionMapper maps class versions.
type ClassVersionMapper struct{}

// ToDomain converts a row to a Version.
func (ClassVersionMapper) ToDomain(e ClassVersionModel) class.Version {
	return class.ReconstructVersion(e.ID, e.ClassID, e.Version, e.Abilities, e.Gear, e.Notes, e.CreatedAt)
}

// ToModel converts a Version to a row.
func (ClassVersionMapper) ToModel(v class.Version) ClassVersionModel {
	return ClassVersionModel{
		ID:        v.ID(),
		ClassID:   v.ClassID(),
		Version:   v.Number(),
		Abilities: v.Abilities(),
		Gear:      v.Gear(),
		Notes:     v.Notes(),
		CreatedAt: v.CreatedAt(),
	}
}

// MissionMapper maps missions.
type MissionMapper struct{}

// ToDomain converts a row to a Mission.
func (MissionMapper) ToDomain(e MissionModel) mission.Mission {
	return mission.ReconstructMission(
		e.ID, e.Title, e.Summary,
		mission.Outcome(e.Outcome),
		e.PlayedAt.UTC(),
		deref(e.RecapURL), deref(e.GMID), e.CreatorID,
		e.XPReward, e.GoldReward,
		e.UnregisteredNames,
		e.CreatedAt, e.UpdatedAt,
	)
}

// ToModel converts a Mission to a row.
func (MissionMapper) ToModel(m mission.Mission) MissionModel {
	return MissionModel{
		ID:                m.ID(),
		Title:             m.Title(),
		Summary:           m.Summary(),
		Outcome:           string(m.Outcome()),
		PlayedAt:          m.PlayedAt(),
		RecapURL:          optional(m.RecapURL()),
		GMID:              optional(m.GMID()),
		CreatorID:         m.CreatorID(),
		XPReward:          m.XPReward(),
		GoldReward:        m.GoldReward(),
		UnregisteredNames: StringList(m.UnregisteredNames()),
		CreatedAt:         m.CreatedAt(),
		UpdatedAt:         m.UpdatedAt(),
	}
}

// ParticipantMapper maps mission participant links.
type ParticipantMapper struct{}

// ToDomain converts a row to a Participant.
func (ParticipantMapper) ToDomain(e MissionCharacterModel) mission.Participant {
	return mission.ReconstructParticipant(e.MissionID, e.CharacterID, e.CreatedAt)
}

// ToModel converts a Participant to a row.
func (ParticipantMapper) ToModel(p mission.Participant) MissionCharacterModel {
	return MissionCharacterModel{MissionID: p.MissionID(), CharacterID: p.CharacterID(), CreatedAt: p.CreatedAt()}
}

// LFGPostMapper maps LFG posts.
type LFGPostMapper struct{}

// ToDomain converts a row to a Post.
func (LFGPostMapper) ToDomain(e LFGPostModel) lfg.Post {
	return lfg.ReconstructPost(
		e.ID, e.AuthorID, e.Title, e.Body,
		e.StartsAt.UTC(),
		e.DurationMinutes, e.Seats,
		lfg.Status(e.Status),
		e.CreatedAt, e.UpdatedAt,
	)
}

// ToModel converts a Post to a row.
func (LFGPostMapper) ToModel(p lfg.Post) LFGPostModel {
	return LFGPostModel{
		ID:              p.ID(),
		AuthorID:        p.AuthorID(),
		Title:           p.Title(),
		Body:            p.Body(),
		StartsAt:        p.StartsAt(),
		DurationMinutes: p.DurationMinutes(),
		Seats:           p.Seats(),
		Status:          string(p.Status()),
		CreatedAt:       p.CreatedAt(),
		UpdatedAt:       p.UpdatedAt(),
	}
}

// PageMapper maps pages.
type PageMapper struct{}

// ToDomain converts a row to a Page.
func (PageMapper) ToDomain(e PageModel) page.Page {
	return page.ReconstructPage(e.ID, e.Slug, e.Title, e.Body, page.Access(e.Access), e.IsPublished, e.CreatedAt, e.UpdatedAt)
}

// ToModel converts a Page to a row.
func (PageMapper) ToModel(p page.Page) PageModel {
	return PageModel{
		ID:          p.ID(),
		Slug:        p.Slug(),
		Title:       p.Title(),
		Body:        p.Body(),
		Access:      string(p.Access()),
		IsPublished: p.Published(),
		CreatedAt:   p.CreatedAt(),
		UpdatedAt:   p.UpdatedAt(),
	}
}

// RulesPDFMapper maps rulebooks.
type RulesPDFMapper struct{}

// ToDomain converts a row to a PDF.
func (RulesPDFMapper) ToDomain(e RulesPDFModel) rules.PDF {
	return rules.ReconstructPDF(e.ID, e.Slug, e.Title, e.Description, e.ObjectKey, e.IsFree, e.SizeBytes, e.CreatedAt)
}

// ToModel converts a PDF to a row.
func (RulesPDFMapper) ToModel(p rules.PDF) RulesPDFModel {
	return RulesPDFModel{
		ID:          p.ID(),
		Slug:        p.Slug(),
		Title:       p.Title(),
		Description: p.Description(),
		ObjectKey:   p.ObjectKey(),
		IsFree:      p.Free(),
		SizeBytes:   p.SizeBytes(),
		CreatedAt:   p.CreatedAt(),
	}
}

// RulesUnlockMapper maps rulebook unlocks.
type RulesUnlockMapper struct{}

// ToDomain converts a row to an Unlock.
func (RulesUnlockMapper) ToDomain(e RulesUnlockModel) rules.Unlock {
	var expires *time.Time
	if e.ExpiresAt != nil {
		t := e.ExpiresAt.UTC()
		expires = &t
	}
	return rules.ReconstructUnlock(e.ID, e.PDFID, e.ProfileID, e.GrantedBy, expires, e.CreatedAt)
}

// ToModel converts an Unlock to a row.
func (RulesUnlockMapper) ToModel(u rules.Unlock) RulesUnlockModel {
	return RulesUnlockModel{
		ID:        u.ID(),
		PDFID:     u.PDFID(),
		ProfileID: u.ProfileID(),
		GrantedBy: u.GrantedBy(),
		ExpiresAt: u.ExpiresAt(),
		CreatedAt: u.CreatedAt(),
	}
}

// NavItemMapper maps menu rows. The page slug is not a column; FindActive
// fills it in by joining pages.
type NavItemMapper struct{}

// ToDomain converts a row to an Item.
func (NavItemMapper) ToDomain(e NavItemModel) nav.Item {
	return navItemFromRow(e, "")
}

// ToModel converts an Item to a row.
func (NavItemMapper) ToModel(i nav.Item) NavItemModel {
	return NavItemModel{
		ID:            i.ID(),
		Label:         i.Label(),
		Type:          string(i.Type()),
		URL:           optional(i.URL()),
		PageID:        optional(i.PageID()),
		ParentID:      optional(i.ParentID()),
		Position:      i.Position(),
		RequiresAuth:  i.RequiresAuth(),
		RequiresAdmin: i.RequiresAdmin(),
		IsActive:      i.Active(),
		CreatedAt:     i.CreatedAt(),
		UpdatedAt:     i.UpdatedAt(),
	}
}

func navItemFromRow(e NavItemModel, pageSlug string) nav.Item {
	return nav.ReconstructItem(
		e.ID, e.Label, nav.Type(e.Type),
		deref(e.URL), deref(e.PageID), pageSlug, deref(e.ParentID),
		e.Position, e.RequiresAuth, e.RequiresAdmin, e.IsActive,
		e.CreatedAt, e.UpdatedAt,
	)
}
