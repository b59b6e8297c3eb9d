// Package dto holds request and response bodies of the v1 API.
package dto

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"

	"github.com/emberline/guildhall/application/service"
	"github.com/emberline/guildhall/domain/nav"
	"github.com/emberline/guildhall/infrastructure/api/validation"
)

// ProfileUpdateRequest is the body of PATCH /profiles/me.
type ProfileUpdateRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=80"`
}

// RoleRequest is the body of PUT /profiles/{id}/role.
type RoleRequest struct {
	Role string `json:"role" validate:"required,oneof=player gm admin"`
}

// CharacterRequest is the body of POST /characters.
type CharacterRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	ClassID  string `json:"class_id"`
	Level    int    `json:"level" validate:"gte=0"`
	XP       int    `json:"xp" validate:"gte=0"`
	Gold     int    `json:"gold" validate:"gte=0"`
	Bio      string `json:"bio"`
	ImageURL string `json:"image_url" validate:"omitempty,http_url"`
	Public   bool   `json:"public"`
}

// Params converts the request for the service layer.
func (r CharacterRequest) Params() *service.CharacterParams {
	return &service.CharacterParams{
		Name:     r.Name,
		ClassID:  r.ClassID,
		Level:    r.Level,
		XP:       r.XP,
		Gold:     r.Gold,
		Bio:      r.Bio,
		ImageURL: r.ImageURL,
		Public:   r.Public,
	}
}

// CharacterPatchRequest is the body of PATCH /characters/{id}. Absent fields
// are left unchanged.
type CharacterPatchRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=120"`
	ClassID  *string `json:"class_id"`
	Level    *int    `json:"level" validate:"omitempty,gte=0"`
	XP       *int    `json:"xp" validate:"omitempty,gte=0"`
	Gold     *int    `json:"gold" validate:"omitempty,gte=0"`
	Bio      *string `json:"bio"`
	ImageURL *string `json:"image_url" validate:"omitempty,http_url"`
	Public   *bool   `json:"public"`
}

// Patch converts the request for the service layer.
func (r CharacterPatchRequest) Patch() *service.CharacterPatch {
	return &service.CharacterPatch{
		Name:     r.Name,
		ClassID:  r.ClassID,
		Level:    r.Level,
		XP:       r.XP,
		Gold:     r.Gold,
		Bio:      r.Bio,
		ImageURL: r.ImageURL,
		Public:   r.Public,
	}
}

// ClassRequest is the body of POST /classes.
type ClassRequest struct {
	Name      string `json:"name" validate:"required,max=120"`
	Slug      string `json:"slug"`
	Summary   string `json:"summary"`
	Teaser    bool   `json:"teaser"`
	Published bool   `json:"published"`
	Abilities string `json:"abilities"`
	Gear      string `json:"gear"`
	Notes     string `json:"notes"`
}

// Params converts the request for the service layer.
func (r ClassRequest) Params() *service.ClassParams {
	return &service.ClassParams{
		Name:      r.Name,
		Slug:      r.Slug,
		Summary:   r.Summary,
		Teaser:    r.Teaser,
		Published: r.Published,
		Abilities: r.Abilities,
		Gear:      r.Gear,
		Notes:     r.Notes,
	}
}

// ClassPatchRequest is the body of PATCH /classes/{slug}.
type ClassPatchRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=120"`
	Summary   *string `json:"summary"`
	Teaser    *bool   `json:"teaser"`
	Published *bool   `json:"published"`
}

// Patch converts the request for the service layer.
func (r ClassPatchRequest) Patch() *service.ClassPatch {
	return &service.ClassPatch{
		Name:      r.Name,
		Summary:   r.Summary,
		Teaser:    r.Teaser,
		Published: r.Published,
	}
}

// VersionRequest is the body of POST /classes/{slug}/versions.
type VersionRequest struct {
	Abilities string `json:"abilities"`
	Gear      string `json:"gear"`
	Notes     string `json:"notes"`
}

// Params converts the request for the service layer.
func (r VersionRequest) Params() *service.VersionParams {
	return &service.VersionParams{Abilities: r.Abilities, Gear: r.Gear, Notes: r.Notes}
}

// MissionRequest is the body of POST /missions. PlayedAt accepts any common
// date layout and defaults to now.
type MissionRequest struct {
	Title      string `json:"title" validate:"required,max=200"`
	Summary    string `json:"summary"`
	Outcome    string `json:"outcome" validate:"omitempty,oneof=success failure pending"`
	PlayedAt   string `json:"played_at"`
	RecapURL   string `json:"recap_url" validate:"omitempty,http_url"`
	GMID       string `json:"gm_id"`
	XPReward   int    `json:"xp_reward" validate:"gte=0"`
	GoldReward int    `json:"gold_reward" validate:"gte=0"`
}

// Params converts the request for the service layer.
func (r MissionRequest) Params(now time.Time) (*service.MissionParams, error) {
	playedAt := now.UTC()
	if r.PlayedAt != "" {
		t, err := parseDate("played_at", r.PlayedAt)
		if err != nil {
			return nil, err
		}
		playedAt = t
	}
	return &service.MissionParams{
		Title:      r.Title,
		Summary:    r.Summary,
		Outcome:    r.Outcome,
		PlayedAt:   playedAt,
		RecapURL:   r.RecapURL,
		GMID:       r.GMID,
		XPReward:   r.XPReward,
		GoldReward: r.GoldReward,
	}, nil
}

// MissionPatchRequest is the body of PATCH /missions/{id}.
type MissionPatchRequest struct {
	Title      *string `json:"title" validate:"omitempty,min=1,max=200"`
	Summary    *string `json:"summary"`
	Outcome    *string `json:"outcome" validate:"omitempty,oneof=success failure pending"`
	PlayedAt   *string `json:"played_at"`
	RecapURL   *string `json:"recap_url"`
	GMID       *string `json:"gm_id"`
	XPReward   *int    `json:"xp_reward" validate:"omitempty,gte=0"`
	GoldReward *int    `json:"gold_reward" validate:"omitempty,gte=0"`
}

// Patch converts the request for the service layer.
func (r MissionPatchRequest) Patch() (*service.MissionPatch, error) {
	patch := &service.MissionPatch{
		Title:      r.Title,
		Summary:    r.Summary,
		Outcome:    r.Outcome,
		RecapURL:   r.RecapURL,
		GMID:       r.GMID,
		XPReward:   r.XPReward,
		GoldReward: r.GoldReward,
	}
	if r.PlayedAt != nil {
		t, err := parseDate("played_at", *r.PlayedAt)
		if err != nil {
			return nil, err
		}
		patch.PlayedAt = &t
	}
	return patch, nil
}

// ParticipantRequest is the body of POST /missions/{id}/characters.
type ParticipantRequest struct {
	CharacterID string `json:"character_id" validate:"required"`
}

// PostRequest is the body of POST /lfg.
type PostRequest struct {
	Title           string `json:"title" validate:"required,max=200"`
	Body            string `json:"body"`
	StartsAt        string `json:"starts_at" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"gte=0,lte=1440"`
	Seats           int    `json:"seats" validate:"gte=0,lte=20"`
}

// Params converts the request for the service layer.
func (r PostRequest) Params() (*service.PostParams, error) {
	startsAt, err := parseDate("starts_at", r.StartsAt)
	if err != nil {
		return nil, err
	}
	return &service.PostParams{
		Title:           r.Title,
		Body:            r.Body,
		StartsAt:        startsAt,
		DurationMinutes: r.DurationMinutes,
		Seats:           r.Seats,
	}, nil
}

// PostPatchRequest is the body of PATCH /lfg/{id}.
type PostPatchRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=1,max=200"`
	Body            *string `json:"body"`
	StartsAt        *string `json:"starts_at"`
	DurationMinutes *int    `json:"duration_minutes" validate:"omitempty,gt=0,lte=1440"`
	Seats           *int    `json:"seats" validate:"omitempty,gte=0,lte=20"`
}

// Patch converts the request for the service layer.
func (r PostPatchRequest) Patch() (*service.PostPatch, error) {
	patch := &service.PostPatch{
		Title:           r.Title,
		Body:            r.Body,
		DurationMinutes: r.DurationMinutes,
		Seats:           r.Seats,
	}
	if r.StartsAt != nil {
		t, err := parseDate("starts_at", *r.StartsAt)
		if err != nil {
			return nil, err
		}
		patch.StartsAt = &t
	}
	return patch, nil
}

// PageRequest is the body of POST /pages.
type PageRequest struct {
	Title     string `json:"title" validate:"required,max=200"`
	Slug      string `json:"slug"`
	Body      string `json:"body"`
	Access    string `json:"access" validate:"omitempty,oneof=public members admin"`
	Published bool   `json:"published"`
}

// Params converts the request for the service layer.
func (r PageRequest) Params() *service.PageParams {
	return &service.PageParams{
		Title:     r.Title,
		Slug:      r.Slug,
		Body:      r.Body,
		Access:    r.Access,
		Published: r.Published,
	}
}

// PagePatchRequest is the body of PATCH /pages/{slug}.
type PagePatchRequest struct {
	Title     *string `json:"title" validate:"omitempty,min=1,max=200"`
	Body      *string `json:"body"`
	Access    *string `json:"access" validate:"omitempty,oneof=public members admin"`
	Published *bool   `json:"published"`
}

// Patch converts the request for the service layer.
func (r PagePatchRequest) Patch() *service.PagePatch {
	return &service.PagePatch{
		Title:     r.Title,
		Body:      r.Body,
		Access:    r.Access,
		Published: r.Published,
	}
}

// GrantRequest is the body of POST /rules/{slug}/unlocks.
type GrantRequest struct {
	ProfileID string `json:"profile_id" validate:"required"`
	ExpiresAt string `json:"expires_at"`
}

// Params converts the request for the service layer.
func (r GrantRequest) Params() (*service.GrantParams, error) {
	params := &service.GrantParams{ProfileID: r.ProfileID}
	if r.ExpiresAt != "" {
		t, err := parseDate("expires_at", r.ExpiresAt)
		if err != nil {
			return nil, err
		}
		params.ExpiresAt = &t
	}
	return params, nil
}

// NavItemRequest is the body of POST /nav/items and PUT /nav/items/{id}.
type NavItemRequest struct {
	Label         string `json:"label" validate:"required,max=80"`
	Type          string `json:"type" validate:"required,oneof=link page dropdown"`
	URL           string `json:"url"`
	PageID        string `json:"page_id"`
	ParentID      string `json:"parent_id"`
	Position      int    `json:"position"`
	RequiresAuth  bool   `json:"requires_auth"`
	RequiresAdmin bool   `json:"requires_admin"`
	Active        *bool  `json:"active"`
}

// Params converts the request for the service layer. Items are active unless
// the request says otherwise.
func (r NavItemRequest) Params() *service.NavItemParams {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return &service.NavItemParams{
		Label:         r.Label,
		Type:          nav.Type(r.Type),
		URL:           r.URL,
		PageID:        r.PageID,
		ParentID:      r.ParentID,
		Position:      r.Position,
		RequiresAuth:  r.RequiresAuth,
		RequiresAdmin: r.RequiresAdmin,
		Active:        active,
	}
}

// ImportRequest is the body of POST /import/missions and
// POST /import/characters.
type ImportRequest struct {
	Text string `json:"text" validate:"required"`
}

func parseDate(field, value string) (time.Time, error) {
	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return time.Time{}, validation.NewRequestError(validation.FieldError{
			Field:   field,
			Tag:     "date",
			Message: fmt.Sprintf("%s is not a recognised date", field),
		})
	}
	return t.UTC(), nil
}
