package jsonapi

import (
	"time"

	"github.com/emberline/guildhall/application/service"
	"github.com/emberline/guildhall/domain/character"
	"github.com/emberline/guildhall/domain/class"
	"github.com/emberline/guildhall/domain/lfg"
	"github.com/emberline/guildhall/domain/mission"
	"github.com/emberline/guildhall/domain/nav"
	"github.com/emberline/guildhall/domain/page"
	"github.com/emberline/guildhall/domain/profile"
	"github.com/emberline/guildhall/domain/rules"
)

// ProfileAttributes represents profile attributes in JSON:API format.
type ProfileAttributes struct {
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CharacterAttributes represents character attributes in JSON:API format.
type CharacterAttributes struct {
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	ClassID   string    `json:"class_id,omitempty"`
	ClassName string    `json:"class_name,omitempty"`
	Level     int       `json:"level"`
	XP        int       `json:"xp"`
	Gold      int       `json:"gold"`
	Bio       string    `json:"bio,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	Public    bool      `json:"public"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProgressionAttributes represents a character's totals after rewards.
type ProgressionAttributes struct {
	BaseXP      int `json:"base_xp"`
	BaseGold    int `json:"base_gold"`
	MissionXP   int `json:"mission_xp"`
	MissionGold int `json:"mission_gold"`
	TotalXP     int `json:"total_xp"`
	TotalGold   int `json:"total_gold"`
	Missions    int `json:"missions"`
}

// ClassAttributes represents class attributes in JSON:API format.
type ClassAttributes struct {
	Slug           string              `json:"slug"`
	Name           string              `json:"name"`
	Summary        string              `json:"summary,omitempty"`
	Teaser         bool                `json:"teaser"`
	Published      bool                `json:"published"`
	CurrentVersion *VersionAttributes  `json:"current_version,omitempty"`
	Versions       []VersionAttributes `json:"versions,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// VersionAttributes represents one revision of a class.
type VersionAttributes struct {
	Number    int       `json:"number"`
	Abilities string    `json:"abilities,omitempty"`
	Gear      string    `json:"gear,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MissionAttributes represents mission attributes in JSON:API format.
type MissionAttributes struct {
	Title             string    `json:"title"`
	Summary           string    `json:"summary,omitempty"`
	Outcome           string    `json:"outcome"`
	PlayedAt          DateTime  `json:"played_at"`
	RecapURL          string    `json:"recap_url,omitempty"`
	GMID              string    `json:"gm_id,omitempty"`
	CreatorID         string    `json:"creator_id"`
	XPReward          int       `json:"xp_reward"`
	GoldReward        int       `json:"gold_reward"`
	UnregisteredNames []string  `json:"unregistered_names"`
	CreatorName       string    `json:"creator_name,omitempty"`
	GMName            string    `json:"gm_name,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// LFGPostAttributes represents a looking-for-group post.
type LFGPostAttributes struct {
	AuthorID        string   `json:"author_id"`
	Title           string   `json:"title"`
	Body            string   `json:"body,omitempty"`
	StartsAt        DateTime `json:"starts_at"`
	EndsAt          DateTime `json:"ends_at"`
	DurationMinutes int      `json:"duration_minutes"`
	Seats           int      `json:"seats"`
	Status          string   `json:"status"`
	CalendarURL     string   `json:"calendar_url"`
}

// PageAttributes represents page attributes in JSON:API format.
type PageAttributes struct {
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Access    string    `json:"access"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RulebookAttributes represents a rulebook and the viewer's access to it.
type RulebookAttributes struct {
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Free        bool       `json:"free"`
	SizeBytes   int64      `json:"size_bytes"`
	Allowed     bool       `json:"allowed"`
	Reason      string     `json:"reason"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// UnlockAttributes represents a rulebook grant.
type UnlockAttributes struct {
	PDFID     string     `json:"pdf_id"`
	ProfileID string     `json:"profile_id"`
	GrantedBy string     `json:"granted_by"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NavItemAttributes represents a stored navigation row.
type NavItemAttributes struct {
	Label         string `json:"label"`
	Type          string `json:"type"`
	URL           string `json:"url,omitempty"`
	PageID        string `json:"page_id,omitempty"`
	PageSlug      string `json:"page_slug,omitempty"`
	ParentID      string `json:"parent_id,omitempty"`
	Position      int    `json:"position"`
	RequiresAuth  bool   `json:"requires_auth"`
	RequiresAdmin bool   `json:"requires_admin"`
	Active        bool   `json:"active"`
}

// NavNode is one visible entry of the navigation tree.
type NavNode struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Href      string    `json:"href"`
	Navigable bool      `json:"navigable"`
	Children  []NavNode `json:"children"`
}

// NavDrop reports a row left out of the tree.
type NavDrop struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// NavTreeResponse is the navigation tree for the viewer.
type NavTreeResponse struct {
	Data []NavNode `json:"data"`
	Meta *Meta     `json:"meta,omitempty"`
}

// ResolutionAttributes describes how an extracted name was resolved.
type ResolutionAttributes struct {
	Name        string  `json:"name"`
	CharacterID string  `json:"character_id,omitempty"`
	Source      string  `json:"source,omitempty"`
	Score       float64 `json:"score"`
	Reason      string  `json:"reason"`
}

// Serializer converts domain values into JSON:API resources.
type Serializer struct{}

// NewSerializer creates a new Serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// ProfileResource converts a profile.
func (s *Serializer) ProfileResource(p profile.Profile) *Resource {
	return NewResource("profile", p.ID(), &ProfileAttributes{
		Username:    p.Username(),
		DisplayName: p.DisplayName(),
		Role:        string(p.Role()),
		CreatedAt:   p.CreatedAt(),
		UpdatedAt:   p.UpdatedAt(),
	})
}

func characterAttributes(c character.Character) *CharacterAttributes {
	return &CharacterAttributes{
		OwnerID:   c.OwnerID(),
		Name:      c.Name(),
		ClassID:   c.ClassID(),
		Level:     c.Level(),
		XP:        c.XP(),
		Gold:      c.Gold(),
		Bio:       c.Bio(),
		ImageURL:  c.ImageURL(),
		Public:    c.Public(),
		CreatedAt: c.CreatedAt(),
		UpdatedAt: c.UpdatedAt(),
	}
}

// CharacterResource converts a character.
func (s *Serializer) CharacterResource(c character.Character) *Resource {
	return NewResource("character", c.ID(), characterAttributes(c))
}

// CharacterResources converts a list of characters.
func (s *Serializer) CharacterResources(chars []character.Character) []*Resource {
	resources := make([]*Resource, len(chars))
	for i, c := range chars {
		resources[i] = s.CharacterResource(c)
	}
	return resources
}

// CharacterDetailResource converts a character with its class name,
// progression and the missions it played.
func (s *Serializer) CharacterDetailResource(d service.CharacterDetail) *Resource {
	attrs := characterAttributes(d.Character)
	attrs.ClassName = d.ClassName
	res := NewResource("character", d.Character.ID(), attrs)

	missionIDs := make([]string, len(d.Missions))
	for i, m := range d.Missions {
		missionIDs[i] = m.ID()
	}
	res.Relate("missions", "mission", missionIDs)
	res.Meta = &Meta{"progression": progressionAttributes(d.Progression)}
	return res
}

func progressionAttributes(p character.Progression) *ProgressionAttributes {
	return &ProgressionAttributes{
		BaseXP:      p.BaseXP,
		BaseGold:    p.BaseGold,
		MissionXP:   p.MissionXP,
		MissionGold: p.MissionGold,
		TotalXP:     p.TotalXP(),
		TotalGold:   p.TotalGold(),
		Missions:    p.Missions,
	}
}

// ProgressionResource converts a character's progression.
func (s *Serializer) ProgressionResource(characterID string, p character.Progression) *Resource {
	return NewResource("progression", characterID, progressionAttributes(p))
}

func versionAttributes(v class.Version) VersionAttributes {
	return VersionAttributes{
		Number:    v.Number(),
		Abilities: v.Abilities(),
		Gear:      v.Gear(),
		Notes:     v.Notes(),
		CreatedAt: v.CreatedAt(),
	}
}

func classAttributes(c class.Class) *ClassAttributes {
	return &ClassAttributes{
		Slug:      c.Slug(),
		Name:      c.Name(),
		Summary:   c.Summary(),
		Teaser:    c.Teaser(),
		Published: c.Published(),
		CreatedAt: c.CreatedAt(),
		UpdatedAt: c.UpdatedAt(),
	}
}

// ClassResource converts a class without its versions.
func (s *Serializer) ClassResource(c class.Class) *Resource {
	return NewResource("class", c.ID(), classAttributes(c))
}

// ClassResources converts a list of classes.
func (s *Serializer) ClassResources(classes []class.Class) []*Resource {
	resources := make([]*Resource, len(classes))
	for i, c := range classes {
		resources[i] = s.ClassResource(c)
	}
	return resources
}

// ClassViewResource converts a class as the viewer may see it. Gated views
// carry no versions.
func (s *Serializer) ClassViewResource(v class.View) *Resource {
	attrs := classAttributes(v.Class())
	if current, ok := v.Current(); ok {
		cv := versionAttributes(current)
		attrs.CurrentVersion = &cv
	}
	for _, version := range v.Versions() {
		attrs.Versions = append(attrs.Versions, versionAttributes(version))
	}
	res := NewResource("class", v.Class().ID(), attrs)
	res.Meta = &Meta{"gated": v.Gated()}
	return res
}

// VersionResource converts a class version.
func (s *Serializer) VersionResource(v class.Version) *Resource {
	attrs := versionAttributes(v)
	return NewResource("class_version", v.ID(), &attrs)
}

func missionAttributes(m mission.Mission) *MissionAttributes {
	names := m.UnregisteredNames()
	if names == nil {
		names = []string{}
	}
	return &MissionAttributes{
		Title:             m.Title(),
		Summary:           m.Summary(),
		Outcome:           string(m.Outcome()),
		PlayedAt:          NewDateTime(m.PlayedAt()),
		RecapURL:          m.RecapURL(),
		GMID:              m.GMID(),
		CreatorID:         m.CreatorID(),
		XPReward:          m.XPReward(),
		GoldReward:        m.GoldReward(),
		UnregisteredNames: names,
		CreatedAt:         m.CreatedAt(),
		UpdatedAt:         m.UpdatedAt(),
	}
}

// MissionResource converts a mission.
func (s *Serializer) MissionResource(m mission.Mission) *Resource {
	return NewResource("mission", m.ID(), missionAttributes(m))
}

// MissionResources converts a list of missions.
func (s *Serializer) MissionResources(missions []mission.Mission) []*Resource {
	resources := make([]*Resource, len(missions))
	for i, m := range missions {
		resources[i] = s.MissionResource(m)
	}
	return resources
}

// MissionDetailResponse converts a mission with its participants included.
func (s *Serializer) MissionDetailResponse(d service.MissionDetail) *Document {
	attrs := missionAttributes(d.Mission)
	attrs.CreatorName = d.CreatorName
	attrs.GMName = d.GMName
	res := NewResource("mission", d.Mission.ID(), attrs)

	ids := make([]string, len(d.Participants))
	included := make([]any, len(d.Participants))
	for i, c := range d.Participants {
		ids[i] = c.ID()
		included[i] = s.CharacterResource(c)
	}
	res.Relate("participants", "character", ids)

	doc := NewSingleResponse(res)
	doc.Included = included
	return doc
}

// LFGPostResource converts a looking-for-group post.
func (s *Serializer) LFGPostResource(p lfg.Post) *Resource {
	return NewResource("lfg_post", p.ID(), &LFGPostAttributes{
		AuthorID:        p.AuthorID(),
		Title:           p.Title(),
		Body:            p.Body(),
		StartsAt:        NewDateTime(p.StartsAt()),
		EndsAt:          NewDateTime(p.EndsAt()),
		DurationMinutes: p.DurationMinutes(),
		Seats:           p.Seats(),
		Status:          string(p.Status()),
		CalendarURL:     lfg.CalendarURL(p),
	})
}

// LFGPostResources converts a list of posts.
func (s *Serializer) LFGPostResources(posts []lfg.Post) []*Resource {
	resources := make([]*Resource, len(posts))
	for i, p := range posts {
		resources[i] = s.LFGPostResource(p)
	}
	return resources
}

// PageResource converts a content page.
func (s *Serializer) PageResource(p page.Page) *Resource {
	return NewResource("page", p.ID(), &PageAttributes{
		Slug:      p.Slug(),
		Title:     p.Title(),
		Body:      p.Body(),
		Access:    string(p.Access()),
		Published: p.Published(),
		CreatedAt: p.CreatedAt(),
		UpdatedAt: p.UpdatedAt(),
	})
}

// PageResources converts a list of pages.
func (s *Serializer) PageResources(pages []page.Page) []*Resource {
	resources := make([]*Resource, len(pages))
	for i, p := range pages {
		resources[i] = s.PageResource(p)
	}
	return resources
}

// RulebookResource converts a rulebook with the viewer's access decision.
func (s *Serializer) RulebookResource(b service.Rulebook) *Resource {
	return NewResource("rulebook", b.PDF.ID(), &RulebookAttributes{
		Slug:        b.PDF.Slug(),
		Title:       b.PDF.Title(),
		Description: b.PDF.Description(),
		Free:        b.PDF.Free(),
		SizeBytes:   b.PDF.SizeBytes(),
		Allowed:     b.Access.Allowed,
		Reason:      string(b.Access.Reason),
		ExpiresAt:   b.Access.ExpiresAt,
		CreatedAt:   b.PDF.CreatedAt(),
	})
}

// RulebookResources converts a list of rulebooks.
func (s *Serializer) RulebookResources(books []service.Rulebook) []*Resource {
	resources := make([]*Resource, len(books))
	for i, b := range books {
		resources[i] = s.RulebookResource(b)
	}
	return resources
}

// UnlockResource converts a rulebook grant.
func (s *Serializer) UnlockResource(u rules.Unlock) *Resource {
	return NewResource("rules_unlock", u.ID(), &UnlockAttributes{
		PDFID:     u.PDFID(),
		ProfileID: u.ProfileID(),
		GrantedBy: u.GrantedBy(),
		ExpiresAt: u.ExpiresAt(),
		CreatedAt: u.CreatedAt(),
	})
}

// UnlockResources converts a list of grants.
func (s *Serializer) UnlockResources(unlocks []rules.Unlock) []*Resource {
	resources := make([]*Resource, len(unlocks))
	for i, u := range unlocks {
		resources[i] = s.UnlockResource(u)
	}
	return resources
}

// NavItemResource converts a stored navigation row.
func (s *Serializer) NavItemResource(i nav.Item) *Resource {
	return NewResource("nav_item", i.ID(), &NavItemAttributes{
		Label:         i.Label(),
		Type:          string(i.Type()),
		URL:           i.URL(),
		PageID:        i.PageID(),
		PageSlug:      i.PageSlug(),
		ParentID:      i.ParentID(),
		Position:      i.Position(),
		RequiresAuth:  i.RequiresAuth(),
		RequiresAdmin: i.RequiresAdmin(),
		Active:        i.Active(),
	})
}

// NavItemResources converts a list of navigation rows.
func (s *Serializer) NavItemResources(items []nav.Item) []*Resource {
	resources := make([]*Resource, len(items))
	for i, item := range items {
		resources[i] = s.NavItemResource(item)
	}
	return resources
}

// NavTree converts a navigation tree. Dropped rows are listed in meta only
// when includeDropped is set.
func (s *Serializer) NavTree(t nav.Tree, includeDropped bool) NavTreeResponse {
	resp := NavTreeResponse{Data: navNodes(t.Roots())}
	if includeDropped {
		dropped := t.Dropped()
		drops := make([]NavDrop, len(dropped))
		for i, d := range dropped {
			drops[i] = NavDrop{ID: d.ItemID, Reason: string(d.Reason)}
		}
		resp.Meta = &Meta{"dropped": drops}
	}
	return resp
}

func navNodes(nodes []nav.Node) []NavNode {
	result := make([]NavNode, len(nodes))
	for i, n := range nodes {
		result[i] = NavNode{
			ID:        n.Item.ID(),
			Label:     n.Item.Label(),
			Href:      n.Href,
			Navigable: n.Navigable(),
			Children:  navNodes(n.Children),
		}
	}
	return result
}

func resolutions(rs []service.Resolution) []ResolutionAttributes {
	result := make([]ResolutionAttributes, len(rs))
	for i, r := range rs {
		result[i] = ResolutionAttributes{
			Name:        r.Name,
			CharacterID: r.CharacterID,
			Source:      string(r.Source),
			Score:       r.Score,
			Reason:      string(r.Reason),
		}
	}
	return result
}

// MissionImportResponse converts the result of a mission import. Linked and
// unresolved names travel in meta.
func (s *Serializer) MissionImportResponse(r service.ImportResult) *Document {
	res := s.MissionResource(r.Mission)
	res.Meta = &Meta{
		"linked":         resolutions(r.Linked),
		"already_linked": resolutions(r.AlreadyLinked),
		"unresolved":     resolutions(r.Unresolved),
	}
	return NewSingleResponse(res)
}

// CharacterImportResponse converts the result of a character import.
func (s *Serializer) CharacterImportResponse(r service.CharacterImportResult) *Document {
	attrs := characterAttributes(r.Character)
	attrs.ClassName = r.ClassName
	res := NewResource("character", r.Character.ID(), attrs)
	res.Meta = &Meta{"unresolved": resolutions(r.Unresolved)}
	return NewSingleResponse(res)
}
