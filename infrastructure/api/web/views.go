package web

import (
	"time"

	"github.com/jinzhu/copier"

	"github.com/emberline/guildhall/application/service"
	"github.com/emberline/guildhall/domain/character"
	"github.com/emberline/guildhall/domain/class"
	"github.com/emberline/guildhall/domain/lfg"
	"github.com/emberline/guildhall/domain/mission"
	"github.com/emberline/guildhall/domain/nav"
	"github.com/emberline/guildhall/domain/page"
)

// Views hold plain fields so templates never call into domain types. copier
// fills them from the domain getters of the same name.

type characterView struct {
	ID       string
	Name     string
	Level    int
	XP       int
	Gold     int
	Bio      string
	ImageURL string
	Public   bool
}

type missionView struct {
	ID                string
	Title             string
	Summary           string
	Outcome           string
	PlayedAt          time.Time
	RecapURL          string
	XPReward          int
	GoldReward        int
	UnregisteredNames []string
}

type postView struct {
	ID              string
	Title           string
	Body            string
	StartsAt        time.Time
	EndsAt          time.Time
	DurationMinutes int
	Seats           int
	Open            bool
	Editable        bool
}

type versionView struct {
	Number    int
	Abilities string
	Gear      string
	Notes     string
	CreatedAt time.Time
}

type classView struct {
	Slug     string
	Name     string
	Summary  string
	Gated    bool
	Current  *versionView
	Versions []versionView
}

type pageView struct {
	Slug      string
	Title     string
	Body      string
	UpdatedAt time.Time
}

type rulebookView struct {
	Slug        string
	Title       string
	Description string
	Free        bool
	SizeBytes   int64
	Allowed     bool
	Reason      string
	ExpiresAt   *time.Time
}

type navView struct {
	Label     string
	Href      string
	Navigable bool
	Children  []navView
}

func characterViews(cs []character.Character) []characterView {
	out := make([]characterView, len(cs))
	for i := range cs {
		out[i] = toCharacterView(cs[i])
	}
	return out
}

func toCharacterView(c character.Character) characterView {
	var v characterView
	_ = copier.Copy(&v, &c)
	return v
}

func missionViews(ms []mission.Mission) []missionView {
	out := make([]missionView, len(ms))
	for i := range ms {
		out[i] = toMissionView(ms[i])
	}
	return out
}

func toMissionView(m mission.Mission) missionView {
	var v missionView
	_ = copier.Copy(&v, &m)
	v.Outcome = string(m.Outcome())
	return v
}

func postViews(ps []lfg.Post, editable func(lfg.Post) bool) []postView {
	out := make([]postView, len(ps))
	for i, p := range ps {
		var v postView
		_ = copier.Copy(&v, &p)
		v.Editable = editable(p)
		out[i] = v
	}
	return out
}

func toClassView(cv class.View) classView {
	c := cv.Class()
	v := classView{
		Slug:    c.Slug(),
		Name:    c.Name(),
		Summary: c.Summary(),
		Gated:   cv.Gated(),
	}
	for _, ver := range cv.Versions() {
		v.Versions = append(v.Versions, toVersionView(ver))
	}
	if cur, ok := cv.Current(); ok {
		current := toVersionView(cur)
		v.Current = &current
	}
	return v
}

func toVersionView(ver class.Version) versionView {
	var v versionView
	_ = copier.Copy(&v, &ver)
	return v
}

func toPageView(p page.Page) pageView {
	var v pageView
	_ = copier.Copy(&v, &p)
	return v
}

func rulebookViews(books []service.Rulebook) []rulebookView {
	out := make([]rulebookView, len(books))
	for i, b := range books {
		var v rulebookView
		_ = copier.Copy(&v, &b.PDF)
		v.Allowed = b.Access.Allowed
		v.Reason = string(b.Access.Reason)
		v.ExpiresAt = b.Access.ExpiresAt
		out[i] = v
	}
	return out
}

func navViews(nodes []nav.Node) []navView {
	out := make([]navView, len(nodes))
	for i, n := range nodes {
		out[i] = navView{
			Label:     n.Item.Label(),
			Href:      n.Href,
			Navigable: n.Navigable(),
			Children:  navViews(n.Children),
		}
	}
	return out
}
