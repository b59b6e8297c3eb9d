package web

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/emberline/guildhall/domain/character"
	"github.com/emberline/guildhall/domain/lfg"
	"github.com/emberline/guildhall/infrastructure/markdown"
)

// funcMap builds the helpers every page template can call. now is the
// handler clock so relative times are stable in tests.
func funcMap(md *markdown.Renderer, now func() time.Time) template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"formatDateTime": func(t time.Time) string {
			return t.Format("Jan 2, 2006 15:04 MST")
		},
		"isoTime": func(t time.Time) string {
			return t.UTC().Format(time.RFC3339)
		},
		"timePtr": func(t *time.Time) time.Time {
			if t == nil {
				return time.Time{}
			}
			return *t
		},
		"relativeTime": func(t time.Time) string {
			return relativeTime(t, now())
		},
		"markdown":     md.MustRender,
		"outcomeClass": outcomeClass,
		"calendarLink": func(p postView) string {
			return lfg.CalendarLink(p.Title, p.Body, p.StartsAt, p.EndsAt)
		},
		"icsLink": func(id string) string {
			return "/lfg/" + id + ".ics"
		},
		"progression": progressionSummary,
		"humanBytes": humanBytes,
		"plural":     plural,
		"join":       strings.Join,
	}
}

// relativeTime reads like "3 hours ago" or "2 days from now". Anything
// within a minute is "just now".
func relativeTime(t, now time.Time) string {
	if d := t.Sub(now); d > -time.Minute && d < time.Minute {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func plural(n int, unit string) string {
	return english.Plural(n, unit, "")
}

func progressionSummary(p character.Progression) string {
	return fmt.Sprintf("%d XP and %d gold over %s", p.TotalXP(), p.TotalGold(), plural(p.Missions, "mission"))
}

func outcomeClass(outcome string) string {
	switch outcome {
	case "success":
		return "outcome-success"
	case "failure":
		return "outcome-failure"
	default:
		return "outcome-pending"
	}
}

func humanBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
