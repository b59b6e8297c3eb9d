package web

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberline/guildhall/domain/character"
	"github.com/emberline/guildhall/infrastructure/markdown"
)

func TestRelativeTime(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		at   time.Time
		want string
	}{
		{now.Add(20 * time.Second), "just now"},
		{now.Add(-time.Minute), "1 minute ago"},
		{now.Add(-45 * time.Minute), "45 minutes ago"},
		{now.Add(3 * time.Hour), "3 hours from now"},
		{now.Add(-50 * time.Hour), "2 days ago"},
		{now.Add(-9 * 24 * time.Hour), "1 week ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, relativeTime(tt.at, now))
	}
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "1 seat", plural(1, "seat"))
	assert.Equal(t, "4 seats", plural(4, "seat"))
	assert.Equal(t, "0 missions", plural(0, "mission"))
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "512 B", humanBytes(512))
	assert.Equal(t, "1.5 KiB", humanBytes(1536))
	assert.Equal(t, "3.0 MiB", humanBytes(3<<20))
}

func TestOutcomeClass(t *testing.T) {
	assert.Equal(t, "outcome-success", outcomeClass("success"))
	assert.Equal(t, "outcome-failure", outcomeClass("failure"))
	assert.Equal(t, "outcome-pending", outcomeClass("pending"))
	assert.Equal(t, "outcome-pending", outcomeClass(""))
}

func TestProgressionSummary(t *testing.T) {
	p := character.Progression{BaseXP: 100, MissionXP: 40, BaseGold: 3, MissionGold: 7, Missions: 1}
	assert.Equal(t, "140 XP and 10 gold over 1 mission", progressionSummary(p))
}

func TestCalendarLinkHelper(t *testing.T) {
	start := time.Date(2026, 6, 5, 18, 30, 0, 0, time.UTC)
	helper := funcMap(markdown.NewRenderer(), time.Now)["calendarLink"].(func(postView) string)

	raw := helper(postView{Title: "Crypt crawl", StartsAt: start, EndsAt: start.Add(3 * time.Hour)})
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "calendar.google.com", u.Host)
	assert.Equal(t, "Crypt crawl", u.Query().Get("text"))
	assert.Equal(t, "20260605T183000Z/20260605T213000Z", u.Query().Get("dates"))
}
