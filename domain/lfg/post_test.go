package lfg

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/emberline/guildhall/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 11, 7, 18, 0, 0, 0, time.UTC)

func TestNewPost(t *testing.T) {
	p, err := NewPost("p1", "u1", "Sunday one-shot", start)
	require.NoError(t, err)
	assert.True(t, p.Open())
	assert.Equal(t, DefaultDuration, p.DurationMinutes())
	assert.Equal(t, start.Add(3*time.Hour), p.EndsAt())

	_, err = NewPost("p1", "u1", "T", start, WithSeats(0))
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = NewPost("p1", "u1", "T", time.Time{})
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = NewPost("p1", "u1", "", start)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestPost_Close(t *testing.T) {
	p, err := NewPost("p1", "u1", "T", start)
	require.NoError(t, err)
	closed := p.Close()
	assert.False(t, closed.Open())
	assert.True(t, p.Open())
}

func TestCalendarURL(t *testing.T) {
	p, err := NewPost("p1", "u1", "Crypt & Coffee", start, WithDuration(90), WithBody("Bring dice"))
	require.NoError(t, err)

	u, err := url.Parse(CalendarURL(p))
	require.NoError(t, err)
	assert.Equal(t, "calendar.google.com", u.Host)
	q := u.Query()
	assert.Equal(t, "TEMPLATE", q.Get("action"))
	assert.Equal(t, "Crypt & Coffee", q.Get("text"))
	assert.Equal(t, "20261107T180000Z/20261107T193000Z", q.Get("dates"))
	assert.Equal(t, "Bring dice", q.Get("details"))
}

func TestICS(t *testing.T) {
	p, err := NewPost("p1", "u1", "Dungeon, night", start, WithBody("line one\nline two"))
	require.NoError(t, err)

	doc := ICS(p, "guildhall.test", start.Add(-time.Hour))
	assert.True(t, strings.HasPrefix(doc, "BEGIN:VCALENDAR\r\n"))
	assert.Contains(t, doc, "UID:p1@guildhall.test\r\n")
	assert.Contains(t, doc, "DTSTART:20261107T180000Z\r\n")
	assert.Contains(t, doc, "DTEND:20261107T210000Z\r\n")
	assert.Contains(t, doc, `SUMMARY:Dungeon\, night`)
	assert.Contains(t, doc, `DESCRIPTION:line one\nline two`)
}

func TestICS_FoldsLongLines(t *testing.T) {
	body := strings.Repeat("Bring dice and snacks. ", 10)
	p, err := NewPost("p1", "u1", "Long night", start, WithBody(body))
	require.NoError(t, err)

	doc := ICS(p, "guildhall.test", start)
	for _, line := range strings.Split(strings.TrimSuffix(doc, "\r\n"), "\r\n") {
		assert.LessOrEqual(t, len(line), 75, line)
	}
	unfolded := strings.ReplaceAll(doc, "\r\n ", "")
	assert.Contains(t, unfolded, "DESCRIPTION:"+strings.TrimSpace(body)+"\r\n")
}
