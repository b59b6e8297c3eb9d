// Package lfg provides "looking for group" posts announcing upcoming games.
package lfg

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/emberline/guildhall/domain/session"
	"github.com/emberline/guildhall/domain/store"
	"github.com/emberline/guildhall/internal/domain"
)

// Status is whether a post is still taking players.
type Status string

// Status values.
const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// DefaultDuration is used when a post does not say how long the game runs.
const DefaultDuration = 180

// Post is an announcement looking for players.
type Post struct {
	id              string
	authorID        string
	title           string
	body            string
	startsAt        time.Time
	durationMinutes int
	seats           int
	status          Status
	createdAt       time.Time
	updatedAt       time.Time
}

// Option configures a Post.
type Option func(*Post)

// WithTitle sets the title.
func WithTitle(title string) Option {
	return func(p *Post) { p.title = strings.TrimSpace(title) }
}

// WithBody sets the body.
func WithBody(body string) Option {
	return func(p *Post) { p.body = strings.TrimSpace(body) }
}

// WithStartsAt sets the start time.
func WithStartsAt(t time.Time) Option {
	return func(p *Post) { p.startsAt = t.UTC() }
}

// WithDuration sets the expected length in minutes.
func WithDuration(minutes int) Option {
	return func(p *Post) { p.durationMinutes = minutes }
}

// WithSeats sets the number of open seats.
func WithSeats(seats int) Option {
	return func(p *Post) { p.seats = seats }
}

// NewPost creates an open post.
func NewPost(id, authorID, title string, startsAt time.Time, opts ...Option) (Post, error) {
	now := time.Now().UTC()
	p := Post{
		id:              id,
		authorID:        authorID,
		title:           strings.TrimSpace(title),
		startsAt:        startsAt.UTC(),
		durationMinutes: DefaultDuration,
		seats:           1,
		status:          StatusOpen,
		createdAt:       now,
		updatedAt:       now,
	}
	for _, opt := range opts {
		opt(&p)
	}
	if err := p.validate(); err != nil {
		return Post{}, err
	}
	return p, nil
}

// ReconstructPost recreates a post from persistence.
func ReconstructPost(
	id, authorID, title, body string,
	startsAt time.Time,
	durationMinutes, seats int,
	status Status,
	createdAt, updatedAt time.Time,
) Post {
	return Post{
		id:              id,
		authorID:        authorID,
		title:           title,
		body:            body,
		startsAt:        startsAt,
		durationMinutes: durationMinutes,
		seats:           seats,
		status:          status,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

func (p Post) validate() error {
	switch {
	case p.title == "":
		return fmt.Errorf("%w: post title is required", domain.ErrValidation)
	case p.authorID == "":
		return fmt.Errorf("%w: post author is required", domain.ErrValidation)
	case p.startsAt.IsZero():
		return fmt.Errorf("%w: start time is required", domain.ErrValidation)
	case p.seats < 1:
		return fmt.Errorf("%w: seats must be at least 1", domain.ErrValidation)
	case p.durationMinutes < 0:
		return fmt.Errorf("%w: duration cannot be negative", domain.ErrValidation)
	case p.status != StatusOpen && p.status != StatusClosed:
		return fmt.Errorf("%w: unknown status %q", domain.ErrValidation, p.status)
	}
	return nil
}

// Apply returns a copy with opts applied.
func (p Post) Apply(opts ...Option) (Post, error) {
	for _, opt := range opts {
		opt(&p)
	}
	p.updatedAt = time.Now().UTC()
	if err := p.validate(); err != nil {
		return Post{}, err
	}
	return p, nil
}

// Close returns a copy that no longer takes players.
func (p Post) Close() Post {
	p.status = StatusClosed
	p.updatedAt = time.Now().UTC()
	return p
}

// EditableBy reports whether v may change or delete the post.
func (p Post) EditableBy(v session.Viewer) bool { return v.Owns(p.authorID) }

// ID returns the post id.
func (p Post) ID() string { return p.id }

// AuthorID returns the author profile id.
func (p Post) AuthorID() string { return p.authorID }

// Title returns the title.
func (p Post) Title() string { return p.title }

// Body returns the body.
func (p Post) Body() string { return p.body }

// StartsAt returns the start time in UTC.
func (p Post) StartsAt() time.Time { return p.startsAt }

// EndsAt returns the expected end time.
func (p Post) EndsAt() time.Time {
	return p.startsAt.Add(time.Duration(p.durationMinutes) * time.Minute)
}

// DurationMinutes returns the expected length.
func (p Post) DurationMinutes() int { return p.durationMinutes }

// Seats returns the number of open seats.
func (p Post) Seats() int { return p.seats }

// Status returns the status.
func (p Post) Status() Status { return p.status }

// Open reports whether the post still takes players.
func (p Post) Open() bool { return p.status == StatusOpen }

// CreatedAt returns the creation time.
func (p Post) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt returns the last update time.
func (p Post) UpdatedAt() time.Time { return p.updatedAt }

const calendarStamp = "20060102T150405Z"

// CalendarURL builds a Google Calendar event template link for the post.
func CalendarURL(p Post) string {
	return CalendarLink(p.title, p.body, p.startsAt, p.EndsAt())
}

// CalendarLink builds a Google Calendar event template link.
func CalendarLink(title, details string, start, end time.Time) string {
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", title)
	q.Set("dates", start.UTC().Format(calendarStamp)+"/"+end.UTC().Format(calendarStamp))
	if details != "" {
		q.Set("details", details)
	}
	return "https://calendar.google.com/calendar/render?" + q.Encode()
}

// ICS renders the post as a single-event iCalendar document. Long lines are
// folded at 75 octets.
func ICS(p Post, host string, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetProductId("-//guildhall//lfg//EN")

	event := cal.AddEvent(p.id + "@" + host)
	event.SetDtStampTime(now)
	event.SetStartAt(p.startsAt)
	event.SetEndAt(p.EndsAt())
	event.SetSummary(p.title)
	if p.body != "" {
		event.SetDescription(p.body)
	}
	return cal.Serialize()
}

// Store persists posts.
type Store interface {
	store.Store[Post]
}

// WithStatus filters by the "status" column.
func WithStatus(s Status) store.Option {
	return store.WithCondition("status", string(s))
}

// WithAuthorID filters by the "author_id" column.
func WithAuthorID(id string) store.Option {
	return store.WithCondition("author_id", id)
}

// StartingAfter keeps posts starting at or after t.
func StartingAfter(t time.Time) store.Option {
	return store.WithWhere("starts_at >= ?", t.UTC())
}

// BySoonest orders by start time ascending.
func BySoonest() store.Option {
	return store.WithOrderAsc("starts_at")
}
