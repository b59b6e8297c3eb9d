package extraction

import (
	"net/url"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ParseDate parses a date in any common layout. Zone-less values are read
// as UTC. Absent or unparseable values fall back to now. The result is
// always in UTC.
func ParseDate(value string, now time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return now.UTC()
	}
	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return now.UTC()
	}
	return t.UTC()
}

// ParseURL returns value when it is an absolute URL with a scheme and host.
func ParseURL(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return u.String(), true
}
