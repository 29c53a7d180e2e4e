// Package daykey resolves instants into calendar-day keys under a single
// fixed time zone. Every "same day?" decision in the service goes through
// a Resolver; raw timestamps are never compared directly.
package daykey

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the textual form of a Key (ISO date).
const Layout = "2006-01-02"

// Key identifies one calendar day, e.g. "2026-10-16". The zero value means
// "no day" (for example a user who has never visited). Keys order
// lexicographically in the same order as the days they name.
type Key string

// ErrInvalidKey is returned by Parse for anything that is not a valid date.
var ErrInvalidKey = errors.New("invalid day key")

// Parse validates s as a YYYY-MM-DD date.
func Parse(s string) (Key, error) {
	if _, err := time.Parse(Layout, s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return Key(s), nil
}

func (k Key) String() string { return string(k) }

// IsZero reports whether k is the absent day.
func (k Key) IsZero() bool { return k == "" }

// Before reports whether k names an earlier day than o. The absent day sorts
// before every real day.
func (k Key) Before(o Key) bool { return k < o }

// After reports whether k names a later day than o.
func (k Key) After(o Key) bool { return k > o }

// Resolver maps instants to Keys in one location.
type Resolver struct {
	loc *time.Location
	now func() time.Time
}

// NewResolver returns a Resolver for loc using the wall clock. A nil loc
// means UTC.
func NewResolver(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{loc: loc, now: time.Now}
}

// LoadResolver builds a Resolver from an IANA zone name such as
// "Europe/Berlin". An empty name selects UTC.
func LoadResolver(zone string) (*Resolver, error) {
	if zone == "" {
		return NewResolver(time.UTC), nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load zone %q: %w", zone, err)
	}
	return NewResolver(loc), nil
}

// WithClock returns a copy of r that reads the current time from now.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	return &Resolver{loc: r.loc, now: now}
}

// Location is the zone the resolver cuts days in.
func (r *Resolver) Location() *time.Location { return r.loc }

// Now returns the resolver's current instant.
func (r *Resolver) Now() time.Time { return r.now() }

// Of returns the day containing t.
func (r *Resolver) Of(t time.Time) Key {
	return Key(t.In(r.loc).Format(Layout))
}

// Today is Of(Now()).
func (r *Resolver) Today() Key { return r.Of(r.now()) }

// UntilNextDay is the time left between t and the next midnight in the
// resolver's zone.
func (r *Resolver) UntilNextDay(t time.Time) time.Duration {
	lt := t.In(r.loc)
	y, m, d := lt.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, r.loc)
	return next.Sub(lt)
}

// FromClient interprets a client-supplied day: either a bare YYYY-MM-DD key
// or an RFC3339 timestamp, which is resolved into the server's zone.
func (r *Resolver) FromClient(s string) (Key, error) {
	if k, err := Parse(s); err == nil {
		return k, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return r.Of(t), nil
}
