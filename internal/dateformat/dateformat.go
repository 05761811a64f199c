// Package dateformat renders instants as human-readable strings under fixed
// display profiles.
package dateformat

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // profiles name IANA zones; do not depend on the host database
)

// DefaultLocalZone is the zone used by the Detailed profile unless overridden.
const DefaultLocalZone = "America/New_York"

// Profile is a fixed set of formatting options. Names are always en-US.
type Profile struct {
	Name     string
	Location *time.Location
	Layout   string
}

// BuildShort renders build stamps: "Mon, Jan 15, 2024, 10:30 AM UTC".
var BuildShort = Profile{
	Name:     "build-short",
	Location: time.UTC,
	Layout:   "Mon, Jan 02, 2006, 03:04 PM MST",
}

// PostLong renders post dates: "Monday, January 15, 2024".
var PostLong = Profile{
	Name:     "post-long",
	Location: time.UTC,
	Layout:   "Monday, January 02, 2006",
}

// Detailed returns the local-timezone profile with seconds and zone name:
// "Mon, Jan 15, 2024, 05:30:00 AM EST".
func Detailed(zone string) (Profile, error) {
	if strings.TrimSpace(zone) == "" {
		zone = DefaultLocalZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Profile{}, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	return Profile{
		Name:     "detailed",
		Location: loc,
		Layout:   "Mon, Jan 02, 2006, 03:04:05 PM MST",
	}, nil
}

// Format renders t under p. The zero instant is rejected.
func Format(t time.Time, p Profile) (string, error) {
	if t.IsZero() {
		return "", fmt.Errorf("format %s: invalid instant", p.Name)
	}
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(p.Layout), nil
}

// ToTime coerces template values to an instant. It accepts time.Time,
// *time.Time, and RFC3339 or YYYY-MM-DD strings.
func ToTime(v any) (time.Time, error) {
	switch tv := v.(type) {
	case time.Time:
		return tv, nil
	case *time.Time:
		if tv == nil {
			return time.Time{}, fmt.Errorf("nil time")
		}
		return *tv, nil
	case string:
		s := strings.TrimSpace(tv)
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t, nil
		}
		if t, err := time.ParseInLocation("2006-01-02", s, time.UTC); err == nil {
			return t, nil
		}
		return time.Time{}, fmt.Errorf("unrecognized date %q", tv)
	default:
		return time.Time{}, fmt.Errorf("cannot format %T as a date", v)
	}
}

// Filter adapts a profile into a template function.
func Filter(p Profile) func(any) (string, error) {
	return func(v any) (string, error) {
		t, err := ToTime(v)
		if err != nil {
			return "", fmt.Errorf("%s: %w", p.Name, err)
		}
		return Format(t, p)
	}
}
