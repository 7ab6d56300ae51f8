package schedule

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxNameLength is the longest schedule name accepted, in characters.
const MaxNameLength = 50

const clockLayout = "15:04"

// ValidateName checks that name is non-blank and at most MaxNameLength
// characters.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if n := utf8.RuneCountInString(name); n > MaxNameLength {
		return fmt.Errorf("%w: %d characters exceeds %d", ErrInvalidName, n, MaxNameLength)
	}
	return nil
}

// NormalizeEvents validates events and returns a copy with day tags
// lower-cased and de-duplicated. Scene names are not checked against the
// scene store; a missing scene is reported when the event fires.
func NormalizeEvents(events []Event) ([]Event, error) {
	if len(events) == 0 {
		return nil, ErrNoEvents
	}

	out := make([]Event, len(events))
	for i, ev := range events {
		norm, err := normalizeEvent(ev)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		out[i] = norm
	}
	return out, nil
}

func normalizeEvent(ev Event) (Event, error) {
	if !validClock(ev.Time) {
		return Event{}, fmt.Errorf("%w: time %q is not HH:MM", ErrInvalidEvent, ev.Time)
	}

	if len(ev.Days) == 0 {
		return Event{}, fmt.Errorf("%w: no days", ErrInvalidEvent)
	}
	seen := make(map[string]bool, len(ev.Days))
	days := make([]string, 0, len(ev.Days))
	for _, d := range ev.Days {
		tag := strings.ToLower(strings.TrimSpace(d))
		if !knownDay(tag) {
			return Event{}, fmt.Errorf("%w: unknown day %q", ErrInvalidEvent, d)
		}
		if !seen[tag] {
			seen[tag] = true
			days = append(days, tag)
		}
	}

	switch ev.Action.Kind {
	case ActionAllOn, ActionAllOff:
		ev.Action.Scene = ""
	case ActionLoadScene:
		if strings.TrimSpace(ev.Action.Scene) == "" {
			return Event{}, fmt.Errorf("%w: load_scene requires a scene name", ErrInvalidEvent)
		}
	default:
		return Event{}, fmt.Errorf("%w: unknown action %q", ErrInvalidEvent, ev.Action.Kind)
	}

	return Event{Time: ev.Time, Days: days, Action: ev.Action}, nil
}

// validClock accepts exactly two-digit hours and minutes.
func validClock(s string) bool {
	if len(s) != len(clockLayout) {
		return false
	}
	_, err := time.Parse(clockLayout, s)
	return err == nil
}

func knownDay(tag string) bool {
	for _, d := range dayTags {
		if d == tag {
			return true
		}
	}
	return false
}

// ValidateSchedule checks a schedule read from storage or an import bundle
// and normalises its events in place.
func ValidateSchedule(s *Schedule) error {
	if s == nil {
		return fmt.Errorf("%w: nil schedule", ErrInvalidName)
	}
	if err := ValidateName(s.Name); err != nil {
		return err
	}
	events, err := NormalizeEvents(s.Events)
	if err != nil {
		return fmt.Errorf("schedule %q: %w", s.Name, err)
	}
	s.Events = events
	return nil
}
