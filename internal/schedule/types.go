package schedule

import (
	"strings"
	"time"
)

// ActionKind identifies what an event does when it fires.
type ActionKind string

// Action kinds.
const (
	ActionLoadScene ActionKind = "load_scene"
	ActionAllOn     ActionKind = "all_on"
	ActionAllOff    ActionKind = "all_off"
)

// Action is the effect of a firing event. Scene is set only for
// ActionLoadScene.
type Action struct {
	Kind  ActionKind `json:"kind" yaml:"kind"`
	Scene string     `json:"scene,omitempty" yaml:"scene,omitempty"`
}

// String renders the action for logs and metrics.
func (a Action) String() string {
	if a.Kind == ActionLoadScene {
		return string(a.Kind) + ":" + a.Scene
	}
	return string(a.Kind)
}

// Event fires its Action when the local wall clock reads Time ("HH:MM") on
// one of Days.
type Event struct {
	Time   string   `json:"time" yaml:"time"`
	Days   []string `json:"days" yaml:"days"`
	Action Action   `json:"action" yaml:"action"`
}

// Matches reports whether the event fires at clock ("HH:MM") on day.
func (e Event) Matches(clock, day string) bool {
	if e.Time != clock {
		return false
	}
	for _, d := range e.Days {
		if strings.EqualFold(d, day) {
			return true
		}
	}
	return false
}

// Schedule is a named, ordered list of events.
type Schedule struct {
	Name    string  `json:"name" yaml:"name"`
	Enabled bool    `json:"enabled" yaml:"enabled"`
	Events  []Event `json:"events" yaml:"events"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// DeepCopy returns a copy that shares no memory with s.
func (s *Schedule) DeepCopy() *Schedule {
	if s == nil {
		return nil
	}
	cpy := *s
	if s.Events != nil {
		cpy.Events = make([]Event, len(s.Events))
		for i, ev := range s.Events {
			cpy.Events[i] = ev
			cpy.Events[i].Days = append([]string(nil), ev.Days...)
		}
	}
	return &cpy
}

var dayTags = [...]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// DayTag returns the lower-case three-letter tag for wd.
func DayTag(wd time.Weekday) string {
	return dayTags[wd]
}

// DayTags returns every weekday tag, Sunday first.
func DayTags() []string {
	return append([]string(nil), dayTags[:]...)
}
