package schedule

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNormalizeEvents(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		wantErr error
	}{
		{"all off", Event{Time: "07:00", Days: []string{"mon"}, Action: Action{Kind: ActionAllOff}}, nil},
		{"load scene", Event{Time: "19:30", Days: []string{"fri", "sat"}, Action: Action{Kind: ActionLoadScene, Scene: "Evening"}}, nil},
		{"single digit hour", Event{Time: "7:00", Days: []string{"mon"}, Action: Action{Kind: ActionAllOn}}, ErrInvalidEvent},
		{"hour out of range", Event{Time: "24:00", Days: []string{"mon"}, Action: Action{Kind: ActionAllOn}}, ErrInvalidEvent},
		{"unknown day", Event{Time: "07:00", Days: []string{"funday"}, Action: Action{Kind: ActionAllOn}}, ErrInvalidEvent},
		{"no days", Event{Time: "07:00", Action: Action{Kind: ActionAllOn}}, ErrInvalidEvent},
		{"unknown action", Event{Time: "07:00", Days: []string{"mon"}, Action: Action{Kind: "dance"}}, ErrInvalidEvent},
		{"scene missing name", Event{Time: "07:00", Days: []string{"mon"}, Action: Action{Kind: ActionLoadScene}}, ErrInvalidEvent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeEvents([]Event{tt.event})
			if tt.wantErr == nil && err != nil {
				t.Fatalf("NormalizeEvents() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("NormalizeEvents() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeEvents_LowerCasesAndDedupesDays(t *testing.T) {
	got, err := NormalizeEvents([]Event{{
		Time:   "07:00",
		Days:   []string{"Mon", "TUE", "mon"},
		Action: Action{Kind: ActionAllOff, Scene: "ignored"},
	}})
	if err != nil {
		t.Fatalf("NormalizeEvents() error = %v", err)
	}
	if strings.Join(got[0].Days, ",") != "mon,tue" {
		t.Errorf("Days = %v, want [mon tue]", got[0].Days)
	}
	if got[0].Action.Scene != "" {
		t.Error("scene should be cleared for non-scene actions")
	}
}

func TestNormalizeEvents_Empty(t *testing.T) {
	if _, err := NormalizeEvents(nil); !errors.Is(err, ErrNoEvents) {
		t.Errorf("NormalizeEvents(nil) error = %v, want ErrNoEvents", err)
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName("Weekday mornings"); err != nil {
		t.Errorf("ValidateName() error = %v", err)
	}
	for _, name := range []string{"", " ", strings.Repeat("a", MaxNameLength+1)} {
		if err := ValidateName(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("ValidateName(%q) error = %v", name, err)
		}
	}
}

func TestEvent_Matches(t *testing.T) {
	ev := Event{Time: "07:00", Days: []string{"mon", "wed"}}

	if !ev.Matches("07:00", "mon") || !ev.Matches("07:00", "WED") {
		t.Error("expected match")
	}
	if ev.Matches("07:01", "mon") || ev.Matches("07:00", "tue") {
		t.Error("unexpected match")
	}
}

func TestDayTag(t *testing.T) {
	if DayTag(time.Sunday) != "sun" || DayTag(time.Saturday) != "sat" {
		t.Error("DayTag() mismatch")
	}
	if len(DayTags()) != 7 {
		t.Error("DayTags() should list seven days")
	}
}
