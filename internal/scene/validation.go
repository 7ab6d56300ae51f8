package scene

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/device"
)

// MaxNameLength is the longest scene name accepted, in characters.
const MaxNameLength = 50

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

// ValidateScene checks a scene read from storage or an import bundle.
func ValidateScene(s *Scene) error {
	if s == nil {
		return fmt.Errorf("%w: nil scene", ErrInvalidScene)
	}
	if err := ValidateName(s.Name); err != nil {
		return err
	}
	if len(s.Members) == 0 {
		return fmt.Errorf("%w: %q has no members", ErrEmptyScene, s.Name)
	}
	for i, m := range s.Members {
		if m.DeviceID <= 0 {
			return fmt.Errorf("%w: member %d has device id %d", ErrInvalidScene, i, m.DeviceID)
		}
		if m.Level < device.MinLevel || m.Level > device.MaxLevel {
			return fmt.Errorf("%w: member %d level %d out of range", ErrInvalidScene, i, m.Level)
		}
	}
	return nil
}
