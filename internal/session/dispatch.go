package session

import (
	"context"
	"fmt"

	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/schedule"
)

// Dispatch carries out a schedule action. It implements
// schedule.Dispatcher.
func (s *Session) Dispatch(ctx context.Context, name string, action schedule.Action) error {
	switch action.Kind {
	case schedule.ActionLoadScene:
		if _, err := s.LoadScene(ctx, action.Scene, "schedule"); err != nil {
			return fmt.Errorf("schedule %q: %w", name, err)
		}
	case schedule.ActionAllOn:
		n := s.Control.AllOn(ctx)
		s.logger.Debug("all on", "schedule", name, "applied", n)
	case schedule.ActionAllOff:
		n := s.Control.AllOff(ctx)
		s.logger.Debug("all off", "schedule", name, "applied", n)
	default:
		return fmt.Errorf("%w: unknown action %q", schedule.ErrInvalidEvent, action.Kind)
	}

	if s.metrics != nil {
		s.metrics.WriteScheduleFired(name, action.String())
	}
	s.publish(s.topics.ScheduleFired(name), newScheduleEvent(name, action), false)
	return nil
}
