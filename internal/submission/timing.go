package submission

import (
	"errors"
	"fmt"
	"time"

	"github.com/classtools/asgn/internal/apperr"
)

var errInvalidEpoch = errors.New("invalid epoch timestamp")

// Status is the derived state of one submission: when it was turned in
// (nil when incomplete) and the day budgets that shift its deadline.
type Status struct {
	TurnInTime    *time.Time
	GraceDays     int64
	ExtensionDays int64
}

// TimePast returns how far past the given time the submission landed,
// or nil when nothing was submitted.
func (s *Status) TimePast(deadline time.Time) *time.Duration {
	if s.TurnInTime == nil {
		return nil
	}
	delta := s.TurnInTime.Sub(deadline)
	return &delta
}

// Versus renders the lateness verdict against a due date. Without a
// due date only presence is reported. The rendered components are
// magnitudes; the Late/Early word carries the sign.
func (s *Status) Versus(dueDate *time.Time) string {
	if dueDate == nil {
		if s.TurnInTime == nil {
			return "Not Submitted"
		}
		return "Submitted"
	}

	lateBy := s.TimePast(*dueDate)
	if lateBy == nil {
		if time.Now().After(*dueDate) {
			return "Missing"
		}
		return "Not Submitted"
	}

	days, hours, mins := splitDuration(*lateBy)
	if *lateBy > 0 {
		return fmt.Sprintf("Late %dd %dh %dm", days, hours, mins)
	}
	return fmt.Sprintf("Early %dd %dh %dm", -days, -hours, -mins)
}

// splitDuration decomposes a duration into whole days, leftover hours,
// and leftover minutes, each truncated toward zero so the components
// share the duration's sign.
func splitDuration(d time.Duration) (days, hours, mins int64) {
	totalMins := int64(d / time.Minute)
	totalHours := totalMins / 60
	days = totalHours / 24
	hours = totalHours - days*24
	mins = totalMins - totalHours*60
	return days, hours, mins
}

// OffsetDate shifts a due date later by whole calendar days in the
// local zone, so the deadline follows wall-clock days across DST
// rather than fixed 24h multiples. Results beyond representable date
// bounds are an error, never clamped.
func OffsetDate(dueDate time.Time, days int64) (time.Time, error) {
	shifted := dueDate.AddDate(0, 0, int(days))
	if shifted.Year() > 9999 || shifted.Year() < 0 {
		return time.Time{}, apperr.DateOutOfRange(shifted)
	}
	return shifted, nil
}

// EffectiveDue is the spec's due date pushed back by the slot's
// extension and grace days.
func (s *Status) EffectiveDue(dueDate *time.Time) (*time.Time, error) {
	if dueDate == nil {
		return nil, nil
	}
	shifted, err := OffsetDate(*dueDate, s.ExtensionDays+s.GraceDays)
	if err != nil {
		return nil, err
	}
	return &shifted, nil
}
