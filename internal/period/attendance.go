package period

import "time"

// AttendanceFilter selects the day listed by the admin attendance view.
type AttendanceFilter string

const (
	Today     AttendanceFilter = "today"
	Yesterday AttendanceFilter = "yesterday"
	OnDate    AttendanceFilter = "custom"
)

// AttendanceWindow returns the day window for filter. custom is only read for
// OnDate and must then be set. Unknown filters fall back to Today.
func AttendanceWindow(filter AttendanceFilter, now, custom time.Time) (Range, error) {
	switch filter {
	case Yesterday:
		return DayOf(StartOfDay(now).AddDate(0, 0, -1)), nil
	case OnDate:
		return Window(Custom, custom)
	default:
		return DayOf(now), nil
	}
}
