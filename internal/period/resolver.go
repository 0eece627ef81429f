package period

import (
	"time"

	"github.com/mamadbah2/farmhand/internal/domain/apperr"
	"github.com/mamadbah2/farmhand/internal/domain/models"
)

// Resolve returns the [StartDate, EndDate] of an AI summary anchored at now.
// Both bounds are midnights in now's location: daily is today..today, weekly
// runs from the Sunday starting the current week, monthly is month-to-date.
// EndDate is today rather than the end of the period so a summary generated
// mid-period keys on what it actually covered.
func Resolve(summaryType models.SummaryType, now time.Time) (Range, error) {
	today := StartOfDay(now)

	switch summaryType {
	case models.SummaryDaily:
		return Range{Start: today, End: today}, nil
	case models.SummaryWeekly:
		week, _ := Window(Week, now)
		return Range{Start: week.Start, End: today}, nil
	case models.SummaryMonthly:
		month, _ := Window(Month, now)
		return Range{Start: month.Start, End: today}, nil
	default:
		return Range{}, apperr.Validation("invalid summary type %q", summaryType)
	}
}

// Covering widens a summary period so its last day is fully included when
// matching records stamped at any time of day.
func Covering(r Range) Range {
	return Range{Start: r.Start, End: EndOfDay(r.End)}
}
