package milk

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mamadbah2/farmhand/internal/domain/models"
	"github.com/mamadbah2/farmhand/internal/period"
)

// Measurement is one milk-session reading as seen by the aggregator.
type Measurement struct {
	AnimalTag string
	Quantity  float64
	Date      time.Time
	Period    models.MilkPeriod
}

// TrendBucket is one labeled slot of the trend series.
type TrendBucket struct {
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

// AnimalFocus reports the figures of the single animal selected by a tag filter.
type AnimalFocus struct {
	AnimalTag  string  `json:"animalTag"`
	ActiveDays int     `json:"activeDays"`
	Total      float64 `json:"total"`
}

// Aggregate is the window-level math of a milk summary. It never depends on
// pagination: callers pass the full filtered sets.
type Aggregate struct {
	TotalQuantity              float64       `json:"totalMilk"`
	PreviousTotalQuantity      float64       `json:"previousTotalMilk"`
	DistinctAnimals            int           `json:"distinctAnimals"`
	AveragePerAnimal           float64       `json:"averagePerAnimal"`
	AverageActiveDaysPerAnimal float64       `json:"averageActiveDaysPerAnimal"`
	Trend                      []TrendBucket `json:"trend"`
	Focus                      *AnimalFocus  `json:"focus,omitempty"`
}

var weekdayLabels = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Summarize computes the aggregate of current and previous measurements for a
// window of the given kind. filterTag is the tag filter that produced the
// sets; Focus is filled when it selects one animal, see focusTag.
func Summarize(kind period.Kind, current, previous []Measurement, filterTag string) Aggregate {
	agg := Aggregate{
		TotalQuantity:         sum(current),
		PreviousTotalQuantity: sum(previous),
		Trend:                 trend(kind, current),
	}

	days := activeDays(current)
	totals := make(map[string]float64, len(days))
	for _, m := range current {
		totals[m.AnimalTag] += m.Quantity
	}

	agg.DistinctAnimals = len(days)
	if agg.DistinctAnimals == 0 {
		return agg
	}

	agg.AveragePerAnimal = agg.TotalQuantity / float64(agg.DistinctAnimals)

	var dayCount int
	for _, set := range days {
		dayCount += len(set)
	}
	agg.AverageActiveDaysPerAnimal = float64(dayCount) / float64(agg.DistinctAnimals)

	if tag, ok := focusTag(days, filterTag); ok {
		agg.Focus = &AnimalFocus{AnimalTag: tag, ActiveDays: len(days[tag]), Total: totals[tag]}
	}

	return agg
}

// focusTag picks the animal a filter points at: the only matching animal, or
// the one whose tag equals the filter when several matched.
func focusTag(days map[string]map[string]struct{}, filterTag string) (string, bool) {
	filterTag = strings.TrimSpace(filterTag)
	if filterTag == "" {
		return "", false
	}
	if len(days) == 1 {
		for tag := range days {
			return tag, true
		}
	}
	for tag := range days {
		if strings.EqualFold(tag, filterTag) {
			return tag, true
		}
	}
	return "", false
}

// MatchesTag reports whether tag contains filter, ignoring case. An empty
// filter matches everything.
func MatchesTag(tag, filter string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(tag), strings.ToLower(filter))
}

func sum(ms []Measurement) float64 {
	var total float64
	for _, m := range ms {
		total += m.Quantity
	}
	return total
}

func activeDays(ms []Measurement) map[string]map[string]struct{} {
	days := make(map[string]map[string]struct{})
	for _, m := range ms {
		set, ok := days[m.AnimalTag]
		if !ok {
			set = make(map[string]struct{})
			days[m.AnimalTag] = set
		}
		set[m.Date.Format(period.DateLayout)] = struct{}{}
	}
	return days
}

type slot struct {
	order int
	label string
}

func bucketOf(kind period.Kind, t time.Time) slot {
	switch kind {
	case period.Week:
		return slot{order: int(t.Weekday()), label: weekdayLabels[t.Weekday()]}
	case period.Month:
		week := int(math.Ceil(float64(t.Day()) / 7))
		if week > 4 {
			week = 4
		}
		return slot{order: week, label: "Week " + strconv.Itoa(week)}
	case period.Year:
		return slot{order: int(t.Month()), label: t.Month().String()[:3]}
	default:
		return slot{order: 0, label: "Today"}
	}
}

func trend(kind period.Kind, ms []Measurement) []TrendBucket {
	if len(ms) == 0 {
		return []TrendBucket{}
	}

	totals := make(map[slot]float64)
	for _, m := range ms {
		totals[bucketOf(kind, m.Date)] += m.Quantity
	}

	slots := make([]slot, 0, len(totals))
	for s := range totals {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].order < slots[j].order })

	buckets := make([]TrendBucket, 0, len(slots))
	for _, s := range slots {
		buckets = append(buckets, TrendBucket{Label: s.label, Total: roundTenth(totals[s])})
	}
	return buckets
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
