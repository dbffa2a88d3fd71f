package availability

import (
	"sort"
	"time"
)

// DefaultSlotInterval is the cadence between candidate slot starts when a
// request does not override it.
const DefaultSlotInterval = 15

// SlotRequest are the inputs to slot generation for one provider and service.
type SlotRequest struct {
	ProviderID      string
	ServiceID       string
	DurationMinutes int
	IntervalMinutes int
	From            time.Time // first calendar day considered (UTC)
	To              time.Time // last calendar day considered, inclusive (UTC)
}

// GenerateSlots walks the days in [From, To], applies exception overrides, and
// emits every candidate start that fits its working range, misses all breaks
// and lies strictly in the future relative to now. Slots come back in
// chronological order. The function is pure: same inputs, same output.
func GenerateSlots(weekly []WeeklyRule, exceptions []ExceptionRule, req SlotRequest, now time.Time) []Slot {
	if req.DurationMinutes <= 0 {
		return nil
	}
	interval := req.IntervalMinutes
	if interval <= 0 {
		interval = DefaultSlotInterval
	}
	now = now.UTC()

	byDay := make(map[string]WeeklyRule, len(weekly))
	for _, rule := range weekly {
		byDay[rule.DayOfWeek] = rule
	}
	byDate := make(map[string]ExceptionRule, len(exceptions))
	for _, exc := range exceptions {
		byDate[exc.Date] = exc
	}

	var slots []Slot
	from := truncateToDay(req.From)
	to := truncateToDay(req.To)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		ranges, breaks := scheduleFor(day, byDay, byDate)
		slots = append(slots, slotsForDay(day, ranges, breaks, req, interval, now)...)
	}
	return slots
}

// scheduleFor picks the ranges in effect on a date. A date with an exception
// uses the exception ranges alone; breaks belong to the weekly schedule and do
// not apply under an override.
func scheduleFor(day time.Time, byDay map[string]WeeklyRule, byDate map[string]ExceptionRule) ([]TimeRange, []TimeRange) {
	if exc, ok := byDate[day.Format("2006-01-02")]; ok {
		return exc.Ranges, nil
	}
	rule, ok := byDay[weekdayToDay[day.Weekday()]]
	if !ok {
		return nil, nil
	}
	return rule.Ranges, rule.Breaks
}

func slotsForDay(day time.Time, ranges, breaks []TimeRange, req SlotRequest, interval int, now time.Time) []Slot {
	type span struct{ start, end int }

	spans := make([]span, 0, len(ranges))
	for _, r := range ranges {
		startMin, err := ParseClock(r.Start)
		if err != nil {
			continue
		}
		endMin, err := ParseClock(r.End)
		if err != nil {
			continue
		}
		if endMin <= startMin {
			// Inverted or empty range: nothing bookable, not an error.
			continue
		}
		spans = append(spans, span{startMin, endMin})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	cleanBreaks := make([]TimeRange, 0, len(breaks))
	for _, b := range breaks {
		if b.Validate() == nil {
			cleanBreaks = append(cleanBreaks, b)
		}
	}

	var slots []Slot
	for _, sp := range spans {
		for cursor := sp.start; cursor+req.DurationMinutes <= sp.end; cursor += interval {
			candidate := TimeRange{Start: FormatClock(cursor), End: FormatClock(cursor + req.DurationMinutes)}

			blocked := false
			for _, br := range cleanBreaks {
				if candidate.Overlaps(br) {
					blocked = true
					break
				}
			}
			if blocked {
				continue
			}

			start := day.Add(time.Duration(cursor) * time.Minute)
			if !start.After(now) {
				continue
			}
			slots = append(slots, Slot{
				ProviderID: req.ProviderID,
				ServiceID:  req.ServiceID,
				Start:      start,
				End:        day.Add(time.Duration(cursor+req.DurationMinutes) * time.Minute),
			})
		}
	}
	return slots
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
