// Package availability computes bookable time slots from provider schedules.
//
// Providers have a weekly working schedule (ranges plus breaks per day of
// week) and date-specific exceptions. An exception fully replaces the weekly
// schedule for its date: an empty exception is a day off, a non-empty one is
// the only schedule considered. Exceptions and weekly rules are never merged.
package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/turnoflow/booking-platform/internal/domain"
)

// Day names, stored as the uppercase three-letter form.
const (
	Monday    = "MON"
	Tuesday   = "TUE"
	Wednesday = "WED"
	Thursday  = "THU"
	Friday    = "FRI"
	Saturday  = "SAT"
	Sunday    = "SUN"
)

var dayNames = map[string]bool{
	Monday: true, Tuesday: true, Wednesday: true, Thursday: true,
	Friday: true, Saturday: true, Sunday: true,
}

var weekdayToDay = map[time.Weekday]string{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// TimeRange is a wall-clock interval in "HH:MM" form, half-open [Start, End).
type TimeRange struct {
	Start string `json:"start" dynamodbav:"start"`
	End   string `json:"end" dynamodbav:"end"`
}

// Validate checks both endpoints parse as HH:MM. An inverted or empty range is
// valid input; it simply produces no slots.
func (r TimeRange) Validate() error {
	if _, err := ParseClock(r.Start); err != nil {
		return err
	}
	if _, err := ParseClock(r.End); err != nil {
		return err
	}
	return nil
}

// Overlaps reports whether two half-open ranges share any minute.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return !(r.End <= other.Start || r.Start >= other.End)
}

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, domain.NewValidation("time", fmt.Sprintf("invalid time %q, want HH:MM", clock))
	}
	h, errH := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, domain.NewValidation("time", fmt.Sprintf("invalid time %q, want HH:MM", clock))
	}
	return h*60 + m, nil
}

// FormatClock converts minutes since midnight back to "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// WeeklyRule is the recurring schedule of one provider for one day of week.
type WeeklyRule struct {
	TenantID   string      `json:"tenant_id" dynamodbav:"tenantId"`
	ProviderID string      `json:"provider_id" dynamodbav:"providerId"`
	DayOfWeek  string      `json:"day_of_week" dynamodbav:"dayOfWeek"`
	Ranges     []TimeRange `json:"time_ranges" dynamodbav:"timeRanges"`
	Breaks     []TimeRange `json:"breaks,omitempty" dynamodbav:"breaks,omitempty"`
}

// Validate checks the day name and every range endpoint.
func (r WeeklyRule) Validate() error {
	if !dayNames[r.DayOfWeek] {
		return domain.NewValidation("day_of_week", fmt.Sprintf("unknown day %q", r.DayOfWeek))
	}
	for _, tr := range r.Ranges {
		if err := tr.Validate(); err != nil {
			return err
		}
		if tr.End <= tr.Start {
			return domain.NewValidation("time_ranges", fmt.Sprintf("range %s-%s must end after it starts", tr.Start, tr.End))
		}
	}
	for _, tr := range r.Breaks {
		if err := tr.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ExceptionRule overrides the weekly schedule for a single calendar date.
// Empty Ranges means the provider does not work that date.
type ExceptionRule struct {
	Date   string      `json:"date" dynamodbav:"date"`
	Ranges []TimeRange `json:"time_ranges" dynamodbav:"timeRanges"`
}

// Validate checks the date form and every range endpoint.
func (e ExceptionRule) Validate() error {
	if _, err := time.Parse("2006-01-02", e.Date); err != nil {
		return domain.NewValidation("date", fmt.Sprintf("invalid date %q, want YYYY-MM-DD", e.Date))
	}
	for _, tr := range e.Ranges {
		if err := tr.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Slot is one bookable interval for a provider and service, in UTC.
type Slot struct {
	ProviderID string    `json:"provider_id"`
	ServiceID  string    `json:"service_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}
