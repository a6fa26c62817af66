package directory

import (
	"strings"

	"github.com/wolfman30/healthcare-client/internal/models"
)

// WeekDays are the short day names of the schedule strip, Monday first.
var WeekDays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// DaySlot is one cell of a doctor card's schedule strip.
type DaySlot struct {
	Day       string
	Available bool
}

// WeekSchedule marks each weekday on which doctor has availability. Days are
// matched on their first three letters, so "Monday" and "mon" both mark Mon.
func WeekSchedule(doctor models.Doctor) []DaySlot {
	available := make(map[string]bool)
	for _, day := range doctor.AvailableDays() {
		d := strings.ToLower(strings.TrimSpace(day))
		if len(d) >= 3 {
			available[d[:3]] = true
		}
	}
	out := make([]DaySlot, 0, len(WeekDays))
	for _, day := range WeekDays {
		out = append(out, DaySlot{Day: day, Available: available[strings.ToLower(day)]})
	}
	return out
}
