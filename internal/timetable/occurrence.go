// Package timetable computes calendar-date occurrences of weekly time slots
// and renders the schedule as a calendar-interchange document.
package timetable

import (
	"fmt"
	"time"

	"class-planner/internal/model"
)

// NextOccurrence returns the next concrete calendar-date instance of a weekly
// slot, strictly after now. A slot on today's weekday whose start time has
// already passed rolls to next week.
func NextOccurrence(slot model.TimeSlot, now time.Time) (time.Time, error) {
	dayIdx, ok := model.WeekdayIndex(slot.Day)
	if !ok {
		return time.Time{}, fmt.Errorf("unknown weekday %q", slot.Day)
	}
	hour, minute, err := model.ParseClock(slot.StartTime)
	if err != nil {
		return time.Time{}, err
	}

	daysUntil := (dayIdx - int(now.Weekday()) + 7) % 7
	occ := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location()).
		AddDate(0, 0, daysUntil)
	if daysUntil == 0 && !occ.After(now) {
		occ = occ.AddDate(0, 0, 7)
	}
	return occ, nil
}

// SlotEnd returns the end of the occurrence that starts at occStart.
func SlotEnd(slot model.TimeSlot, occStart time.Time) (time.Time, error) {
	hour, minute, err := model.ParseClock(slot.EndTime)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(occStart.Year(), occStart.Month(), occStart.Day(),
		hour, minute, 0, 0, occStart.Location()), nil
}
