package timetable

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	applog "class-planner/internal/log"
	"class-planner/internal/model"
)

var rruleWeekdays = []rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// BuildICS renders every time slot as a weekly-recurring VEVENT anchored at
// its next occurrence relative to now. Slots with a dangling subject or an
// unparsable day/time are skipped, not fatal.
func BuildICS(doc *model.ScheduleDocument, now time.Time) (string, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//Class Planner//EN")

	for _, slot := range doc.TimeSlots {
		subject, ok := doc.Subject(slot.SubjectID)
		if !ok {
			applog.Info("export: skipping slot with unknown subject", "slot", slot.ID)
			continue
		}

		start, err := NextOccurrence(slot, now)
		if err != nil {
			applog.Error("export: skipping slot", err, "slot", slot.ID)
			continue
		}
		end, err := SlotEnd(slot, start)
		if err != nil {
			applog.Error("export: skipping slot", err, "slot", slot.ID)
			continue
		}

		dayIdx, _ := model.WeekdayIndex(slot.Day)
		opt := rrule.ROption{
			Freq:      rrule.WEEKLY,
			Byweekday: []rrule.Weekday{rruleWeekdays[dayIdx]},
		}

		event := cal.AddEvent(fmt.Sprintf("%s@classplanner", slot.ID))
		event.SetDtStampTime(now)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(subject.Name)
		event.SetLocation(subject.Room)
		event.SetDescription(fmt.Sprintf("Instructor: %s", subject.Instructor))
		event.AddRrule(opt.RRuleString())
	}

	return cal.Serialize(), nil
}
