package timetable

import (
	"strings"
	"testing"
	"time"

	"class-planner/internal/model"
)

func TestBuildICS(t *testing.T) {
	doc := &model.ScheduleDocument{
		Subjects: []model.Subject{
			{ID: "math", Name: "Math", Room: "101", Instructor: "Dr. Lee"},
		},
		TimeSlots: []model.TimeSlot{
			{ID: "slot-1", SubjectID: "math", Day: "Monday", StartTime: "09:00", EndTime: "10:00"},
			{ID: "slot-2", SubjectID: "ghost", Day: "Tuesday", StartTime: "11:00", EndTime: "12:00"},
			{ID: "slot-3", SubjectID: "math", Day: "Funday", StartTime: "11:00", EndTime: "12:00"},
		},
	}
	now := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)

	out, err := BuildICS(doc, now)
	if err != nil {
		t.Fatalf("BuildICS() error = %v", err)
	}

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"END:VCALENDAR",
		"METHOD:PUBLISH",
		"UID:slot-1@classplanner",
		"SUMMARY:Math",
		"LOCATION:101",
		"RRULE:FREQ=WEEKLY;BYDAY=MO",
		"Instructor: Dr. Lee",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}

	// Dangling and unparsable slots are skipped without failing the export.
	if got := strings.Count(out, "BEGIN:VEVENT"); got != 1 {
		t.Errorf("VEVENT count = %d, want 1", got)
	}
}

func TestBuildICSEmpty(t *testing.T) {
	out, err := BuildICS(&model.ScheduleDocument{}, time.Now())
	if err != nil {
		t.Fatalf("BuildICS() error = %v", err)
	}
	if !strings.Contains(out, "BEGIN:VCALENDAR") {
		t.Error("output is not a calendar")
	}
	if strings.Contains(out, "BEGIN:VEVENT") {
		t.Error("empty schedule produced events")
	}
}
