package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Weekdays are the day names accepted by TimeSlot.Day, indexed like time.Weekday.
var Weekdays = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// WeekdayIndex maps a day name to its time.Weekday index.
func WeekdayIndex(day string) (int, bool) {
	for i, name := range Weekdays {
		if name == day {
			return i, true
		}
	}
	return 0, false
}

// ParseClock parses a "HH:MM" local-time string into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

// Subject is a course taught by one instructor in one room.
type Subject struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	Instructor string `json:"instructor"`
	Room       string `json:"room"`
}

// TimeSlot is a weekly-recurring class occurrence. No calendar-date instance
// is stored; occurrences are computed on demand.
type TimeSlot struct {
	ID        string `json:"id"`
	SubjectID string `json:"subjectId"`
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type AssignmentType string

const (
	AssignmentTypeAssignment AssignmentType = "assignment"
	AssignmentTypeHomework   AssignmentType = "homework"
	AssignmentTypeExam       AssignmentType = "exam"
)

// Assignment is a dated piece of work tied to a subject.
type Assignment struct {
	ID          string         `json:"id"`
	SubjectID   string         `json:"subjectId"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	DueDate     string         `json:"dueDate"` // "2006-01-02"
	Type        AssignmentType `json:"type"`
	Completed   bool           `json:"completed"`
}

// ScheduleDocument is the whole per-profile schedule, persisted wholesale on
// every mutation of a child entity.
type ScheduleDocument struct {
	Subjects    []Subject    `json:"subjects"`
	TimeSlots   []TimeSlot   `json:"timeSlots"`
	Assignments []Assignment `json:"assignments"`
}

// Subject looks a subject up by id.
func (d *ScheduleDocument) Subject(id string) (Subject, bool) {
	for _, s := range d.Subjects {
		if s.ID == id {
			return s, true
		}
	}
	return Subject{}, false
}

// SubjectName resolves a subject id for display, falling back to a
// placeholder when the reference is dangling.
func (d *ScheduleDocument) SubjectName(id string) string {
	if s, ok := d.Subject(id); ok {
		return s.Name
	}
	return "Unknown Subject"
}

// Empty reports whether the document holds no data at all.
func (d *ScheduleDocument) Empty() bool {
	return len(d.Subjects) == 0 && len(d.TimeSlots) == 0 && len(d.Assignments) == 0
}

// Normalize replaces nil collections with empty ones so the document always
// serializes with all three arrays present.
func (d *ScheduleDocument) Normalize() {
	if d.Subjects == nil {
		d.Subjects = []Subject{}
	}
	if d.TimeSlots == nil {
		d.TimeSlots = []TimeSlot{}
	}
	if d.Assignments == nil {
		d.Assignments = []Assignment{}
	}
}
