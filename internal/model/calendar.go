package model

type EventCategory string

const (
	EventExam     EventCategory = "exam"
	EventHoliday  EventCategory = "holiday"
	EventGeneral  EventCategory = "event"
	EventDeadline EventCategory = "deadline"
)

// CalendarEvent is a custom one-off entry on the academic calendar.
type CalendarEvent struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Date        string        `json:"date"` // "2006-01-02"
	Category    EventCategory `json:"category"`
	Description string        `json:"description"`
}
