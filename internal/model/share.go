package model

import "time"

// SharedSchedule is a read-only snapshot of subjects and time slots published
// for other devices to view. Entries expire and are filtered out on read.
type SharedSchedule struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Subjects  []Subject  `json:"subjects"`
	TimeSlots []TimeSlot `json:"timeSlots"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt time.Time  `json:"expiresAt"`
	Views     int        `json:"views"`
}

// Expired reports whether the share is past its expiry at the given instant.
func (s *SharedSchedule) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
