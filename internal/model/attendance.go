package model

import "time"

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
)

// AttendanceRecord marks one student in one class on one date. Re-marking the
// same slot, student and date updates the record in place.
type AttendanceRecord struct {
	ID          string           `json:"id"`
	SubjectID   string           `json:"subjectId"`
	TimeSlotID  string           `json:"timeSlotId"`
	StudentID   string           `json:"studentId"`
	StudentName string           `json:"studentName"`
	Date        string           `json:"date"` // "2006-01-02"
	Status      AttendanceStatus `json:"status"`
	MarkedAt    time.Time        `json:"markedAt"`
}

// AttendanceStats summarizes one subject's records. Late counts as attended.
type AttendanceStats struct {
	Present int     `json:"present"`
	Late    int     `json:"late"`
	Absent  int     `json:"absent"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}
