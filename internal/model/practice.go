package model

import "time"

// Question is a single multiple-choice item; Answer indexes into Options.
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Answer  int      `json:"answer"`
}

// PracticeTest is a self-assessment quiz for one subject.
type PracticeTest struct {
	ID        string     `json:"id"`
	SubjectID string     `json:"subjectId"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"createdAt"`
}

// TestResult records one graded submission of a practice test.
type TestResult struct {
	ID        string    `json:"id"`
	TestID    string    `json:"testId"`
	StudentID string    `json:"studentId"`
	Score     int       `json:"score"`
	Total     int       `json:"total"`
	Percent   float64   `json:"percent"`
	TakenAt   time.Time `json:"takenAt"`
}
