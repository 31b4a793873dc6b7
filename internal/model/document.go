package model

import "time"

// DocumentMeta describes an uploaded study document. Only metadata is kept;
// the file itself lives wherever the caller stored it.
type DocumentMeta struct {
	ID          string    `json:"id"`
	SubjectID   string    `json:"subjectId"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	UploadedAt  time.Time `json:"uploadedAt"`
}
