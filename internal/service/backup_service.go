package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"class-planner/internal/model"
)

const backupVersion = "2.0"

var (
	ErrNoData        = errors.New("no data to back up")
	ErrInvalidBackup = errors.New("invalid backup data format")
)

// Backup is the export file format: the three core arrays plus provenance.
type Backup struct {
	Subjects    []model.Subject    `json:"subjects"`
	TimeSlots   []model.TimeSlot   `json:"timeSlots"`
	Assignments []model.Assignment `json:"assignments"`
	BackupDate  string             `json:"backupDate"`
	Version     string             `json:"version"`
}

// BackupService exports the schedule document to JSON and restores it from a
// previously exported file.
type BackupService struct {
	schedule *ScheduleService
	clock    func() time.Time
}

func NewBackupService(schedule *ScheduleService, clock func() time.Time) *BackupService {
	if clock == nil {
		clock = time.Now
	}
	return &BackupService{schedule: schedule, clock: clock}
}

// Export serializes the current document; exporting an empty store is an error.
func (s *BackupService) Export(ctx context.Context) ([]byte, error) {
	doc, err := s.schedule.Load(ctx)
	if err != nil {
		return nil, err
	}
	if doc.Empty() {
		return nil, ErrNoData
	}

	backup := Backup{
		Subjects:    doc.Subjects,
		TimeSlots:   doc.TimeSlots,
		Assignments: doc.Assignments,
		BackupDate:  s.clock().UTC().Format(time.RFC3339),
		Version:     backupVersion,
	}
	raw, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal backup: %w", err)
	}
	return raw, nil
}

// Restore validates and applies a backup, replacing the stored document
// wholesale. A payload missing any of the three core arrays is rejected and
// the stored document is left untouched. The arrays may be present but empty;
// presence of the keys is what is validated.
func (s *BackupService) Restore(ctx context.Context, raw []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	for _, key := range []string{"subjects", "timeSlots", "assignments"} {
		if _, ok := fields[key]; !ok {
			return fmt.Errorf("%w: missing %q", ErrInvalidBackup, key)
		}
	}

	var backup Backup
	if err := json.Unmarshal(raw, &backup); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	doc := model.ScheduleDocument{
		Subjects:    backup.Subjects,
		TimeSlots:   backup.TimeSlots,
		Assignments: backup.Assignments,
	}
	return s.schedule.Replace(ctx, &doc)
}
