package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"class-planner/internal/model"
	"class-planner/internal/store"
)

// AttendanceInput is one marking action.
type AttendanceInput struct {
	SubjectID   string `validate:"required"`
	TimeSlotID  string `validate:"required"`
	StudentID   string `validate:"required"`
	StudentName string
	Date        string                 `validate:"omitempty,datetime=2006-01-02"`
	Status      model.AttendanceStatus `validate:"required,oneof=present absent late"`
}

// AttendanceService keeps per-class attendance records. Marking the same
// slot, student and date twice updates the existing record in place.
type AttendanceService struct {
	sync  *SyncService
	clock func() time.Time
	mu    sync.Mutex
}

func NewAttendanceService(syncSvc *SyncService, clock func() time.Time) *AttendanceService {
	if clock == nil {
		clock = time.Now
	}
	return &AttendanceService{sync: syncSvc, clock: clock}
}

// Mark records or updates attendance; an empty date means today.
func (s *AttendanceService) Mark(ctx context.Context, input AttendanceInput) (model.AttendanceRecord, error) {
	if err := validate.Struct(input); err != nil {
		return model.AttendanceRecord{}, fmt.Errorf("validate attendance: %w", err)
	}
	now := s.clock()
	if input.Date == "" {
		input.Date = now.Format("2006-01-02")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load(ctx)
	if err != nil {
		return model.AttendanceRecord{}, err
	}

	for i := range records {
		if records[i].TimeSlotID == input.TimeSlotID &&
			records[i].StudentID == input.StudentID &&
			records[i].Date == input.Date {
			records[i].Status = input.Status
			records[i].MarkedAt = now
			if input.StudentName != "" {
				records[i].StudentName = input.StudentName
			}
			if err := s.sync.Save(ctx, store.KeyAttendanceRecords, records); err != nil {
				return model.AttendanceRecord{}, err
			}
			return records[i], nil
		}
	}

	record := model.AttendanceRecord{
		ID:          uuid.NewString(),
		SubjectID:   input.SubjectID,
		TimeSlotID:  input.TimeSlotID,
		StudentID:   input.StudentID,
		StudentName: input.StudentName,
		Date:        input.Date,
		Status:      input.Status,
		MarkedAt:    now,
	}
	records = append(records, record)
	if err := s.sync.Save(ctx, store.KeyAttendanceRecords, records); err != nil {
		return model.AttendanceRecord{}, err
	}
	return record, nil
}

// List returns records, optionally filtered by subject.
func (s *AttendanceService) List(ctx context.Context, subjectID string) ([]model.AttendanceRecord, error) {
	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if subjectID == "" {
		return records, nil
	}
	out := records[:0]
	for _, r := range records {
		if r.SubjectID == subjectID {
			out = append(out, r)
		}
	}
	return out, nil
}

// Stats summarizes one subject's attendance; late counts as attended.
func (s *AttendanceService) Stats(ctx context.Context, subjectID string) (model.AttendanceStats, error) {
	records, err := s.List(ctx, subjectID)
	if err != nil {
		return model.AttendanceStats{}, err
	}

	var stats model.AttendanceStats
	for _, r := range records {
		switch r.Status {
		case model.AttendancePresent:
			stats.Present++
		case model.AttendanceLate:
			stats.Late++
		case model.AttendanceAbsent:
			stats.Absent++
		}
	}
	stats.Total = stats.Present + stats.Late + stats.Absent
	if stats.Total > 0 {
		attended := float64(stats.Present + stats.Late)
		stats.Percent = math.Round(attended/float64(stats.Total)*1000) / 10
	}
	return stats, nil
}

func (s *AttendanceService) load(ctx context.Context) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	if _, err := s.sync.Load(ctx, store.KeyAttendanceRecords, &records); err != nil {
		return nil, err
	}
	return records, nil
}
