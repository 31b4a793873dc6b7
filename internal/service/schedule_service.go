package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"class-planner/internal/model"
	"class-planner/internal/store"
	"class-planner/internal/timetable"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrUnknownSubject = errors.New("unknown subject")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, _, err := model.ParseClock(fl.Field().String())
		return err == nil
	})
	return v
}

// SubjectInput is the data required to create or update a subject.
type SubjectInput struct {
	Name       string `validate:"required"`
	Color      string
	Instructor string
	Room       string
}

// TimeSlotInput is the data required to create or update a time slot.
type TimeSlotInput struct {
	SubjectID string `validate:"required"`
	Day       string `validate:"required,oneof=Sunday Monday Tuesday Wednesday Thursday Friday Saturday"`
	StartTime string `validate:"required,clock"`
	EndTime   string `validate:"required,clock"`
}

// AssignmentInput is the data required to create or update an assignment.
type AssignmentInput struct {
	SubjectID   string `validate:"required"`
	Title       string `validate:"required"`
	Description string
	DueDate     string               `validate:"required,datetime=2006-01-02"`
	Type        model.AssignmentType `validate:"required,oneof=assignment homework exam"`
}

// ScheduleService owns the schedule document. Every mutation loads the whole
// document, applies the change and persists it wholesale through the sync
// coordinator; the mutex keeps load-mutate-save sequences from interleaving.
type ScheduleService struct {
	sync *SyncService
	mu   sync.Mutex
}

func NewScheduleService(syncSvc *SyncService) *ScheduleService {
	return &ScheduleService{sync: syncSvc}
}

// Load returns the current document, empty (not nil) when nothing is stored.
func (s *ScheduleService) Load(ctx context.Context) (*model.ScheduleDocument, error) {
	var doc model.ScheduleDocument
	if _, err := s.sync.Load(ctx, store.KeySchedule, &doc); err != nil {
		return nil, err
	}
	doc.Normalize()
	return &doc, nil
}

// Replace swaps the stored document atomically; used by backup restore.
func (s *ScheduleService) Replace(ctx context.Context, doc *model.ScheduleDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc.Normalize()
	return s.sync.Save(ctx, store.KeySchedule, doc)
}

func (s *ScheduleService) AddSubject(ctx context.Context, input SubjectInput) (model.Subject, error) {
	if err := validate.Struct(input); err != nil {
		return model.Subject{}, fmt.Errorf("validate subject: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.Load(ctx)
	if err != nil {
		return model.Subject{}, err
	}

	subject := model.Subject{
		ID:         uuid.NewString(),
		Name:       input.Name,
		Color:      input.Color,
		Instructor: input.Instructor,
		Room:       input.Room,
	}
	doc.Subjects = append(doc.Subjects, subject)
	if err := s.sync.Save(ctx, store.KeySchedule, doc); err != nil {
		return model.Subject{}, err
	}
	return subject, nil
}

func (s *ScheduleService) UpdateSubject(ctx context.Context, id string, input SubjectInput) (model.Subject, error) {
	if err := validate.Struct(input); err != nil {
		return model.Subject{}, fmt.Errorf("validate subject: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.Load(ctx)
	if err != nil {
		return model.Subject{}, err
	}

	for i := range doc.Subjects {
		if doc.Subjects[i].ID != id {
			continue
		}
		doc.Subjects[i].Name = input.Name
		doc.Subjects[i].Color = input.Color
		doc.Subjects[i].Instructor = input.Instructor
		doc.Subjects[i].Room = input.Room
		if err := s.sync.Save(ctx, store.KeySchedule, doc); err != nil {
			return model.Subject{}, err
		}
		return doc.Subjects[i], nil
	}
	return model.Subject{}, fmt.Errorf("subject %q: %w", id, ErrNotFound)
}

// DeleteSubject removes the subject and, eagerly, every time slot and
// assignment referencing it. No orphans survive the save.
func (s *ScheduleService) DeleteSubject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.Load(ctx)
	if err != nil {
		return err
	}

	subjects := doc.Subjects[:0]
	found := false
	for _, subj := range doc.Subjects {
		if subj.ID == id {
			found = true
			continue
		}
		subjects = append(subjects, subj)
	}
	if !found {
		return fmt.Errorf("subject %q: %w", id, ErrNotFound)
	}
	doc.Subjects = subjects

	slots := doc.TimeSlots[:0]
	for _, slot := range doc.TimeSlots {
		if slot.SubjectID != id {
			slots = append(slots, slot)
		}
	}
	doc.TimeSlots = slots

	assignments := doc.Assignments[:0]
	for _, a := range doc.Assignments {
		if a.SubjectID != id {
			assignments = append(assignments, a)
		}
	}
	doc.Assignments = assignments

	return s.sync.Save(ctx, store.KeySchedule, doc)
}

func (s *ScheduleService) AddTimeSlot(ctx context.Context, input TimeSlotInput) (model.TimeSlot, error) {
	if err := validateTimeSlot(input); err != nil {
		return model.TimeSlot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.Load(ctx)
	if err != nil {
		return model.TimeSlot{}, err
	}
	if _, ok := doc.Subject(input.SubjectID); !ok {
		return model.TimeSlot{}, fmt.Errorf("time slot subject %q: %w", input.SubjectID, ErrUnknownSubject)
	}

	slot := model.TimeSlot{
		ID:        uuid.NewString(),
		SubjectID: input.SubjectID,
		Day:       input.Day,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
	}
	doc.TimeSlots = append(doc.TimeSlots, slot)
	if err := s.sync.Save(ctx, store.KeySchedule, doc); err != nil {
		return model.TimeSlot{}, err
	}
	return slot, nil
}

func (s *ScheduleService) UpdateTimeSlot(ctx context.Context, id string, input TimeSlotInput) (model.TimeSlot, error) {
	if err := validateTimeSlot(input); err != nil {
		return model.TimeSlot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.Load(ctx)
	if err != nil {
		return model.TimeSlot{}, err
	}
	if _, ok := doc.Subject(input.SubjectID); !ok {
		return model.TimeSlot{}, fmt.Errorf("time slot subject %q: %w", input.SubjectID, ErrUnknownSubject)
	}

	for i := range doc.TimeSlots {
		if doc.TimeSlots[i].ID != id {
			continue
		}
		doc.TimeSlots[i].SubjectID = input.SubjectID
		doc.TimeSlots[i].Day = input.Day
		doc.TimeSlots[i].StartTime = input.StartTime
		doc.TimeSlots[i].EndTime = input.EndTime
		if err := s.sync.Save(ctx, store.KeySchedule, doc); err != nil {
			return model.TimeSlot{}, err
		}
		return doc.TimeSlots[i], nil
	}
	return model.TimeSlot{}, fmt.Errorf("time slot %q: %w", id, ErrNotFound)
}

func (s *ScheduleService) DeleteTimeSlot(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.Load(ctx)
	if err != nil {
		return err
	}

	slots := doc.TimeSlots[:0]
	found := false
	for _, slot := range doc.TimeSlots {
		if slot.ID == id {
			found = true
			continue
		}
		slots = append(slots, slot)
	}
	if !found {
		return fmt.Errorf("time slot %q: %w", id, ErrNotFound)
	}
	doc.TimeSlots = slots
	return s.sync.Save(ctx, store.KeySchedule, doc)
}

func (s *ScheduleService) AddAssignment(ctx context.Context, input AssignmentInput) (model.Assignment, error) {
	if err := validate.Struct(input); err != nil {
		return model.Assignment{}, fmt.Errorf("validate assignment: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.Load(ctx)
	if err != nil {
		return model.Assignment{}, err
	}
	if _, ok := doc.Subject(input.SubjectID); !ok {
		return model.Assignment{}, fmt.Errorf("assignment subject %q: %w", input.SubjectID, ErrUnknownSubject)
	}

	assignment := model.Assignment{
		ID:          uuid.NewString(),
		SubjectID:   input.SubjectID,
		Title:       input.Title,
		Description: input.Description,
		DueDate:     input.DueDate,
		Type:        input.Type,
	}
	doc.Assignments = append(doc.Assignments, assignment)
	if err := s.sync.Save(ctx, store.KeySchedule, doc); err != nil {
		return model.Assignment{}, err
	}
	return assignment, nil
}

// SetAssignmentDone flips an assignment's completed flag.
func (s *ScheduleService) SetAssignmentDone(ctx context.Context, id string, done bool) (model.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.Load(ctx)
	if err != nil {
		return model.Assignment{}, err
	}

	for i := range doc.Assignments {
		if doc.Assignments[i].ID != id {
			continue
		}
		doc.Assignments[i].Completed = done
		if err := s.sync.Save(ctx, store.KeySchedule, doc); err != nil {
			return model.Assignment{}, err
		}
		return doc.Assignments[i], nil
	}
	return model.Assignment{}, fmt.Errorf("assignment %q: %w", id, ErrNotFound)
}

func (s *ScheduleService) DeleteAssignment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.Load(ctx)
	if err != nil {
		return err
	}

	assignments := doc.Assignments[:0]
	found := false
	for _, a := range doc.Assignments {
		if a.ID == id {
			found = true
			continue
		}
		assignments = append(assignments, a)
	}
	if !found {
		return fmt.Errorf("assignment %q: %w", id, ErrNotFound)
	}
	doc.Assignments = assignments
	return s.sync.Save(ctx, store.KeySchedule, doc)
}

// ListAssignments returns assignments sorted by completion state, due date
// and title.
func (s *ScheduleService) ListAssignments(ctx context.Context) ([]model.Assignment, error) {
	doc, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := append([]model.Assignment(nil), doc.Assignments...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Completed != out[j].Completed {
			return !out[i].Completed
		}
		if out[i].DueDate != out[j].DueDate {
			return out[i].DueDate < out[j].DueDate
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

// SlotsOn returns the slots falling on the given weekday, ordered by start time.
func (s *ScheduleService) SlotsOn(ctx context.Context, day string) ([]model.TimeSlot, error) {
	doc, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.TimeSlot
	for _, slot := range doc.TimeSlots {
		if slot.Day == day {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

// ExportICS renders the timetable as a calendar-interchange document.
func (s *ScheduleService) ExportICS(ctx context.Context, now time.Time) (string, error) {
	doc, err := s.Load(ctx)
	if err != nil {
		return "", err
	}
	return timetable.BuildICS(doc, now)
}

func validateTimeSlot(input TimeSlotInput) error {
	if err := validate.Struct(input); err != nil {
		return fmt.Errorf("validate time slot: %w", err)
	}
	sh, sm, _ := model.ParseClock(input.StartTime)
	eh, em, _ := model.ParseClock(input.EndTime)
	if sh*60+sm >= eh*60+em {
		return fmt.Errorf("time slot must start before it ends (%s >= %s)", input.StartTime, input.EndTime)
	}
	return nil
}
