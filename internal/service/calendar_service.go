package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"class-planner/internal/model"
	"class-planner/internal/store"
)

// EventInput is the data required to create a custom calendar entry.
type EventInput struct {
	Title       string              `validate:"required"`
	Date        string              `validate:"required,datetime=2006-01-02"`
	Category    model.EventCategory `validate:"required,oneof=exam holiday event deadline"`
	Description string
}

// CalendarService manages custom one-off events on the academic calendar.
type CalendarService struct {
	sync *SyncService
	mu   sync.Mutex
}

func NewCalendarService(syncSvc *SyncService) *CalendarService {
	return &CalendarService{sync: syncSvc}
}

func (s *CalendarService) AddEvent(ctx context.Context, input EventInput) (model.CalendarEvent, error) {
	if err := validate.Struct(input); err != nil {
		return model.CalendarEvent{}, fmt.Errorf("validate event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	events, err := s.load(ctx)
	if err != nil {
		return model.CalendarEvent{}, err
	}

	event := model.CalendarEvent{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Date:        input.Date,
		Category:    input.Category,
		Description: input.Description,
	}
	events = append(events, event)
	if err := s.sync.Save(ctx, store.KeyCalendarEvents, events); err != nil {
		return model.CalendarEvent{}, err
	}
	return event, nil
}

// ListEvents returns all events ordered by date.
func (s *CalendarService) ListEvents(ctx context.Context) ([]model.CalendarEvent, error) {
	events, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Date < events[j].Date })
	return events, nil
}

// Upcoming returns events within the next days starting from now's date.
func (s *CalendarService) Upcoming(ctx context.Context, now time.Time, days int) ([]model.CalendarEvent, error) {
	events, err := s.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	from := now.Format("2006-01-02")
	to := now.AddDate(0, 0, days).Format("2006-01-02")
	out := events[:0]
	for _, e := range events {
		if e.Date >= from && e.Date <= to {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *CalendarService) DeleteEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	events, err := s.load(ctx)
	if err != nil {
		return err
	}

	kept := events[:0]
	found := false
	for _, e := range events {
		if e.ID == id {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return fmt.Errorf("calendar event %q: %w", id, ErrNotFound)
	}
	return s.sync.Save(ctx, store.KeyCalendarEvents, kept)
}

func (s *CalendarService) load(ctx context.Context) ([]model.CalendarEvent, error) {
	var events []model.CalendarEvent
	if _, err := s.sync.Load(ctx, store.KeyCalendarEvents, &events); err != nil {
		return nil, err
	}
	return events, nil
}
