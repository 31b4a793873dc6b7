package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	applog "class-planner/internal/log"
	"class-planner/internal/model"
	"class-planner/internal/timetable"
)

// assignmentAlertClock is the time of day an assignment-due alert fires on
// the due date.
const assignmentAlertClock = 8 * time.Hour

// ReminderService turns the persisted schedule into armed one-shot reminders.
// Timers are not re-armed when they fire; the daily midnight pass re-plans
// everything for the following week.
type ReminderService struct {
	schedule *ScheduleService
	gateway  *NotificationService
	lead     time.Duration
	clock    Clock
}

// NewReminderService builds the scheduler; a nil clock means real time and a
// non-positive lead falls back to 10 minutes.
func NewReminderService(schedule *ScheduleService, gateway *NotificationService, lead time.Duration, clock Clock) *ReminderService {
	if clock == nil {
		clock = realClock{}
	}
	if lead <= 0 {
		lead = 10 * time.Minute
	}
	return &ReminderService{schedule: schedule, gateway: gateway, lead: lead, clock: clock}
}

// ScheduleAll performs a full clear-and-rearm of every class and assignment
// reminder. It is a no-op when notification permission is absent: nothing is
// armed and no error is surfaced; the next natural trigger (a schedule edit
// or the midnight pass) retries. Returns the number of armed reminders.
func (s *ReminderService) ScheduleAll(ctx context.Context) (int, error) {
	if !s.gateway.Granted() {
		applog.Debug("reminders: permission not granted, skipping re-plan")
		return 0, nil
	}

	doc, err := s.schedule.Load(ctx)
	if err != nil {
		return 0, err
	}
	settings, err := s.gateway.Settings(ctx)
	if err != nil {
		return 0, err
	}

	// Idempotent full re-plan, not incremental: the final re-plan's arm set wins.
	s.gateway.CancelScheduled()

	now := s.clock.Now()
	armed := 0
	if settings.ClassReminders {
		armed += s.armClassReminders(doc, now, s.leadFrom(settings))
	}
	if settings.AssignmentAlerts {
		armed += s.armAssignmentAlerts(doc, now)
	}
	applog.Info("reminders: re-plan complete", "armed", armed)
	return armed, nil
}

func (s *ReminderService) armClassReminders(doc *model.ScheduleDocument, now time.Time, lead time.Duration) int {
	armed := 0
	for _, slot := range doc.TimeSlots {
		subject, ok := doc.Subject(slot.SubjectID)
		if !ok {
			applog.Info("reminders: skipping slot with unknown subject", "slot", slot.ID)
			continue
		}

		next, err := timetable.NextOccurrence(slot, now)
		if err != nil {
			applog.Error("reminders: skipping slot", err, "slot", slot.ID)
			continue
		}

		remindAt := next.Add(-lead)
		if !remindAt.After(now) {
			continue
		}

		minutes := int(lead / time.Minute)
		n := model.ScheduledNotification{
			ID:            uuid.NewString(),
			Title:         fmt.Sprintf("Class Reminder: %s", subject.Name),
			Message:       fmt.Sprintf("Your %s class starts in %d minutes at %s", subject.Name, minutes, subject.Room),
			ScheduledTime: remindAt,
			Type:          model.NotificationClassReminder,
			Payload: map[string]string{
				"subjectId":  subject.ID,
				"timeSlotId": slot.ID,
				"classTime":  next.Format(time.RFC3339),
			},
		}
		if _, ok := s.gateway.ScheduleAt(n); ok {
			armed++
		}
	}
	return armed
}

func (s *ReminderService) armAssignmentAlerts(doc *model.ScheduleDocument, now time.Time) int {
	armed := 0
	for _, a := range doc.Assignments {
		if a.Completed {
			continue
		}
		due, err := time.ParseInLocation("2006-01-02", a.DueDate, now.Location())
		if err != nil {
			applog.Error("reminders: skipping assignment with bad due date", err, "assignment", a.ID)
			continue
		}

		alertAt := due.Add(assignmentAlertClock)
		if !alertAt.After(now) {
			continue
		}

		n := model.ScheduledNotification{
			ID:            uuid.NewString(),
			Title:         fmt.Sprintf("Assignment Due: %s", a.Title),
			Message:       fmt.Sprintf("%s (%s) is due today", a.Title, doc.SubjectName(a.SubjectID)),
			ScheduledTime: alertAt,
			Type:          model.NotificationAssignmentDue,
			Payload:       map[string]string{"assignmentId": a.ID},
		}
		if _, ok := s.gateway.ScheduleAt(n); ok {
			armed++
		}
	}
	return armed
}

// leadFrom prefers the stored settings over the configured default.
func (s *ReminderService) leadFrom(settings model.NotificationSettings) time.Duration {
	if settings.LeadMinutes > 0 {
		return time.Duration(settings.LeadMinutes) * time.Minute
	}
	return s.lead
}
