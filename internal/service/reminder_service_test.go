package service

import (
	"context"
	"testing"
	"time"

	"class-planner/internal/model"
)

// mondayMorning is a Monday at 08:00 UTC.
var mondayMorning = time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)

type reminderFixture struct {
	clock    *fakeClock
	sender   *fakeSender
	schedule *ScheduleService
	gateway  *NotificationService
	reminder *ReminderService
}

func newReminderFixture(t *testing.T, now time.Time) *reminderFixture {
	t.Helper()
	syncSvc := NewSyncService(newTestStore(t), nil, time.Second)
	clock := newFakeClock(now)
	sender := &fakeSender{}
	gateway := NewNotificationService(sender, syncSvc, NewPlanner(clock))
	schedule := NewScheduleService(syncSvc)
	return &reminderFixture{
		clock:    clock,
		sender:   sender,
		schedule: schedule,
		gateway:  gateway,
		reminder: NewReminderService(schedule, gateway, 10*time.Minute, clock),
	}
}

func (f *reminderFixture) addMondayMath(t *testing.T) model.Subject {
	t.Helper()
	ctx := context.Background()
	subject, err := f.schedule.AddSubject(ctx, SubjectInput{Name: "Math", Room: "101"})
	if err != nil {
		t.Fatalf("AddSubject() error = %v", err)
	}
	if _, err := f.schedule.AddTimeSlot(ctx, TimeSlotInput{
		SubjectID: subject.ID, Day: "Monday", StartTime: "09:00", EndTime: "10:00",
	}); err != nil {
		t.Fatalf("AddTimeSlot() error = %v", err)
	}
	return subject
}

func TestScheduleAllArmsClassReminder(t *testing.T) {
	ctx := context.Background()
	f := newReminderFixture(t, mondayMorning)
	f.addMondayMath(t)
	if !f.gateway.RequestPermission(ctx) {
		t.Fatal("RequestPermission() = false, want true")
	}

	armed, err := f.reminder.ScheduleAll(ctx)
	if err != nil {
		t.Fatalf("ScheduleAll() error = %v", err)
	}
	if armed != 1 {
		t.Fatalf("armed = %d, want 1", armed)
	}

	pending := f.gateway.Pending()
	if len(pending) != 1 {
		t.Fatalf("Pending() len = %d, want 1", len(pending))
	}
	wantAt := time.Date(2026, time.March, 2, 8, 50, 0, 0, time.UTC)
	if !pending[0].ScheduledTime.Equal(wantAt) {
		t.Errorf("ScheduledTime = %v, want %v", pending[0].ScheduledTime, wantAt)
	}

	f.clock.Advance(50 * time.Minute)
	msgs := f.sender.messages()
	// messages[0] is the permission probe.
	if len(msgs) != 2 {
		t.Fatalf("sent %d messages, want 2", len(msgs))
	}
	if msgs[1].Title != "Class Reminder: Math" {
		t.Errorf("Title = %q, want %q", msgs[1].Title, "Class Reminder: Math")
	}
	if want := "Your Math class starts in 10 minutes at 101"; msgs[1].Message != want {
		t.Errorf("Message = %q, want %q", msgs[1].Message, want)
	}
	if got := f.gateway.Pending(); len(got) != 0 {
		t.Errorf("Pending() after fire = %d, want 0", len(got))
	}
}

func TestScheduleAllRollsPastClassToNextWeek(t *testing.T) {
	ctx := context.Background()
	// 09:30, half an hour into the Monday class.
	f := newReminderFixture(t, mondayMorning.Add(90*time.Minute))
	f.addMondayMath(t)
	f.gateway.RequestPermission(ctx)

	if _, err := f.reminder.ScheduleAll(ctx); err != nil {
		t.Fatalf("ScheduleAll() error = %v", err)
	}
	pending := f.gateway.Pending()
	if len(pending) != 1 {
		t.Fatalf("Pending() len = %d, want 1", len(pending))
	}
	wantAt := time.Date(2026, time.March, 9, 8, 50, 0, 0, time.UTC)
	if !pending[0].ScheduledTime.Equal(wantAt) {
		t.Errorf("ScheduledTime = %v, want next Monday %v", pending[0].ScheduledTime, wantAt)
	}
}

func TestScheduleAllWithoutPermissionIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newReminderFixture(t, mondayMorning)
	f.addMondayMath(t)

	armed, err := f.reminder.ScheduleAll(ctx)
	if err != nil {
		t.Fatalf("ScheduleAll() error = %v", err)
	}
	if armed != 0 {
		t.Errorf("armed = %d, want 0", armed)
	}
	if got := f.gateway.Pending(); len(got) != 0 {
		t.Errorf("Pending() = %d, want 0", len(got))
	}
}

func TestScheduleAllRePlanDoesNotDoubleArm(t *testing.T) {
	ctx := context.Background()
	f := newReminderFixture(t, mondayMorning)
	f.addMondayMath(t)
	f.gateway.RequestPermission(ctx)

	for i := 0; i < 3; i++ {
		if _, err := f.reminder.ScheduleAll(ctx); err != nil {
			t.Fatalf("ScheduleAll() #%d error = %v", i+1, err)
		}
	}
	if got := f.gateway.Pending(); len(got) != 1 {
		t.Errorf("Pending() after repeated re-plans = %d, want 1", len(got))
	}
}

func TestScheduleAllArmsAssignmentAlert(t *testing.T) {
	ctx := context.Background()
	f := newReminderFixture(t, mondayMorning)
	subject := f.addMondayMath(t)
	f.gateway.RequestPermission(ctx)

	// Due tomorrow: alert fires at 08:00 on the due date.
	if _, err := f.schedule.AddAssignment(ctx, AssignmentInput{
		SubjectID: subject.ID, Title: "Problem set", DueDate: "2026-03-03", Type: "homework",
	}); err != nil {
		t.Fatalf("AddAssignment() error = %v", err)
	}
	// Due today at 08:00, exactly now: already missed, never armed.
	if _, err := f.schedule.AddAssignment(ctx, AssignmentInput{
		SubjectID: subject.ID, Title: "Reading", DueDate: "2026-03-02", Type: "assignment",
	}); err != nil {
		t.Fatalf("AddAssignment() error = %v", err)
	}
	// Completed: never armed.
	done, err := f.schedule.AddAssignment(ctx, AssignmentInput{
		SubjectID: subject.ID, Title: "Old essay", DueDate: "2026-03-04", Type: "homework",
	})
	if err != nil {
		t.Fatalf("AddAssignment() error = %v", err)
	}
	if _, err := f.schedule.SetAssignmentDone(ctx, done.ID, true); err != nil {
		t.Fatalf("SetAssignmentDone() error = %v", err)
	}

	armed, err := f.reminder.ScheduleAll(ctx)
	if err != nil {
		t.Fatalf("ScheduleAll() error = %v", err)
	}
	// One class reminder plus one assignment alert.
	if armed != 2 {
		t.Fatalf("armed = %d, want 2", armed)
	}

	wantAt := time.Date(2026, time.March, 3, 8, 0, 0, 0, time.UTC)
	found := false
	for _, n := range f.gateway.Pending() {
		if n.Type == model.NotificationAssignmentDue {
			found = true
			if n.Title != "Assignment Due: Problem set" {
				t.Errorf("Title = %q, want %q", n.Title, "Assignment Due: Problem set")
			}
			if !n.ScheduledTime.Equal(wantAt) {
				t.Errorf("ScheduledTime = %v, want %v", n.ScheduledTime, wantAt)
			}
		}
	}
	if !found {
		t.Error("no assignment alert armed")
	}
}

func TestScheduleAllUsesStoredLeadMinutes(t *testing.T) {
	ctx := context.Background()
	f := newReminderFixture(t, mondayMorning)
	f.addMondayMath(t)
	f.gateway.RequestPermission(ctx)

	settings := model.DefaultNotificationSettings()
	settings.LeadMinutes = 30
	if err := f.gateway.UpdateSettings(ctx, settings); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}

	if _, err := f.reminder.ScheduleAll(ctx); err != nil {
		t.Fatalf("ScheduleAll() error = %v", err)
	}
	pending := f.gateway.Pending()
	if len(pending) != 1 {
		t.Fatalf("Pending() len = %d, want 1", len(pending))
	}
	wantAt := time.Date(2026, time.March, 2, 8, 30, 0, 0, time.UTC)
	if !pending[0].ScheduledTime.Equal(wantAt) {
		t.Errorf("ScheduledTime = %v, want %v", pending[0].ScheduledTime, wantAt)
	}
}
