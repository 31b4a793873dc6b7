package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"class-planner/internal/mirror"
)

func newShareFixture(t *testing.T, mc mirror.Client, now *time.Time) (*ScheduleService, *ShareService) {
	t.Helper()
	st := newTestStore(t)
	schedule := NewScheduleService(NewSyncService(st, mc, time.Second))
	clock := func() time.Time { return *now }
	return schedule, NewShareService(schedule, st, mc, clock)
}

func seedSchedule(t *testing.T, schedule *ScheduleService) {
	t.Helper()
	ctx := context.Background()
	subject, err := schedule.AddSubject(ctx, SubjectInput{Name: "Math", Room: "101"})
	if err != nil {
		t.Fatalf("AddSubject() error = %v", err)
	}
	if _, err := schedule.AddTimeSlot(ctx, TimeSlotInput{SubjectID: subject.ID, Day: "Monday", StartTime: "09:00", EndTime: "10:00"}); err != nil {
		t.Fatalf("AddTimeSlot() error = %v", err)
	}
}

func TestPublishAndGetViaMirror(t *testing.T) {
	ctx := context.Background()
	now := mondayMorning
	schedule, share := newShareFixture(t, mirror.NewInMem(), &now)
	seedSchedule(t, schedule)

	id, err := share.Publish(ctx, "Spring timetable")
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if strings.HasPrefix(id, "local_") {
		t.Fatalf("Publish() fell back to local id %q with a healthy mirror", id)
	}

	got, ok, err := share.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if got.Title != "Spring timetable" {
		t.Errorf("Title = %q", got.Title)
	}
	if len(got.Subjects) != 1 || len(got.TimeSlots) != 1 {
		t.Errorf("snapshot = %d subjects, %d slots; want 1 and 1", len(got.Subjects), len(got.TimeSlots))
	}
	if got.Views != 1 {
		t.Errorf("Views = %d, want 1", got.Views)
	}

	// A second read bumps the counter again.
	got, _, err = share.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Views != 2 {
		t.Errorf("Views = %d, want 2", got.Views)
	}
}

func TestPublishFallsBackToLocalShare(t *testing.T) {
	ctx := context.Background()
	now := mondayMorning
	down := downMirror{err: errors.New("mirror down")}
	schedule, share := newShareFixture(t, down, &now)
	seedSchedule(t, schedule)

	id, err := share.Publish(ctx, "Offline share")
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if !strings.HasPrefix(id, "local_") {
		t.Fatalf("id = %q, want local_ prefix", id)
	}

	got, ok, err := share.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok || got.Title != "Offline share" {
		t.Errorf("Get() = %+v, ok=%v", got, ok)
	}
}

func TestPublishValidation(t *testing.T) {
	ctx := context.Background()
	now := mondayMorning
	schedule, share := newShareFixture(t, mirror.NewInMem(), &now)

	if _, err := share.Publish(ctx, "  "); err == nil {
		t.Error("Publish() with blank title succeeded, want error")
	}
	if _, err := share.Publish(ctx, "Empty"); !errors.Is(err, ErrNoData) {
		t.Errorf("Publish() on empty schedule error = %v, want ErrNoData", err)
	}
	_ = schedule
}

func TestGetExpiredShare(t *testing.T) {
	ctx := context.Background()
	now := mondayMorning
	schedule, share := newShareFixture(t, mirror.NewInMem(), &now)
	seedSchedule(t, schedule)

	id, err := share.Publish(ctx, "Ephemeral")
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	now = now.Add(31 * 24 * time.Hour)
	if _, ok, err := share.Get(ctx, id); err != nil || ok {
		t.Errorf("Get() after expiry = ok=%v err=%v, want absent", ok, err)
	}
}

func TestRecentFiltersExpired(t *testing.T) {
	ctx := context.Background()
	now := mondayMorning
	schedule, share := newShareFixture(t, mirror.NewInMem(), &now)
	seedSchedule(t, schedule)

	if _, err := share.Publish(ctx, "Old"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	now = now.Add(20 * 24 * time.Hour)
	if _, err := share.Publish(ctx, "Fresh"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	// 12 more days: the first share is past its 30-day window.
	now = now.Add(12 * 24 * time.Hour)
	recent, err := share.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 1 || recent[0].Title != "Fresh" {
		t.Errorf("Recent() = %+v, want only the fresh share", recent)
	}
}

func TestRecentMirrorDownReturnsEmpty(t *testing.T) {
	ctx := context.Background()
	now := mondayMorning
	_, share := newShareFixture(t, downMirror{err: errors.New("mirror down")}, &now)

	recent, err := share.Recent(ctx, 5)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("Recent() = %d entries, want 0", len(recent))
	}
}
