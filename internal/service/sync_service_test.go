package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"class-planner/internal/mirror"
	"class-planner/internal/model"
	"class-planner/internal/store"
)

func testDoc() *model.ScheduleDocument {
	return &model.ScheduleDocument{
		Subjects: []model.Subject{
			{ID: "s1", Name: "Math", Color: "#ff0000", Instructor: "Dr. Euler", Room: "101"},
		},
		TimeSlots: []model.TimeSlot{
			{ID: "t1", SubjectID: "s1", Day: "Monday", StartTime: "09:00", EndTime: "10:00"},
		},
		Assignments: []model.Assignment{
			{ID: "a1", SubjectID: "s1", Title: "Problem set", DueDate: "2026-09-01", Type: model.AssignmentTypeHomework},
		},
	}
}

func TestSaveThenLoadLocalOnly(t *testing.T) {
	ctx := context.Background()
	syncSvc := NewSyncService(newTestStore(t), nil, time.Second)

	want := testDoc()
	if err := syncSvc.Save(ctx, store.KeySchedule, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var got model.ScheduleDocument
	ok, err := syncSvc.Load(ctx, store.KeySchedule, &got)
	if err != nil || !ok {
		t.Fatalf("Load() = %v, %v; want found", ok, err)
	}
	if !reflect.DeepEqual(&got, want) {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestSaveWithUnreachableMirror(t *testing.T) {
	ctx := context.Background()
	remoteErr := errors.New("connection refused")
	syncSvc := NewSyncService(newTestStore(t), downMirror{err: remoteErr}, time.Second)

	want := testDoc()
	if err := syncSvc.Save(ctx, store.KeySchedule, want); err != nil {
		t.Fatalf("Save() error = %v, remote failures must not surface", err)
	}
	syncSvc.Wait()

	// Load also degrades: mirror read fails, local copy is returned.
	var got model.ScheduleDocument
	ok, err := syncSvc.Load(ctx, store.KeySchedule, &got)
	if err != nil || !ok {
		t.Fatalf("Load() = %v, %v; want local fallback", ok, err)
	}
	if !reflect.DeepEqual(&got, want) {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}

	result, ok := syncSvc.LastResult(store.KeySchedule)
	if !ok {
		t.Fatal("LastResult() missing after save")
	}
	if !result.LocalDurable || result.RemoteDurable {
		t.Errorf("LastResult() = %+v, want locally durable, not remotely", result)
	}
	if !errors.Is(result.RemoteErr, remoteErr) {
		t.Errorf("LastResult().RemoteErr = %v, want %v", result.RemoteErr, remoteErr)
	}
}

func TestLoadPrefersMirrorAndRefreshesLocal(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mc := mirror.NewInMem()

	stale := &model.ScheduleDocument{Subjects: []model.Subject{{ID: "old", Name: "Stale"}}}
	if err := st.Put(ctx, store.KeySchedule, stale); err != nil {
		t.Fatal(err)
	}
	fresh := testDoc()
	if err := mc.Set(ctx, store.KeySchedule, fresh); err != nil {
		t.Fatal(err)
	}

	syncSvc := NewSyncService(st, mc, time.Second)

	var got model.ScheduleDocument
	ok, err := syncSvc.Load(ctx, store.KeySchedule, &got)
	if err != nil || !ok {
		t.Fatalf("Load() = %v, %v; want mirror copy", ok, err)
	}
	if !reflect.DeepEqual(&got, fresh) {
		t.Errorf("Load() = %+v, want mirror document %+v", got, fresh)
	}

	// The local cache must have been refreshed with the mirror copy.
	var local model.ScheduleDocument
	if ok, err := st.Get(ctx, store.KeySchedule, &local); err != nil || !ok {
		t.Fatalf("store.Get() = %v, %v", ok, err)
	}
	if !reflect.DeepEqual(&local, fresh) {
		t.Errorf("local cache = %+v, want refreshed copy %+v", local, fresh)
	}
}

func TestRepeatedRemoteFailuresPauseMirror(t *testing.T) {
	ctx := context.Background()
	syncSvc := NewSyncService(newTestStore(t), downMirror{err: errors.New("down")}, time.Second)

	if syncSvc.Degraded() {
		t.Fatal("Degraded() = true before any failure")
	}
	for i := 0; i < remoteFailureThreshold; i++ {
		if err := syncSvc.Save(ctx, store.KeySchedule, testDoc()); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		syncSvc.Wait()
	}
	if !syncSvc.Degraded() {
		t.Errorf("Degraded() = false after %d consecutive remote failures", remoteFailureThreshold)
	}
}

func TestLoadAbsent(t *testing.T) {
	ctx := context.Background()
	syncSvc := NewSyncService(newTestStore(t), nil, time.Second)

	var got model.ScheduleDocument
	ok, err := syncSvc.Load(ctx, "never-written", &got)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ok {
		t.Error("Load() reported a document that was never written")
	}
}
