package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestDocuments(t *testing.T) *DocumentService {
	t.Helper()
	syncSvc := NewSyncService(newTestStore(t), nil, time.Second)
	return NewDocumentService(syncSvc, func() time.Time { return mondayMorning })
}

func TestDocumentAddListDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestDocuments(t)

	notes, err := svc.Add(ctx, DocumentInput{Name: "notes.pdf", SubjectID: "math", Size: 2048, ContentType: "application/pdf"})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if _, err := svc.Add(ctx, DocumentInput{Name: "syllabus.pdf", SubjectID: "physics", Size: 512}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	mathDocs, err := svc.List(ctx, "math")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(mathDocs) != 1 || mathDocs[0].ID != notes.ID {
		t.Errorf("List(math) = %+v, want only notes.pdf", mathDocs)
	}

	all, err := svc.List(ctx, "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List() len = %d, want 2", len(all))
	}

	if err := svc.Delete(ctx, notes.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(ctx, notes.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}
}

func TestDocumentValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestDocuments(t)

	if _, err := svc.Add(ctx, DocumentInput{Size: 10}); err == nil {
		t.Error("Add() without a name succeeded, want error")
	}
	if _, err := svc.Add(ctx, DocumentInput{Name: "x", Size: -1}); err == nil {
		t.Error("Add() with negative size succeeded, want error")
	}
}
