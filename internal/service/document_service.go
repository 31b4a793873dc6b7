package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"class-planner/internal/model"
	"class-planner/internal/store"
)

// DocumentInput describes an uploaded document's metadata.
type DocumentInput struct {
	Name        string `validate:"required"`
	SubjectID   string
	Size        int64 `validate:"gte=0"`
	ContentType string
}

// DocumentService keeps metadata for uploaded study documents.
type DocumentService struct {
	sync  *SyncService
	clock func() time.Time
	mu    sync.Mutex
}

func NewDocumentService(syncSvc *SyncService, clock func() time.Time) *DocumentService {
	if clock == nil {
		clock = time.Now
	}
	return &DocumentService{sync: syncSvc, clock: clock}
}

func (s *DocumentService) Add(ctx context.Context, input DocumentInput) (model.DocumentMeta, error) {
	if err := validate.Struct(input); err != nil {
		return model.DocumentMeta{}, fmt.Errorf("validate document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	docs, err := s.load(ctx)
	if err != nil {
		return model.DocumentMeta{}, err
	}

	meta := model.DocumentMeta{
		ID:          uuid.NewString(),
		SubjectID:   input.SubjectID,
		Name:        input.Name,
		Size:        input.Size,
		ContentType: input.ContentType,
		UploadedAt:  s.clock(),
	}
	docs = append(docs, meta)
	if err := s.sync.Save(ctx, store.KeyDocuments, docs); err != nil {
		return model.DocumentMeta{}, err
	}
	return meta, nil
}

func (s *DocumentService) List(ctx context.Context, subjectID string) ([]model.DocumentMeta, error) {
	docs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if subjectID == "" {
		return docs, nil
	}
	out := docs[:0]
	for _, d := range docs {
		if d.SubjectID == subjectID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *DocumentService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, err := s.load(ctx)
	if err != nil {
		return err
	}

	kept := docs[:0]
	found := false
	for _, d := range docs {
		if d.ID == id {
			found = true
			continue
		}
		kept = append(kept, d)
	}
	if !found {
		return fmt.Errorf("document %q: %w", id, ErrNotFound)
	}
	return s.sync.Save(ctx, store.KeyDocuments, kept)
}

func (s *DocumentService) load(ctx context.Context) ([]model.DocumentMeta, error) {
	var docs []model.DocumentMeta
	if _, err := s.sync.Load(ctx, store.KeyDocuments, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
