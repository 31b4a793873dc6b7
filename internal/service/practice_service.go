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

// TestInput is the data required to create a practice test.
type TestInput struct {
	SubjectID string           `validate:"required"`
	Title     string           `validate:"required"`
	Questions []model.Question `validate:"required,min=1"`
}

// PracticeService manages practice tests and graded submissions.
type PracticeService struct {
	sync  *SyncService
	clock func() time.Time
	mu    sync.Mutex
}

func NewPracticeService(syncSvc *SyncService, clock func() time.Time) *PracticeService {
	if clock == nil {
		clock = time.Now
	}
	return &PracticeService{sync: syncSvc, clock: clock}
}

func (s *PracticeService) AddTest(ctx context.Context, input TestInput) (model.PracticeTest, error) {
	if err := validate.Struct(input); err != nil {
		return model.PracticeTest{}, fmt.Errorf("validate test: %w", err)
	}
	for i, q := range input.Questions {
		if len(q.Options) < 2 || q.Answer < 0 || q.Answer >= len(q.Options) {
			return model.PracticeTest{}, fmt.Errorf("question %d: answer must index one of at least two options", i+1)
		}
	}

	test := model.PracticeTest{
		ID:        uuid.NewString(),
		SubjectID: input.SubjectID,
		Title:     input.Title,
		Questions: input.Questions,
		CreatedAt: s.clock(),
	}
	for i := range test.Questions {
		if test.Questions[i].ID == "" {
			test.Questions[i].ID = uuid.NewString()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tests, err := s.loadTests(ctx)
	if err != nil {
		return model.PracticeTest{}, err
	}
	tests = append(tests, test)
	if err := s.sync.Save(ctx, store.KeyPracticeTests, tests); err != nil {
		return model.PracticeTest{}, err
	}
	return test, nil
}

func (s *PracticeService) ListTests(ctx context.Context, subjectID string) ([]model.PracticeTest, error) {
	tests, err := s.loadTests(ctx)
	if err != nil {
		return nil, err
	}
	if subjectID == "" {
		return tests, nil
	}
	out := tests[:0]
	for _, t := range tests {
		if t.SubjectID == subjectID {
			out = append(out, t)
		}
	}
	return out, nil
}

// DeleteTest removes a test and every result recorded for it.
func (s *PracticeService) DeleteTest(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tests, err := s.loadTests(ctx)
	if err != nil {
		return err
	}

	kept := tests[:0]
	found := false
	for _, t := range tests {
		if t.ID == id {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return fmt.Errorf("practice test %q: %w", id, ErrNotFound)
	}
	if err := s.sync.Save(ctx, store.KeyPracticeTests, kept); err != nil {
		return err
	}

	results, err := s.loadResults(ctx)
	if err != nil {
		return err
	}
	keptResults := results[:0]
	for _, r := range results {
		if r.TestID != id {
			keptResults = append(keptResults, r)
		}
	}
	return s.sync.Save(ctx, store.KeyTestResults, keptResults)
}

// Submit grades answers against the test and records the result. answers and
// questions are matched by position; missing answers count as wrong.
func (s *PracticeService) Submit(ctx context.Context, testID, studentID string, answers []int) (model.TestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tests, err := s.loadTests(ctx)
	if err != nil {
		return model.TestResult{}, err
	}

	var test *model.PracticeTest
	for i := range tests {
		if tests[i].ID == testID {
			test = &tests[i]
			break
		}
	}
	if test == nil {
		return model.TestResult{}, fmt.Errorf("practice test %q: %w", testID, ErrNotFound)
	}

	score := 0
	for i, q := range test.Questions {
		if i < len(answers) && answers[i] == q.Answer {
			score++
		}
	}
	total := len(test.Questions)

	result := model.TestResult{
		ID:        uuid.NewString(),
		TestID:    testID,
		StudentID: studentID,
		Score:     score,
		Total:     total,
		Percent:   math.Round(float64(score)/float64(total)*1000) / 10,
		TakenAt:   s.clock(),
	}

	results, err := s.loadResults(ctx)
	if err != nil {
		return model.TestResult{}, err
	}
	results = append(results, result)
	if err := s.sync.Save(ctx, store.KeyTestResults, results); err != nil {
		return model.TestResult{}, err
	}
	return result, nil
}

func (s *PracticeService) Results(ctx context.Context, testID string) ([]model.TestResult, error) {
	results, err := s.loadResults(ctx)
	if err != nil {
		return nil, err
	}
	if testID == "" {
		return results, nil
	}
	out := results[:0]
	for _, r := range results {
		if r.TestID == testID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *PracticeService) loadTests(ctx context.Context) ([]model.PracticeTest, error) {
	var tests []model.PracticeTest
	if _, err := s.sync.Load(ctx, store.KeyPracticeTests, &tests); err != nil {
		return nil, err
	}
	return tests, nil
}

func (s *PracticeService) loadResults(ctx context.Context) ([]model.TestResult, error) {
	var results []model.TestResult
	if _, err := s.sync.Load(ctx, store.KeyTestResults, &results); err != nil {
		return nil, err
	}
	return results, nil
}
