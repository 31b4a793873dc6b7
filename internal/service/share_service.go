package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	applog "class-planner/internal/log"
	"class-planner/internal/mirror"
	"class-planner/internal/model"
	"class-planner/internal/store"
)

const (
	shareCollection  = "shared-schedules"
	shareTTL         = 30 * 24 * time.Hour
	localSharePrefix = "local_"
)

// ShareService publishes read-only schedule snapshots. The mirror is the
// normal home for shares; when it is absent or the publish fails, the share
// degrades to a local copy usable on this device only.
type ShareService struct {
	schedule *ScheduleService
	store    *store.Store
	mirror   mirror.Client // nil means local-only shares
	clock    func() time.Time
}

func NewShareService(schedule *ScheduleService, st *store.Store, mc mirror.Client, clock func() time.Time) *ShareService {
	if clock == nil {
		clock = time.Now
	}
	return &ShareService{schedule: schedule, store: st, mirror: mc, clock: clock}
}

// Publish snapshots subjects and time slots under a title and returns the
// share id. Assignments are private and never shared.
func (s *ShareService) Publish(ctx context.Context, title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("share title is required")
	}
	doc, err := s.schedule.Load(ctx)
	if err != nil {
		return "", err
	}
	if len(doc.Subjects) == 0 && len(doc.TimeSlots) == 0 {
		return "", ErrNoData
	}

	now := s.clock()
	shared := model.SharedSchedule{
		Title:     title,
		Subjects:  doc.Subjects,
		TimeSlots: doc.TimeSlots,
		CreatedAt: now,
		ExpiresAt: now.Add(shareTTL),
	}

	if s.mirror != nil {
		id, err := s.mirror.Append(ctx, shareCollection, shared)
		if err == nil {
			return id, nil
		}
		applog.Info("share: mirror publish failed, keeping local copy", "err", err)
	}

	id := localSharePrefix + uuid.NewString()
	shared.ID = id
	if err := s.store.Put(ctx, store.KeySharedSchedulePrefix+id, shared); err != nil {
		return "", err
	}
	return id, nil
}

// Get resolves a share by id, filtering expired entries. Views are counted
// best-effort on the mirror side.
func (s *ShareService) Get(ctx context.Context, id string) (*model.SharedSchedule, bool, error) {
	now := s.clock()

	if strings.HasPrefix(id, localSharePrefix) || s.mirror == nil {
		var shared model.SharedSchedule
		ok, err := s.store.Get(ctx, store.KeySharedSchedulePrefix+id, &shared)
		if err != nil || !ok || shared.Expired(now) {
			return nil, false, err
		}
		return &shared, true, nil
	}

	var shared model.SharedSchedule
	ok, err := s.mirror.Get(ctx, shareCollection+"/"+id, &shared)
	if err != nil {
		applog.Info("share: mirror read failed", "id", id, "err", err)
		return nil, false, nil
	}
	if !ok || shared.Expired(now) {
		return nil, false, nil
	}
	shared.ID = id

	shared.Views++
	if err := s.mirror.Set(ctx, shareCollection+"/"+id, shared); err != nil {
		applog.Debug("share: view count update failed", "id", id, "err", err)
		shared.Views--
	}
	return &shared, true, nil
}

// Recent lists the newest unexpired shares from the public gallery.
func (s *ShareService) Recent(ctx context.Context, limit int) ([]model.SharedSchedule, error) {
	if s.mirror == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	var all []model.SharedSchedule
	if err := s.mirror.Query(ctx, shareCollection, "createdAt desc", limit, &all); err != nil {
		applog.Info("share: gallery query failed", "err", err)
		return nil, nil
	}

	now := s.clock()
	out := all[:0]
	for _, shared := range all {
		if !shared.Expired(now) {
			out = append(out, shared)
		}
	}
	return out, nil
}
