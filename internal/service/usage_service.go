package service

import (
	"context"
	"time"

	applog "class-planner/internal/log"
	"class-planner/internal/mirror"
	"class-planner/internal/model"
)

const usageCollection = "analytics"

// UsageService records app usage events on the mirror, best-effort. A failed
// or absent mirror drops the event silently: usage tracking must never affect
// the planner's behavior.
type UsageService struct {
	mirror   mirror.Client // nil means tracking is off
	deviceID string
	clock    func() time.Time
}

func NewUsageService(mc mirror.Client, deviceID string, clock func() time.Time) *UsageService {
	if clock == nil {
		clock = time.Now
	}
	return &UsageService{mirror: mc, deviceID: deviceID, clock: clock}
}

// Track appends one usage event. It never returns an error.
func (s *UsageService) Track(ctx context.Context, action string) {
	if s.mirror == nil || action == "" {
		return
	}
	event := model.UsageEvent{
		Action:   action,
		DeviceID: s.deviceID,
		At:       s.clock(),
	}
	if _, err := s.mirror.Append(ctx, usageCollection, event); err != nil {
		applog.Debug("usage: track failed", "action", action, "err", err)
	}
}
