package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	applog "class-planner/internal/log"
	"class-planner/internal/model"
	"class-planner/internal/store"
)

const (
	inAppLimit  = 50
	fireTimeout = 5 * time.Second
)

// Sender is the platform-level alert channel (Telegram in production, a fake
// in tests). A nil sender means the platform is unavailable.
type Sender interface {
	Send(ctx context.Context, title, message string) error
}

// NotificationService is the gateway in front of the platform alert channel.
// When permission is absent or a platform send fails, messages degrade to the
// persisted in-app notification list instead of erroring.
type NotificationService struct {
	sender  Sender
	sync    *SyncService
	planner *Planner

	mu      sync.Mutex
	asked   bool
	granted bool
	pending map[Handle]model.ScheduledNotification
}

func NewNotificationService(sender Sender, syncSvc *SyncService, planner *Planner) *NotificationService {
	return &NotificationService{
		sender:  sender,
		sync:    syncSvc,
		planner: planner,
		pending: make(map[Handle]model.ScheduledNotification),
	}
}

// SetSender installs the platform channel after construction; the bot and
// the gateway reference each other, so one side has to be wired late.
// Must be called before RequestPermission.
func (s *NotificationService) SetSender(sender Sender) {
	s.mu.Lock()
	s.sender = sender
	s.mu.Unlock()
}

// RequestPermission probes the platform channel once per process lifetime and
// caches the answer. The cache is intentionally not persisted: a restart
// re-queries the live channel, not a stale flag.
func (s *NotificationService) RequestPermission(ctx context.Context) bool {
	s.mu.Lock()
	if s.asked {
		granted := s.granted
		s.mu.Unlock()
		return granted
	}
	s.asked = true
	sender := s.sender
	s.mu.Unlock()

	granted := false
	if sender != nil {
		err := sender.Send(ctx, "Notifications enabled",
			"You'll receive reminders for your classes and assignments")
		if err != nil {
			applog.Info("notifications: platform channel unavailable", "err", err)
		}
		granted = err == nil
	}

	s.mu.Lock()
	s.granted = granted
	s.mu.Unlock()
	return granted
}

// Granted reports the cached permission state without prompting.
func (s *NotificationService) Granted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.asked && s.granted
}

// FireNow delivers immediately: platform channel when granted, in-app list
// otherwise or on any platform error. Delivery problems never surface as
// errors, only as reduced functionality.
func (s *NotificationService) FireNow(ctx context.Context, title, message string, typ model.NotificationType) {
	s.mu.Lock()
	granted := s.asked && s.granted
	sender := s.sender
	s.mu.Unlock()

	if granted && sender != nil {
		err := sender.Send(ctx, title, message)
		if err == nil {
			return
		}
		applog.Info("notifications: platform send failed, falling back in-app", "err", err)
	}
	s.appendInApp(ctx, title, message, typ)
}

// ScheduleAt arms a one-shot delayed FireNow. A scheduled time in the past is
// treated as already missed and nothing is armed. The pending entry is
// registered under the same lock fire takes, so a timer firing before
// ScheduleAt returns waits for the registration instead of missing it.
func (s *NotificationService) ScheduleAt(n model.ScheduledNotification) (Handle, bool) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.planner.Arm(n.ScheduledTime, s.fire)
	if !ok {
		return 0, false
	}
	s.pending[h] = n
	return h, true
}

// Cancel drops one pending notification.
func (s *NotificationService) Cancel(h Handle) {
	s.planner.Cancel(h)
	s.mu.Lock()
	delete(s.pending, h)
	s.mu.Unlock()
}

// CancelScheduled drops every pending notification; the re-plan pass calls
// this before re-arming.
func (s *NotificationService) CancelScheduled() {
	s.planner.Clear()
	s.mu.Lock()
	s.pending = make(map[Handle]model.ScheduledNotification)
	s.mu.Unlock()
}

// Pending returns a snapshot of not-yet-fired notifications.
func (s *NotificationService) Pending() []model.ScheduledNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ScheduledNotification, 0, len(s.pending))
	for _, n := range s.pending {
		out = append(out, n)
	}
	return out
}

// InApp returns the persisted fallback list, newest first.
func (s *NotificationService) InApp(ctx context.Context) ([]model.InAppNotification, error) {
	var list []model.InAppNotification
	if _, err := s.sync.Load(ctx, store.KeyInAppNotifications, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// UnreadCount is what the badge poll reports.
func (s *NotificationService) UnreadCount(ctx context.Context) (int, error) {
	list, err := s.InApp(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, item := range list {
		if !item.Read {
			n++
		}
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	list, err := s.InApp(ctx)
	if err != nil {
		return err
	}
	for i := range list {
		list[i].Read = true
	}
	return s.sync.Save(ctx, store.KeyInAppNotifications, list)
}

// Settings returns the persisted notification preferences, defaulted when absent.
func (s *NotificationService) Settings(ctx context.Context) (model.NotificationSettings, error) {
	settings := model.DefaultNotificationSettings()
	if _, err := s.sync.Load(ctx, store.KeyNotificationSettings, &settings); err != nil {
		return model.NotificationSettings{}, err
	}
	return settings, nil
}

func (s *NotificationService) UpdateSettings(ctx context.Context, settings model.NotificationSettings) error {
	return s.sync.Save(ctx, store.KeyNotificationSettings, settings)
}

func (s *NotificationService) fire(h Handle) {
	s.mu.Lock()
	n, ok := s.pending[h]
	delete(s.pending, h)
	s.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
	defer cancel()
	s.FireNow(ctx, n.Title, n.Message, n.Type)
}

func (s *NotificationService) appendInApp(ctx context.Context, title, message string, typ model.NotificationType) {
	list, err := s.InApp(ctx)
	if err != nil {
		applog.Error("notifications: failed to read in-app list", err)
		list = nil
	}
	list = append([]model.InAppNotification{{
		ID:        uuid.NewString(),
		Title:     title,
		Message:   message,
		Type:      typ,
		CreatedAt: time.Now(),
	}}, list...)
	if len(list) > inAppLimit {
		list = list[:inAppLimit]
	}
	if err := s.sync.Save(ctx, store.KeyInAppNotifications, list); err != nil {
		applog.Error("notifications: failed to persist in-app list", err)
	}
}
