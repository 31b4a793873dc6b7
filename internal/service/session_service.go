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

// SessionService owns device identity and the current role/user. These keys
// are local-only and never mirrored: identity belongs to one device. Students
// additionally appear on the logged-students presence list while signed in.
type SessionService struct {
	store *store.Store
	clock func() time.Time
	mu    sync.Mutex
}

func NewSessionService(st *store.Store, clock func() time.Time) *SessionService {
	if clock == nil {
		clock = time.Now
	}
	return &SessionService{store: st, clock: clock}
}

// DeviceID returns the persisted device identifier, generating one on first
// launch.
func (s *SessionService) DeviceID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id string
	ok, err := s.store.Get(ctx, store.KeyDeviceID, &id)
	if err != nil {
		return "", err
	}
	if ok && id != "" {
		return id, nil
	}
	id = "device_" + uuid.NewString()
	if err := s.store.Put(ctx, store.KeyDeviceID, id); err != nil {
		return "", err
	}
	return id, nil
}

// Start builds a session for the chosen role, persisting role and user and
// registering students on the presence list.
func (s *SessionService) Start(ctx context.Context, role model.Role, user model.SessionUser) (*model.Session, error) {
	if role != model.RoleStudent && role != model.RoleTeacher {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if user.Name == "" {
		return nil, fmt.Errorf("user name is required")
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	deviceID, err := s.DeviceID(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Put(ctx, store.KeyUserRole, role); err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, store.KeyCurrentUser, user); err != nil {
		return nil, err
	}

	now := s.clock()
	if role == model.RoleStudent {
		if err := s.addPresence(ctx, user, now); err != nil {
			return nil, err
		}
	}

	return &model.Session{
		DeviceID:  deviceID,
		Role:      role,
		User:      user,
		StartedAt: now,
	}, nil
}

// Resume rebuilds the session persisted by a previous Start, if any.
func (s *SessionService) Resume(ctx context.Context) (*model.Session, bool, error) {
	var role model.Role
	ok, err := s.store.Get(ctx, store.KeyUserRole, &role)
	if err != nil || !ok {
		return nil, false, err
	}
	var user model.SessionUser
	if _, err := s.store.Get(ctx, store.KeyCurrentUser, &user); err != nil {
		return nil, false, err
	}
	deviceID, err := s.DeviceID(ctx)
	if err != nil {
		return nil, false, err
	}
	return &model.Session{DeviceID: deviceID, Role: role, User: user, StartedAt: s.clock()}, true, nil
}

// End tears the session down on role switch: role and user keys are cleared
// and students leave the presence list. The device id survives.
func (s *SessionService) End(ctx context.Context, sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, store.KeyUserRole); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, store.KeyCurrentUser); err != nil {
		return err
	}
	if sess != nil && sess.Role == model.RoleStudent {
		return s.removePresence(ctx, sess.User.ID)
	}
	return nil
}

// Presence is the list of students currently signed in, for teachers.
func (s *SessionService) Presence(ctx context.Context) ([]model.LoggedStudent, error) {
	var list []model.LoggedStudent
	if _, err := s.store.Get(ctx, store.KeyLoggedStudents, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *SessionService) addPresence(ctx context.Context, user model.SessionUser, now time.Time) error {
	var list []model.LoggedStudent
	if _, err := s.store.Get(ctx, store.KeyLoggedStudents, &list); err != nil {
		return err
	}
	for i := range list {
		if list[i].ID == user.ID {
			list[i].Name = user.Name
			list[i].LoginTime = now
			return s.store.Put(ctx, store.KeyLoggedStudents, list)
		}
	}
	list = append(list, model.LoggedStudent{ID: user.ID, Name: user.Name, LoginTime: now})
	return s.store.Put(ctx, store.KeyLoggedStudents, list)
}

func (s *SessionService) removePresence(ctx context.Context, userID string) error {
	var list []model.LoggedStudent
	if _, err := s.store.Get(ctx, store.KeyLoggedStudents, &list); err != nil {
		return err
	}
	kept := list[:0]
	for _, st := range list {
		if st.ID != userID {
			kept = append(kept, st)
		}
	}
	return s.store.Put(ctx, store.KeyLoggedStudents, kept)
}
