package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	applog "class-planner/internal/log"
	"class-planner/internal/mirror"
	"class-planner/internal/store"
)

const (
	remoteFailureThreshold = 3
	remotePauseBase        = 30 * time.Second
	remotePauseMax         = 10 * time.Minute
)

// SyncResult records the outcome of the most recent save of one key.
// The caller of Save never sees remote failures; diagnostics do.
type SyncResult struct {
	Key           string
	LocalDurable  bool
	RemoteDurable bool
	RemoteErr     error
	At            time.Time
}

// SyncService coordinates the Local Store and the Remote Mirror: the local
// write is the durability guarantee and completes synchronously, the mirror
// write is attempted asynchronously and its failure degrades silently.
// Last write wins on both sides; there are no version vectors.
type SyncService struct {
	store   *store.Store
	mirror  mirror.Client // nil means local-only
	timeout time.Duration
	now     func() time.Time

	mu         sync.Mutex
	last       map[string]SyncResult
	failures   int
	pauseUntil time.Time

	wg sync.WaitGroup
}

func NewSyncService(st *store.Store, mc mirror.Client, timeout time.Duration) *SyncService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SyncService{
		store:   st,
		mirror:  mc,
		timeout: timeout,
		now:     time.Now,
		last:    make(map[string]SyncResult),
	}
}

// Load prefers the mirror and refreshes the local copy on a successful remote
// read; any mirror error or absence falls back to the local store. Only a
// local read failure is returned as an error.
func (s *SyncService) Load(ctx context.Context, key string, out any) (bool, error) {
	if s.mirror != nil && !s.paused() {
		rctx, cancel := context.WithTimeout(ctx, s.timeout)
		ok, err := s.mirror.Get(rctx, key, out)
		cancel()
		switch {
		case err == nil && ok:
			s.recordRemote(key, nil)
			if perr := s.store.Put(ctx, key, out); perr != nil {
				applog.Error("sync: failed to refresh local copy", perr, "key", key)
			}
			return true, nil
		case err != nil:
			s.recordRemote(key, err)
			applog.Info("sync: mirror read failed, using local copy", "key", key, "err", err)
		}
	}
	return s.store.Get(ctx, key, out)
}

// Save writes the local store synchronously, which completes the operation,
// then attempts the mirror write in the background. The value
// is marshaled once, up front, so the caller may keep mutating doc afterwards.
func (s *SyncService) Save(ctx context.Context, key string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}
	if err := s.store.PutRaw(ctx, key, raw); err != nil {
		return err
	}

	if s.mirror == nil {
		s.record(SyncResult{Key: key, LocalDurable: true, At: s.now()})
		return nil
	}
	if s.paused() {
		applog.Debug("sync: mirror paused after repeated failures, skipping", "key", key)
		s.record(SyncResult{Key: key, LocalDurable: true, At: s.now()})
		return nil
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		rctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		err := s.mirror.Set(rctx, key, json.RawMessage(raw))
		s.recordRemote(key, err)
		if err != nil {
			applog.Info("sync: mirror write failed, data saved locally", "key", key, "err", err)
		}
	}()
	return nil
}

// Wait blocks until all in-flight mirror writes have finished.
func (s *SyncService) Wait() {
	s.wg.Wait()
}

// LastResult returns the recorded outcome of the latest save of key.
func (s *SyncService) LastResult(key string) (SyncResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.last[key]
	return r, ok
}

// Degraded reports whether remote replication is currently being skipped.
func (s *SyncService) Degraded() bool {
	return s.mirror == nil || s.paused()
}

func (s *SyncService) paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().Before(s.pauseUntil)
}

func (s *SyncService) record(r SyncResult) {
	s.mu.Lock()
	s.last[r.Key] = r
	s.mu.Unlock()
}

func (s *SyncService) recordRemote(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.last[key] = SyncResult{
		Key:           key,
		LocalDurable:  true,
		RemoteDurable: err == nil,
		RemoteErr:     err,
		At:            now,
	}
	if err == nil {
		s.failures = 0
		s.pauseUntil = time.Time{}
		return
	}
	s.failures++
	if s.failures >= remoteFailureThreshold {
		pause := remotePauseBase << uint(s.failures-remoteFailureThreshold)
		if pause > remotePauseMax || pause <= 0 {
			pause = remotePauseMax
		}
		s.pauseUntil = now.Add(pause)
		applog.Info("sync: pausing mirror attempts", "failures", s.failures, "pause", pause)
	}
}
