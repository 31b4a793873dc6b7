package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMem is an in-memory Client for tests and single-node runs without a
// remote document store.
type InMem struct {
	mu   sync.Mutex
	docs map[string][]byte
	cols map[string][]colEntry
}

type colEntry struct {
	id      string
	raw     []byte
	addedAt time.Time
}

func NewInMem() *InMem {
	return &InMem{
		docs: make(map[string][]byte),
		cols: make(map[string][]colEntry),
	}
}

func (m *InMem) Get(ctx context.Context, key string, out any) (bool, error) {
	m.mu.Lock()
	raw, ok := m.docs[key]
	if !ok {
		// Collection item keys read through to the collection.
		if col, id, split := splitItemKey(key); split {
			for _, e := range m.cols[col] {
				if e.id == id {
					raw, ok = e.raw, true
					break
				}
			}
		}
	}
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode document %q: %w", key, err)
	}
	return true, nil
}

func (m *InMem) Set(ctx context.Context, key string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document %q: %w", key, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if col, id, split := splitItemKey(key); split {
		if entries, ok := m.cols[col]; ok {
			for i, e := range entries {
				if e.id == id {
					entries[i].raw = raw
					return nil
				}
			}
		}
	}
	m.docs[key] = raw
	return nil
}

func (m *InMem) Append(ctx context.Context, collection string, doc any) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	id := uuid.NewString()
	m.mu.Lock()
	m.cols[collection] = append(m.cols[collection], colEntry{id: id, raw: raw, addedAt: time.Now()})
	m.mu.Unlock()
	return id, nil
}

func (m *InMem) Query(ctx context.Context, collection, orderBy string, limit int, out any) error {
	m.mu.Lock()
	entries := append([]colEntry(nil), m.cols[collection]...)
	m.mu.Unlock()

	// Newest-first is the only ordering callers use.
	if strings.HasSuffix(orderBy, "desc") {
		sort.Slice(entries, func(i, j int) bool { return entries[i].addedAt.After(entries[j].addedAt) })
	} else {
		sort.Slice(entries, func(i, j int) bool { return entries[i].addedAt.Before(entries[j].addedAt) })
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	items := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		// Surface the assigned id inside each document.
		var withID map[string]json.RawMessage
		if err := json.Unmarshal(e.raw, &withID); err == nil {
			idRaw, _ := json.Marshal(e.id)
			withID["id"] = idRaw
			if merged, err := json.Marshal(withID); err == nil {
				items = append(items, merged)
				continue
			}
		}
		items = append(items, e.raw)
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func splitItemKey(key string) (collection, id string, ok bool) {
	i := strings.IndexByte(key, '/')
	if i <= 0 || i == len(key)-1 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}
