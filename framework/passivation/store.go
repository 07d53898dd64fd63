package passivation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when no snapshot is stored for a session, or the
// stored one has expired.
var ErrNotFound = errors.New("passivation: snapshot not found")

// Snapshot is the passivated state of one session: the encoded instance of
// every passivation-capable session bean, keyed by bean id.
type Snapshot struct {
	SessionID    string                     `json:"session_id"`
	Beans        map[string]json.RawMessage `json:"beans"`
	PassivatedAt time.Time                  `json:"passivated_at"`
}

// Store keeps session snapshots between passivation and activation.
type Store interface {
	Save(ctx context.Context, snap *Snapshot, ttl time.Duration) error
	Load(ctx context.Context, sessionID string) (*Snapshot, error)
	Delete(ctx context.Context, sessionID string) error
}

// ── Memory ──────────────────────────────────────────────────────────────────

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps snapshots in process memory. Snapshots are stored
// encoded so a loaded snapshot never aliases a saved one.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// Save stores snap. A zero ttl never expires.
func (s *MemoryStore) Save(_ context.Context, snap *Snapshot, ttl time.Duration) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	e := memoryEntry{data: data}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[snap.SessionID] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (*Snapshot, error) {
	s.mu.Lock()
	e, ok := s.entries[sessionID]
	if ok && !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		delete(s.entries, sessionID)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	var snap Snapshot
	if err := json.Unmarshal(e.data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.entries, sessionID)
	s.mu.Unlock()
	return nil
}

// Len is the number of stored snapshots, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
