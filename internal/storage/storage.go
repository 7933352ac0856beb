package storage

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/eugenenazirov/conductor-config/internal/conductor"
)

var (
	// ErrNoSnapshot indicates nothing has been stored yet.
	ErrNoSnapshot = errors.New("no resolved configuration has been stored")
	// ErrInvalidSnapshot indicates the snapshot to store carries no configuration.
	ErrInvalidSnapshot = errors.New("snapshot must carry a resolved configuration")
)

// Snapshot is a resolved configuration together with the source it came from.
type Snapshot struct {
	Config     *conductor.Config
	Source     []byte
	ResolvedAt time.Time
}

// Storage provides access to the currently active resolved configuration.
type Storage interface {
	GetSnapshot() (Snapshot, error)
	SetSnapshot(snapshot Snapshot) error
}

// MemoryStorage keeps the snapshot in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu       sync.RWMutex
	snapshot *Snapshot
}

// NewMemoryStorage initialises an empty storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// GetSnapshot returns a copy of the stored snapshot.
func (s *MemoryStorage) GetSnapshot() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return Snapshot{}, ErrNoSnapshot
	}
	return cloneSnapshot(*s.snapshot), nil
}

// SetSnapshot validates and stores a copy of the snapshot.
func (s *MemoryStorage) SetSnapshot(snapshot Snapshot) error {
	if snapshot.Config == nil {
		return ErrInvalidSnapshot
	}

	stored := cloneSnapshot(snapshot)

	s.mu.Lock()
	s.snapshot = &stored
	s.mu.Unlock()

	return nil
}

func cloneSnapshot(src Snapshot) Snapshot {
	out := Snapshot{
		Source:     slices.Clone(src.Source),
		ResolvedAt: src.ResolvedAt,
	}
	if src.Config != nil {
		out.Config = src.Config.Clone()
	}
	return out
}
