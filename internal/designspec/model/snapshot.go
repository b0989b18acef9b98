package model

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/zeebo/blake3"

	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/domain"
)

// Snapshot is an immutable design model together with its fingerprint.
// Published snapshots must never be modified.
type Snapshot struct {
	Model       *domain.DesignModel
	Fingerprint string
	Source      string
	LoadedAt    time.Time
}

// NewSnapshot fingerprints m. The fingerprint is stable across processes
// because encoding/json sorts map keys.
func NewSnapshot(m *domain.DesignModel, source string) (*Snapshot, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint design model: %w", err)
	}
	sum := blake3.Sum256(b)
	return &Snapshot{
		Model:       m,
		Fingerprint: hex.EncodeToString(sum[:8]),
		Source:      source,
		LoadedAt:    time.Now(),
	}, nil
}

// Holder publishes the current snapshot. Readers take one snapshot per
// operation so a call never sees two different models.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

func NewHolder(s *Snapshot) *Holder {
	h := &Holder{}
	h.current.Store(s)
	return h
}

func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// Swap publishes s and returns the previous snapshot.
func (h *Holder) Swap(s *Snapshot) *Snapshot {
	return h.current.Swap(s)
}

// Reload loads a fresh model with l and publishes it. On error the current
// snapshot stays in place.
func (h *Holder) Reload(l *Loader) (*Snapshot, error) {
	m, err := l.Load()
	if err != nil {
		return nil, err
	}
	s, err := NewSnapshot(m, l.Source())
	if err != nil {
		return nil, err
	}
	h.Swap(s)
	return s, nil
}
