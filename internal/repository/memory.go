package repository

import (
	"context"
	"sync"

	"github.com/jwalitptl/alert-engine/internal/model"
)

// MemoryStore is a Store kept entirely in process memory. It backs tests
// and deployments without Redis configured.
type MemoryStore struct {
	mu           sync.Mutex
	settings     *model.QuietHoursSettings
	interactions []model.Interaction
	counters     map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[string]int64)}
}

func (m *MemoryStore) SaveSettings(_ context.Context, s model.QuietHoursSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = &s
	return nil
}

func (m *MemoryStore) LoadSettings(_ context.Context) (model.QuietHoursSettings, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		return model.QuietHoursSettings{}, false, nil
	}
	return *m.settings, true, nil
}

func (m *MemoryStore) SaveInteractions(_ context.Context, records []model.Interaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interactions = append([]model.Interaction(nil), records...)
	return nil
}

func (m *MemoryStore) LoadInteractions(_ context.Context) ([]model.Interaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Interaction(nil), m.interactions...), nil
}

func (m *MemoryStore) IncrCounter(_ context.Context, name string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] += delta
	return m.counters[name], nil
}

func (m *MemoryStore) Counters(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		out[k] = v
	}
	return out, nil
}
