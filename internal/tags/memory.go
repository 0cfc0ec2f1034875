package tags

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps tag definitions and latest values in memory
type MemoryStore struct {
	mu      sync.RWMutex
	defs    map[string]Definition
	byName  map[string]string
	values  map[string]map[string]Entry
	writes  int
	nowFunc func() time.Time
}

// NewMemoryStore creates an empty in-memory tag store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		defs:    make(map[string]Definition),
		byName:  make(map[string]string),
		values:  make(map[string]map[string]Entry),
		nowFunc: time.Now,
	}
}

// RegisterTagDefinition implements Sink. Ids are assigned sequentially;
// registering an existing name replaces its definition and keeps the id.
func (m *MemoryStore) RegisterTagDefinition(def Definition) (string, error) {
	if def.Name == "" {
		return "", fmt.Errorf("tag definition requires a name")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, exists := m.byName[def.Name]; exists {
		m.defs[id] = def
		return id, nil
	}
	id := fmt.Sprintf("tag-%d", len(m.defs)+1)
	m.defs[id] = def
	m.byName[def.Name] = id
	m.values[id] = make(map[string]Entry)
	return id, nil
}

// UpdateTagValue implements Sink
func (m *MemoryStore) UpdateTagValue(tagID, callsign, value string, color *Color) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	values, ok := m.values[tagID]
	if !ok {
		return fmt.Errorf("unknown tag id %q", tagID)
	}
	entry := Entry{
		TagID:     tagID,
		Callsign:  callsign,
		Value:     value,
		UpdatedAt: m.nowFunc(),
	}
	if color != nil {
		c := *color
		entry.Color = &c
	}
	values[callsign] = entry
	m.writes++
	return nil
}

// LookupTag implements Reader
func (m *MemoryStore) LookupTag(name string) (string, Definition, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[name]
	if !ok {
		return "", Definition{}, false
	}
	return id, m.defs[id], true
}

// Values implements Reader
func (m *MemoryStore) Values(tagID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	values, ok := m.values[tagID]
	if !ok {
		return nil, fmt.Errorf("unknown tag id %q", tagID)
	}
	out := make([]Entry, 0, len(values))
	for _, e := range values {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Callsign < out[j].Callsign })
	return out, nil
}

// Get returns the current entry of a tag for one callsign
func (m *MemoryStore) Get(tagID, callsign string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.values[tagID][callsign]
	return e, ok
}

// Writes returns the number of successful UpdateTagValue calls
func (m *MemoryStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
