package store

import (
	"slices"
	"sync"
)

// Memory is a Store that lives only as long as the process. It backs
// ephemeral catalogs and tests.
type Memory struct {
	mu      sync.Mutex
	records map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string][]byte)}
}

func (m *Memory) Store(key string, data []byte, overwrite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[key]; ok && !overwrite {
		return nil
	}
	m.records[key] = slices.Clone(data)
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, key)
	return nil
}

// Load decodes a snapshot of the records in key order, so decode may call
// back into the store.
func (m *Memory) Load(decode DecodeFunc) error {
	m.mu.Lock()
	keys := make([]string, 0, len(m.records))
	for k := range m.records {
		keys = append(keys, k)
	}
	snapshot := make(map[string][]byte, len(m.records))
	for k, v := range m.records {
		snapshot[k] = v
	}
	m.mu.Unlock()

	slices.Sort(keys)
	for _, k := range keys {
		if err := decode(k, slices.Clone(snapshot[k])); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of records.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *Memory) Close() error {
	return nil
}
