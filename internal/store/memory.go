package store

import (
	"context"
	"sync"
)

// Memory is an in-process store. Nothing survives a restart.
type Memory struct {
	mu    sync.Mutex
	value string
	saves int
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Save(_ context.Context, transcript string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = transcript
	m.saves++
	return nil
}

func (m *Memory) Load(_ context.Context) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, m.value != ""
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = ""
	return nil
}

// Saves reports how many times Save was called.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
