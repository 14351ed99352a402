package hotfolder

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Manager owns a named set of hotfolders
type Manager struct {
	mu      sync.RWMutex
	folders map[string]*Hotfolder
	owned   []io.Closer
	logger  *zap.Logger
}

// NewManager creates an empty manager
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		folders: make(map[string]*Hotfolder),
		logger:  logger,
	}
}

// Add registers h under its ID
func (m *Manager) Add(h *Hotfolder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.folders[h.ID()]; exists {
		return fmt.Errorf("hotfolder %q already registered", h.ID())
	}
	m.folders[h.ID()] = h
	return nil
}

// Get returns the hotfolder registered under id
func (m *Manager) Get(id string) (*Hotfolder, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.folders[id]
	return h, ok
}

// List returns every hotfolder ordered by ID
func (m *Manager) List() []*Hotfolder {
	m.mu.RLock()
	list := make([]*Hotfolder, 0, len(m.folders))
	for _, h := range m.folders {
		list = append(list, h)
	}
	m.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].ID() < list[j].ID() })
	return list
}

// StartAll starts every hotfolder. It keeps going past failures and
// returns the first error.
func (m *Manager) StartAll() error {
	var firstErr error
	for _, h := range m.List() {
		if err := h.Start(); err != nil {
			m.logger.Error("Failed to start hotfolder", zap.String("hotfolder", h.ID()), zap.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("hotfolder %s: %w", h.ID(), err)
			}
		}
	}
	return firstErr
}

// StopAll stops every hotfolder concurrently and waits for all of them
func (m *Manager) StopAll() {
	var wg sync.WaitGroup
	for _, h := range m.List() {
		wg.Add(1)
		go func(h *Hotfolder) {
			defer wg.Done()
			h.Stop()
		}(h)
	}
	wg.Wait()
}

// Own hands c to the manager, which closes it in Close
func (m *Manager) Own(c io.Closer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owned = append(m.owned, c)
}

// Close stops every hotfolder, then closes their folder handles and
// everything passed to Own
func (m *Manager) Close() error {
	m.StopAll()

	var errs []error
	for _, h := range m.List() {
		if err := h.Close(); err != nil {
			errs = append(errs, fmt.Errorf("hotfolder %s: %w", h.ID(), err))
		}
	}

	m.mu.Lock()
	owned := m.owned
	m.owned = nil
	m.mu.Unlock()
	for _, c := range owned {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
