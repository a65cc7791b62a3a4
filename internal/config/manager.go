package config

import (
	"sync"
)

// Manager owns the live config: it serialises updates, persists each
// accepted change, and tells listeners about the new settings.
type Manager struct {
	mu   sync.Mutex
	path string
	cfg  *Config

	// onChange, when set, runs after an accepted update with the new
	// config, still under the manager's lock.
	onChange func(*Config)
}

// NewManager wraps an already-loaded config. path is where accepted
// updates are persisted.
func NewManager(path string, cfg *Config) *Manager {
	return &Manager{path: path, cfg: cfg}
}

// OnChange registers the callback invoked after each accepted update.
func (m *Manager) OnChange(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Current returns a copy of the live config.
func (m *Manager) Current() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.cfg
}

// Update applies a partial change. If validation or persistence fails
// the live config is unchanged and the error describes why.
func (m *Manager) Update(u *Update) (Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := m.cfg.Apply(u)
	if err != nil {
		return *m.cfg, err
	}
	if err := next.Save(m.path); err != nil {
		return *m.cfg, err
	}

	m.cfg = next
	if m.onChange != nil {
		m.onChange(next)
	}
	return *next, nil
}
