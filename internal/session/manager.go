// Package session keeps the live workspaces, one per browser tab, keyed by id.
package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/structdraw/backend/internal/models"
	"github.com/structdraw/backend/internal/workspace"
)

// DefaultMaxSessions limits concurrent workspaces to bound stored uploads.
const DefaultMaxSessions = 10

// SessionMaxAge is how long an idle workspace is kept before cleanup.
const SessionMaxAge = 30 * time.Minute

// SessionKeepAliveWindow protects recently used workspaces from eviction.
const SessionKeepAliveWindow = 5 * time.Minute

// ErrNotFound is returned for unknown workspace ids.
var ErrNotFound = errors.New("workspace not found")

// Factory builds the workspace for a new session id.
type Factory func(id string) *workspace.Workspace

// Manager handles the live workspaces.
type Manager struct {
	sessions    map[string]*SessionState
	mu          sync.RWMutex
	factory     Factory
	maxSessions int
}

// SessionState holds a workspace and its access time.
type SessionState struct {
	Workspace    *workspace.Workspace
	LastAccessed time.Time
}

// Summary describes a session for listings.
type Summary struct {
	ID           string                `json:"id"`
	AssetName    string                `json:"assetName,omitempty"`
	Analysis     models.AnalysisStatus `json:"analysis"`
	Subscribers  int                   `json:"subscribers"`
	CreatedAt    int64                 `json:"createdAt"`
	LastAccessed int64                 `json:"lastAccessed"`
}

// NewManager creates a session manager. A non-positive maxSessions uses the default.
func NewManager(factory Factory, maxSessions int) *Manager {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Manager{
		sessions:    make(map[string]*SessionState),
		factory:     factory,
		maxSessions: maxSessions,
	}
}

// Create starts a new workspace. When the manager is full the least recently
// used workspace outside the keep-alive window is closed first.
func (m *Manager) Create() (*workspace.Workspace, error) {
	if evicted := m.evictIfNeeded(); evicted != nil {
		evicted.Close()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.maxSessions {
		return nil, fmt.Errorf("session limit reached (%d active)", len(m.sessions))
	}

	id := uuid.New().String()
	ws := m.factory(id)
	m.sessions[id] = &SessionState{Workspace: ws, LastAccessed: time.Now()}
	fmt.Printf("[Sessions] Created workspace %s (%d active)\n", id[:8], len(m.sessions))
	return ws, nil
}

// evictIfNeeded removes the oldest idle session when at capacity and returns
// it for closing outside the lock.
func (m *Manager) evictIfNeeded() *workspace.Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) < m.maxSessions {
		return nil
	}

	keepAliveCutoff := time.Now().Add(-SessionKeepAliveWindow)
	var oldestID string
	var oldest time.Time
	for id, state := range m.sessions {
		if state.LastAccessed.After(keepAliveCutoff) || state.Workspace.Subscribers() > 0 {
			continue
		}
		if oldestID == "" || state.LastAccessed.Before(oldest) {
			oldestID, oldest = id, state.LastAccessed
		}
	}
	if oldestID == "" {
		return nil
	}

	state := m.sessions[oldestID]
	delete(m.sessions, oldestID)
	fmt.Printf("[Sessions] Evicted idle workspace %s to make room\n", shortID(oldestID))
	return state.Workspace
}

// Get returns a workspace and marks it as used.
func (m *Manager) Get(id string) (*workspace.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	state.LastAccessed = time.Now()
	return state.Workspace, nil
}

// Delete closes and removes a workspace.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	state, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	state.Workspace.Close()
	return nil
}

// CleanupOldSessions closes workspaces idle for longer than maxAge. Workspaces
// with a connected event stream are kept.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	var expired []*SessionState
	for id, state := range m.sessions {
		if state.Workspace.Subscribers() > 0 {
			continue
		}
		if state.LastAccessed.Before(cutoff) {
			delete(m.sessions, id)
			expired = append(expired, state)
			fmt.Printf("[Sessions] Cleaned up aged workspace %s (last accessed: %s ago)\n",
				shortID(id), time.Since(state.LastAccessed).Round(time.Second))
		}
	}
	m.mu.Unlock()

	for _, state := range expired {
		state.Workspace.Close()
	}
	return len(expired)
}

// List summarises the live workspaces, most recently used first.
func (m *Manager) List() []Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Summary, 0, len(m.sessions))
	for id, state := range m.sessions {
		s := Summary{
			ID:           id,
			Analysis:     state.Workspace.Analysis().Status,
			Subscribers:  state.Workspace.Subscribers(),
			CreatedAt:    state.Workspace.CreatedAt().UnixMilli(),
			LastAccessed: state.LastAccessed.UnixMilli(),
		}
		if asset, ok := state.Workspace.Asset(); ok {
			s.AssetName = asset.Name
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastAccessed > out[j].LastAccessed })
	return out
}

// Count returns the number of live workspaces.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll closes every workspace.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	states := make([]*SessionState, 0, len(m.sessions))
	for id, state := range m.sessions {
		states = append(states, state)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, state := range states {
		state.Workspace.Close()
	}
}

// touchAt overrides a session's access time.
func (m *Manager) touchAt(id string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.sessions[id]; ok {
		state.LastAccessed = t
	}
}

// shortID safely truncates an ID for logging (handles short IDs gracefully)
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
