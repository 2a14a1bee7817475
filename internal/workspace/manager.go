// Package workspace keeps the editor state of every open browser tab.
package workspace

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aetherdebug/aetherdebug/internal/catalog"
	"github.com/aetherdebug/aetherdebug/internal/debugger"
	"github.com/aetherdebug/aetherdebug/internal/domain"
)

// ErrRunInProgress is returned when a session is asked to run while its
// previous run has not finished.
var ErrRunInProgress = errors.New("a run is already in progress for this session")

// Runner executes the Run action.
type Runner interface {
	Run(ctx context.Context, req debugger.Request, observe debugger.Observer) (debugger.Report, error)
}

// Manager stores sessions keyed by user and tab session ID.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]map[string]*domain.Session
	catalog  *catalog.Catalog
	runner   Runner
}

// NewManager creates a session manager.
func NewManager(cat *catalog.Catalog, runner Runner) *Manager {
	return &Manager{
		sessions: make(map[string]map[string]*domain.Session),
		catalog:  cat,
		runner:   runner,
	}
}

// session returns the session for userID/sessionID, creating it with the
// initial language. Callers must hold m.mu.
func (m *Manager) session(userID, sessionID string) *domain.Session {
	if _, ok := m.sessions[userID]; !ok {
		m.sessions[userID] = make(map[string]*domain.Session)
	}
	s, ok := m.sessions[userID][sessionID]
	if !ok {
		s = &domain.Session{UserID: userID, SessionID: sessionID}
		s.Reset(m.catalog.Initial())
		m.sessions[userID][sessionID] = s
		slog.Debug("Editor session created", "user_id", userID, "session_id", sessionID)
	}
	return s
}

// Get returns a copy of the session state.
func (m *Manager) Get(userID, sessionID string) domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.session(userID, sessionID)
}

// UpdateCode replaces the editor contents. Output panels are left alone.
func (m *Manager) UpdateCode(userID, sessionID, code string) domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session(userID, sessionID)
	s.Code = code
	s.UpdatedAt = time.Now()
	return *s
}

// SelectLanguage switches language and resets code and panels to the
// language defaults.
func (m *Manager) SelectLanguage(userID, sessionID, langID string) (domain.Session, error) {
	lang, err := m.catalog.Lookup(langID)
	if err != nil {
		return domain.Session{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session(userID, sessionID)
	if s.IsLoading {
		return *s, ErrRunInProgress
	}
	s.Reset(lang)
	return *s, nil
}

// Edit is editor state carried along with a run request.
type Edit struct {
	Code string
	// Language switches language first when set and different.
	Language string
}

// Run executes the session's current code. A second Run on the same
// session while the first is in flight fails with ErrRunInProgress.
func (m *Manager) Run(ctx context.Context, userID, sessionID string, observe debugger.Observer) (domain.Session, debugger.Report, error) {
	return m.run(ctx, userID, sessionID, nil, observe)
}

// RunEdited applies edit and runs in one step. A rejected run leaves the
// session untouched.
func (m *Manager) RunEdited(ctx context.Context, userID, sessionID string, edit Edit, observe debugger.Observer) (domain.Session, debugger.Report, error) {
	return m.run(ctx, userID, sessionID, &edit, observe)
}

func (m *Manager) run(ctx context.Context, userID, sessionID string, edit *Edit, observe debugger.Observer) (domain.Session, debugger.Report, error) {
	m.mu.Lock()
	s := m.session(userID, sessionID)
	if s.IsLoading {
		snapshot := *s
		m.mu.Unlock()
		return snapshot, debugger.Report{}, ErrRunInProgress
	}
	langID := s.Language
	if edit != nil && edit.Language != "" {
		langID = edit.Language
	}
	lang, err := m.catalog.Lookup(langID)
	if err != nil {
		snapshot := *s
		m.mu.Unlock()
		return snapshot, debugger.Report{}, err
	}
	if edit != nil {
		if lang.ID != s.Language {
			s.Reset(lang)
		}
		s.Code = edit.Code
	}
	s.IsLoading = true
	s.ClearResults()
	req := debugger.Request{
		UserID:    userID,
		SessionID: sessionID,
		Language:  lang,
		Code:      s.Code,
	}
	m.mu.Unlock()

	// Panels follow the pipeline as it progresses so pollers see partial results.
	report, err := m.runner.Run(ctx, req, func(stage debugger.Stage, snap debugger.Report) {
		m.mu.Lock()
		s.Output = snap.Output
		s.Explanation = snap.Explanation
		s.SuggestedFix = snap.SuggestedFix
		s.UpdatedAt = time.Now()
		m.mu.Unlock()
		if observe != nil {
			observe(stage, snap)
		}
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	s.IsLoading = false
	s.UpdatedAt = time.Now()
	if err == nil {
		s.Output = report.Output
		s.Explanation = report.Explanation
		s.SuggestedFix = report.SuggestedFix
	}
	return *s, report, err
}

// Prune drops idle sessions that are not running and returns how many were removed.
func (m *Manager) Prune(idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-idle)
	removed := 0
	for userID, sessions := range m.sessions {
		for sid, s := range sessions {
			if !s.IsLoading && s.UpdatedAt.Before(cutoff) {
				delete(sessions, sid)
				removed++
			}
		}
		if len(sessions) == 0 {
			delete(m.sessions, userID)
		}
	}
	return removed
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, sessions := range m.sessions {
		n += len(sessions)
	}
	return n
}
