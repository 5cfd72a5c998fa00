package console

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pet-run-board/internal/domain/runboard"
	"pet-run-board/internal/platform/logger"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrOperatorMissing = errors.New("operator required")
)

type entry struct {
	id         string
	operatorID string
	session    *runboard.Session
	createdAt  time.Time
	lastUsed   time.Time
}

// Manager guarda las sesiones abiertas (una por pestaña/operador), en memoria.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry

	gw     runboard.Gateway
	roster runboard.Roster
	opts   runboard.Options

	log logger.Logger
	now func() time.Time
}

func NewManager(gw runboard.Gateway, roster runboard.Roster, opts runboard.Options) *Manager {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		sessions: map[string]*entry{},
		gw:       gw,
		roster:   roster,
		opts:     opts,
		log:      log.With(map[string]any{"component": "console"}),
		now:      now,
	}
}

// Open crea la sesión y la siembra. Si el primer load falla no se registra.
func (m *Manager) Open(ctx context.Context, operatorID, date string) (string, *runboard.Session, error) {
	operatorID = strings.TrimSpace(operatorID)
	if operatorID == "" {
		return "", nil, ErrOperatorMissing
	}

	opts := m.opts
	opts.Logger = m.log.With(map[string]any{"operator_id": operatorID})
	s, err := runboard.NewSession(date, m.gw, m.roster, opts)
	if err != nil {
		return "", nil, err
	}
	if _, err := s.Load(ctx); err != nil {
		return "", nil, err
	}

	now := m.now()
	e := &entry{
		id:         uuid.NewString(),
		operatorID: operatorID,
		session:    s,
		createdAt:  now,
		lastUsed:   now,
	}

	m.mu.Lock()
	m.sessions[e.id] = e
	m.mu.Unlock()

	m.log.Info("session opened", map[string]any{"session_id": e.id, "operator_id": operatorID, "date": date})
	return e.id, s, nil
}

// Get devuelve la sesión solo a su operador; a cualquier otro le responde not found.
func (m *Manager) Get(operatorID, id string) (*runboard.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok || e.operatorID != strings.TrimSpace(operatorID) {
		return nil, ErrSessionNotFound
	}
	e.lastUsed = m.now()
	return e.session, nil
}

func (m *Manager) Close(operatorID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok || e.operatorID != strings.TrimSpace(operatorID) {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	m.log.Info("session closed", map[string]any{"session_id": id})
	return nil
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep cierra sesiones sin uso hace más de maxIdle. Las que están commiteando se saltean.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxIdle)
	n := 0
	for id, e := range m.sessions {
		if e.lastUsed.After(cutoff) || e.session.State() == runboard.StateCommitting {
			continue
		}
		if e.session.Dirty() {
			m.log.Warn("closing idle session with unsaved changes", map[string]any{"session_id": id, "date": e.session.Date()})
		}
		delete(m.sessions, id)
		n++
	}
	return n
}

// RunJanitor barre cada `every` hasta que ctx se cancele.
func (m *Manager) RunJanitor(ctx context.Context, every, maxIdle time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(maxIdle); n > 0 {
				m.log.Debug("idle sessions swept", map[string]any{"closed": n})
			}
		}
	}
}
