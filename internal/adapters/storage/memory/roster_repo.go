package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"pet-run-board/internal/domain/roster"
)

type rosterRepo struct {
	mu   sync.RWMutex
	byID map[string]roster.Stay
}

func NewRosterRepo() roster.Repository {
	return &rosterRepo{
		byID: make(map[string]roster.Stay),
	}
}

func (r *rosterRepo) Create(ctx context.Context, s roster.Stay) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(s.ID) == "" {
		return errors.New("stay id required")
	}
	if _, exists := r.byID[s.ID]; exists {
		return errors.New("stay already exists")
	}
	r.byID[s.ID] = s
	return nil
}

func (r *rosterRepo) GetByID(ctx context.Context, id string) (roster.Stay, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return roster.Stay{}, roster.ErrNotFound
	}
	return s, nil
}

func (r *rosterRepo) ListActive(ctx context.Context, start, end time.Time) ([]roster.Stay, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]roster.Stay, 0)
	for _, s := range r.byID {
		if s.ActiveOn(start, end) {
			out = append(out, s)
		}
	}

	// Orden estable por check-in asc, luego nombre (solo para consistencia en dev)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CheckIn.Equal(out[j].CheckIn) {
			return out[i].CheckIn.Before(out[j].CheckIn)
		}
		return out[i].PetName < out[j].PetName
	})
	return out, nil
}
