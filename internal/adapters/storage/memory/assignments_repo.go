package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"pet-run-board/internal/domain/assignments"
)

type assignmentsRepo struct {
	mu     sync.RWMutex
	runs   map[string]assignments.Run
	byDate map[string][]assignments.Assignment
	epochs map[string]int64
}

func NewAssignmentsRepo() assignments.Repository {
	return &assignmentsRepo{
		runs:   make(map[string]assignments.Run),
		byDate: make(map[string][]assignments.Assignment),
		epochs: make(map[string]int64),
	}
}

func (r *assignmentsRepo) CreateRun(ctx context.Context, run assignments.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id required")
	}
	if _, exists := r.runs[run.ID]; exists {
		return errors.New("run already exists")
	}
	r.runs[run.ID] = run
	return nil
}

func (r *assignmentsRepo) GetRun(ctx context.Context, id string) (assignments.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return assignments.Run{}, assignments.ErrNotFound
	}
	return run, nil
}

func (r *assignmentsRepo) ListRuns(ctx context.Context) ([]assignments.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedRuns(), nil
}

func (r *assignmentsRepo) sortedRuns() []assignments.Run {
	out := make([]assignments.Run, 0, len(r.runs))
	for _, run := range r.runs {
		out = append(out, run)
	}
	assignments.SortRuns(out)
	return out
}

func (r *assignmentsRepo) ListByDate(ctx context.Context, date string) ([]assignments.Assignment, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := append([]assignments.Assignment{}, r.byDate[date]...)
	assignments.SortAssignments(out, r.sortedRuns())
	return out, r.epochs[date], nil
}

func (r *assignmentsRepo) ReplaceDate(ctx context.Context, date string, items []assignments.Assignment) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byDate[date] = append([]assignments.Assignment{}, items...)
	r.epochs[date]++
	return r.epochs[date], nil
}

func (r *assignmentsRepo) Insert(ctx context.Context, a assignments.Assignment) (assignments.Assignment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := make([]assignments.Assignment, 0, len(r.byDate[a.Date])+1)
	next := 0
	for _, x := range r.byDate[a.Date] {
		if x.PetID == a.PetID {
			continue
		}
		if x.RunID == a.RunID && x.Position >= next {
			next = x.Position + 1
		}
		kept = append(kept, x)
	}
	a.Position = next
	r.byDate[a.Date] = append(kept, a)
	r.epochs[a.Date]++
	return a, r.epochs[a.Date], nil
}

func (r *assignmentsRepo) Delete(ctx context.Context, date, runID, ref string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.byDate[date]
	kept := make([]assignments.Assignment, 0, len(list))
	found := false
	for _, x := range list {
		if x.RunID == runID && (x.ID == ref || x.PetID == ref) {
			found = true
			continue
		}
		kept = append(kept, x)
	}
	if !found {
		return 0, assignments.ErrNotFound
	}
	r.byDate[date] = kept
	r.epochs[date]++
	return r.epochs[date], nil
}
