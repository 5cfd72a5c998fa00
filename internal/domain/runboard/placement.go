package runboard

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// PlacementState es el estado del flujo de ubicación de un pet.
type PlacementState string

const (
	StateIdle                      PlacementState = "idle"
	StatePendingWindowConfirmation PlacementState = "pending_window_confirmation"
	StateCommitting                PlacementState = "committing"
)

// validTransitions: Cancelled no es un estado persistente, vuelve directo a Idle.
var validTransitions = map[PlacementState][]PlacementState{
	StateIdle:                      {StatePendingWindowConfirmation},
	StatePendingWindowConfirmation: {StateCommitting, StateIdle},
	StateCommitting:                {StateIdle},
}

// PendingPlacement es el contexto retenido entre begin y confirm.
type PendingPlacement struct {
	Pet        Pet
	Run        Run
	FromRunID  string // vacío = viene del pool
	Suggestion Suggestion
}

type placementMachine struct {
	state   PlacementState
	pending *PendingPlacement
	seq     uint64 // identifica cada begin (para respuestas tardías de slots)
}

func newPlacementMachine() *placementMachine {
	return &placementMachine{state: StateIdle}
}

func (m *placementMachine) transition(to PlacementState) error {
	for _, s := range validTransitions[m.state] {
		if s == to {
			m.state = to
			if to == StateIdle {
				m.pending = nil
			}
			return nil
		}
	}
	return fmt.Errorf("invalid placement transition %s -> %s", m.state, to)
}

// BeginPlacement inicia el movimiento de un pet (desde el pool o desde otro run)
// hacia targetRunID y devuelve la ventana sugerida. Solo se acepta en Idle.
func (s *Session) BeginPlacement(ctx context.Context, petID, targetRunID string) (Suggestion, error) {
	s.mu.Lock()
	if s.machine.state != StateIdle {
		s.mu.Unlock()
		return Suggestion{}, ErrBusy
	}
	if !s.ctrl.Seeded() {
		s.mu.Unlock()
		return Suggestion{}, ErrNotSeeded
	}

	pet, current, ok := s.locatePet(petID)
	if !ok {
		s.mu.Unlock()
		return Suggestion{}, fmt.Errorf("%w: %s", ErrPetNotFound, petID)
	}
	run, ok := s.findRun(targetRunID)
	if !ok {
		s.mu.Unlock()
		return Suggestion{}, fmt.Errorf("%w: %s", ErrRunNotFound, targetRunID)
	}

	requested := s.requestedStart(pet, current)
	p := &PendingPlacement{Pet: pet, Run: run, FromRunID: current.RunID}

	if err := s.machine.transition(StatePendingWindowConfirmation); err != nil {
		s.mu.Unlock()
		return Suggestion{}, err
	}
	s.machine.pending = p
	s.machine.seq++
	seq := s.machine.seq
	date := s.ctrl.ActiveDate()
	s.mu.Unlock()

	// La lista de slots es orientativa: si falla, se usa la grilla fija.
	windows := s.fetchWindows(ctx, run, date)
	sug, err := buildSuggestion(run, requested, windows)

	s.mu.Lock()
	live := s.machine.state == StatePendingWindowConfirmation && s.machine.seq == seq
	if err != nil {
		if live {
			_ = s.machine.transition(StateIdle)
		}
		s.mu.Unlock()
		return Suggestion{}, err
	}
	if live {
		s.machine.pending.Suggestion = sug
	}
	s.mu.Unlock()

	s.log.Debug("placement pending", map[string]any{
		"pet_id":   pet.ID,
		"run_id":   run.ID,
		"from_run": current.RunID,
		"start":    sug.Start,
		"end":      sug.End,
	})
	return sug, nil
}

func buildSuggestion(run Run, requested string, windows []Window) (Suggestion, error) {
	start := requested
	if w, ok := NextAvailable(windows, requested); ok {
		start = w.StartTime
	}
	sug, err := SuggestWindow(run, start)
	if err != nil {
		return Suggestion{}, err
	}
	sug.Windows = RankWindows(windows, requested)
	return sug, nil
}

// ConfirmWindow valida la ventana, aplica la ubicación al Draft y persiste el día completo.
//
// Si el gateway falla NO se revierte el Draft: la ubicación queda local, marcada Failed,
// y el board sigue dirty hasta que un SaveAll manual funcione.
func (s *Session) ConfirmWindow(ctx context.Context, start, end string) error {
	s.mu.Lock()
	if s.machine.state != StatePendingWindowConfirmation {
		s.mu.Unlock()
		return ErrNotPending
	}
	if err := ValidateWindow(start, end); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	// Un solo request al gateway a la vez por sesión.
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.sem.Release(1)

	s.mu.Lock()
	if s.machine.state != StatePendingWindowConfirmation {
		// cancelado mientras esperábamos el turno
		s.mu.Unlock()
		return ErrNotPending
	}
	p := *s.machine.pending
	if err := s.machine.transition(StateCommitting); err != nil {
		s.mu.Unlock()
		return err
	}

	draft := s.ctrl.Draft()
	bookingID, notes := bookingIDOf(p.Pet), ""
	if cur, ok := draft.Find(p.Pet.ID); ok {
		// mover entre runs conserva reserva y notas
		if cur.BookingID != "" {
			bookingID = cur.BookingID
		}
		notes = cur.Notes
	}
	draft.Place(p.Pet.ID, p.Run.ID, start, end, bookingID, notes)
	sent := draft.Clone()
	date := s.ctrl.ActiveDate()
	gen := s.gen
	s.mu.Unlock()

	// Committing no se puede abortar: se desacopla de la cancelación del caller.
	payload, err := s.saveAll(ctx, date, sent)

	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.machine.transition(StateIdle)

	if gen != s.gen {
		// la sesión cambió de fecha o se refrescó durante el commit
		return err
	}
	if err != nil {
		s.failures[p.Pet.ID] = err.Error()
		s.metrics.ObservePlacement("failed")
		s.log.Warn("placement kept locally after gateway failure", map[string]any{
			"pet_id": p.Pet.ID,
			"run_id": p.Run.ID,
			"date":   date,
			"error":  err.Error(),
		})
		return err
	}

	s.applySaved(sent, payload)
	s.metrics.ObservePlacement("committed")
	s.log.Info("placement committed", map[string]any{
		"pet_id": p.Pet.ID,
		"run_id": p.Run.ID,
		"start":  start,
		"end":    end,
		"date":   date,
	})
	return nil
}

// Cancel descarta la ubicación pendiente sin tocar el Draft.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine.state != StatePendingWindowConfirmation {
		return ErrNotPending
	}
	s.metrics.ObservePlacement("cancelled")
	return s.machine.transition(StateIdle)
}

// Reorder mueve dentro del mismo run. Se persiste en el próximo SaveAll.
func (s *Session) Reorder(runID string, from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ctrl.Seeded() {
		return ErrNotSeeded
	}
	if _, ok := s.findRun(runID); !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	s.ctrl.Draft().Reorder(runID, from, to)
	return nil
}

// ReturnToPool saca al pet de todos los runs. Se persiste en el próximo SaveAll.
func (s *Session) ReturnToPool(petID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ctrl.Seeded() {
		return ErrNotSeeded
	}
	s.ctrl.Draft().UnassignEverywhere(petID)
	delete(s.failures, petID)
	return nil
}

// requestedStart: inicio actual si ya está ubicado, luego check-in de la reserva
// (si es del mismo día), luego el reloj redondeado a la grilla.
func (s *Session) requestedStart(p Pet, current Assignment) string {
	if current.StartTime != "" {
		return current.StartTime
	}
	if p.Booking != nil && !p.Booking.CheckIn.IsZero() &&
		p.Booking.CheckIn.Format("2006-01-02") == s.ctrl.ActiveDate() {
		return FormatClock(p.Booking.CheckIn.Hour()*60 + p.Booking.CheckIn.Minute())
	}
	return roundUpToGrid(s.now())
}

func (s *Session) fetchWindows(ctx context.Context, run Run, date string) []Window {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	windows, err := s.gw.AvailableSlots(ctx, run.ID, date)
	s.metrics.ObserveGateway("available_slots", time.Since(started), err)
	if err != nil {
		s.log.Warn("available slots unavailable, using fixed grid", map[string]any{
			"run_id": run.ID,
			"date":   date,
			"error":  err.Error(),
		})
		return CandidateGrid(run.TimePeriodMinutes)
	}
	valid := wellFormed(windows)
	if len(valid) < len(windows) {
		s.log.Warn("available slots with malformed times dropped", map[string]any{
			"run_id":  run.ID,
			"date":    date,
			"dropped": len(windows) - len(valid),
		})
	}
	if len(valid) == 0 {
		return CandidateGrid(run.TimePeriodMinutes)
	}
	return valid
}

// wellFormed descarta ventanas que no son HH:MM estrictos o no cumplen start < end.
func wellFormed(windows []Window) []Window {
	out := make([]Window, 0, len(windows))
	for _, w := range windows {
		if ValidateWindow(w.StartTime, w.EndTime) != nil || w.StartTime != strings.TrimSpace(w.StartTime) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func bookingIDOf(p Pet) string {
	if p.Booking == nil {
		return ""
	}
	return p.Booking.BookingID
}
