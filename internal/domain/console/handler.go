package console

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"pet-run-board/internal/domain/runboard"
	"pet-run-board/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, m *Manager) {
	r.Post("/sessions", openSessionHandler(m))

	r.Route("/sessions/{sessionID}", func(sr chi.Router) {
		sr.Get("/", boardHandler(m))
		sr.Delete("/", closeSessionHandler(m))

		sr.Post("/date", changeDateHandler(m))
		sr.Post("/refresh", refreshHandler(m))
		sr.Post("/sync", syncHandler(m))

		sr.Post("/placements", beginPlacementHandler(m))
		sr.Post("/placements/confirm", confirmPlacementHandler(m))
		sr.Post("/placements/cancel", cancelPlacementHandler(m))

		sr.Post("/reorder", reorderHandler(m))
		sr.Get("/pool", poolHandler(m))
		sr.Post("/pool", returnToPoolHandler(m))

		sr.Post("/save", saveHandler(m))
		sr.Post("/discard", discardHandler(m))

		sr.Post("/assignments", assignOneHandler(m))
		sr.Delete("/assignments/{runID}/{petID}", removeOneHandler(m))

		sr.Get("/capacity", capacityHandler(m))
		sr.Post("/selection", selectionHandler(m))
	})
}

type openSessionRequest struct {
	Date string `json:"date"`
}

type beginPlacementRequest struct {
	PetID string `json:"pet_id"`
	RunID string `json:"run_id"`
}

type confirmRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type reorderRequest struct {
	RunID string `json:"run_id"`
	From  int    `json:"from"`
	To    int    `json:"to"`
}

type poolRequest struct {
	PetID string `json:"pet_id"`
}

type assignOneRequest struct {
	PetID     string `json:"pet_id"`
	RunID     string `json:"run_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	BookingID string `json:"booking_id"`
	Notes     string `json:"notes"`
}

type selectionRequest struct {
	Select   []string `json:"select"`
	Deselect []string `json:"deselect"`
}

type assignmentResponse struct {
	ID        string `json:"id"`
	RunID     string `json:"run_id"`
	PetID     string `json:"pet_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	BookingID string `json:"booking_id"`
	Notes     string `json:"notes"`
}

func openSessionHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		op, ok := operatorID(w, r)
		if !ok {
			return
		}
		var req openSessionRequest
		if err := decodeStrict(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		id, s, err := m.Open(r.Context(), op, strings.TrimSpace(req.Date))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toBoardResponse(id, s.Board()))
	}
}

func boardHandler(m *Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, id string, s *runboard.Session) {
		writeBoard(w, id, s)
	})
}

func closeSessionHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		op, ok := operatorID(w, r)
		if !ok {
			return
		}
		if err := m.Close(op, chi.URLParam(r, "sessionID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func changeDateHandler(m *Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, id string, s *runboard.Session) {
		var req openSessionRequest
		if err := decodeStrict(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if _, err := s.ChangeDate(r.Context(), strings.TrimSpace(req.Date)); err != nil {
			writeError(w, err)
			return
		}
		writeBoard(w, id, s)
	})
}

func refreshHandler(m *Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, id string, s *runboard.Session) {
		if _, err := s.Refresh(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		writeBoard(w, id, s)
	})
}

func syncHandler(m *Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, id string, s *runboard.Session) {
		if _, err := s.Sync(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		writeBoard(w, id, s)
	})
}

func beginPlacementHandler(m *Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, id string, s *runboard.Session) {
		var req beginPlacementRequest
		if err := decodeStrict(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		sug, err := s.BeginPlacement(r.Context(), strings.TrimSpace(req.PetID), strings.TrimSpace(req.RunID))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSuggestionResponse(sug))
	})
}

func confirmPlacementHandler(m *Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, id string, s *runboard.Session) {
		var req confirmRequest
		if err := decodeStrict(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := s.ConfirmWindow(r.Context(), strings.TrimSpace(req.StartTime), strings.TrimSpace(req.EndTime)); err != nil {
			writeError(w, err)
			return
		}
		writeBoard(w, id, s)
	})
}

func cancelPlacementHandler(m *Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, id string, s *runboard.Session) {
		if err := s.Cancel(); err != nil {
			writeError(w, err)
			return
		}
		writeBoard(w, id, s)
	})
}

func reorderHandler(m *Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, id string, s *runboard.Session) {
		var req reorderRequest
		if err := decodeStrict(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := s.Reorder(strings.TrimSpace(req.RunID), req.From, req.To); err != nil {
			writeError(w, err)
			return
		}
		writeBoard(w, id, s)
	})
}

func poolHandler(m *Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, id string, s *runboard.Session) {
		writeJSON(w, http.StatusOK, toPetResponses(s.UnassignedPool()))
	})
}

func returnToPoolHandler(m *Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, id string, s *runboard.Session) {
		var req poolRequest
		if err := decodeStrict(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := s.ReturnToPool(strings.TrimSpace(req.PetID)); err != nil {
			writeError(w, err)
			return
		}
		writeBoard(w, id, s)
	})
}

func saveHandler(m *Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, id string, s *runboard.Session) {
		if err := s.SaveAll(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		writeBoard(w, id, s)
	})
}

func discardHandler(m *Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, id string, s *runboard.Session) {
		if err := s.Discard(); err != nil {
			writeError(w, err)
			return
		}
		writeBoard(w, id, s)
	})
}

func assignOneHandler(m *Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, id string, s *runboard.Session) {
		var req assignOneRequest
		if err := decodeStrict(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		a, err := s.AssignOne(r.Context(),
			strings.TrimSpace(req.PetID),
			strings.TrimSpace(req.RunID),
			strings.TrimSpace(req.StartTime),
			strings.TrimSpace(req.EndTime),
			strings.TrimSpace(req.BookingID),
			req.Notes,
		)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, assignmentResponse{
			ID:        a.ID,
			RunID:     a.RunID,
			PetID:     a.PetID,
			StartTime: a.StartTime,
			EndTime:   a.EndTime,
			BookingID: a.BookingID,
			Notes:     a.Notes,
		})
	})
}

func removeOneHandler(m *Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, id string, s *runboard.Session) {
		if err := s.RemoveOne(r.Context(), chi.URLParam(r, "runID"), chi.URLParam(r, "petID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func capacityHandler(m *Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, id string, s *runboard.Session) {
		writeJSON(w, http.StatusOK, toCapacitySummaryResponse(s.Capacity()))
	})
}

func selectionHandler(m *Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, id string, s *runboard.Session) {
		var req selectionRequest
		if err := decodeStrict(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		s.Select(req.Select...)
		s.Deselect(req.Deselect...)
		writeJSON(w, http.StatusOK, map[string][]string{"selection": append([]string{}, s.Selection()...)})
	})
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, id string, s *runboard.Session)

// withSession exige operador y resuelve la sesión (solo la del mismo operador).
func withSession(m *Manager, fn sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		op, ok := operatorID(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "sessionID")
		s, err := m.Get(op, id)
		if err != nil {
			writeError(w, err)
			return
		}
		fn(w, r, id, s)
	}
}

func operatorID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.OperatorID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return id, true
}

func decodeStrict(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, runboard.ErrInvalidWindow),
		errors.Is(err, runboard.ErrInvalidClock),
		errors.Is(err, runboard.ErrInvalidDate):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrSessionNotFound),
		errors.Is(err, runboard.ErrPetNotFound),
		errors.Is(err, runboard.ErrRunNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, runboard.ErrBusy),
		errors.Is(err, runboard.ErrNotPending),
		errors.Is(err, runboard.ErrNotSeeded),
		errors.Is(err, runboard.ErrStaleSeed):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, runboard.ErrGateway):
		http.Error(w, err.Error(), http.StatusBadGateway)
	case errors.Is(err, ErrOperatorMissing):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeBoard(w http.ResponseWriter, id string, s *runboard.Session) {
	writeJSON(w, http.StatusOK, toBoardResponse(id, s.Board()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
