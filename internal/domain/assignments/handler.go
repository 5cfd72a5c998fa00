package assignments

import (
	"encoding/json"
	"errors"
	"net/http"

	"pet-run-board/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/runs", func(rr chi.Router) {
		rr.Get("/", listRunsHandler(svc))
		rr.Post("/", createRunHandler(svc))
	})

	r.Route("/boards/{date}", func(br chi.Router) {
		br.Get("/", getBoardHandler(svc))
		br.Put("/", saveBoardHandler(svc))

		br.Get("/runs/{runID}/slots", slotsHandler(svc))
		br.Post("/runs/{runID}/assignments", createAssignmentHandler(svc))
		br.Delete("/runs/{runID}/assignments/{ref}", deleteAssignmentHandler(svc))
	})
}

type runRequest struct {
	Name              string `json:"name"`
	MaxCapacity       int    `json:"max_capacity"`
	TimePeriodMinutes *int   `json:"time_period_minutes"`
	SortOrder         int    `json:"sort_order"`
}

type RunResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	MaxCapacity       int    `json:"max_capacity"`
	TimePeriodMinutes *int   `json:"time_period_minutes"`
	SortOrder         int    `json:"sort_order"`
}

type AssignmentResponse struct {
	ID        string `json:"id"`
	RunID     string `json:"run_id"`
	PetID     string `json:"pet_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	BookingID string `json:"booking_id"`
	Notes     string `json:"notes"`
}

type BoardResponse struct {
	Date        string               `json:"date"`
	Epoch       int64                `json:"epoch"`
	Runs        []RunResponse        `json:"runs"`
	Assignments []AssignmentResponse `json:"assignments"`
}

type SlotResponse struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"available"`
}

type SlotsResponse struct {
	Slots []SlotResponse `json:"slots"`
}

type assignmentRequest struct {
	RunID     string `json:"run_id"`
	PetID     string `json:"pet_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	BookingID string `json:"booking_id"`
	Notes     string `json:"notes"`
}

type saveBoardRequest struct {
	Assignments []assignmentRequest `json:"assignments"`
}

// listRunsHandler godoc
// @Summary Lista los runs
// @Tags runs
// @Produce json
// @Success 200 {array} RunResponse
// @Router /runs [get]
func listRunsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runs, err := svc.ListRuns(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		out := make([]RunResponse, 0, len(runs))
		for _, run := range runs {
			out = append(out, toRunResponse(run))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// createRunHandler godoc
// @Summary Crea un run
// @Tags runs
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "operador (modo dev)"
// @Success 201 {object} RunResponse
// @Router /runs [post]
func createRunHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := operatorID(w, r); !ok {
			return
		}

		var req runRequest
		if err := decodeStrict(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		run, err := svc.CreateRun(r.Context(), RunInput{
			Name:              req.Name,
			MaxCapacity:       req.MaxCapacity,
			TimePeriodMinutes: req.TimePeriodMinutes,
			SortOrder:         req.SortOrder,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toRunResponse(run))
	}
}

// getBoardHandler godoc
// @Summary Board de una fecha (runs + asignaciones)
// @Tags boards
// @Produce json
// @Param date path string true "YYYY-MM-DD"
// @Success 200 {object} BoardResponse
// @Router /boards/{date} [get]
func getBoardHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := svc.Board(r.Context(), chi.URLParam(r, "date"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toBoardResponse(b))
	}
}

// saveBoardHandler godoc
// @Summary Reemplaza todas las asignaciones de la fecha
// @Tags boards
// @Accept json
// @Produce json
// @Param date path string true "YYYY-MM-DD"
// @Success 200 {object} BoardResponse
// @Router /boards/{date} [put]
func saveBoardHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		op, ok := operatorID(w, r)
		if !ok {
			return
		}

		var req saveBoardRequest
		if err := decodeStrict(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := make([]AssignmentInput, 0, len(req.Assignments))
		for _, a := range req.Assignments {
			in = append(in, AssignmentInput(a))
		}

		b, err := svc.SaveAll(r.Context(), chi.URLParam(r, "date"), op, in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toBoardResponse(b))
	}
}

// slotsHandler godoc
// @Summary Franjas candidatas de un run
// @Tags boards
// @Produce json
// @Param date path string true "YYYY-MM-DD"
// @Param runID path string true "run"
// @Success 200 {object} SlotsResponse
// @Router /boards/{date}/runs/{runID}/slots [get]
func slotsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slots, err := svc.AvailableSlots(r.Context(), chi.URLParam(r, "date"), chi.URLParam(r, "runID"))
		if err != nil {
			writeError(w, err)
			return
		}
		out := SlotsResponse{Slots: make([]SlotResponse, 0, len(slots))}
		for _, s := range slots {
			out.Slots = append(out.Slots, SlotResponse(s))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// createAssignmentHandler godoc
// @Summary Asigna un pet a un run (incremental)
// @Tags boards
// @Accept json
// @Produce json
// @Param date path string true "YYYY-MM-DD"
// @Param runID path string true "run"
// @Success 201 {object} AssignmentResponse
// @Router /boards/{date}/runs/{runID}/assignments [post]
func createAssignmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		op, ok := operatorID(w, r)
		if !ok {
			return
		}

		var req assignmentRequest
		if err := decodeStrict(r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		runID := chi.URLParam(r, "runID")
		if req.RunID != "" && req.RunID != runID {
			http.Error(w, "run_id does not match path", http.StatusBadRequest)
			return
		}

		a, err := svc.Create(r.Context(), chi.URLParam(r, "date"), runID, op, AssignmentInput(req))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toAssignmentResponse(a))
	}
}

// deleteAssignmentHandler godoc
// @Summary Quita una asignación (ref = id de asignación o pet_id)
// @Tags boards
// @Param date path string true "YYYY-MM-DD"
// @Param runID path string true "run"
// @Param ref path string true "assignment id o pet id"
// @Success 204
// @Router /boards/{date}/runs/{runID}/assignments/{ref} [delete]
func deleteAssignmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		op, ok := operatorID(w, r)
		if !ok {
			return
		}
		err := svc.Delete(r.Context(), chi.URLParam(r, "date"), chi.URLParam(r, "runID"), chi.URLParam(r, "ref"), op)
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
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
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrDuplicatePet):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrRunNotFound), errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toRunResponse(r Run) RunResponse {
	return RunResponse{
		ID:                r.ID,
		Name:              r.Name,
		MaxCapacity:       r.MaxCapacity,
		TimePeriodMinutes: r.TimePeriodMinutes,
		SortOrder:         r.SortOrder,
	}
}

func toAssignmentResponse(a Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:        a.ID,
		RunID:     a.RunID,
		PetID:     a.PetID,
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		BookingID: a.BookingID,
		Notes:     a.Notes,
	}
}

func toBoardResponse(b Board) BoardResponse {
	out := BoardResponse{
		Date:        b.Date,
		Epoch:       b.Epoch,
		Runs:        make([]RunResponse, 0, len(b.Runs)),
		Assignments: make([]AssignmentResponse, 0, len(b.Assignments)),
	}
	for _, r := range b.Runs {
		out.Runs = append(out.Runs, toRunResponse(r))
	}
	for _, a := range b.Assignments {
		out.Assignments = append(out.Assignments, toAssignmentResponse(a))
	}
	return out
}

// writeJSON se repite por módulo, igual que en roster.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
