package roster

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-run-board/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/roster/{date}", func(rr chi.Router) {
		rr.Get("/", listCheckedInHandler(svc))
		rr.Post("/check-ins", checkInHandler(svc))
	})
}

type checkInRequest struct {
	PetID         string   `json:"pet_id"`
	PetName       string   `json:"pet_name"`
	Species       string   `json:"species"`
	Breed         string   `json:"breed"`
	OwnerIDs      []string `json:"owner_ids"`
	BehaviorFlags []string `json:"behavior_flags"`
	MedicalNotes  string   `json:"medical_notes"`
	DietaryNotes  string   `json:"dietary_notes"`
	ServiceName   string   `json:"service_name"`
	CheckIn       string   `json:"check_in"`  // RFC3339 opcional
	CheckOut      string   `json:"check_out"` // RFC3339
}

type BookingResponse struct {
	BookingID   string    `json:"booking_id"`
	CheckIn     time.Time `json:"check_in"`
	CheckOut    time.Time `json:"check_out"`
	ServiceName string    `json:"service_name"`
}

// PetResponse es la forma que consume el board. Las notas solo se informan como presencia.
type PetResponse struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Species         string           `json:"species"`
	Breed           string           `json:"breed"`
	OwnerIDs        []string         `json:"owner_ids"`
	BehaviorFlags   []string         `json:"behavior_flags"`
	HasMedicalNotes bool             `json:"has_medical_notes"`
	HasDietaryNotes bool             `json:"has_dietary_notes"`
	Booking         *BookingResponse `json:"booking"`
}

type RosterResponse struct {
	Date string        `json:"date"`
	Pets []PetResponse `json:"pets"`
}

// listCheckedInHandler godoc
// @Summary Pets con check-in activo en la fecha
// @Tags roster
// @Produce json
// @Param date path string true "YYYY-MM-DD"
// @Success 200 {object} RosterResponse
// @Router /roster/{date} [get]
func listCheckedInHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := chi.URLParam(r, "date")
		items, err := svc.CheckedIn(r.Context(), date)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := RosterResponse{Date: date, Pets: make([]PetResponse, 0, len(items))}
		for _, st := range items {
			out.Pets = append(out.Pets, toPetResponse(st))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// checkInHandler godoc
// @Summary Registra un check-in
// @Tags roster
// @Accept json
// @Produce json
// @Param date path string true "YYYY-MM-DD"
// @Success 201 {object} PetResponse
// @Router /roster/{date}/check-ins [post]
func checkInHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.OperatorID(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req checkInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var checkIn *time.Time
		if strings.TrimSpace(req.CheckIn) != "" {
			t, err := time.Parse(time.RFC3339, req.CheckIn)
			if err != nil {
				http.Error(w, "check_in must be RFC3339", http.StatusBadRequest)
				return
			}
			checkIn = &t
		}
		checkOut, err := time.Parse(time.RFC3339, strings.TrimSpace(req.CheckOut))
		if err != nil {
			http.Error(w, "check_out must be RFC3339", http.StatusBadRequest)
			return
		}

		st, err := svc.CheckIn(r.Context(), chi.URLParam(r, "date"), CheckInInput{
			PetID:         req.PetID,
			PetName:       req.PetName,
			Species:       req.Species,
			Breed:         req.Breed,
			OwnerUserIDs:  req.OwnerIDs,
			BehaviorFlags: req.BehaviorFlags,
			MedicalNotes:  req.MedicalNotes,
			DietaryNotes:  req.DietaryNotes,
			ServiceName:   req.ServiceName,
			CheckIn:       checkIn,
			CheckOut:      checkOut,
		})
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, toPetResponse(st))
	}
}

func toPetResponse(st Stay) PetResponse {
	return PetResponse{
		ID:              st.PetID,
		Name:            st.PetName,
		Species:         string(st.Species),
		Breed:           st.Breed,
		OwnerIDs:        nonNil(st.OwnerUserIDs),
		BehaviorFlags:   nonNil(st.BehaviorFlags),
		HasMedicalNotes: st.MedicalNotes != "",
		HasDietaryNotes: st.DietaryNotes != "",
		Booking: &BookingResponse{
			BookingID:   st.ID,
			CheckIn:     st.CheckIn,
			CheckOut:    st.CheckOut,
			ServiceName: st.ServiceName,
		},
	}
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
