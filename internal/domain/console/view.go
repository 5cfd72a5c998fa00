package console

import "pet-run-board/internal/domain/runboard"

// Formas JSON de la consola. Se arman desde runboard.BoardView.

type windowResponse struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"available"`
}

type suggestionResponse struct {
	StartTime   string           `json:"start_time"`
	EndTime     string           `json:"end_time"`
	EndDerived  bool             `json:"end_derived"`
	StepMinutes int              `json:"step_minutes"`
	Windows     []windowResponse `json:"windows"`
}

type pendingResponse struct {
	PetID      string             `json:"pet_id"`
	PetName    string             `json:"pet_name"`
	RunID      string             `json:"run_id"`
	FromRunID  string             `json:"from_run_id"`
	Suggestion suggestionResponse `json:"suggestion"`
}

type capacityResponse struct {
	Occupancy          int    `json:"occupancy"`
	MaxCapacity        int    `json:"max_capacity"`
	UtilizationPercent int    `json:"utilization_percent"`
	RawPercent         int    `json:"raw_percent"`
	OverCapacity       bool   `json:"over_capacity"`
	Status             string `json:"status"`
}

type summaryResponse struct {
	TotalAssigned      int    `json:"total_assigned"`
	TotalCapacity      int    `json:"total_capacity"`
	UtilizationPercent int    `json:"utilization_percent"`
	Status             string `json:"status"`
}

type assignmentViewResponse struct {
	ID            string `json:"id"`
	PetID         string `json:"pet_id"`
	PetName       string `json:"pet_name"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	BookingID     string `json:"booking_id"`
	Notes         string `json:"notes"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
}

type runViewResponse struct {
	ID                string                   `json:"id"`
	Name              string                   `json:"name"`
	MaxCapacity       int                      `json:"max_capacity"`
	TimePeriodMinutes *int                     `json:"time_period_minutes"`
	Capacity          capacityResponse         `json:"capacity"`
	Assignments       []assignmentViewResponse `json:"assignments"`
}

type petResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Species         string   `json:"species"`
	Breed           string   `json:"breed"`
	BehaviorFlags   []string `json:"behavior_flags"`
	HasMedicalNotes bool     `json:"has_medical_notes"`
	HasDietaryNotes bool     `json:"has_dietary_notes"`
	BookingID       string   `json:"booking_id,omitempty"`
}

type boardResponse struct {
	SessionID string            `json:"session_id"`
	Date      string            `json:"date"`
	Epoch     int64             `json:"epoch"`
	Seeded    bool              `json:"seeded"`
	Dirty     bool              `json:"dirty"`
	State     string            `json:"state"`
	Pending   *pendingResponse  `json:"pending"`
	Runs      []runViewResponse `json:"runs"`
	Pool      []petResponse     `json:"pool"`
	Summary   summaryResponse   `json:"summary"`
	Selection []string          `json:"selection"`
}

type capacitySummaryResponse struct {
	summaryResponse
	Runs []capacityRunResponse `json:"runs"`
}

type capacityRunResponse struct {
	RunID string `json:"run_id"`
	capacityResponse
}

func toBoardResponse(id string, v runboard.BoardView) boardResponse {
	out := boardResponse{
		SessionID: id,
		Date:      v.Date,
		Epoch:     v.Epoch,
		Seeded:    v.Seeded,
		Dirty:     v.Dirty,
		State:     string(v.State),
		Runs:      make([]runViewResponse, 0, len(v.Runs)),
		Pool:      toPetResponses(v.Pool),
		Summary:   toSummaryResponse(v.Summary),
		Selection: append([]string{}, v.Selection...),
	}
	if v.Pending != nil {
		out.Pending = &pendingResponse{
			PetID:      v.Pending.Pet.ID,
			PetName:    v.Pending.Pet.Name,
			RunID:      v.Pending.Run.ID,
			FromRunID:  v.Pending.FromRunID,
			Suggestion: toSuggestionResponse(v.Pending.Suggestion),
		}
	}
	for _, rv := range v.Runs {
		run := runViewResponse{
			ID:                rv.Run.ID,
			Name:              rv.Run.Name,
			MaxCapacity:       rv.Run.Capacity(),
			TimePeriodMinutes: rv.Run.TimePeriodMinutes,
			Capacity:          toCapacityResponse(rv.Capacity),
			Assignments:       make([]assignmentViewResponse, 0, len(rv.Assignments)),
		}
		for _, a := range rv.Assignments {
			run.Assignments = append(run.Assignments, assignmentViewResponse{
				ID:            a.ID,
				PetID:         a.PetID,
				PetName:       a.PetName,
				StartTime:     a.StartTime,
				EndTime:       a.EndTime,
				BookingID:     a.BookingID,
				Notes:         a.Notes,
				Status:        string(a.Status.Kind),
				FailureReason: a.Status.Reason,
			})
		}
		out.Runs = append(out.Runs, run)
	}
	return out
}

func toSuggestionResponse(s runboard.Suggestion) suggestionResponse {
	out := suggestionResponse{
		StartTime:   s.Start,
		EndTime:     s.End,
		EndDerived:  s.EndDerived,
		StepMinutes: s.Step,
		Windows:     make([]windowResponse, 0, len(s.Windows)),
	}
	for _, w := range s.Windows {
		out.Windows = append(out.Windows, windowResponse(w))
	}
	return out
}

func toCapacityResponse(c runboard.RunCapacity) capacityResponse {
	return capacityResponse{
		Occupancy:          c.Occupancy,
		MaxCapacity:        c.MaxCapacity,
		UtilizationPercent: c.UtilizationPercent,
		RawPercent:         c.RawPercent,
		OverCapacity:       c.OverCapacity,
		Status:             string(c.Status),
	}
}

func toSummaryResponse(s runboard.CapacitySummary) summaryResponse {
	return summaryResponse{
		TotalAssigned:      s.TotalAssigned,
		TotalCapacity:      s.TotalCapacity,
		UtilizationPercent: s.UtilizationPercent,
		Status:             string(s.Status),
	}
}

func toCapacitySummaryResponse(s runboard.CapacitySummary) capacitySummaryResponse {
	out := capacitySummaryResponse{
		summaryResponse: toSummaryResponse(s),
		Runs:            make([]capacityRunResponse, 0, len(s.Runs)),
	}
	for _, rc := range s.Runs {
		out.Runs = append(out.Runs, capacityRunResponse{RunID: rc.RunID, capacityResponse: toCapacityResponse(rc)})
	}
	return out
}

func toPetResponses(pets []runboard.Pet) []petResponse {
	out := make([]petResponse, 0, len(pets))
	for _, p := range pets {
		pr := petResponse{
			ID:              p.ID,
			Name:            p.Name,
			Species:         p.Species,
			Breed:           p.Breed,
			BehaviorFlags:   append([]string{}, p.BehaviorFlags...),
			HasMedicalNotes: p.HasMedicalNotes,
			HasDietaryNotes: p.HasDietaryNotes,
		}
		if p.Booking != nil {
			pr.BookingID = p.Booking.BookingID
		}
		out = append(out, pr)
	}
	return out
}
