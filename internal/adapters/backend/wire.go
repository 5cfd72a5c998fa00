package backend

import (
	"fmt"
	"time"

	"pet-run-board/internal/domain/runboard"
)

// Formas del wire. Los campos obligatorios son punteros: nil = clave ausente (o null).
// El decoder es estricto, así que claves desconocidas ya fallan antes de llegar acá.

type runWire struct {
	ID                *string `json:"id"`
	Name              *string `json:"name"`
	MaxCapacity       *int    `json:"max_capacity"`
	TimePeriodMinutes *int    `json:"time_period_minutes"`
	SortOrder         *int    `json:"sort_order"`
}

type assignmentWire struct {
	ID        *string `json:"id"`
	RunID     *string `json:"run_id"`
	PetID     *string `json:"pet_id"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	BookingID *string `json:"booking_id"`
	Notes     *string `json:"notes"`
}

type boardWire struct {
	Date        *string           `json:"date"`
	Epoch       *int64            `json:"epoch"`
	Runs        *[]runWire        `json:"runs"`
	Assignments *[]assignmentWire `json:"assignments"`
}

type slotWire struct {
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Available *bool   `json:"available"`
}

type slotsWire struct {
	Slots *[]slotWire `json:"slots"`
}

type bookingWire struct {
	BookingID   *string    `json:"booking_id"`
	CheckIn     *time.Time `json:"check_in"`
	CheckOut    *time.Time `json:"check_out"`
	ServiceName *string    `json:"service_name"`
}

type petWire struct {
	ID              *string      `json:"id"`
	Name            *string      `json:"name"`
	Species         *string      `json:"species"`
	Breed           *string      `json:"breed"`
	OwnerIDs        []string     `json:"owner_ids"`
	BehaviorFlags   []string     `json:"behavior_flags"`
	HasMedicalNotes bool         `json:"has_medical_notes"`
	HasDietaryNotes bool         `json:"has_dietary_notes"`
	Booking         *bookingWire `json:"booking"`
}

type rosterWire struct {
	Date *string    `json:"date"`
	Pets *[]petWire `json:"pets"`
}

type assignmentBody struct {
	RunID     string `json:"run_id"`
	PetID     string `json:"pet_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	BookingID string `json:"booking_id"`
	Notes     string `json:"notes"`
}

type saveBoardBody struct {
	Assignments []assignmentBody `json:"assignments"`
}

func toAssignmentBody(a runboard.Assignment) assignmentBody {
	return assignmentBody{
		RunID:     a.RunID,
		PetID:     a.PetID,
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		BookingID: a.BookingID,
		Notes:     a.Notes,
	}
}

func missing(field string) error {
	return fmt.Errorf("%w: missing %s", ErrSchema, field)
}

func mismatch(field, want, got string) error {
	return fmt.Errorf("%w: %s %q, expected %q", ErrSchema, field, got, want)
}

// clock exige HH:MM estricto (sin espacios), igual que las comparaciones por string del board.
func clock(field, v string) error {
	if _, err := runboard.ParseClock(v); err != nil || len(v) != 5 {
		return fmt.Errorf("%w: %s %q is not HH:MM", ErrSchema, field, v)
	}
	return nil
}

// toPayloadFor además exige que el board sea el del día pedido.
func (b boardWire) toPayloadFor(date string) (runboard.BoardPayload, error) {
	p, err := b.toPayload()
	if err != nil {
		return runboard.BoardPayload{}, err
	}
	if p.Date != date {
		return runboard.BoardPayload{}, mismatch("date", date, p.Date)
	}
	return p, nil
}

func (b boardWire) toPayload() (runboard.BoardPayload, error) {
	if b.Date == nil {
		return runboard.BoardPayload{}, missing("date")
	}
	if b.Runs == nil {
		return runboard.BoardPayload{}, missing("runs")
	}
	if b.Assignments == nil {
		return runboard.BoardPayload{}, missing("assignments")
	}

	p := runboard.BoardPayload{
		Date:        *b.Date,
		Runs:        make([]runboard.Run, 0, len(*b.Runs)),
		Assignments: make([]runboard.Assignment, 0, len(*b.Assignments)),
	}
	if b.Epoch != nil {
		p.Epoch = *b.Epoch
	}
	for i, rw := range *b.Runs {
		run, err := rw.toRun()
		if err != nil {
			return runboard.BoardPayload{}, fmt.Errorf("runs[%d]: %w", i, err)
		}
		p.Runs = append(p.Runs, run)
	}
	for i, aw := range *b.Assignments {
		a, err := aw.toAssignment()
		if err != nil {
			return runboard.BoardPayload{}, fmt.Errorf("assignments[%d]: %w", i, err)
		}
		p.Assignments = append(p.Assignments, a)
	}
	return p, nil
}

func (r runWire) toRun() (runboard.Run, error) {
	if r.ID == nil || *r.ID == "" {
		return runboard.Run{}, missing("id")
	}
	if r.Name == nil {
		return runboard.Run{}, missing("name")
	}
	run := runboard.Run{
		ID:                *r.ID,
		Name:              *r.Name,
		TimePeriodMinutes: r.TimePeriodMinutes,
	}
	// capacidad ausente o < 1 se normaliza en Run.Capacity()
	if r.MaxCapacity != nil {
		run.MaxCapacity = *r.MaxCapacity
	}
	if r.SortOrder != nil {
		run.SortOrder = *r.SortOrder
	}
	return run, nil
}

func (a assignmentWire) toAssignment() (runboard.Assignment, error) {
	switch {
	case a.ID == nil:
		return runboard.Assignment{}, missing("id")
	case a.RunID == nil || *a.RunID == "":
		return runboard.Assignment{}, missing("run_id")
	case a.PetID == nil || *a.PetID == "":
		return runboard.Assignment{}, missing("pet_id")
	case a.StartTime == nil:
		return runboard.Assignment{}, missing("start_time")
	case a.EndTime == nil:
		return runboard.Assignment{}, missing("end_time")
	}
	if err := clock("start_time", *a.StartTime); err != nil {
		return runboard.Assignment{}, err
	}
	if err := clock("end_time", *a.EndTime); err != nil {
		return runboard.Assignment{}, err
	}
	out := runboard.Assignment{
		ID:        *a.ID,
		RunID:     *a.RunID,
		PetID:     *a.PetID,
		StartTime: *a.StartTime,
		EndTime:   *a.EndTime,
	}
	if a.BookingID != nil {
		out.BookingID = *a.BookingID
	}
	if a.Notes != nil {
		out.Notes = *a.Notes
	}
	return out, nil
}

func (s slotsWire) toWindows() ([]runboard.Window, error) {
	if s.Slots == nil {
		return nil, missing("slots")
	}
	out := make([]runboard.Window, 0, len(*s.Slots))
	for i, w := range *s.Slots {
		if w.StartTime == nil || w.EndTime == nil || w.Available == nil {
			return nil, fmt.Errorf("slots[%d]: %w", i, missing("start_time/end_time/available"))
		}
		if err := clock("start_time", *w.StartTime); err != nil {
			return nil, fmt.Errorf("slots[%d]: %w", i, err)
		}
		if err := clock("end_time", *w.EndTime); err != nil {
			return nil, fmt.Errorf("slots[%d]: %w", i, err)
		}
		out = append(out, runboard.Window{
			StartTime: *w.StartTime,
			EndTime:   *w.EndTime,
			Available: *w.Available,
		})
	}
	return out, nil
}

func (r rosterWire) toPets() ([]runboard.Pet, error) {
	if r.Date == nil {
		return nil, missing("date")
	}
	if r.Pets == nil {
		return nil, missing("pets")
	}
	out := make([]runboard.Pet, 0, len(*r.Pets))
	for i, pw := range *r.Pets {
		p, err := pw.toPet()
		if err != nil {
			return nil, fmt.Errorf("pets[%d]: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (p petWire) toPet() (runboard.Pet, error) {
	if p.ID == nil || *p.ID == "" {
		return runboard.Pet{}, missing("id")
	}
	if p.Name == nil {
		return runboard.Pet{}, missing("name")
	}
	out := runboard.Pet{
		ID:              *p.ID,
		Name:            *p.Name,
		OwnerIDs:        p.OwnerIDs,
		BehaviorFlags:   p.BehaviorFlags,
		HasMedicalNotes: p.HasMedicalNotes,
		HasDietaryNotes: p.HasDietaryNotes,
	}
	if p.Species != nil {
		out.Species = *p.Species
	}
	if p.Breed != nil {
		out.Breed = *p.Breed
	}
	if p.Booking != nil {
		b := p.Booking
		if b.BookingID == nil || b.CheckIn == nil || b.CheckOut == nil {
			return runboard.Pet{}, missing("booking.booking_id/check_in/check_out")
		}
		out.Booking = &runboard.BookingInfo{
			BookingID: *b.BookingID,
			CheckIn:   *b.CheckIn,
			CheckOut:  *b.CheckOut,
		}
		if b.ServiceName != nil {
			out.Booking.ServiceName = *b.ServiceName
		}
	}
	return out, nil
}
