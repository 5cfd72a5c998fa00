package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

type Service struct {
	repo Repository
	now  func() time.Time
	loc  *time.Location
}

// NewService usa la zona de la instalación para definir qué es "el día".
func NewService(repo Repository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		repo: repo,
		now:  time.Now,
		loc:  loc,
	}
}

type CheckInInput struct {
	PetID         string
	PetName       string
	Species       string
	Breed         string
	OwnerUserIDs  []string
	BehaviorFlags []string
	MedicalNotes  string
	DietaryNotes  string
	ServiceName   string
	CheckIn       *time.Time // nil = inicio del día
	CheckOut      time.Time
}

// CheckIn registra una estadía que arranca en date.
func (s *Service) CheckIn(ctx context.Context, date string, in CheckInInput) (Stay, error) {
	dayStart, _, err := s.day(date)
	if err != nil {
		return Stay{}, err
	}
	if strings.TrimSpace(in.PetID) == "" || strings.TrimSpace(in.PetName) == "" {
		return Stay{}, fmt.Errorf("%w: pet_id and pet_name required", ErrInvalidInput)
	}
	species := Species(strings.ToLower(strings.TrimSpace(in.Species)))
	if !species.Valid() {
		return Stay{}, fmt.Errorf("%w: species must be dog or cat", ErrInvalidInput)
	}

	checkIn := dayStart
	if in.CheckIn != nil {
		checkIn = in.CheckIn.In(s.loc)
		if checkIn.Format("2006-01-02") != date {
			return Stay{}, fmt.Errorf("%w: check_in must be on %s", ErrInvalidInput, date)
		}
	}
	if !in.CheckOut.After(checkIn) {
		return Stay{}, fmt.Errorf("%w: check_out must be after check_in", ErrInvalidInput)
	}

	st := Stay{
		ID:            uuid.NewString(),
		PetID:         strings.TrimSpace(in.PetID),
		PetName:       strings.TrimSpace(in.PetName),
		Species:       species,
		Breed:         strings.TrimSpace(in.Breed),
		OwnerUserIDs:  cleanList(in.OwnerUserIDs),
		BehaviorFlags: cleanList(in.BehaviorFlags),
		MedicalNotes:  strings.TrimSpace(in.MedicalNotes),
		DietaryNotes:  strings.TrimSpace(in.DietaryNotes),
		ServiceName:   strings.TrimSpace(in.ServiceName),
		CheckIn:       checkIn,
		CheckOut:      in.CheckOut.In(s.loc),
		CreatedAt:     s.now(),
	}
	if err := s.repo.Create(ctx, st); err != nil {
		return Stay{}, err
	}
	return st, nil
}

// CheckedIn devuelve una estadía por pet para la fecha (la de check-in más reciente).
func (s *Service) CheckedIn(ctx context.Context, date string) ([]Stay, error) {
	start, end, err := s.day(date)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListActive(ctx, start, end)
	if err != nil {
		return nil, err
	}

	idx := map[string]int{}
	out := make([]Stay, 0, len(items))
	for _, st := range items {
		if i, ok := idx[st.PetID]; ok {
			if st.CheckIn.After(out[i].CheckIn) {
				out[i] = st
			}
			continue
		}
		idx[st.PetID] = len(out)
		out = append(out, st)
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Stay, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) day(date string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return start, start.AddDate(0, 0, 1), nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
