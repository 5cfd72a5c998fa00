package assignments

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet-run-board/internal/domain/runboard"
	"pet-run-board/internal/platform/logger"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrRunNotFound  = errors.New("run not found")
	ErrDuplicatePet = errors.New("pet assigned more than once")
)

const (
	slotFirstMinutes = 7 * 60
	slotLastMinutes  = 20 * 60
)

type Service struct {
	repo Repository
	pub  Publisher
	rec  Recorder
	log  logger.Logger
	now  func() time.Time
}

type Option func(*Service)

func WithPublisher(p Publisher) Option { return func(s *Service) { s.pub = p } }

func WithRecorder(r Recorder) Option { return func(s *Service) { s.rec = r } }

func WithLogger(l logger.Logger) Option { return func(s *Service) { s.log = l } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		log:  logger.NewNop(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RunInput struct {
	Name              string
	MaxCapacity       int
	TimePeriodMinutes *int
	SortOrder         int
}

func (s *Service) CreateRun(ctx context.Context, in RunInput) (Run, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Run{}, fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	if in.MaxCapacity < 1 {
		return Run{}, fmt.Errorf("%w: max_capacity must be >= 1", ErrInvalidInput)
	}
	if in.TimePeriodMinutes != nil && *in.TimePeriodMinutes <= 0 {
		return Run{}, fmt.Errorf("%w: time_period_minutes must be > 0", ErrInvalidInput)
	}

	r := Run{
		ID:                uuid.NewString(),
		Name:              strings.TrimSpace(in.Name),
		MaxCapacity:       in.MaxCapacity,
		TimePeriodMinutes: in.TimePeriodMinutes,
		SortOrder:         in.SortOrder,
		CreatedAt:         s.now(),
	}
	if err := s.repo.CreateRun(ctx, r); err != nil {
		return Run{}, err
	}
	return r, nil
}

func (s *Service) ListRuns(ctx context.Context) ([]Run, error) {
	return s.repo.ListRuns(ctx)
}

// Board devuelve runs + asignaciones de la fecha (formato plano) con su epoch.
func (s *Service) Board(ctx context.Context, date string) (Board, error) {
	if err := runboard.ValidateDate(date); err != nil {
		return Board{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	runs, err := s.repo.ListRuns(ctx)
	if err != nil {
		return Board{}, err
	}
	items, epoch, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return Board{}, err
	}
	return Board{Date: date, Epoch: epoch, Runs: runs, Assignments: items}, nil
}

type AssignmentInput struct {
	RunID     string
	PetID     string
	StartTime string
	EndTime   string
	BookingID string
	Notes     string
}

// SaveAll reemplaza el día completo. Es todo o nada: cualquier fila inválida
// rechaza el pedido sin tocar lo guardado.
func (s *Service) SaveAll(ctx context.Context, date, operatorID string, in []AssignmentInput) (Board, error) {
	if err := runboard.ValidateDate(date); err != nil {
		return Board{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	runs, err := s.runIndex(ctx)
	if err != nil {
		return Board{}, err
	}

	// run+pet que siguen en el día conservan ID y CreatedAt
	current, _, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return Board{}, err
	}
	existing := make(map[string]Assignment, len(current))
	for _, a := range current {
		existing[a.RunID+"/"+a.PetID] = a
	}

	now := s.now()
	seen := make(map[string]struct{}, len(in))
	positions := map[string]int{}
	items := make([]Assignment, 0, len(in))
	for i, a := range in {
		a = trimInput(a)
		if err := validateInput(a); err != nil {
			return Board{}, fmt.Errorf("assignment %d: %w", i, err)
		}
		if _, ok := runs[a.RunID]; !ok {
			return Board{}, fmt.Errorf("assignment %d: %w: %s", i, ErrRunNotFound, a.RunID)
		}
		if _, dup := seen[a.PetID]; dup {
			return Board{}, fmt.Errorf("%w: %s", ErrDuplicatePet, a.PetID)
		}
		seen[a.PetID] = struct{}{}

		id, createdAt := uuid.NewString(), now
		if prev, ok := existing[a.RunID+"/"+a.PetID]; ok {
			id, createdAt = prev.ID, prev.CreatedAt
		}
		items = append(items, Assignment{
			ID:        id,
			Date:      date,
			RunID:     a.RunID,
			PetID:     a.PetID,
			StartTime: a.StartTime,
			EndTime:   a.EndTime,
			BookingID: a.BookingID,
			Notes:     a.Notes,
			Position:  positions[a.RunID],
			CreatedAt: createdAt,
		})
		positions[a.RunID]++
	}

	epoch, err := s.repo.ReplaceDate(ctx, date, items)
	if err != nil {
		return Board{}, err
	}
	s.written(ctx, BoardSaved{Date: date, Epoch: epoch, Assignments: len(items), Source: "replace_all", OperatorID: operatorID})
	return s.Board(ctx, date)
}

// Create agrega una asignación puntual; si el pet estaba en otro run ese día se mueve.
func (s *Service) Create(ctx context.Context, date, runID, operatorID string, in AssignmentInput) (Assignment, error) {
	if err := runboard.ValidateDate(date); err != nil {
		return Assignment{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	in.RunID = runID
	in = trimInput(in)
	if err := validateInput(in); err != nil {
		return Assignment{}, err
	}
	if _, err := s.repo.GetRun(ctx, in.RunID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Assignment{}, fmt.Errorf("%w: %s", ErrRunNotFound, in.RunID)
		}
		return Assignment{}, err
	}

	saved, epoch, err := s.repo.Insert(ctx, Assignment{
		ID:        uuid.NewString(),
		Date:      date,
		RunID:     in.RunID,
		PetID:     in.PetID,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		BookingID: in.BookingID,
		Notes:     in.Notes,
		CreatedAt: s.now(),
	})
	if err != nil {
		return Assignment{}, err
	}
	s.written(ctx, BoardSaved{Date: date, Epoch: epoch, Assignments: 1, Source: "create", OperatorID: operatorID})
	return saved, nil
}

func (s *Service) Delete(ctx context.Context, date, runID, ref, operatorID string) error {
	if err := runboard.ValidateDate(date); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if strings.TrimSpace(runID) == "" || strings.TrimSpace(ref) == "" {
		return ErrInvalidInput
	}
	epoch, err := s.repo.Delete(ctx, date, strings.TrimSpace(runID), strings.TrimSpace(ref))
	if err != nil {
		return err
	}
	s.written(ctx, BoardSaved{Date: date, Epoch: epoch, Assignments: 1, Source: "delete", OperatorID: operatorID})
	return nil
}

// AvailableSlots arma franjas de 07:00 a 20:00 con el paso del run (o 30').
// Una franja está disponible si las asignaciones que la pisan son menos que la capacidad.
func (s *Service) AvailableSlots(ctx context.Context, date, runID string) ([]Slot, error) {
	if err := runboard.ValidateDate(date); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	run, err := s.repo.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	items, _, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	type span struct{ start, end int }
	busy := make([]span, 0)
	for _, a := range items {
		if a.RunID != run.ID {
			continue
		}
		start, err1 := runboard.ParseClock(a.StartTime)
		end, err2 := runboard.ParseClock(a.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		busy = append(busy, span{start, end})
	}

	step := runboard.DefaultStepMinutes
	if run.TimePeriodMinutes != nil && *run.TimePeriodMinutes > 0 {
		step = *run.TimePeriodMinutes
	}
	capacity := run.MaxCapacity
	if capacity < 1 {
		capacity = runboard.DefaultMaxCapacity
	}

	out := make([]Slot, 0)
	for m := slotFirstMinutes; m+step <= slotLastMinutes; m += step {
		overlapping := 0
		for _, b := range busy {
			if b.start < m+step && m < b.end {
				overlapping++
			}
		}
		out = append(out, Slot{
			StartTime: runboard.FormatClock(m),
			EndTime:   runboard.FormatClock(m + step),
			Available: overlapping < capacity,
		})
	}
	return out, nil
}

func (s *Service) runIndex(ctx context.Context) (map[string]Run, error) {
	runs, err := s.repo.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Run, len(runs))
	for _, r := range runs {
		out[r.ID] = r
	}
	return out, nil
}

// written registra la escritura; el evento es best-effort y no falla el request.
func (s *Service) written(ctx context.Context, ev BoardSaved) {
	ev.SavedAt = s.now().UTC()
	if s.rec != nil {
		s.rec.BoardWritten(ev.Source)
	}
	s.log.Info("board written", map[string]any{
		"date":        ev.Date,
		"epoch":       ev.Epoch,
		"source":      ev.Source,
		"assignments": ev.Assignments,
		"operator_id": ev.OperatorID,
	})
	if s.pub == nil {
		return
	}
	if err := s.pub.PublishBoardSaved(ctx, ev); err != nil {
		s.log.Warn("board saved event not published", map[string]any{"date": ev.Date, "error": err.Error()})
	}
}

func trimInput(a AssignmentInput) AssignmentInput {
	a.RunID = strings.TrimSpace(a.RunID)
	a.PetID = strings.TrimSpace(a.PetID)
	a.StartTime = strings.TrimSpace(a.StartTime)
	a.EndTime = strings.TrimSpace(a.EndTime)
	a.BookingID = strings.TrimSpace(a.BookingID)
	a.Notes = strings.TrimSpace(a.Notes)
	return a
}

func validateInput(a AssignmentInput) error {
	if a.RunID == "" || a.PetID == "" {
		return fmt.Errorf("%w: run_id and pet_id required", ErrInvalidInput)
	}
	if err := runboard.ValidateWindow(a.StartTime, a.EndTime); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// SortAssignments ordena por orden de run y luego Position (lo usan los repos).
func SortAssignments(items []Assignment, runs []Run) {
	order := make(map[string]int, len(runs))
	for i, r := range runs {
		order[r.ID] = i
	}
	rank := func(id string) int {
		if i, ok := order[id]; ok {
			return i
		}
		return len(order)
	}
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := rank(items[i].RunID), rank(items[j].RunID)
		if ri != rj {
			return ri < rj
		}
		if items[i].RunID != items[j].RunID {
			return items[i].RunID < items[j].RunID
		}
		return items[i].Position < items[j].Position
	})
}

// SortRuns: SortOrder asc, luego nombre.
func SortRuns(runs []Run) {
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].SortOrder != runs[j].SortOrder {
			return runs[i].SortOrder < runs[j].SortOrder
		}
		return runs[i].Name < runs[j].Name
	})
}
