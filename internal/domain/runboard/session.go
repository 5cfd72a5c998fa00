package runboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"pet-run-board/internal/platform/logger"
)

// DefaultGatewayTimeout acota cada llamada al backend. Un timeout es una falla
// de gateway más: el estado optimista se conserva.
const DefaultGatewayTimeout = 10 * time.Second

// Metrics es lo que la sesión reporta; platform/metrics lo implementa con Prometheus.
type Metrics interface {
	ObservePlacement(result string)
	ObserveSave(result string)
	ObserveGateway(op string, d time.Duration, err error)
	SetUtilization(runID string, percent int)
}

type nopMetrics struct{}

func (nopMetrics) ObservePlacement(string)                     {}
func (nopMetrics) ObserveSave(string)                          {}
func (nopMetrics) ObserveGateway(string, time.Duration, error) {}
func (nopMetrics) SetUtilization(string, int)                  {}

type Options struct {
	Logger  logger.Logger
	Metrics Metrics
	Timeout time.Duration
	Now     func() time.Time

	ReseedOnEpochAdvance bool
}

// Session es el board de un operador para una fecha. Reemplaza el estado global
// "draft de la fecha actual": todo el estado mutable vive acá y se pasa por handle.
//
// Modelo single-writer: un operador, un día. mu protege el estado; sem serializa
// los requests de persistencia (confirmaciones y SaveAll).
type Session struct {
	mu  sync.Mutex
	sem *semaphore.Weighted

	gw     Gateway
	roster Roster

	ctrl    *Controller
	machine *placementMachine

	pets      []Pet
	failures  map[string]string // petID -> motivo de la última falla
	selection map[string]struct{}
	gen       uint64 // cambia en cada seed/unseed

	log     logger.Logger
	metrics Metrics
	timeout time.Duration
	now     func() time.Time
}

func NewSession(date string, gw Gateway, roster Roster, opts Options) (*Session, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}
	if gw == nil || roster == nil {
		return nil, fmt.Errorf("runboard: gateway and roster are required")
	}

	s := &Session{
		sem:       semaphore.NewWeighted(1),
		gw:        gw,
		roster:    roster,
		machine:   newPlacementMachine(),
		failures:  map[string]string{},
		selection: map[string]struct{}{},
		log:       opts.Logger,
		metrics:   opts.Metrics,
		timeout:   opts.Timeout,
		now:       opts.Now,
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}
	if s.timeout <= 0 {
		s.timeout = DefaultGatewayTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.ctrl = NewController(date,
		WithReseedOnEpochAdvance(opts.ReseedOnEpochAdvance),
		WithOnSeed(func() { s.selection = map[string]struct{}{} }),
	)
	s.log = s.log.With(map[string]any{"component": "runboard"})
	return s, nil
}

// Load trae board y roster en paralelo y siembra si está en Unseeded.
func (s *Session) Load(ctx context.Context) (ApplyResult, error) {
	s.mu.Lock()
	date := s.ctrl.ActiveDate()
	gen := s.gen
	s.mu.Unlock()

	var (
		payload BoardPayload
		pets    []Pet
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		payload, err = s.fetchBoard(gctx, date)
		return err
	})
	g.Go(func() error {
		var err error
		pets, err = s.fetchRoster(gctx, date)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || date != s.ctrl.ActiveDate() {
		return ApplyIgnored, nil
	}
	s.pets = pets

	res, err := s.ctrl.Apply(payload)
	if res == ApplySeeded || res == ApplyReseeded {
		s.gen++
		s.failures = map[string]string{}
		s.log.Info("board seeded", map[string]any{
			"date":        payload.Date,
			"epoch":       payload.Epoch,
			"runs":        len(payload.Runs),
			"assignments": len(payload.Assignments),
			"result":      string(res),
		})
	}
	s.reportUtilization()
	return res, err
}

// ChangeDate descarta el board actual y siembra la nueva fecha.
func (s *Session) ChangeDate(ctx context.Context, date string) (ApplyResult, error) {
	if err := ValidateDate(date); err != nil {
		return "", err
	}
	if err := s.reset(func() { s.ctrl.SetActiveDate(date) }); err != nil {
		return "", err
	}
	return s.Load(ctx)
}

// Refresh fuerza el refetch de la fecha activa (pierde cambios no guardados).
func (s *Session) Refresh(ctx context.Context) (ApplyResult, error) {
	if err := s.reset(s.ctrl.Refetch); err != nil {
		return "", err
	}
	return s.Load(ctx)
}

func (s *Session) reset(fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine.state == StateCommitting {
		return ErrBusy
	}
	if s.machine.state == StatePendingWindowConfirmation {
		_ = s.machine.transition(StateIdle)
	}
	fn()
	s.gen++
	s.failures = map[string]string{}
	return nil
}

// SaveAll manda el contenido completo del Draft (no un diff); repetirlo es seguro.
func (s *Session) SaveAll(ctx context.Context) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.sem.Release(1)

	s.mu.Lock()
	if !s.ctrl.Seeded() {
		s.mu.Unlock()
		return ErrNotSeeded
	}
	sent := s.ctrl.Draft().Clone()
	date := s.ctrl.ActiveDate()
	gen := s.gen
	s.mu.Unlock()

	payload, err := s.saveAll(ctx, date, sent)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return err
	}
	if err != nil {
		for _, a := range sent.Flatten() {
			if s.statusLocked(a).Kind != PersistenceSaved {
				s.failures[a.PetID] = err.Error()
			}
		}
		s.metrics.ObserveSave("failed")
		s.log.Warn("bulk save failed, draft kept", map[string]any{"date": date, "error": err.Error()})
		return err
	}
	s.applySaved(sent, payload)
	s.metrics.ObserveSave("saved")
	s.log.Info("board saved", map[string]any{"date": date, "assignments": len(payload.Assignments), "epoch": payload.Epoch})
	return nil
}

// saveAll ejecuta el replace-all con timeout propio; no se aborta si el caller cancela.
func (s *Session) saveAll(ctx context.Context, date string, sent *Draft) (BoardPayload, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	started := time.Now()
	payload, err := s.gw.SaveAll(ctx, date, sent.Flatten())
	s.metrics.ObserveGateway("save_all", time.Since(started), err)
	if err != nil {
		return BoardPayload{}, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	return payload, nil
}

// applySaved: snapshot = lo enviado; IDs canónicos del eco pasan al Draft. Requiere mu.
func (s *Session) applySaved(sent *Draft, payload BoardPayload) {
	for _, a := range sent.Flatten() {
		delete(s.failures, a.PetID)
	}
	draft := s.ctrl.Draft()
	for _, a := range payload.Assignments {
		draft.setID(a.RunID, a.PetID, a.ID)
		sent.setID(a.RunID, a.PetID, a.ID)
	}
	s.ctrl.markSavedAs(sent, payload.Epoch)
	s.reportUtilization()
}

// Discard vuelve al último snapshot guardado.
func (s *Session) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine.state == StateCommitting {
		return ErrBusy
	}
	if err := s.ctrl.ResetToSnapshot(); err != nil {
		return err
	}
	s.failures = map[string]string{}
	return nil
}

// Sync vuelve a pedir el board sin forzar Unseeded. Con el draft sembrado el payload
// se ignora salvo que esté activo el re-seed por epoch.
func (s *Session) Sync(ctx context.Context) (ApplyResult, error) {
	return s.Load(ctx)
}

// AssignOne es el flujo incremental (picker): primero el backend, después el Draft.
func (s *Session) AssignOne(ctx context.Context, petID, runID, start, end, bookingID, notes string) (Assignment, error) {
	if err := ValidateWindow(start, end); err != nil {
		return Assignment{}, err
	}

	s.mu.Lock()
	if !s.ctrl.Seeded() {
		s.mu.Unlock()
		return Assignment{}, ErrNotSeeded
	}
	if _, _, ok := s.locatePet(petID); !ok {
		s.mu.Unlock()
		return Assignment{}, fmt.Errorf("%w: %s", ErrPetNotFound, petID)
	}
	if _, ok := s.findRun(runID); !ok {
		s.mu.Unlock()
		return Assignment{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	date := s.ctrl.ActiveDate()
	gen := s.gen
	s.mu.Unlock()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return Assignment{}, err
	}
	defer s.sem.Release(1)

	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	started := time.Now()
	saved, err := s.gw.CreateAssignment(gctx, date, Assignment{
		RunID:     runID,
		PetID:     petID,
		StartTime: start,
		EndTime:   end,
		BookingID: bookingID,
		Notes:     notes,
	})
	s.metrics.ObserveGateway("create_assignment", time.Since(started), err)
	if err != nil {
		return Assignment{}, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return saved, nil
	}
	place := func(d *Draft) {
		d.Place(saved.PetID, saved.RunID, saved.StartTime, saved.EndTime, saved.BookingID, saved.Notes)
		d.setID(saved.RunID, saved.PetID, saved.ID)
	}
	place(s.ctrl.Draft())
	s.ctrl.updateSnapshot(place)
	delete(s.failures, petID)
	return saved, nil
}

// RemoveOne borra una asignación puntual en el backend y luego del Draft.
func (s *Session) RemoveOne(ctx context.Context, runID, petID string) error {
	s.mu.Lock()
	if !s.ctrl.Seeded() {
		s.mu.Unlock()
		return ErrNotSeeded
	}
	ref := petID
	for _, a := range s.ctrl.Snapshot().AssignmentsFor(runID) {
		if a.PetID == petID && a.ID != "" {
			ref = a.ID
		}
	}
	date := s.ctrl.ActiveDate()
	gen := s.gen
	s.mu.Unlock()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.sem.Release(1)

	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	started := time.Now()
	err := s.gw.DeleteAssignment(gctx, date, runID, ref)
	s.metrics.ObserveGateway("delete_assignment", time.Since(started), err)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil
	}
	s.ctrl.Draft().Remove(petID, runID)
	s.ctrl.updateSnapshot(func(d *Draft) { d.Remove(petID, runID) })
	delete(s.failures, petID)
	return nil
}

// Select / Deselect manejan la selección múltiple de pets (se limpia al sembrar).
func (s *Session) Select(petIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range petIDs {
		if strings.TrimSpace(id) != "" {
			s.selection[id] = struct{}{}
		}
	}
}

func (s *Session) Deselect(petIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range petIDs {
		delete(s.selection, id)
	}
}

func (s *Session) Selection() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.selection))
	for id := range s.selection {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Dirty()
}

func (s *Session) State() PlacementState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.state
}

// Pending devuelve la ubicación pendiente de confirmar, si hay.
func (s *Session) Pending() (PendingPlacement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine.pending == nil {
		return PendingPlacement{}, false
	}
	return *s.machine.pending, true
}

func (s *Session) Date() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.ActiveDate()
}

// AssignmentsFor expone la lista del Draft para un run.
func (s *Session) AssignmentsFor(runID string) []Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Draft().AssignmentsFor(runID)
}

// Status devuelve Saved | Dirty | Failed(reason) para el pet en el board.
func (s *Session) Status(petID string) (PersistenceStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.ctrl.Draft().Find(petID)
	if !ok {
		return PersistenceStatus{}, false
	}
	return s.statusLocked(a), true
}

// statusLocked: Saved si el snapshot tiene la misma fila en la misma posición. Requiere mu.
func (s *Session) statusLocked(a Assignment) PersistenceStatus {
	if reason, ok := s.failures[a.PetID]; ok {
		return PersistenceStatus{Kind: PersistenceFailed, Reason: reason}
	}
	cur := s.ctrl.Draft().AssignmentsFor(a.RunID)
	saved := s.ctrl.snapshot.AssignmentsFor(a.RunID)
	for i := range cur {
		if cur[i].PetID != a.PetID {
			continue
		}
		if i < len(saved) && saved[i].sameContent(cur[i]) {
			return PersistenceStatus{Kind: PersistenceSaved}
		}
		break
	}
	return PersistenceStatus{Kind: PersistenceDirty}
}

// UnassignedPool = roster menos pets asignados. Derivado, no se guarda.
func (s *Session) UnassignedPool() []Pet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poolLocked()
}

func (s *Session) poolLocked() []Pet {
	assigned := map[string]struct{}{}
	for _, id := range s.ctrl.Draft().AllAssignedPetIDs() {
		assigned[id] = struct{}{}
	}
	out := make([]Pet, 0, len(s.pets))
	for _, p := range s.pets {
		if _, ok := assigned[p.ID]; !ok {
			out = append(out, p)
		}
	}
	return out
}

// Capacity recalcula la ocupación en cada lectura.
func (s *Session) Capacity() CapacitySummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summarize(s.sortedRuns(), s.ctrl.Draft())
}

// AssignmentView es una fila del board con su estado de persistencia.
type AssignmentView struct {
	Assignment
	PetName string
	Status  PersistenceStatus
}

type RunView struct {
	Run         Run
	Capacity    RunCapacity
	Assignments []AssignmentView
}

// BoardView es una foto consistente de la sesión para renderizar.
type BoardView struct {
	Date      string
	Epoch     int64
	Seeded    bool
	Dirty     bool
	State     PlacementState
	Pending   *PendingPlacement
	Runs      []RunView
	Pool      []Pet
	Summary   CapacitySummary
	Selection []string
}

func (s *Session) Board() BoardView {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make(map[string]string, len(s.pets))
	for _, p := range s.pets {
		names[p.ID] = p.Name
	}

	draft := s.ctrl.Draft()
	runs := s.sortedRuns()
	v := BoardView{
		Date:    s.ctrl.ActiveDate(),
		Epoch:   s.ctrl.Epoch(),
		Seeded:  s.ctrl.Seeded(),
		Dirty:   s.ctrl.Dirty(),
		State:   s.machine.state,
		Runs:    make([]RunView, 0, len(runs)),
		Pool:    s.poolLocked(),
		Summary: Summarize(runs, draft),
	}
	if s.machine.pending != nil {
		p := *s.machine.pending
		v.Pending = &p
	}
	for _, r := range runs {
		rv := RunView{Run: r, Capacity: ComputeRunCapacity(r, draft)}
		for _, a := range draft.AssignmentsFor(r.ID) {
			rv.Assignments = append(rv.Assignments, AssignmentView{
				Assignment: a,
				PetName:    names[a.PetID],
				Status:     s.statusLocked(a),
			})
		}
		v.Runs = append(v.Runs, rv)
	}
	for id := range s.selection {
		v.Selection = append(v.Selection, id)
	}
	sort.Strings(v.Selection)
	return v
}

// locatePet busca primero en el roster y después en el Draft (puede estar ubicado
// aunque ya no figure en el roster). Requiere mu.
func (s *Session) locatePet(petID string) (Pet, Assignment, bool) {
	current, placed := s.ctrl.Draft().Find(petID)
	for _, p := range s.pets {
		if p.ID == petID {
			return p, current, true
		}
	}
	if placed {
		return Pet{ID: petID}, current, true
	}
	return Pet{}, Assignment{}, false
}

func (s *Session) findRun(runID string) (Run, bool) {
	for _, r := range s.ctrl.runs {
		if r.ID == runID {
			return r, true
		}
	}
	return Run{}, false
}

func (s *Session) sortedRuns() []Run {
	runs := s.ctrl.Runs()
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].SortOrder != runs[j].SortOrder {
			return runs[i].SortOrder < runs[j].SortOrder
		}
		return runs[i].Name < runs[j].Name
	})
	return runs
}

func (s *Session) reportUtilization() {
	for _, rc := range Summarize(s.ctrl.runs, s.ctrl.Draft()).Runs {
		s.metrics.SetUtilization(rc.RunID, rc.RawPercent)
	}
}

func (s *Session) fetchBoard(ctx context.Context, date string) (BoardPayload, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	p, err := s.gw.FetchForDate(ctx, date)
	if err == nil && p.Date != date {
		err = fmt.Errorf("board for %q answered with date %q", date, p.Date)
	}
	s.metrics.ObserveGateway("fetch_for_date", time.Since(started), err)
	if err != nil {
		return BoardPayload{}, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	return p, nil
}

func (s *Session) fetchRoster(ctx context.Context, date string) ([]Pet, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	pets, err := s.roster.CheckedIn(ctx, date)
	s.metrics.ObserveGateway("roster", time.Since(started), err)
	if err != nil {
		return nil, fmt.Errorf("%w: roster: %v", ErrGateway, err)
	}
	return pets, nil
}
