package runboard

import (
	"fmt"
	"time"
)

// ApplyResult indica qué hizo el Controller con un payload del servidor.
type ApplyResult string

const (
	ApplySeeded   ApplyResult = "seeded"
	ApplyIgnored  ApplyResult = "ignored"
	ApplyReseeded ApplyResult = "reseeded"
)

// Controller reconcilia el Draft con el estado del servidor para la fecha activa.
//
// Unseeded: el próximo payload de activeDate arma el Draft y toma el snapshot.
// Seeded: payloads de la misma fecha se ignoran para no pisar ediciones locales.
// Cambiar de fecha o forzar refetch vuelve a Unseeded.
type Controller struct {
	activeDate string
	seededDate string
	seeded     bool
	epoch      int64

	runs     []Run
	draft    *Draft
	snapshot *Draft

	// Si está activo, un epoch mayor del backend re-siembra un draft limpio.
	// Apagado por defecto: solo se re-siembra al navegar o refrescar.
	reseedOnEpochAdvance bool

	onSeed func()
}

type ControllerOption func(*Controller)

// WithReseedOnEpochAdvance activa el re-seed cuando avanza el epoch del backend.
func WithReseedOnEpochAdvance(enabled bool) ControllerOption {
	return func(c *Controller) { c.reseedOnEpochAdvance = enabled }
}

// WithOnSeed registra un callback al sembrar (la Session limpia la selección).
func WithOnSeed(fn func()) ControllerOption {
	return func(c *Controller) { c.onSeed = fn }
}

func NewController(activeDate string, opts ...ControllerOption) *Controller {
	c := &Controller{
		activeDate: activeDate,
		draft:      NewDraft(),
		snapshot:   NewDraft(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ValidateDate exige YYYY-MM-DD.
func ValidateDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return nil
}

func (c *Controller) ActiveDate() string { return c.activeDate }
func (c *Controller) SeededDate() string { return c.seededDate }
func (c *Controller) Epoch() int64       { return c.epoch }

// Seeded es true mientras seededDate == activeDate.
func (c *Controller) Seeded() bool {
	return c.seeded && c.seededDate == c.activeDate
}

// Draft expone el Draft vivo (mismo puntero durante toda la sesión).
func (c *Controller) Draft() *Draft { return c.draft }

// Runs devuelve la metadata de runs del último seed.
func (c *Controller) Runs() []Run { return append([]Run{}, c.runs...) }

// SetActiveDate cambia la fecha; si es distinta vuelve a Unseeded.
func (c *Controller) SetActiveDate(date string) {
	if date == c.activeDate {
		return
	}
	c.activeDate = date
	c.unseed()
}

// Refetch fuerza Unseeded para la fecha activa.
func (c *Controller) Refetch() {
	c.unseed()
}

func (c *Controller) unseed() {
	c.seeded = false
	c.seededDate = ""
	c.epoch = 0
	c.runs = nil
	c.draft.replaceWith(NewDraft())
	c.snapshot = NewDraft()
}

// Apply procesa un payload del servidor.
func (c *Controller) Apply(p BoardPayload) (ApplyResult, error) {
	if p.Date != c.activeDate {
		// payload viejo de otra fecha (respuesta tardía): se descarta
		return ApplyIgnored, nil
	}

	if !c.Seeded() {
		c.seed(p)
		return ApplySeeded, nil
	}

	if !c.reseedOnEpochAdvance || p.Epoch <= c.epoch {
		return ApplyIgnored, nil
	}
	if c.Dirty() {
		return ApplyIgnored, fmt.Errorf("%w: local epoch %d, server epoch %d", ErrStaleSeed, c.epoch, p.Epoch)
	}
	c.seed(p)
	return ApplyReseeded, nil
}

func (c *Controller) seed(p BoardPayload) {
	runs := append([]Run{}, p.Runs...)
	c.runs = runs
	c.draft.replaceWith(draftFromPayload(runs, p.Assignments))
	c.snapshot = c.draft.Clone()
	c.seededDate = p.Date
	c.seeded = true
	c.epoch = p.Epoch
	if c.onSeed != nil {
		c.onSeed()
	}
}

// Dirty compara el Draft vivo con el último snapshot guardado (sensible al orden).
func (c *Controller) Dirty() bool {
	if !c.Seeded() {
		return false
	}
	return !c.draft.Equal(c.snapshot)
}

// ResetToSnapshot descarta los cambios locales.
func (c *Controller) ResetToSnapshot() error {
	if !c.Seeded() {
		return ErrNotSeeded
	}
	c.draft.replaceWith(c.snapshot)
	return nil
}

// MarkSaved toma como snapshot el Draft actual. No toca seededDate.
func (c *Controller) MarkSaved() {
	c.snapshot = c.draft.Clone()
}

// markSavedAs usa como snapshot exactamente lo que se envió al backend
// (puede diferir del Draft si hubo un reorder mientras volaba el request).
func (c *Controller) markSavedAs(sent *Draft, epoch int64) {
	c.snapshot = sent.Clone()
	if epoch > c.epoch {
		c.epoch = epoch
	}
}

// Snapshot devuelve una copia del último estado guardado.
func (c *Controller) Snapshot() *Draft { return c.snapshot.Clone() }

// updateSnapshot aplica una mutación solo al snapshot (flujos incrementales).
func (c *Controller) updateSnapshot(fn func(*Draft)) {
	fn(c.snapshot)
}
