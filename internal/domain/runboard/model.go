package runboard

import "time"

// DefaultMaxCapacity se usa cuando el backend no informa capacidad (o informa < 1).
const DefaultMaxCapacity = 10

// BookingInfo viene de una estadía activa (check-in/out + servicio).
type BookingInfo struct {
	BookingID   string
	CheckIn     time.Time
	CheckOut    time.Time
	ServiceName string
}

// Pet es una referencia read-only al roster de check-in. El board nunca la modifica.
type Pet struct {
	ID      string
	Name    string
	Species string
	Breed   string

	OwnerIDs      []string
	BehaviorFlags []string

	HasMedicalNotes bool
	HasDietaryNotes bool

	Booking *BookingInfo
}

// Run es un recurso físico con capacidad acotada para un día.
type Run struct {
	ID                string
	Name              string
	MaxCapacity       int
	TimePeriodMinutes *int // nil = sin duración configurada
	SortOrder         int
}

// Capacity devuelve MaxCapacity normalizado (>= 1).
func (r Run) Capacity() int {
	if r.MaxCapacity < 1 {
		return DefaultMaxCapacity
	}
	return r.MaxCapacity
}

// Assignment liga un Pet a un Run en un día, con ventana HH:MM.
type Assignment struct {
	ID        string // lo asigna el backend; vacío en filas aún no guardadas
	RunID     string
	PetID     string
	StartTime string
	EndTime   string
	BookingID string
	Notes     string
}

// sameContent compara todo menos ID (el backend puede re-emitir IDs en un replace-all).
func (a Assignment) sameContent(b Assignment) bool {
	return a.RunID == b.RunID &&
		a.PetID == b.PetID &&
		a.StartTime == b.StartTime &&
		a.EndTime == b.EndTime &&
		a.BookingID == b.BookingID &&
		a.Notes == b.Notes
}

// Window es una ventana sugerida. Available es solo informativo.
type Window struct {
	StartTime string
	EndTime   string
	Available bool
}

// BoardPayload es lo que devuelve el gateway para una fecha (formato plano).
type BoardPayload struct {
	Date        string
	Epoch       int64
	Runs        []Run
	Assignments []Assignment
}

// PersistenceKind clasifica el estado de persistencia de una asignación.
type PersistenceKind string

const (
	PersistenceSaved  PersistenceKind = "saved"
	PersistenceDirty  PersistenceKind = "dirty"
	PersistenceFailed PersistenceKind = "failed"
)

// PersistenceStatus es Saved | Dirty | Failed(reason) por asignación.
type PersistenceStatus struct {
	Kind   PersistenceKind
	Reason string // solo con Kind == PersistenceFailed
}
