package assignments

import "time"

// Run es un espacio físico (patio, sala de juego) con capacidad por franja.
type Run struct {
	ID                string
	Name              string
	MaxCapacity       int
	TimePeriodMinutes *int // duración por defecto de un turno; nil = libre
	SortOrder         int

	CreatedAt time.Time
}

// Assignment es un pet en un run para un día. Position mantiene el orden dentro del run.
type Assignment struct {
	ID        string
	Date      string // YYYY-MM-DD
	RunID     string
	PetID     string
	StartTime string // HH:MM
	EndTime   string // HH:MM
	BookingID string
	Notes     string
	Position  int

	CreatedAt time.Time
}

// Board es el estado canónico de una fecha. Epoch sube en cada escritura.
type Board struct {
	Date        string
	Epoch       int64
	Runs        []Run
	Assignments []Assignment
}

// Slot es una franja candidata; Available = hay lugar (orientativo, no se reserva).
type Slot struct {
	StartTime string
	EndTime   string
	Available bool
}

// BoardSaved se publica después de cada escritura de una fecha.
type BoardSaved struct {
	Date        string    `json:"date"`
	Epoch       int64     `json:"epoch"`
	Assignments int       `json:"assignments"`
	Source      string    `json:"source"` // replace_all | create | delete
	OperatorID  string    `json:"operator_id,omitempty"`
	SavedAt     time.Time `json:"saved_at"`
}
