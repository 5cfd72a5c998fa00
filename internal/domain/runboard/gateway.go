package runboard

import "context"

// Gateway es el colaborador de persistencia (backend). El transporte concreto
// vive en adapters/backend.
type Gateway interface {
	FetchForDate(ctx context.Context, date string) (BoardPayload, error)
	AvailableSlots(ctx context.Context, runID, date string) ([]Window, error)

	// SaveAll reemplaza todas las asignaciones de la fecha (todo o nada) y devuelve
	// el estado canónico. Mandar dos veces lo mismo deja el mismo estado.
	SaveAll(ctx context.Context, date string, assignments []Assignment) (BoardPayload, error)

	// Alternativas incrementales (asignación desde un picker, fuera del board).
	CreateAssignment(ctx context.Context, date string, a Assignment) (Assignment, error)
	DeleteAssignment(ctx context.Context, date, runID, ref string) error
}

// Roster entrega los pets con check-in activo para una fecha.
type Roster interface {
	CheckedIn(ctx context.Context, date string) ([]Pet, error)
}
