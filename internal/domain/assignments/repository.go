package assignments

import "context"

type Repository interface {
	CreateRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context) ([]Run, error)

	// ListByDate devuelve las asignaciones ordenadas por run y Position, más el epoch actual.
	ListByDate(ctx context.Context, date string) ([]Assignment, int64, error)

	// ReplaceDate borra e inserta todo en una sola transacción y devuelve el nuevo epoch.
	ReplaceDate(ctx context.Context, date string, items []Assignment) (int64, error)

	// Insert saca al pet de cualquier otro run de la fecha y lo agrega al final de a.RunID.
	Insert(ctx context.Context, a Assignment) (Assignment, int64, error)

	// Delete acepta ID de asignación o PetID como ref.
	Delete(ctx context.Context, date, runID, ref string) (int64, error)
}

// Publisher recibe los eventos de board guardado (RabbitMQ en prod). Puede ser nil.
type Publisher interface {
	PublishBoardSaved(ctx context.Context, ev BoardSaved) error
}

// Recorder cuenta escrituras por origen (Prometheus en prod). Puede ser nil.
type Recorder interface {
	BoardWritten(source string)
}
