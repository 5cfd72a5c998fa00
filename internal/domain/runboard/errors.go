package runboard

import "errors"

var (
	// Validación: se rechaza antes de mutar nada.
	ErrInvalidWindow = errors.New("invalid time window")
	ErrInvalidClock  = errors.New("time must be HH:MM")
	ErrPetNotFound   = errors.New("pet not found")
	ErrRunNotFound   = errors.New("run not found")
	ErrNotPending    = errors.New("no placement pending confirmation")
	ErrBusy          = errors.New("another placement is in progress")
	ErrNotSeeded     = errors.New("board not seeded for active date")
	ErrInvalidDate   = errors.New("date must be YYYY-MM-DD")

	// Gateway: el estado optimista local se conserva.
	ErrGateway = errors.New("persistence gateway failure")

	// El backend avanzó de epoch mientras había cambios locales sin guardar.
	ErrStaleSeed = errors.New("server board changed while local draft is dirty")
)
