package roster

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, s Stay) error
	GetByID(ctx context.Context, id string) (Stay, error)

	// ListActive devuelve estadías que pisan [start, end), por check-in asc.
	ListActive(ctx context.Context, start, end time.Time) ([]Stay, error)
}
