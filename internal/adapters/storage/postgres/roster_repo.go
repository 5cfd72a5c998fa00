package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"pet-run-board/internal/domain/roster"
)

type RosterRepo struct {
	db *sql.DB
}

func NewRosterRepo(db *sql.DB) *RosterRepo {
	return &RosterRepo{db: db}
}

func (r *RosterRepo) Create(ctx context.Context, s roster.Stay) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stays (
			id, pet_id, pet_name, species, breed,
			owner_user_ids, behavior_flags,
			medical_notes, dietary_notes,
			service_name, check_in, check_out,
			created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		s.ID,
		s.PetID,
		s.PetName,
		string(s.Species),
		s.Breed,
		nonNilText(s.OwnerUserIDs),
		nonNilText(s.BehaviorFlags),
		s.MedicalNotes,
		s.DietaryNotes,
		s.ServiceName,
		s.CheckIn,
		s.CheckOut,
		s.CreatedAt,
	)
	return err
}

const staySelect = `
	SELECT
		id, pet_id, pet_name, species, breed,
		owner_user_ids, behavior_flags,
		medical_notes, dietary_notes,
		service_name, check_in, check_out,
		created_at
	FROM stays
`

func (r *RosterRepo) GetByID(ctx context.Context, id string) (roster.Stay, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return roster.Stay{}, roster.ErrNotFound
	}

	s, err := r.scan(r.db.QueryRowContext(ctx, staySelect+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return roster.Stay{}, roster.ErrNotFound
	}
	return s, err
}

func (r *RosterRepo) ListActive(ctx context.Context, start, end time.Time) ([]roster.Stay, error) {
	rows, err := r.db.QueryContext(ctx, staySelect+`
		WHERE check_in < $2 AND check_out > $1
		ORDER BY check_in ASC, pet_name ASC
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]roster.Stay, 0)
	for rows.Next() {
		s, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *RosterRepo) scan(row rowScanner) (roster.Stay, error) {
	var s roster.Stay
	var species string
	// pgtype.Map no es seguro entre goroutines: uno por fila.
	types := pgtype.NewMap()
	if err := row.Scan(
		&s.ID,
		&s.PetID,
		&s.PetName,
		&species,
		&s.Breed,
		types.SQLScanner(&s.OwnerUserIDs),
		types.SQLScanner(&s.BehaviorFlags),
		&s.MedicalNotes,
		&s.DietaryNotes,
		&s.ServiceName,
		&s.CheckIn,
		&s.CheckOut,
		&s.CreatedAt,
	); err != nil {
		return roster.Stay{}, err
	}
	s.Species = roster.Species(species)
	return s, nil
}

// text[] NOT NULL: nil se manda como arreglo vacío.
func nonNilText(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
