package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pet-run-board/internal/domain/assignments"
)

type AssignmentsRepo struct {
	db *sql.DB
}

func NewAssignmentsRepo(db *sql.DB) *AssignmentsRepo {
	return &AssignmentsRepo{db: db}
}

func (r *AssignmentsRepo) CreateRun(ctx context.Context, run assignments.Run) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, name, max_capacity, time_period_minutes, sort_order, created_at
		) VALUES ($1,$2,$3,$4,$5,$6)
	`,
		run.ID,
		run.Name,
		run.MaxCapacity,
		toNullInt(run.TimePeriodMinutes),
		run.SortOrder,
		run.CreatedAt,
	)
	return err
}

func (r *AssignmentsRepo) GetRun(ctx context.Context, id string) (assignments.Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return assignments.Run{}, assignments.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, max_capacity, time_period_minutes, sort_order, created_at
		FROM runs
		WHERE id = $1
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return assignments.Run{}, assignments.ErrNotFound
	}
	return run, err
}

func (r *AssignmentsRepo) ListRuns(ctx context.Context) ([]assignments.Run, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, max_capacity, time_period_minutes, sort_order, created_at
		FROM runs
		ORDER BY sort_order ASC, name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]assignments.Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *AssignmentsRepo) ListByDate(ctx context.Context, date string) ([]assignments.Assignment, int64, error) {
	var epoch int64
	err := r.db.QueryRowContext(ctx, `SELECT epoch FROM board_epochs WHERE board_date = $1`, date).Scan(&epoch)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.run_id, a.pet_id, a.start_time, a.end_time, a.booking_id, a.notes, a.position, a.created_at
		FROM run_assignments a
		JOIN runs r ON r.id = a.run_id
		WHERE a.board_date = $1
		ORDER BY r.sort_order ASC, r.name ASC, a.run_id ASC, a.position ASC
	`, date)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]assignments.Assignment, 0)
	for rows.Next() {
		a := assignments.Assignment{Date: date}
		if err := rows.Scan(
			&a.ID,
			&a.RunID,
			&a.PetID,
			&a.StartTime,
			&a.EndTime,
			&a.BookingID,
			&a.Notes,
			&a.Position,
			&a.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, epoch, rows.Err()
}

// ReplaceDate: bump del epoch primero (toma el lock de la fila de la fecha), luego delete + insert.
func (r *AssignmentsRepo) ReplaceDate(ctx context.Context, date string, items []assignments.Assignment) (int64, error) {
	var epoch int64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		if epoch, err = bumpEpoch(ctx, tx, date); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM run_assignments WHERE board_date = $1`, date); err != nil {
			return err
		}
		for _, a := range items {
			if err := insertAssignment(ctx, tx, date, a); err != nil {
				return err
			}
		}
		return nil
	})
	return epoch, err
}

func (r *AssignmentsRepo) Insert(ctx context.Context, a assignments.Assignment) (assignments.Assignment, int64, error) {
	var epoch int64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		if epoch, err = bumpEpoch(ctx, tx, a.Date); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM run_assignments WHERE board_date = $1 AND pet_id = $2
		`, a.Date, a.PetID); err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(position) + 1, 0)
			FROM run_assignments
			WHERE board_date = $1 AND run_id = $2
		`, a.Date, a.RunID).Scan(&a.Position); err != nil {
			return err
		}
		return insertAssignment(ctx, tx, a.Date, a)
	})
	if err != nil {
		return assignments.Assignment{}, 0, err
	}
	return a, epoch, nil
}

func (r *AssignmentsRepo) Delete(ctx context.Context, date, runID, ref string) (int64, error) {
	var epoch int64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM run_assignments
			WHERE board_date = $1 AND run_id = $2 AND (id = $3 OR pet_id = $3)
		`, date, runID, ref)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete assignment: rows affected: %w", err)
		}
		if n == 0 {
			return assignments.ErrNotFound
		}
		epoch, err = bumpEpoch(ctx, tx, date)
		return err
	})
	return epoch, err
}

func bumpEpoch(ctx context.Context, tx *sql.Tx, date string) (int64, error) {
	var epoch int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO board_epochs (board_date, epoch) VALUES ($1, 1)
		ON CONFLICT (board_date) DO UPDATE SET epoch = board_epochs.epoch + 1
		RETURNING epoch
	`, date).Scan(&epoch)
	return epoch, err
}

func insertAssignment(ctx context.Context, tx *sql.Tx, date string, a assignments.Assignment) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO run_assignments (
			id, board_date, run_id, pet_id,
			start_time, end_time,
			booking_id, notes,
			position, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		a.ID,
		date,
		a.RunID,
		a.PetID,
		a.StartTime,
		a.EndTime,
		a.BookingID,
		a.Notes,
		a.Position,
		a.CreatedAt,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (assignments.Run, error) {
	var run assignments.Run
	var period sql.NullInt64
	if err := row.Scan(
		&run.ID,
		&run.Name,
		&run.MaxCapacity,
		&period,
		&run.SortOrder,
		&run.CreatedAt,
	); err != nil {
		return assignments.Run{}, err
	}
	if period.Valid {
		v := int(period.Int64)
		run.TimePeriodMinutes = &v
	}
	return run, nil
}

func toNullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
