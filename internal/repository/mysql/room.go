package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"dentalclinic/internal/database"
	"dentalclinic/internal/model"
	"dentalclinic/internal/repository"
)

// RoomMySQL is a MySQL implementation of repository.RoomRepository.
type RoomMySQL struct {
	db *sql.DB
}

func NewRoomMySQL(db *sql.DB) *RoomMySQL {
	return &RoomMySQL{db: db}
}

var _ repository.RoomRepository = (*RoomMySQL)(nil)

const roomColumns = `room_id, room_code, room_name, room_type, is_active, created_at, updated_at`

func scanRoom(row scanner) (*model.Room, error) {
	var rm model.Room
	if err := row.Scan(&rm.ID, &rm.Code, &rm.Name, &rm.Type, &rm.IsActive, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
		return nil, err
	}
	return &rm, nil
}

func (r *RoomMySQL) Create(ctx context.Context, rm *model.Room) (*model.Room, error) {
	const q = `INSERT INTO rooms (room_id, room_code, room_name, room_type, is_active) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, rm.ID, rm.Code, rm.Name, rm.Type, rm.IsActive); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, rm.ID)
}

func (r *RoomMySQL) FindByCode(ctx context.Context, code string) (*model.Room, error) {
	return scanRoom(r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE room_code = ?`, code))
}

func (r *RoomMySQL) FindByID(ctx context.Context, id string) (*model.Room, error) {
	return scanRoom(r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE room_id = ?`, id))
}

func (r *RoomMySQL) List(ctx context.Context, activeOnly bool, roomType string) ([]model.Room, error) {
	var conds []string
	var args []any
	if activeOnly {
		conds = append(conds, "is_active = 1")
	}
	if roomType != "" {
		conds = append(conds, "room_type = ?")
		args = append(args, roomType)
	}
	q := `SELECT ` + roomColumns + ` FROM rooms`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY room_code"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rm)
	}
	return out, rows.Err()
}

func (r *RoomMySQL) Update(ctx context.Context, rm *model.Room) error {
	res, err := r.db.ExecContext(ctx, `UPDATE rooms SET room_name = ?, room_type = ? WHERE room_id = ?`, rm.Name, rm.Type, rm.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *RoomMySQL) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE rooms SET is_active = ? WHERE room_id = ?`, active, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *RoomMySQL) ServiceIDs(ctx context.Context, roomID string) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT service_id FROM room_services WHERE room_id = ? ORDER BY service_id`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInts(rows)
}

func (r *RoomMySQL) ReplaceServices(ctx context.Context, roomID string, serviceIDs []int) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM room_services WHERE room_id = ?`, roomID); err != nil {
			return fmt.Errorf("clear room services: %w", err)
		}
		for _, sid := range serviceIDs {
			if _, err := tx.ExecContext(ctx, `INSERT INTO room_services (room_id, service_id) VALUES (?, ?)`, roomID, sid); err != nil {
				return fmt.Errorf("insert room service: %w", err)
			}
		}
		return nil
	})
}

func collectInts(rows *sql.Rows) ([]int, error) {
	out := make([]int, 0)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
