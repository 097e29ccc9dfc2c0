package mysql

import (
	"context"
	"database/sql"
	"strings"

	"dentalclinic/internal/model"
	"dentalclinic/internal/repository"
)

// DentalServiceMySQL is a MySQL implementation of repository.DentalServiceRepository.
type DentalServiceMySQL struct {
	db *sql.DB
}

func NewDentalServiceMySQL(db *sql.DB) *DentalServiceMySQL {
	return &DentalServiceMySQL{db: db}
}

var _ repository.DentalServiceRepository = (*DentalServiceMySQL)(nil)

const serviceColumns = `service_id, service_code, service_name, description, default_duration_minutes,
	default_buffer_minutes, price, specialization_id, is_active, created_at, updated_at`

func scanService(row scanner) (*model.DentalService, error) {
	var s model.DentalService
	if err := row.Scan(
		&s.ID,
		&s.Code,
		&s.Name,
		&s.Description,
		&s.DefaultDurationMinutes,
		&s.DefaultBufferMinutes,
		&s.Price,
		&s.SpecializationID,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

func collectServices(rows *sql.Rows) ([]model.DentalService, error) {
	out := make([]model.DentalService, 0)
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *DentalServiceMySQL) Create(ctx context.Context, s *model.DentalService) (*model.DentalService, error) {
	const q = `
		INSERT INTO services (service_code, service_name, description, default_duration_minutes,
			default_buffer_minutes, price, specialization_id, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, q,
		s.Code,
		s.Name,
		s.Description,
		s.DefaultDurationMinutes,
		s.DefaultBufferMinutes,
		s.Price,
		s.SpecializationID,
		s.IsActive,
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, `SELECT `+serviceColumns+` FROM services WHERE service_id = ?`, id)
}

func (r *DentalServiceMySQL) FindByCode(ctx context.Context, code string) (*model.DentalService, error) {
	return r.findOne(ctx, `SELECT `+serviceColumns+` FROM services WHERE service_code = ?`, code)
}

func (r *DentalServiceMySQL) findOne(ctx context.Context, q string, arg any) (*model.DentalService, error) {
	return scanService(r.db.QueryRowContext(ctx, q, arg))
}

func (r *DentalServiceMySQL) FindByCodes(ctx context.Context, codes []string) ([]model.DentalService, error) {
	if len(codes) == 0 {
		return []model.DentalService{}, nil
	}
	q := `SELECT ` + serviceColumns + ` FROM services WHERE service_code IN (` + placeholders(len(codes)) + `) ORDER BY service_id`
	rows, err := r.db.QueryContext(ctx, q, stringArgs(codes)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectServices(rows)
}

func (r *DentalServiceMySQL) FindByIDs(ctx context.Context, ids []int) ([]model.DentalService, error) {
	if len(ids) == 0 {
		return []model.DentalService{}, nil
	}
	q := `SELECT ` + serviceColumns + ` FROM services WHERE service_id IN (` + placeholders(len(ids)) + `) ORDER BY service_id`
	rows, err := r.db.QueryContext(ctx, q, intArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectServices(rows)
}

// List returns services using LIMIT/OFFSET pagination and a total count.
func (r *DentalServiceMySQL) List(ctx context.Context, q repository.ServiceListQuery) (*repository.PageResult[model.DentalService], error) {
	var conds []string
	var args []any
	if q.ActiveOnly {
		conds = append(conds, "is_active = 1")
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + s + "%"
		conds = append(conds, "(service_code LIKE ? OR service_name LIKE ?)")
		args = append(args, like, like)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM services`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+serviceColumns+` FROM services`+where+` ORDER BY service_code LIMIT ? OFFSET ?`,
		append(args, q.Limit, q.Offset)...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := collectServices(rows)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.DentalService]{Items: items, Total: total}, nil
}

func (r *DentalServiceMySQL) Update(ctx context.Context, s *model.DentalService) error {
	const q = `
		UPDATE services SET service_name = ?, description = ?, default_duration_minutes = ?,
			default_buffer_minutes = ?, price = ?, specialization_id = ?
		WHERE service_id = ?
	`
	res, err := r.db.ExecContext(ctx, q,
		s.Name,
		s.Description,
		s.DefaultDurationMinutes,
		s.DefaultBufferMinutes,
		s.Price,
		s.SpecializationID,
		s.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *DentalServiceMySQL) SetActive(ctx context.Context, id int, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE services SET is_active = ? WHERE service_id = ?`, active, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *DentalServiceMySQL) SpecializationExists(ctx context.Context, id int) (bool, error) {
	return exists(ctx, r.db, `SELECT COUNT(*) FROM specializations WHERE specialization_id = ?`, id)
}
