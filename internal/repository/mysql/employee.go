package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"dentalclinic/internal/database"
	"dentalclinic/internal/model"
	"dentalclinic/internal/repository"
)

// EmployeeMySQL is a MySQL implementation of repository.EmployeeRepository.
type EmployeeMySQL struct {
	db *sql.DB
}

func NewEmployeeMySQL(db *sql.DB) *EmployeeMySQL {
	return &EmployeeMySQL{db: db}
}

var _ repository.EmployeeRepository = (*EmployeeMySQL)(nil)

const employeeSelect = `
	SELECT e.employee_id, e.employee_code, e.account_id, a.username, e.first_name, e.last_name,
	       e.phone, e.employment_type, e.is_active, e.created_at, e.updated_at
	FROM employees e
	LEFT JOIN accounts a ON a.account_id = e.account_id
`

func scanEmployee(row scanner) (*model.Employee, error) {
	var e model.Employee
	var code sql.NullString
	if err := row.Scan(
		&e.ID,
		&code,
		&e.AccountID,
		&e.Username,
		&e.FirstName,
		&e.LastName,
		&e.Phone,
		&e.EmploymentType,
		&e.IsActive,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.Code = code.String
	return &e, nil
}

func (r *EmployeeMySQL) Create(ctx context.Context, e *model.Employee, acct *model.Account, specializationIDs []int) (*model.Employee, error) {
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if acct != nil {
			if err := insertAccount(ctx, tx, acct); err != nil {
				return fmt.Errorf("insert account: %w", err)
			}
			e.AccountID = &acct.ID
			e.Username = &acct.Username
		}

		const q = `
			INSERT INTO employees (account_id, first_name, last_name, phone, employment_type, is_active)
			VALUES (?, ?, ?, ?, ?, ?)
		`
		res, err := tx.ExecContext(ctx, q, e.AccountID, e.FirstName, e.LastName, e.Phone, e.EmploymentType, e.IsActive)
		if err != nil {
			return fmt.Errorf("insert employee: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		e.ID = int(id)
		e.Code = model.EmployeeCodeFor(e.ID)

		if _, err := tx.ExecContext(ctx, `UPDATE employees SET employee_code = ? WHERE employee_id = ?`, e.Code, e.ID); err != nil {
			return fmt.Errorf("assign employee code: %w", err)
		}

		for _, sid := range specializationIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO employee_specializations (employee_id, specialization_id) VALUES (?, ?)`, e.ID, sid,
			); err != nil {
				return fmt.Errorf("insert employee specialization: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, e.ID)
}

func (r *EmployeeMySQL) FindByCode(ctx context.Context, code string) (*model.Employee, error) {
	return r.findOne(ctx, employeeSelect+` WHERE e.employee_code = ?`, code)
}

func (r *EmployeeMySQL) FindByID(ctx context.Context, id int) (*model.Employee, error) {
	return r.findOne(ctx, employeeSelect+` WHERE e.employee_id = ?`, id)
}

func (r *EmployeeMySQL) FindByUsername(ctx context.Context, username string) (*model.Employee, error) {
	return r.findOne(ctx, employeeSelect+` WHERE a.username = ?`, username)
}

func (r *EmployeeMySQL) findOne(ctx context.Context, q string, arg any) (*model.Employee, error) {
	e, err := scanEmployee(r.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		return nil, err
	}
	specs, err := r.specializations(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	e.Specializations = specs
	return e, nil
}

func (r *EmployeeMySQL) specializations(ctx context.Context, employeeID int) ([]model.Specialization, error) {
	const q = `
		SELECT s.specialization_id, s.code, s.name
		FROM employee_specializations es
		JOIN specializations s ON s.specialization_id = es.specialization_id
		WHERE es.employee_id = ?
		ORDER BY s.specialization_id
	`
	rows, err := r.db.QueryContext(ctx, q, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSpecializations(rows)
}

func scanSpecializations(rows *sql.Rows) ([]model.Specialization, error) {
	out := make([]model.Specialization, 0)
	for rows.Next() {
		var s model.Specialization
		if err := rows.Scan(&s.ID, &s.Code, &s.Name); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// List returns employees using LIMIT/OFFSET pagination and a total count.
func (r *EmployeeMySQL) List(ctx context.Context, pq repository.PageQuery, activeOnly bool) (*repository.PageResult[model.Employee], error) {
	where := ""
	if activeOnly {
		where = " WHERE e.is_active = 1"
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees e`+where).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, employeeSelect+where+` ORDER BY e.employee_id LIMIT ? OFFSET ?`, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]model.Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range items {
		specs, err := r.specializations(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].Specializations = specs
	}

	return &repository.PageResult[model.Employee]{Items: items, Total: total}, nil
}

func (r *EmployeeMySQL) Deactivate(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE employees SET is_active = 0 WHERE employee_id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *EmployeeMySQL) PhoneExists(ctx context.Context, phone string) (bool, error) {
	return exists(ctx, r.db, `SELECT COUNT(*) FROM employees WHERE phone = ?`, phone)
}

func (r *EmployeeMySQL) FindSpecializationsByCodes(ctx context.Context, codes []string) ([]model.Specialization, error) {
	if len(codes) == 0 {
		return []model.Specialization{}, nil
	}
	q := `SELECT specialization_id, code, name FROM specializations WHERE code IN (` + placeholders(len(codes)) + `) ORDER BY specialization_id`
	rows, err := r.db.QueryContext(ctx, q, stringArgs(codes)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSpecializations(rows)
}

func (r *EmployeeMySQL) AddShift(ctx context.Context, s *model.Shift) (*model.Shift, error) {
	const q = `
		INSERT INTO employee_shifts (employee_id, work_date, start_time, end_time)
		VALUES (?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, q, s.EmployeeID, s.WorkDate, s.StartTime, s.EndTime)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	out := *s
	out.ID = int(id)
	return &out, nil
}

func (r *EmployeeMySQL) DeleteShift(ctx context.Context, employeeID, shiftID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM employee_shifts WHERE shift_id = ? AND employee_id = ?`, shiftID, employeeID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *EmployeeMySQL) ListShifts(ctx context.Context, employeeID int, from, to model.Date) ([]model.Shift, error) {
	const q = `
		SELECT shift_id, employee_id, work_date, start_time, end_time, created_at
		FROM employee_shifts
		WHERE employee_id = ? AND work_date BETWEEN ? AND ?
		ORDER BY work_date, start_time
	`
	rows, err := r.db.QueryContext(ctx, q, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Shift, 0)
	for rows.Next() {
		var s model.Shift
		if err := rows.Scan(&s.ID, &s.EmployeeID, &s.WorkDate, &s.StartTime, &s.EndTime, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
