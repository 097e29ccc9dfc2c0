package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"dentalclinic/internal/database"
	"dentalclinic/internal/model"
	"dentalclinic/internal/repository"
)

// AppointmentMySQL is a MySQL implementation of repository.AppointmentRepository.
type AppointmentMySQL struct {
	db *sql.DB
}

func NewAppointmentMySQL(db *sql.DB) *AppointmentMySQL {
	return &AppointmentMySQL{db: db}
}

var _ repository.AppointmentRepository = (*AppointmentMySQL)(nil)

const appointmentColumns = `a.appointment_id, a.appointment_code, a.patient_id, a.employee_id, a.room_id,
	a.appointment_start_time, a.appointment_end_time, a.expected_duration_minutes, a.status,
	a.actual_start_time, a.actual_end_time, a.notes, a.created_by, a.created_at, a.updated_at`

func scanAppointment(row scanner) (*model.Appointment, error) {
	var a model.Appointment
	if err := row.Scan(
		&a.ID,
		&a.Code,
		&a.PatientID,
		&a.EmployeeID,
		&a.RoomID,
		&a.StartTime,
		&a.EndTime,
		&a.ExpectedDurationMinutes,
		&a.Status,
		&a.ActualStartTime,
		&a.ActualEndTime,
		&a.Notes,
		&a.CreatedBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAppointments(rows *sql.Rows) ([]model.Appointment, error) {
	out := make([]model.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func activeStatusArgs() []any {
	out := make([]any, len(model.ActiveStatuses))
	for i, s := range model.ActiveStatuses {
		out[i] = string(s)
	}
	return out
}

func (r *AppointmentMySQL) Create(ctx context.Context, na repository.NewAppointment) (*model.Appointment, error) {
	var id int
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		id, err = insertAppointment(ctx, tx, na)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, r.db, `SELECT `+appointmentColumns+` FROM appointments a WHERE a.appointment_id = ?`, id)
}

// nextCode locks the day's highest code and returns the following one.
func nextCode(ctx context.Context, tx *sql.Tx, a *model.Appointment) (string, error) {
	prefix := model.AppointmentCodePrefix(a.StartTime)
	const q = `
		SELECT appointment_code
		FROM appointments
		WHERE appointment_code LIKE ?
		ORDER BY LENGTH(appointment_code) DESC, appointment_code DESC
		LIMIT 1
		FOR UPDATE
	`
	var last string
	err := tx.QueryRowContext(ctx, q, prefix+"%").Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AppointmentCode(a.StartTime, 1), nil
	}
	if err != nil {
		return "", err
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(last, prefix))
	if err != nil {
		return "", fmt.Errorf("malformed appointment code %q: %w", last, err)
	}
	return model.AppointmentCode(a.StartTime, seq+1), nil
}

func insertAppointment(ctx context.Context, tx *sql.Tx, na repository.NewAppointment) (int, error) {
	a := na.Appointment
	code, err := nextCode(ctx, tx, a)
	if err != nil {
		return 0, fmt.Errorf("next appointment code: %w", err)
	}
	a.Code = code

	const q = `
		INSERT INTO appointments (appointment_code, patient_id, employee_id, room_id, appointment_start_time,
			appointment_end_time, expected_duration_minutes, status, notes, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := tx.ExecContext(ctx, q,
		a.Code,
		a.PatientID,
		a.EmployeeID,
		a.RoomID,
		a.StartTime,
		a.EndTime,
		a.ExpectedDurationMinutes,
		a.Status,
		a.Notes,
		a.CreatedBy,
	)
	if err != nil {
		return 0, fmt.Errorf("insert appointment: %w", err)
	}
	id64, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	a.ID = int(id64)

	for _, sid := range na.ServiceIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO appointment_services (appointment_id, service_id) VALUES (?, ?)`, a.ID, sid,
		); err != nil {
			return 0, fmt.Errorf("insert appointment service: %w", err)
		}
	}
	for _, eid := range na.ParticipantIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO appointment_participants (appointment_id, employee_id, role) VALUES (?, ?, ?)`,
			a.ID, eid, model.ParticipantAssistant,
		); err != nil {
			return 0, fmt.Errorf("insert appointment participant: %w", err)
		}
	}
	if na.Audit != nil {
		na.Audit.AppointmentID = a.ID
		if err := insertAudit(ctx, tx, na.Audit); err != nil {
			return 0, err
		}
	}
	return a.ID, nil
}

func insertAudit(ctx context.Context, q querier, l *model.AppointmentAuditLog) error {
	const stmt = `
		INSERT INTO appointment_audit_logs (appointment_id, performed_by_employee_id, action_type,
			old_status, new_status, reason_code, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := q.ExecContext(ctx, stmt,
		l.AppointmentID,
		l.PerformedByEmployeeID,
		l.ActionType,
		l.OldStatus,
		l.NewStatus,
		l.ReasonCode,
		l.Notes,
	); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (r *AppointmentMySQL) FindByCode(ctx context.Context, code string) (*model.Appointment, error) {
	return r.findOne(ctx, r.db, `SELECT `+appointmentColumns+` FROM appointments a WHERE a.appointment_code = ?`, code)
}

func (r *AppointmentMySQL) findOne(ctx context.Context, q querier, query string, arg any) (*model.Appointment, error) {
	return scanAppointment(q.QueryRowContext(ctx, query, arg))
}

// List returns appointments using LIMIT/OFFSET pagination and a total count.
func (r *AppointmentMySQL) List(ctx context.Context, f repository.AppointmentFilter, pq repository.PageQuery) (*repository.PageResult[model.Appointment], error) {
	var conds []string
	var args []any
	if f.From != nil {
		conds = append(conds, "a.appointment_start_time >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		conds = append(conds, "a.appointment_start_time < ?")
		args = append(args, *f.To)
	}
	if len(f.Statuses) > 0 {
		conds = append(conds, "a.status IN ("+placeholders(len(f.Statuses))+")")
		for _, s := range f.Statuses {
			args = append(args, string(s))
		}
	}
	if f.PatientID > 0 {
		conds = append(conds, "a.patient_id = ?")
		args = append(args, f.PatientID)
	}
	if f.EmployeeID > 0 {
		conds = append(conds, "a.employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	if f.RoomID != "" {
		conds = append(conds, "a.room_id = ?")
		args = append(args, f.RoomID)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM appointments a`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments a`+where+` ORDER BY a.appointment_start_time, a.appointment_id LIMIT ? OFFSET ?`,
		append(args, pq.Limit, pq.Offset)...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := collectAppointments(rows)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Appointment]{Items: items, Total: total}, nil
}

func (r *AppointmentMySQL) FindConflicts(ctx context.Context, q repository.ConflictQuery) ([]model.Appointment, error) {
	var resource string
	var resourceArg any
	switch {
	case q.EmployeeID > 0:
		resource, resourceArg = "a.employee_id = ?", q.EmployeeID
	case q.RoomID != "":
		resource, resourceArg = "a.room_id = ?", q.RoomID
	case q.PatientID > 0:
		resource, resourceArg = "a.patient_id = ?", q.PatientID
	default:
		return nil, errors.New("conflict query needs an employee, room or patient")
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments a
		WHERE ` + resource + `
		  AND a.status IN (` + placeholders(len(model.ActiveStatuses)) + `)
		  AND a.appointment_start_time < ? AND a.appointment_end_time > ?
		  AND a.appointment_id <> ?
		ORDER BY a.appointment_start_time`
	args := append([]any{resourceArg}, activeStatusArgs()...)
	args = append(args, q.End, q.Start, q.ExcludeID)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func (r *AppointmentMySQL) ParticipantConflicts(ctx context.Context, employeeID int, q repository.ConflictQuery) ([]model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments a
		JOIN appointment_participants p ON p.appointment_id = a.appointment_id
		WHERE p.employee_id = ?
		  AND a.status IN (` + placeholders(len(model.ActiveStatuses)) + `)
		  AND a.appointment_start_time < ? AND a.appointment_end_time > ?
		  AND a.appointment_id <> ?
		ORDER BY a.appointment_start_time`
	args := append([]any{employeeID}, activeStatusArgs()...)
	args = append(args, q.End, q.Start, q.ExcludeID)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func (r *AppointmentMySQL) ServiceIDs(ctx context.Context, appointmentID int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT service_id FROM appointment_services WHERE appointment_id = ? ORDER BY service_id`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInts(rows)
}

func (r *AppointmentMySQL) Participants(ctx context.Context, appointmentID int) ([]model.AppointmentParticipant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT appointment_id, employee_id, role FROM appointment_participants WHERE appointment_id = ? ORDER BY employee_id`,
		appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.AppointmentParticipant, 0)
	for rows.Next() {
		var p model.AppointmentParticipant
		if err := rows.Scan(&p.AppointmentID, &p.EmployeeID, &p.Role); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *AppointmentMySQL) UpdateStatus(ctx context.Context, code string, fn repository.StatusMutation) (*model.Appointment, error) {
	var out *model.Appointment
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		a, err := r.findOne(ctx, tx, `SELECT `+appointmentColumns+` FROM appointments a WHERE a.appointment_code = ? FOR UPDATE`, code)
		if err != nil {
			return err
		}
		p, err := scanPatient(tx.QueryRowContext(ctx, `SELECT `+patientColumns+` FROM patients WHERE patient_id = ? FOR UPDATE`, a.PatientID))
		if err != nil {
			return fmt.Errorf("lock patient: %w", err)
		}

		audit, err := fn(a, p)
		if err != nil {
			return err
		}

		const q = `
			UPDATE appointments SET status = ?, actual_start_time = ?, actual_end_time = ?, notes = ?
			WHERE appointment_id = ?
		`
		if _, err := tx.ExecContext(ctx, q, a.Status, a.ActualStartTime, a.ActualEndTime, a.Notes, a.ID); err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE patients SET consecutive_no_shows = ?, is_booking_blocked = ?, booking_block_reason = ?, blocked_at = ?
			WHERE patient_id = ?`,
			p.ConsecutiveNoShows, p.IsBookingBlocked, p.BookingBlockReason, p.BlockedAt, p.ID,
		); err != nil {
			return fmt.Errorf("update patient attendance: %w", err)
		}
		if audit != nil {
			audit.AppointmentID = a.ID
			if err := insertAudit(ctx, tx, audit); err != nil {
				return err
			}
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AppointmentMySQL) Reschedule(ctx context.Context, oldID int, cancelAudit *model.AppointmentAuditLog, na repository.NewAppointment) (*model.Appointment, error) {
	var newID int
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE appointments SET status = ? WHERE appointment_id = ? AND status = ?`,
			model.StatusCancelled, oldID, model.StatusScheduled,
		)
		if err != nil {
			return fmt.Errorf("cancel appointment: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return repository.ErrStaleState
		}
		if cancelAudit != nil {
			cancelAudit.AppointmentID = oldID
			if err := insertAudit(ctx, tx, cancelAudit); err != nil {
				return err
			}
		}
		newID, err = insertAppointment(ctx, tx, na)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, r.db, `SELECT `+appointmentColumns+` FROM appointments a WHERE a.appointment_id = ?`, newID)
}

func (r *AppointmentMySQL) ListAuditLogs(ctx context.Context, appointmentID int) ([]model.AppointmentAuditLog, error) {
	const q = `
		SELECT log_id, appointment_id, performed_by_employee_id, action_type, old_status, new_status,
			reason_code, notes, created_at
		FROM appointment_audit_logs
		WHERE appointment_id = ?
		ORDER BY created_at, log_id
	`
	rows, err := r.db.QueryContext(ctx, q, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.AppointmentAuditLog, 0)
	for rows.Next() {
		var l model.AppointmentAuditLog
		if err := rows.Scan(
			&l.ID,
			&l.AppointmentID,
			&l.PerformedByEmployeeID,
			&l.ActionType,
			&l.OldStatus,
			&l.NewStatus,
			&l.ReasonCode,
			&l.Notes,
			&l.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
