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

// PatientMySQL is a MySQL implementation of repository.PatientRepository.
type PatientMySQL struct {
	db *sql.DB
}

func NewPatientMySQL(db *sql.DB) *PatientMySQL {
	return &PatientMySQL{db: db}
}

var _ repository.PatientRepository = (*PatientMySQL)(nil)

const patientColumns = `patient_id, patient_code, account_id, first_name, last_name, email, phone, date_of_birth,
	address, gender, medical_history, allergies, emergency_contact_name, emergency_contact_phone,
	guardian_name, guardian_phone, guardian_relationship, is_active, consecutive_no_shows,
	is_booking_blocked, booking_block_reason, blocked_at, is_blacklisted, blacklist_reason,
	blacklist_notes, blacklisted_by, blacklisted_at, created_at, updated_at`

// patientSortColumns maps accepted sort keys to columns.
var patientSortColumns = map[string]string{
	"patient_code":  "patient_id",
	"first_name":    "first_name",
	"last_name":     "last_name",
	"created_at":    "created_at",
	"date_of_birth": "date_of_birth",
}

func scanPatient(row scanner) (*model.Patient, error) {
	var p model.Patient
	var code sql.NullString
	if err := row.Scan(
		&p.ID,
		&code,
		&p.AccountID,
		&p.FirstName,
		&p.LastName,
		&p.Email,
		&p.Phone,
		&p.DateOfBirth,
		&p.Address,
		&p.Gender,
		&p.MedicalHistory,
		&p.Allergies,
		&p.EmergencyContactName,
		&p.EmergencyContactPhone,
		&p.GuardianName,
		&p.GuardianPhone,
		&p.GuardianRelationship,
		&p.IsActive,
		&p.ConsecutiveNoShows,
		&p.IsBookingBlocked,
		&p.BookingBlockReason,
		&p.BlockedAt,
		&p.IsBlacklisted,
		&p.BlacklistReason,
		&p.BlacklistNotes,
		&p.BlacklistedBy,
		&p.BlacklistedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Code = code.String
	return &p, nil
}

func (r *PatientMySQL) Create(ctx context.Context, p *model.Patient, acct *model.Account) (*model.Patient, error) {
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if acct != nil {
			if err := insertAccount(ctx, tx, acct); err != nil {
				return fmt.Errorf("insert account: %w", err)
			}
			p.AccountID = &acct.ID
		}

		const q = `
			INSERT INTO patients (account_id, first_name, last_name, email, phone, date_of_birth, address, gender,
				medical_history, allergies, emergency_contact_name, emergency_contact_phone,
				guardian_name, guardian_phone, guardian_relationship, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		res, err := tx.ExecContext(ctx, q,
			p.AccountID,
			p.FirstName,
			p.LastName,
			p.Email,
			p.Phone,
			p.DateOfBirth,
			p.Address,
			p.Gender,
			p.MedicalHistory,
			p.Allergies,
			p.EmergencyContactName,
			p.EmergencyContactPhone,
			p.GuardianName,
			p.GuardianPhone,
			p.GuardianRelationship,
			p.IsActive,
		)
		if err != nil {
			return fmt.Errorf("insert patient: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		p.ID = int(id)
		p.Code = model.PatientCodeFor(p.ID)

		if _, err := tx.ExecContext(ctx, `UPDATE patients SET patient_code = ? WHERE patient_id = ?`, p.Code, p.ID); err != nil {
			return fmt.Errorf("assign patient code: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, p.ID)
}

func (r *PatientMySQL) FindByCode(ctx context.Context, code string) (*model.Patient, error) {
	return scanPatient(r.db.QueryRowContext(ctx, `SELECT `+patientColumns+` FROM patients WHERE patient_code = ?`, code))
}

func (r *PatientMySQL) FindByID(ctx context.Context, id int) (*model.Patient, error) {
	return scanPatient(r.db.QueryRowContext(ctx, `SELECT `+patientColumns+` FROM patients WHERE patient_id = ?`, id))
}

// List returns patients using LIMIT/OFFSET pagination and a total count.
func (r *PatientMySQL) List(ctx context.Context, q repository.PatientListQuery) (*repository.PageResult[model.Patient], error) {
	var conds []string
	var args []any
	if !q.IncludeInactive {
		conds = append(conds, "is_active = 1")
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + s + "%"
		conds = append(conds, "(patient_code LIKE ? OR first_name LIKE ? OR last_name LIKE ? OR phone LIKE ? OR email LIKE ?)")
		args = append(args, like, like, like, like, like)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM patients`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	col, ok := patientSortColumns[q.SortColumn]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if q.Descending {
		dir = "DESC"
	}
	listQ := `SELECT ` + patientColumns + ` FROM patients` + where +
		` ORDER BY ` + col + ` ` + dir + `, patient_id ` + dir + ` LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, listQ, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := collectPatients(rows)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Patient]{Items: items, Total: total}, nil
}

func collectPatients(rows *sql.Rows) ([]model.Patient, error) {
	items := make([]model.Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

func (r *PatientMySQL) Update(ctx context.Context, p *model.Patient) error {
	const q = `
		UPDATE patients SET
			first_name = ?, last_name = ?, email = ?, phone = ?, date_of_birth = ?, address = ?, gender = ?,
			medical_history = ?, allergies = ?, emergency_contact_name = ?, emergency_contact_phone = ?,
			guardian_name = ?, guardian_phone = ?, guardian_relationship = ?
		WHERE patient_id = ?
	`
	res, err := r.db.ExecContext(ctx, q,
		p.FirstName, p.LastName, p.Email, p.Phone, p.DateOfBirth, p.Address, p.Gender,
		p.MedicalHistory, p.Allergies, p.EmergencyContactName, p.EmergencyContactPhone,
		p.GuardianName, p.GuardianPhone, p.GuardianRelationship,
		p.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PatientMySQL) Deactivate(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE patients SET is_active = 0 WHERE patient_id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PatientMySQL) Blacklist(ctx context.Context, id int, e repository.BlacklistEntry) error {
	const q = `
		UPDATE patients SET
			is_blacklisted = 1, blacklist_reason = ?, blacklist_notes = ?, blacklisted_by = ?, blacklisted_at = ?
		WHERE patient_id = ? AND is_blacklisted = 0
	`
	res, err := r.db.ExecContext(ctx, q, e.Reason, e.Notes, e.By, e.At, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PatientMySQL) ClearBlacklist(ctx context.Context, id int) error {
	const q = `
		UPDATE patients SET
			is_blacklisted = 0, blacklist_reason = NULL, blacklist_notes = NULL, blacklisted_by = NULL, blacklisted_at = NULL
		WHERE patient_id = ? AND is_blacklisted = 1
	`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PatientMySQL) Unban(ctx context.Context, id int) error {
	const q = `
		UPDATE patients SET
			consecutive_no_shows = 0, is_booking_blocked = 0, booking_block_reason = NULL, blocked_at = NULL
		WHERE patient_id = ? AND is_booking_blocked = 1
	`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PatientMySQL) PhoneExists(ctx context.Context, phone string, excludeID int) (bool, error) {
	return exists(ctx, r.db, `SELECT COUNT(*) FROM patients WHERE phone = ? AND patient_id <> ?`, phone, excludeID)
}

func (r *PatientMySQL) FindDuplicateCandidates(ctx context.Context, firstName, lastName string, dob *model.Date, phone *string) ([]model.Patient, error) {
	var conds []string
	var args []any
	if dob != nil && !dob.IsZero() {
		conds = append(conds, "(LOWER(first_name) = LOWER(?) AND LOWER(last_name) = LOWER(?) AND date_of_birth = ?)")
		args = append(args, firstName, lastName, *dob)
	}
	if phone != nil && *phone != "" {
		conds = append(conds, "phone = ?")
		args = append(args, *phone)
	}
	if len(conds) == 0 {
		return []model.Patient{}, nil
	}

	q := `SELECT ` + patientColumns + ` FROM patients WHERE is_active = 1 AND (` + strings.Join(conds, " OR ") + `) ORDER BY patient_id LIMIT 20`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPatients(rows)
}
