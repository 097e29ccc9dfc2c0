package mysql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"testing"
	"time"

	"dentalclinic/internal/model"
	"dentalclinic/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var patientCols = []string{"patient_id", "patient_code", "account_id", "first_name", "last_name", "email", "phone",
	"date_of_birth", "address", "gender", "medical_history", "allergies", "emergency_contact_name",
	"emergency_contact_phone", "guardian_name", "guardian_phone", "guardian_relationship", "is_active",
	"consecutive_no_shows", "is_booking_blocked", "booking_block_reason", "blocked_at", "is_blacklisted",
	"blacklist_reason", "blacklist_notes", "blacklisted_by", "blacklisted_at", "created_at", "updated_at"}

func patientRow(id int, first, last, phone string) []driver.Value {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return []driver.Value{id, model.PatientCodeFor(id), nil, first, last, nil, phone,
		time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC), nil, "MALE", nil, nil, nil,
		nil, nil, nil, nil, true,
		0, false, nil, nil, false,
		nil, nil, nil, nil, now, now}
}

func TestPatientMySQL_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPatientMySQL(db)
	phone := "0912345678"
	p := &model.Patient{FirstName: "An", LastName: "Nguyen", Phone: &phone, IsActive: true}
	acct := &model.Account{ID: "acc-7", Code: "ACC-7", Username: "an", Password: "hash", Email: "an@x.test",
		Status: model.AccountPendingVerification, MustChangePassword: true, RoleID: model.RolePatient}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO accounts").
		WithArgs("acc-7", "ACC-7", "an", "hash", "an@x.test", "PENDING_VERIFICATION", true, "ROLE_PATIENT").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO patients").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(`UPDATE patients SET patient_code = \? WHERE patient_id = \?`).
		WithArgs("BN-1007", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT (.+) FROM patients WHERE patient_id = \?`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(patientCols).AddRow(patientRow(7, "An", "Nguyen", phone)...))

	got, err := repo.Create(context.Background(), p, acct)
	require.NoError(t, err)
	assert.Equal(t, "BN-1007", got.Code)
	assert.Equal(t, "1990-05-01", got.DateOfBirth.String())
	assert.Equal(t, "acc-7", *p.AccountID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientMySQL_CreateRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO patients").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err = NewPatientMySQL(db).Create(context.Background(), &model.Patient{FirstName: "A", LastName: "B"}, nil)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientMySQL_FindByCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPatientMySQL(db)

	mock.ExpectQuery(`SELECT (.+) FROM patients WHERE patient_code = \?`).
		WithArgs("BN-1001").
		WillReturnRows(sqlmock.NewRows(patientCols).AddRow(patientRow(1, "Binh", "Tran", "0900000001")...))
	p, err := repo.FindByCode(context.Background(), "BN-1001")
	require.NoError(t, err)
	assert.Equal(t, "Binh Tran", p.FullName())
	assert.Nil(t, p.Email)
	require.NotNil(t, p.Gender)
	assert.Equal(t, "MALE", *p.Gender)

	mock.ExpectQuery(`SELECT (.+) FROM patients WHERE patient_code = \?`).
		WithArgs("BN-9999").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByCode(context.Background(), "BN-9999")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientMySQL_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM patients WHERE is_active = 1 AND \(patient_code LIKE \?`).
		WithArgs("%tran%", "%tran%", "%tran%", "%tran%", "%tran%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT (.+) FROM patients WHERE (.+) ORDER BY last_name DESC, patient_id DESC LIMIT \? OFFSET \?`).
		WithArgs("%tran%", "%tran%", "%tran%", "%tran%", "%tran%", 10, 0).
		WillReturnRows(sqlmock.NewRows(patientCols).
			AddRow(patientRow(2, "Cuong", "Tran", "0900000002")...).
			AddRow(patientRow(1, "Binh", "Tran", "0900000001")...))

	res, err := NewPatientMySQL(db).List(context.Background(), repository.PatientListQuery{
		PageQuery:  repository.PageQuery{Limit: 10, Offset: 0},
		Search:     "tran",
		SortColumn: "last_name",
		Descending: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Len(t, res.Items, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientMySQL_ListUnknownSortFallsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM patients$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`ORDER BY created_at ASC, patient_id ASC LIMIT \? OFFSET \?`).
		WithArgs(5, 10).
		WillReturnRows(sqlmock.NewRows(patientCols))

	res, err := NewPatientMySQL(db).List(context.Background(), repository.PatientListQuery{
		PageQuery:       repository.PageQuery{Limit: 5, Offset: 10},
		SortColumn:      "password; DROP TABLE patients",
		IncludeInactive: true,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientMySQL_PhoneExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM patients WHERE phone = \? AND patient_id <> \?`).
		WithArgs("0912345678", 3).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	found, err := NewPatientMySQL(db).PhoneExists(context.Background(), "0912345678", 3)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientMySQL_FindDuplicateCandidates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPatientMySQL(db)

	dob, _ := model.ParseDate("1990-05-01")
	phone := "0900000001"

	mock.ExpectQuery(`WHERE is_active = 1 AND \(\(LOWER\(first_name\) = LOWER\(\?\) (.+) OR phone = \?\)`).
		WithArgs("Binh", "Tran", dob, phone).
		WillReturnRows(sqlmock.NewRows(patientCols).AddRow(patientRow(1, "Binh", "Tran", phone)...))

	got, err := repo.FindDuplicateCandidates(context.Background(), "Binh", "Tran", &dob, &phone)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = repo.FindDuplicateCandidates(context.Background(), "Binh", "Tran", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientMySQL_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p := &model.Patient{ID: 1, FirstName: "Binh", LastName: "Tran", IsActive: false, ConsecutiveNoShows: 0}
	mock.ExpectExec(`UPDATE patients SET\s+first_name = \?.*guardian_relationship = \?\s+WHERE patient_id = \?`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, NewPatientMySQL(db).Update(context.Background(), p))

	mock.ExpectExec(`UPDATE patients SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, NewPatientMySQL(db).Update(context.Background(), p), sql.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientMySQL_ProfileUpdateLeavesStatusColumns(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherFunc(func(_, actual string) error {
		for _, col := range []string{"is_active", "consecutive_no_shows", "is_booking_blocked", "is_blacklisted", "blacklist_reason"} {
			if strings.Contains(actual, col) {
				return fmt.Errorf("profile update writes %s", col)
			}
		}
		return nil
	})))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE patients`).WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, NewPatientMySQL(db).Update(context.Background(), &model.Patient{ID: 1, FirstName: "Binh"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientMySQL_StatusUpdates(t *testing.T) {
	at := time.Date(2030, 1, 15, 2, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		setupMocks func(mock sqlmock.Sqlmock, rows int64)
		call       func(r *PatientMySQL) error
	}{
		{
			name: "deactivate",
			setupMocks: func(mock sqlmock.Sqlmock, rows int64) {
				mock.ExpectExec(`UPDATE patients SET is_active = 0 WHERE patient_id = \?`).
					WithArgs(7).WillReturnResult(sqlmock.NewResult(0, rows))
			},
			call: func(r *PatientMySQL) error { return r.Deactivate(context.Background(), 7) },
		},
		{
			name: "blacklist",
			setupMocks: func(mock sqlmock.Sqlmock, rows int64) {
				mock.ExpectExec(`SET\s+is_blacklisted = 1, .*WHERE patient_id = \? AND is_blacklisted = 0`).
					WithArgs("OTHER", nil, "manager", at, 7).WillReturnResult(sqlmock.NewResult(0, rows))
			},
			call: func(r *PatientMySQL) error {
				by := "manager"
				return r.Blacklist(context.Background(), 7, repository.BlacklistEntry{Reason: "OTHER", By: &by, At: at})
			},
		},
		{
			name: "clear blacklist",
			setupMocks: func(mock sqlmock.Sqlmock, rows int64) {
				mock.ExpectExec(`SET\s+is_blacklisted = 0, .*WHERE patient_id = \? AND is_blacklisted = 1`).
					WithArgs(7).WillReturnResult(sqlmock.NewResult(0, rows))
			},
			call: func(r *PatientMySQL) error { return r.ClearBlacklist(context.Background(), 7) },
		},
		{
			name: "unban",
			setupMocks: func(mock sqlmock.Sqlmock, rows int64) {
				mock.ExpectExec(`SET\s+consecutive_no_shows = 0, is_booking_blocked = 0, .*WHERE patient_id = \? AND is_booking_blocked = 1`).
					WithArgs(7).WillReturnResult(sqlmock.NewResult(0, rows))
			},
			call: func(r *PatientMySQL) error { return r.Unban(context.Background(), 7) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			repo := NewPatientMySQL(db)

			tt.setupMocks(mock, 1)
			assert.NoError(t, tt.call(repo))

			tt.setupMocks(mock, 0)
			assert.ErrorIs(t, tt.call(repo), sql.ErrNoRows)

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
