package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"dentalclinic/internal/model"
	"dentalclinic/internal/repository"
	repoMocks "dentalclinic/internal/repository/mocks"
	"dentalclinic/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type patientMocks struct {
	patients  *repoMocks.MockPatientRepository
	employees *repoMocks.MockEmployeeRepository
	accounts  *repoMocks.MockAccountRepository
}

func newTestPatientService(now time.Time) (*patientService, patientMocks) {
	m := patientMocks{
		patients:  new(repoMocks.MockPatientRepository),
		employees: new(repoMocks.MockEmployeeRepository),
		accounts:  new(repoMocks.MockAccountRepository),
	}
	svc := NewPatientService(m.patients, m.employees, m.accounts, clinicLoc).(*patientService)
	svc.clock.now = func() time.Time { return now }
	return svc, m
}

func (m patientMocks) assert(t *testing.T) {
	m.patients.AssertExpectations(t)
	m.employees.AssertExpectations(t)
	m.accounts.AssertExpectations(t)
}

func mustDate(t *testing.T, s string) *model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return &d
}

func TestPatientService_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2030, 1, 15, 9, 0, 0, 0, clinicLoc)

	adult := CreatePatientRequest{
		FirstName:   "Minh",
		LastName:    "Tran",
		Phone:       "0912345678",
		DateOfBirth: "1990-04-02",
	}

	tests := []struct {
		name       string
		req        CreatePatientRequest
		setupMocks func(m patientMocks)
		wantCode   string
		check      func(t *testing.T, res *CreatedPatient)
	}{
		{
			name: "happy path without email",
			req:  adult,
			setupMocks: func(m patientMocks) {
				m.patients.On("FindDuplicateCandidates", ctx, "Minh", "Tran", mock.Anything, mock.Anything).Return(nil, nil)
				m.patients.On("PhoneExists", ctx, "0912345678", 0).Return(false, nil)
				m.employees.On("PhoneExists", ctx, "0912345678").Return(false, nil)
				m.patients.On("Create", ctx, mock.MatchedBy(func(p *model.Patient) bool {
					return p.IsActive && p.DateOfBirth.String() == "1990-04-02"
				}), (*model.Account)(nil)).Return(&model.Patient{ID: 1, Code: "BN-1001"}, nil)
			},
			check: func(t *testing.T, res *CreatedPatient) {
				assert.Equal(t, "BN-1001", res.Code)
				assert.Empty(t, res.TemporaryPassword)
			},
		},
		{
			name: "email creates pending account with derived username",
			req: func() CreatePatientRequest {
				r := adult
				r.Phone = ""
				r.Email = "Minh.Tran@example.com"
				return r
			}(),
			setupMocks: func(m patientMocks) {
				m.patients.On("FindDuplicateCandidates", ctx, "Minh", "Tran", mock.Anything, (*string)(nil)).Return(nil, nil)
				m.accounts.On("EmailExists", ctx, "Minh.Tran@example.com").Return(false, nil)
				m.accounts.On("UsernameExists", ctx, "minh.tran").Return(true, nil)
				m.accounts.On("UsernameExists", ctx, "minh.tran1").Return(false, nil)
				m.patients.On("Create", ctx, mock.Anything, mock.MatchedBy(func(a *model.Account) bool {
					return a.Username == "minh.tran1" &&
						a.Status == model.AccountPendingVerification &&
						a.MustChangePassword &&
						a.RoleID == model.RolePatient
				})).Return(&model.Patient{ID: 2, Code: "BN-1002"}, nil)
			},
			check: func(t *testing.T, res *CreatedPatient) {
				assert.Equal(t, "minh.tran1", res.Username)
				assert.Len(t, res.TemporaryPassword, temporaryPasswordLength)
			},
		},
		{
			name: "exact duplicate",
			req:  adult,
			setupMocks: func(m patientMocks) {
				m.patients.On("FindDuplicateCandidates", ctx, "Minh", "Tran", mock.Anything, mock.Anything).Return([]model.Patient{{
					Code: "BN-1010", FirstName: "minh", LastName: "TRAN",
					DateOfBirth: mustDate(t, "1990-04-02"), Phone: ptr("0912345678"),
				}}, nil)
			},
			wantCode: "DUPLICATE_PATIENT",
		},
		{
			name: "phone used by employee",
			req:  adult,
			setupMocks: func(m patientMocks) {
				m.patients.On("FindDuplicateCandidates", ctx, "Minh", "Tran", mock.Anything, mock.Anything).Return(nil, nil)
				m.patients.On("PhoneExists", ctx, "0912345678", 0).Return(false, nil)
				m.employees.On("PhoneExists", ctx, "0912345678").Return(true, nil)
			},
			wantCode: "PHONE_EXISTS",
		},
		{
			name: "email already registered",
			req: func() CreatePatientRequest {
				r := adult
				r.Phone = ""
				r.Email = "taken@example.com"
				return r
			}(),
			setupMocks: func(m patientMocks) {
				m.patients.On("FindDuplicateCandidates", ctx, "Minh", "Tran", mock.Anything, mock.Anything).Return(nil, nil)
				m.accounts.On("EmailExists", ctx, "taken@example.com").Return(true, nil)
			},
			wantCode: "EMAIL_EXISTS",
		},
		{
			name: "minor without guardian",
			req: CreatePatientRequest{
				FirstName: "Bao", LastName: "Le", DateOfBirth: "2015-06-01",
			},
			setupMocks: func(m patientMocks) {},
			wantCode:   "GUARDIAN_REQUIRED",
		},
		{
			name: "birth date in the future",
			req: CreatePatientRequest{
				FirstName: "Bao", LastName: "Le", DateOfBirth: "2031-01-01",
			},
			setupMocks: func(m patientMocks) {},
			wantCode:   "INVALID_DATE_OF_BIRTH",
		},
		{
			name:       "invalid phone",
			req:        CreatePatientRequest{FirstName: "Bao", LastName: "Le", Phone: "12ab"},
			setupMocks: func(m patientMocks) {},
			wantCode:   "VALIDATION_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestPatientService(now)
			tt.setupMocks(m)

			res, err := svc.Create(ctx, tt.req)

			if tt.wantCode != "" {
				e, ok := AsError(err)
				require.True(t, ok, "got %v", err)
				assert.Equal(t, tt.wantCode, e.Code)
			} else {
				require.NoError(t, err)
				tt.check(t, res)
			}
			m.assert(t)
		})
	}
}

func TestPatientService_CheckDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestPatientService(time.Now())

	m.patients.On("FindDuplicateCandidates", ctx, "An", "Pham", mock.Anything, mock.Anything).Return([]model.Patient{
		{Code: "BN-1003", FirstName: "Hoa", LastName: "Vo", Phone: ptr("0987654321")},
		{Code: "BN-1001", FirstName: "An", LastName: "Pham", DateOfBirth: mustDate(t, "2000-01-01")},
		{Code: "BN-1002", FirstName: "An", LastName: "Pham", Phone: ptr("0987654321")},
		{Code: "BN-1004", FirstName: "Other", LastName: "Person"},
	}, nil)

	res, err := svc.CheckDuplicates(ctx, DuplicateCheckRequest{
		FirstName: "An", LastName: "Pham", DateOfBirth: "2000-01-01", Phone: "0987654321",
	})
	require.NoError(t, err)
	assert.True(t, res.HasDuplicates)
	require.Len(t, res.Matches, 3)
	assert.Equal(t, model.MatchNameAndPhone, res.Matches[0].MatchType)
	assert.Equal(t, 85, res.Matches[0].ConfidenceScore)
	assert.Equal(t, model.MatchNameAndDOB, res.Matches[1].MatchType)
	assert.Equal(t, model.MatchPhone, res.Matches[2].MatchType)
	assert.Equal(t, "Found 3 potential duplicate patient(s)", res.Message)
}

func TestPatientService_List(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestPatientService(time.Now())

	m.patients.On("List", ctx, repository.PatientListQuery{
		PageQuery:  repository.PageQuery{Limit: 10, Offset: 0},
		Search:     "tran",
		SortColumn: "created_at",
		Descending: true,
	}).Return(&repository.PageResult[model.Patient]{}, nil)

	res, err := svc.List(ctx, PatientListParams{
		Page:          Page{Page: -1, Size: 0},
		SortBy:        "password",
		SortDirection: "DESC",
		Search:        "  tran ",
	})
	require.NoError(t, err)
	assert.NotNil(t, res.Items)
	m.assert(t)
}

func TestPatientService_GetByCode(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestPatientService(time.Now())
	m.patients.On("FindByCode", ctx, "BN-1001").Return(&model.Patient{Code: "BN-1001", IsActive: false}, nil)
	m.patients.On("FindByCode", ctx, "BN-9999").Return(nil, sql.ErrNoRows)

	_, err := svc.GetByCode(ctx, "BN-1001", false)
	assert.ErrorIs(t, err, errPatientNotFound)

	p, err := svc.GetByCode(ctx, "BN-1001", true)
	require.NoError(t, err)
	assert.Equal(t, "BN-1001", p.Code)

	_, err = svc.GetByCode(ctx, "BN-9999", true)
	assert.ErrorIs(t, err, errPatientNotFound)
}

func TestPatientService_Update(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2030, 1, 15, 9, 0, 0, 0, clinicLoc)

	t.Run("changed phone is re-checked", func(t *testing.T) {
		svc, m := newTestPatientService(now)
		m.patients.On("FindByCode", ctx, "BN-1001").Return(&model.Patient{ID: 1, FirstName: "Minh", IsActive: true, Phone: ptr("0900000000")}, nil)
		m.patients.On("PhoneExists", ctx, "0911111111", 1).Return(false, nil)
		m.employees.On("PhoneExists", ctx, "0911111111").Return(false, nil)
		m.patients.On("Update", ctx, mock.MatchedBy(func(p *model.Patient) bool {
			return *p.Phone == "0911111111" && p.Address == nil && p.FirstName == "Minh"
		})).Return(nil)

		p, err := svc.Update(ctx, "BN-1001", UpdatePatientRequest{Phone: ptr("0911111111"), Address: ptr("")})
		require.NoError(t, err)
		assert.Equal(t, "0911111111", *p.Phone)
		m.assert(t)
	})

	t.Run("unchanged phone skips uniqueness check", func(t *testing.T) {
		svc, m := newTestPatientService(now)
		m.patients.On("FindByCode", ctx, "BN-1001").Return(&model.Patient{ID: 1, IsActive: true, Phone: ptr("0900000000")}, nil)
		m.patients.On("Update", ctx, mock.Anything).Return(nil)

		_, err := svc.Update(ctx, "BN-1001", UpdatePatientRequest{Phone: ptr("0900000000"), LastName: ptr("Do")})
		require.NoError(t, err)
		m.assert(t)
	})

	t.Run("making the patient a minor needs a guardian", func(t *testing.T) {
		svc, m := newTestPatientService(now)
		m.patients.On("FindByCode", ctx, "BN-1001").Return(&model.Patient{ID: 1, IsActive: true}, nil)

		_, err := svc.Update(ctx, "BN-1001", UpdatePatientRequest{DateOfBirth: ptr("2020-01-01")})
		e, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, "GUARDIAN_REQUIRED", e.Code)
	})
}

func TestPatientService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestPatientService(time.Now())
	m.patients.On("FindByCode", ctx, "BN-1001").Return(&model.Patient{ID: 1, IsActive: true}, nil)
	m.patients.On("Deactivate", ctx, 1).Return(nil)

	require.NoError(t, svc.Delete(ctx, "BN-1001"))
	m.assert(t)
	m.patients.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestPatientService_Blacklist(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2030, 1, 15, 9, 0, 0, 0, clinicLoc)

	t.Run("blacklists", func(t *testing.T) {
		svc, m := newTestPatientService(now)
		m.patients.On("FindByCode", ctx, "BN-1001").Return(&model.Patient{ID: 1, IsActive: true}, nil)
		m.patients.On("Blacklist", ctx, 1, mock.MatchedBy(func(e repository.BlacklistEntry) bool {
			return e.Reason == "DEBT_DEFAULT" && *e.Notes == "unpaid" && *e.By == "manager" && e.At.Equal(now)
		})).Return(nil)

		p, err := svc.Blacklist(ctx, "BN-1001", BlacklistRequest{Reason: model.BlacklistDebtDefault, Notes: "unpaid"}, "manager")
		require.NoError(t, err)
		assert.True(t, p.IsBlacklisted)
		assert.Equal(t, "DEBT_DEFAULT", *p.BlacklistReason)
		assert.Equal(t, "manager", *p.BlacklistedBy)
		assert.True(t, p.BlacklistedAt.Equal(now))
	})

	t.Run("unknown reason", func(t *testing.T) {
		svc, _ := newTestPatientService(now)
		_, err := svc.Blacklist(ctx, "BN-1001", BlacklistRequest{Reason: "RUDE"}, "manager")
		e, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, "INVALID_BLACKLIST_REASON", e.Code)
	})

	t.Run("already blacklisted", func(t *testing.T) {
		svc, m := newTestPatientService(now)
		m.patients.On("FindByCode", ctx, "BN-1001").Return(&model.Patient{ID: 1, IsActive: true, IsBlacklisted: true}, nil)
		_, err := svc.Blacklist(ctx, "BN-1001", BlacklistRequest{Reason: model.BlacklistOther}, "manager")
		e, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, KindConflict, e.Kind)
	})

	t.Run("blacklisted concurrently", func(t *testing.T) {
		svc, m := newTestPatientService(now)
		m.patients.On("FindByCode", ctx, "BN-1001").Return(&model.Patient{ID: 1, IsActive: true}, nil)
		m.patients.On("Blacklist", ctx, 1, mock.Anything).Return(sql.ErrNoRows)

		_, err := svc.Blacklist(ctx, "BN-1001", BlacklistRequest{Reason: model.BlacklistOther}, "manager")
		e, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, "PATIENT_ALREADY_BLACKLISTED", e.Code)
	})

	t.Run("remove", func(t *testing.T) {
		svc, m := newTestPatientService(now)
		m.patients.On("FindByCode", ctx, "BN-1001").Return(&model.Patient{
			ID: 1, IsActive: true, IsBlacklisted: true, BlacklistReason: ptr("OTHER"),
		}, nil)
		m.patients.On("ClearBlacklist", ctx, 1).Return(nil)

		p, err := svc.RemoveFromBlacklist(ctx, "BN-1001")
		require.NoError(t, err)
		assert.False(t, p.IsBlacklisted)
		assert.Nil(t, p.BlacklistReason)
	})
}

func TestPatientService_Unban(t *testing.T) {
	ctx := context.Background()

	t.Run("clears block and streak", func(t *testing.T) {
		svc, m := newTestPatientService(time.Now())
		m.patients.On("FindByCode", ctx, "BN-1001").Return(&model.Patient{
			ID: 1, IsActive: true, IsBookingBlocked: true, ConsecutiveNoShows: 3,
			BookingBlockReason: ptr(model.BlockReasonExcessiveNoShows),
		}, nil)
		m.patients.On("Unban", ctx, 1).Return(nil)

		p, err := svc.Unban(ctx, "BN-1001")
		require.NoError(t, err)
		assert.False(t, p.IsBookingBlocked)
		assert.Zero(t, p.ConsecutiveNoShows)
		assert.Nil(t, p.BookingBlockReason)
		m.assert(t)
		m.patients.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("unblocked concurrently", func(t *testing.T) {
		svc, m := newTestPatientService(time.Now())
		m.patients.On("FindByCode", ctx, "BN-1001").Return(&model.Patient{ID: 1, IsActive: true, IsBookingBlocked: true}, nil)
		m.patients.On("Unban", ctx, 1).Return(sql.ErrNoRows)

		_, err := svc.Unban(ctx, "BN-1001")
		e, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, "PATIENT_NOT_BLOCKED", e.Code)
	})

	t.Run("not blocked", func(t *testing.T) {
		svc, m := newTestPatientService(time.Now())
		m.patients.On("FindByCode", ctx, "BN-1001").Return(&model.Patient{ID: 1, IsActive: true}, nil)
		_, err := svc.Unban(ctx, "BN-1001")
		e, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, "PATIENT_NOT_BLOCKED", e.Code)
	})
}

func TestPatientService_TemporaryPasswordIsUsable(t *testing.T) {
	svc, m := newTestPatientService(time.Now())
	m.accounts.On("EmailExists", mock.Anything, "a@b.co").Return(false, nil)
	m.accounts.On("UsernameExists", mock.Anything, "a").Return(false, nil)

	acct, temp, err := svc.newPatientAccount(context.Background(), "a@b.co", "")
	require.NoError(t, err)
	assert.True(t, security.CheckPassword(acct.Password, temp))
}
