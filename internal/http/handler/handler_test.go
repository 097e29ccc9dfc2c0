package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dentalclinic/internal/config"
	"dentalclinic/internal/http/middleware"
	"dentalclinic/internal/model"
	"dentalclinic/internal/security"
	"dentalclinic/internal/service"
	serviceMocks "dentalclinic/internal/service/mocks"
)

func newTestApp() *fiber.App {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
}

// as injects an authenticated principal the way middleware.Auth would.
func as(p *security.Principal) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.PrincipalLocalKey, p)
		return c.Next()
	}
}

var (
	admin        = &security.Principal{Username: "admin", Roles: []string{model.RoleAdmin}}
	receptionist = &security.Principal{Username: "reception1", Permissions: []string{model.PermViewPatient, model.PermManagePatient}}
)

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	redisUp := true
	app := fiber.New()
	app.Get("/health", HealthCheck(db, func(context.Context) error {
		if !redisUp {
			return errors.New("redis down")
		}
		return nil
	}))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("database down", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})

	t.Run("extra dependency down", func(t *testing.T) {
		redisUp = false
		defer func() { redisUp = true }()
		dbMock.ExpectPing().WillReturnError(nil)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestLiveness(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", Liveness())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMocks func(svc *serviceMocks.MockAuthService)
		wantStatus int
		wantCode   string
	}{
		{
			name: "success",
			body: `{"username":"drsmith","password":"secret"}`,
			setupMocks: func(svc *serviceMocks.MockAuthService) {
				svc.On("Login", mock.Anything, service.LoginRequest{Username: "drsmith", Password: "secret"}).
					Return(&service.TokenPair{AccessToken: "a", RefreshToken: "r", Username: "drsmith"}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "malformed body",
			body:       `{"username":`,
			setupMocks: func(svc *serviceMocks.MockAuthService) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_BODY",
		},
		{
			name: "bad credentials",
			body: `{"username":"drsmith","password":"nope"}`,
			setupMocks: func(svc *serviceMocks.MockAuthService) {
				svc.On("Login", mock.Anything, mock.Anything).
					Return(nil, &service.Error{Kind: service.KindUnauthorized, Code: "INVALID_CREDENTIALS", Message: "invalid username or password"}).Once()
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_CREDENTIALS",
		},
		{
			name: "locked account",
			body: `{"username":"drsmith","password":"secret"}`,
			setupMocks: func(svc *serviceMocks.MockAuthService) {
				svc.On("Login", mock.Anything, mock.Anything).
					Return(nil, &service.Error{Kind: service.KindLocked, Code: "ACCOUNT_LOCKED", Message: "account locked"}).Once()
			},
			wantStatus: http.StatusLocked,
			wantCode:   "ACCOUNT_LOCKED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(serviceMocks.MockAuthService)
			tt.setupMocks(svc)
			app := newTestApp()
			app.Post("/login", Login(svc))

			resp, err := app.Test(jsonRequest(http.MethodPost, "/login", tt.body))
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, resp).Error.Code)
			} else {
				var pair service.TokenPair
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&pair))
				assert.Equal(t, "a", pair.AccessToken)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestLogout(t *testing.T) {
	t.Run("without body", func(t *testing.T) {
		svc := new(serviceMocks.MockAuthService)
		svc.On("Logout", mock.Anything, admin, "").Return(nil).Once()
		app := newTestApp()
		app.Post("/logout", as(admin), Logout(svc))

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/logout", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		svc.AssertExpectations(t)
	})

	t.Run("with refresh token", func(t *testing.T) {
		svc := new(serviceMocks.MockAuthService)
		svc.On("Logout", mock.Anything, admin, "refresh-1").Return(nil).Once()
		app := newTestApp()
		app.Post("/logout", as(admin), Logout(svc))

		resp, err := app.Test(jsonRequest(http.MethodPost, "/logout", `{"refresh_token":"refresh-1"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		svc.AssertExpectations(t)
	})
}

func TestMyInfoAndChangePassword(t *testing.T) {
	svc := new(serviceMocks.MockAuthService)
	app := newTestApp()
	app.Get("/me", as(receptionist), MyInfo(svc))
	app.Post("/password", as(receptionist), ChangePassword(svc))

	svc.On("Me", mock.Anything, "reception1").Return(&service.UserInfo{Username: "reception1"}, nil).Once()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	svc.On("ChangePassword", mock.Anything, "reception1", mock.Anything).
		Return(&service.Error{Kind: service.KindInvalid, Code: "WRONG_PASSWORD", Message: "current password is incorrect"}).Once()
	resp, err = app.Test(jsonRequest(http.MethodPost, "/password", `{"current_password":"x","new_password":"yyyyyyyy"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "WRONG_PASSWORD", decodeError(t, resp).Error.Code)

	svc.AssertExpectations(t)
}

func TestListPatients(t *testing.T) {
	tests := []struct {
		name       string
		principal  *security.Principal
		query      string
		setupMocks func(svc *serviceMocks.MockPatientService)
		wantStatus int
		wantCode   string
	}{
		{
			name:      "defaults",
			principal: receptionist,
			query:     "",
			setupMocks: func(svc *serviceMocks.MockPatientService) {
				svc.On("List", mock.Anything, service.PatientListParams{Page: service.Page{Page: 0, Size: 10}}).
					Return(&service.ListResult[model.Patient]{Items: []model.Patient{{Code: "BN-1001"}}, Total: 1, Size: 10}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:      "include_inactive ignored for non admin",
			principal: receptionist,
			query:     "?include_inactive=true&search=nguyen&sort_by=last_name&sort_direction=desc&page=2&size=5",
			setupMocks: func(svc *serviceMocks.MockPatientService) {
				svc.On("List", mock.Anything, service.PatientListParams{
					Page:          service.Page{Page: 2, Size: 5},
					Search:        "nguyen",
					SortBy:        "last_name",
					SortDirection: "desc",
				}).Return(&service.ListResult[model.Patient]{}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:      "include_inactive honoured for admin",
			principal: admin,
			query:     "?include_inactive=true",
			setupMocks: func(svc *serviceMocks.MockPatientService) {
				svc.On("List", mock.Anything, service.PatientListParams{
					Page:            service.Page{Page: 0, Size: 10},
					IncludeInactive: true,
				}).Return(&service.ListResult[model.Patient]{}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid page",
			principal:  receptionist,
			query:      "?page=abc",
			setupMocks: func(svc *serviceMocks.MockPatientService) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_PAGE",
		},
		{
			name:       "invalid size",
			principal:  receptionist,
			query:      "?size=ten",
			setupMocks: func(svc *serviceMocks.MockPatientService) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_SIZE",
		},
		{
			name:      "repository failure",
			principal: receptionist,
			setupMocks: func(svc *serviceMocks.MockPatientService) {
				svc.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("db error")).Once()
			},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(serviceMocks.MockPatientService)
			tt.setupMocks(svc)
			app := newTestApp()
			app.Get("/patients", as(tt.principal), ListPatients(svc))

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/patients"+tt.query, nil))
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, resp).Error.Code)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestCreatePatient(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := new(serviceMocks.MockPatientService)
		svc.On("Create", mock.Anything, mock.MatchedBy(func(r service.CreatePatientRequest) bool {
			return r.FirstName == "An" && r.LastName == "Nguyen"
		})).Return(&service.CreatedPatient{Patient: &model.Patient{Code: "BN-1002"}}, nil).Once()
		app := newTestApp()
		app.Post("/patients", CreatePatient(svc))

		resp, err := app.Test(jsonRequest(http.MethodPost, "/patients", `{"first_name":"An","last_name":"Nguyen"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		svc.AssertExpectations(t)
	})

	t.Run("validation details are returned", func(t *testing.T) {
		svc := new(serviceMocks.MockPatientService)
		svc.On("Create", mock.Anything, mock.Anything).Return(nil, &service.Error{
			Kind:    service.KindInvalid,
			Code:    "VALIDATION_FAILED",
			Message: "validation failed",
			Details: map[string]string{"first_name": "The field 'first_name' is required."},
		}).Once()
		app := newTestApp()
		app.Post("/patients", CreatePatient(svc))

		resp, err := app.Test(jsonRequest(http.MethodPost, "/patients", `{}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)
		assert.Contains(t, body.Error.Details, "first_name")
		svc.AssertExpectations(t)
	})

	t.Run("duplicate", func(t *testing.T) {
		svc := new(serviceMocks.MockPatientService)
		svc.On("Create", mock.Anything, mock.Anything).
			Return(nil, &service.Error{Kind: service.KindConflict, Code: "EMAIL_EXISTS", Message: "email already registered"}).Once()
		app := newTestApp()
		app.Post("/patients", CreatePatient(svc))

		resp, err := app.Test(jsonRequest(http.MethodPost, "/patients", `{"first_name":"An","last_name":"Nguyen","email":"a@b.vn"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		svc.AssertExpectations(t)
	})
}

func TestBlacklistPatient(t *testing.T) {
	svc := new(serviceMocks.MockPatientService)
	svc.On("Blacklist", mock.Anything, "BN-1001", service.BlacklistRequest{Reason: model.BlacklistStaffAbuse}, "reception1").
		Return(&model.Patient{Code: "BN-1001", IsBlacklisted: true}, nil).Once()
	svc.On("RemoveFromBlacklist", mock.Anything, "BN-1001").Return(&model.Patient{Code: "BN-1001"}, nil).Once()
	svc.On("Unban", mock.Anything, "BN-1002").
		Return(nil, &service.Error{Kind: service.KindNotFound, Code: "PATIENT_NOT_FOUND", Message: "patient not found"}).Once()

	app := newTestApp()
	app.Post("/patients/:code/blacklist", as(receptionist), BlacklistPatient(svc))
	app.Delete("/patients/:code/blacklist", as(receptionist), RemovePatientFromBlacklist(svc))
	app.Post("/patients/:code/unban", as(receptionist), UnbanPatient(svc))

	resp, err := app.Test(jsonRequest(http.MethodPost, "/patients/BN-1001/blacklist", `{"reason":"STAFF_ABUSE"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/patients/BN-1001/blacklist", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/patients/BN-1002/unban", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "PATIENT_NOT_FOUND", decodeError(t, resp).Error.Code)

	svc.AssertExpectations(t)
}

func TestEmployeeHandlers(t *testing.T) {
	svc := new(serviceMocks.MockEmployeeService)
	svc.On("List", mock.Anything, service.Page{Page: 0, Size: 20}, true).
		Return(&service.ListResult[model.Employee]{Items: []model.Employee{{Code: "EMP001"}}, Total: 1, Size: 20}, nil).Once()
	svc.On("ListShifts", mock.Anything, "EMP001", "2030-05-01", "2030-05-31").
		Return([]model.Shift{{ID: 1}}, nil).Once()
	svc.On("Deactivate", mock.Anything, "EMP404").
		Return(&service.Error{Kind: service.KindNotFound, Code: "EMPLOYEE_NOT_FOUND", Message: "employee not found"}).Once()
	svc.On("DeleteShift", mock.Anything, "EMP001", 11).Return(nil).Once()

	app := newTestApp()
	app.Get("/employees", ListEmployees(svc))
	app.Get("/employees/:code/shifts", ListShifts(svc))
	app.Delete("/employees/:code", DeactivateEmployee(svc))
	app.Delete("/employees/:code/shifts/:id", DeleteShift(svc))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/employees?size=20&active_only=true", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var list service.ListResult[model.Employee]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Equal(t, 1, list.Total)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/employees/EMP001/shifts?from=2030-05-01&to=2030-05-31", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var shifts struct {
		Data []model.Shift `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&shifts))
	assert.Len(t, shifts.Data, 1)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/employees/EMP404", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/employees/EMP001/shifts/11", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/employees/EMP001/shifts/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)

	svc.AssertExpectations(t)
}

func TestRoomHandlers(t *testing.T) {
	svc := new(serviceMocks.MockRoomService)
	svc.On("List", mock.Anything, true, "TREATMENT").Return([]model.Room{{Code: "P-01"}}, nil).Once()
	svc.On("ReplaceServices", mock.Anything, "P-01", service.ReplaceRoomServicesRequest{ServiceCodes: []string{"FILL", "SCALE"}}).
		Return([]model.DentalService{{Code: "FILL"}, {Code: "SCALE"}}, nil).Once()

	app := newTestApp()
	app.Get("/rooms", ListRooms(svc))
	app.Put("/rooms/:code/services", ReplaceRoomServices(svc))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/rooms?active_only=true&type=TREATMENT", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodPut, "/rooms/P-01/services", `{"service_codes":["FILL","SCALE"]}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	svc.AssertExpectations(t)
}

func TestDentalServiceHandlers(t *testing.T) {
	svc := new(serviceMocks.MockDentalServiceService)
	svc.On("List", mock.Anything, service.DentalServiceListParams{Page: service.Page{Size: 10}, Search: "fill"}).
		Return(&service.ListResult[model.DentalService]{}, nil).Once()
	svc.On("Activate", mock.Anything, "FILL").Return(nil).Once()
	svc.On("GetByCode", mock.Anything, "NOPE").
		Return(nil, &service.Error{Kind: service.KindNotFound, Code: "SERVICE_NOT_FOUND", Message: "service not found"}).Once()

	app := newTestApp()
	app.Get("/services", ListDentalServices(svc))
	app.Get("/services/:code", GetDentalService(svc))
	app.Post("/services/:code/activate", ActivateDentalService(svc))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/services?search=fill", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/services/FILL/activate", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/services/NOPE", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	svc.AssertExpectations(t)
}

func TestAppointmentHandlers(t *testing.T) {
	doctor := &security.Principal{Username: "drsmith", Permissions: []string{model.PermViewAppointmentAll, model.PermUpdateAppointmentStatus}}

	t.Run("list passes every filter", func(t *testing.T) {
		svc := new(serviceMocks.MockAppointmentService)
		svc.On("List", mock.Anything, service.AppointmentListParams{
			Page:         service.Page{Page: 1, Size: 10},
			From:         "2030-05-06",
			To:           "2030-05-07",
			Statuses:     []string{"SCHEDULED", "CHECKED_IN", "COMPLETED"},
			EmployeeCode: "EMP001",
		}).Return(&service.ListResult[model.Appointment]{}, nil).Once()
		app := newTestApp()
		app.Get("/appointments", ListAppointments(svc))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet,
			"/appointments?from=2030-05-06&to=2030-05-07&status=SCHEDULED,CHECKED_IN&status=COMPLETED&employee_code=EMP001&page=1", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		svc.AssertExpectations(t)
	})

	t.Run("create conflict", func(t *testing.T) {
		svc := new(serviceMocks.MockAppointmentService)
		svc.On("Create", mock.Anything, doctor, mock.Anything).
			Return(nil, &service.Error{Kind: service.KindConflict, Code: "DOCTOR_NOT_AVAILABLE", Message: "doctor is busy"}).Once()
		app := newTestApp()
		app.Post("/appointments", as(doctor), CreateAppointment(svc))

		resp, err := app.Test(jsonRequest(http.MethodPost, "/appointments",
			`{"patient_code":"BN-1001","employee_code":"EMP001","room_code":"P-01","service_codes":["FILL"],"appointment_start_time":"2030-05-06T09:00:00"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "DOCTOR_NOT_AVAILABLE", decodeError(t, resp).Error.Code)
		svc.AssertExpectations(t)
	})

	t.Run("status update", func(t *testing.T) {
		svc := new(serviceMocks.MockAppointmentService)
		detail := &model.AppointmentDetail{Appointment: model.Appointment{Code: "APT-1", Status: model.StatusCheckedIn}}
		svc.On("UpdateStatus", mock.Anything, doctor, "APT-1", mock.Anything).Return(detail, nil).Once()
		app := newTestApp()
		app.Patch("/appointments/:code/status", as(doctor), UpdateAppointmentStatus(svc))

		resp, err := app.Test(jsonRequest(http.MethodPatch, "/appointments/APT-1/status", `{"status":"CHECKED_IN"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		svc.AssertExpectations(t)
	})

	t.Run("reschedule", func(t *testing.T) {
		svc := new(serviceMocks.MockAppointmentService)
		svc.On("Reschedule", mock.Anything, doctor, "APT-1", mock.Anything).Return(&service.RescheduleResult{}, nil).Once()
		app := newTestApp()
		app.Post("/appointments/:code/reschedule", as(doctor), RescheduleAppointment(svc))

		resp, err := app.Test(jsonRequest(http.MethodPost, "/appointments/APT-1/reschedule",
			`{"new_start_time":"2030-05-07T09:00:00","reason_code":"PATIENT_REQUEST"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		svc.AssertExpectations(t)
	})

	t.Run("audit logs", func(t *testing.T) {
		svc := new(serviceMocks.MockAppointmentService)
		svc.On("AuditLogs", mock.Anything, "APT-1").Return([]model.AppointmentAuditLog{{ID: 1}, {ID: 2}}, nil).Once()
		app := newTestApp()
		app.Get("/appointments/:code/audit-logs", AppointmentAuditLogs(svc))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/appointments/APT-1/audit-logs", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Data []model.AppointmentAuditLog `json:"data"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Len(t, body.Data, 2)
		svc.AssertExpectations(t)
	})
}

func multipartBody(t *testing.T, filename, contentType string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
		h["Content-Type"] = []string{contentType}
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestUploadPatientImage(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := new(serviceMocks.MockPatientImageService)
		svc.On("Upload", mock.Anything, "BN-1001",
			mock.MatchedBy(func(f service.ImageUpload) bool {
				return f.Filename == "xray.png" && f.ContentType == "image/png" && f.Size == 4
			}),
			service.UploadImageRequest{ImageType: model.ImageXRay, Description: "lower molar", CapturedDate: "2030-05-01"},
			"reception1",
		).Return(&model.PatientImage{ID: 7, ImageType: model.ImageXRay}, nil).Once()

		app := newTestApp()
		app.Post("/patients/:code/images", as(receptionist), UploadPatientImage(svc))

		body, ct := multipartBody(t, "xray.png", "image/png", []byte{0x89, 'P', 'N', 'G'}, map[string]string{
			"image_type":    "XRAY",
			"description":   "lower molar",
			"captured_date": "2030-05-01",
		})
		req := httptest.NewRequest(http.MethodPost, "/patients/BN-1001/images", body)
		req.Header.Set(fiber.HeaderContentType, ct)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var img model.PatientImage
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&img))
		assert.Equal(t, 7, img.ID)
		svc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		svc := new(serviceMocks.MockPatientImageService)
		app := newTestApp()
		app.Post("/patients/:code/images", as(receptionist), UploadPatientImage(svc))

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/patients/BN-1001/images", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp).Error.Code)
	})

	t.Run("unsupported media type", func(t *testing.T) {
		svc := new(serviceMocks.MockPatientImageService)
		svc.On("Upload", mock.Anything, "BN-1001", mock.Anything, mock.Anything, "reception1").
			Return(nil, &service.Error{Kind: service.KindInvalid, Code: "UNSUPPORTED_MEDIA_TYPE", Message: "unsupported file type"}).Once()
		app := newTestApp()
		app.Post("/patients/:code/images", as(receptionist), UploadPatientImage(svc))

		body, ct := multipartBody(t, "notes.txt", "text/plain", []byte("hello"), map[string]string{"image_type": "OTHER"})
		req := httptest.NewRequest(http.MethodPost, "/patients/BN-1001/images", body)
		req.Header.Set(fiber.HeaderContentType, ct)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "UNSUPPORTED_MEDIA_TYPE", decodeError(t, resp).Error.Code)
		svc.AssertExpectations(t)
	})
}

func TestPatientImageByID(t *testing.T) {
	svc := new(serviceMocks.MockPatientImageService)
	svc.On("Get", mock.Anything, 7).Return(&model.PatientImage{ID: 7, URL: "http://minio/signed"}, nil).Once()
	svc.On("Download", mock.Anything, 7).
		Return(io.NopCloser(strings.NewReader("pngdata")), &model.PatientImage{ID: 7, ContentType: "image/png", Size: 7}, nil).Once()
	svc.On("Delete", mock.Anything, 8).
		Return(&service.Error{Kind: service.KindNotFound, Code: "IMAGE_NOT_FOUND", Message: "image not found"}).Once()

	app := newTestApp()
	app.Get("/patient-images/:id", GetPatientImage(svc))
	app.Get("/patient-images/:id/content", DownloadPatientImage(svc))
	app.Delete("/patient-images/:id", DeletePatientImage(svc))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/patient-images/7", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var img model.PatientImage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&img))
	assert.Equal(t, "http://minio/signed", img.URL)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/patient-images/7/content", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get(fiber.HeaderContentType))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "pngdata", string(data))

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/patient-images/8", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/patient-images/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)

	svc.AssertExpectations(t)
}

func TestRouting(t *testing.T) {
	tokens := security.NewTokenManager("routing-secret", "dentalclinic", time.Hour, 24*time.Hour)
	blacklist := security.NewMemoryBlacklist()
	patients := new(serviceMocks.MockPatientService)

	app := newTestApp()
	RegisterRoutes(app, Deps{
		Tokens:       tokens,
		Blacklist:    blacklist,
		LoginRate:    config.RateLimitConfig{LoginPerMinute: 60, Burst: 10},
		Auth:         new(serviceMocks.MockAuthService),
		Employees:    new(serviceMocks.MockEmployeeService),
		Patients:     patients,
		Services:     new(serviceMocks.MockDentalServiceService),
		Rooms:        new(serviceMocks.MockRoomService),
		Appointments: new(serviceMocks.MockAppointmentService),
		Images:       new(serviceMocks.MockPatientImageService),
	})

	bearer := func(perms ...string) string {
		issued, err := tokens.IssueAccess("tester", nil, perms)
		require.NoError(t, err)
		return "Bearer " + issued.Token
	}

	t.Run("not found route", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/non-existent", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/healthz", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Error.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Error.Code)
		assert.Equal(t, "no-store", resp.Header.Get(fiber.HeaderCacheControl))
	})

	t.Run("missing permission", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/patients/BN-1001", nil)
		req.Header.Set(fiber.HeaderAuthorization, bearer(model.PermViewPatient))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "FORBIDDEN", decodeError(t, resp).Error.Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		issued, err := tokens.IssueAccess("tester", nil, []string{model.PermViewPatient})
		require.NoError(t, err)
		require.NoError(t, blacklist.Add(context.Background(), issued.ID, "logout", issued.ExpiresAt))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+issued.Token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "TOKEN_REVOKED", decodeError(t, resp).Error.Code)
	})

	t.Run("duplicate-check is not captured by :code", func(t *testing.T) {
		patients.On("CheckDuplicates", mock.Anything, mock.Anything).Return(&model.DuplicateCheckResult{}, nil).Once()

		req := jsonRequest(http.MethodPost, "/api/v1/patients/duplicate-check", `{"first_name":"An","last_name":"Nguyen"}`)
		req.Header.Set(fiber.HeaderAuthorization, bearer(model.PermViewPatient))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		patients.AssertExpectations(t)
	})
}
