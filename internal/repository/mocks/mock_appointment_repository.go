package mocks

import (
	"context"

	"dentalclinic/internal/model"
	"dentalclinic/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) Create(ctx context.Context, na repository.NewAppointment) (*model.Appointment, error) {
	args := m.Called(ctx, na)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) FindByCode(ctx context.Context, code string) (*model.Appointment, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) List(ctx context.Context, f repository.AppointmentFilter, pq repository.PageQuery) (*repository.PageResult[model.Appointment], error) {
	args := m.Called(ctx, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Appointment]), args.Error(1)
}

func (m *MockAppointmentRepository) FindConflicts(ctx context.Context, q repository.ConflictQuery) ([]model.Appointment, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) ParticipantConflicts(ctx context.Context, employeeID int, q repository.ConflictQuery) ([]model.Appointment, error) {
	args := m.Called(ctx, employeeID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) ServiceIDs(ctx context.Context, appointmentID int) ([]int, error) {
	args := m.Called(ctx, appointmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockAppointmentRepository) Participants(ctx context.Context, appointmentID int) ([]model.AppointmentParticipant, error) {
	args := m.Called(ctx, appointmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AppointmentParticipant), args.Error(1)
}

// UpdateStatus applies fn to the appointment and patient supplied as the third and
// fourth return values, mirroring the locked read the real implementation performs.
func (m *MockAppointmentRepository) UpdateStatus(ctx context.Context, code string, fn repository.StatusMutation) (*model.Appointment, error) {
	args := m.Called(ctx, code, fn)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	a := args.Get(0).(*model.Appointment)
	p := args.Get(2).(*model.Patient)
	if _, err := fn(a, p); err != nil {
		return nil, err
	}
	return a, nil
}

func (m *MockAppointmentRepository) Reschedule(ctx context.Context, oldID int, cancelAudit *model.AppointmentAuditLog, na repository.NewAppointment) (*model.Appointment, error) {
	args := m.Called(ctx, oldID, cancelAudit, na)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) ListAuditLogs(ctx context.Context, appointmentID int) ([]model.AppointmentAuditLog, error) {
	args := m.Called(ctx, appointmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AppointmentAuditLog), args.Error(1)
}
