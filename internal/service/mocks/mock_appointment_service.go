package mocks

import (
	"context"

	"dentalclinic/internal/model"
	"dentalclinic/internal/security"
	"dentalclinic/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockAppointmentService struct {
	mock.Mock
}

func (m *MockAppointmentService) Create(ctx context.Context, p *security.Principal, req service.CreateAppointmentRequest) (*model.AppointmentDetail, error) {
	args := m.Called(ctx, p, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AppointmentDetail), args.Error(1)
}

func (m *MockAppointmentService) Get(ctx context.Context, code string) (*model.AppointmentDetail, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AppointmentDetail), args.Error(1)
}

func (m *MockAppointmentService) List(ctx context.Context, params service.AppointmentListParams) (*service.ListResult[model.Appointment], error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.Appointment]), args.Error(1)
}

func (m *MockAppointmentService) UpdateStatus(ctx context.Context, p *security.Principal, code string, req service.UpdateStatusRequest) (*model.AppointmentDetail, error) {
	args := m.Called(ctx, p, code, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AppointmentDetail), args.Error(1)
}

func (m *MockAppointmentService) Reschedule(ctx context.Context, p *security.Principal, code string, req service.RescheduleRequest) (*service.RescheduleResult, error) {
	args := m.Called(ctx, p, code, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RescheduleResult), args.Error(1)
}

func (m *MockAppointmentService) AuditLogs(ctx context.Context, code string) ([]model.AppointmentAuditLog, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AppointmentAuditLog), args.Error(1)
}
