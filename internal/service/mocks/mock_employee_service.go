package mocks

import (
	"context"

	"dentalclinic/internal/model"
	"dentalclinic/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockEmployeeService struct {
	mock.Mock
}

func (m *MockEmployeeService) Create(ctx context.Context, req service.CreateEmployeeRequest) (*model.Employee, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Employee), args.Error(1)
}

func (m *MockEmployeeService) Get(ctx context.Context, code string) (*model.Employee, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Employee), args.Error(1)
}

func (m *MockEmployeeService) List(ctx context.Context, page service.Page, activeOnly bool) (*service.ListResult[model.Employee], error) {
	args := m.Called(ctx, page, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.Employee]), args.Error(1)
}

func (m *MockEmployeeService) Deactivate(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockEmployeeService) AddShift(ctx context.Context, code string, req service.AddShiftRequest) (*model.Shift, error) {
	args := m.Called(ctx, code, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Shift), args.Error(1)
}

func (m *MockEmployeeService) DeleteShift(ctx context.Context, code string, shiftID int) error {
	args := m.Called(ctx, code, shiftID)
	return args.Error(0)
}

func (m *MockEmployeeService) ListShifts(ctx context.Context, code, from, to string) ([]model.Shift, error) {
	args := m.Called(ctx, code, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Shift), args.Error(1)
}
