package mocks

import (
	"context"

	"dentalclinic/internal/model"
	"dentalclinic/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockEmployeeRepository struct {
	mock.Mock
}

func (m *MockEmployeeRepository) Create(ctx context.Context, e *model.Employee, acct *model.Account, specializationIDs []int) (*model.Employee, error) {
	args := m.Called(ctx, e, acct, specializationIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) FindByCode(ctx context.Context, code string) (*model.Employee, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) FindByID(ctx context.Context, id int) (*model.Employee, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) FindByUsername(ctx context.Context, username string) (*model.Employee, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) List(ctx context.Context, pq repository.PageQuery, activeOnly bool) (*repository.PageResult[model.Employee], error) {
	args := m.Called(ctx, pq, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Employee]), args.Error(1)
}

func (m *MockEmployeeRepository) Deactivate(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEmployeeRepository) PhoneExists(ctx context.Context, phone string) (bool, error) {
	args := m.Called(ctx, phone)
	return args.Bool(0), args.Error(1)
}

func (m *MockEmployeeRepository) FindSpecializationsByCodes(ctx context.Context, codes []string) ([]model.Specialization, error) {
	args := m.Called(ctx, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Specialization), args.Error(1)
}

func (m *MockEmployeeRepository) AddShift(ctx context.Context, s *model.Shift) (*model.Shift, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Shift), args.Error(1)
}

func (m *MockEmployeeRepository) DeleteShift(ctx context.Context, employeeID, shiftID int) error {
	args := m.Called(ctx, employeeID, shiftID)
	return args.Error(0)
}

func (m *MockEmployeeRepository) ListShifts(ctx context.Context, employeeID int, from, to model.Date) ([]model.Shift, error) {
	args := m.Called(ctx, employeeID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Shift), args.Error(1)
}
