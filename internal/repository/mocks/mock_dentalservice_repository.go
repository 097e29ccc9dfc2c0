package mocks

import (
	"context"

	"dentalclinic/internal/model"
	"dentalclinic/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockDentalServiceRepository struct {
	mock.Mock
}

func (m *MockDentalServiceRepository) Create(ctx context.Context, s *model.DentalService) (*model.DentalService, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DentalService), args.Error(1)
}

func (m *MockDentalServiceRepository) FindByCode(ctx context.Context, code string) (*model.DentalService, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DentalService), args.Error(1)
}

func (m *MockDentalServiceRepository) FindByCodes(ctx context.Context, codes []string) ([]model.DentalService, error) {
	args := m.Called(ctx, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DentalService), args.Error(1)
}

func (m *MockDentalServiceRepository) FindByIDs(ctx context.Context, ids []int) ([]model.DentalService, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DentalService), args.Error(1)
}

func (m *MockDentalServiceRepository) List(ctx context.Context, q repository.ServiceListQuery) (*repository.PageResult[model.DentalService], error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.DentalService]), args.Error(1)
}

func (m *MockDentalServiceRepository) Update(ctx context.Context, s *model.DentalService) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockDentalServiceRepository) SetActive(ctx context.Context, id int, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *MockDentalServiceRepository) SpecializationExists(ctx context.Context, id int) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
