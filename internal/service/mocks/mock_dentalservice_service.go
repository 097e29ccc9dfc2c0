package mocks

import (
	"context"

	"dentalclinic/internal/model"
	"dentalclinic/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockDentalServiceService struct {
	mock.Mock
}

func (m *MockDentalServiceService) List(ctx context.Context, params service.DentalServiceListParams) (*service.ListResult[model.DentalService], error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.DentalService]), args.Error(1)
}

func (m *MockDentalServiceService) GetByCode(ctx context.Context, code string) (*model.DentalService, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DentalService), args.Error(1)
}

func (m *MockDentalServiceService) Create(ctx context.Context, req service.CreateDentalServiceRequest) (*model.DentalService, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DentalService), args.Error(1)
}

func (m *MockDentalServiceService) Update(ctx context.Context, code string, req service.UpdateDentalServiceRequest) (*model.DentalService, error) {
	args := m.Called(ctx, code, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DentalService), args.Error(1)
}

func (m *MockDentalServiceService) Deactivate(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockDentalServiceService) Activate(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}
