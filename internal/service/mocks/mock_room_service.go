package mocks

import (
	"context"

	"dentalclinic/internal/model"
	"dentalclinic/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockRoomService struct {
	mock.Mock
}

func (m *MockRoomService) List(ctx context.Context, activeOnly bool, roomType string) ([]model.Room, error) {
	args := m.Called(ctx, activeOnly, roomType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Room), args.Error(1)
}

func (m *MockRoomService) GetByCode(ctx context.Context, code string) (*model.Room, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Room), args.Error(1)
}

func (m *MockRoomService) Create(ctx context.Context, req service.CreateRoomRequest) (*model.Room, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Room), args.Error(1)
}

func (m *MockRoomService) Update(ctx context.Context, code string, req service.UpdateRoomRequest) (*model.Room, error) {
	args := m.Called(ctx, code, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Room), args.Error(1)
}

func (m *MockRoomService) Deactivate(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockRoomService) ListServices(ctx context.Context, code string) ([]model.DentalService, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DentalService), args.Error(1)
}

func (m *MockRoomService) ReplaceServices(ctx context.Context, code string, req service.ReplaceRoomServicesRequest) ([]model.DentalService, error) {
	args := m.Called(ctx, code, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DentalService), args.Error(1)
}
