package mocks

import (
	"context"

	"dentalclinic/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockRoomRepository struct {
	mock.Mock
}

func (m *MockRoomRepository) Create(ctx context.Context, r *model.Room) (*model.Room, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Room), args.Error(1)
}

func (m *MockRoomRepository) FindByCode(ctx context.Context, code string) (*model.Room, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Room), args.Error(1)
}

func (m *MockRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Room), args.Error(1)
}

func (m *MockRoomRepository) List(ctx context.Context, activeOnly bool, roomType string) ([]model.Room, error) {
	args := m.Called(ctx, activeOnly, roomType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Room), args.Error(1)
}

func (m *MockRoomRepository) Update(ctx context.Context, r *model.Room) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRoomRepository) SetActive(ctx context.Context, id string, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *MockRoomRepository) ServiceIDs(ctx context.Context, roomID string) ([]int, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockRoomRepository) ReplaceServices(ctx context.Context, roomID string, serviceIDs []int) error {
	args := m.Called(ctx, roomID, serviceIDs)
	return args.Error(0)
}
