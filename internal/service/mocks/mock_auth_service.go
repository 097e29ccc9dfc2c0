package mocks

import (
	"context"

	"dentalclinic/internal/security"
	"dentalclinic/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, req service.LoginRequest) (*service.TokenPair, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TokenPair), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TokenPair), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, p *security.Principal, refreshToken string) error {
	args := m.Called(ctx, p, refreshToken)
	return args.Error(0)
}

func (m *MockAuthService) Me(ctx context.Context, username string) (*service.UserInfo, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UserInfo), args.Error(1)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, username string, req service.ChangePasswordRequest) error {
	args := m.Called(ctx, username, req)
	return args.Error(0)
}
