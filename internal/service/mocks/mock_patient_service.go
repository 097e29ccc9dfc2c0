package mocks

import (
	"context"

	"dentalclinic/internal/model"
	"dentalclinic/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockPatientService struct {
	mock.Mock
}

func (m *MockPatientService) List(ctx context.Context, params service.PatientListParams) (*service.ListResult[model.Patient], error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult[model.Patient]), args.Error(1)
}

func (m *MockPatientService) GetByCode(ctx context.Context, code string, includeInactive bool) (*model.Patient, error) {
	args := m.Called(ctx, code, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Patient), args.Error(1)
}

func (m *MockPatientService) Create(ctx context.Context, req service.CreatePatientRequest) (*service.CreatedPatient, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CreatedPatient), args.Error(1)
}

func (m *MockPatientService) Update(ctx context.Context, code string, req service.UpdatePatientRequest) (*model.Patient, error) {
	args := m.Called(ctx, code, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Patient), args.Error(1)
}

func (m *MockPatientService) Delete(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockPatientService) CheckDuplicates(ctx context.Context, req service.DuplicateCheckRequest) (*model.DuplicateCheckResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DuplicateCheckResult), args.Error(1)
}

func (m *MockPatientService) Blacklist(ctx context.Context, code string, req service.BlacklistRequest, by string) (*model.Patient, error) {
	args := m.Called(ctx, code, req, by)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Patient), args.Error(1)
}

func (m *MockPatientService) RemoveFromBlacklist(ctx context.Context, code string) (*model.Patient, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Patient), args.Error(1)
}

func (m *MockPatientService) Unban(ctx context.Context, code string) (*model.Patient, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Patient), args.Error(1)
}
