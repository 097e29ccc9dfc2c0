package mocks

import (
	"context"

	"dentalclinic/internal/model"
	"dentalclinic/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockPatientRepository struct {
	mock.Mock
}

func (m *MockPatientRepository) Create(ctx context.Context, p *model.Patient, acct *model.Account) (*model.Patient, error) {
	args := m.Called(ctx, p, acct)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Patient), args.Error(1)
}

func (m *MockPatientRepository) FindByCode(ctx context.Context, code string) (*model.Patient, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Patient), args.Error(1)
}

func (m *MockPatientRepository) FindByID(ctx context.Context, id int) (*model.Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Patient), args.Error(1)
}

func (m *MockPatientRepository) List(ctx context.Context, q repository.PatientListQuery) (*repository.PageResult[model.Patient], error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Patient]), args.Error(1)
}

func (m *MockPatientRepository) Update(ctx context.Context, p *model.Patient) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPatientRepository) Deactivate(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPatientRepository) Blacklist(ctx context.Context, id int, e repository.BlacklistEntry) error {
	args := m.Called(ctx, id, e)
	return args.Error(0)
}

func (m *MockPatientRepository) ClearBlacklist(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPatientRepository) Unban(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPatientRepository) PhoneExists(ctx context.Context, phone string, excludeID int) (bool, error) {
	args := m.Called(ctx, phone, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPatientRepository) FindDuplicateCandidates(ctx context.Context, firstName, lastName string, dob *model.Date, phone *string) ([]model.Patient, error) {
	args := m.Called(ctx, firstName, lastName, dob, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Patient), args.Error(1)
}
