package mocks

import (
	"context"

	"dentalclinic/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockPatientImageRepository struct {
	mock.Mock
}

func (m *MockPatientImageRepository) Create(ctx context.Context, img *model.PatientImage) (*model.PatientImage, error) {
	args := m.Called(ctx, img)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PatientImage), args.Error(1)
}

func (m *MockPatientImageRepository) FindByID(ctx context.Context, id int) (*model.PatientImage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PatientImage), args.Error(1)
}

func (m *MockPatientImageRepository) ListByPatient(ctx context.Context, patientID int) ([]model.PatientImage, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PatientImage), args.Error(1)
}

func (m *MockPatientImageRepository) Delete(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
