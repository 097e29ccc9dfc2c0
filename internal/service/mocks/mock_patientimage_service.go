package mocks

import (
	"context"
	"io"

	"dentalclinic/internal/model"
	"dentalclinic/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockPatientImageService struct {
	mock.Mock
}

func (m *MockPatientImageService) Upload(ctx context.Context, patientCode string, file service.ImageUpload, req service.UploadImageRequest, by string) (*model.PatientImage, error) {
	args := m.Called(ctx, patientCode, file, req, by)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PatientImage), args.Error(1)
}

func (m *MockPatientImageService) List(ctx context.Context, patientCode string) ([]model.PatientImage, error) {
	args := m.Called(ctx, patientCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PatientImage), args.Error(1)
}

func (m *MockPatientImageService) Get(ctx context.Context, id int) (*model.PatientImage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PatientImage), args.Error(1)
}

func (m *MockPatientImageService) Download(ctx context.Context, id int) (io.ReadCloser, *model.PatientImage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(*model.PatientImage), args.Error(2)
}

func (m *MockPatientImageService) Delete(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
