package repository

import (
	"context"

	"dentalclinic/internal/model"
)

// PatientImageRepository persists metadata for patient images held in object storage.
type PatientImageRepository interface {
	Create(ctx context.Context, img *model.PatientImage) (*model.PatientImage, error)
	FindByID(ctx context.Context, id int) (*model.PatientImage, error)
	ListByPatient(ctx context.Context, patientID int) ([]model.PatientImage, error)
	Delete(ctx context.Context, id int) error
}
