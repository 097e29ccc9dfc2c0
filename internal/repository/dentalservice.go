package repository

import (
	"context"

	"dentalclinic/internal/model"
)

// DentalServiceRepository persists the treatment catalog.
type DentalServiceRepository interface {
	Create(ctx context.Context, s *model.DentalService) (*model.DentalService, error)
	FindByCode(ctx context.Context, code string) (*model.DentalService, error)
	FindByCodes(ctx context.Context, codes []string) ([]model.DentalService, error)
	FindByIDs(ctx context.Context, ids []int) ([]model.DentalService, error)
	List(ctx context.Context, q ServiceListQuery) (*PageResult[model.DentalService], error)
	Update(ctx context.Context, s *model.DentalService) error
	SetActive(ctx context.Context, id int, active bool) error
	SpecializationExists(ctx context.Context, id int) (bool, error)
}
