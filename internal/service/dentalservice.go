package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"dentalclinic/internal/database"
	"dentalclinic/internal/model"
	"dentalclinic/internal/repository"
)

var errServiceNotFound = notFound("SERVICE_NOT_FOUND", "dental service not found")

const (
	catalogCacheTTL     = 5 * time.Minute
	catalogCacheCleanup = 10 * time.Minute
)

type CreateDentalServiceRequest struct {
	Code                   string          `json:"service_code" validate:"required,max=20"`
	Name                   string          `json:"service_name" validate:"required,max=100"`
	Description            string          `json:"description" validate:"max=1000"`
	DefaultDurationMinutes int             `json:"default_duration_minutes" validate:"required,min=1,max=600"`
	DefaultBufferMinutes   int             `json:"default_buffer_minutes" validate:"min=0,max=240"`
	Price                  decimal.Decimal `json:"price"`
	SpecializationID       *int            `json:"specialization_id" validate:"omitempty,min=1"`
}

type UpdateDentalServiceRequest struct {
	Name                   *string          `json:"service_name" validate:"omitempty,min=1,max=100"`
	Description            *string          `json:"description" validate:"omitempty,max=1000"`
	DefaultDurationMinutes *int             `json:"default_duration_minutes" validate:"omitempty,min=1,max=600"`
	DefaultBufferMinutes   *int             `json:"default_buffer_minutes" validate:"omitempty,min=0,max=240"`
	Price                  *decimal.Decimal `json:"price"`
	SpecializationID       *int             `json:"specialization_id" validate:"omitempty,min=1"`
}

type DentalServiceListParams struct {
	Page
	ActiveOnly bool
	Search     string
}

// DentalServiceService manages the treatment catalog. Single-service lookups are
// served from an in-process cache that every write invalidates.
type DentalServiceService interface {
	List(ctx context.Context, params DentalServiceListParams) (*ListResult[model.DentalService], error)
	GetByCode(ctx context.Context, code string) (*model.DentalService, error)
	Create(ctx context.Context, req CreateDentalServiceRequest) (*model.DentalService, error)
	Update(ctx context.Context, code string, req UpdateDentalServiceRequest) (*model.DentalService, error)
	Deactivate(ctx context.Context, code string) error
	Activate(ctx context.Context, code string) error
}

type dentalServiceService struct {
	repo  repository.DentalServiceRepository
	cache *cache.Cache
}

func NewDentalServiceService(repo repository.DentalServiceRepository) DentalServiceService {
	return &dentalServiceService{
		repo:  repo,
		cache: cache.New(catalogCacheTTL, catalogCacheCleanup),
	}
}

func (s *dentalServiceService) List(ctx context.Context, params DentalServiceListParams) (*ListResult[model.DentalService], error) {
	pq, page := params.Page.PageQuery()
	res, err := s.repo.List(ctx, repository.ServiceListQuery{
		PageQuery:  pq,
		Search:     strings.TrimSpace(params.Search),
		ActiveOnly: params.ActiveOnly,
	})
	if err != nil {
		return nil, err
	}
	return newListResult(res, page), nil
}

func (s *dentalServiceService) GetByCode(ctx context.Context, code string) (*model.DentalService, error) {
	code = normalizeCode(code)
	if v, ok := s.cache.Get(code); ok {
		cp := v.(model.DentalService)
		return &cp, nil
	}
	ds, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, mapNotFound(err, errServiceNotFound)
	}
	s.cache.SetDefault(normalizeCode(ds.Code), *ds)
	return ds, nil
}

func (s *dentalServiceService) Create(ctx context.Context, req CreateDentalServiceRequest) (*model.DentalService, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, validationFailed(map[string]string{"price": "The field 'price' must be greater than or equal to 0."})
	}
	if err := s.checkSpecialization(ctx, req.SpecializationID); err != nil {
		return nil, err
	}

	ds := &model.DentalService{
		Code:                   normalizeCode(req.Code),
		Name:                   strings.TrimSpace(req.Name),
		Description:            optional(req.Description),
		DefaultDurationMinutes: req.DefaultDurationMinutes,
		DefaultBufferMinutes:   req.DefaultBufferMinutes,
		Price:                  req.Price.Round(2),
		SpecializationID:       req.SpecializationID,
		IsActive:               true,
	}
	created, err := s.repo.Create(ctx, ds)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return nil, conflict("SERVICE_CODE_EXISTS", "service code "+ds.Code+" already exists")
		}
		return nil, fmt.Errorf("create service: %w", err)
	}
	return created, nil
}

func (s *dentalServiceService) checkSpecialization(ctx context.Context, id *int) error {
	if id == nil {
		return nil
	}
	ok, err := s.repo.SpecializationExists(ctx, *id)
	if err != nil {
		return fmt.Errorf("check specialization: %w", err)
	}
	if !ok {
		return invalid("SPECIALIZATION_NOT_FOUND", fmt.Sprintf("specialization %d does not exist", *id))
	}
	return nil
}

func (s *dentalServiceService) find(ctx context.Context, code string) (*model.DentalService, error) {
	ds, err := s.repo.FindByCode(ctx, normalizeCode(code))
	if err != nil {
		return nil, mapNotFound(err, errServiceNotFound)
	}
	return ds, nil
}

func (s *dentalServiceService) Update(ctx context.Context, code string, req UpdateDentalServiceRequest) (*model.DentalService, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	if req.Price != nil && req.Price.IsNegative() {
		return nil, validationFailed(map[string]string{"price": "The field 'price' must be greater than or equal to 0."})
	}
	if err := s.checkSpecialization(ctx, req.SpecializationID); err != nil {
		return nil, err
	}
	ds, err := s.find(ctx, code)
	if err != nil {
		return nil, err
	}

	patchString(&ds.Name, req.Name)
	patchOptional(&ds.Description, req.Description)
	if req.DefaultDurationMinutes != nil {
		ds.DefaultDurationMinutes = *req.DefaultDurationMinutes
	}
	if req.DefaultBufferMinutes != nil {
		ds.DefaultBufferMinutes = *req.DefaultBufferMinutes
	}
	if req.Price != nil {
		ds.Price = req.Price.Round(2)
	}
	if req.SpecializationID != nil {
		ds.SpecializationID = req.SpecializationID
	}

	if err := s.repo.Update(ctx, ds); err != nil {
		return nil, fmt.Errorf("update service: %w", err)
	}
	s.cache.Delete(normalizeCode(ds.Code))
	return ds, nil
}

func (s *dentalServiceService) Deactivate(ctx context.Context, code string) error {
	return s.setActive(ctx, code, false)
}

func (s *dentalServiceService) Activate(ctx context.Context, code string) error {
	return s.setActive(ctx, code, true)
}

func (s *dentalServiceService) setActive(ctx context.Context, code string, active bool) error {
	ds, err := s.find(ctx, code)
	if err != nil {
		return err
	}
	if ds.IsActive != active {
		if err := s.repo.SetActive(ctx, ds.ID, active); err != nil {
			return err
		}
	}
	s.cache.Delete(normalizeCode(ds.Code))
	return nil
}
