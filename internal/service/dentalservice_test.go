package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"dentalclinic/internal/model"
	"dentalclinic/internal/repository"
	repoMocks "dentalclinic/internal/repository/mocks"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDentalServiceService_Create(t *testing.T) {
	ctx := context.Background()
	valid := CreateDentalServiceRequest{
		Code:                   "scale-01",
		Name:                   "Scaling",
		DefaultDurationMinutes: 30,
		DefaultBufferMinutes:   10,
		Price:                  decimal.RequireFromString("350000.555"),
		SpecializationID:       ptr(3),
	}

	tests := []struct {
		name       string
		req        CreateDentalServiceRequest
		setupMocks func(m *repoMocks.MockDentalServiceRepository)
		wantCode   string
		wantErr    string
	}{
		{
			name: "happy path",
			req:  valid,
			setupMocks: func(m *repoMocks.MockDentalServiceRepository) {
				m.On("SpecializationExists", ctx, 3).Return(true, nil)
				m.On("Create", ctx, mock.MatchedBy(func(s *model.DentalService) bool {
					return s.Code == "SCALE-01" && s.Price.String() == "350000.56" && s.IsActive
				})).Return(&model.DentalService{ID: 1, Code: "SCALE-01"}, nil)
			},
		},
		{
			name: "zero duration",
			req: func() CreateDentalServiceRequest {
				r := valid
				r.DefaultDurationMinutes = 0
				return r
			}(),
			setupMocks: func(m *repoMocks.MockDentalServiceRepository) {},
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name: "negative price",
			req: func() CreateDentalServiceRequest {
				r := valid
				r.Price = decimal.NewFromInt(-1)
				return r
			}(),
			setupMocks: func(m *repoMocks.MockDentalServiceRepository) {},
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name: "unknown specialization",
			req:  valid,
			setupMocks: func(m *repoMocks.MockDentalServiceRepository) {
				m.On("SpecializationExists", ctx, 3).Return(false, nil)
			},
			wantCode: "SPECIALIZATION_NOT_FOUND",
		},
		{
			name: "duplicate code",
			req:  valid,
			setupMocks: func(m *repoMocks.MockDentalServiceRepository) {
				m.On("SpecializationExists", ctx, 3).Return(true, nil)
				m.On("Create", ctx, mock.Anything).Return(nil, &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
			},
			wantCode: "SERVICE_CODE_EXISTS",
		},
		{
			name: "repository error",
			req:  valid,
			setupMocks: func(m *repoMocks.MockDentalServiceRepository) {
				m.On("SpecializationExists", ctx, 3).Return(true, nil)
				m.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
			},
			wantErr: "create service: db fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDentalServiceRepository)
			svc := NewDentalServiceService(mRepo)
			tt.setupMocks(mRepo)

			_, err := svc.Create(ctx, tt.req)

			switch {
			case tt.wantCode != "":
				e, ok := AsError(err)
				require.True(t, ok, "got %v", err)
				assert.Equal(t, tt.wantCode, e.Code)
			case tt.wantErr != "":
				assert.EqualError(t, err, tt.wantErr)
			default:
				assert.NoError(t, err)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDentalServiceService_GetByCode_Cached(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDentalServiceRepository)
	svc := NewDentalServiceService(mRepo)

	mRepo.On("FindByCode", ctx, "SCALE-01").Return(&model.DentalService{ID: 1, Code: "SCALE-01", Name: "Scaling", IsActive: true}, nil).Twice()
	mRepo.On("SetActive", ctx, 1, false).Return(nil).Once()

	first, err := svc.GetByCode(ctx, "SCALE-01")
	require.NoError(t, err)
	first.Name = "mutated by caller"

	second, err := svc.GetByCode(ctx, "SCALE-01")
	require.NoError(t, err)
	assert.Equal(t, "Scaling", second.Name)

	// Deactivate reads through the repository and evicts the cached entry.
	require.NoError(t, svc.Deactivate(ctx, "SCALE-01"))
	mRepo.On("FindByCode", ctx, "SCALE-01").Return(&model.DentalService{ID: 1, Code: "SCALE-01", IsActive: false}, nil).Once()

	third, err := svc.GetByCode(ctx, "SCALE-01")
	require.NoError(t, err)
	assert.False(t, third.IsActive)
	mRepo.AssertExpectations(t)
}

func TestDentalServiceService_UpdateEvictsAnySpelling(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDentalServiceRepository)
	svc := NewDentalServiceService(mRepo)

	mRepo.On("FindByCode", ctx, "CLN01").Return(&model.DentalService{ID: 4, Code: "CLN01", Name: "Cleaning", IsActive: true}, nil).Twice()
	mRepo.On("Update", ctx, mock.Anything).Return(nil).Once()

	first, err := svc.GetByCode(ctx, "cln01")
	require.NoError(t, err)
	assert.Equal(t, "Cleaning", first.Name)

	_, err = svc.Update(ctx, "CLN01", UpdateDentalServiceRequest{Name: ptr("Deep cleaning")})
	require.NoError(t, err)

	mRepo.On("FindByCode", ctx, "CLN01").Return(&model.DentalService{ID: 4, Code: "CLN01", Name: "Deep cleaning", IsActive: true}, nil).Once()
	again, err := svc.GetByCode(ctx, " cln01 ")
	require.NoError(t, err)
	assert.Equal(t, "Deep cleaning", again.Name)
	mRepo.AssertExpectations(t)
}

func TestDentalServiceService_GetByCode_NotFound(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDentalServiceRepository)
	svc := NewDentalServiceService(mRepo)
	mRepo.On("FindByCode", ctx, "NOPE").Return(nil, sql.ErrNoRows)

	_, err := svc.GetByCode(ctx, "NOPE")
	assert.ErrorIs(t, err, errServiceNotFound)
}

func TestDentalServiceService_Update(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDentalServiceRepository)
	svc := NewDentalServiceService(mRepo)

	mRepo.On("FindByCode", ctx, "SCALE-01").Return(&model.DentalService{
		ID: 1, Code: "SCALE-01", Name: "Scaling", DefaultDurationMinutes: 30, Price: decimal.NewFromInt(100),
	}, nil)
	mRepo.On("Update", ctx, mock.MatchedBy(func(s *model.DentalService) bool {
		return s.Name == "Deep scaling" && s.DefaultDurationMinutes == 45 && s.Price.Equal(decimal.NewFromInt(100))
	})).Return(nil)

	ds, err := svc.Update(ctx, "SCALE-01", UpdateDentalServiceRequest{Name: ptr("Deep scaling"), DefaultDurationMinutes: ptr(45)})
	require.NoError(t, err)
	assert.Equal(t, 45, ds.DefaultDurationMinutes)
	mRepo.AssertExpectations(t)
}

func TestDentalServiceService_List(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDentalServiceRepository)
	svc := NewDentalServiceService(mRepo)
	mRepo.On("List", ctx, repository.ServiceListQuery{
		PageQuery: repository.PageQuery{Limit: 20, Offset: 20}, Search: "fill", ActiveOnly: true,
	}).Return(&repository.PageResult[model.DentalService]{Items: []model.DentalService{{ID: 1}}, Total: 21}, nil)

	res, err := svc.List(ctx, DentalServiceListParams{Page: Page{Page: 1, Size: 20}, ActiveOnly: true, Search: "fill"})
	require.NoError(t, err)
	assert.Equal(t, 21, res.Total)
	assert.Len(t, res.Items, 1)
}
