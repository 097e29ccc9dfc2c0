package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"dentalclinic/internal/database"
	"dentalclinic/internal/model"
	"dentalclinic/internal/repository"
)

var errRoomNotFound = notFound("ROOM_NOT_FOUND", "room not found")

type CreateRoomRequest struct {
	Code string `json:"room_code" validate:"required,max=20"`
	Name string `json:"room_name" validate:"required,max=100"`
	Type string `json:"room_type" validate:"max=50"`
}

type UpdateRoomRequest struct {
	Name *string `json:"room_name" validate:"omitempty,min=1,max=100"`
	Type *string `json:"room_type" validate:"omitempty,max=50"`
}

type ReplaceRoomServicesRequest struct {
	ServiceCodes []string `json:"service_codes" validate:"required,dive,required"`
}

// RoomService manages treatment rooms and the services each room can host.
type RoomService interface {
	List(ctx context.Context, activeOnly bool, roomType string) ([]model.Room, error)
	GetByCode(ctx context.Context, code string) (*model.Room, error)
	Create(ctx context.Context, req CreateRoomRequest) (*model.Room, error)
	Update(ctx context.Context, code string, req UpdateRoomRequest) (*model.Room, error)
	Deactivate(ctx context.Context, code string) error
	ListServices(ctx context.Context, code string) ([]model.DentalService, error)
	// ReplaceServices sets the room's supported services to exactly the given codes.
	ReplaceServices(ctx context.Context, code string, req ReplaceRoomServicesRequest) ([]model.DentalService, error)
}

type roomService struct {
	rooms    repository.RoomRepository
	services repository.DentalServiceRepository
}

func NewRoomService(rooms repository.RoomRepository, services repository.DentalServiceRepository) RoomService {
	return &roomService{rooms: rooms, services: services}
}

func (s *roomService) List(ctx context.Context, activeOnly bool, roomType string) ([]model.Room, error) {
	rooms, err := s.rooms.List(ctx, activeOnly, strings.TrimSpace(roomType))
	if err != nil {
		return nil, err
	}
	if rooms == nil {
		rooms = []model.Room{}
	}
	return rooms, nil
}

func (s *roomService) GetByCode(ctx context.Context, code string) (*model.Room, error) {
	r, err := s.rooms.FindByCode(ctx, code)
	if err != nil {
		return nil, mapNotFound(err, errRoomNotFound)
	}
	return r, nil
}

func (s *roomService) Create(ctx context.Context, req CreateRoomRequest) (*model.Room, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	r := &model.Room{
		ID:       uuid.NewString(),
		Code:     strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:     strings.TrimSpace(req.Name),
		Type:     optional(strings.TrimSpace(req.Type)),
		IsActive: true,
	}
	created, err := s.rooms.Create(ctx, r)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return nil, conflict("ROOM_CODE_EXISTS", "room code "+r.Code+" already exists")
		}
		return nil, fmt.Errorf("create room: %w", err)
	}
	return created, nil
}

func (s *roomService) Update(ctx context.Context, code string, req UpdateRoomRequest) (*model.Room, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	r, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	patchString(&r.Name, req.Name)
	patchOptional(&r.Type, req.Type)
	if err := s.rooms.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("update room: %w", err)
	}
	return r, nil
}

func (s *roomService) Deactivate(ctx context.Context, code string) error {
	r, err := s.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if !r.IsActive {
		return nil
	}
	return s.rooms.SetActive(ctx, r.ID, false)
}

func (s *roomService) ListServices(ctx context.Context, code string) ([]model.DentalService, error) {
	r, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	ids, err := s.rooms.ServiceIDs(ctx, r.ID)
	if err != nil {
		return nil, fmt.Errorf("load room services: %w", err)
	}
	if len(ids) == 0 {
		return []model.DentalService{}, nil
	}
	return s.services.FindByIDs(ctx, ids)
}

func (s *roomService) ReplaceServices(ctx context.Context, code string, req ReplaceRoomServicesRequest) ([]model.DentalService, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	r, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	services, err := servicesByCodes(ctx, s.services, req.ServiceCodes)
	if err != nil {
		return nil, err
	}
	ids := make([]int, len(services))
	for i, ds := range services {
		ids[i] = ds.ID
	}
	if err := s.rooms.ReplaceServices(ctx, r.ID, ids); err != nil {
		return nil, fmt.Errorf("replace room services: %w", err)
	}
	return services, nil
}

// servicesByCodes loads every code, failing with SERVICES_NOT_FOUND when any is unknown.
// The result follows the order of codes with duplicates removed.
func servicesByCodes(ctx context.Context, repo repository.DentalServiceRepository, codes []string) ([]model.DentalService, error) {
	codes = uniqueStrings(normalizeCodes(codes))
	found, err := repo.FindByCodes(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}
	byCode := make(map[string]model.DentalService, len(found))
	for _, ds := range found {
		byCode[normalizeCode(ds.Code)] = ds
	}
	out := make([]model.DentalService, 0, len(codes))
	var missing []string
	for _, c := range codes {
		ds, ok := byCode[c]
		if !ok {
			missing = append(missing, c)
			continue
		}
		out = append(out, ds)
	}
	if len(missing) > 0 {
		return nil, notFound("SERVICES_NOT_FOUND", "unknown services: "+strings.Join(missing, ", "))
	}
	return out, nil
}
