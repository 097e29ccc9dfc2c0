package repository

import (
	"context"

	"dentalclinic/internal/model"
)

// RoomRepository persists treatment rooms and their supported services.
type RoomRepository interface {
	Create(ctx context.Context, r *model.Room) (*model.Room, error)
	FindByCode(ctx context.Context, code string) (*model.Room, error)
	FindByID(ctx context.Context, id string) (*model.Room, error)
	List(ctx context.Context, activeOnly bool, roomType string) ([]model.Room, error)
	Update(ctx context.Context, r *model.Room) error
	SetActive(ctx context.Context, id string, active bool) error
	ServiceIDs(ctx context.Context, roomID string) ([]int, error)
	ReplaceServices(ctx context.Context, roomID string, serviceIDs []int) error
}
