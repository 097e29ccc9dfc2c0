package model

import "time"

type Room struct {
	ID        string    `json:"room_id"`
	Code      string    `json:"room_code"`
	Name      string    `json:"room_name"`
	Type      *string   `json:"room_type,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
