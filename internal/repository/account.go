package repository

import (
	"context"

	"dentalclinic/internal/model"
)

// AccountRepository persists login accounts, role grants and refresh tokens.
type AccountRepository interface {
	FindByUsername(ctx context.Context, username string) (*model.Account, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	// RolePermissions returns the permission ids granted to a role.
	RolePermissions(ctx context.Context, roleID string) ([]string, error)
	RoleExists(ctx context.Context, roleID string) (bool, error)

	UpdatePassword(ctx context.Context, accountID, hash string, mustChange bool) error

	SaveRefreshToken(ctx context.Context, t *model.RefreshToken) error
	FindRefreshToken(ctx context.Context, hash string) (*model.RefreshToken, error)
	// DeactivateRefreshToken returns sql.ErrNoRows when the token is already
	// inactive, so only one concurrent rotation can win.
	DeactivateRefreshToken(ctx context.Context, id string) error
	DeactivateAllRefreshTokens(ctx context.Context, accountID string) error
}
