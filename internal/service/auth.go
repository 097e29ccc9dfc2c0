package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"dentalclinic/internal/model"
	"dentalclinic/internal/repository"
	"dentalclinic/internal/security"
)

var (
	errInvalidCredentials = unauthorized("INVALID_CREDENTIALS", "invalid username or password")
	errInvalidRefresh     = unauthorized("INVALID_REFRESH_TOKEN", "refresh token is invalid or expired")
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken           string              `json:"access_token"`
	AccessTokenExpiresAt  time.Time           `json:"access_token_expires_at"`
	RefreshToken          string              `json:"refresh_token"`
	RefreshTokenExpiresAt time.Time           `json:"refresh_token_expires_at"`
	Username              string              `json:"username"`
	Email                 string              `json:"email"`
	Roles                 []string            `json:"roles"`
	Permissions           []string            `json:"permissions"`
	GroupedPermissions    map[string][]string `json:"grouped_permissions"`
	MustChangePassword    bool                `json:"must_change_password"`
}

// UserInfo describes the signed-in account.
type UserInfo struct {
	ID                 string              `json:"id"`
	Username           string              `json:"username"`
	Email              string              `json:"email"`
	Status             model.AccountStatus `json:"status"`
	Roles              []string            `json:"roles"`
	Permissions        []string            `json:"permissions"`
	MustChangePassword bool                `json:"must_change_password"`
	Employee           *model.Employee     `json:"employee,omitempty"`
}

// AuthService authenticates accounts and manages their tokens.
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*TokenPair, error)
	// Refresh rotates a refresh token: the presented one is deactivated and a new pair issued.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	// Logout blacklists the caller's access token until it expires and deactivates the optional refresh token.
	Logout(ctx context.Context, p *security.Principal, refreshToken string) error
	Me(ctx context.Context, username string) (*UserInfo, error)
	// ChangePassword clears the must-change flag and revokes every refresh token of the account.
	ChangePassword(ctx context.Context, username string, req ChangePasswordRequest) error
}

type authService struct {
	accounts  repository.AccountRepository
	employees repository.EmployeeRepository
	tokens    *security.TokenManager
	blacklist security.TokenBlacklist
	now       func() time.Time
}

func NewAuthService(accounts repository.AccountRepository, employees repository.EmployeeRepository, tokens *security.TokenManager, blacklist security.TokenBlacklist) AuthService {
	return &authService{
		accounts:  accounts,
		employees: employees,
		tokens:    tokens,
		blacklist: blacklist,
		now:       time.Now,
	}
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenPair, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	acct, err := s.accounts.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, mapNotFound(err, errInvalidCredentials)
	}
	if !security.CheckPassword(acct.Password, req.Password) {
		return nil, errInvalidCredentials
	}
	if err := accountUsable(acct); err != nil {
		return nil, err
	}
	return s.issuePair(ctx, acct)
}

func accountUsable(acct *model.Account) error {
	switch acct.Status {
	case model.AccountActive:
		return nil
	case model.AccountPendingVerification:
		return forbidden("ACCOUNT_NOT_VERIFIED", "account has not been verified yet")
	default:
		return forbidden("ACCOUNT_DISABLED", "account is disabled")
	}
}

func (s *authService) issuePair(ctx context.Context, acct *model.Account) (*TokenPair, error) {
	perms, err := s.permissionsOf(ctx, acct.RoleID)
	if err != nil {
		return nil, err
	}
	roles := []string{acct.RoleID}

	access, err := s.tokens.IssueAccess(acct.Username, roles, perms)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(acct.Username)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	err = s.accounts.SaveRefreshToken(ctx, &model.RefreshToken{
		ID:        uuid.NewString(),
		AccountID: acct.ID,
		TokenHash: security.HashToken(refresh.Token),
		ExpiresAt: refresh.ExpiresAt,
		IsActive:  true,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:           access.Token,
		AccessTokenExpiresAt:  access.ExpiresAt,
		RefreshToken:          refresh.Token,
		RefreshTokenExpiresAt: refresh.ExpiresAt,
		Username:              acct.Username,
		Email:                 acct.Email,
		Roles:                 roles,
		Permissions:           perms,
		GroupedPermissions:    groupPermissions(perms),
		MustChangePassword:    acct.MustChangePassword,
	}, nil
}

// permissionsOf lists the role's grants. Administrators are granted every permission.
func (s *authService) permissionsOf(ctx context.Context, roleID string) ([]string, error) {
	if roleID == model.RoleAdmin {
		all := make([]string, 0, len(model.SeedPermissions))
		for _, p := range model.SeedPermissions {
			all = append(all, p.ID)
		}
		return all, nil
	}
	perms, err := s.accounts.RolePermissions(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("load role permissions: %w", err)
	}
	if perms == nil {
		perms = []string{}
	}
	return perms, nil
}

var permissionModules = func() map[string]string {
	m := make(map[string]string, len(model.SeedPermissions))
	for _, p := range model.SeedPermissions {
		m[p.ID] = p.Module
	}
	return m
}()

func groupPermissions(perms []string) map[string][]string {
	out := make(map[string][]string)
	for _, p := range perms {
		module, ok := permissionModules[p]
		if !ok {
			module = "OTHER"
		}
		out[module] = append(out[module], p)
	}
	for _, list := range out {
		sort.Strings(list)
	}
	return out
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, errInvalidRefresh
	}
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, errInvalidRefresh
	}
	stored, err := s.accounts.FindRefreshToken(ctx, security.HashToken(refreshToken))
	if err != nil {
		return nil, mapNotFound(err, errInvalidRefresh)
	}
	if !stored.IsActive || !stored.ExpiresAt.After(s.now()) {
		return nil, errInvalidRefresh
	}
	acct, err := s.accounts.FindByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, mapNotFound(err, errInvalidRefresh)
	}
	if acct.ID != stored.AccountID {
		return nil, errInvalidRefresh
	}
	if err := accountUsable(acct); err != nil {
		return nil, err
	}
	if err := s.accounts.DeactivateRefreshToken(ctx, stored.ID); err != nil {
		// Another request rotated this token first.
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errInvalidRefresh
		}
		return nil, fmt.Errorf("deactivate refresh token: %w", err)
	}
	return s.issuePair(ctx, acct)
}

func (s *authService) Logout(ctx context.Context, p *security.Principal, refreshToken string) error {
	if p == nil {
		return unauthorized("UNAUTHORIZED", "authentication required")
	}
	if err := s.blacklist.Add(ctx, p.TokenID, security.BlacklistReasonLogout, p.ExpiresAt); err != nil {
		return err
	}
	if refreshToken == "" {
		return nil
	}
	stored, err := s.accounts.FindRefreshToken(ctx, security.HashToken(refreshToken))
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find refresh token: %w", err)
	}
	if err := s.accounts.DeactivateRefreshToken(ctx, stored.ID); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("deactivate refresh token: %w", err)
	}
	return nil
}

func (s *authService) Me(ctx context.Context, username string) (*UserInfo, error) {
	acct, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return nil, mapNotFound(err, notFound("ACCOUNT_NOT_FOUND", "account not found"))
	}
	perms, err := s.permissionsOf(ctx, acct.RoleID)
	if err != nil {
		return nil, err
	}
	info := &UserInfo{
		ID:                 acct.ID,
		Username:           acct.Username,
		Email:              acct.Email,
		Status:             acct.Status,
		Roles:              []string{acct.RoleID},
		Permissions:        perms,
		MustChangePassword: acct.MustChangePassword,
	}
	emp, err := s.employees.FindByUsername(ctx, username)
	switch {
	case err == nil:
		info.Employee = emp
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("load employee profile: %w", err)
	}
	return info, nil
}

func (s *authService) ChangePassword(ctx context.Context, username string, req ChangePasswordRequest) error {
	if err := check(req); err != nil {
		return err
	}
	acct, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return mapNotFound(err, notFound("ACCOUNT_NOT_FOUND", "account not found"))
	}
	if !security.CheckPassword(acct.Password, req.OldPassword) {
		return invalid("WRONG_PASSWORD", "current password is incorrect")
	}
	if req.OldPassword == req.NewPassword {
		return invalid("PASSWORD_UNCHANGED", "new password must differ from the current one")
	}
	hash, err := security.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.accounts.UpdatePassword(ctx, acct.ID, hash, false); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return s.accounts.DeactivateAllRefreshTokens(ctx, acct.ID)
}
