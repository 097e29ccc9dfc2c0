package mysql

import (
	"context"
	"database/sql"
	"errors"

	"dentalclinic/internal/model"
	"dentalclinic/internal/repository"
)

// AccountMySQL is a MySQL implementation of repository.AccountRepository.
type AccountMySQL struct {
	db *sql.DB
}

func NewAccountMySQL(db *sql.DB) *AccountMySQL {
	return &AccountMySQL{db: db}
}

var _ repository.AccountRepository = (*AccountMySQL)(nil)

const accountColumns = `account_id, account_code, username, password, email, status, must_change_password, role_id, created_at, updated_at`

func scanAccount(row scanner) (*model.Account, error) {
	var a model.Account
	if err := row.Scan(
		&a.ID,
		&a.Code,
		&a.Username,
		&a.Password,
		&a.Email,
		&a.Status,
		&a.MustChangePassword,
		&a.RoleID,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

// insertAccount writes a new account inside an existing transaction.
func insertAccount(ctx context.Context, q querier, a *model.Account) error {
	const stmt = `
		INSERT INTO accounts (account_id, account_code, username, password, email, status, must_change_password, role_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, stmt,
		a.ID,
		a.Code,
		a.Username,
		a.Password,
		a.Email,
		a.Status,
		a.MustChangePassword,
		a.RoleID,
	)
	return err
}

func (r *AccountMySQL) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = ?`, username)
	return scanAccount(row)
}

func (r *AccountMySQL) UsernameExists(ctx context.Context, username string) (bool, error) {
	return exists(ctx, r.db, `SELECT COUNT(*) FROM accounts WHERE username = ?`, username)
}

func (r *AccountMySQL) EmailExists(ctx context.Context, email string) (bool, error) {
	return exists(ctx, r.db, `SELECT COUNT(*) FROM accounts WHERE email = ?`, email)
}

func (r *AccountMySQL) RoleExists(ctx context.Context, roleID string) (bool, error) {
	return exists(ctx, r.db, `SELECT COUNT(*) FROM roles WHERE role_id = ?`, roleID)
}

func (r *AccountMySQL) RolePermissions(ctx context.Context, roleID string) ([]string, error) {
	const q = `
		SELECT permission_id
		FROM role_permissions
		WHERE role_id = ?
		ORDER BY permission_id
	`
	rows, err := r.db.QueryContext(ctx, q, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perms := make([]string, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (r *AccountMySQL) UpdatePassword(ctx context.Context, accountID, hash string, mustChange bool) error {
	const q = `UPDATE accounts SET password = ?, must_change_password = ? WHERE account_id = ?`
	res, err := r.db.ExecContext(ctx, q, hash, mustChange, accountID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *AccountMySQL) SaveRefreshToken(ctx context.Context, t *model.RefreshToken) error {
	const q = `
		INSERT INTO refresh_tokens (id, account_id, token_hash, expires_at, is_active)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, q, t.ID, t.AccountID, t.TokenHash, t.ExpiresAt, t.IsActive)
	return err
}

func (r *AccountMySQL) FindRefreshToken(ctx context.Context, hash string) (*model.RefreshToken, error) {
	const q = `
		SELECT id, account_id, token_hash, expires_at, is_active, created_at
		FROM refresh_tokens
		WHERE token_hash = ?
	`
	var t model.RefreshToken
	err := r.db.QueryRowContext(ctx, q, hash).Scan(
		&t.ID,
		&t.AccountID,
		&t.TokenHash,
		&t.ExpiresAt,
		&t.IsActive,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &t, nil
}

func (r *AccountMySQL) DeactivateRefreshToken(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE refresh_tokens SET is_active = 0 WHERE id = ? AND is_active = 1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *AccountMySQL) DeactivateAllRefreshTokens(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE refresh_tokens SET is_active = 0 WHERE account_id = ? AND is_active = 1`, accountID)
	return err
}
