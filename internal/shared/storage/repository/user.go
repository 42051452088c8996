package repository

import (
	"context"
	"database/sql"
	"time"

	"recipe-admin/internal/shared/model"
)

// CreateUser 创建用户
func (r *Store) CreateUser(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx, r.rebind(
		`INSERT INTO users (id, email, first_name, last_name, password_hash, role, active, avatar_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`),
		user.ID, user.Email, user.FirstName, user.LastName, user.PasswordHash,
		user.Role, user.Active, user.AvatarURL, user.CreatedAt, user.UpdatedAt,
	)
	return r.wrapWriteErr(err)
}

const userColumns = `id, email, first_name, last_name, password_hash, role, active, avatar_url, otp, otp_expires_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash,
		&u.Role, &u.Active, &u.AvatarURL, &u.OTP, &u.OTPExpiresAt, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByEmail 通过邮箱查找用户，不存在返回 (nil, nil)
func (r *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, r.rebind(
		`SELECT `+userColumns+` FROM users WHERE email = $1`), email))
}

// GetUserByID 通过 ID 查找用户，不存在返回 (nil, nil)
func (r *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, r.rebind(
		`SELECT `+userColumns+` FROM users WHERE id = $1`), id))
}

// UpdateUserProfile 更新用户资料字段
func (r *Store) UpdateUserProfile(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx, r.rebind(
		`UPDATE users SET first_name = $1, last_name = $2, email = $3, avatar_url = $4, updated_at = $5
		 WHERE id = $6`),
		user.FirstName, user.LastName, user.Email, user.AvatarURL, time.Now().UTC(), user.ID,
	)
	return r.wrapWriteErr(err)
}

// UpdateUserPassword 更新用户密码
func (r *Store) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, r.rebind(
		`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`),
		passwordHash, time.Now().UTC(), id,
	)
	return err
}

// SetUserOTP 设置或清除一次性验证码，同一时刻仅保留一个挑战
func (r *Store) SetUserOTP(ctx context.Context, id string, otp *string, expiresAt *time.Time) error {
	_, err := r.db.ExecContext(ctx, r.rebind(
		`UPDATE users SET otp = $1, otp_expires_at = $2, updated_at = $3 WHERE id = $4`),
		otp, expiresAt, time.Now().UTC(), id,
	)
	return err
}

// ListUsers 列出所有用户
func (r *Store) ListUsers(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
