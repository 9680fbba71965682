package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/radityabs/huddle-backend/internal/domain/entity"
	"github.com/radityabs/huddle-backend/internal/domain/repository"
)

// uniqueViolation is the Postgres error code for unique constraint failures.
const uniqueViolation = "23505"

const userColumns = `
	id, email, full_name, dob,
	COALESCE(username, ''), COALESCE(password_hash, ''), COALESCE(bio, ''), COALESCE(avatar_url, ''),
	is_verified, COALESCE(email_verify_token, ''), COALESCE(email_verify_token_expiry, 'epoch'::timestamptz),
	COALESCE(twofa_secret, ''), twofa_enabled, COALESCE(refresh_token, ''),
	created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, full_name, dob, is_verified)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, u.Email, u.FullName, u.DOB, u.IsVerified)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapWriteErr(err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (*entity.User, error) {
	u := &entity.User{}
	var expiry time.Time

	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value)
	if err := row.Scan(
		&u.ID, &u.Email, &u.FullName, &u.DOB,
		&u.Username, &u.PasswordHash, &u.Bio, &u.AvatarURL,
		&u.IsVerified, &u.EmailVerifyToken, &expiry,
		&u.TwoFactorSecret, &u.TwoFactorEnabled, &u.RefreshToken,
		&u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	// 'epoch' sentinel means no outstanding token
	if expiry.Unix() > 0 {
		u.EmailVerifyTokenExpiry = expiry
	}
	return u, nil
}

// Update persists the profile fields set during completion and later edits.
func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now()

	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET full_name = $1, username = NULLIF($2, ''), password_hash = NULLIF($3, ''),
		    bio = NULLIF($4, ''), avatar_url = NULLIF($5, ''), updated_at = $6
		WHERE id = $7
	`, u.FullName, u.Username, u.PasswordHash, u.Bio, u.AvatarURL, u.UpdatedAt, u.ID)
	if err != nil {
		return mapWriteErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateAuthState persists only the auxiliary auth columns, leaving profile
// data untouched. Used by flows that must not re-validate profile fields.
func (r *UserRepository) UpdateAuthState(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now()

	var expiry *time.Time
	if !u.EmailVerifyTokenExpiry.IsZero() {
		expiry = &u.EmailVerifyTokenExpiry
	}

	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET is_verified = $1, email_verify_token = NULLIF($2, ''), email_verify_token_expiry = $3,
		    twofa_secret = NULLIF($4, ''), twofa_enabled = $5, refresh_token = NULLIF($6, ''),
		    updated_at = $7
		WHERE id = $8
	`, u.IsVerified, u.EmailVerifyToken, expiry, u.TwoFactorSecret, u.TwoFactorEnabled, u.RefreshToken, u.UpdatedAt, u.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrDuplicate
	}
	return err
}

var _ repository.UserRepository = (*UserRepository)(nil)
