package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/authgate/authgate/internal/auth/entity"
)

const createUserSQL = `
INSERT INTO auth_users (
	id, email, password, first_name, last_name, username, gender,
	two_fa_enabled, two_fa_method, two_fa_email, two_fa_phone,
	two_fa_country_code, two_fa_app_name, two_fa_seed
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

func (s *DB) CreateUser(ctx context.Context, in entity.NewUser) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, createUserSQL,
		in.ID,
		in.Email,
		in.PasswordHash,
		in.FirstName,
		in.LastName,
		in.Username,
		in.Gender,
		in.SecondFactor.Enabled,
		in.SecondFactor.Method,
		in.SecondFactor.Email,
		in.SecondFactor.Phone,
		in.SecondFactor.CountryCode,
		in.SecondFactor.AppName,
		in.SecondFactor.Seed,
	)
	err = s.mapError(err)
	return err
}

const getUserSQL = `
SELECT id, email, password, first_name, last_name, username, gender,
	two_fa_enabled, two_fa_method, two_fa_email, two_fa_phone,
	two_fa_country_code, two_fa_app_name, two_fa_seed,
	created_at, updated_at
FROM auth_users `

func (s *DB) GetUserByEmail(ctx context.Context, email string) (user *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, getUserSQL+"WHERE email = $1", email)
	user, err = s.scanUser(row)
	return user, err
}

func (s *DB) GetUserByID(ctx context.Context, id int64) (user *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, getUserSQL+"WHERE id = $1", id)
	user, err = s.scanUser(row)
	return user, err
}

func (s *DB) scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Password,
		&u.FirstName,
		&u.LastName,
		&u.Username,
		&u.Gender,
		&u.SecondFactor.Enabled,
		&u.SecondFactor.Method,
		&u.SecondFactor.Email,
		&u.SecondFactor.Phone,
		&u.SecondFactor.CountryCode,
		&u.SecondFactor.AppName,
		&u.SecondFactor.Seed,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &u, nil
}
