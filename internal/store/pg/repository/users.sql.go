package repository

import (
	"context"
	"time"
)

const createUser = `
INSERT INTO users (id, username, first_name, last_name, email, address, phone_number, birth_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, username, first_name, last_name, email, address, phone_number, birth_date, created_at
`

type CreateUserParams struct {
	ID          string
	Username    string
	FirstName   string
	LastName    string
	Email       string
	Address     string
	PhoneNumber string
	BirthDate   time.Time
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.ID,
		arg.Username,
		arg.FirstName,
		arg.LastName,
		arg.Email,
		arg.Address,
		arg.PhoneNumber,
		arg.BirthDate,
	)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.FirstName,
		&i.LastName,
		&i.Email,
		&i.Address,
		&i.PhoneNumber,
		&i.BirthDate,
		&i.CreatedAt,
	)
	return i, err
}

const deleteUser = `
DELETE FROM users WHERE id = $1
`

func (q *Queries) DeleteUser(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteUser, id)
	return err
}

const getUserByEmail = `
SELECT id, username, first_name, last_name, email, address, phone_number, birth_date, created_at
FROM users
WHERE email = $1
LIMIT 1
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return q.getUser(ctx, getUserByEmail, email)
}

const getUserByUsername = `
SELECT id, username, first_name, last_name, email, address, phone_number, birth_date, created_at
FROM users
WHERE username = $1
LIMIT 1
`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return q.getUser(ctx, getUserByUsername, username)
}

func (q *Queries) getUser(ctx context.Context, query, arg string) (User, error) {
	row := q.db.QueryRowContext(ctx, query, arg)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.FirstName,
		&i.LastName,
		&i.Email,
		&i.Address,
		&i.PhoneNumber,
		&i.BirthDate,
		&i.CreatedAt,
	)
	return i, err
}

const userExistsByID = `
SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)
`

func (q *Queries) UserExistsByID(ctx context.Context, id string) (bool, error) {
	return q.exists(ctx, userExistsByID, id)
}

const userExistsByUsername = `
SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)
`

func (q *Queries) UserExistsByUsername(ctx context.Context, username string) (bool, error) {
	return q.exists(ctx, userExistsByUsername, username)
}

const userExistsByEmail = `
SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)
`

func (q *Queries) UserExistsByEmail(ctx context.Context, email string) (bool, error) {
	return q.exists(ctx, userExistsByEmail, email)
}

func (q *Queries) exists(ctx context.Context, query, arg string) (bool, error) {
	row := q.db.QueryRowContext(ctx, query, arg)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}
