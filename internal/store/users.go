package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/toir/internal/model"
)

const userColumns = `id, username, password_hash, full_name, role, created_at, deleted_at`

func scanUser(s rowScanner) (*model.User, error) {
	u := &model.User{}
	var fullName sql.NullString
	if err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &fullName, &u.Role, &u.CreatedAt, &u.DeletedAt); err != nil {
		return nil, err
	}
	u.FullName = fullName.String
	return u, nil
}

// CreateUser creates a new user. Usernames are unique among active users.
func CreateUser(ctx context.Context, db *sql.DB, username, passwordHash, fullName, role string) (*model.User, error) {
	var id int64
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		var taken int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM users WHERE username = ? AND deleted_at IS NULL`, username,
		).Scan(&taken)
		if err != nil {
			return fmt.Errorf("checking username: %w", err)
		}
		if taken > 0 {
			return model.Conflictf("username already exists")
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO users (username, password_hash, full_name, role, created_at) VALUES (?, ?, ?, ?, ?)`,
			username, passwordHash, nullString(fullName), role, nowUTC(),
		)
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}

		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting user id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByUsername returns the active user with the given username.
func GetUserByUsername(ctx context.Context, db *sql.DB, username string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? AND deleted_at IS NULL`, username))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, db *sql.DB) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUser updates a user's role and full name.
func UpdateUser(ctx context.Context, db *sql.DB, id int64, role, fullName string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE users SET role = ?, full_name = ? WHERE id = ? AND deleted_at IS NULL`,
		role, nullString(fullName), id,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return expectOne(res, "user not found")
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return expectOne(res, "user not found")
}

// DeleteUser soft-deletes a user.
func DeleteUser(ctx context.Context, db *sql.DB, id int64) error {
	res, err := db.ExecContext(ctx,
		`UPDATE users SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		nowUTC(), id,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return expectOne(res, "user not found")
}

// CountUsers returns the number of active users.
func CountUsers(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}
