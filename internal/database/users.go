package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"realestate-backend/internal/models"
)

const userColumns = "id, username, password, role, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	var role string
	err := row.Scan(&u.ID, &u.UserName, &u.Password, &role, &u.CreatedAt, &u.UpdatedAt)
	u.Role = models.Role(role)
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, username string, passwordHash []byte, role models.Role) (models.User, error) {
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return models.User{}, fmt.Errorf("invalid role %q", role)
	}

	// checked up front for a clean error, the unique constraint still covers races
	_, err := s.FindUserByUsername(ctx, username)
	if err == nil {
		return models.User{}, ErrUserExists
	} else if !errors.Is(err, ErrNotFound) {
		return models.User{}, err
	}

	userID, err := s.ids.Generate()
	if err != nil {
		return models.User{}, err
	}

	now := s.now().UnixMilli()
	user := models.User{
		ID:        userID,
		UserName:  username,
		Password:  passwordHash,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.ExecContext(ctx, "INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		user.ID, user.UserName, user.Password, string(user.Role), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrUserExists
		}
		return models.User{}, fmt.Errorf("inserting user: %w", err)
	}

	return user, nil
}

func (s *Store) FindUserByID(ctx context.Context, id int64) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	} else if err != nil {
		return models.User{}, fmt.Errorf("finding user %d: %w", id, err)
	}
	return user, nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", username)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	} else if err != nil {
		return models.User{}, fmt.Errorf("finding user %q: %w", username, err)
	}
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) SetUserRole(ctx context.Context, id int64, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", role)
	}

	result, err := s.db.ExecContext(ctx, "UPDATE users SET role = ?, updated_at = ? WHERE id = ?",
		string(role), s.now().UnixMilli(), id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// DeleteUser removes the user, their messages and listings go with it.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}
