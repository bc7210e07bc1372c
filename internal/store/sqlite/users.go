package sqlite

import (
	"context"
	"fmt"

	"github.com/yamdb/yamdb-server/internal/domain"
	"github.com/yamdb/yamdb-server/internal/store"
)

// userColumns is the ordered list of columns selected in user queries.
// Must match the scan order in scanUser.
const userColumns = `id, username, email, first_name, last_name, bio, role, is_superuser,
	confirmation_code, date_joined`

func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u           domain.User
		role        string
		isSuperuser int
		dateJoined  string
	)
	err := scanner.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Bio,
		&role, &isSuperuser, &u.ConfirmationCode, &dateJoined)
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.IsSuperuser = isSuperuser != 0
	if u.DateJoined, err = parseTime(dateJoined); err != nil {
		return nil, fmt.Errorf("parse date_joined: %w", err)
	}
	return &u, nil
}

// CreateUser inserts a user and sets its ID and DateJoined.
// Returns store.ErrAlreadyExists with Field "username" or "email" on collisions.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	if u.DateJoined.IsZero() {
		u.DateJoined = s.now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, email, first_name, last_name, bio, role, is_superuser,
			confirmation_code, date_joined)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.FirstName, u.LastName, u.Bio, string(u.Role), boolToInt(u.IsSuperuser),
		u.ConfirmationCode, formatTime(u.DateJoined))
	if err != nil {
		return mapError(err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

// GetUser returns the user with the given ID.
func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.getUserWhere(ctx, `id = ?`, id)
}

// GetUserByUsername returns the user with the given username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.getUserWhere(ctx, `username = ?`, username)
}

// GetUserByEmail returns the user with the given email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUserWhere(ctx, `email = ?`, email)
}

func (s *Store) getUserWhere(ctx context.Context, cond string, arg any) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+cond, arg))
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

// ListUsers returns users ordered by username, optionally filtered by a username substring.
func (s *Store) ListUsers(ctx context.Context, search string, page store.Page) (store.Result[domain.User], error) {
	where := ""
	var args []any
	if search != "" {
		where = ` WHERE lower(username) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(search))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return store.Result[domain.User]{}, fmt.Errorf("count users: %w", err)
	}

	limit, limitArgs := limitClause(page)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users`+where+` ORDER BY username, id`+limit, append(args, limitArgs...)...)
	if err != nil {
		return store.Result[domain.User]{}, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	items := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return store.Result[domain.User]{}, fmt.Errorf("scan user: %w", err)
		}
		items = append(items, *u)
	}
	return store.Result[domain.User]{Items: items, Total: total}, rows.Err()
}

// UpdateUser overwrites the profile fields, role and superuser flag.
// The confirmation code is only changed through SetConfirmationCode.
func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET username = ?, email = ?, first_name = ?, last_name = ?, bio = ?,
			role = ?, is_superuser = ?
		WHERE id = ?`,
		u.Username, u.Email, u.FirstName, u.LastName, u.Bio, string(u.Role), boolToInt(u.IsSuperuser), u.ID)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteUser removes a user together with their reviews and comments.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SetConfirmationCode stores the most recently issued confirmation code.
func (s *Store) SetConfirmationCode(ctx context.Context, userID int64, code string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET confirmation_code = ? WHERE id = ?`, code, userID)
	if err != nil {
		return fmt.Errorf("set confirmation code: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}
