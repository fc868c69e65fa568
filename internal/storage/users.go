package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"ledger/internal/core"
)

// UserStore persists user accounts. Credentials are stored hashed; hashing
// itself happens in the user service, never here.
type UserStore struct {
	db *DB
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a new user and returns the assigned id. Usernames are
// unique; a duplicate surfaces as a store failure.
func (s *UserStore) Create(ctx context.Context, u *core.User) (int64, error) {
	const op = "create user"

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.Role == "" {
		u.Role = core.RoleStaff
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, ?)",
		u.Username, u.PasswordHash, string(u.Role), u.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return 0, s.fail(ctx, op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, s.fail(ctx, op, err)
	}
	u.ID = id

	slog.InfoContext(ctx, "user created", "id", id, "username", u.Username, "role", u.Role)
	return id, nil
}

// GetByUsername returns the user with the given username, or nil when no
// such user exists.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*core.User, error) {
	const op = "get user"

	row := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, role, created_at FROM users WHERE username = ?",
		username)

	var (
		u         core.User
		role      string
		createdAt string
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	u.Role = core.Role(role)
	if u.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	return &u, nil
}

// List returns all users ordered by username. Password hashes are not
// included; nothing outside id/username/role ever leaves this method.
func (s *UserStore) List(ctx context.Context) ([]core.User, error) {
	const op = "list users"

	rows, err := s.db.QueryContext(ctx, "SELECT id, username, role FROM users ORDER BY username")
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	defer rows.Close()

	users := make([]core.User, 0)
	for rows.Next() {
		var (
			u    core.User
			role string
		)
		if err := rows.Scan(&u.ID, &u.Username, &role); err != nil {
			return nil, s.fail(ctx, op, err)
		}
		u.Role = core.Role(role)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	return users, nil
}

func (s *UserStore) fail(ctx context.Context, op string, err error) error {
	slog.ErrorContext(ctx, "store operation failed", "operation", op, "error", err)
	return storeErr(op, err)
}
