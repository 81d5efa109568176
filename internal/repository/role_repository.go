package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/gym-management/internal/model"
)

// RoleRepo encapsulates queries on the roles table.  Vocabulary checks live
// in the service layer; the unique index on roles.name is the final arbiter
// for concurrent inserts.
type RoleRepo struct {
	db *sql.DB
}

// NewRoleRepo constructs a RoleRepo with the given DB handle.
func NewRoleRepo(db *sql.DB) *RoleRepo {
	return &RoleRepo{db: db}
}

// Create inserts a role.  A concurrent insert of the same name yields
// *DuplicateKeyError{Field: "name"}.
func (r *RoleRepo) Create(ctx context.Context, name string) (*model.Role, error) {
	res, err := r.db.ExecContext(ctx, "INSERT INTO roles (name) VALUES (?)", name)
	if err != nil {
		return nil, translateDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByName fetches a role by exact (case-sensitive) name.
func (r *RoleRepo) GetByName(ctx context.Context, name string) (*model.Role, error) {
	// BINARY keeps the comparison case-sensitive under a *_ci collation.
	return r.getOne(ctx, "SELECT id, name, created_at, updated_at FROM roles WHERE name = BINARY ? LIMIT 1", name)
}

// GetByID fetches a role by id.
func (r *RoleRepo) GetByID(ctx context.Context, id uint64) (*model.Role, error) {
	return r.getOne(ctx, "SELECT id, name, created_at, updated_at FROM roles WHERE id = ? LIMIT 1", id)
}

func (r *RoleRepo) getOne(ctx context.Context, q string, arg any) (*model.Role, error) {
	var role model.Role
	if err := r.db.QueryRowContext(ctx, q, arg).Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

// List returns all roles ordered by name.
func (r *RoleRepo) List(ctx context.Context) ([]model.Role, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, created_at, updated_at FROM roles ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Role{}
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}
