package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/gym-management/internal/model"
)

const accountColumns = "id, first_name, last_name, email, username, password_hash, created_at, updated_at"

// accountUpdatable whitelists the columns Update may touch.
var accountUpdatable = map[string]bool{
	"first_name":    true,
	"last_name":     true,
	"email":         true,
	"username":      true,
	"password_hash": true,
}

// AccountRepo persists accounts and their role links.  It never hashes
// anything: PasswordHash arrives already hashed from the service layer.
type AccountRepo struct {
	db *sql.DB // db is the shared connection pool
}

// NewAccountRepo constructs an AccountRepo with the given DB handle.
func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(s rowScanner) (*model.Account, error) {
	var a model.Account
	if err := s.Scan(&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.Username, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts the account and links it to roleIDs in one transaction.
// On success a.ID and the timestamps are populated.  A unique violation on
// email or username is returned as *DuplicateKeyError.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account, roleIDs []uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const qInsert = `INSERT INTO accounts (first_name, last_name, email, username, password_hash)
	                 VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, qInsert, a.FirstName, a.LastName, a.Email, a.Username, a.PasswordHash)
	if err != nil {
		return translateDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	for _, roleID := range roleIDs {
		if err := linkRole(ctx, tx, uint64(id), roleID); err != nil {
			return err
		}
	}

	// Read back so created_at/updated_at carry the server values.
	created, err := scanAccount(tx.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id = ?", id))
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	created.Roles = a.Roles
	*a = *created
	return nil
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (*model.Account, error) {
	return r.getOne(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id = ? LIMIT 1", id)
}

// GetByEmail fetches an account by exact email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.getOne(ctx, "SELECT "+accountColumns+" FROM accounts WHERE email = ? LIMIT 1", email)
}

// GetByUsername fetches an account by exact username.
func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	return r.getOne(ctx, "SELECT "+accountColumns+" FROM accounts WHERE username = ? LIMIT 1", username)
}

func (r *AccountRepo) getOne(ctx context.Context, q string, arg any) (*model.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return a, nil
}

// List returns all accounts ordered by id.
func (r *AccountRepo) List(ctx context.Context) ([]*model.Account, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+accountColumns+" FROM accounts ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Update applies ch to the account.  Only whitelisted columns are accepted.
// An empty change set is a no-op.  Returns ErrAccountNotFound when no row
// matches (the DSN sets clientFoundRows, so unchanged rows still count).
func (r *AccountRepo) Update(ctx context.Context, id uint64, ch *Changes) error {
	if ch.Empty() {
		return nil
	}
	set, args, err := ch.clause(accountUpdatable)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "UPDATE accounts SET "+set+" WHERE id = ?", append(args, id)...)
	if err != nil {
		return translateDuplicate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Delete removes the account; account_roles rows go with it (ON DELETE CASCADE).
func (r *AccountRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// ---- role links ----

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// linkRole inserts the (account, role) pair; an existing pair is left alone.
// ON DUPLICATE KEY is used instead of INSERT IGNORE so foreign-key errors
// still surface.
func linkRole(ctx context.Context, ex execer, accountID, roleID uint64) error {
	const q = `INSERT INTO account_roles (account_id, role_id) VALUES (?, ?)
	           ON DUPLICATE KEY UPDATE role_id = role_id`
	_, err := ex.ExecContext(ctx, q, accountID, roleID)
	return err
}

// AddRole links one role to the account.  Idempotent.
func (r *AccountRepo) AddRole(ctx context.Context, accountID, roleID uint64) error {
	return linkRole(ctx, r.db, accountID, roleID)
}

// RemoveRole unlinks one role.  Removing a link that does not exist is not an error.
func (r *AccountRepo) RemoveRole(ctx context.Context, accountID, roleID uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM account_roles WHERE account_id = ? AND role_id = ?", accountID, roleID)
	return err
}

// ListRoles returns the roles linked to the account ordered by name.
func (r *AccountRepo) ListRoles(ctx context.Context, accountID uint64) ([]model.Role, error) {
	const q = `SELECT r.id, r.name, r.created_at, r.updated_at
	           FROM roles r
	           JOIN account_roles ar ON ar.role_id = r.id
	           WHERE ar.account_id = ?
	           ORDER BY r.name`
	rows, err := r.db.QueryContext(ctx, q, accountID)
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

// HasRole reports whether the (account, role) link exists.
func (r *AccountRepo) HasRole(ctx context.Context, accountID, roleID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM account_roles WHERE account_id = ? AND role_id = ? LIMIT 1",
		accountID, roleID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ReplaceRoles makes roleIDs the complete role set of the account inside a
// transaction.  The account row is locked first so concurrent replacements
// serialise instead of interleaving.
func (r *AccountRepo) ReplaceRoles(ctx context.Context, accountID uint64, roleIDs []uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var locked uint64
	if err := tx.QueryRowContext(ctx, "SELECT id FROM accounts WHERE id = ? FOR UPDATE", accountID).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAccountNotFound
		}
		return err
	}

	q := "DELETE FROM account_roles WHERE account_id = ?"
	args := []any{accountID}
	if len(roleIDs) > 0 {
		q += " AND role_id NOT IN (" + placeholders(len(roleIDs)) + ")"
		for _, id := range roleIDs {
			args = append(args, id)
		}
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return err
	}
	for _, roleID := range roleIDs {
		if err := linkRole(ctx, tx, accountID, roleID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// placeholders returns "?, ?, ?" with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
