package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/gym-management/internal/model"
)

const memberColumns = `id, first_name, last_name, email, phone, membership_type,
	start_date, end_date, status, created_at, updated_at`

// memberUpdatable whitelists the columns Update may touch.
var memberUpdatable = map[string]bool{
	"first_name":      true,
	"last_name":       true,
	"email":           true,
	"phone":           true,
	"membership_type": true,
	"start_date":      true,
	"end_date":        true,
	"status":          true,
}

// MemberRepo encapsulates all queries on the members table.
type MemberRepo struct {
	db *sql.DB
}

// NewMemberRepo constructs a MemberRepo with the given DB handle.
func NewMemberRepo(db *sql.DB) *MemberRepo {
	return &MemberRepo{db: db}
}

func scanMember(s rowScanner) (*model.Member, error) {
	var m model.Member
	if err := s.Scan(&m.ID, &m.FirstName, &m.LastName, &m.Email, &m.Phone, &m.MembershipType,
		&m.StartDate, &m.EndDate, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts m and refreshes it from the stored row.
func (r *MemberRepo) Create(ctx context.Context, m *model.Member) error {
	const qInsert = `INSERT INTO members (first_name, last_name, email, phone, membership_type, start_date, end_date, status)
	                 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert,
		m.FirstName, m.LastName, m.Email, m.Phone, string(m.MembershipType),
		m.StartDate.UTC(), m.EndDate.UTC(), string(m.Status))
	if err != nil {
		return translateDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*m = *created
	return nil
}

// GetByID fetches a member by id.
func (r *MemberRepo) GetByID(ctx context.Context, id uint64) (*model.Member, error) {
	return r.getOne(ctx, "SELECT "+memberColumns+" FROM members WHERE id = ? LIMIT 1", id)
}

// GetByEmail fetches a member by exact email.
func (r *MemberRepo) GetByEmail(ctx context.Context, email string) (*model.Member, error) {
	return r.getOne(ctx, "SELECT "+memberColumns+" FROM members WHERE email = ? LIMIT 1", email)
}

func (r *MemberRepo) getOne(ctx context.Context, q string, arg any) (*model.Member, error) {
	m, err := scanMember(r.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return m, nil
}

// List returns all members ordered by id.
func (r *MemberRepo) List(ctx context.Context) ([]*model.Member, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+memberColumns+" FROM members ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Update applies ch to the member.  Returns ErrMemberNotFound when no row matches.
func (r *MemberRepo) Update(ctx context.Context, id uint64, ch *Changes) error {
	if ch.Empty() {
		return nil
	}
	set, args, err := ch.clause(memberUpdatable)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "UPDATE members SET "+set+" WHERE id = ?", append(args, id)...)
	if err != nil {
		return translateDuplicate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// Delete removes the member.
func (r *MemberRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM members WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMemberNotFound
	}
	return nil
}
