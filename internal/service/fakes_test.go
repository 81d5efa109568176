package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/queue"
	"github.com/iliyamo/gym-management/internal/repository"
)

// fakeAccounts is an in-memory AccountStore with the same unique-key and
// not-found behaviour as the MySQL repository.
type fakeAccounts struct {
	mu      sync.Mutex
	nextID  uint64
	rows    map[uint64]*model.Account
	links   map[uint64]map[uint64]bool
	roles   *fakeRoles
	updates int
}

func newFakeAccounts(roles *fakeRoles) *fakeAccounts {
	return &fakeAccounts{rows: map[uint64]*model.Account{}, links: map[uint64]map[uint64]bool{}, roles: roles}
}

func (f *fakeAccounts) clash(selfID uint64, email, username string) error {
	for _, a := range f.rows {
		if a.ID == selfID {
			continue
		}
		if a.Email == email {
			return &repository.DuplicateKeyError{Field: "email"}
		}
		if a.Username == username {
			return &repository.DuplicateKeyError{Field: "username"}
		}
	}
	return nil
}

func (f *fakeAccounts) Create(_ context.Context, a *model.Account, roleIDs []uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.clash(0, a.Email, a.Username); err != nil {
		return err
	}
	f.nextID++
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a.ID, a.CreatedAt, a.UpdatedAt = f.nextID, now, now
	cp := *a
	cp.Roles = nil
	f.rows[a.ID] = &cp
	f.links[a.ID] = map[uint64]bool{}
	for _, id := range roleIDs {
		f.links[a.ID][id] = true
	}
	return nil
}

func (f *fakeAccounts) get(match func(*model.Account) bool) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.rows {
		if match(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

func (f *fakeAccounts) GetByID(_ context.Context, id uint64) (*model.Account, error) {
	return f.get(func(a *model.Account) bool { return a.ID == id })
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	return f.get(func(a *model.Account) bool { return a.Email == email })
}

func (f *fakeAccounts) GetByUsername(_ context.Context, username string) (*model.Account, error) {
	return f.get(func(a *model.Account) bool { return a.Username == username })
}

func (f *fakeAccounts) List(context.Context) ([]*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.Account, 0, len(f.rows))
	for _, a := range f.rows {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAccounts) Update(_ context.Context, id uint64, ch *repository.Changes) error {
	if ch.Empty() {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	a, ok := f.rows[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	next := *a
	for _, col := range ch.Columns() {
		v, _ := ch.Value(col)
		s, _ := v.(string)
		switch col {
		case "first_name":
			next.FirstName = s
		case "last_name":
			next.LastName = s
		case "email":
			next.Email = s
		case "username":
			next.Username = s
		case "password_hash":
			next.PasswordHash = s
		default:
			return errors.New("column not updatable: " + col)
		}
	}
	if err := f.clash(id, next.Email, next.Username); err != nil {
		return err
	}
	next.UpdatedAt = next.UpdatedAt.Add(time.Second)
	f.rows[id] = &next
	return nil
}

func (f *fakeAccounts) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return repository.ErrAccountNotFound
	}
	delete(f.rows, id)
	delete(f.links, id)
	return nil
}

func (f *fakeAccounts) AddRole(_ context.Context, accountID, roleID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[accountID]; !ok {
		return errors.New("foreign key violation")
	}
	f.links[accountID][roleID] = true
	return nil
}

func (f *fakeAccounts) RemoveRole(_ context.Context, accountID, roleID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.links[accountID], roleID)
	return nil
}

func (f *fakeAccounts) ListRoles(_ context.Context, accountID uint64) ([]model.Role, error) {
	f.mu.Lock()
	ids := make([]uint64, 0, len(f.links[accountID]))
	for id := range f.links[accountID] {
		ids = append(ids, id)
	}
	f.mu.Unlock()

	out := make([]model.Role, 0, len(ids))
	for _, id := range ids {
		r, err := f.roles.GetByID(context.Background(), id)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeAccounts) HasRole(_ context.Context, accountID, roleID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.links[accountID][roleID], nil
}

func (f *fakeAccounts) ReplaceRoles(_ context.Context, accountID uint64, roleIDs []uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[accountID]; !ok {
		return repository.ErrAccountNotFound
	}
	set := map[uint64]bool{}
	for _, id := range roleIDs {
		set[id] = true
	}
	f.links[accountID] = set
	return nil
}

func (f *fakeAccounts) linkCount(accountID uint64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.links[accountID])
}

// fakeRoles is an in-memory RoleStore.  When bothMissed is set, Create
// blocks until waitFor lookups have missed, which forces concurrent
// find-or-create callers to race on the insert.
type fakeRoles struct {
	mu      sync.Mutex
	nextID  uint64
	rows    []model.Role
	creates int

	misses     int
	waitFor    int
	bothMissed chan struct{}
}

func (f *fakeRoles) Create(_ context.Context, name string) (*model.Role, error) {
	if f.bothMissed != nil {
		<-f.bothMissed
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.Name == name {
			return nil, &repository.DuplicateKeyError{Field: "name"}
		}
	}
	f.nextID++
	f.creates++
	r := model.Role{ID: f.nextID, Name: name}
	f.rows = append(f.rows, r)
	return &r, nil
}

func (f *fakeRoles) GetByName(_ context.Context, name string) (*model.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.Name == name {
			cp := r
			return &cp, nil
		}
	}
	f.misses++
	if f.bothMissed != nil && f.misses == f.waitFor {
		close(f.bothMissed)
	}
	return nil, repository.ErrRoleNotFound
}

func (f *fakeRoles) GetByID(_ context.Context, id uint64) (*model.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, repository.ErrRoleNotFound
}

func (f *fakeRoles) List(context.Context) ([]model.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Role(nil), f.rows...), nil
}

func (f *fakeRoles) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.rows {
		if r.Name == name {
			n++
		}
	}
	return n
}

// fakeMembers is an in-memory MemberStore.
type fakeMembers struct {
	mu      sync.Mutex
	nextID  uint64
	rows    map[uint64]*model.Member
	updates int
}

func newFakeMembers() *fakeMembers { return &fakeMembers{rows: map[uint64]*model.Member{}} }

func (f *fakeMembers) Create(_ context.Context, m *model.Member) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.rows {
		if o.Email == m.Email {
			return &repository.DuplicateKeyError{Field: "email"}
		}
	}
	f.nextID++
	m.ID = f.nextID
	cp := *m
	f.rows[m.ID] = &cp
	return nil
}

func (f *fakeMembers) GetByID(_ context.Context, id uint64) (*model.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrMemberNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMembers) GetByEmail(_ context.Context, email string) (*model.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.rows {
		if m.Email == email {
			cp := *m
			return &cp, nil
		}
	}
	return nil, repository.ErrMemberNotFound
}

func (f *fakeMembers) List(context.Context) ([]*model.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.Member, 0, len(f.rows))
	for _, m := range f.rows {
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMembers) Update(_ context.Context, id uint64, ch *repository.Changes) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	m, ok := f.rows[id]
	if !ok {
		return repository.ErrMemberNotFound
	}
	next := *m
	for _, col := range ch.Columns() {
		v, _ := ch.Value(col)
		switch col {
		case "first_name":
			next.FirstName = v.(string)
		case "last_name":
			next.LastName = v.(string)
		case "email":
			next.Email = v.(string)
		case "phone":
			next.Phone = v.(string)
		case "membership_type":
			next.MembershipType = model.MembershipTier(v.(string))
		case "status":
			next.Status = model.MemberStatus(v.(string))
		case "start_date":
			next.StartDate = v.(time.Time)
		case "end_date":
			next.EndDate = v.(time.Time)
		default:
			return errors.New("column not updatable: " + col)
		}
	}
	f.rows[id] = &next
	return nil
}

func (f *fakeMembers) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return repository.ErrMemberNotFound
	}
	delete(f.rows, id)
	return nil
}

// recorder captures published events; err, when set, is returned from
// every Publish call.
type recorder struct {
	mu     sync.Mutex
	events []queue.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, ev queue.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}
