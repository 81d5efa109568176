package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/queue"
	"github.com/iliyamo/gym-management/internal/repository"
)

// Dates are accepted as a plain day or a full timestamp.
const dateLayout = "2006-01-02"

// MaxRenewMonths bounds a single renewal so end_date stays well inside the
// DATETIME range.
const MaxRenewMonths = 120

func parseDate(field string, s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, *s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, invalidField(field, "must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")
	}
	t = t.UTC()
	return &t, nil
}

// CreateMemberInput is the payload for a new member.  Optional fields get
// defaults: tier STANDARD, status ACTIVE, start now, end one calendar month
// after start.
type CreateMemberInput struct {
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	MembershipType *string `json:"membershipType"`
	StartDate      *string `json:"startDate"`
	EndDate        *string `json:"endDate"`
	Status         *string `json:"status"`
}

// Validate checks required fields and formats.
func (in CreateMemberInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Email, validation.Required, validation.Length(3, 255), is.Email),
		validation.Field(&in.Phone, validation.Length(0, 30)),
	)
}

// UpdateMemberInput is a sparse member update; nil or blank fields are left
// untouched.
type UpdateMemberInput struct {
	FirstName      *string `json:"firstName"`
	LastName       *string `json:"lastName"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	MembershipType *string `json:"membershipType"`
	StartDate      *string `json:"startDate"`
	EndDate        *string `json:"endDate"`
	Status         *string `json:"status"`
}

// Validate checks the format of the fields that are present.
func (in UpdateMemberInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.FirstName, validation.Length(1, 100)),
		validation.Field(&in.LastName, validation.Length(1, 100)),
		validation.Field(&in.Email, validation.Length(3, 255), is.Email),
		validation.Field(&in.Phone, validation.Length(0, 30)),
	)
}

// MemberService applies membership rules on top of the member store.
type MemberService struct {
	members MemberStore
	events  emitter
	now     func() time.Time
}

// NewMemberService wires a MemberService.
func NewMemberService(members MemberStore, pub EventPublisher, log *zap.Logger) *MemberService {
	return &MemberService{
		members: members,
		events:  emitter{pub: pub, log: nopLogger(log)},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create validates in, applies defaults and stores the member.
func (s *MemberService) Create(ctx context.Context, in CreateMemberInput) (*model.Member, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if err := in.Validate(); err != nil {
		return nil, fromValidation(err)
	}

	m := &model.Member{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Phone:          in.Phone,
		MembershipType: model.TierStandard,
		Status:         model.StatusActive,
		StartDate:      s.now(),
	}
	if v := trimmed(in.MembershipType); v != nil {
		tier, ok := model.ParseTier(*v)
		if !ok {
			return nil, invalidField("membershipType", "must be one of STANDARD, PREMIUM, VIP")
		}
		m.MembershipType = tier
	}
	if v := trimmed(in.Status); v != nil {
		st, ok := model.ParseStatus(*v)
		if !ok {
			return nil, invalidField("status", "must be one of ACTIVE, INACTIVE, SUSPENDED")
		}
		m.Status = st
	}
	start, err := parseDate("startDate", trimmed(in.StartDate))
	if err != nil {
		return nil, err
	}
	if start != nil {
		m.StartDate = *start
	}
	end, err := parseDate("endDate", trimmed(in.EndDate))
	if err != nil {
		return nil, err
	}
	if end != nil {
		m.EndDate = *end
	} else {
		m.EndDate = model.AddMonths(m.StartDate, 1)
	}
	if !m.EndDate.After(m.StartDate) {
		return nil, invalidField("endDate", "must be after startDate")
	}

	if err := s.ensureUniqueEmail(ctx, 0, m.Email); err != nil {
		return nil, err
	}
	if err := s.members.Create(ctx, m); err != nil {
		return nil, storeErr(err, nil)
	}
	s.events.emit(ctx, queue.MemberCreated, "member", m.ID, map[string]string{
		"membershipType": string(m.MembershipType),
		"endDate":        m.EndDate.Format(dateLayout),
	})
	return m, nil
}

func (s *MemberService) ensureUniqueEmail(ctx context.Context, selfID uint64, email string) error {
	other, err := s.members.GetByEmail(ctx, email)
	switch {
	case err == nil && other.ID != selfID:
		return &DuplicateValueError{Field: "email"}
	case err != nil && !errors.Is(err, repository.ErrMemberNotFound):
		return storeErr(err, nil)
	}
	return nil
}

// Get returns one member.
func (s *MemberService) Get(ctx context.Context, id uint64) (*model.Member, error) {
	m, err := s.members.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, ErrMemberNotFound)
	}
	return m, nil
}

// List returns every member.
func (s *MemberService) List(ctx context.Context) ([]*model.Member, error) {
	ms, err := s.members.List(ctx)
	if err != nil {
		return nil, storeErr(err, nil)
	}
	return ms, nil
}

// Update applies the present fields of in.  The merged start and end dates
// must still satisfy end > start.  An update with nothing to apply returns
// the unchanged member.
func (s *MemberService) Update(ctx context.Context, id uint64, in UpdateMemberInput) (*model.Member, error) {
	in.FirstName = trimmed(in.FirstName)
	in.LastName = trimmed(in.LastName)
	in.Email = trimmed(in.Email)
	in.Phone = trimmed(in.Phone)
	if err := in.Validate(); err != nil {
		return nil, fromValidation(err)
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	ch := &repository.Changes{}
	ch.SetString("first_name", in.FirstName)
	ch.SetString("last_name", in.LastName)
	ch.SetString("phone", in.Phone)
	if in.Email != nil {
		if err := s.ensureUniqueEmail(ctx, id, *in.Email); err != nil {
			return nil, err
		}
		ch.SetString("email", in.Email)
	}
	if v := trimmed(in.MembershipType); v != nil {
		tier, ok := model.ParseTier(*v)
		if !ok {
			return nil, invalidField("membershipType", "must be one of STANDARD, PREMIUM, VIP")
		}
		ch.Set("membership_type", string(tier))
	}
	if v := trimmed(in.Status); v != nil {
		st, ok := model.ParseStatus(*v)
		if !ok {
			return nil, invalidField("status", "must be one of ACTIVE, INACTIVE, SUSPENDED")
		}
		ch.Set("status", string(st))
	}

	start, end := current.StartDate, current.EndDate
	newStart, err := parseDate("startDate", trimmed(in.StartDate))
	if err != nil {
		return nil, err
	}
	if ch.SetTime("start_date", newStart) {
		start = *newStart
	}
	newEnd, err := parseDate("endDate", trimmed(in.EndDate))
	if err != nil {
		return nil, err
	}
	if ch.SetTime("end_date", newEnd) {
		end = *newEnd
	}
	if !end.After(start) {
		return nil, invalidField("endDate", "must be after startDate")
	}

	if ch.Empty() {
		return current, nil
	}
	return s.apply(ctx, id, ch, queue.MemberUpdated, map[string]string{"fields": strings.Join(ch.Columns(), ",")})
}

// Renew extends the membership by months calendar months from its current
// end date and makes it ACTIVE whatever its previous status.
func (s *MemberService) Renew(ctx context.Context, id uint64, months int) (*model.Member, error) {
	if months < 1 || months > MaxRenewMonths {
		return nil, invalidField("months", fmt.Sprintf("must be between 1 and %d", MaxRenewMonths))
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ch := &repository.Changes{}
	ch.Set("end_date", model.AddMonths(current.EndDate, months).UTC())
	ch.Set("status", string(model.StatusActive))
	return s.apply(ctx, id, ch, queue.MemberRenewed, map[string]string{
		"months":          strconv.Itoa(months),
		"previousEndDate": current.EndDate.Format(dateLayout),
		"previousStatus":  string(current.Status),
	})
}

// Deactivate sets the status to INACTIVE and leaves the dates alone.
func (s *MemberService) Deactivate(ctx context.Context, id uint64) (*model.Member, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	ch := &repository.Changes{}
	ch.Set("status", string(model.StatusInactive))
	return s.apply(ctx, id, ch, queue.MemberDeactivated, nil)
}

func (s *MemberService) apply(ctx context.Context, id uint64, ch *repository.Changes, event string, data map[string]string) (*model.Member, error) {
	if err := s.members.Update(ctx, id, ch); err != nil {
		return nil, storeErr(err, ErrMemberNotFound)
	}
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.events.emit(ctx, event, "member", id, data)
	return m, nil
}

// Delete removes the member.
func (s *MemberService) Delete(ctx context.Context, id uint64) error {
	if err := s.members.Delete(ctx, id); err != nil {
		return storeErr(err, ErrMemberNotFound)
	}
	s.events.emit(ctx, queue.MemberDeleted, "member", id, nil)
	return nil
}
