package model

import (
	"strings"
	"time"
)

// MembershipTier is the commercial level of a gym membership.
type MembershipTier string

const (
	TierStandard MembershipTier = "STANDARD"
	TierPremium  MembershipTier = "PREMIUM"
	TierVIP      MembershipTier = "VIP"
)

// MemberStatus is the lifecycle state of a membership.
type MemberStatus string

const (
	StatusActive    MemberStatus = "ACTIVE"
	StatusInactive  MemberStatus = "INACTIVE"
	StatusSuspended MemberStatus = "SUSPENDED"
)

// ParseTier normalises s and reports whether it names a known tier.
func ParseTier(s string) (MembershipTier, bool) {
	t := MembershipTier(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case TierStandard, TierPremium, TierVIP:
		return t, true
	}
	return "", false
}

// ParseStatus normalises s and reports whether it names a known status.
func ParseStatus(s string) (MemberStatus, bool) {
	st := MemberStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusActive, StatusInactive, StatusSuspended:
		return st, true
	}
	return "", false
}

// Member mirrors the `members` table.  EndDate is always after StartDate.
type Member struct {
	ID             uint64         `json:"id"`             // members.id
	FirstName      string         `json:"firstName"`      // members.first_name
	LastName       string         `json:"lastName"`       // members.last_name
	Email          string         `json:"email"`          // members.email
	Phone          string         `json:"phone"`          // members.phone
	MembershipType MembershipTier `json:"membershipType"` // members.membership_type
	StartDate      time.Time      `json:"startDate"`      // members.start_date
	EndDate        time.Time      `json:"endDate"`        // members.end_date
	Status         MemberStatus   `json:"status"`         // members.status
	CreatedAt      time.Time      `json:"createdAt"`      // members.created_at
	UpdatedAt      time.Time      `json:"updatedAt"`      // members.updated_at
}

// AddMonths adds n calendar months to t.  When the source day does not exist
// in the target month the result is clamped to that month's last day, so
// Jan 31 + 1 month is Feb 28 (or 29), never Mar 3.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
