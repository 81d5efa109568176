package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMonths(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 9, 30, 0, 0, time.UTC) }

	cases := []struct {
		name string
		in   time.Time
		n    int
		want time.Time
	}{
		{"plain", day(2025, time.January, 15), 2, day(2025, time.March, 15)},
		{"year rollover", day(2025, time.November, 10), 3, day(2026, time.February, 10)},
		{"clamp to february", day(2025, time.January, 31), 1, day(2025, time.February, 28)},
		{"clamp leap year", day(2024, time.January, 31), 1, day(2024, time.February, 29)},
		{"clamp thirty day month", day(2025, time.March, 31), 1, day(2025, time.April, 30)},
		{"twelve months", day(2025, time.June, 1), 12, day(2026, time.June, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AddMonths(tc.in, tc.n))
		})
	}
}

func TestParseTierAndStatus(t *testing.T) {
	tier, ok := ParseTier(" premium ")
	assert.True(t, ok)
	assert.Equal(t, TierPremium, tier)
	_, ok = ParseTier("gold")
	assert.False(t, ok)

	st, ok := ParseStatus("Suspended")
	assert.True(t, ok)
	assert.Equal(t, StatusSuspended, st)
	_, ok = ParseStatus("deleted")
	assert.False(t, ok)
}

func TestIsAllowedRole_CaseSensitive(t *testing.T) {
	assert.True(t, IsAllowedRole("admin"))
	assert.True(t, IsAllowedRole("receptionist"))
	assert.False(t, IsAllowedRole("Admin"))
	assert.False(t, IsAllowedRole("superuser"))
}

func TestAccountView_HasNoPassword(t *testing.T) {
	a := &Account{
		ID:           7,
		Email:        "a@gym.test",
		Username:     "alice",
		PasswordHash: "$2a$10$secret",
		Roles:        []Role{{ID: 1, Name: RoleAdmin}},
	}
	raw, err := json.Marshal(a.View())
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	for k := range fields {
		assert.NotContains(t, k, "password")
	}
	assert.NotContains(t, string(raw), "$2a$10$secret")
	assert.Equal(t, []string{"admin"}, a.RoleNames())
}
