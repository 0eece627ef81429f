package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityCapabilities(t *testing.T) {
	member := Identity{UserID: "u1", Role: RoleTeamMember}
	leader := Identity{UserID: "u2", Role: RoleTeamLeader}
	admin := Identity{UserID: "u3", Role: RoleTeamMember, SuperRole: SuperRoleAdmin}

	assert.False(t, member.CanManage())
	assert.False(t, member.CanGenerateSummaries())
	assert.True(t, leader.CanManage())
	assert.False(t, leader.CanGenerateSummaries())
	assert.True(t, admin.CanManage())
	assert.True(t, admin.CanGenerateSummaries())
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole("")
	assert.True(t, ok)
	assert.Equal(t, RoleTeamMember, role)

	role, ok = ParseRole("Team Leader")
	assert.True(t, ok)
	assert.Equal(t, RoleTeamLeader, role)

	_, ok = ParseRole("admin")
	assert.False(t, ok)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(0, 0, 25)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageSize, p.Limit)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, int64(0), p.Skip())

	p = NewPagination(3, 500, 250)
	assert.Equal(t, MaxPageSize, p.Limit)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, int64(200), p.Skip())

	assert.Equal(t, 0, NewPagination(1, 10, 0).TotalPages)
}

func TestPaginationClampsHugePages(t *testing.T) {
	p := NewPagination(2305843009213693953, 4, 1)
	assert.Equal(t, MaxPage, p.Page)
	assert.Equal(t, int64(1), p.Skip())

	assert.Equal(t, int64(MaxPage-1)*4, Offset(2305843009213693953, 4))
	assert.Equal(t, int64(0), Offset(-5, 4))
}
