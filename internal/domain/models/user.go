package models

import "time"

// Role enumerates the organisational roles a user can hold.
type Role string

const (
	RoleTeamMember Role = "Team Member"
	RoleTeamLeader Role = "Team Leader"
)

// SuperRole grants capabilities on top of the organisational role.
type SuperRole string

const (
	SuperRoleNone  SuperRole = ""
	SuperRoleAdmin SuperRole = "Admin"
)

// ParseRole validates a role coming from user input. An empty value maps to RoleTeamMember.
func ParseRole(value string) (Role, bool) {
	switch Role(value) {
	case "":
		return RoleTeamMember, true
	case RoleTeamMember, RoleTeamLeader:
		return Role(value), true
	default:
		return "", false
	}
}

// User is a registered account.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email,omitempty" json:"email,omitempty"`
	Phone        string    `bson:"phone" json:"phone"`
	Username     string    `bson:"username" json:"username"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	Role         Role      `bson:"role" json:"role"`
	SuperRole    SuperRole `bson:"super_role,omitempty" json:"superRole,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
}

// Identity is the authenticated principal attached to a request.
type Identity struct {
	UserID    string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Role      Role      `json:"role"`
	SuperRole SuperRole `json:"superRole,omitempty"`
}

// CanManage reports whether the identity may use the admin routes.
func (i Identity) CanManage() bool {
	return i.Role == RoleTeamLeader || i.SuperRole == SuperRoleAdmin
}

// CanGenerateSummaries reports whether the identity may trigger AI summaries.
func (i Identity) CanGenerateSummaries() bool {
	return i.SuperRole == SuperRoleAdmin
}

// UserUpdate carries the mutable profile fields. Nil fields are left untouched.
type UserUpdate struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Username *string `json:"username"`
	Role     *Role   `json:"role"`
}
