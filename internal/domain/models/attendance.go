package models

import "time"

// AttendanceStatus is the state of a user's day.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "Present"
	AttendanceAbsent  AttendanceStatus = "Absent"
	AttendanceLate    AttendanceStatus = "Late"
	AttendanceLeave   AttendanceStatus = "Leave"
)

// Valid reports whether s is a known status.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceLeave:
		return true
	}
	return false
}

// Attendance is one user's status for one calendar day.
type Attendance struct {
	ID        string           `bson:"_id" json:"id"`
	UserID    string           `bson:"user_id" json:"userId"`
	Date      time.Time        `bson:"date" json:"date"`
	Status    AttendanceStatus `bson:"status" json:"status"`
	CreatedAt time.Time        `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time        `bson:"updated_at" json:"updatedAt"`
	User      *UserSummary     `bson:"-" json:"user,omitempty"`
}

// UserSummary is the public subset of a user embedded in listings.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}
