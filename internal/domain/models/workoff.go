package models

import "time"

// WorkOffAllotment caps how many work-off days a user may pick in a month.
type WorkOffAllotment struct {
	ID      string `bson:"_id" json:"id"`
	Month   int    `bson:"month" json:"month"`
	Year    int    `bson:"year" json:"year"`
	MaxDays int    `bson:"max_days" json:"maxDays"`
}

// WorkOffDay is a day reserved by a user as non-working.
type WorkOffDay struct {
	ID     string       `bson:"_id" json:"id"`
	UserID string       `bson:"user_id" json:"userId"`
	Date   time.Time    `bson:"date" json:"date"`
	Month  int          `bson:"month" json:"month"`
	Year   int          `bson:"year" json:"year"`
	Used   bool         `bson:"used" json:"used"`
	UsedAt *time.Time   `bson:"used_at,omitempty" json:"usedAt,omitempty"`
	User   *UserSummary `bson:"-" json:"user,omitempty"`
}

// WorkOffSummary is a user's view of the current month.
type WorkOffSummary struct {
	MaxDays       int          `json:"maxDays"`
	TotalSelected int          `json:"totalSelected"`
	Used          int          `json:"used"`
	Remaining     int          `json:"remaining"`
	Records       []WorkOffDay `json:"records"`
}
