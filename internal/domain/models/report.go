package models

import "time"

// WorkReport is the daily work report a user files.
type WorkReport struct {
	ID         string    `bson:"_id" json:"id"`
	UserID     string    `bson:"user_id" json:"userId"`
	UserName   string    `bson:"user_name,omitempty" json:"userName,omitempty"`
	Date       time.Time `bson:"date" json:"date"`
	Title      string    `bson:"title" json:"title"`
	Tasks      string    `bson:"tasks" json:"tasks"`
	Challenges string    `bson:"challenges,omitempty" json:"challenges,omitempty"`
	NextPlan   string    `bson:"next_plan,omitempty" json:"nextPlan,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updatedAt"`
}

// WorkReportInput carries the writable fields of a report.
type WorkReportInput struct {
	Title      string `json:"title"`
	Tasks      string `json:"tasks"`
	Challenges string `json:"challenges"`
	NextPlan   string `json:"nextPlan"`
	Date       string `json:"date"`
}

// SummaryType is the period an AI summary covers.
type SummaryType string

const (
	SummaryDaily   SummaryType = "daily"
	SummaryWeekly  SummaryType = "weekly"
	SummaryMonthly SummaryType = "monthly"
)

// Valid reports whether t is a known summary type.
func (t SummaryType) Valid() bool {
	switch t {
	case SummaryDaily, SummaryWeekly, SummaryMonthly:
		return true
	}
	return false
}

// ReportSummary is an AI generated digest of the work reports of a period.
// At most one exists per (Type, StartDate, EndDate).
type ReportSummary struct {
	ID        string      `bson:"_id" json:"id"`
	Type      SummaryType `bson:"type" json:"type"`
	StartDate time.Time   `bson:"start_date" json:"startDate"`
	EndDate   time.Time   `bson:"end_date" json:"endDate"`
	Content   string      `bson:"content" json:"content"`
	CreatedAt time.Time   `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time   `bson:"updated_at" json:"updatedAt"`
}
