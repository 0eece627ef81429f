package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/farmhand/internal/domain/apperr"
	"github.com/mamadbah2/farmhand/internal/domain/models"
	"github.com/mamadbah2/farmhand/internal/service/reports"
)

// UpsertReport creates or replaces the report of (UserID, Date).
func (s *Store) UpsertReport(ctx context.Context, report models.WorkReport) (models.WorkReport, error) {
	var stored models.WorkReport
	err := s.collection(reportsCollection).FindOneAndUpdate(ctx,
		bson.M{"user_id": report.UserID, "date": report.Date},
		bson.M{
			"$set": bson.M{
				"user_name":  report.UserName,
				"title":      report.Title,
				"tasks":      report.Tasks,
				"challenges": report.Challenges,
				"next_plan":  report.NextPlan,
				"updated_at": report.UpdatedAt,
			},
			"$setOnInsert": bson.M{
				"_id":        report.ID,
				"created_at": report.CreatedAt,
			},
		},
		upsertAfter(),
	).Decode(&stored)
	return stored, mapError(err, "work report")
}

// GetReport returns a report by id.
func (s *Store) GetReport(ctx context.Context, id string) (models.WorkReport, error) {
	var report models.WorkReport
	err := s.collection(reportsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&report)
	return report, mapError(err, "work report")
}

// UpdateReport applies the non-nil fields.
func (s *Store) UpdateReport(ctx context.Context, id string, fields reports.Update, updatedAt time.Time) (models.WorkReport, error) {
	set := bson.M{"updated_at": updatedAt}
	if fields.Title != nil {
		set["title"] = *fields.Title
	}
	if fields.Tasks != nil {
		set["tasks"] = *fields.Tasks
	}
	if fields.Challenges != nil {
		set["challenges"] = *fields.Challenges
	}
	if fields.NextPlan != nil {
		set["next_plan"] = *fields.NextPlan
	}

	var report models.WorkReport
	err := s.collection(reportsCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, updateAfter()).
		Decode(&report)
	return report, mapError(err, "work report")
}

// DeleteReport removes a report.
func (s *Store) DeleteReport(ctx context.Context, id string) error {
	res, err := s.collection(reportsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete work report: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("work report not found")
	}
	return nil
}

// ReportsBetween returns the reports dated in [start, end], oldest first.
func (s *Store) ReportsBetween(ctx context.Context, start, end time.Time) ([]models.WorkReport, error) {
	cursor, err := s.collection(reportsCollection).Find(ctx,
		bson.M{"date": bson.M{"$gte": start, "$lte": end}},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find work reports: %w", err)
	}

	out := []models.WorkReport{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode work reports: %w", err)
	}
	return out, nil
}

// UpsertSummary creates or updates the summary of (Type, StartDate, EndDate).
// Concurrent writers race on the unique index; the last content wins.
func (s *Store) UpsertSummary(ctx context.Context, summary models.ReportSummary) (models.ReportSummary, error) {
	var stored models.ReportSummary
	err := s.collection(summariesCollection).FindOneAndUpdate(ctx,
		bson.M{"type": summary.Type, "start_date": summary.StartDate, "end_date": summary.EndDate},
		bson.M{
			"$set": bson.M{
				"content":    summary.Content,
				"updated_at": summary.UpdatedAt,
			},
			"$setOnInsert": bson.M{
				"_id":        summary.ID,
				"created_at": summary.CreatedAt,
			},
		},
		upsertAfter(),
	).Decode(&stored)
	return stored, mapError(err, "summary")
}

// ListSummaries returns the summaries of a type, newest period first.
func (s *Store) ListSummaries(ctx context.Context, summaryType models.SummaryType) ([]models.ReportSummary, error) {
	cursor, err := s.collection(summariesCollection).Find(ctx, bson.M{"type": summaryType},
		options.Find().SetSort(bson.D{{Key: "start_date", Value: -1}, {Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find summaries: %w", err)
	}

	out := []models.ReportSummary{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode summaries: %w", err)
	}
	return out, nil
}
