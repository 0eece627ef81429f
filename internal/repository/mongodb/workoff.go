package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/farmhand/internal/domain/models"
	"github.com/mamadbah2/farmhand/internal/period"
)

// UpsertAllotment creates or updates the allotment of (Month, Year).
func (s *Store) UpsertAllotment(ctx context.Context, allotment models.WorkOffAllotment) (models.WorkOffAllotment, error) {
	var stored models.WorkOffAllotment
	err := s.collection(allotmentsCollection).FindOneAndUpdate(ctx,
		bson.M{"month": allotment.Month, "year": allotment.Year},
		bson.M{
			"$set":         bson.M{"max_days": allotment.MaxDays},
			"$setOnInsert": bson.M{"_id": allotment.ID},
		},
		upsertAfter(),
	).Decode(&stored)
	return stored, mapError(err, "work-off allotment")
}

// FindAllotment returns the allotment of a month.
func (s *Store) FindAllotment(ctx context.Context, month, year int) (models.WorkOffAllotment, error) {
	var allotment models.WorkOffAllotment
	err := s.collection(allotmentsCollection).FindOne(ctx, bson.M{"month": month, "year": year}).Decode(&allotment)
	return allotment, mapError(err, "work-off allotment")
}

// ListDays returns the days of a month in date order, optionally for one user.
func (s *Store) ListDays(ctx context.Context, month, year int, userID string) ([]models.WorkOffDay, error) {
	filter := bson.M{"month": month, "year": year}
	if userID != "" {
		filter["user_id"] = userID
	}

	cursor, err := s.collection(workOffDaysCollection).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find work-off days: %w", err)
	}

	days := []models.WorkOffDay{}
	if err := cursor.All(ctx, &days); err != nil {
		return nil, fmt.Errorf("decode work-off days: %w", err)
	}

	ids := make([]string, 0, len(days))
	for _, d := range days {
		ids = append(ids, d.UserID)
	}
	users, err := s.userSummaries(ctx, distinct(ids))
	if err != nil {
		return nil, err
	}
	for i := range days {
		days[i].User = users[days[i].UserID]
	}
	return days, nil
}

// InsertDays inserts days whose (user, date) is not booked yet.
func (s *Store) InsertDays(ctx context.Context, days []models.WorkOffDay) (int, error) {
	docs := make([]interface{}, 0, len(days))
	for _, d := range days {
		docs = append(docs, d)
	}
	return insertSkippingDuplicates(ctx, s.collection(workOffDaysCollection), docs)
}

// RescheduleDay moves day id to date and clears its used flag.
func (s *Store) RescheduleDay(ctx context.Context, id string, date time.Time) (models.WorkOffDay, error) {
	var day models.WorkOffDay
	err := s.collection(workOffDaysCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set": bson.M{
				"date":  date,
				"month": int(date.Month()),
				"year":  date.Year(),
				"used":  false,
			},
			"$unset": bson.M{"used_at": ""},
		},
		updateAfter(),
	).Decode(&day)
	return day, mapError(err, "work-off day")
}

// MarkUsedWithin flags the user's day inside window as used.
func (s *Store) MarkUsedWithin(ctx context.Context, userID string, window period.Range, usedAt time.Time) (models.WorkOffDay, error) {
	var day models.WorkOffDay
	err := s.collection(workOffDaysCollection).FindOneAndUpdate(ctx,
		bson.M{"user_id": userID, "date": withinFilter(window)},
		bson.M{"$set": bson.M{"used": true, "used_at": usedAt}},
		updateAfter(),
	).Decode(&day)
	return day, mapError(err, "work-off day")
}

// MarkAllUsedWithin flags every unused day inside window.
func (s *Store) MarkAllUsedWithin(ctx context.Context, window period.Range, usedAt time.Time) (int64, error) {
	res, err := s.collection(workOffDaysCollection).UpdateMany(ctx,
		bson.M{"date": withinFilter(window), "used": false},
		bson.M{"$set": bson.M{"used": true, "used_at": usedAt}},
	)
	if err != nil {
		return 0, fmt.Errorf("mark work-off days used: %w", err)
	}
	return res.ModifiedCount, nil
}
