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

func withinFilter(window period.Range) bson.M {
	return bson.M{"$gte": window.Start, "$lte": window.End}
}

// UpdateStatusOnDay changes the status of the user's row dated day.
func (s *Store) UpdateStatusOnDay(ctx context.Context, userID string, day time.Time, status models.AttendanceStatus, updatedAt time.Time) (models.Attendance, error) {
	var row models.Attendance
	err := s.collection(attendanceCollection).FindOneAndUpdate(ctx,
		bson.M{"user_id": userID, "date": day},
		bson.M{"$set": bson.M{"status": status, "updated_at": updatedAt}},
		updateAfter(),
	).Decode(&row)
	return row, mapError(err, "attendance")
}

// ListByUser returns one page of a user's rows, newest first, and the total.
func (s *Store) ListByUser(ctx context.Context, userID string, skip, limit int64) ([]models.Attendance, int64, error) {
	return s.pageAttendance(ctx, bson.M{"user_id": userID}, skip, limit, false)
}

// DeleteForUser deletes row id when it belongs to userID.
func (s *Store) DeleteForUser(ctx context.Context, userID, id string) (int64, error) {
	res, err := s.collection(attendanceCollection).DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("delete attendance: %w", err)
	}
	return res.DeletedCount, nil
}

// ListBetween returns one page of the rows dated within window, with User populated.
func (s *Store) ListBetween(ctx context.Context, window period.Range, skip, limit int64) ([]models.Attendance, int64, error) {
	return s.pageAttendance(ctx, bson.M{"date": withinFilter(window)}, skip, limit, true)
}

// LatestForUser returns the most recent row of a user.
func (s *Store) LatestForUser(ctx context.Context, userID string) (models.Attendance, error) {
	var row models.Attendance
	err := s.collection(attendanceCollection).FindOne(ctx, bson.M{"user_id": userID},
		options.FindOne().SetSort(bson.D{{Key: "date", Value: -1}})).Decode(&row)
	if err != nil {
		return models.Attendance{}, mapError(err, "attendance")
	}

	users, err := s.userSummaries(ctx, []string{userID})
	if err != nil {
		return models.Attendance{}, err
	}
	row.User = users[userID]
	return row, nil
}

// UpdateStatus changes the status of row id.
func (s *Store) UpdateStatus(ctx context.Context, id string, status models.AttendanceStatus, updatedAt time.Time) (models.Attendance, error) {
	var row models.Attendance
	err := s.collection(attendanceCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": updatedAt}},
		updateAfter(),
	).Decode(&row)
	return row, mapError(err, "attendance")
}

// InsertMissing inserts rows whose (user, date) is not stored yet.
func (s *Store) InsertMissing(ctx context.Context, rows []models.Attendance) (int, error) {
	docs := make([]interface{}, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, r)
	}
	return insertSkippingDuplicates(ctx, s.collection(attendanceCollection), docs)
}

func (s *Store) pageAttendance(ctx context.Context, filter bson.M, skip, limit int64, withUsers bool) ([]models.Attendance, int64, error) {
	coll := s.collection(attendanceCollection)

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}

	cursor, err := coll.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit))
	if err != nil {
		return nil, 0, fmt.Errorf("find attendance: %w", err)
	}

	rows := []models.Attendance{}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, 0, fmt.Errorf("decode attendance: %w", err)
	}

	if withUsers {
		ids := make([]string, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.UserID)
		}
		users, err := s.userSummaries(ctx, distinct(ids))
		if err != nil {
			return nil, 0, err
		}
		for i := range rows {
			rows[i].User = users[rows[i].UserID]
		}
	}
	return rows, total, nil
}
