package mongodb

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/farmhand/internal/domain/models"
	"github.com/mamadbah2/farmhand/internal/period"
)

// CreateAnimal inserts a new animal.
func (s *Store) CreateAnimal(ctx context.Context, animal models.Animal) error {
	_, err := s.collection(animalsCollection).InsertOne(ctx, animal)
	return mapError(err, "animal")
}

// ListAnimals returns every animal ordered by tag.
func (s *Store) ListAnimals(ctx context.Context) ([]models.Animal, error) {
	cursor, err := s.collection(animalsCollection).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "animal_tag", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find animals: %w", err)
	}

	animals := []models.Animal{}
	if err := cursor.All(ctx, &animals); err != nil {
		return nil, fmt.Errorf("decode animals: %w", err)
	}
	return animals, nil
}

// RecordSession upserts the day record of the animal and its session for the
// period in one transaction.
func (s *Store) RecordSession(ctx context.Context, record models.MilkRecord, session models.MilkSession) (models.MilkRecord, models.MilkSession, error) {
	var storedRecord models.MilkRecord
	var storedSession models.MilkSession

	err := s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		err := s.collection(milkRecordsCollection).FindOneAndUpdate(sc,
			bson.M{"animal_id": record.AnimalID, "date": record.Date},
			bson.M{"$setOnInsert": bson.M{
				"_id":        record.ID,
				"animal_tag": record.AnimalTag,
			}},
			upsertAfter(),
		).Decode(&storedRecord)
		if err != nil {
			return mapError(err, "milk record")
		}

		err = s.collection(milkSessionCollection).FindOneAndUpdate(sc,
			bson.M{"record_id": storedRecord.ID, "period": session.Period},
			bson.M{
				"$set": bson.M{
					"quantity": session.Quantity,
					"time":     session.Time,
					"recorder": session.Recorder,
				},
				"$setOnInsert": bson.M{
					"_id":        session.ID,
					"animal_id":  storedRecord.AnimalID,
					"animal_tag": storedRecord.AnimalTag,
					"date":       storedRecord.Date,
				},
			},
			upsertAfter(),
		).Decode(&storedSession)
		return mapError(err, "milk session")
	})
	if err != nil {
		return models.MilkRecord{}, models.MilkSession{}, err
	}
	return storedRecord, storedSession, nil
}

// SessionsInWindows loads the sessions of each window from one snapshot.
// tag, when set, keeps only animals whose tag contains it, ignoring case.
func (s *Store) SessionsInWindows(ctx context.Context, tag string, windows ...period.Range) ([][]models.MilkSession, error) {
	out := make([][]models.MilkSession, len(windows))

	err := s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		for i, window := range windows {
			cursor, err := s.collection(milkSessionCollection).Find(sc, sessionFilter(tag, window),
				options.Find().SetSort(bson.D{{Key: "time", Value: -1}}))
			if err != nil {
				return fmt.Errorf("find milk sessions: %w", err)
			}

			sessions := []models.MilkSession{}
			if err := cursor.All(sc, &sessions); err != nil {
				return fmt.Errorf("decode milk sessions: %w", err)
			}
			out[i] = sessions
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func sessionFilter(tag string, window period.Range) bson.M {
	filter := bson.M{"date": withinFilter(window)}
	if tag != "" {
		filter["animal_tag"] = primitive.Regex{Pattern: regexp.QuoteMeta(tag), Options: "i"}
	}
	return filter
}
