package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhand/internal/domain/apperr"
)

const (
	usersCollection       = "users"
	attendanceCollection  = "attendance"
	allotmentsCollection  = "workoff_settings"
	workOffDaysCollection = "workoff_days"
	reportsCollection     = "work_reports"
	summariesCollection   = "ai_summaries"
	animalsCollection     = "animals"
	milkRecordsCollection = "milk_records"
	milkSessionCollection = "milk_sessions"
)

const duplicateKeyCode = 11000

// Store implements every service repository on top of MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// NewStore connects to MongoDB and verifies the connection.
func NewStore(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Store{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}, nil
}

// Close closes the MongoDB connection.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping reports whether the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// EnsureIndexes creates the unique indexes backing every upsert key.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	unique := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
	}

	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			unique(bson.D{{Key: "username", Value: 1}}),
			unique(bson.D{{Key: "phone", Value: 1}}),
			{
				Keys: bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"email": bson.M{"$exists": true}}),
			},
		},
		attendanceCollection: {
			unique(bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}}),
			{Keys: bson.D{{Key: "date", Value: -1}}},
		},
		allotmentsCollection: {
			unique(bson.D{{Key: "month", Value: 1}, {Key: "year", Value: 1}}),
		},
		workOffDaysCollection: {
			unique(bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}}),
			{Keys: bson.D{{Key: "year", Value: 1}, {Key: "month", Value: 1}}},
		},
		reportsCollection: {
			unique(bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}}),
			{Keys: bson.D{{Key: "date", Value: 1}}},
		},
		summariesCollection: {
			unique(bson.D{{Key: "type", Value: 1}, {Key: "start_date", Value: 1}, {Key: "end_date", Value: 1}}),
		},
		animalsCollection: {
			unique(bson.D{{Key: "animal_tag", Value: 1}}),
		},
		milkRecordsCollection: {
			unique(bson.D{{Key: "animal_id", Value: 1}, {Key: "date", Value: 1}}),
		},
		milkSessionCollection: {
			unique(bson.D{{Key: "record_id", Value: 1}, {Key: "period", Value: 1}}),
			{Keys: bson.D{{Key: "date", Value: 1}}},
		},
	}

	for name, specs := range indexes {
		if _, err := s.collection(name).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}

	s.logger.Info("mongodb indexes ensured", zap.Int("collections", len(indexes)))
	return nil
}

// withTransaction runs fn in a snapshot transaction.
func (s *Store) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	txnOptions := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, txnOptions)
	return err
}

// mapError turns driver errors into typed application errors.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound("%s not found", what)
	}
	if mongo.IsDuplicateKeyError(err) {
		return &apperr.Error{Kind: apperr.KindConflict, Message: what + " already exists", Err: err}
	}
	var typed *apperr.Error
	if errors.As(err, &typed) {
		return err
	}
	return fmt.Errorf("%s: %w", what, err)
}

// insertSkippingDuplicates inserts docs unordered and ignores unique key
// violations. It returns how many documents were inserted.
func insertSkippingDuplicates(ctx context.Context, coll *mongo.Collection, docs []interface{}) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	_, err := coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return len(docs), nil
	}

	var bulkErr mongo.BulkWriteException
	if !errors.As(err, &bulkErr) || bulkErr.WriteConcernError != nil {
		return 0, fmt.Errorf("insert into %s: %w", coll.Name(), err)
	}
	for _, we := range bulkErr.WriteErrors {
		if we.Code != duplicateKeyCode {
			return 0, fmt.Errorf("insert into %s: %w", coll.Name(), err)
		}
	}
	return len(docs) - len(bulkErr.WriteErrors), nil
}

func upsertAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
}

func updateAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}
