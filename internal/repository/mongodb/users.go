package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/farmhand/internal/domain/models"
)

// CreateUser inserts a new user.
func (s *Store) CreateUser(ctx context.Context, user models.User) error {
	_, err := s.collection(usersCollection).InsertOne(ctx, user)
	return mapError(err, "user")
}

// UserExists reports whether username, phone or a non-empty email is taken.
func (s *Store) UserExists(ctx context.Context, username, phone, email string) (bool, error) {
	or := bson.A{bson.M{"username": username}, bson.M{"phone": phone}}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}

	n, err := s.collection(usersCollection).CountDocuments(ctx, bson.M{"$or": or}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

// FindByIdentifier returns the user whose email or username equals identifier.
func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	var user models.User
	filter := bson.M{"$or": bson.A{bson.M{"email": identifier}, bson.M{"username": identifier}}}
	err := s.collection(usersCollection).FindOne(ctx, filter).Decode(&user)
	return user, mapError(err, "user")
}

// GetUser returns a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := s.collection(usersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	return user, mapError(err, "user")
}

// ListUsers returns every user, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	cursor, err := s.collection(usersCollection).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// UserIDs returns the id of every user.
func (s *Store) UserIDs(ctx context.Context) ([]string, error) {
	cursor, err := s.collection(usersCollection).Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("find user ids: %w", err)
	}

	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode user ids: %w", err)
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// UpdateUser applies the non-nil fields of update.
func (s *Store) UpdateUser(ctx context.Context, id string, update models.UserUpdate, updatedAt time.Time) (models.User, error) {
	var user models.User
	err := s.collection(usersCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, userUpdateDoc(update, updatedAt), updateAfter()).
		Decode(&user)
	return user, mapError(err, "user")
}

// userUpdateDoc builds the update document of a profile change. An empty
// email is unset so the partial unique index ignores it.
func userUpdateDoc(update models.UserUpdate, updatedAt time.Time) bson.M {
	set := bson.M{"updated_at": updatedAt}
	doc := bson.M{}

	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Phone != nil {
		set["phone"] = *update.Phone
	}
	if update.Username != nil {
		set["username"] = *update.Username
	}
	if update.Role != nil {
		set["role"] = *update.Role
	}
	if update.Email != nil {
		if *update.Email == "" {
			doc["$unset"] = bson.M{"email": ""}
		} else {
			set["email"] = *update.Email
		}
	}

	doc["$set"] = set
	return doc
}

// userSummaries loads the public profile of each id.
func (s *Store) userSummaries(ctx context.Context, ids []string) (map[string]*models.UserSummary, error) {
	out := make(map[string]*models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cursor, err := s.collection(usersCollection).Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"name": 1, "email": 1}))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	for _, u := range users {
		out[u.ID] = &models.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return out, nil
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
