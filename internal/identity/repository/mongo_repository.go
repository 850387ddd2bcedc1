package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/21521147/book-hunter-project/internal/identity/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRepository struct {
	users    *mongo.Collection
	counters *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) UserRepository {
	return &mongoRepository{
		users:    db.Collection("users"),
		counters: db.Collection("counters"),
	}
}

func (m *mongoRepository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User

	filter := bson.M{"_id": userID}
	err := m.users.FindOne(ctx, filter).Decode(&user)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (m *mongoRepository) Exists(ctx context.Context, userID string) (bool, error) {
	filter := bson.M{"_id": userID}
	count, err := m.users.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return count > 0, nil
}

func (m *mongoRepository) CreateUser(ctx context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.Favorites == nil {
		user.Favorites = []int64{}
	}

	_, err := m.users.InsertOne(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (m *mongoRepository) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) error {
	filter := bson.M{"_id": userID}
	set := bson.M{
		"name":    update.Name,
		"phone":   update.Phone,
		"address": update.Address,
	}

	result, err := m.users.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (m *mongoRepository) AddFavorite(ctx context.Context, userID string, bookID int64) error {
	filter := bson.M{"_id": userID}
	update := bson.M{"$addToSet": bson.M{"favorites": bookID}}

	result, err := m.users.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (m *mongoRepository) RemoveFavorite(ctx context.Context, userID string, bookID int64) error {
	filter := bson.M{"_id": userID}
	update := bson.M{"$pull": bson.M{"favorites": bookID}}

	result, err := m.users.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// NextLegacyID increments the shared sequence atomically on the server.
// The legacy registration path used a read-then-write counter, which loses
// updates under concurrent registrations.
func (m *mongoRepository) NextLegacyID(ctx context.Context) (int64, error) {
	filter := bson.M{"_id": "user_seq"}
	update := bson.M{"$inc": bson.M{"value": int64(1)}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Value int64 `bson:"value"`
	}
	err := m.counters.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to advance user sequence: %w", err)
	}

	return counter.Value, nil
}
