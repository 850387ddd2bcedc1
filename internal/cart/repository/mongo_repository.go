package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/21521147/book-hunter-project/internal/cart/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		collection: db.Collection("carts"),
	}
}

func (m *MongoRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart

	filter := bson.M{"user_id": userID}
	err := m.collection.FindOne(ctx, filter).Decode(&cart)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

// AddItem is a two-step atomic upsert: first try to $inc an existing line,
// then $push a new line guarded by "no line for this book yet". Two rapid
// adds of the same book therefore sum quantities instead of duplicating the
// line.
func (m *MongoRepository) AddItem(ctx context.Context, userID string, item domain.CartItem) error {
	now := time.Now()
	item.AddedAt = now

	incFilter := bson.M{
		"user_id":       userID,
		"items.book_id": item.BookID,
	}
	incUpdate := bson.M{
		"$inc": bson.M{"items.$.quantity": item.Quantity},
		"$set": bson.M{"updated_at": now},
	}

	result, err := m.collection.UpdateOne(ctx, incFilter, incUpdate)
	if err != nil {
		return fmt.Errorf("failed to increment existing item: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	pushFilter := bson.M{
		"user_id":       userID,
		"items.book_id": bson.M{"$ne": item.BookID},
	}
	pushUpdate := bson.M{
		"$push": bson.M{"items": item},
		"$set":  bson.M{"updated_at": now},
		"$setOnInsert": bson.M{
			"user_id":    userID,
			"created_at": now,
		},
	}
	opts := options.Update().SetUpsert(true)

	_, err = m.collection.UpdateOne(ctx, pushFilter, pushUpdate, opts)
	if err != nil {
		// A concurrent add of the same book can upsert first; the unique
		// user_id index rejects the second insert, so retry as increment.
		if mongo.IsDuplicateKeyError(err) {
			_, err = m.collection.UpdateOne(ctx, incFilter, incUpdate)
		}
		if err != nil {
			return fmt.Errorf("failed to add item: %w", err)
		}
	}

	return nil
}

func (m *MongoRepository) IncrementItemQuantity(ctx context.Context, userID string, bookID int64, delta int) (int, error) {
	filter := bson.M{
		"user_id":       userID,
		"items.book_id": bookID,
	}

	update := bson.M{
		"$inc": bson.M{"items.$[elem].quantity": delta},
		"$set": bson.M{"updated_at": time.Now()},
	}

	opts := options.FindOneAndUpdate().
		SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{
				bson.M{"elem.book_id": bookID},
			},
		}).
		SetReturnDocument(options.After)

	var cart domain.Cart
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrItemNotFound
		}
		return 0, fmt.Errorf("failed to update item quantity: %w", err)
	}

	for _, item := range cart.Items {
		if item.BookID == bookID {
			return item.Quantity, nil
		}
	}
	return 0, ErrItemNotFound
}

// RemoveDepletedItems drops lines whose quantity fell to zero or below.
// The quantity guard keeps the pull atomic: a concurrent add that restocked
// the line leaves it in place.
func (m *MongoRepository) RemoveDepletedItems(ctx context.Context, userID string) error {
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$pull": bson.M{
			"items": bson.M{"quantity": bson.M{"$lte": 0}},
		},
		"$set": bson.M{"updated_at": time.Now()},
	}

	_, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to remove depleted items: %w", err)
	}
	return nil
}

func (m *MongoRepository) RemoveItem(ctx context.Context, userID string, bookID int64) error {
	filter := bson.M{
		"user_id":       userID,
		"items.book_id": bookID,
	}
	update := bson.M{
		"$pull": bson.M{
			"items": bson.M{"book_id": bookID},
		},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}

	return nil
}

func (m *MongoRepository) DeleteCart(ctx context.Context, userID string) error {
	filter := bson.M{"user_id": userID}

	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
