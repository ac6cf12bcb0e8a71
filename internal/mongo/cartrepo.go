package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adrian08041/cardapio/internal/cart"
)

// cartDocument wraps a cart snapshot with its session key so pending
// carts survive page reloads.
type cartDocument struct {
	Key       string        `bson:"_id"`
	Cart      cart.Snapshot `bson:"cart"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

type CartRepo struct {
	collection *mongo.Collection
}

func NewCartRepo(db *mongo.Database) *CartRepo {
	return &CartRepo{
		collection: db.Collection("carts"),
	}
}

func (r *CartRepo) Load(ctx context.Context, key string) (*cart.Snapshot, error) {
	var doc cartDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot load cart: %w", err)
	}
	return &doc.Cart, nil
}

func (r *CartRepo) Save(ctx context.Context, key string, snap cart.Snapshot) error {
	doc := cartDocument{
		Key:       key,
		Cart:      snap,
		UpdatedAt: time.Now().UTC(),
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, opts); err != nil {
		return fmt.Errorf("cannot save cart: %w", err)
	}

	return nil
}

// EnsureIndexes creates the TTL index that expires abandoned carts. A
// zero ttl keeps carts forever.
func (r *CartRepo) EnsureIndexes(ctx context.Context, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, index); err != nil {
		return fmt.Errorf("cannot create cart TTL index: %w", err)
	}

	return nil
}

func (r *CartRepo) Delete(ctx context.Context, key string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("cannot delete cart: %w", err)
	}
	return nil
}
