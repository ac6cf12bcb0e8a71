package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BaseRepo struct {
	client *mongo.Client
	db     *mongo.Database
	logger apt.Logger
	config *apt.Config
}

func NewBaseRepo(config *apt.Config, logger apt.Logger) *BaseRepo {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &BaseRepo{
		logger: logger,
		config: config,
	}
}

const (
	defaultMongoURL = "mongodb://localhost:27017"
	defaultDatabase = "cardapio"

	// DefaultCartTTL expires abandoned persisted carts. The original
	// storefront kept carts in browser storage, so a week matches the
	// lifetime a shopper would see there.
	DefaultCartTTL = 7 * 24 * time.Hour
)

// Start connects and bootstraps the carts collection. Carts are this
// module's only Mongo-backed state, so the index setup lives with the
// connection instead of a separate migration step.
func (r *BaseRepo) Start(ctx context.Context) error {
	connString := r.config.GetStringOrDef("db.mongo.url", defaultMongoURL)
	dbName := r.config.GetStringOrDef("db.mongo.name", defaultDatabase)

	clientOptions := options.Client().ApplyURI(connString).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	r.client = client
	r.db = client.Database(dbName)

	if err := NewCartRepo(r.db).EnsureIndexes(ctx, r.cartTTL()); err != nil {
		r.logger.Error("cannot bootstrap cart indexes", "error", err)
	}

	r.logger.Infof("Connected to MongoDB: %s, database: %s", connString, dbName)
	return nil
}

// cartTTL reads db.mongo.cart_ttl as a Go duration; unparseable or
// missing values fall back to the default, "0" disables expiry.
func (r *BaseRepo) cartTTL() time.Duration {
	raw, _ := r.config.GetString("db.mongo.cart_ttl")
	if raw == "" {
		return DefaultCartTTL
	}
	if raw == "0" {
		return 0
	}
	ttl, err := time.ParseDuration(raw)
	if err != nil {
		r.logger.Error("invalid db.mongo.cart_ttl, using default", "value", raw, "error", err)
		return DefaultCartTTL
	}
	return ttl
}

func (r *BaseRepo) Stop(ctx context.Context) error {
	if r.client != nil {
		if err := r.client.Disconnect(ctx); err != nil {
			return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
		}
		r.logger.Info("Disconnected from MongoDB")
	}
	return nil
}

func (r *BaseRepo) GetDatabase() *mongo.Database {
	return r.db
}
