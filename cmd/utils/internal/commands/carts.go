package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"

	"github.com/adrian08041/cardapio/internal/cart"
	"github.com/adrian08041/cardapio/internal/mongo"
)

// withDatabase connects, runs fn, and disconnects.
func withDatabase(ctx context.Context, config *apt.Config, logger apt.Logger, fn func(*mongo.BaseRepo) error) error {
	base := mongo.NewBaseRepo(config, logger)
	if err := base.Start(ctx); err != nil {
		return fmt.Errorf("cannot connect: %w", err)
	}
	defer base.Stop(ctx)

	return fn(base)
}

// SeedDemo writes a demo cart so the storefront has something to show
// on a fresh database.
func SeedDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	return withDatabase(ctx, config, logger, func(base *mongo.BaseRepo) error {
		repo := mongo.NewCartRepo(base.GetDatabase())

		demo := cart.Snapshot{
			Lines: []cart.Line{
				{ProductID: "demo-burger", Name: "Classic Burger", UnitPrice: 24.90, Quantity: 2, Station: "kitchen"},
				{ProductID: "demo-caipirinha", Name: "Caipirinha", UnitPrice: 18.00, Quantity: 1, Station: "bar"},
				{ProductID: "demo-pudim", Name: "Pudim", UnitPrice: 12.50, Quantity: 1, Station: "dessert", Notes: "no syrup"},
			},
		}

		if err := repo.Save(ctx, "cart:storefront", demo); err != nil {
			return err
		}

		logger.Info("seeded demo cart", "key", "cart:storefront", "lines", len(demo.Lines))
		return nil
	})
}

// ClearCarts removes every persisted cart.
func ClearCarts(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	return withDatabase(ctx, config, logger, func(base *mongo.BaseRepo) error {
		if err := base.GetDatabase().Collection("carts").Drop(ctx); err != nil {
			return fmt.Errorf("cannot drop carts: %w", err)
		}
		logger.Info("dropped carts collection")
		return nil
	})
}

// ResetDB drops the whole database. Local development only.
func ResetDB(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	return withDatabase(ctx, config, logger, func(base *mongo.BaseRepo) error {
		name := base.GetDatabase().Name()
		if err := base.GetDatabase().Drop(ctx); err != nil {
			return fmt.Errorf("cannot drop database: %w", err)
		}
		logger.Info("dropped database", "name", name)
		return nil
	})
}
