package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"

	"github.com/adrian08041/cardapio/internal/cart"
	"github.com/adrian08041/cardapio/internal/checkout"
	"github.com/adrian08041/cardapio/internal/mongo"
	"github.com/adrian08041/cardapio/internal/orderapi"
	"github.com/adrian08041/cardapio/pkg"
)

const (
	appNamespace = "STOREFRONT"
	appName      = "storefront"
	appVersion   = "0.1.0"
)

func main() {
	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("Cannot setup %s(%s): %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	apiURL := config.GetStringOrDef("orderapi.url", "http://localhost:3000")
	apiToken, _ := config.GetString("orderapi.token")

	session := orderapi.NewSessionStore(apiToken)
	session.OnLogout(func() {
		logger.Error("order api session expired, requests will fail until a new token is configured")
	})

	apiClient := orderapi.NewClient(apiURL, session, logger)

	baseRepo := mongo.NewBaseRepo(config, logger)

	cartKey := config.GetStringOrDef("cart.session", "cart:storefront")
	cartStore := cart.NewStore(ctx, cartKey, nil, logger)

	// The cart persists to Mongo; hydration waits for the connection.
	cartHooks := apt.LifecycleHooks{
		OnStart: func(ctx context.Context) error {
			cartStore.AttachRepo(ctx, mongo.NewCartRepo(baseRepo.GetDatabase()))
			return nil
		},
	}

	pricer := cart.NewPricer(
		configFloat(config, "pricing.delivery_fee"),
		configFloat(config, "pricing.pix_discount"),
	)

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")
	publisher, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		logger.Error("cannot connect to NATS, order events disabled", "error", err)
		publisher = nil
	}

	var submitter *checkout.Submitter
	if publisher != nil {
		submitter = checkout.NewSubmitter(apiClient, cartStore, pricer, publisher, logger)
	} else {
		submitter = checkout.NewSubmitter(apiClient, cartStore, pricer, nil, logger)
	}

	handler := checkout.NewHandler(cartStore, pricer, submitter, apiClient, logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: false,
	})

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler),
		apt.WithLifecycle(baseRepo, cartHooks),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		log.Fatalf("%s(%s) stopped with error: %v", appName, appVersion, err)
	}

	if publisher != nil {
		_ = publisher.Close()
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}

func configFloat(config *apt.Config, key string) float64 {
	raw, _ := config.GetString(key)
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return value
}
