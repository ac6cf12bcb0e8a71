package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"

	"github.com/adrian08041/cardapio/internal/kds"
	"github.com/adrian08041/cardapio/internal/orderapi"
	"github.com/adrian08041/cardapio/internal/stream"
	"github.com/adrian08041/cardapio/internal/sync"
	"github.com/adrian08041/cardapio/pkg"
)

const (
	appNamespace = "KDS"
	appName      = "kds"
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
		logger.Error("order api session expired, lane bumps will be rejected")
	})

	apiClient := orderapi.NewClient(apiURL, session, logger)

	cache := sync.NewOrderStateCache(logger)
	synchronizer := sync.NewSynchronizer(
		apiClient,
		cache,
		configDuration(config, "sync.poll_interval", sync.DefaultPollInterval),
		logger,
	)

	hub := stream.NewHub(configDuration(config, "sync.urgency_interval", 30*time.Second), logger)
	cache.Subscribe(func() {
		hub.Broadcast(stream.Signal{Kind: stream.KindOrders, OccurredAt: time.Now()})
	})

	var lifecycles []interface{}
	lifecycles = append(lifecycles, synchronizer, hub)

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")
	subscriber, err := pkg.NewNATSSubscriber(natsURL, logger)
	if err != nil {
		logger.Error("cannot connect to NATS, relying on polling only", "error", err)
	} else {
		eventSubscriber := sync.NewOrderEventSubscriber(subscriber, cache, synchronizer, logger)
		lifecycles = append(lifecycles, eventSubscriber)
	}

	if publisher, err := pkg.NewNATSPublisher(natsURL); err != nil {
		logger.Error("cannot connect NATS publisher, mutations will not be announced", "error", err)
	} else {
		synchronizer.AttachPublisher(publisher, "kds")
	}

	projector := kds.NewProjector(cache)
	handler := kds.NewHandler(projector, synchronizer, hub, logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: true,
	})
	stack = append(stack, middleware.InternalOnly())

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		log.Fatalf("%s(%s) stopped with error: %v", appName, appVersion, err)
	}

	if subscriber != nil {
		_ = subscriber.Close()
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}

func configDuration(config *apt.Config, key string, def time.Duration) time.Duration {
	raw, _ := config.GetString(key)
	if raw == "" {
		return def
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return value
}
