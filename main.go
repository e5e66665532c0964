package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"marketrelay/config"
	"marketrelay/internal/auth"
	"marketrelay/internal/dispatch"
	"marketrelay/internal/ingest"
	"marketrelay/internal/metrics"
	"marketrelay/internal/model"
	"marketrelay/internal/poll"
	"marketrelay/internal/registry"
	"marketrelay/internal/server"
	"marketrelay/internal/store"
	"marketrelay/logger"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Relay.Name,
		"version": cfg.Relay.Version,
		"backend": cfg.Storage.Backend,
	}).Info("starting marketrelay")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Logging.CloudWatch.Enabled {
		logger.InitCloudWatch(cfg.Logging.CloudWatch.Region, cfg.Logging.CloudWatch.Namespace)
	}
	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.StartReport(ctx, log, 30*time.Second)
	}

	metrics.Init()

	var (
		actionRepo store.Repository[model.InitiatedAction]
		searchRepo store.Repository[model.SearchRecord]
		selectRepo store.Repository[model.SelectRecord]
		statusRepo store.Repository[model.OrderStatusRecord]
	)

	switch cfg.Storage.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Address,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.WithError(err).Error("Failed to connect to redis")
			os.Exit(1)
		}
		actionRepo = store.NewRedisRepository[model.InitiatedAction](client, "actions")
		searchRepo = store.NewRedisRepository[model.SearchRecord](client, "on_search")
		selectRepo = store.NewRedisRepository[model.SelectRecord](client, "on_select")
		statusRepo = store.NewRedisRepository[model.OrderStatusRecord](client, "on_order_status")
		defer client.Close()
	default:
		actionRepo = store.NewMemoryRepository[model.InitiatedAction]()
		searchRepo = store.NewMemoryRepository[model.SearchRecord]()
		selectRepo = store.NewMemoryRepository[model.SelectRecord]()
		statusRepo = store.NewMemoryRepository[model.OrderStatusRecord]()
	}

	gateways := make([]registry.Gateway, 0, len(cfg.Registry.Gateways))
	for _, gw := range cfg.Registry.Gateways {
		gateways = append(gateways, registry.Gateway{ID: gw.ID, URL: gw.URL})
	}
	directory := registry.NewDirectory(gateways)

	tokens := make(map[string]auth.Identity, len(cfg.Auth.Tokens))
	for _, entry := range cfg.Auth.Tokens {
		tokens[entry.Token] = auth.Identity{UID: entry.UID, Name: entry.Name}
	}

	services := server.Services{
		Dispatcher:   dispatch.NewDispatcher(directory, actionRepo, cfg.Dispatch.Timeout, cfg.Dispatch.MinInterval, log),
		SearchIngest: ingest.NewService(model.ActionSearch, searchRepo, log),
		SelectIngest: ingest.NewService(model.ActionSelect, selectRepo, log),
		StatusIngest: ingest.NewService(model.ActionOrderStatus, statusRepo, log),
		SearchPoll:   poll.NewService(model.ActionSearch, searchRepo, server.SearchTransform(), log),
		SelectPoll:   poll.NewService(model.ActionSelect, selectRepo, server.SelectTransform(), log),
		StatusPoll:   poll.NewService(model.ActionOrderStatus, statusRepo, server.OrderStatusTransform(), log),
		Resolver:     auth.NewResolver(tokens),
	}

	srv := server.NewServer(cfg.Server, services, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")
		cancel()
		if err := <-errCh; err != nil {
			log.WithError(err).Error("server shutdown reported an error")
			os.Exit(1)
		}
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("server exited")
			os.Exit(1)
		}
	}

	log.Info("marketrelay stopped")
}
