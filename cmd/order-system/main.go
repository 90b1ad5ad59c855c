package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"order-system/internal/cache"
	"order-system/internal/config"
	"order-system/internal/connections/database"
	"order-system/internal/connections/rabbitmq"
	"order-system/internal/connections/redisdb"
	"order-system/internal/httpx"
	"order-system/internal/logger"
	"order-system/internal/notifier"
	"order-system/internal/order/handlers"
	"order-system/internal/order/service"
	"order-system/internal/storage/postgres"
	"order-system/internal/subscriber"
)

func main() {
	mode := flag.String("mode", "order-service", "order-service | notification-subscriber")
	cfgPath := flag.String("config", "", "path to YAML config (default: config.yaml)")
	port := flag.Int("port", 0, "override HTTP port for order-service")
	flag.Parse()

	lg := logger.New(*mode)

	path := *cfgPath
	if path == "" {
		var err error
		if path, err = config.FindConfig(); err != nil {
			lg.Error("config_not_found", err, nil)
			os.Exit(1)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		lg.Error("config_load_failed", err, map[string]any{"path": path})
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch *mode {
	case "order-service":
		if err := runOrderService(ctx, cfg, lg); err != nil {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	case "notification-subscriber":
		if err := runSubscriber(ctx, cfg, lg); err != nil {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "--mode must be order-service or notification-subscriber")
		os.Exit(2)
	}
}

func runOrderService(ctx context.Context, cfg config.Config, lg *logger.Logger) error {
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()
	lg.Info("db_connected", map[string]any{"host": cfg.Database.Host, "database": cfg.Database.Database})

	rmq, err := rabbitmq.Dial(cfg.RabbitMQ)
	if err != nil {
		return err
	}
	defer rmq.Close()
	if err := rmq.DeclareTopology(); err != nil {
		return err
	}
	lg.Info("rabbitmq_connected", map[string]any{"host": cfg.RabbitMQ.Host})

	rdb, err := redisdb.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()
	lg.Info("redis_connected", map[string]any{"host": cfg.Redis.Host})

	store := postgres.New(pool, cfg.Transaction.Timeout())
	engine := service.NewEngine(store, notifier.NewRabbit(rmq), lg)
	cached := cache.NewOrders(engine, cache.NewRedisKV(rdb), cfg.Cache.TTL(), lg)

	mux := http.NewServeMux()
	handlers.NewOrderHandler(cached, lg).Register(mux)

	addr := ":" + strconv.Itoa(cfg.Server.Port)
	lg.Info("service_started", map[string]any{"addr": addr})
	return httpx.New(addr, mux).Run(ctx)
}

func runSubscriber(ctx context.Context, cfg config.Config, lg *logger.Logger) error {
	rmq, err := rabbitmq.Dial(cfg.RabbitMQ)
	if err != nil {
		return err
	}
	defer rmq.Close()
	if err := rmq.DeclareTopology(); err != nil {
		return err
	}
	return subscriber.Run(ctx, rmq, lg)
}
