package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"content_harvester/internal/api"
	"content_harvester/internal/config"
	"content_harvester/internal/logging"
	"content_harvester/internal/publisher"
	"content_harvester/internal/ranker"
	"content_harvester/internal/scheduler"
	"content_harvester/internal/service"
	"content_harvester/internal/source/habr"
	"content_harvester/internal/source/telegram"
	"content_harvester/internal/source/vc"
	"content_harvester/internal/storage/tables"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := logging.New(os.Stdout, "info", "json")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	store := tables.New(tables.Config{
		BaseURL:   cfg.Tables.BaseURL,
		APIKey:    cfg.Tables.APIKey,
		PageSize:  cfg.Tables.PageSize,
		PageDelay: cfg.Tables.PageDelay,
		Timeout:   cfg.HTTP.Timeout,
	}, logger)

	var rk service.Ranker
	if cfg.Ranker.URL != "" {
		rk = ranker.NewRemote(ranker.RemoteConfig{
			URL:     cfg.Ranker.URL,
			Timeout: cfg.HTTP.Timeout,
		}, logger)
		logger.Info("using remote sentiment ranker", "url", cfg.Ranker.URL)
	} else {
		rk = ranker.NewVader()
		logger.Info("using local VADER sentiment ranker")
	}

	tbl := service.Tables{
		Posts:    tables.Table{DatasheetID: cfg.Tables.Posts.DatasheetID, ViewID: cfg.Tables.Posts.ViewID},
		Comments: tables.Table{DatasheetID: cfg.Tables.Comments.DatasheetID, ViewID: cfg.Tables.Comments.ViewID},
	}
	harvesterCfg := service.HarvesterConfig{Concurrency: cfg.Fetch.Concurrency}

	var harvesters []service.PlatformHarvester
	for _, src := range sources(cfg, logger) {
		harvesters = append(harvesters, service.NewHarvester(src, store, rk, tbl, logger, harvesterCfg))
	}
	if len(harvesters) == 0 {
		logger.Error("no platforms enabled")
		os.Exit(1)
	}

	// A nil *RabbitMQ must not end up inside the interface.
	var reporter service.Reporter
	if cfg.RabbitMQ.Enabled() {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		reporter = rabbitMQ
	}

	runner := service.NewRunner(harvesters, reporter, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	api.NewServer(runner, logger).RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	logger.Info("starting content harvester",
		"platforms", runner.Platforms(),
		"schedule", cfg.Schedule.Cron,
		"reporting", reporter != nil,
	)

	sched := scheduler.NewScheduler(runner, cfg.Schedule.Cron, logger)
	schedErr := sched.Start(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", "error", err)
	}

	if schedErr != nil && !errors.Is(schedErr, context.Canceled) {
		logger.Error("scheduler error", "error", schedErr)
		os.Exit(1)
	}
}

// sources builds the enabled platform sources in run order.
func sources(cfg *config.Config, logger *slog.Logger) []service.Source {
	var out []service.Source

	if cfg.Habr.Enabled {
		out = append(out, habr.New(habr.Config{
			BaseURL:     cfg.Habr.BaseURL,
			User:        cfg.Habr.User,
			Timeout:     cfg.HTTP.Timeout,
			Concurrency: cfg.Fetch.Concurrency,
		}, logger))
	}

	if cfg.Telegram.Enabled {
		sessions := telegram.NewMTProto(telegram.MTProtoConfig{
			AppID:       cfg.Telegram.APIID,
			AppHash:     cfg.Telegram.APIHash,
			Phone:       cfg.Telegram.Phone,
			Password:    cfg.Telegram.Password,
			SessionFile: cfg.Telegram.SessionFile,
			Channel:     cfg.Telegram.Channel,
			CodeInput:   os.Stdin,
		}, logger)
		out = append(out, telegram.New(sessions, telegram.Config{
			MaxPages: cfg.Telegram.MaxPages,
			PageSize: cfg.Telegram.PageSize,
		}, logger))
	}

	if cfg.VC.Enabled {
		out = append(out, vc.New(vc.Config{
			BaseURL:     cfg.VC.BaseURL,
			User:        cfg.VC.User,
			Timeout:     cfg.HTTP.Timeout,
			Concurrency: cfg.Fetch.Concurrency,
		}, logger))
	}

	return out
}
