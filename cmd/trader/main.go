package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"volarb/internal/allocation"
	"volarb/internal/config"
	cronrunner "volarb/internal/cron"
	"volarb/internal/db"
	"volarb/internal/handler"
	"volarb/internal/logger"
	"volarb/internal/marketdata/yahoo"
	"volarb/internal/portfolio"
	"volarb/internal/report"
	gormrepository "volarb/internal/repository/gorm"
	"volarb/internal/scanner"
	"volarb/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("VA_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	envOnly := false
	if raw := os.Getenv("VA_ENV_ONLY"); raw != "" {
		envOnly = strings.EqualFold(raw, "true") || raw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	marketHTTP := &http.Client{Timeout: cfg.Market.Timeout}
	market := yahoo.NewClient(marketHTTP, cfg.Market.BaseURL)
	store := gormrepository.New(dbConn.Gorm)

	cycleService := &service.DailyCycleService{
		Store:  store,
		Market: market,
		Scanner: &scanner.Scanner{
			Market:       market,
			Config:       cfg.Scanner,
			RiskFreeRate: cfg.Portfolio.RiskFreeRate,
			Logger:       logger,
		},
		Policy: &allocation.Policy{Config: cfg.Portfolio, Logger: logger},
		Snapshotter: &portfolio.Snapshotter{
			RiskFreeRate:        cfg.Portfolio.RiskFreeRate,
			Tickers:             cfg.Portfolio.Tickers,
			AllocationPerTicker: cfg.Portfolio.AllocationPerTicker,
		},
		Config: cfg.Portfolio,
		Logger: logger,
	}
	notifier := &report.Notifier{Config: cfg.Email, Logger: logger}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	portfolioHandler := &handler.PortfolioHandler{Store: store, Logger: logger}
	portfolioHandler.Register(engine)
	cycleHandler := &handler.CycleHandler{Service: cycleService, Logger: logger}
	cycleHandler.Register(engine)
	if cfg.Server.DashboardDir != "" {
		engine.StaticFile("/", cfg.Server.DashboardDir+"/dashboard.html")
	}

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runCycle := func(ctx context.Context) {
		result, err := cycleService.RunOnce(ctx, time.Now())
		if err != nil {
			logger.Error("daily cycle failed", zap.Error(err))
			return
		}
		summary := report.Build(result, cfg.Portfolio.MaxTotalPositions)
		logger.Info("daily cycle done",
			zap.Stringer("date", summary.Date),
			zap.Int("opened", len(summary.Opened)),
			zap.Int("closed", len(summary.Closed)),
			zap.String("portfolio_value", summary.PortfolioValue.StringFixed(2)),
		)
		if err := notifier.Send(summary); err != nil {
			logger.Warn("summary email failed", zap.Error(err))
		}
	}

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cycle.Enabled {
		if _, err := cronRunner.Add("daily-cycle", cfg.Cycle.Spec, runCycle); err != nil {
			logger.Fatal("invalid cycle cron spec", zap.String("spec", cfg.Cycle.Spec), zap.Error(err))
		}
		cronRunner.Start()
	}
	if cfg.Cycle.RunOnStart {
		go runCycle(ctx)
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	if cfg.Cycle.Enabled {
		cronRunner.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}
}
