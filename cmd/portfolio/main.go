package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"

	"github.com/savankapadiya/Token-Portfolio/internal/cache"
	"github.com/savankapadiya/Token-Portfolio/internal/client"
	"github.com/savankapadiya/Token-Portfolio/internal/config"
	"github.com/savankapadiya/Token-Portfolio/internal/pkg/metrics"
	"github.com/savankapadiya/Token-Portfolio/internal/port"
	"github.com/savankapadiya/Token-Portfolio/internal/restapi"
	"github.com/savankapadiya/Token-Portfolio/internal/service"
	"github.com/savankapadiya/Token-Portfolio/internal/storage"
	"github.com/savankapadiya/Token-Portfolio/internal/view"
	"github.com/savankapadiya/Token-Portfolio/internal/wallet"

	"github.com/savankapadiya/Token-Portfolio/internal/pkg/utils"
)

func main() {
	// Bootstrap logging with logrus until the config is loaded.
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()

	slogHandler := zapslog.NewHandler(zapLogger.Core(), &zapslog.HandlerOptions{})
	slog.SetDefault(slog.New(slogHandler))

	cfgPath := utils.GetEnv("CONFIG_PATH", "config/config.yaml")
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Warnf("Invalid log level in config: %s. Defaulting to Info.", cfg.Logging.Level)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if cfg.Logging.File != "" {
		file, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			log.SetOutput(file)
		} else {
			log.Infof("Failed to log to file, using default stdout: %v", err)
		}
	}

	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	metrics.MustRegisterMetrics()

	// Market data pipeline: fetcher -> queue -> client, over the cache.
	store := cache.NewStore(
		time.Duration(cfg.Cache.MarketTTLMinutes)*time.Minute,
		time.Duration(cfg.Cache.SearchTTLMinutes)*time.Minute,
		zapLogger,
	)
	fetcher := client.NewFetcher(
		time.Duration(cfg.CoinGecko.RequestTimeoutMillis)*time.Millisecond,
		cfg.Queue.MaxRetries,
		time.Duration(cfg.Queue.BaseBackoffMillis)*time.Millisecond,
		zapLogger,
	)
	queue := client.NewQueue(fetcher, time.Duration(cfg.Queue.MinIntervalMillis)*time.Millisecond, zapLogger)

	coinGeckoClient := client.NewCoinGeckoClient(client.CoinGeckoConfig{
		BaseURL:          cfg.CoinGecko.BaseURL,
		ProBaseURL:       cfg.CoinGecko.ProBaseURL,
		APIKey:           cfg.CoinGecko.ApiKey,
		ProAPIKey:        cfg.CoinGecko.ProApiKey,
		ThrottleCooldown: time.Duration(cfg.CoinGecko.ThrottleCooldownMs) * time.Millisecond,
	}, store, queue, fetcher, zapLogger)
	zapLogger.Info("CoinGecko client initialized", zap.String("baseURL", cfg.CoinGecko.BaseURL))

	localStore, err := storage.NewLocalStore(cfg.Storage.Dir, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize local storage", zap.Error(err))
	}

	portfolioSvc := service.NewPortfolioService(coinGeckoClient, localStore, zapLogger)
	zapLogger.Info("PortfolioService initialized")

	var resolver port.BalanceResolver
	if cfg.Wallet.UseMock || cfg.Wallet.RPCURL == "" {
		resolver = wallet.NewStaticResolver(cfg.Wallet.MockBalances, zapLogger)
		zapLogger.Info("Using static balance resolver")
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		resolver, err = wallet.NewEVMResolver(
			ctx,
			cfg.Wallet.RPCURL,
			cfg.Wallet.TrackedContracts,
			time.Duration(cfg.Wallet.CallTimeoutMs)*time.Millisecond,
			zapLogger,
		)
		cancel()
		if err != nil {
			zapLogger.Fatal("Failed to connect EVM resolver", zap.String("rpcURL", cfg.Wallet.RPCURL), zap.Error(err))
		}
		zapLogger.Info("EVM balance resolver connected", zap.Int64("chainID", cfg.Wallet.ChainID))
	}

	walletSvc := service.NewWalletValueService(coinGeckoClient, resolver, cfg.Wallet.MaxConcurrent, zapLogger)

	model := view.NewModel(portfolioSvc, cfg.View.PageSize, zapLogger)
	search := view.NewDebouncedSearch(
		coinGeckoClient,
		time.Duration(cfg.View.SearchDebounceMillis)*time.Millisecond,
		zapLogger,
	)

	// Initialize Gin router
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true // Adjust for production
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.Use(utils.ZapLoggerMiddleware(zapLogger))
	router.Use(gin.Recovery())

	handler := restapi.NewPortfolioHandler(portfolioSvc, walletSvc, model, search, coinGeckoClient, cfg.Wallet.ChainID, zapLogger)
	restapi.RegisterPortfolioRoutes(router, handler)

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	zapLogger.Info("Prometheus metrics endpoint enabled", zap.String("path", "/metrics"))

	// Pprof endpoints (for debugging performance issues)
	pprofRouter := router.Group("/debug/pprof")
	{
		pprofRouter.GET("/", gin.WrapF(pprof.Index))
		pprofRouter.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pprofRouter.GET("/profile", gin.WrapF(pprof.Profile))
		pprofRouter.POST("/symbol", gin.WrapF(pprof.Symbol))
		pprofRouter.GET("/symbol", gin.WrapF(pprof.Symbol))
		pprofRouter.GET("/trace", gin.WrapF(pprof.Trace))
		pprofRouter.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
		pprofRouter.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
		pprofRouter.GET("/heap", gin.WrapH(pprof.Handler("heap")))
	}
	zapLogger.Info("Pprof endpoints enabled under /debug/pprof")

	// Warm the token list in the background so the first page render
	// has data.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := portfolioSvc.Refresh(ctx); err != nil {
			zapLogger.Error("Initial watchlist refresh failed", zap.Error(err))
		} else {
			zapLogger.Info("Initial watchlist refresh completed")
		}
	}()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info(fmt.Sprintf("Server starting on port %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting")
}
