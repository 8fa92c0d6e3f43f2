package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"glowguide/internal/api"
	"glowguide/internal/api/handlers/health"
	"glowguide/internal/core/cache"
	"glowguide/internal/core/predictor"
	"glowguide/internal/core/skin"
	"glowguide/internal/core/wizard"
	"glowguide/internal/infrastructure/config"
	"glowguide/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("predictor_url", cfg.Predictor.BaseURL),
		zap.String("catalog_url", cfg.Catalog.BaseURL),
		zap.String("taxonomy_mode", cfg.Taxonomy.Mode),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.String("redis_auth", common.MaskSecret(cfg.Redis.Password)),
	)

	taxonomy, err := skin.NewTaxonomy(cfg.Taxonomy.Mode)
	if err != nil {
		common.LogFatal("Invalid product taxonomy", zap.Error(err))
	}

	// 外部服務
	var recommender wizard.RecommendationClient = predictor.NewRecommendationService(cfg.Predictor)
	catalog := predictor.NewCatalogService(cfg.Catalog)

	// 初始化快取
	var cacheStats health.StatsProvider
	if cfg.Cache.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		store, err := cache.NewStore(ctx, cfg)
		cancel()
		if err != nil {
			common.LogFatal("Failed to initialize cache", zap.Error(err))
		}
		defer store.Close()

		recommender = cache.NewCachedRecommender(recommender, store)
		if stats, ok := store.(health.StatsProvider); ok {
			cacheStats = stats
		}
	}

	// 會話管理
	sessions := wizard.NewSessionManager(cfg.Session, func(id string) *wizard.Controller {
		return wizard.NewController(id, taxonomy, recommender, catalog)
	})
	defer sessions.Close()

	// 設置路由
	router := api.SetupRouter(cfg, api.Dependencies{
		Sessions:   sessions,
		Taxonomy:   taxonomy,
		CacheStats: cacheStats,
	})

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		return
	}

	common.LogInfo("Server exited")
}
