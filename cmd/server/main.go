package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"sandman-server/internal/cache"
	"sandman-server/internal/config"
	"sandman-server/internal/database"
	delivery "sandman-server/internal/delivery/http"
	"sandman-server/internal/delivery/http/middleware"
	"sandman-server/internal/logger"
	"sandman-server/internal/repository"
	"sandman-server/internal/service"
	"sandman-server/internal/stage"
	"sandman-server/pkg/migration"
)

func main() {
	// Загрузка переменных окружения (.env может отсутствовать в production)
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: could not load .env file: %v\n", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		stdlog.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	log, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
	})
	if err != nil {
		stdlog.Fatalf("Не удалось инициализировать логгер: %v", err)
	}
	defer log.Sync()
	sugar := log.Sugar()
	sugar.Info("Логгер инициализирован", zap.String("logLevel", cfg.LogLevel))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// --- PostgreSQL ---
	dbPool, err := database.NewPool(ctx, cfg)
	if err != nil {
		sugar.Fatalf("Не удалось подключиться к базе данных: %v", err)
	}
	defer dbPool.Close()
	sugar.Info("Подключение к базе данных установлено")

	migrator := migration.NewMigrator(migration.Config{
		MigrationsPath: database.MigrationsPath,
		MigrationsFS:   database.MigrationsFS,
	}, dbPool)
	if err := migrator.Up(ctx); err != nil {
		sugar.Fatalf("Не удалось применить миграции: %v", err)
	}

	// --- Redis (кэш результатов) ---
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		sugar.Fatalf("Не удалось подключиться к Redis: %v", err)
	}
	sugar.Info("Подключение к Redis установлено")

	// --- Стадии конвейера ---
	stages, err := buildStages(cfg, log)
	if err != nil {
		sugar.Fatalf("Не удалось создать стадии конвейера: %v", err)
	}

	storyRepo := repository.NewPgStoryRepository(dbPool, log)
	resultCache := cache.NewRedisResultCache(redisClient, log)

	orchestrator := service.NewOrchestrator(
		storyRepo, resultCache, stages,
		cfg.DefaultVoiceID, cfg.SfxDurationSeconds, log)
	resolver := service.NewResolver(storyRepo, log)

	// --- Настройка Gin ---
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.GinZapLogger(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	prom := ginprometheus.NewPrometheus("gin")
	prom.Use(router)

	h := delivery.New(orchestrator, resolver, stages, log)
	h.RegisterRoutes(router)

	// --- Запуск HTTP сервера ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.ServerReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.ServerWriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.ServerIdleTimeout) * time.Second,
	}

	go func() {
		sugar.Infof("Сервер запускается на порту %d", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Ошибка запуска HTTP сервера: %v", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	sugar.Info("Получен сигнал завершения, начинаем остановку сервера...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Fatalf("Ошибка при остановке сервера: %v", err)
	}

	sugar.Info("Сервер успешно остановлен")
}

// buildStages wires pipeline stages from configuration. Media stages stay
// nil without credentials; their sub-resources are then simply absent.
func buildStages(cfg *config.Config, log *zap.Logger) (service.Stages, error) {
	aiClient, err := stage.NewAIClient(cfg, log)
	if err != nil {
		return service.Stages{}, err
	}

	stages := service.Stages{
		Writer: stage.NewAIWriter(aiClient, log),
	}
	if cfg.PlannerEnable {
		stages.Planner = stage.NewAIPlanner(aiClient, log)
	}

	if cfg.ElevenLabsAPIKey != "" {
		el := stage.NewElevenLabsClient(cfg.ElevenLabsAPIKey, cfg.ElevenLabsBaseURL, cfg.ElevenLabsTimeout, log)
		stages.Narrator = el
		stages.SoundDesigner = el
	} else {
		log.Warn("ELEVENLABS_API_KEY не задан: озвучка и эмбиент отключены")
	}

	if cfg.GeminiAPIKey != "" {
		stages.Illustrator = stage.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiTimeout, log)
	} else {
		log.Warn("GEMINI_API_KEY не задан: иллюстрации отключены")
	}

	return stages, nil
}
