// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"log"

	"timesoffice-service/internal/config"
	"timesoffice-service/internal/db"
	authHandler "timesoffice-service/internal/handlers/auth"
	performanceHandler "timesoffice-service/internal/handlers/performance"
	subscriberHandler "timesoffice-service/internal/handlers/subscriber"
	wsHandler "timesoffice-service/internal/handlers/websocket"
	"timesoffice-service/internal/middleware"
	"timesoffice-service/internal/pkg/auth"
	"timesoffice-service/internal/repository/postgres"
	"timesoffice-service/internal/scheduler"
	performanceUsecase "timesoffice-service/internal/service/performance"
	subscriberUsecase "timesoffice-service/internal/service/subscriber"
	"timesoffice-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	sched  *scheduler.Scheduler
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	ctx := context.Background()

	// ----- Logger -----
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	s.logger = logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       0,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Println("[REDIS] connected")

	// ----- JWT Manager -----
	jwtManager, err := auth.NewManager(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to build JWT manager: %w", err)
	}

	// ----- Operator credential -----
	if s.cfg.OperatorPassword == "" {
		return fmt.Errorf("OPERATOR_PASSWORD is required")
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.OperatorPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash operator password: %w", err)
	}

	// ----- Repositories -----
	dbWrapper := postgres.NewDB(pool)
	subscriberRepo := postgres.NewSubscriberRepository(pool)
	performanceRepo := postgres.NewPerformanceRepository(pool)
	totalRepo := postgres.NewTotalPerformanceRepository(pool, dbWrapper)

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	// ----- Services -----
	subscriberService := subscriberUsecase.NewSubscriberService(subscriberRepo, hub, redisClient, logger)
	performanceService := performanceUsecase.NewPerformanceService(
		subscriberRepo,
		performanceRepo,
		totalRepo,
		hub,
		logger,
	)

	// ----- Scheduler -----
	s.sched = scheduler.New(
		subscriberService,
		performanceService,
		redisClient,
		s.cfg.SnapshotCron,
		s.cfg.RunAtStartup,
		logger,
	)
	if err := s.sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	// ----- Handlers -----
	authHandlerInst := authHandler.NewAuthHandler(jwtManager, s.cfg.OperatorName, passwordHash, logger)
	subscriberHandlerInst := subscriberHandler.NewSubscriberHandler(subscriberService, logger)
	performanceHandlerInst := performanceHandler.NewPerformanceHandler(performanceService, s.sched, logger)
	wsHandlerInst := wsHandler.NewWebSocketHandler(hub, jwtManager, logger)

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(jwtManager)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
	)

	// ----- Router -----
	handlers := &Handlers{
		AuthHandler:        authHandlerInst,
		SubscriberHandler:  subscriberHandlerInst,
		PerformanceHandler: performanceHandlerInst,
		WSHandler:          wsHandlerInst,
		AuthMiddleware:     authMiddleware,
	}
	SetupRouter(s.engine, logger, handlers)

	// ----- Start HTTP -----
	log.Printf("server running on %s", s.cfg.HTTPAddr)
	return s.engine.Run(s.cfg.HTTPAddr)
}

// Stop halts the scheduled pipeline. In-flight HTTP requests finish on
// their own when the process exits.
func (s *Server) Stop() {
	if s.sched != nil {
		s.sched.Stop()
	}
}
