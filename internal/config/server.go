package config

import (
	"HomeGuardGolang/database/postgres"
	analyticsHandler "HomeGuardGolang/internal/api/analytics/handler"
	analyticsService "HomeGuardGolang/internal/api/analytics/service"
	evidenceHandler "HomeGuardGolang/internal/api/evidence/handler"
	evidenceRepository "HomeGuardGolang/internal/api/evidence/repository"
	evidenceService "HomeGuardGolang/internal/api/evidence/service"
	scanHandler "HomeGuardGolang/internal/api/scan/handler"
	scanRepository "HomeGuardGolang/internal/api/scan/repository"
	scanService "HomeGuardGolang/internal/api/scan/service"
	"HomeGuardGolang/internal/middleware"
	"HomeGuardGolang/pkg/detector"
	"HomeGuardGolang/pkg/gemini"
	"HomeGuardGolang/pkg/privacy"
	"HomeGuardGolang/pkg/redis"
	"HomeGuardGolang/pkg/risk"
	"HomeGuardGolang/pkg/s3"
	"HomeGuardGolang/pkg/tracker"
	"HomeGuardGolang/pkg/utils"
	"HomeGuardGolang/pkg/video"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"os"
)

type ServerOption func(*Server) error

type Server struct {
	engine          *fiber.App
	db              *sqlx.DB
	log             *logrus.Logger
	middleware      middleware.Middleware
	validator       *validator.Validate
	utils           utils.IUtils
	handlers        []handler
	redisServer     redis.IRedis
	geminiClient    gemini.IGemini
	s3Client        s3.ItfS3
	detectorAdapter detector.IAdapter
	frameExtractor  video.IExtractor
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithGeminiClient() ServerOption {
	return func(s *Server) error {
		client, err := gemini.NewGeminiClient()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to create Gemini client: %v", err)
			}
			return fmt.Errorf("failed to create Gemini client: %w", err)
		}
		s.geminiClient = client
		return nil
	}
}

func WithDetector() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before detector")
		}
		primary := detector.NewLocal(s.log)
		secondary := detector.NewCloud(s.log)
		s.detectorAdapter = detector.NewAdapter(primary, secondary, detector.DefaultAdapterConfig(), s.log)
		return nil
	}
}

func WithFrameExtractor() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before frame extractor")
		}
		s.frameExtractor = video.NewExtractor(s.log)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Evidence Domain
	evidenceRepo := evidenceRepository.New(s.db, s.log)
	evidenceServices := evidenceService.NewEvidenceService(s.log, evidenceService.DefaultConfig(), evidenceRepo, s.s3Client, s.utils)
	evidenceHandlers := evidenceHandler.New(s.log, s.validator, s.middleware, evidenceServices)

	// Privacy enforcement writes its audit trail through the evidence service.
	guard := privacy.NewGuard(privacy.DefaultConfig(), evidenceServices, s.log)
	scorer := risk.NewScorer(risk.DefaultConfig())

	// Scan Domain
	scanRepo := scanRepository.New(s.db, s.log)
	scanServices := scanService.NewScanService(s.log, s.detectorAdapter, guard, scorer, tracker.DefaultConfig(), evidenceServices, scanRepo, s.redisServer, s.geminiClient, s.frameExtractor, s.utils)
	scanHandlers := scanHandler.New(s.log, s.validator, s.middleware, scanServices)

	// Analytics
	analyticsServices := analyticsService.NewAnalyticsService(s.log, s.geminiClient, scorer, evidenceServices, scanRepo)
	analyticsHandlers := analyticsHandler.New(s.log, s.validator, s.middleware, analyticsServices)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, scanHandlers, evidenceHandlers, analyticsHandlers)
}

func (s *Server) Run() error {
	router := s.engine.Group("/api/v1")
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(middleware.LoggerConfig())

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
