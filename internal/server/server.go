// Package server exposes the idea workflow over a JSON HTTP API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kenhavate/internal/bootstrap"
	"kenhavate/internal/cache"
	"kenhavate/internal/config"
	"kenhavate/internal/middleware"
	"kenhavate/internal/models"
	"kenhavate/internal/notifications"
	"kenhavate/internal/observability"
	"kenhavate/internal/repository"
	"kenhavate/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	store    *repository.Store
	notifier *notifications.Notifier
	isAdmin  service.AdminCheck

	ideaService          *service.IdeaService
	collaborationService *service.CollaborationService
	revisionService      *service.RevisionService
	commentService       *service.CommentService
	userService          *service.UserService
}

// NewServer connects to the database and Redis and builds a server on top.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; notifications and caching are then disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, fmt.Errorf("server requires config and database")
	}
	middleware.InitMiddleware(cfg)

	var c *cache.Cache
	if redisClient != nil {
		c = cache.New(redisClient)
	}
	store := repository.NewStore(db, c)
	isAdmin := service.UserAdminCheck(store.Users)
	notifier := notifications.NewNotifier(redisClient)
	effects := service.Effects{
		Notifier: notifier,
		Auditor:  notifications.NewAuditLog(observability.Logger),
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("kenhavate-api"),
		store:          store,
		notifier:       notifier,
		isAdmin:        isAdmin,
	}
	s.ideaService = service.NewIdeaService(store, effects, isAdmin)
	s.collaborationService = service.NewCollaborationService(store, effects, isAdmin)
	s.revisionService = service.NewRevisionService(store, effects, isAdmin)
	s.commentService = service.NewCommentService(store, effects, isAdmin)
	s.userService = service.NewUserService(store.Users, isAdmin)

	return s, nil
}

// App builds the fiber application with middleware and routes.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:   "KeNHAVATE Workflow API",
		BodyLimit: s.bodyLimit(),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			observability.Logger.ErrorContext(c.UserContext(), "unhandled request error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

func (s *Server) bodyLimit() int {
	// Leave headroom for the multipart envelope around the attachment.
	limit := s.config.AttachmentMaxBytes + 1024*1024
	if limit <= 1024*1024 {
		return 0
	}
	return int(limit)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api", middleware.AuthRequired)

	api.Get("/thematic-areas", s.ListThematicAreas)

	users := api.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Get("/", s.AdminRequired(), s.ListUsers)

	ideas := api.Group("/ideas")
	ideas.Get("/", s.ListMyIdeas)
	ideas.Put("/draft", s.SaveDraft)
	ideas.Post("/submit", middleware.RateLimit(s.redis, 10, time.Minute, "submit_idea"), s.SubmitIdea)
	ideas.Get("/slug/:slug", s.GetIdeaBySlug)
	ideas.Get("/:id", s.GetIdea)
	ideas.Delete("/:id", s.DeleteDraft)
	ideas.Post("/:id/reopen", s.ReopenForEdit)
	ideas.Post("/:id/status", s.AdminRequired(), s.AdvanceStatus)

	// Collaboration
	ideas.Put("/:id/collaboration", s.ToggleCollaboration)
	ideas.Get("/:id/collaborators", s.ListCollaborators)
	ideas.Post("/:id/invitations", middleware.RateLimit(s.redis, 20, time.Hour, "invite"), s.SendInvitation)
	ideas.Post("/:id/collaboration-requests", middleware.RateLimit(s.redis, 5, time.Hour, "collab_request"), s.SubmitCollaborationRequest)
	ideas.Get("/:id/collaboration-requests", s.ListPendingRequests)

	requests := api.Group("/collaboration-requests")
	requests.Post("/:requestId/accept", s.AcceptRequest)
	requests.Post("/:requestId/decline", s.DeclineRequest)

	invitations := api.Group("/invitations")
	invitations.Get("/", s.ListMyInvitations)
	invitations.Post("/:requestId/accept", s.AcceptInvitation)
	invitations.Post("/:requestId/decline", s.DeclineInvitation)

	collaborators := api.Group("/collaborators")
	collaborators.Put("/:collaboratorId", s.UpdatePermissions)
	collaborators.Delete("/:collaboratorId", s.RemoveCollaborator)

	// Revisions
	ideas.Get("/:id/revisions", s.ListRevisions)
	ideas.Post("/:id/revisions", middleware.RateLimit(s.redis, 30, time.Minute, "revision"), s.CreateRevision)
	ideas.Get("/:id/revisions/compare", s.CompareRevisions)
	ideas.Get("/:id/revisions/:number", s.GetRevision)
	ideas.Get("/:id/revisions/:number/preview", s.PreviewRevision)
	ideas.Post("/:id/revisions/:number/accept", s.AcceptRevision)
	ideas.Post("/:id/revisions/:number/reject", s.RejectRevision)
	ideas.Post("/:id/revisions/:number/rollback", s.RollbackToRevision)

	// Comments
	ideas.Get("/:id/comments", s.CommentThread)
	ideas.Get("/:id/comments/search", s.SearchComments)
	ideas.Post("/:id/comments", middleware.RateLimit(s.redis, 10, time.Minute, "comment"), s.AddComment)

	comments := api.Group("/comments")
	comments.Post("/:commentId/replies", middleware.RateLimit(s.redis, 10, time.Minute, "comment"), s.AddReply)
	comments.Post("/:commentId/read", s.MarkCommentRead)
	comments.Put("/:commentId/replies-disabled", s.SetRepliesDisabled)
	comments.Delete("/:commentId", s.DeleteComment)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: when it
// is not configured the service runs without notifications.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now().UTC(),
	})
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := middleware.UserID(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewPermissionDeniedError("Reviewer access required"))
		}
		admin, err := s.isAdmin(c.UserContext(), userID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewPermissionDeniedError("Reviewer access required"))
		}
		return c.Next()
	}
}

// Start starts the server and the notification subscriber. It blocks until the listener stops.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	if err := s.notifier.Subscribe(s.shutdownCtx, s.logDelivery); err != nil {
		observability.Logger.Warn("notification subscriber not started", slog.String("error", err.Error()))
	}

	observability.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// logDelivery traces notifications as they fan out; a push gateway would attach here.
func (s *Server) logDelivery(userID uint, payload string) {
	observability.Logger.Debug("notification delivered",
		slog.Uint64("recipient_id", uint64(userID)),
		slog.Int("bytes", len(payload)),
	)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			observability.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			observability.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			observability.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	observability.Logger.Info("server shutdown complete")
	return nil
}
