package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bouramah/GovTrack-sub006/internal/infra/config"
	"github.com/bouramah/GovTrack-sub006/internal/transport/http/handlers"
	"github.com/bouramah/GovTrack-sub006/internal/transport/http/middleware"
	"github.com/bouramah/GovTrack-sub006/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Instructions *usecase.InstructionService
	Tasks        *usecase.TaskService
	Lifecycle    *usecase.LifecycleService
	Assignments  *usecase.AssignmentService
	Discussions  *usecase.DiscussionService
	Entities     *usecase.EntityService
	Users        *usecase.UserService
	Roles        *usecase.RoleService
	Authz        *usecase.AuthzService
	Audit        *usecase.AuditRecorder
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.App.CORSAllowedOrigins))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	healthOptions := make([]handlers.HealthOption, 0, 2)

	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}

	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.RequireActor(middleware.AuthConfig{
		Secret: deps.Config.JWT.Secret,
		Issuer: deps.Config.JWT.Issuer,
	}))

	writeLimit := buildRateLimit(deps, "api_write", func(rl config.RateLimitSettings) int { return rl.WriteMaxAttempts })
	readLimit := buildRateLimit(deps, "api_read", func(rl config.RateLimitSettings) int { return rl.ReadMaxAttempts })

	svc := deps.Services

	if svc.Instructions != nil {
		instructionGroup := api.Group("/instructions")
		applyLimits(instructionGroup, writeLimit)

		instructionHandler := handlers.NewInstructionHandler(svc.Instructions, svc.Lifecycle, svc.Assignments)
		instructionHandler.RegisterRoutes(instructionGroup)

		if svc.Tasks != nil {
			taskHandler := handlers.NewTaskHandler(svc.Tasks, svc.Lifecycle, svc.Assignments)
			instructionGroup.POST("/:id/tasks", taskHandler.CreateUnderInstruction)
			instructionGroup.GET("/:id/tasks", taskHandler.ListUnderInstruction)

			taskGroup := api.Group("/tasks")
			applyLimits(taskGroup, writeLimit)
			taskHandler.RegisterRoutes(taskGroup)

			if svc.Discussions != nil {
				discussionHandler := handlers.NewDiscussionHandler(svc.Discussions)
				instructionGroup.POST("/:id/discussions", discussionHandler.PostOnInstruction)
				instructionGroup.GET("/:id/discussions", discussionHandler.ListOnInstruction)
				taskGroup.POST("/:id/discussions", discussionHandler.PostOnTask)
				taskGroup.GET("/:id/discussions", discussionHandler.ListOnTask)
			}
		}
	}

	if svc.Assignments != nil {
		assignmentGroup := api.Group("/assignments")
		applyLimits(assignmentGroup, writeLimit)
		assignmentHandler := handlers.NewAssignmentHandler(svc.Assignments)
		assignmentHandler.RegisterRoutes(assignmentGroup)
	}

	if svc.Entities != nil {
		entityGroup := api.Group("/entities")
		applyLimits(entityGroup, writeLimit)
		entityHandler := handlers.NewEntityHandler(svc.Entities)
		entityHandler.RegisterRoutes(entityGroup)
	}

	if svc.Users != nil {
		userGroup := api.Group("/users")
		applyLimits(userGroup, writeLimit)
		userHandler := handlers.NewUserHandler(svc.Users)
		userHandler.RegisterRoutes(userGroup)
	}

	if svc.Roles != nil {
		roleGroup := api.Group("/roles")
		applyLimits(roleGroup, writeLimit)
		roleHandler := handlers.NewRoleHandler(svc.Roles)
		roleHandler.RegisterRoutes(roleGroup)

		permissionGroup := api.Group("/permissions")
		applyLimits(permissionGroup, writeLimit)
		permissionGroup.GET("", roleHandler.ListPermissions)
		permissionGroup.POST("", roleHandler.CreatePermission)
	}

	if svc.Audit != nil && svc.Authz != nil {
		auditGroup := api.Group("/audit")
		applyLimits(auditGroup, readLimit)
		auditHandler := handlers.NewAuditHandler(svc.Audit, svc.Authz)
		auditHandler.RegisterRoutes(auditGroup)
	}

	return r
}

func applyLimits(group *gin.RouterGroup, limits []gin.HandlerFunc) {
	if len(limits) > 0 {
		group.Use(limits...)
	}
}

func buildRateLimit(deps Dependencies, name string, pick func(config.RateLimitSettings) int) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := pick(deps.Config.RateLimit)
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
