package api

import (
	"net/http"

	"duoadmin/api/middleware"
	"duoadmin/config"

	"github.com/gin-gonic/gin"
)

// ControllerRegister is a controller that mounts its routes on a group.
type ControllerRegister interface {
	RegisterRoutes(router *gin.RouterGroup)
}

// MiddlewareRegister returns an extra middleware installed after the defaults.
type MiddlewareRegister func() gin.HandlerFunc

// Route is a single custom route mounted at the engine root.
type Route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
}

// Router Route configuration
type Router struct {
	engine       *gin.Engine
	config       *config.Config
	public       []ControllerRegister
	controllers  []ControllerRegister
	customRoutes []Route
}

// NewRouter Create route configuration
// public controllers are mounted without the session middleware (health checks)
func NewRouter(
	cfg *config.Config,
	public []ControllerRegister,
	controllers []ControllerRegister,
	middlewares []MiddlewareRegister,
	customRoutes []Route,
) *Router {
	// Set Gin mode based on environment
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Add middleware (order is important)
	engine.Use(middleware.RequestIDMiddleware())                      // 1. Generate request ID first
	engine.Use(middleware.RecoveryMiddleware())                       // 2. Recovery middleware
	engine.Use(middleware.LoggingMiddleware())                        // 3. Logging middleware
	engine.Use(middleware.CORSMiddleware(&cfg.CORS))                  // 4. CORS
	engine.Use(middleware.RateLimitMiddleware(&cfg.Server.RateLimit)) // 5. Rate limiting
	for _, m := range middlewares {
		engine.Use(m())
	}

	return &Router{
		engine:       engine,
		config:       cfg,
		public:       public,
		controllers:  controllers,
		customRoutes: customRoutes,
	}
}

// SetupRoutes Set up all routes
func (r *Router) SetupRoutes() {
	apiGroup := r.engine.Group("/api/v1")
	for _, c := range r.public {
		c.RegisterRoutes(apiGroup)
	}

	// Everything else acts on behalf of the operator
	secured := apiGroup.Group("", middleware.SessionMiddleware())
	for _, c := range r.controllers {
		c.RegisterRoutes(secured)
	}

	for _, route := range r.customRoutes {
		r.engine.Handle(route.Method, route.Path, route.Handler)
	}

	r.engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    r.config.App.Name,
			"version": r.config.App.Version,
			"env":     r.config.App.Env,
			"health":  "/api/v1/health",
		})
	})
}

// GetEngine Get Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
