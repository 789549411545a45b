package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	_ "clientDirectory/docs"
	"clientDirectory/internal/auth"
	"clientDirectory/internal/config"
	"clientDirectory/internal/events"
	"clientDirectory/internal/validation"
	"clientDirectory/repository"
)

// Pinger reports database reachability for /readyz.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators the router needs.
type Deps struct {
	Users     repository.UserRepositoryI
	Companies repository.CompanyRepositoryI
	Clients   repository.ClientRepositoryI
	Links     repository.ClientUserRepositoryI
	DB        Pinger
	Publisher events.Publisher
	Metrics   *Metrics
	Logger    *zap.Logger
	Auth      config.AuthConfig
	HTTP      config.HTTPConfig
}

// NewRouter builds the gin engine with middleware and every route registered.
func NewRouter(d Deps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := d.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	h := &Handler{
		users:     d.Users,
		companies: d.Companies,
		clients:   d.Clients,
		links:     d.Links,
		pinger:    d.DB,
		validate:  validation.New(),
		events:    events.NewEmitter(d.Publisher, logger),
		logger:    logger,
		secret:    d.Auth.JWTSecret,
		tokenTTL:  d.Auth.TokenTTL,
	}

	router := gin.New()
	router.Use(RequestID())
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))
	router.Use(cors.New(corsConfig(d.HTTP.AllowOrigins)))
	router.Use(metrics.Middleware())
	if d.HTTP.RateLimitRPS > 0 {
		burst := d.HTTP.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		router.Use(RateLimit(rate.NewLimiter(rate.Limit(d.HTTP.RateLimitRPS), burst)))
	}
	router.NoRoute(func(c *gin.Context) { notFound(c, "route not found") })

	// Public routes
	router.GET("/healthz", h.Healthz)
	router.GET("/readyz", h.Readyz)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/swagger-ui", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger-ui/index.html")
	})
	router.GET("/swagger-ui/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.POST("/auth/login", h.Login)

	api := router.Group("/", auth.Authenticate(d.Auth.JWTSecret))
	admin := auth.RequireAdminMiddleware(d.Users)

	api.GET("/auth/me", h.Me)

	users := api.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.POST("", admin, h.CreateUser)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", admin, h.DeleteUser)
		users.GET("/:id/clients", h.ListUserClients)
	}

	companies := api.Group("/companies")
	{
		companies.GET("", h.ListCompanies)
		companies.POST("", admin, h.CreateCompany)
		companies.GET("/:id", h.GetCompany)
		companies.PUT("/:id", admin, h.UpdateCompany)
		companies.DELETE("/:id", admin, h.DeleteCompany)
		companies.GET("/:id/employees", h.ListCompanyEmployees)
	}

	clients := api.Group("/clients")
	{
		clients.GET("", h.ListClients)
		clients.POST("", admin, h.CreateClient)
		clients.GET("/:id", h.GetClient)
		clients.PUT("/:id", admin, h.UpdateClient)
		clients.DELETE("/:id", admin, h.DeleteClient)
		clients.GET("/:id/users", h.ListClientUsers)
		clients.POST("/:id/users", admin, h.LinkClientUser)
		clients.DELETE("/:id/users/:userID", admin, h.UnlinkClientUser)
	}

	queries := api.Group("/queries")
	{
		queries.GET("/companies/top-revenue", h.TopRevenueCompanies)
		queries.GET("/companies/by-employees", h.CompaniesByEmployees)
		queries.GET("/clients/by-user/:userID", h.ClientsByUser)
		queries.GET("/clients/by-company-name", h.ClientsByCompanyName)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// Server runs the router on an http.Server.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

func NewServer(cfg config.HTTPConfig, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              cfg.Address,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
		logger: logger,
	}
}

// Start blocks serving HTTP until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
