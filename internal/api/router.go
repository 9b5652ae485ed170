package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/parkview-commons/rental-booking-backend/internal/auth"
	"github.com/parkview-commons/rental-booking-backend/internal/booking"
	bookingHttp "github.com/parkview-commons/rental-booking-backend/internal/booking/http"
	"github.com/parkview-commons/rental-booking-backend/internal/item"
	itemHttp "github.com/parkview-commons/rental-booking-backend/internal/item/http"
	"github.com/parkview-commons/rental-booking-backend/internal/metrics"
	"github.com/parkview-commons/rental-booking-backend/internal/notify"
	"github.com/parkview-commons/rental-booking-backend/internal/pkg/ratelimit"
	"github.com/parkview-commons/rental-booking-backend/internal/user"
)

// Config holds everything the router needs to assemble the HTTP surface.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	UserService    user.Service
	ItemService    item.Service
	BookingService booking.Service
	NotifyRepo     notify.Repository

	JWTManager *auth.JWTManager
	Limiter    ratelimit.Limiter
	Logger     *zap.Logger
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth, rate
// limiting, metrics) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(metrics.GinMiddleware())
	if cfg.Limiter != nil {
		r.Use(ratelimit.Middleware(cfg.Limiter, cfg.Logger))
	}

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	} else {
		corsConfig.AllowOrigins = []string{
			"http://localhost:3000", // local frontend
			"http://localhost:8081", // Swagger
		}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	// Operational endpoints stay outside the versioned API.
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	// teamMiddleware: Further checks if the authenticated user has rental-team privileges.
	teamMiddleware := RequireTeam(cfg.UserService)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	authHandler := NewAuthHandler(cfg.UserService, cfg.JWTManager)
	notificationHandler := NewNotificationHandler(cfg.NotifyRepo)
	itemHandler := itemHttp.NewHandler(cfg.ItemService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService, cfg.UserService)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		v1.POST("/auth/register", authHandler.Register)
		v1.POST("/auth/login", authHandler.Login)
		v1.GET("/users/me", authMiddleware, authHandler.Me)
		v1.GET("/notifications", authMiddleware, notificationHandler.ListMine)

		itemHttp.RegisterRoutes(v1, itemHandler, authMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware, teamMiddleware)
	}

	return r
}
