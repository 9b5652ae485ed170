package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/parkview-commons/rental-booking-backend/internal/api"
	"github.com/parkview-commons/rental-booking-backend/internal/auth"
	"github.com/parkview-commons/rental-booking-backend/internal/booking"
	"github.com/parkview-commons/rental-booking-backend/internal/item"
	"github.com/parkview-commons/rental-booking-backend/internal/notify"
	"github.com/parkview-commons/rental-booking-backend/internal/pkg/ratelimit"
	"github.com/parkview-commons/rental-booking-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	JWTSecret    string
	JWTTTL       time.Duration
	BcryptCost   int

	// RedisAddr selects the shared rate limiter backend. Empty means the
	// in-process limiter.
	RedisAddr       string
	RateLimitPerMin int
	RateLimitWindow time.Duration

	Logger *zap.Logger
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		limiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimitPerMin, cfg.RateLimitWindow)
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitPerMin, cfg.RateLimitWindow)
	}

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher)

	// Item Module
	itemRepo := item.NewPgxRepository(cfg.DBPool)
	itemService := item.NewService(itemRepo)

	// Notification Module
	notifyRepo := notify.NewPgxRepository(cfg.DBPool)
	notifier := notify.NewService(notifyRepo, cfg.Logger)

	// Booking Module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo, itemService, userService, notifier, cfg.Logger)

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		UserService:    userService,
		ItemService:    itemService,
		BookingService: bookingService,
		NotifyRepo:     notifyRepo,
		JWTManager:     jwtManager,
		Limiter:        limiter,
		Logger:         cfg.Logger,
	})

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
	}
}
