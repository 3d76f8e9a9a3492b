package routes

import (
	"net/http"
	"time"

	"kioskcms/controllers"
	"kioskcms/internal/logger"
	"kioskcms/internal/ratelimit"
	"kioskcms/middlewares"
	"kioskcms/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers bundles every controller the router serves.
type Handlers struct {
	Bubbles  *controllers.BubbleController
	Media    *controllers.MediaController
	Speakers *controllers.SpeakerController
	Home     *controllers.HomeController
	Kiosk    *controllers.KioskController
	Auth     *controllers.AuthController
	// KioskFeed is the websocket change-feed handler. Optional.
	KioskFeed gin.HandlerFunc
}

type RouterConfig struct {
	AllowedOrigins []string
	TrustedProxies []string
	// LoginLimiter throttles /auth/login per client IP. Optional.
	LoginLimiter ratelimit.Limiter
}

// NewRouter builds the gin engine. Kiosk reads are public; every mutation
// goes through the bearer-token middleware.
func NewRouter(cfg RouterConfig, h Handlers, auth services.Authenticator, log *logger.Logger) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery(), middlewares.RequestLogger(log))
	router.MaxMultipartMemory = services.MaxUploadBytes + 1<<20

	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	corsConfig := cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	public := router.Group("/")
	protected := router.Group("/")
	protected.Use(middlewares.AuthMiddleware(auth))

	var loginGuard []gin.HandlerFunc
	if cfg.LoginLimiter != nil {
		loginGuard = append(loginGuard, middlewares.RateLimit(cfg.LoginLimiter, log))
	}
	SetupAuthRoutes(public, protected, h.Auth, loginGuard...)
	SetupBubbleRoutes(public, protected, h.Bubbles)
	SetupMediaRoutes(public, protected, h.Media)
	SetupSpeakerRoutes(public, protected, h.Speakers)
	SetupHomeRoutes(public, protected, h.Home)
	SetupKioskRoutes(public, h.Kiosk, h.KioskFeed)

	return router, nil
}
