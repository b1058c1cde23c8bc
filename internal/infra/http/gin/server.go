package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"venuebook/internal/infra/config"
	"venuebook/internal/infra/obs"
)

type VenueHTTP interface {
	List(c *gin.Context)
	ListMine(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Deactivate(c *gin.Context)
}

type AvailabilityHTTP interface {
	Calendar(c *gin.Context)
	Toggle(c *gin.Context)
	Replace(c *gin.Context)
}

type BookingHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Transition(c *gin.Context)
	ListMine(c *gin.Context)
	ListOwner(c *gin.Context)
}

type PaymentHTTP interface {
	UpdateStatus(c *gin.Context)
	ListOwner(c *gin.Context)
}

type ReviewHTTP interface {
	Submit(c *gin.Context)
	Check(c *gin.Context)
	ListForVenue(c *gin.Context)
	ListOwner(c *gin.Context)
}

type NotificationHTTP interface {
	List(c *gin.Context)
	MarkRead(c *gin.Context)
	MarkAllRead(c *gin.Context)
}

type OwnerHTTP interface {
	Dashboard(c *gin.Context)
	Analytics(c *gin.Context)
}

type AdminHTTP interface {
	ModerateVenue(c *gin.Context)
}

type Handlers struct {
	Venue          VenueHTTP
	Availability   AvailabilityHTTP
	Booking        BookingHTTP
	Payment        PaymentHTTP
	Review         ReviewHTTP
	Notification   NotificationHTTP
	Owner          OwnerHTTP
	Admin          AdminHTTP
	AuthMiddleware gin.HandlerFunc
	RateLimit      gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.RateLimit != nil {
		api.Use(h.RateLimit)
	}
	if h.AuthMiddleware != nil {
		api.Use(h.AuthMiddleware)
	}
	if h.Venue != nil {
		api.GET("/venues", h.Venue.List)
		api.POST("/venues", h.Venue.Create)
		api.GET("/venues/:id", h.Venue.Get)
		api.PUT("/venues/:id", h.Venue.Update)
		api.DELETE("/venues/:id", h.Venue.Deactivate)
		api.GET("/owner/venues", h.Venue.ListMine)
	}
	if h.Availability != nil {
		api.GET("/venues/:id/availability", h.Availability.Calendar)
		api.PUT("/venues/:id/availability", h.Availability.Toggle)
		api.PUT("/venues/:id/calendar", h.Availability.Replace)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.GET("/bookings/:id", h.Booking.Get)
		api.PUT("/bookings/:id", h.Booking.Transition)
		api.GET("/me/bookings", h.Booking.ListMine)
		api.GET("/owner/bookings", h.Booking.ListOwner)
	}
	if h.Payment != nil {
		api.PUT("/payments/:id", h.Payment.UpdateStatus)
		api.GET("/owner/payments", h.Payment.ListOwner)
	}
	if h.Review != nil {
		api.POST("/bookings/:id/review", h.Review.Submit)
		api.GET("/bookings/:id/review-check", h.Review.Check)
		api.GET("/venues/:id/reviews", h.Review.ListForVenue)
		api.GET("/owner/reviews", h.Review.ListOwner)
	}
	if h.Notification != nil {
		meGroup := api.Group("/me/notifications")
		meGroup.GET("", h.Notification.List)
		meGroup.PUT("/read-all", h.Notification.MarkAllRead)
		meGroup.PUT("/:id/read", h.Notification.MarkRead)
	}
	if h.Owner != nil {
		api.GET("/owner/dashboard", h.Owner.Dashboard)
		api.GET("/owner/analytics", h.Owner.Analytics)
	}
	if h.Admin != nil {
		api.PUT("/admin/venues/:id/status", h.Admin.ModerateVenue)
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
