// Package router wires handlers and middleware onto an Echo instance.
package router

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/neustalgic-grooves/internal/config"
    "github.com/iliyamo/neustalgic-grooves/internal/handler"
    "github.com/iliyamo/neustalgic-grooves/internal/middleware"
)

// Handlers groups every HTTP handler the API exposes.
type Handlers struct {
    Students     *handler.StudentHandler
    Scholarships *handler.ScholarshipHandler
    Contacts     *handler.ContactHandler
    Gallery      *handler.GalleryHandler
    Dashboard    *handler.DashboardHandler
    Payments     *handler.PaymentHandler
}

// New builds the Echo instance: global middleware first, then routes.
// rdb may be nil, in which case rate limiting and caching are disabled.
func New(cfg config.Config, h Handlers, rdb *redis.Client) *echo.Echo {
    e := echo.New()
    e.HideBanner = true
    e.Validator = handler.NewValidator()

    e.Use(echomw.Recover())
    e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:  true,
        LogURI:     true,
        LogStatus:  true,
        LogLatency: true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            c.Logger().Infof("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
            return nil
        },
    }))
    e.Use(echomw.Secure())
    e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))
    // Uploads carry their own, larger limit.
    e.Use(echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{
        Limit:   cfg.BodyLimit,
        Skipper: func(c echo.Context) bool { return c.Path() == "/api/gallery/upload" },
    }))

    RegisterRoutes(e, cfg.Env)
    // Webhooks sit outside the rate limiter so processor retries are never
    // turned away.
    e.POST("/api/payments/webhook", h.Payments.Webhook)

    api := e.Group("/api", middleware.NewTokenBucket(cfg.RateLimit, rdb))
    RegisterPayments(api, h.Payments, cfg.Cache, rdb)
    RegisterStudents(api, h.Students)
    RegisterScholarships(api, h.Scholarships)
    RegisterContacts(api, h.Contacts)
    RegisterGallery(api, h.Gallery, cfg, rdb)
    RegisterDashboard(api, h.Dashboard)

    e.RouteNotFound("/api/*", func(c echo.Context) error {
        return c.JSON(http.StatusNotFound, map[string]string{"error": "Route not found"})
    })
    return e
}

// RegisterRoutes registers routes that need no middleware beyond the
// global stack.
func RegisterRoutes(e *echo.Echo, env string) {
    e.GET("/healthz", handler.Health)
    e.GET("/api/health", handler.APIHealth(env))
}

// RegisterPayments registers intent creation and the cached public config.
func RegisterPayments(g *echo.Group, h *handler.PaymentHandler, cache config.CacheConfig, rdb *redis.Client) {
    p := g.Group("/payments")
    p.POST("/create-payment-intent", h.CreateLessonIntent)
    p.POST("/create-sponsorship-intent", h.CreateSponsorshipIntent)
    p.GET("/config", h.Config, middleware.NewRedisCache(cache, rdb))
}

// RegisterStudents registers /api/students.
func RegisterStudents(g *echo.Group, h *handler.StudentHandler) {
    s := g.Group("/students")
    s.POST("/register", h.Register)
    s.GET("", h.List)
    s.GET("/:id", h.Get)
    s.PUT("/:id/first-class", h.MarkFirstClass)
    s.PUT("/:id/payment-status", h.UpdatePaymentStatus)
}

// RegisterScholarships registers /api/scholarships.  The static stats path
// is matched before /:id by Echo's router.
func RegisterScholarships(g *echo.Group, h *handler.ScholarshipHandler) {
    s := g.Group("/scholarships")
    s.POST("/apply", h.Apply)
    s.GET("", h.List)
    s.GET("/stats/overview", h.Stats)
    s.GET("/:id", h.Get)
    s.PUT("/:id/review", h.Review)
}

// RegisterContacts registers /api/contacts.
func RegisterContacts(g *echo.Group, h *handler.ContactHandler) {
    s := g.Group("/contacts")
    s.POST("", h.Create)
    s.GET("", h.List)
    s.GET("/stats/overview", h.Stats)
    s.GET("/:id", h.Get)
    s.PUT("/:id/status", h.UpdateStatus)
    s.POST("/:id/notes", h.AddNote)
}

// RegisterGallery registers /api/gallery.  The list is served from the
// Redis cache; any successful write drops the cached pages.
func RegisterGallery(g *echo.Group, h *handler.GalleryHandler, cfg config.Config, rdb *redis.Client) {
    invalidate := middleware.NewCacheInvalidator(cfg.Cache, rdb, "/api/gallery")
    s := g.Group("/gallery")
    s.POST("/upload", h.Upload, echomw.BodyLimit(uploadLimit(cfg.Media.MaxBytes)), invalidate)
    s.GET("", h.List, middleware.NewRedisCache(cfg.Cache, rdb))
    s.GET("/serve/:filename", h.Serve)
    s.GET("/:id", h.Get)
    s.PUT("/:id", h.Update, invalidate)
    s.DELETE("/:id", h.Delete, invalidate)
    s.POST("/:id/like", h.Like)
}

// uploadLimit allows for multipart framing and the text fields on top of
// the file itself.
func uploadLimit(maxBytes int64) string {
    const overheadMB = 1
    mb := maxBytes/(1<<20) + overheadMB
    return strconv.FormatInt(mb, 10) + "M"
}

// RegisterDashboard registers /api/dashboard.
func RegisterDashboard(g *echo.Group, h *handler.DashboardHandler) {
    d := g.Group("/dashboard")
    d.GET("/overview", h.Overview)
    d.GET("/analytics/monthly", h.Monthly)
}
