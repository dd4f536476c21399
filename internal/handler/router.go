package handler

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attendance-portal/internal/auth"
	"attendance-portal/internal/httpmiddleware"
	"attendance-portal/internal/model"
)

// RouterOptions configures the middleware stack.
type RouterOptions struct {
	CORSOrigins    []string
	Limiter        httpmiddleware.Limiter // nil disables rate limiting
	RequestTimeout time.Duration
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Disposition", "X-Next-Cursor", "X-Request-ID"},
		MaxAge:        24 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			// Echo the caller's origin so credentials keep working.
			cfg.AllowOriginFunc = func(string) bool { return true }
			cfg.AllowCredentials = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// NewRouter wires middleware and routes.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	registerValidators()
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.RequestID())
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.Metrics())
	if opts.Limiter != nil {
		r.Use(httpmiddleware.RateLimit(opts.Limiter))
	}

	r.GET("/", h.Root)
	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", httpmiddleware.Timeout(opts.RequestTimeout))
	authed := auth.Authenticate(h.JWTSigningKey, h.JWTIssuer, h.Users)
	adminOnly := auth.RequireRole(model.RoleAdmin)
	staff := auth.RequireRole(model.RoleAdmin, model.RoleTeacher)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/register", authed, adminOnly, h.Register)
		authGroup.GET("/me", authed, h.Me)
	}

	students := api.Group("/students", authed)
	{
		students.POST("/upload", adminOnly, h.UploadStudents)
		students.GET("", staff, h.ListStudents)
		students.GET("/", staff, h.ListStudents)
	}

	att := api.Group("/attendance", authed, staff)
	{
		att.POST("/mark", h.MarkAttendance)
		att.GET("", h.ListAttendance)
		att.GET("/", h.ListAttendance)
		att.GET("/export", h.ExportAttendance)
		att.GET("/analytics", h.Analytics)
	}

	return r
}
