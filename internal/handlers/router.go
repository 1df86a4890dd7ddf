package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/harentsoaR/mysimo-api/internal/middleware"
	"github.com/harentsoaR/mysimo-api/internal/models"
)

type RouterConfig struct {
	CORSOrigins []string
	Tokens      middleware.TokenParser
	Logger      zerolog.Logger
}

func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(cfg.Logger),
		middleware.Recovery(cfg.Logger),
	)

	corsCfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORSOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	}
	r.Use(cors.New(corsCfg))

	authn := middleware.Authenticate(cfg.Tokens)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	api := r.Group("/api")
	api.GET("/health", h.Health)

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.Register)
		authRoutes.POST("/login", h.Login)
	}

	doctorRoutes := api.Group("/doctors")
	{
		doctorRoutes.GET("", h.ListDoctors)
		doctorRoutes.GET("/:id", h.GetDoctor)
		doctorRoutes.POST("", authn, adminOnly, h.CreateDoctor)
		doctorRoutes.PUT("/:id", authn, middleware.RequireOwnerOrAdmin(h.doctorOwner), h.UpdateDoctor)
		doctorRoutes.POST("/:id/promotions", authn, adminOnly, h.CreatePromotion)
	}

	api.GET("/specialties", h.ListSpecialties)
	api.GET("/cities", h.ListCities)

	appointmentRoutes := api.Group("/appointments")
	appointmentRoutes.Use(authn)
	{
		appointmentRoutes.POST("", h.CreateAppointment)
		appointmentRoutes.GET("/me", h.MyAppointments)
	}

	api.POST("/chat", h.Chat)

	r.NoRoute(h.NotFound)
	return r
}
