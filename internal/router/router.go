package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clinicdesk/internal/config"
	"clinicdesk/internal/domain"
	v1 "clinicdesk/internal/handler/v1"
	"clinicdesk/internal/middleware"
	"clinicdesk/pkg/auth"
	"clinicdesk/pkg/metrics"
)

type Deps struct {
	Config        *config.Config
	Logger        *zap.Logger
	JWTManager    *auth.JWTManager
	Collector     *metrics.Collector
	Auth          *v1.AuthHandler
	Appointments  *v1.AppointmentHandler
	Consultations *v1.ConsultationHandler
}

// New assembles the gin engine: CORS, metrics, the health and metrics
// endpoints, and the authenticated /api/v1 surface.
func New(d Deps) *gin.Engine {
	if d.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logging(d.Logger))
	r.Use(middleware.Metrics(d.Collector))
	r.Use(cors.New(cors.Config{
		AllowOrigins: d.Config.CORS.AllowedOrigins,
		AllowMethods: d.Config.CORS.AllowedMethods,
		AllowHeaders: d.Config.CORS.AllowedHeaders,
		MaxAge:       d.Config.CORS.MaxAge,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": d.Config.App.Name,
			"version": d.Config.App.Version,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", d.Auth.Login)
		authGroup.POST("/refresh", d.Auth.Refresh)
		authGroup.POST("/change-password", middleware.Auth(d.JWTManager), d.Auth.ChangePassword)
	}

	protected := api.Group("")
	protected.Use(middleware.Auth(d.JWTManager))

	appts := protected.Group("/appointments")
	{
		appts.GET("", d.Appointments.List)
		appts.POST("", d.Appointments.Create)
		appts.GET("/today", d.Appointments.ListToday)
		appts.POST("/conflicts", d.Appointments.CheckConflicts)
		appts.PUT("/status", d.Appointments.ChangeStatus)
		appts.GET("/:id", d.Appointments.Get)
		appts.PUT("/:id", d.Appointments.Update)
		appts.POST("/:id/cancel", d.Appointments.Cancel)
	}

	cal := protected.Group("/calendar")
	{
		cal.GET("/events", d.Appointments.CalendarEvents)
		cal.POST("/slot", d.Appointments.SlotFromSelection)
	}

	// only clinical staff run consultations; receptionists keep the
	// scheduling surface
	cons := protected.Group("/consultations")
	cons.Use(middleware.RequireRole(domain.RoleAdmin, domain.RoleDoctor, domain.RoleNurse))
	{
		cons.GET("/active", d.Consultations.Active)
		cons.GET("/active/:appointmentId", d.Consultations.Bootstrap)
		cons.POST("/leave", d.Consultations.Leave)
		cons.POST("/:appointmentId/open", d.Consultations.Open)
		cons.POST("/:appointmentId/finalize", d.Consultations.Finalize)
		cons.POST("/:appointmentId/rollback", d.Consultations.Rollback)
	}

	return r
}
