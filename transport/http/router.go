// Package http is the gin transport over the attendance service. It binds
// requests, maps core errors to status codes, and renders what the core
// returns; no attendance decision is made here.
package http

import (
	"embed"
	"html/template"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/alanbarret/wallet-attendance-system/ports"
	"github.com/alanbarret/wallet-attendance-system/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// Options configures the router.
type Options struct {
	// AdminPassword and JWTSecret guard the operator endpoints. An empty
	// password leaves them open (development mode).
	AdminPassword string
	JWTSecret     string

	// RotationInterval and GracePeriod are shown on the home page.
	RotationIntervalSeconds int64
	GracePeriodSeconds      int64
}

// SetupRouter builds the gin engine with all routes attached.
func SetupRouter(svc *service.AttendanceService, registrar ports.Registrar, opts Options, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	handlers := NewHandlers(svc, registrar, opts, logger)

	// Display plumbing.
	router.GET("/", handlers.Home)
	router.GET("/qr", handlers.QRImage)
	router.GET("/scan", handlers.ScanPage)
	router.GET("/attendance", handlers.AttendancePage)
	router.GET("/register", handlers.RegisterPage)

	// Core operations.
	api := router.Group("/api")
	{
		api.POST("/attendance", handlers.MarkAttendance)
		api.GET("/attendance", handlers.ListAttendance)
	}

	// Operator endpoints.
	auth := router.Group("/auth")
	{
		auth.POST("/login", handlers.OperatorLogin)
	}
	admin := router.Group("/api")
	admin.Use(RequireOperator(opts, logger))
	{
		admin.POST("/register", handlers.RegisterEmployee)
		admin.GET("/employees", handlers.ListEmployees)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
