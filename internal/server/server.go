package server

import (
	"promo-campaign-backend/internal/config"
	"promo-campaign-backend/internal/handler"
	"promo-campaign-backend/internal/middleware"
	"promo-campaign-backend/internal/service"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	echo                *echo.Echo
	purchaseHandler     *handler.PurchaseHandler
	notificationHandler *handler.NotificationHandler
	adminHandler        *handler.AdminHandler
	adminJWTSecret      string
}

func NewServer(
	validationService service.ValidationService,
	emailService service.EmailService,
	whatsappService service.WhatsAppService,
	adminService service.AdminService,
	adminCfg *config.Admin,
) *Server {
	e := echo.New()

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	// Permissive CORS, the campaign frontend is served from another origin.
	e.Use(echomiddleware.CORS())

	s := &Server{
		echo:                e,
		purchaseHandler:     handler.NewPurchaseHandler(validationService),
		notificationHandler: handler.NewNotificationHandler(emailService, whatsappService),
		adminHandler:        handler.NewAdminHandler(adminService, adminCfg),
		adminJWTSecret:      adminCfg.JWTSecret,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api.POST("/purchases/validate", s.purchaseHandler.ValidatePurchase)

	notifications := api.Group("/notifications")
	notifications.POST("/email", s.notificationHandler.SendEmail)
	notifications.POST("/whatsapp", s.notificationHandler.SendWhatsApp)

	// -------- admin dashboard --------
	api.POST("/admin/login", s.adminHandler.Login)

	admin := api.Group("/admin", middleware.AdminGuard(s.adminJWTSecret))
	admin.POST("/tickets/generate", s.adminHandler.GenerateTickets)
	admin.GET("/tickets/stats", s.adminHandler.TicketStats)
	admin.POST("/coupons/issue", s.adminHandler.IssueCoupon)
	admin.POST("/coupons/:code/void", s.adminHandler.VoidCoupon)
	admin.GET("/notifications", s.adminHandler.ListNotifications)
	admin.POST("/notifications/:id/resend", s.adminHandler.ResendNotification)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
