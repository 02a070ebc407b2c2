package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"promo-campaign-backend/internal/client"
	"promo-campaign-backend/internal/config"
	"promo-campaign-backend/internal/repository"
	"promo-campaign-backend/internal/server"
	"promo-campaign-backend/internal/service"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	db := client.InitMysqlClient(cfg.DatabaseURL)

	aiClient := client.NewAIClient(&cfg.AI)
	emailClient := client.NewResendClient("")
	whatsappClient := client.NewWhatsAppClient(cfg.WhatsApp.BaseApiURL)
	invoiceStorage := client.NewS3Storage(&cfg.S3)

	purchaseRepo := repository.NewPurchaseRepository(db)
	productRepo := repository.NewProductRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	couponRepo := repository.NewCouponRepository(db)

	settingsLoader := service.NewSettingsLoader(settingsRepo, cfg)
	templateResolver := service.NewTemplateResolver(notificationRepo)

	validationService := service.NewValidationService(
		purchaseRepo,
		productRepo,
		ticketRepo,
		notificationRepo,
		aiClient,
		invoiceStorage,
	)
	emailService := service.NewEmailService(emailClient, settingsLoader, templateResolver, notificationRepo)
	whatsappService := service.NewWhatsAppService(whatsappClient, settingsLoader, templateResolver, notificationRepo)
	adminService := service.NewAdminService(ticketRepo, couponRepo, notificationRepo, emailService, whatsappService)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(validationService, emailService, whatsappService, adminService, &cfg.Admin)

	log.Println("Starting HTTP server on", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Println("Signal received, starting graceful shutdown...")

	_, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(); err != nil {
		log.Fatal("HTTP server shutdown error")
	}
}
