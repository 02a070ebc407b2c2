package service

import (
	"context"
	"fmt"
	"log"
	"promo-campaign-backend/internal/client"
	"promo-campaign-backend/internal/dto"
	"promo-campaign-backend/internal/metrics"
	"promo-campaign-backend/internal/model"
	"promo-campaign-backend/internal/repository"
	"strings"
)

type WhatsAppService interface {
	Dispatch(ctx context.Context, req *dto.SendWhatsAppRequest) (*dto.DispatchResponse, error)
}

type whatsappServiceImpl struct {
	whatsappClient   client.WhatsAppClient
	settingsLoader   SettingsLoader
	templateResolver TemplateResolver
	notificationRepo repository.NotificationRepository
}

func NewWhatsAppService(
	whatsappClient client.WhatsAppClient,
	settingsLoader SettingsLoader,
	templateResolver TemplateResolver,
	notificationRepo repository.NotificationRepository,
) WhatsAppService {
	return &whatsappServiceImpl{
		whatsappClient:   whatsappClient,
		settingsLoader:   settingsLoader,
		templateResolver: templateResolver,
		notificationRepo: notificationRepo,
	}
}

// NormalizePhone strips everything but digits and prefixes the country code
// when it is not already there.
func NormalizePhone(raw, countryCode string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	number := digits.String()
	if number == "" {
		return ""
	}
	// An empty code would make HasPrefix vacuously true and skip the
	// prefix entirely, so only a real code is applied.
	if countryCode != "" && !strings.HasPrefix(number, countryCode) {
		number = countryCode + number
	}
	return number
}

func (s *whatsappServiceImpl) Dispatch(ctx context.Context, req *dto.SendWhatsAppRequest) (*dto.DispatchResponse, error) {
	settings, err := s.settingsLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	if !settings.WhatsAppEnabled {
		reason := "el canal de WhatsApp está deshabilitado en la configuración"
		s.markSkipped(ctx, req.NotificationLogID, reason)
		metrics.NotificationsTotal.WithLabelValues(model.ChannelWhatsApp, model.NotificationSkipped).Inc()
		return &dto.DispatchResponse{
			Success:           true,
			Skipped:           true,
			Reason:            reason,
			NotificationLogID: req.NotificationLogID,
		}, nil
	}

	if settings.WhatsAppToken == "" || settings.WhatsAppPhoneID == "" {
		s.markFailed(ctx, req.NotificationLogID, "faltan las credenciales de WhatsApp Business")
		metrics.NotificationsTotal.WithLabelValues(model.ChannelWhatsApp, model.NotificationFailed).Inc()
		return nil, fmt.Errorf("%w: agrega el token y el phone id de WhatsApp en la configuración", ErrMissingCredentials)
	}

	creds := client.WhatsAppCredentials{
		Token:   settings.WhatsAppToken,
		PhoneID: settings.WhatsAppPhoneID,
	}
	to := NormalizePhone(req.To, settings.CountryCode)

	var resolved *ResolvedMessage
	if req.TemplateKey != "" {
		resolved, err = s.templateResolver.Resolve(ctx, req.TemplateKey, model.ChannelWhatsApp, req.TemplateData)
		if err != nil {
			return nil, err
		}
	}

	var messageID string
	switch {
	case resolved != nil && resolved.WhatsAppTemplate != "":
		messageID, err = s.whatsappClient.SendTemplate(ctx, creds, to, resolved.WhatsAppTemplate, resolved.Params)
	case resolved != nil:
		messageID, err = s.whatsappClient.SendText(ctx, creds, to, resolved.Body)
	case req.Message != "":
		messageID, err = s.whatsappClient.SendText(ctx, creds, to, req.Message)
	default:
		return nil, fmt.Errorf("%w: ni plantilla ni mensaje de WhatsApp", ErrMissingContent)
	}

	if err != nil {
		s.markFailed(ctx, req.NotificationLogID, err.Error())
		metrics.NotificationsTotal.WithLabelValues(model.ChannelWhatsApp, model.NotificationFailed).Inc()
		return nil, fmt.Errorf("send whatsapp to %s: %w", to, err)
	}

	s.markSent(ctx, req.NotificationLogID, messageID)
	metrics.NotificationsTotal.WithLabelValues(model.ChannelWhatsApp, model.NotificationSent).Inc()

	return &dto.DispatchResponse{
		Success:           true,
		MessageID:         messageID,
		NotificationLogID: req.NotificationLogID,
	}, nil
}

func (s *whatsappServiceImpl) markSent(ctx context.Context, logID, providerMessageID string) {
	if logID == "" {
		return
	}
	if err := s.notificationRepo.MarkSent(ctx, logID, providerMessageID); err != nil {
		log.Printf("mark notification %s sent: %v", logID, err)
	}
}

func (s *whatsappServiceImpl) markFailed(ctx context.Context, logID, errMsg string) {
	if logID == "" {
		return
	}
	if err := s.notificationRepo.MarkFailed(ctx, logID, errMsg); err != nil {
		log.Printf("mark notification %s failed: %v", logID, err)
	}
}

func (s *whatsappServiceImpl) markSkipped(ctx context.Context, logID, reason string) {
	if logID == "" {
		return
	}
	if err := s.notificationRepo.MarkSkipped(ctx, logID, reason); err != nil {
		log.Printf("mark notification %s skipped: %v", logID, err)
	}
}
