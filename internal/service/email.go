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
)

const defaultEmailFrom = "Sorteo Campaña <no-reply@notificaciones.example.com>"

type EmailService interface {
	Dispatch(ctx context.Context, req *dto.SendEmailRequest) (*dto.DispatchResponse, error)
}

type emailServiceImpl struct {
	emailClient      client.EmailClient
	settingsLoader   SettingsLoader
	templateResolver TemplateResolver
	notificationRepo repository.NotificationRepository
}

func NewEmailService(
	emailClient client.EmailClient,
	settingsLoader SettingsLoader,
	templateResolver TemplateResolver,
	notificationRepo repository.NotificationRepository,
) EmailService {
	return &emailServiceImpl{
		emailClient:      emailClient,
		settingsLoader:   settingsLoader,
		templateResolver: templateResolver,
		notificationRepo: notificationRepo,
	}
}

func (s *emailServiceImpl) Dispatch(ctx context.Context, req *dto.SendEmailRequest) (*dto.DispatchResponse, error) {
	settings, err := s.settingsLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	// A disabled channel is a success-with-skip, never an error.
	if !settings.EmailEnabled {
		reason := "el canal de correo está deshabilitado en la configuración"
		s.markSkipped(ctx, req.NotificationLogID, reason)
		metrics.NotificationsTotal.WithLabelValues(model.ChannelEmail, model.NotificationSkipped).Inc()
		return &dto.DispatchResponse{
			Success:           true,
			Skipped:           true,
			Reason:            reason,
			NotificationLogID: req.NotificationLogID,
		}, nil
	}

	if settings.ResendAPIKey == "" {
		s.markFailed(ctx, req.NotificationLogID, "falta la API key de Resend")
		metrics.NotificationsTotal.WithLabelValues(model.ChannelEmail, model.NotificationFailed).Inc()
		return nil, fmt.Errorf("%w: agrega tu API key de Resend en la configuración", ErrMissingCredentials)
	}

	subject, body := req.Subject, req.Body
	isHTML := req.IsHTML
	if req.TemplateKey != "" {
		resolved, err := s.templateResolver.Resolve(ctx, req.TemplateKey, model.ChannelEmail, req.TemplateData)
		if err != nil {
			return nil, err
		}
		// Template bodies are HTML; a missed lookup falls back to the
		// caller's explicit content and keeps the caller's isHtml flag.
		if resolved != nil {
			subject, body = resolved.Subject, resolved.Body
			isHTML = true
		}
	}
	if body == "" {
		return nil, fmt.Errorf("%w: ni plantilla ni cuerpo de correo", ErrMissingContent)
	}

	from := settings.EmailFrom
	if from == "" {
		from = defaultEmailFrom
	}

	msg := &client.EmailMessage{
		From:    from,
		To:      req.To,
		Subject: subject,
	}
	if isHTML {
		msg.HTML = body
	} else {
		msg.Text = body
	}

	emailID, err := s.emailClient.Send(ctx, settings.ResendAPIKey, msg)
	if err != nil {
		s.markFailed(ctx, req.NotificationLogID, err.Error())
		metrics.NotificationsTotal.WithLabelValues(model.ChannelEmail, model.NotificationFailed).Inc()
		return nil, fmt.Errorf("send email to %s: %w", req.To, err)
	}

	s.markSent(ctx, req.NotificationLogID, emailID)
	metrics.NotificationsTotal.WithLabelValues(model.ChannelEmail, model.NotificationSent).Inc()

	return &dto.DispatchResponse{
		Success:           true,
		EmailID:           emailID,
		NotificationLogID: req.NotificationLogID,
	}, nil
}

func (s *emailServiceImpl) markSent(ctx context.Context, logID, providerMessageID string) {
	if logID == "" {
		return
	}
	if err := s.notificationRepo.MarkSent(ctx, logID, providerMessageID); err != nil {
		log.Printf("mark notification %s sent: %v", logID, err)
	}
}

func (s *emailServiceImpl) markFailed(ctx context.Context, logID, errMsg string) {
	if logID == "" {
		return
	}
	if err := s.notificationRepo.MarkFailed(ctx, logID, errMsg); err != nil {
		log.Printf("mark notification %s failed: %v", logID, err)
	}
}

func (s *emailServiceImpl) markSkipped(ctx context.Context, logID, reason string) {
	if logID == "" {
		return
	}
	if err := s.notificationRepo.MarkSkipped(ctx, logID, reason); err != nil {
		log.Printf("mark notification %s skipped: %v", logID, err)
	}
}
