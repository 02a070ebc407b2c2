package handler

import (
	"errors"
	"net/http"
	"promo-campaign-backend/internal/dto"
	"promo-campaign-backend/internal/service"

	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	emailService    service.EmailService
	whatsappService service.WhatsAppService
}

func NewNotificationHandler(emailService service.EmailService, whatsappService service.WhatsAppService) *NotificationHandler {
	return &NotificationHandler{
		emailService:    emailService,
		whatsappService: whatsappService,
	}
}

func (h *NotificationHandler) SendEmail(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SendEmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "cuerpo de la petición inválido",
		})
	}
	if req.To == "" {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "el destinatario es obligatorio",
		})
	}

	result, err := h.emailService.Dispatch(ctx, &req)
	if err != nil {
		return dispatchError(c, "no se pudo enviar el correo", err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *NotificationHandler) SendWhatsApp(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SendWhatsAppRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "cuerpo de la petición inválido",
		})
	}
	if req.To == "" {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "el destinatario es obligatorio",
		})
	}

	result, err := h.whatsappService.Dispatch(ctx, &req)
	if err != nil {
		return dispatchError(c, "no se pudo enviar el mensaje de WhatsApp", err)
	}

	return c.JSON(http.StatusOK, result)
}

// dispatchError keeps the error taxonomy of both channels in one place:
// configuration problems are the caller's to fix (400), provider failures
// are ours (500).
func dispatchError(c echo.Context, message string, err error) error {
	status := http.StatusInternalServerError
	if errors.Is(err, service.ErrMissingCredentials) || errors.Is(err, service.ErrMissingContent) {
		status = http.StatusBadRequest
	}
	return c.JSON(status, dto.ErrorResponse{
		Error:   message,
		Details: err.Error(),
	})
}
