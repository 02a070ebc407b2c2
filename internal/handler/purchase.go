package handler

import (
	"errors"
	"net/http"
	"promo-campaign-backend/internal/dto"
	"promo-campaign-backend/internal/service"

	"github.com/labstack/echo/v4"
)

type PurchaseHandler struct {
	validationService service.ValidationService
}

func NewPurchaseHandler(validationService service.ValidationService) *PurchaseHandler {
	return &PurchaseHandler{
		validationService: validationService,
	}
}

func (h *PurchaseHandler) ValidatePurchase(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ValidatePurchaseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "cuerpo de la petición inválido",
		})
	}
	if req.PurchaseID == "" {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "purchaseId es obligatorio",
		})
	}

	result, err := h.validationService.Validate(ctx, req.PurchaseID, req.AdminMode)
	if err != nil {
		if errors.Is(err, service.ErrPurchaseNotFound) {
			return c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Error: "compra no encontrada",
			})
		}
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "no se pudo validar la compra",
			Details: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, result)
}
