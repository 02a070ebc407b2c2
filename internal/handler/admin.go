package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"promo-campaign-backend/internal/config"
	"promo-campaign-backend/internal/dto"
	"promo-campaign-backend/internal/middleware"
	"promo-campaign-backend/internal/repository"
	"promo-campaign-backend/internal/service"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type AdminHandler struct {
	adminService service.AdminService
	adminCfg     *config.Admin
}

func NewAdminHandler(adminService service.AdminService, adminCfg *config.Admin) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		adminCfg:     adminCfg,
	}
}

func (h *AdminHandler) Login(c echo.Context) error {
	var req dto.AdminLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "cuerpo de la petición inválido",
		})
	}

	if h.adminCfg.Password == "" ||
		subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.adminCfg.Password)) != 1 {
		return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "contraseña incorrecta",
		})
	}

	token, err := middleware.IssueAdminToken(h.adminCfg.JWTSecret)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "no se pudo generar el token",
		})
	}

	return c.JSON(http.StatusOK, dto.AdminLoginResponse{Token: token})
}

func (h *AdminHandler) GenerateTickets(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.GenerateTicketsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "cuerpo de la petición inválido",
		})
	}
	if req.Tier == "" || req.Count <= 0 || req.Count > 100000 {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "tier y count (1-100000) son obligatorios",
		})
	}

	generated, err := h.adminService.GenerateTickets(ctx, req.Tier, req.Count)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "no se pudieron generar los boletos",
			Details: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, dto.GenerateTicketsResponse{
		Success:   true,
		Tier:      req.Tier,
		Generated: generated,
	})
}

func (h *AdminHandler) TicketStats(c echo.Context) error {
	stats, err := h.adminService.TierStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "no se pudieron leer las estadísticas",
		})
	}
	if stats == nil {
		stats = []*repository.TierStat{}
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) IssueCoupon(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.IssueCouponRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "cuerpo de la petición inválido",
		})
	}
	if req.OwnerName == "" || req.OwnerEmail == "" {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "ownerName y ownerEmail son obligatorios",
		})
	}

	coupon, err := h.adminService.IssueCoupon(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidOwnerType) {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: "ownerType debe ser BUYER o SELLER",
			})
		}
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "no se pudo emitir el cupón",
			Details: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, dto.IssueCouponResponse{
		Success: true,
		Code:    coupon.Code,
		Serial:  coupon.Serial,
	})
}

func (h *AdminHandler) VoidCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	code := c.Param("code")

	err := h.adminService.VoidCoupon(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Error: "cupón no encontrado",
			})
		}
		if errors.Is(err, repository.ErrCouponNotActive) {
			return c.JSON(http.StatusConflict, dto.ErrorResponse{
				Error: "el cupón ya no está activo",
			})
		}
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "no se pudo anular el cupón",
		})
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) ListNotifications(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	entries, err := h.adminService.ListNotifications(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "no se pudo leer el registro de notificaciones",
		})
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *AdminHandler) ResendNotification(c echo.Context) error {
	ctx := c.Request().Context()
	logID := c.Param("id")

	result, err := h.adminService.ResendNotification(ctx, logID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Error: "notificación no encontrada",
			})
		}
		if errors.Is(err, service.ErrNotRedispatchable) {
			return c.JSON(http.StatusConflict, dto.ErrorResponse{
				Error: "la notificación ya fue enviada u omitida",
			})
		}
		return dispatchError(c, "no se pudo reenviar la notificación", err)
	}

	return c.JSON(http.StatusOK, result)
}
