package service

import (
	"context"
	"errors"
	"fmt"
	"promo-campaign-backend/internal/dto"
	"promo-campaign-backend/internal/model"
	"promo-campaign-backend/internal/repository"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidOwnerType  = errors.New("service: owner type must be BUYER or SELLER")
	ErrNotRedispatchable = errors.New("service: only PENDING or FAILED notifications can be resent")
)

type AdminService interface {
	GenerateTickets(ctx context.Context, tier string, count int) (int, error)
	TierStats(ctx context.Context) ([]*repository.TierStat, error)
	IssueCoupon(ctx context.Context, req *dto.IssueCouponRequest) (*model.Coupon, error)
	VoidCoupon(ctx context.Context, code string) error
	ListNotifications(ctx context.Context, limit int) ([]*model.NotificationLog, error)
	ResendNotification(ctx context.Context, logID string) (*dto.DispatchResponse, error)
}

type adminServiceImpl struct {
	ticketRepo       repository.TicketRepository
	couponRepo       repository.CouponRepository
	notificationRepo repository.NotificationRepository
	emailService     EmailService
	whatsappService  WhatsAppService
}

func NewAdminService(
	ticketRepo repository.TicketRepository,
	couponRepo repository.CouponRepository,
	notificationRepo repository.NotificationRepository,
	emailService EmailService,
	whatsappService WhatsAppService,
) AdminService {
	return &adminServiceImpl{
		ticketRepo:       ticketRepo,
		couponRepo:       couponRepo,
		notificationRepo: notificationRepo,
		emailService:     emailService,
		whatsappService:  whatsappService,
	}
}

// randomCode derives a short uppercase code from a uuid. Uniqueness is
// enforced by the column index, collisions at this length are vanishingly
// rare but callers still get the constraint error if one ever happens.
func randomCode(length int) string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return raw[:length]
}

func (s *adminServiceImpl) GenerateTickets(ctx context.Context, tier string, count int) (int, error) {
	tickets := make([]*model.Ticket, count)
	for i := range tickets {
		tickets[i] = &model.Ticket{
			Code: fmt.Sprintf("%s-%s", tier, randomCode(10)),
			Tier: tier,
		}
	}

	if err := s.ticketRepo.CreateBatch(ctx, tickets); err != nil {
		return 0, fmt.Errorf("generate %d tickets for tier %s: %w", count, tier, err)
	}
	return len(tickets), nil
}

func (s *adminServiceImpl) TierStats(ctx context.Context) ([]*repository.TierStat, error) {
	return s.ticketRepo.TierStats(ctx)
}

func (s *adminServiceImpl) IssueCoupon(ctx context.Context, req *dto.IssueCouponRequest) (*model.Coupon, error) {
	if req.OwnerType != model.OwnerTypeBuyer && req.OwnerType != model.OwnerTypeSeller {
		return nil, ErrInvalidOwnerType
	}

	serialPrefix := "B"
	if req.OwnerType == model.OwnerTypeSeller {
		serialPrefix = "S"
	}

	// Serials are sequential per owner type. Concurrent issuance can race
	// on the count, the unique index rejects the loser and we renumber.
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		issued, err := s.couponRepo.CountByOwnerType(ctx, req.OwnerType)
		if err != nil {
			return nil, fmt.Errorf("count issued coupons: %w", err)
		}

		coupon := &model.Coupon{
			Code:       randomCode(8),
			Serial:     fmt.Sprintf("%s%06d", serialPrefix, issued+1),
			OwnerType:  req.OwnerType,
			OwnerName:  req.OwnerName,
			OwnerEmail: req.OwnerEmail,
			OwnerPhone: req.OwnerPhone,
			Status:     model.CouponActive,
		}

		if err := s.couponRepo.Create(ctx, coupon); err != nil {
			lastErr = err
			continue
		}
		return coupon, nil
	}

	return nil, fmt.Errorf("issue coupon: %w", lastErr)
}

func (s *adminServiceImpl) VoidCoupon(ctx context.Context, code string) error {
	return s.couponRepo.Void(ctx, code)
}

func (s *adminServiceImpl) ListNotifications(ctx context.Context, limit int) ([]*model.NotificationLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.notificationRepo.ListRecent(ctx, limit)
}

// ResendNotification is the manual retry path: the dispatcher itself never
// retries, it only bumps retry_count, so re-delivery is an explicit admin
// action on a PENDING or FAILED entry.
func (s *adminServiceImpl) ResendNotification(ctx context.Context, logID string) (*dto.DispatchResponse, error) {
	entry, err := s.notificationRepo.FindLogByID(ctx, logID)
	if err != nil {
		return nil, err
	}

	if entry.Status != model.NotificationPending && entry.Status != model.NotificationFailed {
		return nil, ErrNotRedispatchable
	}

	switch entry.Channel {
	case model.ChannelWhatsApp:
		return s.whatsappService.Dispatch(ctx, &dto.SendWhatsAppRequest{
			To:                entry.Recipient,
			Message:           entry.Content,
			NotificationLogID: entry.ID,
		})
	default:
		return s.emailService.Dispatch(ctx, &dto.SendEmailRequest{
			To:                entry.Recipient,
			Subject:           entry.Subject,
			Body:              entry.Content,
			NotificationLogID: entry.ID,
		})
	}
}
