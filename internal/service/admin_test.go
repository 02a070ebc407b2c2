package service

import (
	"context"
	"net/http"
	"promo-campaign-backend/internal/dto"
	"promo-campaign-backend/internal/model"
	"promo-campaign-backend/internal/repository"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminService(t *testing.T, env *dispatchEnv, providerHandler http.HandlerFunc) AdminService {
	t.Helper()
	emailSvc := env.emailService(t, providerHandler)
	whatsappSvc := env.whatsappService(t, providerHandler)

	return NewAdminService(
		repository.NewTicketRepository(env.db),
		repository.NewCouponRepository(env.db),
		env.notificationRepo,
		emailSvc,
		whatsappSvc,
	)
}

func TestGenerateTickets(t *testing.T) {
	env := newDispatchEnv(t)
	svc := newAdminService(t, env, func(w http.ResponseWriter, r *http.Request) {})

	generated, err := svc.GenerateTickets(context.Background(), "T3", 50)
	require.NoError(t, err)
	assert.Equal(t, 50, generated)

	var tickets []model.Ticket
	require.NoError(t, env.db.Find(&tickets).Error)
	require.Len(t, tickets, 50)

	seen := make(map[string]bool)
	for _, ticket := range tickets {
		assert.True(t, strings.HasPrefix(ticket.Code, "T3-"))
		assert.Equal(t, "T3", ticket.Tier)
		assert.False(t, ticket.Assigned)
		assert.False(t, seen[ticket.Code], "duplicate code %s", ticket.Code)
		seen[ticket.Code] = true
	}
}

func TestIssueCoupon_SerialsAreSequentialPerOwnerType(t *testing.T) {
	env := newDispatchEnv(t)
	svc := newAdminService(t, env, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()

	buyer1, err := svc.IssueCoupon(ctx, &dto.IssueCouponRequest{
		OwnerType: model.OwnerTypeBuyer, OwnerName: "Ana", OwnerEmail: "ana@example.com",
	})
	require.NoError(t, err)
	seller1, err := svc.IssueCoupon(ctx, &dto.IssueCouponRequest{
		OwnerType: model.OwnerTypeSeller, OwnerName: "Luis", OwnerEmail: "luis@example.com",
	})
	require.NoError(t, err)
	buyer2, err := svc.IssueCoupon(ctx, &dto.IssueCouponRequest{
		OwnerType: model.OwnerTypeBuyer, OwnerName: "Eva", OwnerEmail: "eva@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "B000001", buyer1.Serial)
	assert.Equal(t, "S000001", seller1.Serial)
	assert.Equal(t, "B000002", buyer2.Serial)
	assert.Equal(t, model.CouponActive, buyer1.Status)
	assert.NotEqual(t, buyer1.Code, buyer2.Code)
}

func TestIssueCoupon_RejectsUnknownOwnerType(t *testing.T) {
	env := newDispatchEnv(t)
	svc := newAdminService(t, env, func(w http.ResponseWriter, r *http.Request) {})

	_, err := svc.IssueCoupon(context.Background(), &dto.IssueCouponRequest{
		OwnerType: "ROBOT", OwnerName: "R2", OwnerEmail: "r2@example.com",
	})
	assert.ErrorIs(t, err, ErrInvalidOwnerType)
}

func TestResendNotification_RedeliversFailedEntry(t *testing.T) {
	env := newDispatchEnv(t)
	env.set(t, SettingResendAPIKey, "re_test_123")
	svc := newAdminService(t, env, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"em_retry","messages":[{"id":"wamid.retry"}]}`))
	})
	ctx := context.Background()

	logID := env.pendingLog(t, model.ChannelEmail)
	require.NoError(t, env.notificationRepo.MarkFailed(ctx, logID, "timeout"))

	resp, err := svc.ResendNotification(ctx, logID)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	entry := env.logStatus(t, logID)
	assert.Equal(t, model.NotificationSent, entry.Status)
	// The failed attempt stays on the audit counter.
	assert.Equal(t, 1, entry.RetryCount)
}

func TestResendNotification_RejectsTerminalSuccessStates(t *testing.T) {
	env := newDispatchEnv(t)
	svc := newAdminService(t, env, func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider must not be called for a SENT entry")
	})
	ctx := context.Background()

	logID := env.pendingLog(t, model.ChannelEmail)
	require.NoError(t, env.notificationRepo.MarkSent(ctx, logID, "em_done"))

	_, err := svc.ResendNotification(ctx, logID)
	assert.ErrorIs(t, err, ErrNotRedispatchable)
}
