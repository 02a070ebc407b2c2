package service

import (
	"context"
	"errors"
	"promo-campaign-backend/internal/client"
	"promo-campaign-backend/internal/model"
	"promo-campaign-backend/internal/repository"
	"promo-campaign-backend/internal/testutil"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeAIClient struct {
	response string
	err      error
	calls    int
}

func (f *fakeAIClient) ClassifyInvoice(ctx context.Context, imageURL string) (string, error) {
	f.calls++
	return f.response, f.err
}

type fakeStorage struct {
	err   error
	calls int
}

func (f *fakeStorage) SignURL(ctx context.Context, fileKey string, ttl time.Duration) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "https://storage.example.com/signed/" + fileKey, nil
}

func TestDecideStatus(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		isDocument bool
		isInvoice  bool
		expected   string
	}{
		{"confidence 39 is invalid", 39, true, true, model.IAStatusInvalid},
		{"confidence 40 needs review", 40, true, true, model.IAStatusReview},
		{"confidence 69 needs review", 69, true, true, model.IAStatusReview},
		{"confidence 70 is valid", 70, true, true, model.IAStatusValid},
		{"high confidence but not a document", 85, false, true, model.IAStatusInvalid},
		{"high confidence but not an invoice", 85, true, false, model.IAStatusReview},
		{"threshold confidence but not a document", 70, false, true, model.IAStatusInvalid},
		{"zero confidence", 0, true, true, model.IAStatusInvalid},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, score := decideStatus(classification{
				IsDocument: tc.isDocument,
				IsInvoice:  tc.isInvoice,
				Confidence: tc.confidence,
			})
			assert.Equal(t, tc.expected, status)
			assert.Equal(t, int(tc.confidence), score)
		})
	}
}

func TestExtractClassification(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		result := extractClassification(`{"is_document":true,"is_invoice":true,"confidence":85,"details":"factura clara"}`)
		require.True(t, result.OK)
		assert.True(t, result.Parsed.IsDocument)
		assert.True(t, result.Parsed.IsInvoice)
		assert.Equal(t, float64(85), result.Parsed.Confidence)
		assert.Equal(t, "factura clara", result.Parsed.Details)
	})

	t.Run("json wrapped in prose and code fences", func(t *testing.T) {
		result := extractClassification("Claro, aquí está el análisis:\n```json\n{\"is_document\": true, \"is_invoice\": false, \"confidence\": 55, \"details\": \"recibo\"}\n```\nSaludos.")
		require.True(t, result.OK)
		assert.False(t, result.Parsed.IsInvoice)
		assert.Equal(t, float64(55), result.Parsed.Confidence)
	})

	t.Run("no json at all", func(t *testing.T) {
		result := extractClassification("No puedo analizar esta imagen.")
		assert.False(t, result.OK)
		assert.Equal(t, "No puedo analizar esta imagen.", result.Raw)
	})

	t.Run("malformed json", func(t *testing.T) {
		result := extractClassification(`{"is_document": yes}`)
		assert.False(t, result.OK)
	})
}

type validationEnv struct {
	db      *gorm.DB
	service ValidationService
	ai      *fakeAIClient
	storage *fakeStorage
}

func newValidationEnv(t *testing.T, ai *fakeAIClient) *validationEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	storage := &fakeStorage{}

	svc := NewValidationService(
		repository.NewPurchaseRepository(db),
		repository.NewProductRepository(db),
		repository.NewTicketRepository(db),
		repository.NewNotificationRepository(db),
		ai,
		storage,
	)

	return &validationEnv{db: db, service: svc, ai: ai, storage: storage}
}

func (e *validationEnv) seedPool(t *testing.T, tier string, count int) {
	t.Helper()
	repo := repository.NewTicketRepository(e.db)
	tickets := make([]*model.Ticket, count)
	for i := range tickets {
		tickets[i] = &model.Ticket{Code: tier + "-" + string(rune('A'+i)), Tier: tier}
	}
	require.NoError(t, repo.CreateBatch(context.Background(), tickets))
}

func TestValidate_ApprovedPurchaseGetsTicketsAndNotifications(t *testing.T) {
	ai := &fakeAIClient{response: `{"is_document":true,"is_invoice":true,"confidence":85,"details":"factura legible"}`}
	env := newValidationEnv(t, ai)
	ctx := context.Background()

	require.NoError(t, env.db.Create(&model.Product{
		ID: "tv-55", Name: `Televisor 55"`, TicketMultiplier: 3, TicketTier: "T3",
	}).Error)
	require.NoError(t, env.db.Create(&model.Purchase{
		ID: "P1", ProductID: "tv-55", InvoiceFileKey: "invoices/p1.jpg",
		BuyerName: "Ana", BuyerEmail: "ana@example.com", BuyerPhone: "555-123-4567",
		AdminStatus: model.AdminStatusPending,
	}).Error)
	env.seedPool(t, "T3", 5)

	resp, err := env.service.Validate(ctx, "P1", false)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, model.IAStatusValid, resp.IAStatus)
	assert.Equal(t, 85, resp.IAScore)
	require.Len(t, resp.TicketsAssigned, 3)
	assert.NotEmpty(t, resp.Message)

	var purchase model.Purchase
	require.NoError(t, env.db.First(&purchase, "id = ?", "P1").Error)
	assert.Equal(t, model.IAStatusValid, purchase.IAStatus)
	assert.Equal(t, 85, purchase.IAScore)
	assert.Equal(t, model.AdminStatusApproved, purchase.AdminStatus)

	var logs []model.NotificationLog
	require.NoError(t, env.db.Where("purchase_id = ?", "P1").Order("channel").Find(&logs).Error)
	require.Len(t, logs, 2)
	assert.Equal(t, model.ChannelEmail, logs[0].Channel)
	assert.Equal(t, model.NotificationPending, logs[0].Status)
	assert.Equal(t, "ana@example.com", logs[0].Recipient)
	assert.Equal(t, model.ChannelWhatsApp, logs[1].Channel)
	assert.Equal(t, model.NotificationPending, logs[1].Status)
}

func TestValidate_IsIdempotentForTickets(t *testing.T) {
	ai := &fakeAIClient{response: `{"is_document":true,"is_invoice":true,"confidence":90,"details":"ok"}`}
	env := newValidationEnv(t, ai)
	ctx := context.Background()

	require.NoError(t, env.db.Create(&model.Product{
		ID: "radio-1", Name: "Radio", TicketMultiplier: 2, TicketTier: "T1",
	}).Error)
	require.NoError(t, env.db.Create(&model.Purchase{
		ID: "P1", ProductID: "radio-1", InvoiceFileKey: "invoices/p1.jpg",
		BuyerName: "Ana", BuyerEmail: "ana@example.com",
	}).Error)
	env.seedPool(t, "T1", 10)

	first, err := env.service.Validate(ctx, "P1", false)
	require.NoError(t, err)
	second, err := env.service.Validate(ctx, "P1", false)
	require.NoError(t, err)

	assert.Equal(t, first.TicketsAssigned, second.TicketsAssigned)

	var assignedCount int64
	require.NoError(t, env.db.Model(&model.Ticket{}).Where("assigned = ?", true).Count(&assignedCount).Error)
	assert.Equal(t, int64(2), assignedCount)

	// Re-validation must not queue the notifications again either.
	var logCount int64
	require.NoError(t, env.db.Model(&model.NotificationLog{}).Where("purchase_id = ?", "P1").Count(&logCount).Error)
	assert.Equal(t, int64(1), logCount)
}

func TestValidate_NoInvoiceSkipsClassifier(t *testing.T) {
	ai := &fakeAIClient{response: `{"is_document":true,"is_invoice":true,"confidence":99}`}
	env := newValidationEnv(t, ai)
	ctx := context.Background()

	require.NoError(t, env.db.Create(&model.Product{
		ID: "tv-55", Name: `Televisor 55"`, TicketMultiplier: 3, TicketTier: "T3",
	}).Error)
	require.NoError(t, env.db.Create(&model.Purchase{
		ID: "P2", ProductID: "tv-55",
		BuyerName: "Luis", BuyerEmail: "luis@example.com",
	}).Error)
	env.seedPool(t, "T3", 5)

	resp, err := env.service.Validate(ctx, "P2", false)
	require.NoError(t, err)

	assert.Equal(t, model.IAStatusReview, resp.IAStatus)
	assert.Equal(t, 0, resp.IAScore)
	assert.Empty(t, resp.TicketsAssigned)
	assert.Zero(t, env.ai.calls)
	assert.Zero(t, env.storage.calls)

	var logCount int64
	require.NoError(t, env.db.Model(&model.NotificationLog{}).Count(&logCount).Error)
	assert.Equal(t, int64(0), logCount)
}

func TestValidate_ClassifierFailuresDegradeToReview(t *testing.T) {
	tests := []struct {
		name string
		ai   *fakeAIClient
	}{
		{"rate limited", &fakeAIClient{err: client.ErrAIRateLimited}},
		{"quota exceeded", &fakeAIClient{err: client.ErrAIQuotaExceeded}},
		{"gateway down", &fakeAIClient{err: errors.New("connection refused")}},
		{"uninterpretable answer", &fakeAIClient{response: "lo siento, no puedo ayudar con eso"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newValidationEnv(t, tc.ai)
			ctx := context.Background()

			require.NoError(t, env.db.Create(&model.Product{
				ID: "tv-55", Name: "TV", TicketMultiplier: 1, TicketTier: "T1",
			}).Error)
			require.NoError(t, env.db.Create(&model.Purchase{
				ID: "P1", ProductID: "tv-55", InvoiceFileKey: "invoices/p1.jpg",
				BuyerName: "Ana", BuyerEmail: "ana@example.com",
			}).Error)

			resp, err := env.service.Validate(ctx, "P1", false)
			require.NoError(t, err)
			assert.Equal(t, model.IAStatusReview, resp.IAStatus)
			assert.NotEmpty(t, resp.IADetail)
			assert.Empty(t, resp.TicketsAssigned)
		})
	}
}

func TestValidate_AdminModeDrawsWithoutAutoApproval(t *testing.T) {
	// An uninterpretable answer leaves the purchase in REVIEW, but the
	// admin override still draws tickets.
	ai := &fakeAIClient{response: "sin json"}
	env := newValidationEnv(t, ai)
	ctx := context.Background()

	require.NoError(t, env.db.Create(&model.Product{
		ID: "tv-55", Name: "TV", TicketMultiplier: 2, TicketTier: "T2",
	}).Error)
	require.NoError(t, env.db.Create(&model.Purchase{
		ID: "P1", ProductID: "tv-55", InvoiceFileKey: "invoices/p1.jpg",
		BuyerName: "Ana", BuyerEmail: "ana@example.com",
		AdminStatus: model.AdminStatusPending,
	}).Error)
	env.seedPool(t, "T2", 4)

	resp, err := env.service.Validate(ctx, "P1", true)
	require.NoError(t, err)
	assert.Equal(t, model.IAStatusReview, resp.IAStatus)
	assert.Len(t, resp.TicketsAssigned, 2)

	var purchase model.Purchase
	require.NoError(t, env.db.First(&purchase, "id = ?", "P1").Error)
	assert.Equal(t, model.AdminStatusPending, purchase.AdminStatus)
}

func TestValidate_EmptyPoolDoesNotFailRequest(t *testing.T) {
	ai := &fakeAIClient{response: `{"is_document":true,"is_invoice":true,"confidence":95,"details":"ok"}`}
	env := newValidationEnv(t, ai)
	ctx := context.Background()

	require.NoError(t, env.db.Create(&model.Product{
		ID: "tv-55", Name: "TV", TicketMultiplier: 3, TicketTier: "T3",
	}).Error)
	require.NoError(t, env.db.Create(&model.Purchase{
		ID: "P1", ProductID: "tv-55", InvoiceFileKey: "invoices/p1.jpg",
		BuyerName: "Ana", BuyerEmail: "ana@example.com",
	}).Error)
	// No pool seeded at all.

	resp, err := env.service.Validate(ctx, "P1", false)
	require.NoError(t, err)
	assert.Equal(t, model.IAStatusValid, resp.IAStatus)
	assert.Empty(t, resp.TicketsAssigned)
}

func TestValidate_UnknownPurchase(t *testing.T) {
	env := newValidationEnv(t, &fakeAIClient{})

	_, err := env.service.Validate(context.Background(), "missing", false)
	assert.ErrorIs(t, err, ErrPurchaseNotFound)
}
