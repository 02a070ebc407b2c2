package repository

import (
	"context"
	"promo-campaign-backend/internal/model"
	"promo-campaign-backend/internal/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFindTemplate_InactiveRowStaysInactive(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.NotificationTemplate{
		Key:     "welcome",
		Channel: model.ChannelEmail,
		Body:    "activa",
		Active:  true,
	}).Error)
	require.NoError(t, db.Create(&model.NotificationTemplate{
		Key:     "welcome",
		Channel: model.ChannelWhatsApp,
		Body:    "retirada",
		Active:  false,
	}).Error)

	// Active=false must survive the insert as false.
	var stored model.NotificationTemplate
	require.NoError(t, db.Where("channel = ?", model.ChannelWhatsApp).First(&stored).Error)
	assert.False(t, stored.Active)

	tmpl, err := repo.FindTemplate(ctx, "welcome", model.ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, "activa", tmpl.Body)

	_, err = repo.FindTemplate(ctx, "welcome", model.ChannelWhatsApp)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestNotificationLogTerminalStates(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	entry := &model.NotificationLog{
		ID:        "log-1",
		Channel:   model.ChannelEmail,
		Recipient: "ana@example.com",
		Content:   "hola",
		Status:    model.NotificationPending,
	}
	require.NoError(t, repo.CreateLog(ctx, entry))

	require.NoError(t, repo.MarkFailed(ctx, "log-1", "timeout"))
	failed, err := repo.FindLogByID(ctx, "log-1")
	require.NoError(t, err)
	assert.Equal(t, model.NotificationFailed, failed.Status)
	assert.Equal(t, "timeout", failed.Error)
	assert.Equal(t, 1, failed.RetryCount)

	require.NoError(t, repo.MarkSent(ctx, "log-1", "em_001"))
	sent, err := repo.FindLogByID(ctx, "log-1")
	require.NoError(t, err)
	assert.Equal(t, model.NotificationSent, sent.Status)
	assert.Empty(t, sent.Error)
	assert.NotNil(t, sent.SentAt)
	// The audit counter keeps the failed attempt.
	assert.Equal(t, 1, sent.RetryCount)
}
