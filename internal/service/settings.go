package service

import (
	"context"
	"fmt"
	"promo-campaign-backend/internal/config"
	"promo-campaign-backend/internal/repository"
	"strconv"
)

// Canonical settings keys. One key per setting, lowercase; the legacy
// dual-case lookup is gone, migrations normalized the table.
const (
	SettingEmailEnabled        = "email_enabled"
	SettingWhatsAppEnabled     = "whatsapp_enabled"
	SettingResendAPIKey        = "resend_api_key"
	SettingEmailFrom           = "email_from"
	SettingWhatsAppToken       = "whatsapp_token"
	SettingWhatsAppPhoneID     = "whatsapp_phone_id"
	SettingWhatsAppCountryCode = "whatsapp_country_code"
)

// defaultCountryCode is the last-resort dialing prefix when neither the
// settings table nor the environment provides one. Phone normalization
// must always have a non-empty code to work with.
const defaultCountryCode = "52"

// ChannelSettings is the typed view of the settings table for one
// invocation. Credentials already have env-level precedence applied:
// a secret set in the environment wins over the table value.
type ChannelSettings struct {
	EmailEnabled    bool
	WhatsAppEnabled bool

	ResendAPIKey string
	EmailFrom    string

	WhatsAppToken   string
	WhatsAppPhoneID string
	CountryCode     string
}

type SettingsLoader interface {
	Load(ctx context.Context) (*ChannelSettings, error)
}

type settingsLoaderImpl struct {
	settingsRepo repository.SettingsRepository
	cfg          *config.Config
}

func NewSettingsLoader(settingsRepo repository.SettingsRepository, cfg *config.Config) SettingsLoader {
	return &settingsLoaderImpl{
		settingsRepo: settingsRepo,
		cfg:          cfg,
	}
}

func (l *settingsLoaderImpl) Load(ctx context.Context) (*ChannelSettings, error) {
	raw, err := l.settingsRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	settings := &ChannelSettings{
		// A channel is on unless explicitly disabled.
		EmailEnabled:    parseFlag(raw[SettingEmailEnabled], true),
		WhatsAppEnabled: parseFlag(raw[SettingWhatsAppEnabled], true),

		ResendAPIKey: firstNonEmpty(l.cfg.Resend.APIKey, raw[SettingResendAPIKey]),
		EmailFrom:    firstNonEmpty(l.cfg.Resend.From, raw[SettingEmailFrom]),

		WhatsAppToken:   firstNonEmpty(l.cfg.WhatsApp.Token, raw[SettingWhatsAppToken]),
		WhatsAppPhoneID: firstNonEmpty(l.cfg.WhatsApp.PhoneID, raw[SettingWhatsAppPhoneID]),
		// Unlike the credentials above, the country code is an operational
		// setting administered from the dashboard, so the table wins over
		// the env value and a hard default backstops both.
		CountryCode: firstNonEmpty(raw[SettingWhatsAppCountryCode], l.cfg.WhatsApp.CountryCode, defaultCountryCode),
	}

	return settings, nil
}

func parseFlag(value string, fallback bool) bool {
	if value == "" {
		return fallback
	}
	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return enabled
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
