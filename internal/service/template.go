package service

import (
	"context"
	"fmt"
	"promo-campaign-backend/internal/repository"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// RenderTemplate substitutes every {placeholder} occurrence with the value
// from data. Placeholders without a value become the empty string, never an
// error. Pure text transform.
func RenderTemplate(body string, data map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(body, func(match string) string {
		name := match[1 : len(match)-1]
		return data[name]
	})
}

// OrderedParams maps a template's declared placeholder list (comma
// separated, in order) to positional values, for providers that take
// positional parameters instead of named ones.
func OrderedParams(placeholders string, data map[string]string) []string {
	if strings.TrimSpace(placeholders) == "" {
		return nil
	}

	names := strings.Split(placeholders, ",")
	params := make([]string, len(names))
	for i, name := range names {
		params[i] = data[strings.TrimSpace(name)]
	}
	return params
}

// ResolvedMessage is a template row with placeholders already filled in.
type ResolvedMessage struct {
	Subject string
	Body    string
	// Provider-side template name for WhatsApp structured sends, empty for
	// free-text templates.
	WhatsAppTemplate string
	// Positional parameters in the template's declared order.
	Params []string
}

type TemplateResolver interface {
	// Resolve returns (nil, nil) when no active template matches, the
	// caller falls back to its explicit subject/body.
	Resolve(ctx context.Context, key, channel string, data map[string]string) (*ResolvedMessage, error)
}

type templateResolverImpl struct {
	notificationRepo repository.NotificationRepository
}

func NewTemplateResolver(notificationRepo repository.NotificationRepository) TemplateResolver {
	return &templateResolverImpl{
		notificationRepo: notificationRepo,
	}
}

func (r *templateResolverImpl) Resolve(ctx context.Context, key, channel string, data map[string]string) (*ResolvedMessage, error) {
	tmpl, err := r.notificationRepo.FindTemplate(ctx, key, channel)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find template %s/%s: %w", key, channel, err)
	}

	return &ResolvedMessage{
		Subject:          RenderTemplate(tmpl.Subject, data),
		Body:             RenderTemplate(tmpl.Body, data),
		WhatsAppTemplate: tmpl.WhatsAppTemplate,
		Params:           OrderedParams(tmpl.Placeholders, data),
	}, nil
}
