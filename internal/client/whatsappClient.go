package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WhatsAppCredentials carry the Graph API access token and the business
// phone number id, resolved per invocation from env or settings.
type WhatsAppCredentials struct {
	Token   string
	PhoneID string
}

type WhatsAppClient interface {
	SendText(ctx context.Context, creds WhatsAppCredentials, to, body string) (string, error)
	// SendTemplate sends a pre-approved provider template with positional
	// body parameters, in declaration order.
	SendTemplate(ctx context.Context, creds WhatsAppCredentials, to, templateName string, params []string) (string, error)
}

type whatsappClientImpl struct {
	httpClient *http.Client
	baseApiURL string
}

func NewWhatsAppClient(baseApiURL string) WhatsAppClient {
	if baseApiURL == "" {
		baseApiURL = "https://graph.facebook.com/v17.0"
	}
	return &whatsappClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL: baseApiURL,
	}
}

func (c *whatsappClientImpl) SendText(ctx context.Context, creds WhatsAppCredentials, to, body string) (string, error) {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text": map[string]string{
			"body": body,
		},
	}
	return c.send(ctx, creds, payload)
}

func (c *whatsappClientImpl) SendTemplate(ctx context.Context, creds WhatsAppCredentials, to, templateName string, params []string) (string, error) {
	parameters := make([]map[string]string, len(params))
	for i, p := range params {
		parameters[i] = map[string]string{
			"type": "text",
			"text": p,
		}
	}

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "template",
		"template": map[string]interface{}{
			"name": templateName,
			"language": map[string]string{
				"code": "es",
			},
			"components": []map[string]interface{}{
				{
					"type":       "body",
					"parameters": parameters,
				},
			},
		},
	}
	return c.send(ctx, creds, payload)
}

func (c *whatsappClientImpl) send(ctx context.Context, creds WhatsAppCredentials, payload map[string]interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal req payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseApiURL, creds.PhoneID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("http new request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+creds.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("whatsapp error %d: %s", resp.StatusCode, string(b))
	}

	var result struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode whatsapp response: %w", err)
	}

	if len(result.Messages) == 0 {
		return "", fmt.Errorf("whatsapp returned no message id")
	}

	return result.Messages[0].ID, nil
}
