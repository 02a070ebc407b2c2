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

type EmailMessage struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
}

type EmailClient interface {
	// Send delivers one email and returns the provider message id. The api
	// key is passed per call because it can come from the settings table,
	// not only from the environment.
	Send(ctx context.Context, apiKey string, msg *EmailMessage) (string, error)
}

type resendClientImpl struct {
	httpClient *http.Client
	baseApiURL string
}

func NewResendClient(baseApiURL string) EmailClient {
	if baseApiURL == "" {
		baseApiURL = "https://api.resend.com"
	}
	return &resendClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL: baseApiURL,
	}
}

func (c *resendClientImpl) Send(ctx context.Context, apiKey string, msg *EmailMessage) (string, error) {
	payload := map[string]interface{}{
		"from":    msg.From,
		"to":      []string{msg.To},
		"subject": msg.Subject,
	}
	if msg.HTML != "" {
		payload["html"] = msg.HTML
	} else {
		payload["text"] = msg.Text
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/emails",
		bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("http new request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("resend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("resend error %d: %s", resp.StatusCode, string(b))
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode resend response: %w", err)
	}

	return result.ID, nil
}
