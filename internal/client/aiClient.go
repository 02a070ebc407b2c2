package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"promo-campaign-backend/internal/config"
	"time"
)

// The AI gateway surfaces rate and billing limits as distinct error
// categories so the workflow can report them apart from generic failures.
var (
	ErrAIRateLimited   = errors.New("ai gateway: rate limited")
	ErrAIQuotaExceeded = errors.New("ai gateway: payment required")
)

type AIClient interface {
	ClassifyInvoice(ctx context.Context, imageURL string) (string, error)
}

type aiClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	apiKey     string
	model      string
}

const classificationPrompt = `Analiza la imagen adjunta y responde UNICAMENTE con un objeto JSON con esta forma exacta:
{"is_document": bool, "is_invoice": bool, "confidence": 0-100, "details": "string"}
is_document: la imagen es un documento legible. is_invoice: el documento es una factura o nota de venta. confidence: que tan seguro estas de la clasificacion. details: observaciones breves en espanol.`

func NewAIClient(aiCfg *config.AIGateway) AIClient {
	return &aiClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL: aiCfg.BaseApiURL,
		apiKey:     aiCfg.APIKey,
		model:      aiCfg.Model,
	}
}

type chatCompletionResult struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ClassifyInvoice submits the signed invoice URL to the vision completion
// endpoint and returns the model's raw text output. The caller is
// responsible for extracting the embedded JSON, the gateway gives no
// structured-output guarantee.
func (c *aiClientImpl) ClassifyInvoice(ctx context.Context, imageURL string) (string, error) {
	payload := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type": "text",
						"text": classificationPrompt,
					},
					{
						"type": "image_url",
						"image_url": map[string]string{
							"url": imageURL,
						},
					},
				},
			},
		},
		"max_tokens": 300,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/v1/chat/completions",
		bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("http new request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return "", ErrAIRateLimited
	case http.StatusPaymentRequired:
		return "", ErrAIQuotaExceeded
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ai gateway error %d: %s", resp.StatusCode, string(b))
	}

	var result chatCompletionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode ai gateway response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("ai gateway returned no choices")
	}

	return result.Choices[0].Message.Content, nil
}
