package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"promo-campaign-backend/internal/client"
	"promo-campaign-backend/internal/dto"
	"promo-campaign-backend/internal/metrics"
	"promo-campaign-backend/internal/model"
	"promo-campaign-backend/internal/repository"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrPurchaseNotFound maps to HTTP 404 at the handler.
var ErrPurchaseNotFound = errors.New("service: purchase not found")

const signedURLTTL = 15 * time.Minute

type ValidationService interface {
	Validate(ctx context.Context, purchaseID string, adminMode bool) (*dto.ValidatePurchaseResponse, error)
}

type validationServiceImpl struct {
	purchaseRepo     repository.PurchaseRepository
	productRepo      repository.ProductRepository
	ticketRepo       repository.TicketRepository
	notificationRepo repository.NotificationRepository
	aiClient         client.AIClient
	storage          client.InvoiceStorage
}

func NewValidationService(
	purchaseRepo repository.PurchaseRepository,
	productRepo repository.ProductRepository,
	ticketRepo repository.TicketRepository,
	notificationRepo repository.NotificationRepository,
	aiClient client.AIClient,
	storage client.InvoiceStorage,
) ValidationService {
	return &validationServiceImpl{
		purchaseRepo:     purchaseRepo,
		productRepo:      productRepo,
		ticketRepo:       ticketRepo,
		notificationRepo: notificationRepo,
		aiClient:         aiClient,
		storage:          storage,
	}
}

type classification struct {
	IsDocument bool    `json:"is_document"`
	IsInvoice  bool    `json:"is_invoice"`
	Confidence float64 `json:"confidence"`
	Details    string  `json:"details"`
}

// classificationResult is a tagged parse outcome: either a usable
// classification or the raw model text for the audit trail. Parsing never
// fails hard, an uninterpretable answer degrades to REVIEW upstream.
type classificationResult struct {
	OK     bool
	Parsed classification
	Raw    string
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// extractClassification pulls the first JSON object embedded in the model's
// free text. The gateway gives no structured-output guarantee, so this is
// best effort by contract.
func extractClassification(text string) classificationResult {
	match := jsonObjectPattern.FindString(text)
	if match == "" {
		return classificationResult{Raw: text}
	}

	var parsed classification
	if err := json.Unmarshal([]byte(match), &parsed); err != nil {
		return classificationResult{Raw: text}
	}

	return classificationResult{OK: true, Parsed: parsed, Raw: text}
}

// decideStatus applies the fixed threshold policy.
func decideStatus(c classification) (string, int) {
	score := int(c.Confidence)
	switch {
	case c.Confidence >= 70 && c.IsDocument && c.IsInvoice:
		return model.IAStatusValid, score
	case c.Confidence < 40 || !c.IsDocument:
		return model.IAStatusInvalid, score
	default:
		return model.IAStatusReview, score
	}
}

func statusMessage(status string, ticketCount int) string {
	switch status {
	case model.IAStatusValid:
		if ticketCount > 0 {
			return "¡Factura validada! Tus boletos del sorteo ya fueron asignados."
		}
		return "¡Factura validada! Tus boletos serán asignados en breve."
	case model.IAStatusInvalid:
		return "No pudimos validar tu factura. Verifica el documento e inténtalo de nuevo."
	default:
		return "Tu compra será revisada manualmente por nuestro equipo. Te avisaremos pronto."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func (s *validationServiceImpl) Validate(ctx context.Context, purchaseID string, adminMode bool) (*dto.ValidatePurchaseResponse, error) {
	purchase, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("load purchase: %w", err)
	}

	product, err := s.productRepo.FindByID(ctx, purchase.ProductID)
	if err != nil {
		return nil, fmt.Errorf("load product %s: %w", purchase.ProductID, err)
	}

	status, score, detail := s.classify(ctx, purchase)

	// A VALID verdict auto-approves unless an admin is overriding, in that
	// case the admin decision stays whatever it already is.
	adminStatus := ""
	if status == model.IAStatusValid && !adminMode {
		adminStatus = model.AdminStatusApproved
	}

	if err := s.purchaseRepo.UpdateValidation(ctx, purchase.ID, status, score, detail, adminStatus); err != nil {
		return nil, fmt.Errorf("persist validation result: %w", err)
	}
	metrics.ValidationsTotal.WithLabelValues(status).Inc()

	var codes []string
	if status == model.IAStatusValid || adminMode {
		codes = s.issueTickets(ctx, purchase, product)
	}

	return &dto.ValidatePurchaseResponse{
		Success:         true,
		IAStatus:        status,
		IAScore:         score,
		IADetail:        detail,
		TicketsAssigned: codes,
		Message:         statusMessage(status, len(codes)),
	}, nil
}

// classify runs the document check and returns status, score and detail.
// Every failure on this path degrades to REVIEW, the purchase request
// itself never fails because a provider did.
func (s *validationServiceImpl) classify(ctx context.Context, purchase *model.Purchase) (string, int, string) {
	if purchase.InvoiceFileKey == "" {
		return model.IAStatusReview, 0, "Sin documento adjunto, se requiere revisión manual."
	}

	signedURL, err := s.storage.SignURL(ctx, purchase.InvoiceFileKey, signedURLTTL)
	if err != nil {
		log.Printf("sign invoice url for purchase %s: %v", purchase.ID, err)
		return model.IAStatusReview, 0, "No se pudo acceder al documento, se requiere revisión manual."
	}

	content, err := s.aiClient.ClassifyInvoice(ctx, signedURL)
	if err != nil {
		log.Printf("classify invoice for purchase %s: %v", purchase.ID, err)
		switch {
		case errors.Is(err, client.ErrAIRateLimited):
			return model.IAStatusReview, 0, "Límite de peticiones del clasificador alcanzado, se requiere revisión manual."
		case errors.Is(err, client.ErrAIQuotaExceeded):
			return model.IAStatusReview, 0, "Crédito del clasificador agotado, se requiere revisión manual."
		default:
			return model.IAStatusReview, 0, "El clasificador no está disponible, se requiere revisión manual."
		}
	}

	result := extractClassification(content)
	if !result.OK {
		return model.IAStatusReview, 0,
			"Respuesta del clasificador no interpretable: " + truncate(result.Raw, 300)
	}

	status, score := decideStatus(result.Parsed)
	return status, score, result.Parsed.Details
}

// issueTickets draws the purchase's tickets at most once. A prior
// assignment returns the same codes without touching the pool; a pool
// failure leaves the list empty and never aborts the request.
func (s *validationServiceImpl) issueTickets(ctx context.Context, purchase *model.Purchase, product *model.Product) []string {
	existing, err := s.ticketRepo.FindAssignment(ctx, purchase.ID)
	if err == nil {
		return strings.Split(existing.Codes, ",")
	}
	if !isNotFound(err) {
		log.Printf("check ticket assignment for purchase %s: %v", purchase.ID, err)
		return nil
	}

	assignment := &model.TicketAssignment{
		PurchaseID: purchase.ID,
		OwnerName:  purchase.BuyerName,
		OwnerEmail: purchase.BuyerEmail,
		OwnerPhone: purchase.BuyerPhone,
	}

	codes, err := s.ticketRepo.AssignTickets(ctx, assignment, product.TicketTier, product.TicketMultiplier)
	if err != nil {
		log.Printf("assign tickets for purchase %s: %v", purchase.ID, err)
		return nil
	}
	metrics.TicketsAssignedTotal.WithLabelValues(product.TicketTier).Add(float64(len(codes)))

	s.queueNotifications(ctx, purchase, codes)
	return codes
}

// queueNotifications creates one PENDING log entry per channel for a fresh
// ticket assignment: email always, WhatsApp only when a phone is on file.
// The dispatchers pick these up, this workflow never sends anything itself.
func (s *validationServiceImpl) queueNotifications(ctx context.Context, purchase *model.Purchase, codes []string) {
	body := fmt.Sprintf(
		"Hola %s, tu compra fue validada. Tus boletos del sorteo son: %s. ¡Mucha suerte!",
		purchase.BuyerName, strings.Join(codes, ", "),
	)

	entries := []*model.NotificationLog{
		{
			ID:         uuid.NewString(),
			Channel:    model.ChannelEmail,
			Recipient:  purchase.BuyerEmail,
			Subject:    "Tus boletos del sorteo",
			Content:    body,
			Status:     model.NotificationPending,
			PurchaseID: purchase.ID,
		},
	}
	if purchase.BuyerPhone != "" {
		entries = append(entries, &model.NotificationLog{
			ID:         uuid.NewString(),
			Channel:    model.ChannelWhatsApp,
			Recipient:  purchase.BuyerPhone,
			Content:    body,
			Status:     model.NotificationPending,
			PurchaseID: purchase.ID,
		})
	}

	for _, entry := range entries {
		if err := s.notificationRepo.CreateLog(ctx, entry); err != nil {
			log.Printf("queue %s notification for purchase %s: %v", entry.Channel, purchase.ID, err)
		}
	}
}
