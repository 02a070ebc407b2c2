package dto

type ValidatePurchaseRequest struct {
	PurchaseID string `json:"purchaseId"`
	AdminMode  bool   `json:"adminMode"`
}

type ValidatePurchaseResponse struct {
	Success         bool     `json:"success"`
	IAStatus        string   `json:"iaStatus"`
	IAScore         int      `json:"iaScore"`
	IADetail        string   `json:"iaDetail"`
	TicketsAssigned []string `json:"ticketsAssigned"`
	Message         string   `json:"message"`
}

type SendEmailRequest struct {
	To                string            `json:"to"`
	Subject           string            `json:"subject"`
	Body              string            `json:"body"`
	IsHTML            bool              `json:"isHtml"`
	NotificationLogID string            `json:"notificationLogId"`
	TemplateKey       string            `json:"templateKey"`
	TemplateData      map[string]string `json:"templateData"`
}

type SendWhatsAppRequest struct {
	To                string            `json:"to"`
	Message           string            `json:"message"`
	NotificationLogID string            `json:"notificationLogId"`
	TemplateKey       string            `json:"templateKey"`
	TemplateData      map[string]string `json:"templateData"`
}

// DispatchResponse covers both the sent and the skipped outcome of a
// channel dispatcher. Skipped is success from the caller's point of view.
type DispatchResponse struct {
	Success           bool   `json:"success"`
	Skipped           bool   `json:"skipped,omitempty"`
	Reason            string `json:"reason,omitempty"`
	EmailID           string `json:"emailId,omitempty"`
	MessageID         string `json:"messageId,omitempty"`
	NotificationLogID string `json:"notificationLogId,omitempty"`
}

type GenerateTicketsRequest struct {
	Tier  string `json:"tier"`
	Count int    `json:"count"`
}

type GenerateTicketsResponse struct {
	Success   bool   `json:"success"`
	Tier      string `json:"tier"`
	Generated int    `json:"generated"`
}

type IssueCouponRequest struct {
	OwnerType  string `json:"ownerType"`
	OwnerName  string `json:"ownerName"`
	OwnerEmail string `json:"ownerEmail"`
	OwnerPhone string `json:"ownerPhone"`
}

type IssueCouponResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Serial  string `json:"serial"`
}

type AdminLoginRequest struct {
	Password string `json:"password"`
}

type AdminLoginResponse struct {
	Token string `json:"token"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
