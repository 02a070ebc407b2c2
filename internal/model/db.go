package model

import "time"

// Purchase statuses written by the validation workflow.
const (
	IAStatusValid   = "VALID"
	IAStatusInvalid = "INVALID"
	IAStatusReview  = "REVIEW"

	AdminStatusPending  = "PENDING"
	AdminStatusApproved = "APPROVED"
	AdminStatusRejected = "REJECTED"
)

// Notification log statuses. All three non-PENDING states are terminal.
const (
	NotificationPending = "PENDING"
	NotificationSent    = "SENT"
	NotificationFailed  = "FAILED"
	NotificationSkipped = "SKIPPED"
)

const (
	ChannelEmail    = "EMAIL"
	ChannelWhatsApp = "WHATSAPP"
)

const (
	CouponActive = "ACTIVE"
	CouponVoid   = "VOID"
	CouponWon    = "WON"
)

const (
	OwnerTypeBuyer  = "BUYER"
	OwnerTypeSeller = "SELLER"
)

type Product struct {
	ID               string `gorm:"primaryKey;size:64;not null"` // product sku
	Name             string `gorm:"size:128;not null"`
	TicketMultiplier int    `gorm:"not null;default:1"` // tickets granted per approved purchase
	TicketTier       string `gorm:"size:8;index;not null"`
	CreatedAt        time.Time
}

type Purchase struct {
	ID             string `gorm:"primaryKey;size:64;not null"`
	InvoiceNumber  string `gorm:"size:64;index"`
	InvoiceFileKey string `gorm:"size:256"` // object key in the invoice bucket, empty if none attached
	ProductID      string `gorm:"size:64;index;not null"`
	BuyerName      string `gorm:"size:128;not null"`
	BuyerEmail     string `gorm:"size:128;index;not null"`
	BuyerPhone     string `gorm:"size:32"`
	IAStatus       string `gorm:"size:16;index"` // VALID, INVALID, REVIEW
	IAScore        int    `gorm:"not null;default:0"`
	IADetail       string `gorm:"size:1024"`
	AdminStatus    string `gorm:"size:16;index;not null;default:PENDING"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Ticket struct {
	ID         uint   `gorm:"primaryKey"`
	Code       string `gorm:"size:32;uniqueIndex;not null"`
	Tier       string `gorm:"size:8;index;not null"`
	Assigned   bool   `gorm:"index;not null;default:false"` // one-way transition
	AssignedAt *time.Time
	CreatedAt  time.Time
}

// TicketAssignment links a purchase to its drawn tickets. Codes are stored
// on the row itself so the idempotent path never needs a second join.
type TicketAssignment struct {
	ID         uint   `gorm:"primaryKey"`
	PurchaseID string `gorm:"size:64;uniqueIndex;not null"`
	Codes      string `gorm:"size:1024;not null"` // comma separated
	OwnerName  string `gorm:"size:128;not null"`
	OwnerEmail string `gorm:"size:128;not null"`
	OwnerPhone string `gorm:"size:32"`
	CreatedAt  time.Time
}

type Coupon struct {
	ID         uint   `gorm:"primaryKey"`
	Code       string `gorm:"size:32;uniqueIndex;not null"`
	Serial     string `gorm:"size:16;uniqueIndex;not null"`
	OwnerType  string `gorm:"size:16;index;not null"` // BUYER, SELLER
	OwnerName  string `gorm:"size:128;not null"`
	OwnerEmail string `gorm:"size:128;index;not null"`
	OwnerPhone string `gorm:"size:32"`
	Status     string `gorm:"size:16;index;not null;default:ACTIVE"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type NotificationLog struct {
	ID                string `gorm:"primaryKey;size:64;not null"`
	Channel           string `gorm:"size:16;index;not null"` // EMAIL, WHATSAPP
	Recipient         string `gorm:"size:128;not null"`
	Subject           string `gorm:"size:256"`
	Content           string `gorm:"size:4096"`
	Status            string `gorm:"size:16;index;not null;default:PENDING"`
	Error             string `gorm:"size:1024"`
	RetryCount        int    `gorm:"not null;default:0"`
	ProviderMessageID string `gorm:"size:128"`
	PurchaseID        string `gorm:"size:64;index"`
	SentAt            *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type NotificationTemplate struct {
	ID      uint   `gorm:"primaryKey"`
	Key     string `gorm:"size:64;index:idx_template_key_channel;not null"`
	Channel string `gorm:"size:16;index:idx_template_key_channel;not null"`
	Subject string `gorm:"size:256"`
	Body    string `gorm:"size:4096;not null"`
	// Ordered placeholder names, comma separated. For WhatsApp structured
	// templates this order drives the positional parameter list.
	Placeholders     string `gorm:"size:512"`
	WhatsAppTemplate string `gorm:"size:128"` // provider-side template name, free text when empty
	// No column default here: gorm drops zero-valued fields that carry a
	// default tag on insert, which would turn Active=false into true.
	Active bool `gorm:"index;not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Setting struct {
	Key       string `gorm:"primaryKey;size:64;not null"`
	Value     string `gorm:"size:1024"`
	UpdatedAt time.Time
}
