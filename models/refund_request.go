package models

import "time"

// Refund request statuses. A request starts pending and moves exactly once to
// approved or rejected.
const (
	RefundPending  = "pending"
	RefundApproved = "approved"
	RefundRejected = "rejected"
)

// RefundRequest tracks a customer's refund claim against a payment. Customer
// and amount fields are snapshotted at creation so the record stays
// historically accurate independent of the payment row. The unique index on
// PaymentID enforces at most one request per payment.
type RefundRequest struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	PaymentID        uint       `gorm:"not null;uniqueIndex" json:"payment_id"`
	PaymentReference string     `gorm:"type:varchar(191);not null" json:"payment_reference"`
	CustomerName     string     `gorm:"type:varchar(191);not null" json:"customer_name"`
	CustomerEmail    string     `gorm:"type:varchar(191);not null" json:"customer_email"`
	Amount           float64    `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency         string     `gorm:"type:varchar(8);not null;default:'USD'" json:"currency"`
	Reason           string     `gorm:"type:text;not null" json:"reason"`
	Status           string     `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	AdminNotes       string     `gorm:"type:text" json:"admin_notes"`
	ProcessedAt      *time.Time `json:"processed_at,omitempty"`
	ProcessedBy      string     `gorm:"type:varchar(191)" json:"processed_by"`
	CreatedAt        time.Time  `json:"created_at"`
}

func (RefundRequest) TableName() string {
	return "refund_requests"
}
