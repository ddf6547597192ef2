package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/legacieweb/payme/models"
	"github.com/legacieweb/payme/utils"

	"gorm.io/gorm"
)

// Gateway confirms a transaction reference with the payment processor. The
// processor is authoritative: a reference it rejects is a normal failure
// outcome, not a local validation problem.
type Gateway interface {
	Verify(ctx context.Context, reference string) (*utils.PaystackVerification, error)
}

// Notifier delivers an outbound message. Implementations are best-effort;
// the services never consult the result on the request path.
type Notifier interface {
	Send(to, subject, html string) error
}

type PaymentService struct {
	db       *gorm.DB
	gateway  Gateway
	notifier Notifier
}

func NewPaymentService(db *gorm.DB, gateway Gateway, notifier Notifier) *PaymentService {
	return &PaymentService{db: db, gateway: gateway, notifier: notifier}
}

// VerifyResult is the outcome of a verification call. Success=false with a
// message means the processor rejected the reference; it is returned to the
// caller as a normal response, never as an error.
type VerifyResult struct {
	Success bool                       `json:"success"`
	Message string                     `json:"message,omitempty"`
	Data    *utils.PaystackTransaction `json:"data,omitempty"`
}

// VerifyAndRecord confirms reference with the processor and commits the
// payment exactly once. Caller-supplied name/email take priority over the
// processor's customer fields; the processor reports the amount in minor
// units. A duplicate verification (or losing a race on the reference unique
// index) still returns success but skips persistence and notifications.
func (s *PaymentService) VerifyAndRecord(ctx context.Context, reference, name, email string) (*VerifyResult, error) {
	v, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if !v.OK || v.Data.Status != "success" {
		msg := v.Message
		if msg == "" {
			msg = "Payment verification failed"
		}
		return &VerifyResult{Success: false, Message: msg}, nil
	}

	tx := v.Data
	payment := models.Payment{
		Name:      strings.TrimSpace(name),
		Email:     strings.TrimSpace(email),
		Amount:    float64(tx.Amount) / 100,
		Reference: tx.Reference,
		Status:    "success",
		Currency:  tx.Currency,
		PaidAt:    tx.PaidAt,
	}
	if payment.Name == "" {
		payment.Name = strings.TrimSpace(tx.Customer.FirstName + " " + tx.Customer.LastName)
	}
	if payment.Email == "" {
		payment.Email = tx.Customer.Email
	}
	if payment.Currency == "" {
		payment.Currency = "USD"
	}

	var existing models.Payment
	err = s.db.WithContext(ctx).Where("reference = ?", tx.Reference).First(&existing).Error
	if err == nil {
		// Already recorded: duplicate verification is a persistence no-op.
		return &VerifyResult{Success: true, Data: &tx}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup payment: %w", err)
	}

	if err := s.db.WithContext(ctx).Create(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race to a concurrent verify of the same reference.
			return &VerifyResult{Success: true, Data: &tx}, nil
		}
		return nil, fmt.Errorf("create payment: %w", err)
	}

	dispatch(s.notifier, "payment receipt", payment.Email,
		"Payment Receipt - Payme", utils.PaymentReceiptHTML(&payment))
	dispatch(s.notifier, "admin payment alert", utils.AdminEmail(),
		"New Payment Received - Payme", utils.AdminPaymentAlertHTML(&payment))

	return &VerifyResult{Success: true, Data: &tx}, nil
}

// ListPaymentsByEmail returns the customer's payments newest-first. The match
// is case-insensitive.
func (s *PaymentService) ListPaymentsByEmail(ctx context.Context, email string) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("list payments by email: %w", err)
	}
	return payments, nil
}

// ListPayments returns every recorded payment newest-first.
func (s *PaymentService) ListPayments(ctx context.Context) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// dispatch sends a notification on a detached goroutine. Failures are logged
// and never reach the request path; the committed record is never rolled back
// or retried because of them.
func dispatch(n Notifier, kind, to, subject, html string) {
	if n == nil || to == "" {
		return
	}
	go func() {
		if err := n.Send(to, subject, html); err != nil {
			log.Printf("[notify] %s to %s failed: %v", kind, to, err)
		}
	}()
}
