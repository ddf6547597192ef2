package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/legacieweb/payme/models"
	"github.com/legacieweb/payme/utils"

	"gorm.io/gorm"
)

type RefundService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewRefundService(db *gorm.DB, notifier Notifier) *RefundService {
	return &RefundService{db: db, notifier: notifier}
}

// CreateRefundInput carries the snapshot fields for a new request. Empty
// snapshot fields are filled from the payment record at creation time; after
// that they are never re-derived.
type CreateRefundInput struct {
	PaymentID        uint
	PaymentReference string
	CustomerName     string
	CustomerEmail    string
	Amount           float64
	Currency         string
	Reason           string
}

// CreateRefundRequest opens a pending refund request for a payment. The
// unique index on payment_id is what enforces the one-request-per-payment
// rule, including under concurrent submissions.
func (s *RefundService) CreateRefundRequest(ctx context.Context, in CreateRefundInput) (*models.RefundRequest, error) {
	if strings.TrimSpace(in.Reason) == "" {
		return nil, fmt.Errorf("reason is required: %w", ErrInvalidArgument)
	}

	var payment models.Payment
	if err := s.db.WithContext(ctx).First(&payment, in.PaymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment %d: %w", in.PaymentID, ErrNotFound)
		}
		return nil, fmt.Errorf("lookup payment: %w", err)
	}

	req := models.RefundRequest{
		PaymentID:        payment.ID,
		PaymentReference: in.PaymentReference,
		CustomerName:     in.CustomerName,
		CustomerEmail:    in.CustomerEmail,
		Amount:           in.Amount,
		Currency:         in.Currency,
		Reason:           in.Reason,
		Status:           models.RefundPending,
	}
	if req.PaymentReference == "" {
		req.PaymentReference = payment.Reference
	}
	if req.CustomerName == "" {
		req.CustomerName = payment.Name
	}
	if req.CustomerEmail == "" {
		req.CustomerEmail = payment.Email
	}
	if req.Amount == 0 {
		req.Amount = payment.Amount
	}
	if req.Currency == "" {
		req.Currency = payment.Currency
	}

	if err := s.db.WithContext(ctx).Create(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("refund already requested for payment %d: %w", payment.ID, ErrConflict)
		}
		return nil, fmt.Errorf("create refund request: %w", err)
	}

	dispatch(s.notifier, "admin refund alert", utils.AdminEmail(),
		"New Refund Request - Payme", utils.AdminRefundAlertHTML(&req))

	return &req, nil
}

// DecideRefund moves a pending request to approved or rejected, stamping
// processed_at/processed_by and the admin notes. Requests that already left
// pending are terminal; deciding them again fails with ErrConflict.
func (s *RefundService) DecideRefund(ctx context.Context, id uint, decision, adminNotes, processedBy string) (*models.RefundRequest, error) {
	if decision != models.RefundApproved && decision != models.RefundRejected {
		return nil, fmt.Errorf("decision must be approved or rejected: %w", ErrInvalidArgument)
	}

	var req models.RefundRequest
	if err := s.db.WithContext(ctx).First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("refund request %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("lookup refund request: %w", err)
	}
	if req.Status != models.RefundPending {
		return nil, fmt.Errorf("refund request %d already %s: %w", id, req.Status, ErrConflict)
	}

	now := time.Now().UTC()
	req.Status = decision
	req.AdminNotes = adminNotes
	req.ProcessedBy = processedBy
	req.ProcessedAt = &now

	// Conditional update so a concurrent decision cannot overwrite a
	// terminal state.
	res := s.db.WithContext(ctx).Model(&models.RefundRequest{}).
		Where("id = ? AND status = ?", id, models.RefundPending).
		Updates(map[string]interface{}{
			"status":       req.Status,
			"admin_notes":  req.AdminNotes,
			"processed_by": req.ProcessedBy,
			"processed_at": req.ProcessedAt,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("update refund request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("refund request %d already decided: %w", id, ErrConflict)
	}

	subject := "Refund Request Update - Payme"
	if decision == models.RefundApproved {
		subject = "Refund Request Approved - Payme"
	}
	dispatch(s.notifier, "refund decision notice", req.CustomerEmail,
		subject, utils.RefundDecisionHTML(&req))

	return &req, nil
}

// RefundByPaymentID looks up the request attached to a payment, if any.
func (s *RefundService) RefundByPaymentID(ctx context.Context, paymentID uint) (*models.RefundRequest, error) {
	var req models.RefundRequest
	err := s.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("refund request for payment %d: %w", paymentID, ErrNotFound)
		}
		return nil, fmt.Errorf("lookup refund request: %w", err)
	}
	return &req, nil
}

// ListRefundRequests returns every request newest-first.
func (s *RefundService) ListRefundRequests(ctx context.Context) ([]models.RefundRequest, error) {
	var reqs []models.RefundRequest
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("list refund requests: %w", err)
	}
	return reqs, nil
}

type RefundStat struct {
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"totalAmount"`
}

// RefundStats groups requests by status. Every status key is present in the
// result even when no request matches it.
func (s *RefundService) RefundStats(ctx context.Context) (map[string]RefundStat, error) {
	stats := map[string]RefundStat{
		models.RefundPending:  {},
		models.RefundApproved: {},
		models.RefundRejected: {},
	}

	rows, err := s.db.WithContext(ctx).Model(&models.RefundRequest{}).
		Select("status, COUNT(*) as count, COALESCE(SUM(amount), 0) as total_amount").
		Group("status").
		Rows()
	if err != nil {
		return nil, fmt.Errorf("refund stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var stat RefundStat
		if err := rows.Scan(&status, &stat.Count, &stat.TotalAmount); err != nil {
			return nil, fmt.Errorf("refund stats scan: %w", err)
		}
		stats[status] = stat
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("refund stats rows: %w", err)
	}

	return stats, nil
}
