package controllers

import (
	"net/http"
	"strconv"

	"github.com/legacieweb/payme/middleware"
	"github.com/legacieweb/payme/services"
	"github.com/legacieweb/payme/utils"

	"github.com/gorilla/mux"
)

type RefundController struct {
	refunds *services.RefundService
}

func NewRefundController(refunds *services.RefundService) *RefundController {
	return &RefundController{refunds: refunds}
}

type createRefundRequest struct {
	PaymentID        uint    `json:"paymentId"`
	PaymentReference string  `json:"paymentReference"`
	CustomerName     string  `json:"customerName" validate:"nameok"`
	CustomerEmail    string  `json:"customerEmail" validate:"emailok"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
	Reason           string  `json:"reason" validate:"required"`
}

// CreateRefund opens a pending refund request for an existing payment.
// POST /api/refunds
func (c *RefundController) CreateRefund(w http.ResponseWriter, r *http.Request) {
	var req createRefundRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	refund, err := c.refunds.CreateRefundRequest(r.Context(), services.CreateRefundInput{
		PaymentID:        req.PaymentID,
		PaymentReference: req.PaymentReference,
		CustomerName:     req.CustomerName,
		CustomerEmail:    req.CustomerEmail,
		Amount:           req.Amount,
		Currency:         req.Currency,
		Reason:           req.Reason,
	})
	if err != nil {
		writeServiceError(w, err, "Failed to submit refund request")
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Refund request submitted successfully",
		Data:    refund,
	})
}

// GetRefundByPayment returns the refund request attached to a payment.
// GET /api/refunds/payment/{paymentId}
func (c *RefundController) GetRefundByPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := strconv.ParseUint(mux.Vars(r)["paymentId"], 10, 32)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: "Invalid payment id",
		})
		return
	}

	refund, err := c.refunds.RefundByPaymentID(r.Context(), uint(paymentID))
	if err != nil {
		writeServiceError(w, err, "Failed to fetch refund request")
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data:    refund,
	})
}
