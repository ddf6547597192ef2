package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/legacieweb/payme/middleware"
	"github.com/legacieweb/payme/services"
	"github.com/legacieweb/payme/utils"

	"github.com/gorilla/mux"
)

type PaymentController struct {
	payments *services.PaymentService
}

func NewPaymentController(payments *services.PaymentService) *PaymentController {
	return &PaymentController{payments: payments}
}

type verifyPaymentRequest struct {
	Reference string `json:"reference" validate:"required"`
	Name      string `json:"name" validate:"nameok"`
	Email     string `json:"email" validate:"emailok"`
}

// VerifyPayment confirms a reference with the processor and records it.
// Resubmitting the same reference is safe and returns the same success
// response without creating another record.
// POST /api/payments/verify
func (c *PaymentController) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	result, err := c.payments.VerifyAndRecord(r.Context(), req.Reference, req.Name, req.Email)
	if err != nil {
		log.Printf("[payments] verify %s: %v", req.Reference, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Payment verification is temporarily unavailable",
		})
		return
	}

	if !result.Success {
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
			Success: false,
			Message: result.Message,
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Payment verified",
		Data:    result.Data,
	})
}

// GetPaymentsByEmail lists a customer's payments newest-first.
// GET /api/payments/{email}
func (c *PaymentController) GetPaymentsByEmail(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]

	payments, err := c.payments.ListPaymentsByEmail(r.Context(), email)
	if err != nil {
		log.Printf("[payments] list by email: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to fetch payments",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data:    payments,
	})
}

// writeServiceError maps service sentinel errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: err.Error()})
	case errors.Is(err, services.ErrConflict):
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: err.Error()})
	case errors.Is(err, services.ErrInvalidArgument):
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: err.Error()})
	default:
		log.Printf("[controllers] %s: %v", fallback, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: fallback})
	}
}
