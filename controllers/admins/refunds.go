package admins

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/legacieweb/payme/middleware"
	"github.com/legacieweb/payme/services"
	"github.com/legacieweb/payme/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

type RefundController struct {
	refunds *services.RefundService
}

func NewRefundController(refunds *services.RefundService) *RefundController {
	return &RefundController{refunds: refunds}
}

// GetRefunds lists every refund request newest-first.
// GET /api/refunds
func (c *RefundController) GetRefunds(w http.ResponseWriter, r *http.Request) {
	refunds, err := c.refunds.ListRefundRequests(r.Context())
	if err != nil {
		log.Printf("[admin] list refunds: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to fetch refund requests",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data:    refunds,
	})
}

type decideRefundRequest struct {
	Status      string `json:"status" validate:"required"`
	AdminNotes  string `json:"adminNotes"`
	ProcessedBy string `json:"processedBy"`
}

// DecideRefund approves or rejects a pending request. Requests that already
// left pending are terminal and answer 409.
// PUT /api/refunds/{id}
func (c *RefundController) DecideRefund(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: "Invalid refund request id",
		})
		return
	}

	var req decideRefundRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	processedBy := req.ProcessedBy
	if processedBy == "" {
		if claims, ok := r.Context().Value(utils.AdminClaimsKey).(jwt.MapClaims); ok {
			processedBy, _ = claims["sub"].(string)
		}
	}
	if processedBy == "" {
		processedBy = "admin"
	}

	refund, err := c.refunds.DecideRefund(r.Context(), uint(id), req.Status, req.AdminNotes, processedBy)
	if err != nil {
		writeDecisionError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Refund request " + refund.Status,
		Data:    refund,
	})
}

// GetRefundStats groups refund requests by status. All three status keys are
// always present.
// GET /api/refunds/stats
func (c *RefundController) GetRefundStats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.refunds.RefundStats(r.Context())
	if err != nil {
		log.Printf("[admin] refund stats: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to compute refund stats",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"stats": stats,
		},
	})
}

func writeDecisionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: err.Error()})
	case errors.Is(err, services.ErrConflict):
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: err.Error()})
	case errors.Is(err, services.ErrInvalidArgument):
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: err.Error()})
	default:
		log.Printf("[admin] decide refund: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to update refund request"})
	}
}
