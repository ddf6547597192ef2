package admins

import (
	"log"
	"net/http"

	"github.com/legacieweb/payme/services"
	"github.com/legacieweb/payme/utils"
)

// PaymentController serves the admin payments dashboard data.
type PaymentController struct {
	payments  *services.PaymentService
	analytics *services.AnalyticsService
}

func NewPaymentController(payments *services.PaymentService, analytics *services.AnalyticsService) *PaymentController {
	return &PaymentController{payments: payments, analytics: analytics}
}

// GetPayments returns every payment newest-first together with the revenue
// overview and the 30-day daily series.
// GET /api/admin/payments
func (c *PaymentController) GetPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := c.payments.ListPayments(r.Context())
	if err != nil {
		log.Printf("[admin] list payments: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to fetch payments",
		})
		return
	}

	overview, err := c.analytics.Overview(r.Context())
	if err != nil {
		log.Printf("[admin] overview: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to compute analytics",
		})
		return
	}

	daily, err := c.analytics.DailySeries(r.Context(), 30)
	if err != nil {
		log.Printf("[admin] daily series: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to compute analytics",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"payments":      payments,
			"analytics":     overview,
			"dailyPayments": daily,
		},
	})
}
