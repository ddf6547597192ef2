package admins

import (
	"log"
	"net/http"
	"time"

	"github.com/legacieweb/payme/services"
	"github.com/legacieweb/payme/utils"
)

type AnalyticsController struct {
	analytics *services.AnalyticsService
}

func NewAnalyticsController(analytics *services.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{analytics: analytics}
}

// GetAnalytics returns the today/thisWeek/thisMonth/allTime revenue summary.
// GET /api/admin/analytics
func (c *AnalyticsController) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	stats, err := c.analytics.WindowStats(r.Context(), services.StandardWindows(time.Now()))
	if err != nil {
		log.Printf("[admin] analytics: %v", err)
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
			"analytics": stats,
		},
	})
}
