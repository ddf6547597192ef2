package routes

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/legacieweb/payme/controllers"
	"github.com/legacieweb/payme/controllers/admins"
	"github.com/legacieweb/payme/database"
	"github.com/legacieweb/payme/middleware"
	"github.com/legacieweb/payme/services"
	"github.com/legacieweb/payme/utils"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

func optionsHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func InitRouter() *mux.Router {
	r := mux.NewRouter()

	// Health check endpoint for Docker health checks (root level)
	r.Handle("/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"service":   "payme-api",
		})
	})).Methods(http.MethodGet)

	// CORS - origins from CORS_ALLOWED_ORIGINS (comma-separated) or defaults
	origins := []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	if originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS"); originsEnv != "" {
		for _, p := range strings.Split(originsEnv, ",") {
			if o := strings.TrimSpace(p); o != "" {
				origins = append(origins, o)
			}
		}
	}
	r.Use(func(next http.Handler) http.Handler {
		return handlers.CORS(
			handlers.AllowedOrigins(origins),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Requested-With", "X-Request-ID"}),
			handlers.AllowCredentials(),
		)(next)
	})

	gateway, err := utils.NewPaystackClient(nil)
	if err != nil {
		log.Fatalf("paystack config: %v", err)
	}
	mailer, err := utils.NewMailerFromEnv()
	if err != nil {
		log.Fatalf("mailer config: %v", err)
	}

	paymentService := services.NewPaymentService(database.DB, gateway, mailer)
	refundService := services.NewRefundService(database.DB, mailer)
	analyticsService := services.NewAnalyticsService(database.DB)

	paymentController := controllers.NewPaymentController(paymentService)
	refundController := controllers.NewRefundController(refundService)
	adminPayments := admins.NewPaymentController(paymentService, analyticsService)
	adminAnalytics := admins.NewAnalyticsController(analyticsService)
	adminRefunds := admins.NewRefundController(refundService)

	api := r.PathPrefix("/api").Subrouter()

	// Catch-all OPTIONS handler for CORS preflight
	api.PathPrefix("/").HandlerFunc(optionsHandler).Methods(http.MethodOptions)

	// Verification is retried by clients; keep the window generous. The
	// admin secret check gets a tight window against brute forcing.
	verifyLimiter := middleware.NewIPRateLimiter(60, time.Minute)
	loginLimiter := middleware.NewIPRateLimiter(10, time.Minute)

	// Public payment endpoints
	api.Handle("/payments/verify", verifyLimiter.Middleware(http.HandlerFunc(paymentController.VerifyPayment))).Methods(http.MethodPost)
	api.Handle("/payments/{email}", http.HandlerFunc(paymentController.GetPaymentsByEmail)).Methods(http.MethodGet)

	// Public refund endpoints
	api.Handle("/refunds", http.HandlerFunc(refundController.CreateRefund)).Methods(http.MethodPost)
	api.Handle("/refunds/payment/{paymentId}", http.HandlerFunc(refundController.GetRefundByPayment)).Methods(http.MethodGet)

	// Admin session
	api.Handle("/admin/verify", loginLimiter.Middleware(http.HandlerFunc(admins.Verify))).Methods(http.MethodPost)
	api.Handle("/admin/logout", middleware.AdminAuthMiddleware(http.HandlerFunc(admins.Logout))).Methods(http.MethodPost)

	// Admin dashboards
	api.Handle("/admin/payments", middleware.AdminAuthMiddleware(http.HandlerFunc(adminPayments.GetPayments))).Methods(http.MethodGet)
	api.Handle("/admin/analytics", middleware.AdminAuthMiddleware(http.HandlerFunc(adminAnalytics.GetAnalytics))).Methods(http.MethodGet)

	// Admin refund workflow
	api.Handle("/refunds", middleware.AdminAuthMiddleware(http.HandlerFunc(adminRefunds.GetRefunds))).Methods(http.MethodGet)
	api.Handle("/refunds/stats", middleware.AdminAuthMiddleware(http.HandlerFunc(adminRefunds.GetRefundStats))).Methods(http.MethodGet)
	api.Handle("/refunds/{id}", middleware.AdminAuthMiddleware(http.HandlerFunc(adminRefunds.DecideRefund))).Methods(http.MethodPut)

	return r
}
