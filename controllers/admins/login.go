package admins

import (
	"crypto/subtle"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/legacieweb/payme/middleware"
	"github.com/legacieweb/payme/utils"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type verifyRequest struct {
	Password string `json:"password" validate:"required"`
}

// Verify checks the shared admin secret and, on success, issues a short-lived
// session token verified on every admin request. Prefer ADMIN_PASSWORD_HASH
// (a bcrypt hash); plain ADMIN_PASSWORD is compared in constant time.
// POST /api/admin/verify
func Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	ok := false
	if hash := os.Getenv("ADMIN_PASSWORD_HASH"); hash != "" {
		ok = bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) == nil
	} else if secret := os.Getenv("ADMIN_PASSWORD"); secret != "" {
		ok = subtle.ConstantTimeCompare([]byte(secret), []byte(req.Password)) == 1
	}

	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{
			Success: false,
			Message: "Invalid password",
		})
		return
	}

	token, err := utils.GenerateAdminToken("admin")
	if err != nil {
		log.Printf("[admin] token issue failed: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to create session",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"token": token,
		},
	})
}

// Logout revokes the current session token until its natural expiry.
// POST /api/admin/logout
func Logout(w http.ResponseWriter, r *http.Request) {
	claims, _ := r.Context().Value(utils.AdminClaimsKey).(jwt.MapClaims)
	jti, _ := claims["jti"].(string)
	if jti == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: "No session to revoke",
		})
		return
	}

	ttl := 6 * time.Hour
	if exp, ok := claims["exp"].(float64); ok {
		if until := time.Until(time.Unix(int64(exp), 0)); until > 0 {
			ttl = until
		}
	}

	if err := utils.RevokeJTI(jti, ttl); err != nil {
		log.Printf("[admin] revoke failed: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to revoke session",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Logged out",
	})
}
