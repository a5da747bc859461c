package middleware

import (
	"net/http"

	"espace-clubs-backend/constants"
	"espace-clubs-backend/utils"

	log "github.com/sirupsen/logrus"
)

// RequireAdmin vérifie que l'utilisateur chargé par Auth est administrateur
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r.Context())
		if user == nil {
			utils.RespondError(w, http.StatusUnauthorized, constants.ErrNotAuthenticated)
			return
		}

		if !user.IsAdmin() {
			log.Printf("⚠️  Accès admin refusé pour: %s (role=%s)", user.Email, user.Role)
			utils.RespondError(w, http.StatusForbidden, constants.ErrAdminOnly)
			return
		}

		next.ServeHTTP(w, r)
	})
}
