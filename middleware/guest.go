package middleware

import (
	"net/http"

	"espace-clubs-backend/utils"
)

// Guest vérifie que l'utilisateur n'est PAS connecté.
// Un token valide refuse l'accès; un token absent, mal formé ou expiré laisse passer.
func Guest(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			if _, err := utils.ValidateToken(token, jwtSecret); err == nil {
				utils.RespondError(w, http.StatusForbidden, "Vous êtes déjà connecté")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
