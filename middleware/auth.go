package middleware

import (
	"context"
	"net/http"
	"strings"

	"espace-clubs-backend/constants"
	"espace-clubs-backend/models"
	"espace-clubs-backend/utils"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const (
	UserContextKey        contextKey = "user"
	CurrentUserContextKey contextKey = "current_user"
)

// UserLoader relit l'utilisateur du token depuis la base
type UserLoader interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// bearerToken extrait le token de l'en-tête "Authorization: Bearer <token>"
func bearerToken(r *http.Request) (string, bool) {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// loadUser valide le token et charge le compte correspondant
func loadUser(r *http.Request, token, jwtSecret string, users UserLoader) (*utils.Claims, *models.User, error) {
	claims, err := utils.ValidateToken(token, jwtSecret)
	if err != nil {
		return nil, nil, err
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return claims, nil, nil
	}
	user, err := users.FindByID(r.Context(), id)
	return claims, user, err
}

func isReadOnly(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

// Auth vérifie le token JWT et relit l'utilisateur: le rôle et le statut viennent de la base, pas du token.
// Un compte bloqué garde la lecture mais ne peut plus rien modifier.
func Auth(jwtSecret string, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				utils.RespondError(w, http.StatusUnauthorized, "Token d'authentification manquant")
				return
			}
			token, ok := bearerToken(r)
			if !ok {
				utils.RespondError(w, http.StatusUnauthorized, "Format du token invalide")
				return
			}

			claims, user, err := loadUser(r, token, jwtSecret, users)
			if claims == nil {
				utils.RespondError(w, http.StatusUnauthorized, "Token invalide ou expiré")
				return
			}
			if err != nil {
				log.WithError(err).Error("Erreur lors du chargement de l'utilisateur")
				utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
				return
			}
			if user == nil {
				utils.RespondError(w, http.StatusUnauthorized, constants.ErrUserNotFound)
				return
			}
			if user.IsBlocked() && !isReadOnly(r.Method) {
				utils.RespondError(w, http.StatusForbidden, constants.ErrAccountBlocked)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			ctx = context.WithValue(ctx, CurrentUserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth renseigne l'utilisateur quand un token valide est fourni, sans jamais refuser la requête
func OptionalAuth(jwtSecret string, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			claims, user, err := loadUser(r, token, jwtSecret, users)
			if claims == nil || err != nil || user == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			ctx = context.WithValue(ctx, CurrentUserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext récupère les claims du token depuis le contexte
func GetUserFromContext(ctx context.Context) *utils.Claims {
	claims, ok := ctx.Value(UserContextKey).(*utils.Claims)
	if !ok {
		return nil
	}
	return claims
}

// CurrentUser récupère l'utilisateur chargé par Auth, ou nil
func CurrentUser(ctx context.Context) *models.User {
	user, ok := ctx.Value(CurrentUserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// WithUser place un utilisateur dans le contexte (websocket, tests)
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, CurrentUserContextKey, user)
}
