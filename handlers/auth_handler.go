package handlers

import (
	"context"
	"net/http"

	"espace-clubs-backend/constants"
	"espace-clubs-backend/models"
	"espace-clubs-backend/utils"

	log "github.com/sirupsen/logrus"
)

// Authenticator couvre l'inscription et la connexion
type Authenticator interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
}

// AuthHandler gère les requêtes d'authentification
type AuthHandler struct {
	users Authenticator
}

// NewAuthHandler crée une nouvelle instance de AuthHandler
func NewAuthHandler(users Authenticator) *AuthHandler {
	return &AuthHandler{users: users}
}

// Register gère l'inscription d'un nouvel utilisateur
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.users.Register(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("✅ Nouvel utilisateur inscrit: %s", resp.User.Email)
	utils.RespondJSON(w, http.StatusCreated, resp)
}

// Login gère la connexion d'un utilisateur
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidData)
		return
	}

	resp, err := h.users.Login(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, resp)
}
