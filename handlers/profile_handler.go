package handlers

import (
	"context"
	"net/http"

	"espace-clubs-backend/models"
	"espace-clubs-backend/services"
	"espace-clubs-backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProfileEditor modifie le compte de l'utilisateur connecté
type ProfileEditor interface {
	UpdateProfile(ctx context.Context, id primitive.ObjectID, req models.UpdateProfileRequest) (*models.User, error)
	ChangePassword(ctx context.Context, id primitive.ObjectID, req models.ChangePasswordRequest) error
	SetPhoto(ctx context.Context, id primitive.ObjectID, url string) (*models.User, error)
}

// MembershipLister liste les clubs d'un utilisateur
type MembershipLister interface {
	MyClubs(ctx context.Context, user *models.User) ([]models.ClubMembership, error)
}

// AgendaLister liste les événements auxquels un utilisateur est inscrit
type AgendaLister interface {
	MyEvents(ctx context.Context, user *models.User) ([]models.MesEvenement, error)
}

// ProfileHandler gère le profil de l'utilisateur connecté
type ProfileHandler struct {
	users   ProfileEditor
	clubs   MembershipLister
	events  AgendaLister
	storage *services.ImageStorage
}

// NewProfileHandler crée le handler du profil
func NewProfileHandler(users ProfileEditor, clubs MembershipLister, events AgendaLister, storage *services.ImageStorage) *ProfileHandler {
	return &ProfileHandler{users: users, clubs: clubs, events: events, storage: storage}
}

// Me retourne le profil courant
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, user)
}

// Update modifie nom, prénom et téléphone
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.users.UpdateProfile(r.Context(), user.ID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Profil mis à jour", updated)
}

// ChangePassword change le mot de passe après vérification de l'actuel
func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.users.ChangePassword(r.Context(), user.ID, req); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Mot de passe modifié", nil)
}

// UploadPhoto enregistre la photo de profil
func (h *ProfileHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	url, ok := readUpload(w, r, h.storage, "profils")
	if !ok {
		return
	}

	updated, err := h.users.SetPhoto(r.Context(), user.ID, url)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Photo mise à jour", updated)
}

// MyClubs liste les clubs de l'utilisateur avec l'état de sa participation
func (h *ProfileHandler) MyClubs(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	clubs, err := h.clubs.MyClubs(r.Context(), user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"clubs": clubs, "total": len(clubs)})
}

// MyEvents liste les événements auxquels l'utilisateur est inscrit
func (h *ProfileHandler) MyEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	events, err := h.events.MyEvents(r.Context(), user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"evenements": events, "total": len(events)})
}
