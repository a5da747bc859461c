package handlers

import (
	"context"
	"net/http"

	"espace-clubs-backend/constants"
	"espace-clubs-backend/models"
	"espace-clubs-backend/utils"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserAdmin regroupe la gestion des comptes par un administrateur
type UserAdmin interface {
	List(ctx context.Context, f models.UserFilter) ([]models.User, int64, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	AdminUpdate(ctx context.Context, id primitive.ObjectID, req models.UpdateUserRequest, actor *models.User) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID, actor *models.User) error
}

// ClubDecider valide ou refuse les clubs en attente
type ClubDecider interface {
	Decide(ctx context.Context, id primitive.ObjectID, statut string) (*models.Club, error)
}

// ModerationManager traite la file des commentaires signalés
type ModerationManager interface {
	ModerationQueue(ctx context.Context, q models.ListQuery) ([]models.CommentaireWithAuteur, int64, error)
	Restore(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID, user *models.User) error
}

// StatsProvider calcule le tableau de bord
type StatsProvider interface {
	Dashboard(ctx context.Context) (*models.AdminStatsResponse, error)
}

// AdminHandler gère les routes d'administration
type AdminHandler struct {
	users        UserAdmin
	clubs        ClubDecider
	commentaires ModerationManager
	stats        StatsProvider
}

// NewAdminHandler crée une nouvelle instance de AdminHandler
func NewAdminHandler(users UserAdmin, clubs ClubDecider, commentaires ModerationManager, stats StatsProvider) *AdminHandler {
	return &AdminHandler{users: users, clubs: clubs, commentaires: commentaires, stats: stats}
}

// GetStats retourne le tableau de bord
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Dashboard(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, stats)
}

// GetUsers liste les utilisateurs (recherche nom/prénom/email, filtres role et statut)
func (h *AdminHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	q, ok := listQuery(w, r)
	if !ok {
		return
	}
	f := models.UserFilter{
		ListQuery: q,
		Role:      r.URL.Query().Get("role"),
		Statut:    r.URL.Query().Get("statut"),
	}

	users, total, err := h.users.List(r.Context(), f)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondPage(w, "users", users, models.NewPage(q.Page, q.Limit, total))
}

// GetUser retourne un utilisateur
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", constants.ErrInvalidUserID)
	if !ok {
		return
	}
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, user)
}

// UpdateUser modifie rôle, statut ou identité d'un utilisateur
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", constants.ErrInvalidUserID)
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.AdminUpdate(r.Context(), id, req, admin)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.WithFields(log.Fields{"admin": admin.Email, "user": user.Email, "role": user.Role, "statut": user.Statut}).Info("✅ Utilisateur modifié par un admin")
	utils.RespondSuccess(w, "Utilisateur mis à jour", user)
}

// DeleteUser supprime un utilisateur et toutes ses données
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", constants.ErrInvalidUserID)
	if !ok {
		return
	}

	if err := h.users.Delete(r.Context(), id, admin); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Utilisateur supprimé", nil)
}

// DecideClub valide ou refuse un club en attente
func (h *AdminHandler) DecideClub(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", constants.ErrInvalidClubID)
	if !ok {
		return
	}

	var req models.ClubDecisionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	club, err := h.clubs.Decide(r.Context(), id, req.Statut)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Décision enregistrée", club)
}

// ModerationQueue liste les commentaires signalés ou masqués
func (h *AdminHandler) ModerationQueue(w http.ResponseWriter, r *http.Request) {
	q, ok := listQuery(w, r)
	if !ok {
		return
	}

	commentaires, total, err := h.commentaires.ModerationQueue(r.Context(), q)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondPage(w, "commentaires", commentaires, models.NewPage(q.Page, q.Limit, total))
}

// RestoreComment efface les signalements et réaffiche le commentaire
func (h *AdminHandler) RestoreComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", constants.ErrInvalidCommentID)
	if !ok {
		return
	}
	if err := h.commentaires.Restore(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Commentaire rétabli", nil)
}

// DeleteComment supprime un commentaire depuis la file de modération
func (h *AdminHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", constants.ErrInvalidCommentID)
	if !ok {
		return
	}
	if err := h.commentaires.Delete(r.Context(), id, admin); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Commentaire supprimé", nil)
}
