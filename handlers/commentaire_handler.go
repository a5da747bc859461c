package handlers

import (
	"context"
	"net/http"

	"espace-clubs-backend/constants"
	"espace-clubs-backend/middleware"
	"espace-clubs-backend/models"
	"espace-clubs-backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommentaireManager regroupe les opérations sur les commentaires d'un sondage
type CommentaireManager interface {
	List(ctx context.Context, sondageID primitive.ObjectID, q models.ListQuery, viewer *models.User) ([]models.CommentaireWithAuteur, int64, error)
	Create(ctx context.Context, sondageID primitive.ObjectID, author *models.User, contenu string) (*models.CommentaireWithAuteur, error)
	Update(ctx context.Context, id primitive.ObjectID, author *models.User, contenu string) (*models.Commentaire, error)
	Delete(ctx context.Context, id primitive.ObjectID, user *models.User) error
	Report(ctx context.Context, id primitive.ObjectID, user *models.User) (*models.Commentaire, error)
}

// CommentaireHandler gère les commentaires
type CommentaireHandler struct {
	commentaires CommentaireManager
}

// NewCommentaireHandler crée le handler des commentaires
func NewCommentaireHandler(commentaires CommentaireManager) *CommentaireHandler {
	return &CommentaireHandler{commentaires: commentaires}
}

// List liste les commentaires visibles d'un sondage, du plus récent au plus ancien
func (h *CommentaireHandler) List(w http.ResponseWriter, r *http.Request) {
	sondageID, ok := pathID(w, r, "id", constants.ErrInvalidPollID)
	if !ok {
		return
	}
	q, ok := listQuery(w, r)
	if !ok {
		return
	}

	commentaires, total, err := h.commentaires.List(r.Context(), sondageID, q, middleware.CurrentUser(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondPage(w, "commentaires", commentaires, models.NewPage(q.Page, q.Limit, total))
}

// Create publie un commentaire après modération
func (h *CommentaireHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	sondageID, ok := pathID(w, r, "id", constants.ErrInvalidPollID)
	if !ok {
		return
	}
	var req models.CommentaireRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	commentaire, err := h.commentaires.Create(r.Context(), sondageID, user, req.Contenu)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondCreated(w, "Commentaire publié", commentaire)
}

// Update modifie son propre commentaire (nouvelle modération)
func (h *CommentaireHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", constants.ErrInvalidCommentID)
	if !ok {
		return
	}
	var req models.CommentaireRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	commentaire, err := h.commentaires.Update(r.Context(), id, user, req.Contenu)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Commentaire modifié", commentaire)
}

// Delete supprime un commentaire (auteur, président du club ou admin)
func (h *CommentaireHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", constants.ErrInvalidCommentID)
	if !ok {
		return
	}

	if err := h.commentaires.Delete(r.Context(), id, user); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Commentaire supprimé", nil)
}

// Report signale un commentaire; il est masqué au-delà du seuil
func (h *CommentaireHandler) Report(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", constants.ErrInvalidCommentID)
	if !ok {
		return
	}

	commentaire, err := h.commentaires.Report(r.Context(), id, user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Commentaire signalé", map[string]interface{}{
		"id":                  commentaire.ID,
		"nombre_signalements": len(commentaire.Signalements),
		"masque":              commentaire.Masque,
	})
}
