package handlers

import (
	"context"
	"net/http"

	"espace-clubs-backend/constants"
	"espace-clubs-backend/middleware"
	"espace-clubs-backend/models"
	"espace-clubs-backend/services"
	"espace-clubs-backend/utils"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClubManager regroupe le cycle de vie d'un club et de ses adhésions
type ClubManager interface {
	List(ctx context.Context, f models.ClubFilter, viewer *models.User) ([]models.Club, int64, error)
	Get(ctx context.Context, id primitive.ObjectID, viewer *models.User) (*models.Club, error)
	Create(ctx context.Context, req models.CreateClubRequest, creator *models.User) (*models.Club, error)
	Update(ctx context.Context, id primitive.ObjectID, req models.UpdateClubRequest, user *models.User) (*models.Club, error)
	SetLogo(ctx context.Context, id primitive.ObjectID, url string, user *models.User) (*models.Club, error)
	Delete(ctx context.Context, id primitive.ObjectID, user *models.User) error
	Join(ctx context.Context, clubID primitive.ObjectID, user *models.User, message string) (*models.ParticipationMembre, error)
	DecideParticipation(ctx context.Context, clubID, participationID primitive.ObjectID, statut string, user *models.User) (*models.ParticipationMembre, error)
	Leave(ctx context.Context, clubID primitive.ObjectID, user *models.User) error
	Participations(ctx context.Context, clubID primitive.ObjectID, statut string, user *models.User) ([]models.ParticipationWithUser, error)
	ExportMembres(ctx context.Context, clubID primitive.ObjectID, user *models.User) ([]byte, string, error)
}

// ClubHandler gère les clubs et les adhésions
type ClubHandler struct {
	clubs   ClubManager
	storage *services.ImageStorage
}

// NewClubHandler crée le handler des clubs
func NewClubHandler(clubs ClubManager, storage *services.ImageStorage) *ClubHandler {
	return &ClubHandler{clubs: clubs, storage: storage}
}

// List liste les clubs actifs (les admins peuvent filtrer par statut)
func (h *ClubHandler) List(w http.ResponseWriter, r *http.Request) {
	q, ok := listQuery(w, r)
	if !ok {
		return
	}
	f := models.ClubFilter{
		ListQuery: q,
		Categorie: r.URL.Query().Get("categorie"),
		Statut:    r.URL.Query().Get("statut"),
	}

	clubs, total, err := h.clubs.List(r.Context(), f, middleware.CurrentUser(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondPage(w, "clubs", clubs, models.NewPage(q.Page, q.Limit, total))
}

// Get retourne un club
func (h *ClubHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", constants.ErrInvalidClubID)
	if !ok {
		return
	}
	club, err := h.clubs.Get(r.Context(), id, middleware.CurrentUser(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, club)
}

// Create crée un club; le créateur en devient président
func (h *ClubHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CreateClubRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	club, err := h.clubs.Create(r.Context(), req, user)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("✅ Club créé: %s (statut=%s) par %s", club.Nom, club.Statut, user.Email)
	utils.RespondCreated(w, "Club créé", club)
}

// Update modifie un club (président ou admin)
func (h *ClubHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", constants.ErrInvalidClubID)
	if !ok {
		return
	}

	var req models.UpdateClubRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	club, err := h.clubs.Update(r.Context(), id, req, user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Club mis à jour", club)
}

// Delete supprime un club et ses données
func (h *ClubHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", constants.ErrInvalidClubID)
	if !ok {
		return
	}

	if err := h.clubs.Delete(r.Context(), id, user); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Club supprimé", nil)
}

// UploadLogo enregistre le logo du club
func (h *ClubHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", constants.ErrInvalidClubID)
	if !ok {
		return
	}

	url, ok := readUpload(w, r, h.storage, "clubs")
	if !ok {
		return
	}

	club, err := h.clubs.SetLogo(r.Context(), id, url, user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Logo mis à jour", club)
}

// Join envoie une demande d'adhésion
func (h *ClubHandler) Join(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", constants.ErrInvalidClubID)
	if !ok {
		return
	}

	var req models.ParticipationRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	participation, err := h.clubs.Join(r.Context(), id, user, req.Message)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondCreated(w, "Demande d'adhésion envoyée", participation)
}

// Participations liste les demandes d'un club (filtre statut)
func (h *ClubHandler) Participations(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", constants.ErrInvalidClubID)
	if !ok {
		return
	}

	participations, err := h.clubs.Participations(r.Context(), id, r.URL.Query().Get("statut"), user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"participations": participations,
		"total":          len(participations),
	})
}

// DecideParticipation accepte ou refuse une demande
func (h *ClubHandler) DecideParticipation(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	clubID, ok := pathID(w, r, "id", constants.ErrInvalidClubID)
	if !ok {
		return
	}
	participationID, ok := pathID(w, r, "pid", constants.ErrInvalidParticipationID)
	if !ok {
		return
	}

	var req models.ParticipationDecisionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	participation, err := h.clubs.DecideParticipation(r.Context(), clubID, participationID, req.Statut, user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Décision enregistrée", participation)
}

// Leave quitte le club ou annule la demande
func (h *ClubHandler) Leave(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", constants.ErrInvalidClubID)
	if !ok {
		return
	}

	if err := h.clubs.Leave(r.Context(), id, user); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Vous avez quitté le club", nil)
}

// ExportMembres télécharge la liste des membres au format XLSX
func (h *ClubHandler) ExportMembres(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", constants.ErrInvalidClubID)
	if !ok {
		return
	}

	data, filename, err := h.clubs.ExportMembres(r.Context(), id, user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondFile(w, constants.HeaderXLSX, filename, data, true)
}
