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

// SondageManager regroupe la gestion des sondages et l'export de leurs résultats
type SondageManager interface {
	List(ctx context.Context, f models.SondageFilter) ([]models.Sondage, int64, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.SondageDetail, error)
	Create(ctx context.Context, req models.CreateSondageRequest, user *models.User) (*models.Sondage, error)
	Update(ctx context.Context, id primitive.ObjectID, req models.UpdateSondageRequest, user *models.User) (*models.Sondage, error)
	Close(ctx context.Context, id primitive.ObjectID, user *models.User) (*models.ResultatsSondage, error)
	Delete(ctx context.Context, id primitive.ObjectID, user *models.User) error
	Resultats(ctx context.Context, id primitive.ObjectID) (*models.ResultatsSondage, error)
	ResultatsPNG(ctx context.Context, id primitive.ObjectID) ([]byte, error)
	ResultatsXLSX(ctx context.Context, id primitive.ObjectID) ([]byte, string, error)
}

// ResumeProvider produit la synthèse des commentaires d'un sondage
type ResumeProvider interface {
	Resume(ctx context.Context, sondageID primitive.ObjectID) (*models.ResumeSondage, error)
}

// SondageHandler gère les sondages, leurs résultats et leur synthèse
type SondageHandler struct {
	sondages SondageManager
	resumes  ResumeProvider
}

// NewSondageHandler crée le handler des sondages
func NewSondageHandler(sondages SondageManager, resumes ResumeProvider) *SondageHandler {
	return &SondageHandler{sondages: sondages, resumes: resumes}
}

// List liste les sondages (filtres club_id, statut, recherche dans la question)
func (h *SondageHandler) List(w http.ResponseWriter, r *http.Request) {
	q, ok := listQuery(w, r)
	if !ok {
		return
	}
	clubID, ok := queryID(w, r, "club_id", constants.ErrInvalidClubID)
	if !ok {
		return
	}
	f := models.SondageFilter{ListQuery: q, ClubID: clubID, Statut: r.URL.Query().Get("statut")}

	sondages, total, err := h.sondages.List(r.Context(), f)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondPage(w, "sondages", sondages, models.NewPage(q.Page, q.Limit, total))
}

// Get retourne un sondage avec ses résultats en direct
func (h *SondageHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", constants.ErrInvalidPollID)
	if !ok {
		return
	}
	detail, err := h.sondages.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, detail)
}

// Create publie un sondage
func (h *SondageHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.CreateSondageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sondage, err := h.sondages.Create(r.Context(), req, user)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.WithFields(log.Fields{"sondage_id": sondage.ID.Hex(), "club_id": sondage.ClubID.Hex()}).Info("✅ Sondage publié")
	utils.RespondCreated(w, "Sondage créé", sondage)
}

// Update modifie un sondage; les choix ne changent plus après le premier vote
func (h *SondageHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", constants.ErrInvalidPollID)
	if !ok {
		return
	}
	var req models.UpdateSondageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sondage, err := h.sondages.Update(r.Context(), id, req, user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Sondage mis à jour", sondage)
}

// Close ferme un sondage
func (h *SondageHandler) Close(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", constants.ErrInvalidPollID)
	if !ok {
		return
	}

	resultats, err := h.sondages.Close(r.Context(), id, user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Sondage fermé", resultats)
}

// Delete supprime un sondage, ses votes et ses commentaires
func (h *SondageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", constants.ErrInvalidPollID)
	if !ok {
		return
	}

	if err := h.sondages.Delete(r.Context(), id, user); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Sondage supprimé", nil)
}

// Resultats retourne le décompte par choix
func (h *SondageHandler) Resultats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", constants.ErrInvalidPollID)
	if !ok {
		return
	}
	resultats, err := h.sondages.Resultats(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, resultats)
}

// ResultatsPNG retourne l'histogramme des résultats
func (h *SondageHandler) ResultatsPNG(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", constants.ErrInvalidPollID)
	if !ok {
		return
	}
	png, err := h.sondages.ResultatsPNG(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondFile(w, "image/png", "resultats-"+id.Hex()+".png", png, false)
}

// ResultatsXLSX télécharge les résultats au format tableur
func (h *SondageHandler) ResultatsXLSX(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", constants.ErrInvalidPollID)
	if !ok {
		return
	}
	data, filename, err := h.sondages.ResultatsXLSX(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondFile(w, constants.HeaderXLSX, filename, data, true)
}

// Resume retourne la synthèse IA (ou locale) des commentaires
func (h *SondageHandler) Resume(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", constants.ErrInvalidPollID)
	if !ok {
		return
	}
	resume, err := h.resumes.Resume(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, resume)
}
