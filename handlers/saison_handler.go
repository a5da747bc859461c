package handlers

import (
	"context"
	"net/http"

	"espace-clubs-backend/constants"
	"espace-clubs-backend/models"
	"espace-clubs-backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SaisonManager regroupe saisons, compétitions, résultats et classement
type SaisonManager interface {
	ListSaisons(ctx context.Context) ([]models.Saison, error)
	GetSaison(ctx context.Context, id primitive.ObjectID) (*models.Saison, error)
	CreateSaison(ctx context.Context, req models.SaisonRequest) (*models.Saison, error)
	UpdateSaison(ctx context.Context, id primitive.ObjectID, req models.SaisonRequest) (*models.Saison, error)
	DeleteSaison(ctx context.Context, id primitive.ObjectID) error
	ListCompetitions(ctx context.Context, f models.CompetitionFilter) ([]models.Competition, int64, error)
	GetCompetition(ctx context.Context, id primitive.ObjectID) (*models.Competition, error)
	CreateCompetition(ctx context.Context, req models.CompetitionRequest) (*models.Competition, error)
	UpdateCompetition(ctx context.Context, id primitive.ObjectID, req models.CompetitionRequest) (*models.Competition, error)
	DeleteCompetition(ctx context.Context, id primitive.ObjectID) error
	AddResultat(ctx context.Context, competitionID primitive.ObjectID, req models.ResultatRequest) (*models.CompetitionResultat, error)
	Resultats(ctx context.Context, competitionID primitive.ObjectID) ([]models.CompetitionResultat, error)
	Classement(ctx context.Context, saisonID primitive.ObjectID) ([]models.ClassementEntry, error)
}

// SaisonHandler gère les saisons, les compétitions et le classement
type SaisonHandler struct {
	saisons SaisonManager
}

// NewSaisonHandler crée le handler des saisons
func NewSaisonHandler(saisons SaisonManager) *SaisonHandler {
	return &SaisonHandler{saisons: saisons}
}

// ListSaisons liste les saisons avec leur statut calculé
func (h *SaisonHandler) ListSaisons(w http.ResponseWriter, r *http.Request) {
	saisons, err := h.saisons.ListSaisons(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"saisons": saisons, "total": len(saisons)})
}

// GetSaison retourne une saison
func (h *SaisonHandler) GetSaison(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", constants.ErrInvalidSeasonID)
	if !ok {
		return
	}
	saison, err := h.saisons.GetSaison(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, saison)
}

// CreateSaison crée une saison (admin)
func (h *SaisonHandler) CreateSaison(w http.ResponseWriter, r *http.Request) {
	var req models.SaisonRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	saison, err := h.saisons.CreateSaison(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondCreated(w, "Saison créée", saison)
}

// UpdateSaison modifie une saison (admin)
func (h *SaisonHandler) UpdateSaison(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", constants.ErrInvalidSeasonID)
	if !ok {
		return
	}
	var req models.SaisonRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	saison, err := h.saisons.UpdateSaison(r.Context(), id, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Saison mise à jour", saison)
}

// DeleteSaison supprime une saison et ses compétitions (admin)
func (h *SaisonHandler) DeleteSaison(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", constants.ErrInvalidSeasonID)
	if !ok {
		return
	}
	if err := h.saisons.DeleteSaison(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Saison supprimée", nil)
}

// Classement retourne le classement des clubs de la saison
func (h *SaisonHandler) Classement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", constants.ErrInvalidSeasonID)
	if !ok {
		return
	}
	classement, err := h.saisons.Classement(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"saison_id":  id.Hex(),
		"classement": classement,
	})
}

// ListCompetitions liste les compétitions (filtres saison_id et statut)
func (h *SaisonHandler) ListCompetitions(w http.ResponseWriter, r *http.Request) {
	q, ok := listQuery(w, r)
	if !ok {
		return
	}
	saisonID, ok := queryID(w, r, "saison_id", constants.ErrInvalidSeasonID)
	if !ok {
		return
	}
	f := models.CompetitionFilter{ListQuery: q, SaisonID: saisonID, Statut: r.URL.Query().Get("statut")}

	competitions, total, err := h.saisons.ListCompetitions(r.Context(), f)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondPage(w, "competitions", competitions, models.NewPage(q.Page, q.Limit, total))
}

// ListSaisonCompetitions liste les compétitions d'une saison
func (h *SaisonHandler) ListSaisonCompetitions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", constants.ErrInvalidSeasonID)
	if !ok {
		return
	}
	q, ok := listQuery(w, r)
	if !ok {
		return
	}
	f := models.CompetitionFilter{ListQuery: q, SaisonID: &id, Statut: r.URL.Query().Get("statut")}

	competitions, total, err := h.saisons.ListCompetitions(r.Context(), f)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondPage(w, "competitions", competitions, models.NewPage(q.Page, q.Limit, total))
}

// GetCompetition retourne une compétition
func (h *SaisonHandler) GetCompetition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", constants.ErrInvalidCompetitionID)
	if !ok {
		return
	}
	competition, err := h.saisons.GetCompetition(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, competition)
}

// CreateCompetition crée une compétition dans une saison (admin)
func (h *SaisonHandler) CreateCompetition(w http.ResponseWriter, r *http.Request) {
	var req models.CompetitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	competition, err := h.saisons.CreateCompetition(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondCreated(w, "Compétition créée", competition)
}

// UpdateCompetition modifie une compétition (admin)
func (h *SaisonHandler) UpdateCompetition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", constants.ErrInvalidCompetitionID)
	if !ok {
		return
	}
	var req models.CompetitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	competition, err := h.saisons.UpdateCompetition(r.Context(), id, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Compétition mise à jour", competition)
}

// DeleteCompetition supprime une compétition et ses résultats (admin)
func (h *SaisonHandler) DeleteCompetition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", constants.ErrInvalidCompetitionID)
	if !ok {
		return
	}
	if err := h.saisons.DeleteCompetition(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Compétition supprimée", nil)
}

// AddResultat enregistre les points d'un club (admin)
func (h *SaisonHandler) AddResultat(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", constants.ErrInvalidCompetitionID)
	if !ok {
		return
	}
	var req models.ResultatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resultat, err := h.saisons.AddResultat(r.Context(), id, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondCreated(w, "Résultat enregistré", resultat)
}

// Resultats liste les résultats d'une compétition
func (h *SaisonHandler) Resultats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", constants.ErrInvalidCompetitionID)
	if !ok {
		return
	}
	resultats, err := h.saisons.Resultats(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"resultats": resultats, "total": len(resultats)})
}
