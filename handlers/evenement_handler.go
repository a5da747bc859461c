package handlers

import (
	"context"
	"net/http"
	"time"

	"espace-clubs-backend/constants"
	"espace-clubs-backend/models"
	"espace-clubs-backend/services"
	"espace-clubs-backend/utils"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EvenementManager regroupe les événements, le calendrier et les inscriptions
type EvenementManager interface {
	List(ctx context.Context, f models.EvenementFilter, inclurePasses bool) ([]models.Evenement, int64, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Evenement, error)
	Calendrier(ctx context.Context, mois string, clubID *primitive.ObjectID) (*models.Calendrier, error)
	Create(ctx context.Context, req models.EvenementRequest, user *models.User) (*models.Evenement, error)
	Update(ctx context.Context, id primitive.ObjectID, req models.EvenementRequest, user *models.User) (*models.Evenement, error)
	SetImage(ctx context.Context, id primitive.ObjectID, url string, user *models.User) (*models.Evenement, error)
	Delete(ctx context.Context, id primitive.ObjectID, user *models.User) error
	Register(ctx context.Context, evenementID primitive.ObjectID, user *models.User) (*models.Inscription, error)
	Unregister(ctx context.Context, evenementID primitive.ObjectID, user *models.User) error
	Registrants(ctx context.Context, evenementID primitive.ObjectID, user *models.User) ([]models.InscriptionWithUser, error)
}

// EvenementHandler gère le calendrier des événements et les inscriptions
type EvenementHandler struct {
	evenements EvenementManager
	storage    *services.ImageStorage
}

// NewEvenementHandler crée le handler des événements
func NewEvenementHandler(evenements EvenementManager, storage *services.ImageStorage) *EvenementHandler {
	return &EvenementHandler{evenements: evenements, storage: storage}
}

// List liste les événements à venir (inclure_passes=true pour tout voir)
func (h *EvenementHandler) List(w http.ResponseWriter, r *http.Request) {
	q, ok := listQuery(w, r)
	if !ok {
		return
	}
	clubID, ok := queryID(w, r, "club_id", constants.ErrInvalidClubID)
	if !ok {
		return
	}
	f := models.EvenementFilter{ListQuery: q, ClubID: clubID, Statut: r.URL.Query().Get("statut")}

	evenements, total, err := h.evenements.List(r.Context(), f, queryBool(r, "inclure_passes"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondPage(w, "evenements", evenements, models.NewPage(q.Page, q.Limit, total))
}

// Get retourne un événement
func (h *EvenementHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", constants.ErrInvalidEventID)
	if !ok {
		return
	}
	evenement, err := h.evenements.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, evenement)
}

// Calendrier retourne les événements du mois groupés par jour (mois=AAAA-MM, mois courant par défaut)
func (h *EvenementHandler) Calendrier(w http.ResponseWriter, r *http.Request) {
	mois := r.URL.Query().Get("mois")
	if mois == "" {
		mois = time.Now().In(models.Location()).Format("2006-01")
	}
	clubID, ok := queryID(w, r, "club_id", constants.ErrInvalidClubID)
	if !ok {
		return
	}

	calendrier, err := h.evenements.Calendrier(r.Context(), mois, clubID)
	if err != nil {
		if _, isValidation := services.IsValidation(err); isValidation {
			utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidMonth)
			return
		}
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, calendrier)
}

// Create crée un événement (président du club ou admin)
func (h *EvenementHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.EvenementRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	evenement, err := h.evenements.Create(r.Context(), req, user)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("✅ Événement créé: %s (%s)", evenement.Titre, evenement.ID.Hex())
	utils.RespondCreated(w, "Événement créé", evenement)
}

// Update modifie un événement
func (h *EvenementHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", constants.ErrInvalidEventID)
	if !ok {
		return
	}
	var req models.EvenementRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	evenement, err := h.evenements.Update(r.Context(), id, req, user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Événement mis à jour", evenement)
}

// Delete supprime un événement et ses inscriptions
func (h *EvenementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", constants.ErrInvalidEventID)
	if !ok {
		return
	}

	if err := h.evenements.Delete(r.Context(), id, user); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Événement supprimé", nil)
}

// UploadImage enregistre l'affiche de l'événement
func (h *EvenementHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", constants.ErrInvalidEventID)
	if !ok {
		return
	}

	url, ok := readUpload(w, r, h.storage, "evenements")
	if !ok {
		return
	}

	evenement, err := h.evenements.SetImage(r.Context(), id, url, user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Image mise à jour", evenement)
}

// Register inscrit l'utilisateur à l'événement
func (h *EvenementHandler) Register(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", constants.ErrInvalidEventID)
	if !ok {
		return
	}

	inscription, err := h.evenements.Register(r.Context(), id, user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondCreated(w, "Inscription confirmée", inscription)
}

// Unregister annule l'inscription de l'utilisateur
func (h *EvenementHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", constants.ErrInvalidEventID)
	if !ok {
		return
	}

	if err := h.evenements.Unregister(r.Context(), id, user); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondSuccess(w, "Inscription annulée", nil)
}

// Registrants liste les inscrits (président du club ou admin)
func (h *EvenementHandler) Registrants(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", constants.ErrInvalidEventID)
	if !ok {
		return
	}

	inscrits, err := h.evenements.Registrants(r.Context(), id, user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"inscriptions": inscrits, "total": len(inscrits)})
}
