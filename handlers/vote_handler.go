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

// VoteProtocol applique les transitions du vote d'un utilisateur sur un sondage
type VoteProtocol interface {
	Current(ctx context.Context, sondageID, userID primitive.ObjectID) (*models.Reponse, error)
	Submit(ctx context.Context, sondageID, userID, choixID primitive.ObjectID) (*models.VoteResult, error)
	Change(ctx context.Context, sondageID, userID, choixID primitive.ObjectID, confirmed bool) (*models.VoteResult, error)
	Delete(ctx context.Context, sondageID, userID primitive.ObjectID) (*models.VoteResult, error)
}

// VoteHandler expose /api/sondages/{id}/vote
type VoteHandler struct {
	votes VoteProtocol
}

// NewVoteHandler crée le handler des votes
func NewVoteHandler(votes VoteProtocol) *VoteHandler {
	return &VoteHandler{votes: votes}
}

// voteRequest lit l'identifiant du sondage, l'utilisateur et le corps du vote
func (h *VoteHandler) voteRequest(w http.ResponseWriter, r *http.Request, withBody bool) (primitive.ObjectID, *models.User, models.VoteRequest, primitive.ObjectID, bool) {
	var req models.VoteRequest
	user, ok := currentUser(w, r)
	if !ok {
		return primitive.NilObjectID, nil, req, primitive.NilObjectID, false
	}
	sondageID, ok := pathID(w, r, "id", constants.ErrInvalidPollID)
	if !ok {
		return primitive.NilObjectID, nil, req, primitive.NilObjectID, false
	}
	if !withBody {
		return sondageID, user, req, primitive.NilObjectID, true
	}

	if !decodeJSON(w, r, &req) {
		return primitive.NilObjectID, nil, req, primitive.NilObjectID, false
	}
	choixID, err := primitive.ObjectIDFromHex(req.ChoixID)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidOption)
		return primitive.NilObjectID, nil, req, primitive.NilObjectID, false
	}
	return sondageID, user, req, choixID, true
}

// Get retourne le vote courant (null si l'utilisateur n'a pas voté)
func (h *VoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	sondageID, user, _, _, ok := h.voteRequest(w, r, false)
	if !ok {
		return
	}

	reponse, err := h.votes.Current(r.Context(), sondageID, user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"a_vote":  reponse != nil,
		"reponse": reponse,
	})
}

// Submit enregistre un premier vote
func (h *VoteHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sondageID, user, _, choixID, ok := h.voteRequest(w, r, true)
	if !ok {
		return
	}

	result, err := h.votes.Submit(r.Context(), sondageID, user.ID, choixID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.WithFields(log.Fields{"sondage_id": sondageID.Hex(), "user_id": user.ID.Hex()}).Info("🗳️  Vote enregistré")
	utils.RespondCreated(w, "Vote enregistré", result)
}

// Change remplace le vote; le champ "confirmation" doit valoir true
func (h *VoteHandler) Change(w http.ResponseWriter, r *http.Request) {
	sondageID, user, req, choixID, ok := h.voteRequest(w, r, true)
	if !ok {
		return
	}

	result, err := h.votes.Change(r.Context(), sondageID, user.ID, choixID, req.Confirmation)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.WithFields(log.Fields{"sondage_id": sondageID.Hex(), "user_id": user.ID.Hex()}).Info("🗳️  Vote modifié")
	utils.RespondSuccess(w, "Vote modifié", result)
}

// Delete retire le vote
func (h *VoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sondageID, user, _, _, ok := h.voteRequest(w, r, false)
	if !ok {
		return
	}

	result, err := h.votes.Delete(r.Context(), sondageID, user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.WithFields(log.Fields{"sondage_id": sondageID.Hex(), "user_id": user.ID.Hex()}).Info("🗳️  Vote supprimé")
	utils.RespondSuccess(w, "Vote supprimé", result)
}
