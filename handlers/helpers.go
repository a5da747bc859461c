package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"espace-clubs-backend/constants"
	"espace-clubs-backend/middleware"
	"espace-clubs-backend/models"
	"espace-clubs-backend/services"
	"espace-clubs-backend/utils"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequireMethod vérifie que la méthode HTTP est correcte. Retourne false et écrit l'erreur si non.
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		utils.RespondError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
		return false
	}
	return true
}

// ParseObjectIDVar extrait et valide un ObjectID depuis les vars (clé configurable, msg d'erreur configurable).
func ParseObjectIDVar(w http.ResponseWriter, vars map[string]string, key, errMsg string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(vars[key])
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, errMsg)
		return primitive.NilObjectID, false
	}
	return id, true
}

// pathID lit un ObjectID dans le chemin de la requête
func pathID(w http.ResponseWriter, r *http.Request, key, errMsg string) (primitive.ObjectID, bool) {
	return ParseObjectIDVar(w, mux.Vars(r), key, errMsg)
}

// queryID lit un ObjectID optionnel dans la query string
func queryID(w http.ResponseWriter, r *http.Request, key, errMsg string) (*primitive.ObjectID, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, true
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, errMsg)
		return nil, false
	}
	return &id, true
}

// decodeJSON décode le corps de la requête; écrit 400 en cas d'échec
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidData)
		return false
	}
	return true
}

// currentUser retourne l'utilisateur authentifié; écrit 401 s'il manque
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user := middleware.CurrentUser(r.Context())
	if user == nil {
		utils.RespondError(w, http.StatusUnauthorized, constants.ErrNotAuthenticated)
		return nil, false
	}
	return user, true
}

// parseListQuery lit page, limit et search. limit est plafonné à MaxPageLimit.
func parseListQuery(r *http.Request) (models.ListQuery, error) {
	q := models.ListQuery{Page: 1, Limit: models.DefaultPageLimit}
	values := r.URL.Query()

	if raw := values.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return q, errors.New("page invalide")
		}
		q.Page = page
	}
	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return q, errors.New("limit invalide")
		}
		if limit > models.MaxPageLimit {
			limit = models.MaxPageLimit
		}
		q.Limit = limit
	}
	q.Search = strings.TrimSpace(values.Get("search"))
	return q, nil
}

// listQuery lit la pagination et écrit 400 si elle est invalide
func listQuery(w http.ResponseWriter, r *http.Request) (models.ListQuery, bool) {
	q, err := parseListQuery(r)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidPagination)
		return q, false
	}
	return q, true
}

// queryBool lit un booléen de query string ("true", "1")
func queryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}

type errorMapping struct {
	err     error
	status  int
	message string
}

// errorMappings associe les erreurs métier à leur statut HTTP et au message affiché
var errorMappings = []errorMapping{
	{services.ErrForbidden, http.StatusForbidden, constants.ErrForbidden},
	{services.ErrAccountBlocked, http.StatusForbidden, constants.ErrAccountBlocked},
	{services.ErrBadCredentials, http.StatusUnauthorized, constants.ErrBadCredentials},
	{services.ErrUserNotFound, http.StatusNotFound, constants.ErrUserNotFound},
	{services.ErrEmailTaken, http.StatusConflict, constants.ErrEmailTaken},
	{services.ErrWrongPassword, http.StatusBadRequest, constants.ErrWrongPassword},
	{services.ErrNothingToUpdate, http.StatusBadRequest, constants.ErrNothingToUpdate},

	{services.ErrClubNotFound, http.StatusNotFound, constants.ErrClubNotFound},
	{services.ErrClubNameTaken, http.StatusConflict, constants.ErrClubNameTaken},
	{services.ErrClubNotActive, http.StatusConflict, constants.ErrClubNotActive},
	{services.ErrParticipationNotFound, http.StatusNotFound, constants.ErrParticipationNotFound},
	{services.ErrParticipationExists, http.StatusConflict, constants.ErrParticipationExists},
	{services.ErrParticipationDecided, http.StatusConflict, constants.ErrParticipationDecided},

	{services.ErrSeasonNotFound, http.StatusNotFound, constants.ErrSeasonNotFound},
	{services.ErrInvalidDates, http.StatusBadRequest, constants.ErrInvalidDates},
	{services.ErrCompetitionNotFound, http.StatusNotFound, constants.ErrCompetitionNotFound},
	{services.ErrCompetitionOutsideSeason, http.StatusBadRequest, constants.ErrCompetitionOutside},
	{services.ErrResultExists, http.StatusConflict, constants.ErrResultExists},

	{services.ErrPollNotFound, http.StatusNotFound, constants.ErrPollNotFound},
	{services.ErrPollClosed, http.StatusConflict, constants.ErrPollClosed},
	{services.ErrPollHasVotes, http.StatusConflict, constants.ErrPollHasVotes},
	{services.ErrOptionNotFound, http.StatusBadRequest, constants.ErrInvalidOption},
	{services.ErrAlreadyVoted, http.StatusConflict, constants.ErrAlreadyVoted},
	{services.ErrNoVote, http.StatusNotFound, constants.ErrNoVote},
	{services.ErrConfirmationRequired, http.StatusPreconditionRequired, constants.ErrConfirmationNeeded},
	{services.ErrSameOption, http.StatusBadRequest, constants.ErrSameOption},

	{services.ErrCommentNotFound, http.StatusNotFound, constants.ErrCommentNotFound},
	{services.ErrAlreadyReported, http.StatusConflict, constants.ErrCommentAlreadyFlags},

	{services.ErrEventNotFound, http.StatusNotFound, constants.ErrEventNotFound},
	{services.ErrEventFull, http.StatusConflict, constants.ErrEventFull},
	{services.ErrEventNotOpen, http.StatusConflict, constants.ErrEventNotOpen},
	{services.ErrAlreadyRegistered, http.StatusConflict, constants.ErrAlreadyRegistered},
	{services.ErrNotRegistered, http.StatusNotFound, constants.ErrNotRegistered},

	{services.ErrInvalidImage, http.StatusBadRequest, constants.ErrInvalidImage},
	{services.ErrImageTooLarge, http.StatusRequestEntityTooLarge, constants.ErrImageTooLarge},
}

// respondServiceError traduit une erreur de service en réponse HTTP.
// Les erreurs inattendues sont journalisées et renvoyées en 500.
func respondServiceError(w http.ResponseWriter, err error) {
	var toxic *services.ToxicCommentError
	if errors.As(err, &toxic) {
		utils.RespondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":          http.StatusText(http.StatusUnprocessableEntity),
			"message":        constants.ErrCommentToxic,
			"avertissements": toxic.Avertissements,
			"max":            models.MaxAvertissements,
			"compte_bloque":  toxic.Bloque,
		})
		return
	}

	if msg, ok := services.IsValidation(err); ok {
		utils.RespondError(w, http.StatusBadRequest, msg)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			utils.RespondError(w, m.status, m.message)
			return
		}
	}

	log.WithError(err).Error("❌ Erreur serveur")
	utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
}

// imageField est le nom du champ multipart des téléversements
const imageField = "image"

// readUpload lit le champ "image" d'un formulaire multipart et l'enregistre
func readUpload(w http.ResponseWriter, r *http.Request, storage *services.ImageStorage, categorie string) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxBytes()+1<<20)
	if err := r.ParseMultipartForm(storage.MaxBytes()); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, constants.ErrImageTooLarge)
			return "", false
		}
		utils.RespondError(w, http.StatusBadRequest, constants.ErrImageMissing)
		return "", false
	}

	file, _, err := r.FormFile(imageField)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrImageMissing)
		return "", false
	}
	defer file.Close()

	url, err := storage.Save(categorie, file)
	if err != nil {
		respondServiceError(w, err)
		return "", false
	}
	return url, true
}
