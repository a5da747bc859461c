package services

import (
	"errors"

	"espace-clubs-backend/utils"
)

// Erreurs métier. Les handlers les traduisent en statut HTTP et en message utilisateur.
var (
	ErrForbidden       = errors.New("action non autorisée")
	ErrUserNotFound    = errors.New("utilisateur introuvable")
	ErrEmailTaken      = errors.New("email déjà utilisé")
	ErrBadCredentials  = errors.New("identifiants invalides")
	ErrAccountBlocked  = errors.New("compte bloqué")
	ErrWrongPassword   = errors.New("mot de passe actuel incorrect")
	ErrNothingToUpdate = errors.New("aucune donnée à mettre à jour")

	ErrClubNotFound          = errors.New("club introuvable")
	ErrClubNameTaken         = errors.New("nom de club déjà pris")
	ErrClubNotActive         = errors.New("club non actif")
	ErrParticipationNotFound = errors.New("participation introuvable")
	ErrParticipationExists   = errors.New("participation déjà existante")
	ErrParticipationDecided  = errors.New("participation déjà traitée")

	ErrSeasonNotFound           = errors.New("saison introuvable")
	ErrInvalidDates             = errors.New("dates incohérentes")
	ErrCompetitionNotFound      = errors.New("compétition introuvable")
	ErrCompetitionOutsideSeason = errors.New("compétition hors de la saison")
	ErrResultExists             = errors.New("résultat déjà enregistré")

	ErrPollNotFound         = errors.New("sondage introuvable")
	ErrPollClosed           = errors.New("sondage fermé")
	ErrPollHasVotes         = errors.New("le sondage a déjà des votes")
	ErrOptionNotFound       = errors.New("choix introuvable")
	ErrAlreadyVoted         = errors.New("vote déjà enregistré")
	ErrNoVote               = errors.New("aucun vote")
	ErrConfirmationRequired = errors.New("confirmation requise")
	ErrSameOption           = errors.New("choix identique au vote actuel")

	ErrCommentNotFound = errors.New("commentaire introuvable")
	ErrCommentToxic    = errors.New("commentaire toxique")
	ErrAlreadyReported = errors.New("commentaire déjà signalé")

	ErrEventNotFound     = errors.New("événement introuvable")
	ErrEventFull         = errors.New("événement complet")
	ErrEventNotOpen      = errors.New("inscriptions fermées")
	ErrAlreadyRegistered = errors.New("déjà inscrit")
	ErrNotRegistered     = errors.New("non inscrit")
)

// invalid construit une erreur de validation sans champ précis
func invalid(field, message string) error {
	return utils.ValidationError{Field: field, Message: message}
}

// IsValidation indique si err est une erreur de validation et retourne son message
func IsValidation(err error) (string, bool) {
	var vErr utils.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Error(), true
	}
	return "", false
}
