package constants

// Messages d'erreur HTTP courants
const (
	ErrMethodNotAllowed  = "Méthode non autorisée"
	ErrServerError       = "Erreur serveur"
	ErrInvalidData       = "Données invalides"
	ErrNotAuthenticated  = "Non authentifié"
	ErrInvalidToken      = "Token invalide"
	ErrAdminOnly         = "Accès refusé. Admin uniquement"
	ErrForbidden         = "Action non autorisée"
	ErrAccountBlocked    = "Votre compte est bloqué"
	ErrBadCredentials    = "Email ou mot de passe incorrect"
	ErrEmailTaken        = "Cet email est déjà utilisé"
	ErrUserNotFound      = "Utilisateur introuvable"
	ErrInvalidUserID     = "ID utilisateur invalide"
	ErrNothingToUpdate   = "Aucune donnée à mettre à jour"
	ErrTooManyRequests   = "Trop de tentatives. Veuillez patienter."
	ErrInvalidPagination = "Paramètres de pagination invalides"
	ErrWrongPassword     = "Mot de passe actuel incorrect"
	ErrNotFound          = "Ressource introuvable"
)

// Clubs et participations
const (
	ErrInvalidClubID           = "ID de club invalide"
	ErrClubNotFound            = "Club non trouvé"
	ErrClubNameTaken           = "Un club porte déjà ce nom"
	ErrClubNotActive           = "Ce club n'est pas actif"
	ErrInvalidParticipationID  = "ID de participation invalide"
	ErrParticipationNotFound   = "Participation non trouvée"
	ErrParticipationExists     = "Vous avez déjà une demande pour ce club"
	ErrParticipationDecided    = "Cette demande a déjà été traitée"
	ErrInvalidParticipationSet = "Statut de participation invalide"
)

// Saisons et compétitions
const (
	ErrInvalidSeasonID      = "ID de saison invalide"
	ErrSeasonNotFound       = "Saison non trouvée"
	ErrInvalidDates         = "La date de fin doit être postérieure à la date de début"
	ErrInvalidCompetitionID = "ID de compétition invalide"
	ErrCompetitionNotFound  = "Compétition non trouvée"
	ErrCompetitionOutside   = "Les dates de la compétition doivent être comprises dans la saison"
	ErrResultExists         = "Un résultat existe déjà pour ce club"
)

// Sondages, votes et commentaires
const (
	ErrInvalidPollID       = "ID de sondage invalide"
	ErrPollNotFound        = "Sondage non trouvé"
	ErrPollClosed          = "Sondage fermé"
	ErrPollHasVotes        = "Les choix ne peuvent plus être modifiés après le premier vote"
	ErrInvalidOption       = "Choix invalide pour ce sondage"
	ErrAlreadyVoted        = "Vous avez déjà voté pour ce sondage"
	ErrNoVote              = "Aucun vote enregistré pour ce sondage"
	ErrConfirmationNeeded  = "Confirmation requise pour modifier votre vote"
	ErrSameOption          = "Ce choix est déjà votre vote actuel"
	ErrInvalidCommentID    = "ID de commentaire invalide"
	ErrCommentNotFound     = "Commentaire non trouvé"
	ErrCommentToxic        = "Commentaire refusé : contenu inapproprié"
	ErrCommentAlreadyFlags = "Vous avez déjà signalé ce commentaire"
)

// Événements et inscriptions
const (
	ErrInvalidEventID      = "ID événement invalide"
	ErrEventNotFound       = "Événement non trouvé"
	ErrEventFull           = "Plus de places disponibles"
	ErrEventNotOpen        = "Les inscriptions sont fermées pour cet événement"
	ErrAlreadyRegistered   = "Vous êtes déjà inscrit à cet événement"
	ErrNotRegistered       = "Vous n'êtes pas inscrit à cet événement"
	ErrInvalidMonth        = "Mois invalide (format attendu AAAA-MM)"
	ErrInvalidImage        = "Image invalide"
	ErrImageTooLarge       = "Image trop volumineuse"
	ErrImageMissing        = "Fichier image manquant (champ \"image\")"
	ErrDecodeInscriptions  = "erreur lors du décodage des inscriptions: %w"
	ErrDecodeParticipation = "erreur lors du décodage des participations: %w"
)

// En-têtes HTTP
const (
	HeaderContentType     = "Content-Type"
	HeaderApplicationJSON = "application/json"
	HeaderXLSX            = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)
