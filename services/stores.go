package services

import (
	"context"
	"espace-clubs-backend/models"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Interfaces de stockage consommées par les services, implémentées par database/*Repository.

// UserStore accède aux utilisateurs
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	List(ctx context.Context, f models.UserFilter) ([]models.User, int64, error)
	UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error
	UpdateLastLogin(ctx context.Context, id primitive.ObjectID) error
	AddAvertissement(ctx context.Context, id primitive.ObjectID, max int) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context, filter bson.M) (int64, error)
}

// ClubStore accède aux clubs
type ClubStore interface {
	Create(ctx context.Context, club *models.Club) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Club, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Club, error)
	List(ctx context.Context, f models.ClubFilter) ([]models.Club, int64, error)
	UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error
	IncrementMembres(ctx context.Context, id primitive.ObjectID, delta int) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context, filter bson.M) (int64, error)
}

// ParticipationStore accède aux adhésions
type ParticipationStore interface {
	Create(ctx context.Context, p *models.ParticipationMembre) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.ParticipationMembre, error)
	FindByClubAndUser(ctx context.Context, clubID, userID primitive.ObjectID) (*models.ParticipationMembre, error)
	ListByClub(ctx context.Context, clubID primitive.ObjectID, statut string) ([]models.ParticipationWithUser, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.ParticipationMembre, error)
	AcceptedUserIDs(ctx context.Context, clubID primitive.ObjectID) ([]primitive.ObjectID, error)
	Decide(ctx context.Context, id primitive.ObjectID, statut string) (*models.ParticipationMembre, error)
	Delete(ctx context.Context, id, clubID, userID primitive.ObjectID) (*models.ParticipationMembre, error)
	DeleteByClub(ctx context.Context, clubID primitive.ObjectID) error
}

// SaisonStore accède aux saisons
type SaisonStore interface {
	Create(ctx context.Context, saison *models.Saison) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Saison, error)
	FindAll(ctx context.Context) ([]models.Saison, error)
	Update(ctx context.Context, saison *models.Saison) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// CompetitionStore accède aux compétitions et résultats
type CompetitionStore interface {
	Create(ctx context.Context, c *models.Competition) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Competition, error)
	List(ctx context.Context, f models.CompetitionFilter) ([]models.Competition, int64, error)
	Update(ctx context.Context, c *models.Competition) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteBySaison(ctx context.Context, saisonID primitive.ObjectID) error
	AddResultat(ctx context.Context, res *models.CompetitionResultat) error
	ListResultats(ctx context.Context, competitionID primitive.ObjectID) ([]models.CompetitionResultat, error)
	Classement(ctx context.Context, saisonID primitive.ObjectID) ([]models.ClassementEntry, error)
}

// SondageStore accède aux sondages
type SondageStore interface {
	Create(ctx context.Context, s *models.Sondage) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Sondage, error)
	List(ctx context.Context, f models.SondageFilter) ([]models.Sondage, int64, error)
	UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error
	Close(ctx context.Context, id primitive.ObjectID) (bool, error)
	FindExpired(ctx context.Context, now time.Time) ([]models.Sondage, error)
	SetResume(ctx context.Context, id primitive.ObjectID, resume string, at time.Time) error
	ClearResume(ctx context.Context, id primitive.ObjectID) error
	FindIDsByClub(ctx context.Context, clubID primitive.ObjectID) ([]primitive.ObjectID, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context, filter bson.M) (int64, error)
}

// ReponseStore accède aux votes
type ReponseStore interface {
	Insert(ctx context.Context, rep *models.Reponse) error
	Find(ctx context.Context, sondageID, userID primitive.ObjectID) (*models.Reponse, error)
	ChangeChoix(ctx context.Context, sondageID, userID, from, to primitive.ObjectID) (bool, error)
	Delete(ctx context.Context, sondageID, userID primitive.ObjectID) (bool, error)
	Tally(ctx context.Context, sondageID primitive.ObjectID) (map[primitive.ObjectID]int, error)
	CountBySondage(ctx context.Context, sondageID primitive.ObjectID) (int64, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
	DeleteBySondage(ctx context.Context, sondageID primitive.ObjectID) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
}

// CommentaireStore accède aux commentaires
type CommentaireStore interface {
	Create(ctx context.Context, c *models.Commentaire) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Commentaire, error)
	List(ctx context.Context, f models.CommentaireFilter) ([]models.CommentaireWithAuteur, int64, error)
	ListVisibles(ctx context.Context, sondageID primitive.ObjectID) ([]models.Commentaire, error)
	LatestActivity(ctx context.Context, sondageID primitive.ObjectID) (*time.Time, error)
	UpdateContenu(ctx context.Context, id primitive.ObjectID, contenu string, score float64) error
	AddSignalement(ctx context.Context, id, userID primitive.ObjectID, seuil int) (*models.Commentaire, error)
	Restore(ctx context.Context, id primitive.ObjectID) (bool, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteBySondage(ctx context.Context, sondageID primitive.ObjectID) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
}

// EvenementStore accède aux événements
type EvenementStore interface {
	Create(ctx context.Context, e *models.Evenement) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Evenement, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Evenement, error)
	List(ctx context.Context, f models.EvenementFilter) ([]models.Evenement, int64, error)
	FindBetween(ctx context.Context, from, to time.Time, clubID *primitive.ObjectID) ([]models.Evenement, error)
	FindForReminder(ctx context.Context, from, to time.Time) ([]models.Evenement, error)
	UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error
	ReservePlace(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error)
	ReleasePlace(ctx context.Context, id primitive.ObjectID) error
	MarkReminderSent(ctx context.Context, id primitive.ObjectID) (bool, error)
	MarkFinished(ctx context.Context, now time.Time) (int64, error)
	FindIDsByClub(ctx context.Context, clubID primitive.ObjectID) ([]primitive.ObjectID, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context, filter bson.M) (int64, error)
}

// InscriptionStore accède aux inscriptions
type InscriptionStore interface {
	Create(ctx context.Context, inscription *models.Inscription) error
	FindByEventAndUser(ctx context.Context, evenementID, userID primitive.ObjectID) (*models.Inscription, error)
	Delete(ctx context.Context, evenementID, userID primitive.ObjectID) (bool, error)
	ListByEvent(ctx context.Context, evenementID primitive.ObjectID) ([]models.InscriptionWithUser, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Inscription, error)
	UserIDsByEvent(ctx context.Context, evenementID primitive.ObjectID) ([]primitive.ObjectID, error)
	DeleteByEvent(ctx context.Context, evenementID primitive.ObjectID) error
	Count(ctx context.Context, filter bson.M) (int64, error)
}

// FCMTokenStore accède aux tokens de notification
type FCMTokenStore interface {
	Upsert(ctx context.Context, token *models.FCMToken) error
	FindByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) ([]models.FCMToken, error)
	Delete(ctx context.Context, userID primitive.ObjectID, token string) error
	DeleteTokens(ctx context.Context, tokens []string) error
	DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error
}

// Broadcaster pousse les mises à jour temps réel vers les clients abonnés à un sondage
type Broadcaster interface {
	BroadcastResultats(sondageID primitive.ObjectID, resultats models.ResultatsSondage)
	BroadcastCommentaire(sondageID primitive.ObjectID, commentaire models.CommentaireWithAuteur)
}

type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastResultats(primitive.ObjectID, models.ResultatsSondage)        {}
func (noopBroadcaster) BroadcastCommentaire(primitive.ObjectID, models.CommentaireWithAuteur) {}
