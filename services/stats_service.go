package services

import (
	"context"
	"espace-clubs-backend/models"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// counter est implémenté par tous les stores qui exposent Count
type counter interface {
	Count(ctx context.Context, filter bson.M) (int64, error)
}

// StatsService calcule les chiffres du tableau de bord admin
type StatsService struct {
	users        counter
	clubs        counter
	sondages     counter
	reponses     counter
	commentaires counter
	evenements   counter
	inscriptions counter
	now          func() time.Time
}

// NewStatsService crée le service de statistiques
func NewStatsService(users UserStore, clubs ClubStore, sondages SondageStore, reponses ReponseStore, commentaires CommentaireStore, evenements EvenementStore, inscriptions InscriptionStore) *StatsService {
	return &StatsService{
		users:        users,
		clubs:        clubs,
		sondages:     sondages,
		reponses:     reponses,
		commentaires: commentaires,
		evenements:   evenements,
		inscriptions: inscriptions,
		now:          time.Now,
	}
}

// Dashboard retourne les compteurs globaux
func (s *StatsService) Dashboard(ctx context.Context) (*models.AdminStatsResponse, error) {
	stats := &models.AdminStatsResponse{}

	queries := []struct {
		store  counter
		filter bson.M
		dest   *int64
	}{
		{s.users, bson.M{}, &stats.TotalUtilisateurs},
		{s.users, bson.M{"statut": models.UserBloque}, &stats.UtilisateursBloques},
		{s.clubs, bson.M{}, &stats.TotalClubs},
		{s.clubs, bson.M{"statut": models.ClubEnAttente}, &stats.ClubsEnAttente},
		{s.sondages, bson.M{}, &stats.TotalSondages},
		{s.sondages, bson.M{"statut": models.SondageOuvert}, &stats.SondagesOuverts},
		{s.reponses, bson.M{}, &stats.TotalVotes},
		{s.commentaires, bson.M{}, &stats.TotalCommentaires},
		{s.commentaires, bson.M{"masque": true}, &stats.CommentairesMasques},
		{s.evenements, bson.M{"date_debut": bson.M{"$gte": s.now()}, "statut": bson.M{"$ne": models.EvenementAnnule}}, &stats.EvenementsAVenir},
		{s.inscriptions, bson.M{}, &stats.TotalInscriptions},
	}

	for _, q := range queries {
		n, err := q.store.Count(ctx, q.filter)
		if err != nil {
			return nil, err
		}
		*q.dest = n
	}
	return stats, nil
}
