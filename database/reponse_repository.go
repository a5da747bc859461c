package database

import (
	"context"
	"espace-clubs-backend/models"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ReponseRepository stocke les votes (au plus une réponse par utilisateur et par sondage)
type ReponseRepository struct {
	collection *mongo.Collection
}

// NewReponseRepository crée une nouvelle instance de ReponseRepository
func NewReponseRepository(db *mongo.Database) *ReponseRepository {
	return &ReponseRepository{
		collection: db.Collection(CollectionReponses),
	}
}

// Insert enregistre un vote. L'index unique (sondage_id, user_id) rejette un second vote avec ErrDuplicate.
func (r *ReponseRepository) Insert(ctx context.Context, rep *models.Reponse) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now()
	rep.ID = primitive.NewObjectID()
	rep.CreatedAt = now
	rep.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, rep)
	return wrapWriteErr(err, "erreur lors de l'enregistrement du vote")
}

// Find retourne le vote d'un utilisateur pour un sondage, ou nil
func (r *ReponseRepository) Find(ctx context.Context, sondageID, userID primitive.ObjectID) (*models.Reponse, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rep models.Reponse
	err := r.collection.FindOne(ctx, bson.M{"sondage_id": sondageID, "user_id": userID}).Decode(&rep)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche du vote: %w", err)
	}
	return &rep, nil
}

// ChangeChoix remplace le choix d'un vote seulement s'il vaut encore from.
// Retourne false quand le vote a disparu ou a été modifié entre-temps.
func (r *ReponseRepository) ChangeChoix(ctx context.Context, sondageID, userID, from, to primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"sondage_id": sondageID, "user_id": userID, "choix_id": from},
		bson.M{BSONSet: bson.M{"choix_id": to, "updated_at": time.Now()}},
	)
	if err != nil {
		return false, fmt.Errorf("erreur lors de la modification du vote: %w", err)
	}
	return res.MatchedCount > 0, nil
}

// Delete supprime le vote d'un utilisateur. Retourne false s'il n'existait pas.
func (r *ReponseRepository) Delete(ctx context.Context, sondageID, userID primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"sondage_id": sondageID, "user_id": userID})
	if err != nil {
		return false, fmt.Errorf("erreur lors de la suppression du vote: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// Tally compte les votes de chaque choix d'un sondage
func (r *ReponseRepository) Tally(ctx context.Context, sondageID primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := []bson.M{
		{BSONMatch: bson.M{"sondage_id": sondageID}},
		{BSONGroup: bson.M{
			"_id":   "$choix_id",
			"votes": bson.M{"$sum": 1},
		}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("erreur lors du décompte des votes: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ChoixID primitive.ObjectID `bson:"_id"`
		Votes   int                `bson:"votes"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage du décompte: %w", err)
	}

	counts := make(map[primitive.ObjectID]int, len(rows))
	for _, row := range rows {
		counts[row.ChoixID] = row.Votes
	}
	return counts, nil
}

// CountBySondage compte les votes d'un sondage
func (r *ReponseRepository) CountBySondage(ctx context.Context, sondageID primitive.ObjectID) (int64, error) {
	return r.Count(ctx, bson.M{"sondage_id": sondageID})
}

// Count compte les votes correspondant au filtre
func (r *ReponseRepository) Count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("erreur lors du comptage des votes: %w", err)
	}
	return count, nil
}

// DeleteBySondage supprime tous les votes d'un sondage
func (r *ReponseRepository) DeleteBySondage(ctx context.Context, sondageID primitive.ObjectID) error {
	return r.deleteMany(ctx, bson.M{"sondage_id": sondageID})
}

// DeleteByUser supprime tous les votes d'un utilisateur
func (r *ReponseRepository) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	return r.deleteMany(ctx, bson.M{"user_id": userID})
}

func (r *ReponseRepository) deleteMany(ctx context.Context, filter bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := r.collection.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("erreur lors de la suppression des votes: %w", err)
	}
	return nil
}
