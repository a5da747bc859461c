package database

import (
	"context"
	"espace-clubs-backend/constants"
	"espace-clubs-backend/models"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InscriptionRepository gère les opérations sur les inscriptions
type InscriptionRepository struct {
	collection *mongo.Collection
}

// NewInscriptionRepository crée une nouvelle instance de InscriptionRepository
func NewInscriptionRepository(db *mongo.Database) *InscriptionRepository {
	return &InscriptionRepository{
		collection: db.Collection(CollectionInscriptions),
	}
}

// Create crée une nouvelle inscription (ErrDuplicate si déjà inscrit)
func (r *InscriptionRepository) Create(ctx context.Context, inscription *models.Inscription) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	inscription.ID = primitive.NewObjectID()
	inscription.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, inscription)
	return wrapWriteErr(err, "erreur lors de la création de l'inscription")
}

// FindByEventAndUser recherche une inscription par événement et utilisateur
func (r *InscriptionRepository) FindByEventAndUser(ctx context.Context, evenementID, userID primitive.ObjectID) (*models.Inscription, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var inscription models.Inscription
	err := r.collection.FindOne(ctx, bson.M{
		"evenement_id": evenementID,
		"user_id":      userID,
	}).Decode(&inscription)

	if err == mongo.ErrNoDocuments {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche de l'inscription: %w", err)
	}

	return &inscription, nil
}

// Delete supprime une inscription. Retourne false si elle n'existait pas.
func (r *InscriptionRepository) Delete(ctx context.Context, evenementID, userID primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{
		"evenement_id": evenementID,
		"user_id":      userID,
	})
	if err != nil {
		return false, fmt.Errorf("erreur lors de la suppression de l'inscription: %w", err)
	}

	return res.DeletedCount > 0, nil
}

// ListByEvent retourne les inscrits d'un événement avec leur identité
func (r *InscriptionRepository) ListByEvent(ctx context.Context, evenementID primitive.ObjectID) ([]models.InscriptionWithUser, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pipeline := []bson.M{
		{BSONMatch: bson.M{"evenement_id": evenementID}},
		{BSONSort: bson.D{{Key: "created_at", Value: 1}}},
		{BSONLookup: bson.M{
			"from":         CollectionUsers,
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "user",
		}},
		{BSONUnwind: "$user"},
		{BSONSet: bson.M{
			"nom":    "$user.nom",
			"prenom": "$user.prenom",
			"email":  "$user.email",
		}},
		{BSONProject: bson.M{"user": 0}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des inscriptions de l'événement: %w", err)
	}
	defer cursor.Close(ctx)

	inscriptions := []models.InscriptionWithUser{}
	if err = cursor.All(ctx, &inscriptions); err != nil {
		return nil, fmt.Errorf(constants.ErrDecodeInscriptions, err)
	}

	return inscriptions, nil
}

// FindByUser retourne toutes les inscriptions d'un utilisateur
func (r *InscriptionRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Inscription, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

// UserIDsByEvent retourne les IDs des inscrits d'un événement
func (r *InscriptionRepository) UserIDsByEvent(ctx context.Context, evenementID primitive.ObjectID) ([]primitive.ObjectID, error) {
	inscriptions, err := r.find(ctx, bson.M{"evenement_id": evenementID})
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(inscriptions))
	for _, i := range inscriptions {
		ids = append(ids, i.UserID)
	}
	return ids, nil
}

func (r *InscriptionRepository) find(ctx context.Context, filter bson.M) ([]models.Inscription, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des inscriptions: %w", err)
	}
	defer cursor.Close(ctx)

	inscriptions := []models.Inscription{}
	if err = cursor.All(ctx, &inscriptions); err != nil {
		return nil, fmt.Errorf(constants.ErrDecodeInscriptions, err)
	}

	return inscriptions, nil
}

// DeleteByEvent supprime les inscriptions d'un événement
func (r *InscriptionRepository) DeleteByEvent(ctx context.Context, evenementID primitive.ObjectID) error {
	return r.deleteMany(ctx, bson.M{"evenement_id": evenementID})
}

func (r *InscriptionRepository) deleteMany(ctx context.Context, filter bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := r.collection.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("erreur lors de la suppression des inscriptions: %w", err)
	}
	return nil
}

// Count compte les inscriptions correspondant au filtre
func (r *InscriptionRepository) Count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("erreur lors du comptage des inscriptions: %w", err)
	}

	return count, nil
}
