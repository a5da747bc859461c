package database

import (
	"context"
	"espace-clubs-backend/models"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SaisonRepository gère les opérations sur les saisons
type SaisonRepository struct {
	collection *mongo.Collection
}

// NewSaisonRepository crée une nouvelle instance de SaisonRepository
func NewSaisonRepository(db *mongo.Database) *SaisonRepository {
	return &SaisonRepository{
		collection: db.Collection(CollectionSaisons),
	}
}

// Create crée une saison
func (r *SaisonRepository) Create(ctx context.Context, saison *models.Saison) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now()
	saison.ID = primitive.NewObjectID()
	saison.CreatedAt = now
	saison.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, saison); err != nil {
		return fmt.Errorf("erreur lors de la création de la saison: %w", err)
	}
	return nil
}

// FindByID recherche une saison par ID
func (r *SaisonRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Saison, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var saison models.Saison
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&saison)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche de la saison: %w", err)
	}
	return &saison, nil
}

// FindAll retourne toutes les saisons, la plus récente d'abord
func (r *SaisonRepository) FindAll(ctx context.Context) ([]models.Saison, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date_debut", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des saisons: %w", err)
	}
	defer cursor.Close(ctx)

	saisons := []models.Saison{}
	if err = cursor.All(ctx, &saisons); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des saisons: %w", err)
	}
	return saisons, nil
}

// Update remplace les champs modifiables d'une saison
func (r *SaisonRepository) Update(ctx context.Context, saison *models.Saison) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	saison.UpdatedAt = time.Now()
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": saison.ID}, bson.M{BSONSet: bson.M{
		"nom":         saison.Nom,
		"description": saison.Description,
		"date_debut":  saison.DateDebut,
		"date_fin":    saison.DateFin,
		"updated_at":  saison.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("erreur lors de la mise à jour de la saison: %w", err)
	}
	return nil
}

// Delete supprime une saison
func (r *SaisonRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("erreur lors de la suppression de la saison: %w", err)
	}
	return nil
}
