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

// ClubRepository gère les opérations sur les clubs
type ClubRepository struct {
	collection *mongo.Collection
}

// NewClubRepository crée une nouvelle instance de ClubRepository
func NewClubRepository(db *mongo.Database) *ClubRepository {
	return &ClubRepository{
		collection: db.Collection(CollectionClubs),
	}
}

// Create crée un club (ErrDuplicate si le nom est pris)
func (r *ClubRepository) Create(ctx context.Context, club *models.Club) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now()
	club.ID = primitive.NewObjectID()
	club.CreatedAt = now
	club.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, club)
	return wrapWriteErr(err, "erreur lors de la création du club")
}

// FindByID recherche un club par ID
func (r *ClubRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Club, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var club models.Club
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&club)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche du club: %w", err)
	}
	return &club, nil
}

// FindByIDs retourne les clubs correspondant aux IDs, triés par nom
func (r *ClubRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Club, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	clubs := []models.Club{}
	if len(ids) == 0 {
		return clubs, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "nom", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des clubs: %w", err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &clubs); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des clubs: %w", err)
	}
	return clubs, nil
}

// List retourne une page de clubs triés par nom
func (r *ClubRepository) List(ctx context.Context, f models.ClubFilter) ([]models.Club, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if f.Search != "" {
		filter["nom"] = searchRegex(f.Search)
	}
	if f.Categorie != "" {
		filter["categorie"] = f.Categorie
	}
	if f.Statut != "" {
		filter["statut"] = f.Statut
	}

	clubs := []models.Club{}
	total, err := findPage(ctx, r.collection, filter, bson.D{{Key: "nom", Value: 1}}, f.ListQuery, &clubs)
	if err != nil {
		return nil, 0, fmt.Errorf("clubs: %w", err)
	}
	return clubs, total, nil
}

// UpdateFields met à jour des champs d'un club (ErrDuplicate si le nouveau nom est pris)
func (r *ClubRepository) UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	fields["updated_at"] = time.Now()
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{BSONSet: fields})
	return wrapWriteErr(err, "erreur lors de la mise à jour du club")
}

// IncrementMembres ajuste le compteur de membres sans jamais descendre sous zéro
func (r *ClubRepository) IncrementMembres(ctx context.Context, id primitive.ObjectID, delta int) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["nombre_membres"] = bson.M{"$gte": -delta}
	}

	_, err := r.collection.UpdateOne(ctx, filter, bson.M{BSONInc: bson.M{"nombre_membres": delta}})
	if err != nil {
		return fmt.Errorf("erreur lors de la mise à jour du nombre de membres: %w", err)
	}
	return nil
}

// Delete supprime un club
func (r *ClubRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("erreur lors de la suppression du club: %w", err)
	}
	return nil
}

// Count compte les clubs correspondant au filtre
func (r *ClubRepository) Count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("erreur lors du comptage des clubs: %w", err)
	}
	return count, nil
}
