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

// SondageRepository gère les opérations sur les sondages
type SondageRepository struct {
	collection *mongo.Collection
}

// NewSondageRepository crée une nouvelle instance de SondageRepository
func NewSondageRepository(db *mongo.Database) *SondageRepository {
	return &SondageRepository{
		collection: db.Collection(CollectionSondages),
	}
}

// Create crée un sondage et attribue un ID à chacun de ses choix
func (r *SondageRepository) Create(ctx context.Context, s *models.Sondage) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now()
	s.ID = primitive.NewObjectID()
	s.CreatedAt = now
	s.UpdatedAt = now
	for i := range s.Choix {
		if s.Choix[i].ID.IsZero() {
			s.Choix[i].ID = primitive.NewObjectID()
		}
	}

	if _, err := r.collection.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("erreur lors de la création du sondage: %w", err)
	}
	return nil
}

// FindByID recherche un sondage par ID
func (r *SondageRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Sondage, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s models.Sondage
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche du sondage: %w", err)
	}
	return &s, nil
}

// List retourne une page de sondages, le plus récent d'abord
func (r *SondageRepository) List(ctx context.Context, f models.SondageFilter) ([]models.Sondage, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if f.ClubID != nil {
		filter["club_id"] = *f.ClubID
	}
	if f.Statut != "" {
		filter["statut"] = f.Statut
	}
	if f.Search != "" {
		filter["question"] = searchRegex(f.Search)
	}

	sondages := []models.Sondage{}
	total, err := findPage(ctx, r.collection, filter, bson.D{{Key: "created_at", Value: -1}}, f.ListQuery, &sondages)
	if err != nil {
		return nil, 0, fmt.Errorf("sondages: %w", err)
	}
	return sondages, total, nil
}

// UpdateFields met à jour des champs d'un sondage
func (r *SondageRepository) UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	fields["updated_at"] = time.Now()
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{BSONSet: fields}); err != nil {
		return fmt.Errorf("erreur lors de la mise à jour du sondage: %w", err)
	}
	return nil
}

// Close ferme un sondage ouvert. Retourne false s'il était déjà fermé.
func (r *SondageRepository) Close(ctx context.Context, id primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "statut": models.SondageOuvert},
		bson.M{BSONSet: bson.M{"statut": models.SondageFerme, "updated_at": time.Now()}},
	)
	if err != nil {
		return false, fmt.Errorf("erreur lors de la fermeture du sondage: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

// FindExpired retourne les sondages ouverts dont la date de fin est passée
func (r *SondageRepository) FindExpired(ctx context.Context, now time.Time) ([]models.Sondage, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{
		"statut":   models.SondageOuvert,
		"date_fin": bson.M{"$lte": now},
	})
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des sondages expirés: %w", err)
	}
	defer cursor.Close(ctx)

	sondages := []models.Sondage{}
	if err = cursor.All(ctx, &sondages); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des sondages: %w", err)
	}
	return sondages, nil
}

// SetResume met en cache le résumé IA d'un sondage
func (r *SondageRepository) SetResume(ctx context.Context, id primitive.ObjectID, resume string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{BSONSet: bson.M{
		"resume_ia":    resume,
		"resume_ia_at": at,
	}})
	if err != nil {
		return fmt.Errorf("erreur lors de l'enregistrement du résumé: %w", err)
	}
	return nil
}

// ClearResume invalide le résumé IA en cache
func (r *SondageRepository) ClearResume(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$unset": bson.M{
		"resume_ia":    "",
		"resume_ia_at": "",
	}})
	if err != nil {
		return fmt.Errorf("erreur lors de l'invalidation du résumé: %w", err)
	}
	return nil
}

// FindIDsByClub retourne les IDs des sondages d'un club
func (r *SondageRepository) FindIDsByClub(ctx context.Context, clubID primitive.ObjectID) ([]primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"club_id": clubID}, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des sondages du club: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des sondages: %w", err)
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// Delete supprime un sondage
func (r *SondageRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("erreur lors de la suppression du sondage: %w", err)
	}
	return nil
}

// Count compte les sondages correspondant au filtre
func (r *SondageRepository) Count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("erreur lors du comptage des sondages: %w", err)
	}
	return count, nil
}
