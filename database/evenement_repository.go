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

// EvenementRepository gère les opérations sur les événements
type EvenementRepository struct {
	collection *mongo.Collection
}

// NewEvenementRepository crée une nouvelle instance de EvenementRepository
func NewEvenementRepository(db *mongo.Database) *EvenementRepository {
	return &EvenementRepository{
		collection: db.Collection(CollectionEvenements),
	}
}

// Create crée un nouvel événement
func (r *EvenementRepository) Create(ctx context.Context, e *models.Evenement) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now()
	e.ID = primitive.NewObjectID()
	e.CreatedAt = now
	e.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("erreur lors de la création de l'événement: %w", err)
	}
	return nil
}

// FindByID recherche un événement par ID
func (r *EvenementRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Evenement, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var e models.Evenement
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&e)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche de l'événement: %w", err)
	}
	return &e, nil
}

// List retourne une page d'événements triés par date de début
func (r *EvenementRepository) List(ctx context.Context, f models.EvenementFilter) ([]models.Evenement, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if f.ClubID != nil {
		filter["club_id"] = *f.ClubID
	}
	if f.APartir != nil {
		filter["date_fin"] = bson.M{"$gte": *f.APartir}
	}
	if f.Statut != "" {
		filter["statut"] = f.Statut
	}
	if f.Search != "" {
		filter["titre"] = searchRegex(f.Search)
	}

	evenements := []models.Evenement{}
	total, err := findPage(ctx, r.collection, filter, bson.D{{Key: "date_debut", Value: 1}}, f.ListQuery, &evenements)
	if err != nil {
		return nil, 0, fmt.Errorf("événements: %w", err)
	}
	return evenements, total, nil
}

// FindBetween retourne les événements non annulés qui chevauchent [from, to)
func (r *EvenementRepository) FindBetween(ctx context.Context, from, to time.Time, clubID *primitive.ObjectID) ([]models.Evenement, error) {
	filter := bson.M{
		"date_debut": bson.M{"$lt": to},
		"date_fin":   bson.M{"$gte": from},
		"statut":     bson.M{"$ne": models.EvenementAnnule},
	}
	if clubID != nil {
		filter["club_id"] = *clubID
	}
	return r.find(ctx, filter)
}

// FindForReminder retourne les événements qui commencent dans [from, to) et dont le rappel n'est pas parti
func (r *EvenementRepository) FindForReminder(ctx context.Context, from, to time.Time) ([]models.Evenement, error) {
	return r.find(ctx, bson.M{
		"date_debut":    bson.M{"$gte": from, "$lt": to},
		"rappel_envoye": false,
		"statut":        bson.M{"$in": bson.A{models.EvenementOuvert, models.EvenementComplet}},
	})
}

func (r *EvenementRepository) find(ctx context.Context, filter bson.M) ([]models.Evenement, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date_debut", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des événements: %w", err)
	}
	defer cursor.Close(ctx)

	evenements := []models.Evenement{}
	if err = cursor.All(ctx, &evenements); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des événements: %w", err)
	}
	return evenements, nil
}

// FindByIDs retourne les événements correspondant aux IDs
func (r *EvenementRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Evenement, error) {
	if len(ids) == 0 {
		return []models.Evenement{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// UpdateFields met à jour des champs d'un événement
func (r *EvenementRepository) UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	fields["updated_at"] = time.Now()
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{BSONSet: fields}); err != nil {
		return fmt.Errorf("erreur lors de la mise à jour de l'événement: %w", err)
	}
	return nil
}

// ReservePlace incrémente les inscrits si l'événement est ouvert, pas commencé et pas complet.
// Le statut passe à "complet" quand la dernière place est prise. Retourne false si aucune place n'a été réservée.
func (r *EvenementRepository) ReservePlace(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"_id":        id,
		"statut":     models.EvenementOuvert,
		"date_debut": bson.M{"$gt": now},
		"$or": bson.A{
			bson.M{"capacite": 0},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$inscrits", "$capacite"}}},
		},
	}
	pipeline := mongo.Pipeline{
		{{Key: BSONSet, Value: bson.M{
			"inscrits":   bson.M{"$add": bson.A{"$inscrits", 1}},
			"updated_at": "$$NOW",
		}}},
		{{Key: BSONSet, Value: bson.M{
			"statut": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"$gt": bson.A{"$capacite", 0}},
					bson.M{"$gte": bson.A{"$inscrits", "$capacite"}},
				}},
				models.EvenementComplet,
				"$statut",
			}},
		}}},
	}

	res, err := r.collection.UpdateOne(ctx, filter, pipeline)
	if err != nil {
		return false, fmt.Errorf("erreur lors de la réservation d'une place: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

// ReleasePlace libère une place et rouvre un événement complet
func (r *EvenementRepository) ReleasePlace(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: BSONSet, Value: bson.M{
			"inscrits":   bson.M{"$subtract": bson.A{"$inscrits", 1}},
			"updated_at": "$$NOW",
			"statut": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$statut", models.EvenementComplet}},
				models.EvenementOuvert,
				"$statut",
			}},
		}}},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "inscrits": bson.M{"$gt": 0}}, pipeline)
	if err != nil {
		return fmt.Errorf("erreur lors de la libération d'une place: %w", err)
	}
	return nil
}

// MarkReminderSent marque le rappel comme envoyé. Retourne false si un autre passage l'a déjà fait.
func (r *EvenementRepository) MarkReminderSent(ctx context.Context, id primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "rappel_envoye": false},
		bson.M{BSONSet: bson.M{"rappel_envoye": true}},
	)
	if err != nil {
		return false, fmt.Errorf("erreur lors du marquage du rappel: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

// MarkFinished passe à "termine" les événements dont la date de fin est dépassée
func (r *EvenementRepository) MarkFinished(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := r.collection.UpdateMany(ctx,
		bson.M{
			"date_fin": bson.M{"$lt": now},
			"statut":   bson.M{"$in": bson.A{models.EvenementOuvert, models.EvenementComplet}},
		},
		bson.M{BSONSet: bson.M{"statut": models.EvenementTermine, "updated_at": now}},
	)
	if err != nil {
		return 0, fmt.Errorf("erreur lors de la clôture des événements passés: %w", err)
	}
	return res.ModifiedCount, nil
}

// FindIDsByClub retourne les identifiants des événements d'un club
func (r *EvenementRepository) FindIDsByClub(ctx context.Context, clubID primitive.ObjectID) ([]primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"club_id": clubID}, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des événements du club: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des événements: %w", err)
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// Delete supprime un événement
func (r *EvenementRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("erreur lors de la suppression de l'événement: %w", err)
	}
	return nil
}

// Count compte les événements correspondant au filtre
func (r *EvenementRepository) Count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("erreur lors du comptage des événements: %w", err)
	}
	return count, nil
}
