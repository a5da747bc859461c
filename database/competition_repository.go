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

// CompetitionRepository gère les compétitions et les résultats des clubs
type CompetitionRepository struct {
	collection *mongo.Collection
	resultats  *mongo.Collection
}

// NewCompetitionRepository crée une nouvelle instance de CompetitionRepository
func NewCompetitionRepository(db *mongo.Database) *CompetitionRepository {
	return &CompetitionRepository{
		collection: db.Collection(CollectionCompetitions),
		resultats:  db.Collection(CollectionResultats),
	}
}

// Create crée une compétition
func (r *CompetitionRepository) Create(ctx context.Context, c *models.Competition) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now()
	c.ID = primitive.NewObjectID()
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("erreur lors de la création de la compétition: %w", err)
	}
	return nil
}

// FindByID recherche une compétition par ID
func (r *CompetitionRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Competition, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var c models.Competition
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche de la compétition: %w", err)
	}
	return &c, nil
}

// List retourne une page de compétitions, par date de début
func (r *CompetitionRepository) List(ctx context.Context, f models.CompetitionFilter) ([]models.Competition, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if f.SaisonID != nil {
		filter["saison_id"] = *f.SaisonID
	}
	if f.Statut != "" {
		filter["statut"] = f.Statut
	}
	if f.Search != "" {
		filter["titre"] = searchRegex(f.Search)
	}

	competitions := []models.Competition{}
	total, err := findPage(ctx, r.collection, filter, bson.D{{Key: "date_debut", Value: 1}}, f.ListQuery, &competitions)
	if err != nil {
		return nil, 0, fmt.Errorf("compétitions: %w", err)
	}
	return competitions, total, nil
}

// Update remplace les champs modifiables d'une compétition
func (r *CompetitionRepository) Update(ctx context.Context, c *models.Competition) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	c.UpdatedAt = time.Now()
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{BSONSet: bson.M{
		"saison_id":   c.SaisonID,
		"titre":       c.Titre,
		"description": c.Description,
		"type":        c.Type,
		"objectif":    c.Objectif,
		"points":      c.Points,
		"date_debut":  c.DateDebut,
		"date_fin":    c.DateFin,
		"statut":      c.Statut,
		"updated_at":  c.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("erreur lors de la mise à jour de la compétition: %w", err)
	}
	return nil
}

// Delete supprime une compétition et ses résultats
func (r *CompetitionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.resultats.DeleteMany(ctx, bson.M{"competition_id": id}); err != nil {
		return fmt.Errorf("erreur lors de la suppression des résultats: %w", err)
	}
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("erreur lors de la suppression de la compétition: %w", err)
	}
	return nil
}

// DeleteBySaison supprime les compétitions et résultats d'une saison
func (r *CompetitionRepository) DeleteBySaison(ctx context.Context, saisonID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := r.resultats.DeleteMany(ctx, bson.M{"saison_id": saisonID}); err != nil {
		return fmt.Errorf("erreur lors de la suppression des résultats: %w", err)
	}
	if _, err := r.collection.DeleteMany(ctx, bson.M{"saison_id": saisonID}); err != nil {
		return fmt.Errorf("erreur lors de la suppression des compétitions: %w", err)
	}
	return nil
}

// AddResultat enregistre les points d'un club (ErrDuplicate si déjà noté)
func (r *CompetitionRepository) AddResultat(ctx context.Context, res *models.CompetitionResultat) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res.ID = primitive.NewObjectID()
	res.CreatedAt = time.Now()

	_, err := r.resultats.InsertOne(ctx, res)
	return wrapWriteErr(err, "erreur lors de l'enregistrement du résultat")
}

// ListResultats retourne les résultats d'une compétition, meilleur score d'abord
func (r *CompetitionRepository) ListResultats(ctx context.Context, competitionID primitive.ObjectID) ([]models.CompetitionResultat, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "points", Value: -1}})
	cursor, err := r.resultats.Find(ctx, bson.M{"competition_id": competitionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des résultats: %w", err)
	}
	defer cursor.Close(ctx)

	resultats := []models.CompetitionResultat{}
	if err = cursor.All(ctx, &resultats); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des résultats: %w", err)
	}
	return resultats, nil
}

// Classement agrège les points des clubs sur une saison.
// Les rangs ne sont pas calculés ici (ex aequo gérés par l'appelant).
func (r *CompetitionRepository) Classement(ctx context.Context, saisonID primitive.ObjectID) ([]models.ClassementEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pipeline := []bson.M{
		{BSONMatch: bson.M{"saison_id": saisonID}},
		{BSONGroup: bson.M{
			"_id":    "$club_id",
			"points": bson.M{"$sum": "$points"},
		}},
		{BSONLookup: bson.M{
			"from":         CollectionClubs,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "club",
		}},
		{BSONUnwind: bson.M{"path": "$club", "preserveNullAndEmptyArrays": true}},
		{BSONProject: bson.M{
			"points":   1,
			"club_nom": bson.M{"$ifNull": bson.A{"$club.nom", ""}},
		}},
		{BSONSort: bson.D{{Key: "points", Value: -1}, {Key: "club_nom", Value: 1}}},
	}

	cursor, err := r.resultats.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("erreur lors du calcul du classement: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []models.ClassementEntry{}
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage du classement: %w", err)
	}
	return entries, nil
}
