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

// CommentaireRepository gère les commentaires des sondages
type CommentaireRepository struct {
	collection *mongo.Collection
}

// NewCommentaireRepository crée une nouvelle instance de CommentaireRepository
func NewCommentaireRepository(db *mongo.Database) *CommentaireRepository {
	return &CommentaireRepository{
		collection: db.Collection(CollectionCommentaires),
	}
}

// Create enregistre un commentaire
func (r *CommentaireRepository) Create(ctx context.Context, c *models.Commentaire) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now()
	c.ID = primitive.NewObjectID()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Signalements == nil {
		c.Signalements = []primitive.ObjectID{}
	}

	if _, err := r.collection.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("erreur lors de la création du commentaire: %w", err)
	}
	return nil
}

// FindByID recherche un commentaire par ID
func (r *CommentaireRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Commentaire, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var c models.Commentaire
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche du commentaire: %w", err)
	}
	return &c, nil
}

func commentaireFilter(f models.CommentaireFilter) bson.M {
	filter := bson.M{}
	if f.SondageID != nil {
		filter["sondage_id"] = *f.SondageID
	}
	if !f.InclureMasque {
		filter["masque"] = false
	}
	if f.SignalesSeuls {
		filter["$or"] = bson.A{
			bson.M{"masque": true},
			bson.M{"signalements.0": bson.M{"$exists": true}},
		}
	}
	if f.Search != "" {
		filter["contenu"] = searchRegex(f.Search)
	}
	return filter
}

// List retourne une page de commentaires (plus récents d'abord) avec le nom de leur auteur
func (r *CommentaireRepository) List(ctx context.Context, f models.CommentaireFilter) ([]models.CommentaireWithAuteur, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := commentaireFilter(f)
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("erreur lors du comptage des commentaires: %w", err)
	}

	pipeline := []bson.M{
		{BSONMatch: filter},
		{BSONSort: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{BSONSkip: f.Skip()},
	}
	if f.Limit > 0 {
		pipeline = append(pipeline, bson.M{BSONLimit: f.Limit})
	}
	pipeline = append(pipeline,
		bson.M{BSONLookup: bson.M{
			"from":         CollectionUsers,
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "auteur",
		}},
		bson.M{BSONUnwind: bson.M{"path": "$auteur", "preserveNullAndEmptyArrays": true}},
		bson.M{BSONSet: bson.M{
			"auteur_nom":          "$auteur.nom",
			"auteur_prenom":       "$auteur.prenom",
			"nombre_signalements": bson.M{"$size": bson.M{"$ifNull": bson.A{"$signalements", bson.A{}}}},
		}},
		bson.M{BSONProject: bson.M{"auteur": 0}},
	)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, fmt.Errorf("erreur lors de la recherche des commentaires: %w", err)
	}
	defer cursor.Close(ctx)

	commentaires := []models.CommentaireWithAuteur{}
	if err = cursor.All(ctx, &commentaires); err != nil {
		return nil, 0, fmt.Errorf("erreur lors du décodage des commentaires: %w", err)
	}
	return commentaires, total, nil
}

// ListVisibles retourne tous les commentaires non masqués d'un sondage, du plus ancien au plus récent
func (r *CommentaireRepository) ListVisibles(ctx context.Context, sondageID primitive.ObjectID) ([]models.Commentaire, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"sondage_id": sondageID, "masque": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des commentaires: %w", err)
	}
	defer cursor.Close(ctx)

	commentaires := []models.Commentaire{}
	if err = cursor.All(ctx, &commentaires); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des commentaires: %w", err)
	}
	return commentaires, nil
}

// LatestActivity retourne la date de la dernière création ou modification d'un commentaire visible
func (r *CommentaireRepository) LatestActivity(ctx context.Context, sondageID primitive.ObjectID) (*time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOne().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetProjection(bson.M{"updated_at": 1})

	var doc struct {
		UpdatedAt time.Time `bson:"updated_at"`
	}
	err := r.collection.FindOne(ctx, bson.M{"sondage_id": sondageID, "masque": false}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche du dernier commentaire: %w", err)
	}
	return &doc.UpdatedAt, nil
}

// UpdateContenu remplace le texte d'un commentaire et son score de toxicité
func (r *CommentaireRepository) UpdateContenu(ctx context.Context, id primitive.ObjectID, contenu string, score float64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{BSONSet: bson.M{
		"contenu":        contenu,
		"score_toxicite": score,
		"updated_at":     time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("erreur lors de la mise à jour du commentaire: %w", err)
	}
	return nil
}

// AddSignalement ajoute le signalement d'un utilisateur et masque le commentaire au seuil.
// Retourne nil si le commentaire n'existe pas ou si l'utilisateur l'a déjà signalé.
func (r *CommentaireRepository) AddSignalement(ctx context.Context, id, userID primitive.ObjectID, seuil int) (*models.Commentaire, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "signalements": bson.M{"$ne": userID}}
	pipeline := mongo.Pipeline{
		{{Key: BSONSet, Value: bson.M{
			"signalements": bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$signalements", bson.A{}}},
				bson.A{userID},
			}},
		}}},
		{{Key: BSONSet, Value: bson.M{
			"masque": bson.M{"$or": bson.A{
				"$masque",
				bson.M{"$gte": bson.A{bson.M{"$size": "$signalements"}, seuil}},
			}},
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c models.Commentaire
	err := r.collection.FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors du signalement du commentaire: %w", err)
	}
	return &c, nil
}

// Restore efface les signalements et réaffiche un commentaire
func (r *CommentaireRepository) Restore(ctx context.Context, id primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{BSONSet: bson.M{
		"signalements": bson.A{},
		"masque":       false,
		"updated_at":   time.Now(),
	}})
	if err != nil {
		return false, fmt.Errorf("erreur lors de la restauration du commentaire: %w", err)
	}
	return res.MatchedCount > 0, nil
}

// Delete supprime un commentaire
func (r *CommentaireRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("erreur lors de la suppression du commentaire: %w", err)
	}
	return nil
}

// DeleteBySondage supprime les commentaires d'un sondage
func (r *CommentaireRepository) DeleteBySondage(ctx context.Context, sondageID primitive.ObjectID) error {
	return r.deleteMany(ctx, bson.M{"sondage_id": sondageID})
}

// DeleteByUser supprime les commentaires d'un utilisateur
// et retourne les sondages concernés
func (r *CommentaireRepository) DeleteByUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	filter := bson.M{"user_id": userID}

	distinctCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	raw, err := r.collection.Distinct(distinctCtx, "sondage_id", filter)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des sondages commentés: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	if err := r.deleteMany(ctx, filter); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *CommentaireRepository) deleteMany(ctx context.Context, filter bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := r.collection.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("erreur lors de la suppression des commentaires: %w", err)
	}
	return nil
}

// Count compte les commentaires correspondant au filtre
func (r *CommentaireRepository) Count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("erreur lors du comptage des commentaires: %w", err)
	}
	return count, nil
}
