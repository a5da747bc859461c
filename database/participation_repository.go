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

// ParticipationRepository gère les adhésions aux clubs
type ParticipationRepository struct {
	collection *mongo.Collection
}

// NewParticipationRepository crée une nouvelle instance de ParticipationRepository
func NewParticipationRepository(db *mongo.Database) *ParticipationRepository {
	return &ParticipationRepository{
		collection: db.Collection(CollectionParticipations),
	}
}

// Create enregistre une demande d'adhésion (ErrDuplicate si elle existe déjà)
func (r *ParticipationRepository) Create(ctx context.Context, p *models.ParticipationMembre) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	p.ID = primitive.NewObjectID()
	p.DateDemande = time.Now()

	_, err := r.collection.InsertOne(ctx, p)
	return wrapWriteErr(err, "erreur lors de la création de la participation")
}

// FindByID recherche une participation par ID
func (r *ParticipationRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.ParticipationMembre, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByClubAndUser recherche la participation d'un utilisateur à un club
func (r *ParticipationRepository) FindByClubAndUser(ctx context.Context, clubID, userID primitive.ObjectID) (*models.ParticipationMembre, error) {
	return r.findOne(ctx, bson.M{"club_id": clubID, "user_id": userID})
}

func (r *ParticipationRepository) findOne(ctx context.Context, filter bson.M) (*models.ParticipationMembre, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p models.ParticipationMembre
	err := r.collection.FindOne(ctx, filter).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche de la participation: %w", err)
	}
	return &p, nil
}

// ListByClub retourne les participations d'un club avec l'identité des membres
func (r *ParticipationRepository) ListByClub(ctx context.Context, clubID primitive.ObjectID, statut string) ([]models.ParticipationWithUser, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	match := bson.M{"club_id": clubID}
	if statut != "" {
		match["statut"] = statut
	}

	pipeline := []bson.M{
		{BSONMatch: match},
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
		{BSONSort: bson.D{{Key: "date_demande", Value: -1}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des participations: %w", err)
	}
	defer cursor.Close(ctx)

	participations := []models.ParticipationWithUser{}
	if err = cursor.All(ctx, &participations); err != nil {
		return nil, fmt.Errorf(constants.ErrDecodeParticipation, err)
	}
	return participations, nil
}

// ListByUser retourne les participations d'un utilisateur
func (r *ParticipationRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.ParticipationMembre, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

// AcceptedUserIDs retourne les IDs des membres acceptés d'un club
func (r *ParticipationRepository) AcceptedUserIDs(ctx context.Context, clubID primitive.ObjectID) ([]primitive.ObjectID, error) {
	participations, err := r.find(ctx, bson.M{"club_id": clubID, "statut": models.ParticipationAccepte})
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(participations))
	for _, p := range participations {
		ids = append(ids, p.UserID)
	}
	return ids, nil
}

func (r *ParticipationRepository) find(ctx context.Context, filter bson.M) ([]models.ParticipationMembre, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date_demande", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des participations: %w", err)
	}
	defer cursor.Close(ctx)

	participations := []models.ParticipationMembre{}
	if err = cursor.All(ctx, &participations); err != nil {
		return nil, fmt.Errorf(constants.ErrDecodeParticipation, err)
	}
	return participations, nil
}

// Decide passe une demande en attente au statut donné.
// Retourne nil si la demande n'existe pas ou a déjà été traitée.
func (r *ParticipationRepository) Decide(ctx context.Context, id primitive.ObjectID, statut string) (*models.ParticipationMembre, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "statut": models.ParticipationEnAttente}
	update := bson.M{BSONSet: bson.M{"statut": statut, "date_decision": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.ParticipationMembre
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la décision sur la participation: %w", err)
	}
	return &p, nil
}

// Delete supprime la participation d'un membre et retourne le document supprimé.
// Retourne nil si elle a déjà été supprimée: seul l'appelant qui obtient le
// document doit ajuster le compteur de membres.
func (r *ParticipationRepository) Delete(ctx context.Context, id, clubID, userID primitive.ObjectID) (*models.ParticipationMembre, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "club_id": clubID, "user_id": userID}

	var p models.ParticipationMembre
	err := r.collection.FindOneAndDelete(ctx, filter).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la suppression de la participation: %w", err)
	}
	return &p, nil
}

// DeleteByClub supprime toutes les participations d'un club
func (r *ParticipationRepository) DeleteByClub(ctx context.Context, clubID primitive.ObjectID) error {
	return r.deleteMany(ctx, bson.M{"club_id": clubID})
}

func (r *ParticipationRepository) deleteMany(ctx context.Context, filter bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := r.collection.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("erreur lors de la suppression des participations: %w", err)
	}
	return nil
}
