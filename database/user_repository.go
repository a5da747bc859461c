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

// UserRepository gère les opérations sur les utilisateurs
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository crée une nouvelle instance de UserRepository
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection(CollectionUsers),
	}
}

// Create crée un nouvel utilisateur (ErrDuplicate si l'email existe)
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, user)
	return wrapWriteErr(err, "erreur lors de la création de l'utilisateur")
}

// FindByEmail recherche un utilisateur par email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// FindByID recherche un utilisateur par ID
func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)

	if err == mongo.ErrNoDocuments {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche de l'utilisateur: %w", err)
	}

	return &user, nil
}

// FindByIDs retourne les utilisateurs correspondant aux IDs
func (r *UserRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des utilisateurs: %w", err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des utilisateurs: %w", err)
	}
	return users, nil
}

// List retourne une page d'utilisateurs filtrée (recherche sur nom, prénom et email)
func (r *UserRepository) List(ctx context.Context, f models.UserFilter) ([]models.User, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if f.Search != "" {
		re := searchRegex(f.Search)
		filter["$or"] = bson.A{
			bson.M{"nom": re},
			bson.M{"prenom": re},
			bson.M{"email": re},
		}
	}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.Statut != "" {
		filter["statut"] = f.Statut
	}

	users := []models.User{}
	total, err := findPage(ctx, r.collection, filter, bson.D{{Key: "created_at", Value: -1}}, f.ListQuery, &users)
	if err != nil {
		return nil, 0, fmt.Errorf("utilisateurs: %w", err)
	}
	return users, total, nil
}

// UpdateFields met à jour des champs spécifiques d'un utilisateur
func (r *UserRepository) UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	fields["updated_at"] = time.Now()
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{BSONSet: fields})
	if err != nil {
		return fmt.Errorf("erreur lors de la mise à jour de l'utilisateur: %w", err)
	}

	return nil
}

// UpdateLastLogin enregistre la date de dernière connexion
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{BSONSet: bson.M{"last_login": time.Now()}})
	if err != nil {
		return fmt.Errorf("erreur mise à jour last_login: %w", err)
	}
	return nil
}

// AddAvertissement incrémente les avertissements et bloque le compte au seuil, en une seule écriture
func (r *UserRepository) AddAvertissement(ctx context.Context, id primitive.ObjectID, max int) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: BSONSet, Value: bson.M{
			"avertissements": bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$avertissements", 0}}, 1}},
			"updated_at":     "$$NOW",
		}}},
		{{Key: BSONSet, Value: bson.M{
			"statut": bson.M{"$cond": bson.A{
				bson.M{"$gte": bson.A{"$avertissements", max}},
				models.UserBloque,
				"$statut",
			}},
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline, opts).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de l'ajout d'un avertissement: %w", err)
	}
	return &user, nil
}

// Delete supprime un utilisateur
func (r *UserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("erreur lors de la suppression de l'utilisateur: %w", err)
	}

	return nil
}

// Count compte les utilisateurs correspondant au filtre
func (r *UserRepository) Count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("erreur lors du comptage des utilisateurs: %w", err)
	}

	return count, nil
}
