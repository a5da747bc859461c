package database

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DB est l'instance de connexion à la base de données MongoDB
var DB *mongo.Database
var Client *mongo.Client

// Noms des collections
const (
	CollectionUsers          = "users"
	CollectionClubs          = "clubs"
	CollectionParticipations = "participations"
	CollectionSaisons        = "saisons"
	CollectionCompetitions   = "competitions"
	CollectionResultats      = "competition_resultats"
	CollectionSondages       = "sondages"
	CollectionReponses       = "reponses"
	CollectionCommentaires   = "commentaires"
	CollectionEvenements     = "evenements"
	CollectionInscriptions   = "inscriptions"
	CollectionFCMTokens      = "fcm_tokens"
)

// Connect établit la connexion à la base de données MongoDB
func Connect(uri, dbName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("erreur lors de la connexion à MongoDB: %w", err)
	}

	if err = client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("erreur lors du ping MongoDB: %w", err)
	}

	Client = client
	DB = client.Database(dbName)

	log.Println("✓ Connexion à MongoDB établie")

	if err = EnsureIndexes(ctx, DB); err != nil {
		return fmt.Errorf("erreur lors de la création des index: %w", err)
	}

	return nil
}

// Ping vérifie que la connexion MongoDB est active
func Ping() error {
	if Client == nil {
		return fmt.Errorf("client MongoDB non initialisé")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return Client.Ping(ctx, nil)
}

// Close ferme la connexion à la base de données
func Close() error {
	if Client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return Client.Disconnect(ctx)
	}
	return nil
}

func uniqueIndex(keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
}

// indexes liste les index de chaque collection.
// Les index uniques portent les invariants métier (un vote par sondage, une inscription par événement...).
var indexes = map[string][]mongo.IndexModel{
	CollectionUsers: {
		uniqueIndex(bson.D{{Key: "email", Value: 1}}),
	},
	CollectionClubs: {
		uniqueIndex(bson.D{{Key: "nom", Value: 1}}),
		{Keys: bson.D{{Key: "statut", Value: 1}, {Key: "nom", Value: 1}}},
	},
	CollectionParticipations: {
		uniqueIndex(bson.D{{Key: "club_id", Value: 1}, {Key: "user_id", Value: 1}}),
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	},
	CollectionCompetitions: {
		{Keys: bson.D{{Key: "saison_id", Value: 1}, {Key: "date_debut", Value: 1}}},
	},
	CollectionResultats: {
		uniqueIndex(bson.D{{Key: "competition_id", Value: 1}, {Key: "club_id", Value: 1}}),
		{Keys: bson.D{{Key: "saison_id", Value: 1}}},
	},
	CollectionSondages: {
		{Keys: bson.D{{Key: "club_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "statut", Value: 1}, {Key: "date_fin", Value: 1}}},
	},
	CollectionReponses: {
		uniqueIndex(bson.D{{Key: "sondage_id", Value: 1}, {Key: "user_id", Value: 1}}),
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	},
	CollectionCommentaires: {
		{Keys: bson.D{{Key: "sondage_id", Value: 1}, {Key: "created_at", Value: -1}}},
	},
	CollectionEvenements: {
		{Keys: bson.D{{Key: "date_debut", Value: 1}}},
		{Keys: bson.D{{Key: "club_id", Value: 1}, {Key: "date_debut", Value: 1}}},
	},
	CollectionInscriptions: {
		uniqueIndex(bson.D{{Key: "evenement_id", Value: 1}, {Key: "user_id", Value: 1}}),
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	},
	CollectionFCMTokens: {
		uniqueIndex(bson.D{{Key: "token", Value: 1}}),
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	},
}

// EnsureIndexes crée les index nécessaires
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for collection, models := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("index %s: %w", collection, err)
		}
	}

	log.Println("✓ Index MongoDB créés")
	return nil
}
