package database

import (
	"context"
	"errors"
	"espace-clubs-backend/models"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicate est retournée quand un index unique refuse l'écriture
var ErrDuplicate = errors.New("document déjà existant")

const defaultTimeout = 5 * time.Second

// wrapWriteErr traduit les violations d'index unique en ErrDuplicate
func wrapWriteErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// searchRegex construit un filtre regex insensible à la casse sur une saisie utilisateur
func searchRegex(term string) bson.M {
	return bson.M{BSONRegex: regexp.QuoteMeta(term), BSONOptions: "i"}
}

// findPage exécute une recherche paginée et retourne le total des documents correspondants
func findPage(ctx context.Context, coll *mongo.Collection, filter interface{}, sort bson.D, q models.ListQuery, out interface{}) (int64, error) {
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("erreur lors du comptage: %w", err)
	}

	opts := options.Find().SetSort(sort).SetSkip(q.Skip())
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return 0, fmt.Errorf("erreur lors de la recherche: %w", err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, out); err != nil {
		return 0, fmt.Errorf("erreur lors du décodage: %w", err)
	}
	return total, nil
}
