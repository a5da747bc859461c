package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Inscription représente l'inscription d'un utilisateur à un événement
type Inscription struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	EvenementID primitive.ObjectID `json:"evenement_id" bson:"evenement_id"`
	UserID      primitive.ObjectID `json:"user_id" bson:"user_id"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}

// InscriptionWithUser enrichit une inscription avec l'identité de l'inscrit
type InscriptionWithUser struct {
	Inscription `bson:",inline"`
	Nom         string `json:"nom" bson:"nom"`
	Prenom      string `json:"prenom" bson:"prenom"`
	Email       string `json:"email" bson:"email"`
}

// MesEvenement associe un événement à la date d'inscription de l'utilisateur
type MesEvenement struct {
	Evenement Evenement `json:"evenement"`
	InscritLe time.Time `json:"inscrit_le"`
}
