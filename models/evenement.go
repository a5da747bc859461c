package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Statuts d'un événement
const (
	EvenementOuvert  = "ouvert"
	EvenementComplet = "complet"
	EvenementAnnule  = "annule"
	EvenementTermine = "termine"
)

// Evenement représente un événement organisé par un club
type Evenement struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ClubID       primitive.ObjectID `json:"club_id" bson:"club_id"`
	Titre        string             `json:"titre" bson:"titre"`
	Description  string             `json:"description" bson:"description"`
	Lieu         string             `json:"lieu" bson:"lieu"`
	DateDebut    time.Time          `json:"date_debut" bson:"date_debut"`
	DateFin      time.Time          `json:"date_fin" bson:"date_fin"`
	Capacite     int                `json:"capacite" bson:"capacite"`
	Inscrits     int                `json:"inscrits" bson:"inscrits"`
	ImageURL     string             `json:"image_url,omitempty" bson:"image_url,omitempty"`
	Statut       string             `json:"statut" bson:"statut"`
	RappelEnvoye bool               `json:"rappel_envoye" bson:"rappel_envoye"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// IsUnlimited indique si l'événement n'a pas de limite de places
func (e Evenement) IsUnlimited() bool {
	return e.Capacite == 0
}

// PlacesRestantes retourne le nombre de places libres (-1 si illimité)
func (e Evenement) PlacesRestantes() int {
	if e.IsUnlimited() {
		return -1
	}
	if e.Inscrits >= e.Capacite {
		return 0
	}
	return e.Capacite - e.Inscrits
}

// EvenementRequest représente la création ou la modification d'un événement
type EvenementRequest struct {
	ClubID      string       `json:"club_id"`
	Titre       string       `json:"titre"`
	Description string       `json:"description"`
	Lieu        string       `json:"lieu"`
	DateDebut   FlexibleTime `json:"date_debut"`
	DateFin     FlexibleTime `json:"date_fin"`
	Capacite    int          `json:"capacite"`
	Statut      string       `json:"statut,omitempty"`
}

// EvenementFilter regroupe les filtres de la liste des événements
type EvenementFilter struct {
	ListQuery
	ClubID  *primitive.ObjectID
	APartir *time.Time
	Statut  string
}

// Calendrier regroupe les événements d'un mois par jour (AAAA-MM-JJ)
type Calendrier struct {
	Mois  string                 `json:"mois"`
	Jours map[string][]Evenement `json:"jours"`
	Total int                    `json:"total"`
}
