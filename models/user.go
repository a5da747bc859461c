package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rôles des utilisateurs
const (
	RoleAdmin     = "admin"
	RolePresident = "president"
	RoleMembre    = "membre"
)

// Statuts des comptes
const (
	UserActif  = "actif"
	UserBloque = "bloque"
)

// MaxAvertissements est le nombre de commentaires toxiques avant blocage du compte
const MaxAvertissements = 3

// User représente un utilisateur de la plateforme
type User struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Nom            string             `json:"nom" bson:"nom"`
	Prenom         string             `json:"prenom" bson:"prenom"`
	Email          string             `json:"email" bson:"email"`
	Telephone      string             `json:"telephone,omitempty" bson:"telephone,omitempty"`
	Password       string             `json:"-" bson:"password"` // Le "-" empêche la sérialisation du mot de passe
	Role           string             `json:"role" bson:"role"`
	Statut         string             `json:"statut" bson:"statut"`
	PhotoURL       string             `json:"photo_url,omitempty" bson:"photo_url,omitempty"`
	Avertissements int                `json:"avertissements" bson:"avertissements"`
	LastLogin      *time.Time         `json:"last_login,omitempty" bson:"last_login,omitempty"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

// FullName retourne "Prénom Nom"
func (u User) FullName() string {
	if u.Prenom == "" {
		return u.Nom
	}
	return u.Prenom + " " + u.Nom
}

// IsAdmin indique si l'utilisateur est administrateur
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsBlocked indique si le compte est bloqué
func (u User) IsBlocked() bool {
	return u.Statut == UserBloque
}

// RegisterRequest représente la requête d'inscription
type RegisterRequest struct {
	Nom       string `json:"nom"`
	Prenom    string `json:"prenom"`
	Email     string `json:"email"`
	Telephone string `json:"telephone"`
	Password  string `json:"password"`
}

// LoginRequest représente la requête de connexion
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse représente la réponse d'authentification
type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

// UpdateProfileRequest représente la modification de son propre profil
type UpdateProfileRequest struct {
	Nom       *string `json:"nom,omitempty"`
	Prenom    *string `json:"prenom,omitempty"`
	Telephone *string `json:"telephone,omitempty"`
}

// ChangePasswordRequest représente un changement de mot de passe
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UpdateUserRequest représente la requête de modification d'utilisateur par un admin
type UpdateUserRequest struct {
	Nom       *string `json:"nom,omitempty"`
	Prenom    *string `json:"prenom,omitempty"`
	Telephone *string `json:"telephone,omitempty"`
	Role      *string `json:"role,omitempty"`
	Statut    *string `json:"statut,omitempty"`
}

// UserFilter regroupe les filtres de la liste admin des utilisateurs
type UserFilter struct {
	ListQuery
	Role   string
	Statut string
}
