package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"espace-clubs-backend/config"
	"espace-clubs-backend/database"
	"espace-clubs-backend/models"
	"espace-clubs-backend/utils"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
)

// Crée un compte administrateur, ou promeut un compte existant
func main() {
	email := flag.String("email", "", "email de l'administrateur")
	password := flag.String("password", "", "mot de passe (ignoré si le compte existe)")
	nom := flag.String("nom", "Admin", "nom")
	prenom := flag.String("prenom", "", "prénom")
	flag.Parse()

	if err := utils.ValidateEmail(*email); err != nil {
		fmt.Fprintln(os.Stderr, "usage: create-admin -email admin@univ.tn -password 'MotDePasse1' [-nom X -prenom Y]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Erreur lors du chargement de la configuration: %v", err)
	}
	if err := database.Connect(cfg.MongoURI, cfg.MongoDB); err != nil {
		log.Fatalf("❌ Erreur de connexion à MongoDB: %v", err)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	users := database.NewUserRepository(database.DB)
	normalized := utils.NormalizeEmail(*email)

	existing, err := users.FindByEmail(ctx, normalized)
	if err != nil {
		log.Fatalf("❌ Erreur lors de la recherche de l'utilisateur: %v", err)
	}

	if existing != nil {
		if existing.IsAdmin() {
			log.Printf("ℹ️  %s est déjà administrateur", normalized)
			return
		}
		if err := users.UpdateFields(ctx, existing.ID, bson.M{"role": models.RoleAdmin, "statut": models.UserActif}); err != nil {
			log.Fatalf("❌ Erreur lors de la promotion: %v", err)
		}
		log.Printf("✅ %s promu administrateur", normalized)
		return
	}

	if err := utils.ValidatePassword(*password); err != nil {
		log.Fatalf("❌ %v", err)
	}
	hashed, err := utils.HashPassword(*password)
	if err != nil {
		log.Fatalf("❌ Erreur lors du hachage du mot de passe: %v", err)
	}

	admin := &models.User{
		Nom:      *nom,
		Prenom:   *prenom,
		Email:    normalized,
		Password: hashed,
		Role:     models.RoleAdmin,
		Statut:   models.UserActif,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("❌ Erreur lors de la création de l'administrateur: %v", err)
	}
	log.Printf("✅ Administrateur créé: %s (%s)", normalized, admin.ID.Hex())
}
