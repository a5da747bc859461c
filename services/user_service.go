package services

import (
	"context"
	"errors"
	"espace-clubs-backend/database"
	"espace-clubs-backend/metrics"
	"espace-clubs-backend/models"
	"espace-clubs-backend/utils"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserService gère les comptes: inscription, connexion, profil et administration
type UserService struct {
	users          UserStore
	clubs          ClubStore
	participations ParticipationStore
	reponses       ReponseStore
	commentaires   CommentaireStore
	sondages       SondageStore
	evenements     EvenementStore
	inscriptions   InscriptionStore
	tokens         FCMTokenStore
	mailer         Mailer
	jwtSecret      string
}

// UserServiceDeps regroupe les dépendances du service utilisateurs
type UserServiceDeps struct {
	Users          UserStore
	Clubs          ClubStore
	Participations ParticipationStore
	Reponses       ReponseStore
	Commentaires   CommentaireStore
	Sondages       SondageStore
	Evenements     EvenementStore
	Inscriptions   InscriptionStore
	Tokens         FCMTokenStore
	Mailer         Mailer
	JWTSecret      string
}

// NewUserService crée le service utilisateurs
func NewUserService(d UserServiceDeps) *UserService {
	return &UserService{
		users:          d.Users,
		clubs:          d.Clubs,
		participations: d.Participations,
		reponses:       d.Reponses,
		commentaires:   d.Commentaires,
		sondages:       d.Sondages,
		evenements:     d.Evenements,
		inscriptions:   d.Inscriptions,
		tokens:         d.Tokens,
		mailer:         d.Mailer,
		jwtSecret:      d.JWTSecret,
	}
}

func (s *UserService) authResponse(user *models.User) (*models.AuthResponse, error) {
	token, err := utils.GenerateToken(user.ID.Hex(), user.Email, user.Role, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Success: true, Token: token, User: *user}, nil
}

func validateRegister(req *models.RegisterRequest) error {
	req.Email = utils.NormalizeEmail(req.Email)
	req.Nom = strings.TrimSpace(req.Nom)
	req.Prenom = strings.TrimSpace(req.Prenom)
	req.Telephone = strings.TrimSpace(req.Telephone)

	if err := utils.ValidateEmail(req.Email); err != nil {
		return err
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return err
	}
	if err := utils.ValidateLength("nom", req.Nom, 1, 100); err != nil {
		return err
	}
	if err := utils.ValidateLength("prenom", req.Prenom, 1, 100); err != nil {
		return err
	}
	return utils.ValidatePhone(req.Telephone)
}

// Register crée un compte membre et ouvre une session
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	if err := validateRegister(&req); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Nom:       req.Nom,
		Prenom:    req.Prenom,
		Email:     req.Email,
		Telephone: req.Telephone,
		Password:  hashed,
		Role:      models.RoleMembre,
		Statut:    models.UserActif,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Deux inscriptions simultanées: l'index unique tranche
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	log.WithField("user_id", user.ID.Hex()).Info("✓ Nouvel utilisateur inscrit")
	metrics.Registrations.WithLabelValues("compte").Inc()

	subject, body := welcomeMail(user.Prenom)
	sendAsync(s.mailer, user.Email, subject, body)

	return s.authResponse(user)
}

// Login vérifie les identifiants et ouvre une session
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	email := utils.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrBadCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !utils.CheckPassword(user.Password, req.Password) {
		return nil, ErrBadCredentials
	}
	if user.IsBlocked() {
		return nil, ErrAccountBlocked
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		log.WithError(err).Warn("⚠️  Impossible de mettre à jour last_login")
	} else {
		now := time.Now()
		user.LastLogin = &now
	}

	return s.authResponse(user)
}

// Get retourne un utilisateur existant
func (s *UserService) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// profileFields valide et convertit les champs de profil modifiables
func profileFields(nom, prenom, telephone *string) (bson.M, error) {
	fields := bson.M{}
	if nom != nil {
		v := strings.TrimSpace(*nom)
		if err := utils.ValidateLength("nom", v, 1, 100); err != nil {
			return nil, err
		}
		fields["nom"] = v
	}
	if prenom != nil {
		v := strings.TrimSpace(*prenom)
		if err := utils.ValidateLength("prenom", v, 1, 100); err != nil {
			return nil, err
		}
		fields["prenom"] = v
	}
	if telephone != nil {
		v := strings.TrimSpace(*telephone)
		if err := utils.ValidatePhone(v); err != nil {
			return nil, err
		}
		fields["telephone"] = v
	}
	return fields, nil
}

// UpdateProfile modifie le profil de l'utilisateur courant
func (s *UserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, req models.UpdateProfileRequest) (*models.User, error) {
	fields, err := profileFields(req.Nom, req.Prenom, req.Telephone)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNothingToUpdate
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.users.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// ChangePassword remplace le mot de passe après vérification de l'actuel
func (s *UserService) ChangePassword(ctx context.Context, id primitive.ObjectID, req models.ChangePasswordRequest) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(user.Password, req.CurrentPassword) {
		return ErrWrongPassword
	}
	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		return err
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.users.UpdateFields(ctx, id, bson.M{"password": hashed})
}

// SetPhoto enregistre l'URL de la photo de profil
func (s *UserService) SetPhoto(ctx context.Context, id primitive.ObjectID, url string) (*models.User, error) {
	if err := s.users.UpdateFields(ctx, id, bson.M{"photo_url": url}); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// List retourne la liste paginée des utilisateurs (admin)
func (s *UserService) List(ctx context.Context, f models.UserFilter) ([]models.User, int64, error) {
	if f.Role != "" {
		if err := utils.ValidateOneOf("role", f.Role, models.RoleAdmin, models.RolePresident, models.RoleMembre); err != nil {
			return nil, 0, err
		}
	}
	if f.Statut != "" {
		if err := utils.ValidateOneOf("statut", f.Statut, models.UserActif, models.UserBloque); err != nil {
			return nil, 0, err
		}
	}
	return s.users.List(ctx, f)
}

// AdminUpdate modifie un utilisateur; débloquer un compte remet ses avertissements à zéro
func (s *UserService) AdminUpdate(ctx context.Context, id primitive.ObjectID, req models.UpdateUserRequest, actor *models.User) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields, err := profileFields(req.Nom, req.Prenom, req.Telephone)
	if err != nil {
		return nil, err
	}

	if req.Role != nil {
		if err := utils.ValidateOneOf("role", *req.Role, models.RoleAdmin, models.RolePresident, models.RoleMembre); err != nil {
			return nil, err
		}
		// un admin ne se retire pas lui-même ses droits
		if user.ID == actor.ID && *req.Role != models.RoleAdmin {
			return nil, ErrForbidden
		}
		fields["role"] = *req.Role
	}
	if req.Statut != nil {
		if err := utils.ValidateOneOf("statut", *req.Statut, models.UserActif, models.UserBloque); err != nil {
			return nil, err
		}
		if user.ID == actor.ID && *req.Statut == models.UserBloque {
			return nil, ErrForbidden
		}
		fields["statut"] = *req.Statut
		if *req.Statut == models.UserActif && user.IsBlocked() {
			fields["avertissements"] = 0
		}
	}

	if len(fields) == 0 {
		return nil, ErrNothingToUpdate
	}
	if err := s.users.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"user_id": id.Hex(), "admin_id": actor.ID.Hex()}).Info("✏️  Utilisateur modifié par un admin")
	return s.Get(ctx, id)
}

// Delete supprime un compte et toutes ses données rattachées
func (s *UserService) Delete(ctx context.Context, id primitive.ObjectID, actor *models.User) error {
	if id == actor.ID {
		return ErrForbidden
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	// Les compteurs suivent ce qui a réellement été supprimé: une suppression
	// interrompue puis relancée ne décrémente pas deux fois.
	participations, err := s.participations.ListByUser(ctx, id)
	if err != nil {
		return err
	}
	for _, p := range participations {
		deleted, err := s.participations.Delete(ctx, p.ID, p.ClubID, id)
		if err != nil {
			return err
		}
		if deleted != nil && deleted.Statut == models.ParticipationAccepte {
			if err := s.clubs.IncrementMembres(ctx, p.ClubID, -1); err != nil {
				return err
			}
		}
	}

	inscriptions, err := s.inscriptions.FindByUser(ctx, id)
	if err != nil {
		return err
	}
	for _, i := range inscriptions {
		deleted, err := s.inscriptions.Delete(ctx, i.EvenementID, id)
		if err != nil {
			return err
		}
		if deleted {
			if err := s.evenements.ReleasePlace(ctx, i.EvenementID); err != nil {
				return err
			}
		}
	}

	commented, err := s.commentaires.DeleteByUser(ctx, id)
	if err != nil {
		return err
	}
	for _, sondageID := range commented {
		if err := s.sondages.ClearResume(ctx, sondageID); err != nil {
			log.WithError(err).WithField("sondage_id", sondageID.Hex()).Warn("⚠️  Impossible d'invalider le résumé")
		}
	}

	cleanups := []func(context.Context, primitive.ObjectID) error{
		s.reponses.DeleteByUser,
		s.tokens.DeleteByUserID,
	}
	for _, cleanup := range cleanups {
		if err := cleanup(ctx, id); err != nil {
			return err
		}
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	log.WithFields(log.Fields{"user_id": id.Hex(), "admin_id": actor.ID.Hex()}).Info("🗑️  Utilisateur supprimé")
	return nil
}
