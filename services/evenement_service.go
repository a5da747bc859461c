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

// ReminderWindow est le délai avant le début d'un événement où le rappel part
const ReminderWindow = 24 * time.Hour

// EvenementService gère le calendrier des clubs et les inscriptions
type EvenementService struct {
	evenements   EvenementStore
	inscriptions InscriptionStore
	clubs        ClubStore
	users        UserStore
	mailer       Mailer
	notifier     MemberNotifier
	publisher    EventPublisher
	now          func() time.Time
}

// EvenementServiceDeps regroupe les dépendances du service événements
type EvenementServiceDeps struct {
	Evenements   EvenementStore
	Inscriptions InscriptionStore
	Clubs        ClubStore
	Users        UserStore
	Mailer       Mailer
	Notifier     MemberNotifier
	Publisher    EventPublisher
}

// NewEvenementService crée le service événements
func NewEvenementService(d EvenementServiceDeps) *EvenementService {
	s := &EvenementService{
		evenements:   d.Evenements,
		inscriptions: d.Inscriptions,
		clubs:        d.Clubs,
		users:        d.Users,
		mailer:       d.Mailer,
		notifier:     d.Notifier,
		publisher:    d.Publisher,
		now:          time.Now,
	}
	if s.publisher == nil {
		s.publisher = NoopPublisher{}
	}
	return s
}

func (s *EvenementService) load(ctx context.Context, id primitive.ObjectID) (*models.Evenement, error) {
	e, err := s.evenements.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrEventNotFound
	}
	return e, nil
}

func (s *EvenementService) loadManaged(ctx context.Context, id primitive.ObjectID, user *models.User) (*models.Evenement, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := loadManagedClub(ctx, s.clubs, e.ClubID, user); err != nil {
		if errors.Is(err, ErrClubNotFound) && user.IsAdmin() {
			return e, nil
		}
		return nil, err
	}
	return e, nil
}

// List retourne les événements; par défaut uniquement ceux qui ne sont pas terminés
func (s *EvenementService) List(ctx context.Context, f models.EvenementFilter, inclurePasses bool) ([]models.Evenement, int64, error) {
	if f.Statut != "" {
		if err := utils.ValidateOneOf("statut", f.Statut, models.EvenementOuvert, models.EvenementComplet, models.EvenementAnnule, models.EvenementTermine); err != nil {
			return nil, 0, err
		}
	}
	if !inclurePasses && f.APartir == nil {
		now := s.now()
		f.APartir = &now
	}
	return s.evenements.List(ctx, f)
}

// Get retourne un événement
func (s *EvenementService) Get(ctx context.Context, id primitive.ObjectID) (*models.Evenement, error) {
	return s.load(ctx, id)
}

// ParseMois lit un mois "AAAA-MM" dans le fuseau de l'application et retourne [début, début du mois suivant)
func ParseMois(mois string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01", mois, models.Location())
	if err != nil {
		return time.Time{}, time.Time{}, invalid("mois", "format attendu AAAA-MM")
	}
	return start, start.AddDate(0, 1, 0), nil
}

// Calendrier regroupe par jour les événements qui chevauchent le mois; un événement sur plusieurs jours apparaît chaque jour
func (s *EvenementService) Calendrier(ctx context.Context, mois string, clubID *primitive.ObjectID) (*models.Calendrier, error) {
	from, to, err := ParseMois(mois)
	if err != nil {
		return nil, err
	}

	evenements, err := s.evenements.FindBetween(ctx, from, to, clubID)
	if err != nil {
		return nil, err
	}

	loc := models.Location()
	cal := &models.Calendrier{Mois: mois, Jours: map[string][]models.Evenement{}}
	for _, e := range evenements {
		debut := e.DateDebut.In(loc)
		fin := e.DateFin.In(loc)
		first := time.Date(debut.Year(), debut.Month(), debut.Day(), 0, 0, 0, 0, loc)
		day := first
		if day.Before(from) {
			day = from
		}
		placed := false
		// Le jour de début compte toujours; les suivants seulement s'ils commencent avant la fin
		for ; day.Before(to); day = day.AddDate(0, 0, 1) {
			if !day.Equal(first) && !day.Before(fin) {
				break
			}
			key := day.Format("2006-01-02")
			cal.Jours[key] = append(cal.Jours[key], e)
			placed = true
		}
		if placed {
			cal.Total++
		}
	}
	return cal, nil
}

// validateEvenement vérifie les champs communs à la création et à la modification
func (s *EvenementService) validateEvenement(req *models.EvenementRequest) error {
	req.Titre = strings.TrimSpace(req.Titre)
	req.Lieu = strings.TrimSpace(req.Lieu)
	req.Description = strings.TrimSpace(req.Description)

	if err := utils.ValidateLength("titre", req.Titre, 1, 200); err != nil {
		return err
	}
	if err := utils.ValidateLength("lieu", req.Lieu, 0, 200); err != nil {
		return err
	}
	if err := utils.ValidateLength("description", req.Description, 0, 5000); err != nil {
		return err
	}
	if req.DateDebut.IsZero() || req.DateFin.IsZero() {
		return invalid("date_debut", "les dates de début et de fin sont requises")
	}
	if !req.DateFin.After(req.DateDebut.Time) {
		return ErrInvalidDates
	}
	if req.Capacite < 0 {
		return invalid("capacite", "la capacité doit être positive (0 = illimitée)")
	}
	return nil
}

// Create crée un événement dans un club actif (président ou admin)
func (s *EvenementService) Create(ctx context.Context, req models.EvenementRequest, user *models.User) (*models.Evenement, error) {
	clubID, err := primitive.ObjectIDFromHex(req.ClubID)
	if err != nil {
		return nil, invalid("club_id", "club_id invalide")
	}
	club, err := loadManagedClub(ctx, s.clubs, clubID, user)
	if err != nil {
		return nil, err
	}
	if !club.IsActive() {
		return nil, ErrClubNotActive
	}
	if err := s.validateEvenement(&req); err != nil {
		return nil, err
	}
	if !req.DateDebut.After(s.now()) {
		return nil, invalid("date_debut", "la date de début doit être dans le futur")
	}

	e := &models.Evenement{
		ClubID:      clubID,
		Titre:       req.Titre,
		Description: req.Description,
		Lieu:        req.Lieu,
		DateDebut:   req.DateDebut.Time,
		DateFin:     req.DateFin.Time,
		Capacite:    req.Capacite,
		Statut:      models.EvenementOuvert,
	}
	if err := s.evenements.Create(ctx, e); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"evenement_id": e.ID.Hex(), "club_id": clubID.Hex()}).Info("📅 Événement créé")
	return e, nil
}

// Update remplace les informations d'un événement. La capacité ne descend pas sous le nombre d'inscrits.
func (s *EvenementService) Update(ctx context.Context, id primitive.ObjectID, req models.EvenementRequest, user *models.User) (*models.Evenement, error) {
	e, err := s.loadManaged(ctx, id, user)
	if err != nil {
		return nil, err
	}
	if err := s.validateEvenement(&req); err != nil {
		return nil, err
	}
	if req.Capacite > 0 && req.Capacite < e.Inscrits {
		return nil, invalid("capacite", "la capacité ne peut pas être inférieure au nombre d'inscrits")
	}

	statut := e.Statut
	switch req.Statut {
	case "":
	case models.EvenementAnnule, models.EvenementOuvert:
		statut = req.Statut
	default:
		return nil, invalid("statut", "valeur invalide (attendu: ouvert, annule)")
	}
	if statut == models.EvenementOuvert || statut == models.EvenementComplet {
		statut = models.EvenementOuvert
		if req.Capacite > 0 && e.Inscrits >= req.Capacite {
			statut = models.EvenementComplet
		}
	}

	fields := bson.M{
		"titre":       req.Titre,
		"description": req.Description,
		"lieu":        req.Lieu,
		"date_debut":  req.DateDebut.Time,
		"date_fin":    req.DateFin.Time,
		"capacite":    req.Capacite,
		"statut":      statut,
	}
	if !req.DateDebut.Equal(e.DateDebut) {
		fields["rappel_envoye"] = false
	}
	if err := s.evenements.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// SetImage enregistre l'URL de l'affiche
func (s *EvenementService) SetImage(ctx context.Context, id primitive.ObjectID, url string, user *models.User) (*models.Evenement, error) {
	if _, err := s.loadManaged(ctx, id, user); err != nil {
		return nil, err
	}
	if err := s.evenements.UpdateFields(ctx, id, bson.M{"image_url": url}); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Delete supprime un événement et ses inscriptions
func (s *EvenementService) Delete(ctx context.Context, id primitive.ObjectID, user *models.User) error {
	if _, err := s.loadManaged(ctx, id, user); err != nil {
		return err
	}
	return s.deleteCascade(ctx, id)
}

func (s *EvenementService) deleteCascade(ctx context.Context, id primitive.ObjectID) error {
	if err := s.inscriptions.DeleteByEvent(ctx, id); err != nil {
		return err
	}
	return s.evenements.Delete(ctx, id)
}

// DeleteByClub supprime tous les événements d'un club
func (s *EvenementService) DeleteByClub(ctx context.Context, clubID primitive.ObjectID) error {
	ids, err := s.evenements.FindIDsByClub(ctx, clubID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.deleteCascade(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Register inscrit l'utilisateur. La place est réservée par un incrément conditionnel avant l'insertion.
func (s *EvenementService) Register(ctx context.Context, evenementID primitive.ObjectID, user *models.User) (*models.Inscription, error) {
	if _, err := s.load(ctx, evenementID); err != nil {
		return nil, err
	}

	existing, err := s.inscriptions.FindByEventAndUser(ctx, evenementID, user.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyRegistered
	}

	reserved, err := s.evenements.ReservePlace(ctx, evenementID, s.now())
	if err != nil {
		return nil, err
	}
	if !reserved {
		return nil, s.reservationRefusal(ctx, evenementID)
	}

	inscription := &models.Inscription{EvenementID: evenementID, UserID: user.ID}
	if err := s.inscriptions.Create(ctx, inscription); err != nil {
		if relErr := s.evenements.ReleasePlace(ctx, evenementID); relErr != nil {
			log.WithError(relErr).Error("❌ Place réservée non libérée")
		}
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrAlreadyRegistered
		}
		return nil, err
	}

	metrics.Registrations.WithLabelValues("inscription").Inc()
	publishEvent(s.publisher, DomainEvent{
		Type:    EventInscription,
		Key:     evenementID.Hex(),
		Payload: map[string]interface{}{"user_id": user.ID.Hex()},
	})
	return inscription, nil
}

// reservationRefusal explique pourquoi ReservePlace n'a rien réservé
func (s *EvenementService) reservationRefusal(ctx context.Context, id primitive.ObjectID) error {
	e, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if e.Statut == models.EvenementComplet || (!e.IsUnlimited() && e.Inscrits >= e.Capacite) {
		return ErrEventFull
	}
	return ErrEventNotOpen
}

// Unregister annule l'inscription et libère la place
func (s *EvenementService) Unregister(ctx context.Context, evenementID primitive.ObjectID, user *models.User) error {
	e, err := s.load(ctx, evenementID)
	if err != nil {
		return err
	}
	if e.Statut == models.EvenementTermine {
		return ErrEventNotOpen
	}

	deleted, err := s.inscriptions.Delete(ctx, evenementID, user.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotRegistered
	}
	return s.evenements.ReleasePlace(ctx, evenementID)
}

// MyEvents retourne les événements auxquels l'utilisateur est inscrit
func (s *EvenementService) MyEvents(ctx context.Context, user *models.User) ([]models.MesEvenement, error) {
	inscriptions, err := s.inscriptions.FindByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if len(inscriptions) == 0 {
		return []models.MesEvenement{}, nil
	}

	ids := make([]primitive.ObjectID, 0, len(inscriptions))
	inscritLe := make(map[primitive.ObjectID]time.Time, len(inscriptions))
	for _, i := range inscriptions {
		ids = append(ids, i.EvenementID)
		inscritLe[i.EvenementID] = i.CreatedAt
	}

	evenements, err := s.evenements.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.MesEvenement, 0, len(evenements))
	for _, e := range evenements {
		out = append(out, models.MesEvenement{Evenement: e, InscritLe: inscritLe[e.ID]})
	}
	return out, nil
}

// Registrants liste les inscrits d'un événement (président ou admin)
func (s *EvenementService) Registrants(ctx context.Context, evenementID primitive.ObjectID, user *models.User) ([]models.InscriptionWithUser, error) {
	if _, err := s.loadManaged(ctx, evenementID, user); err != nil {
		return nil, err
	}
	return s.inscriptions.ListByEvent(ctx, evenementID)
}

// SendReminders prévient par email et push les inscrits des événements qui commencent dans moins de 24 h.
// Chaque événement n'est traité qu'une fois, même si plusieurs instances tournent.
func (s *EvenementService) SendReminders(ctx context.Context) (int, error) {
	now := s.now()
	evenements, err := s.evenements.FindForReminder(ctx, now, now.Add(ReminderWindow))
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, e := range evenements {
		claimed, err := s.evenements.MarkReminderSent(ctx, e.ID)
		if err != nil {
			return sent, err
		}
		if !claimed {
			continue
		}

		userIDs, err := s.inscriptions.UserIDsByEvent(ctx, e.ID)
		if err != nil {
			return sent, err
		}
		if len(userIDs) == 0 {
			continue
		}

		users, err := s.users.FindByIDs(ctx, userIDs)
		if err != nil {
			return sent, err
		}
		debut := e.DateDebut.In(models.Location())
		for _, u := range users {
			subject, body := reminderMail(u.Prenom, e.Titre, e.Lieu, debut)
			sendAsync(s.mailer, u.Email, subject, body)
		}
		if s.notifier != nil {
			s.notifier.NotifyUsers(ctx, userIDs, "⏰ "+e.Titre, "Rendez-vous le "+debut.Format("02/01 à 15:04"), map[string]string{
				"action":       "rappel_evenement",
				"evenement_id": e.ID.Hex(),
				"url":          "/evenements/" + e.ID.Hex(),
			})
		}

		log.WithFields(log.Fields{"evenement_id": e.ID.Hex(), "inscrits": len(userIDs)}).Info("⏰ Rappel envoyé")
		sent++
	}
	return sent, nil
}

// MarkFinished passe les événements échus à l'état terminé
func (s *EvenementService) MarkFinished(ctx context.Context) (int64, error) {
	return s.evenements.MarkFinished(ctx, s.now())
}
