package services

import (
	"context"
	"espace-clubs-backend/database"
	"espace-clubs-backend/models"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeParticipations struct {
	ParticipationStore
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.ParticipationMembre
	// afterFind s'exécute après la lecture, hors verrou
	afterFind func()
}

func newFakeParticipations() *fakeParticipations {
	return &fakeParticipations{items: map[primitive.ObjectID]*models.ParticipationMembre{}}
}

func (f *fakeParticipations) Create(_ context.Context, p *models.ParticipationMembre) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.ClubID == p.ClubID && existing.UserID == p.UserID {
			return database.ErrDuplicate
		}
	}
	p.ID = primitive.NewObjectID()
	cp := *p
	f.items[p.ID] = &cp
	return nil
}

func (f *fakeParticipations) FindByID(_ context.Context, id primitive.ObjectID) (*models.ParticipationMembre, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeParticipations) FindByClubAndUser(_ context.Context, clubID, userID primitive.ObjectID) (*models.ParticipationMembre, error) {
	var found *models.ParticipationMembre
	f.mu.Lock()
	for _, p := range f.items {
		if p.ClubID == clubID && p.UserID == userID {
			cp := *p
			found = &cp
			break
		}
	}
	hook := f.afterFind
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return found, nil
}

func (f *fakeParticipations) ListByClub(_ context.Context, clubID primitive.ObjectID, statut string) ([]models.ParticipationWithUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.ParticipationWithUser{}
	for _, p := range f.items {
		if p.ClubID == clubID && (statut == "" || p.Statut == statut) {
			out = append(out, models.ParticipationWithUser{ParticipationMembre: *p})
		}
	}
	return out, nil
}

func (f *fakeParticipations) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.ParticipationMembre, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.ParticipationMembre{}
	for _, p := range f.items {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeParticipations) AcceptedUserIDs(_ context.Context, clubID primitive.ObjectID) ([]primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []primitive.ObjectID
	for _, p := range f.items {
		if p.ClubID == clubID && p.Statut == models.ParticipationAccepte {
			out = append(out, p.UserID)
		}
	}
	return out, nil
}

func (f *fakeParticipations) Decide(_ context.Context, id primitive.ObjectID, statut string) (*models.ParticipationMembre, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.items[id]
	if p == nil || p.Statut != models.ParticipationEnAttente {
		return nil, nil
	}
	now := time.Now()
	p.Statut = statut
	p.DateDecision = &now
	cp := *p
	return &cp, nil
}

func (f *fakeParticipations) Delete(_ context.Context, id, clubID, userID primitive.ObjectID) (*models.ParticipationMembre, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok || p.ClubID != clubID || p.UserID != userID {
		return nil, nil
	}
	delete(f.items, id)
	return p, nil
}

func (f *fakeParticipations) DeleteByClub(_ context.Context, clubID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, p := range f.items {
		if p.ClubID == clubID {
			delete(f.items, id)
		}
	}
	return nil
}

type fakeEvenements struct {
	EvenementStore
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.Evenement
}

func newFakeEvenements(list ...*models.Evenement) *fakeEvenements {
	f := &fakeEvenements{items: map[primitive.ObjectID]*models.Evenement{}}
	for _, e := range list {
		f.items[e.ID] = e
	}
	return f
}

func (f *fakeEvenements) Create(_ context.Context, e *models.Evenement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = primitive.NewObjectID()
	cp := *e
	f.items[e.ID] = &cp
	return nil
}

func (f *fakeEvenements) FindByID(_ context.Context, id primitive.ObjectID) (*models.Evenement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEvenements) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Evenement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Evenement{}
	for _, id := range ids {
		if e, ok := f.items[id]; ok {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEvenements) sorted(keep func(*models.Evenement) bool) []models.Evenement {
	out := []models.Evenement{}
	for _, e := range f.items {
		if keep(e) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateDebut.Before(out[j].DateDebut) })
	return out
}

func (f *fakeEvenements) List(_ context.Context, filter models.EvenementFilter) ([]models.Evenement, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.sorted(func(e *models.Evenement) bool {
		if filter.ClubID != nil && e.ClubID != *filter.ClubID {
			return false
		}
		if filter.APartir != nil && e.DateFin.Before(*filter.APartir) {
			return false
		}
		return filter.Statut == "" || e.Statut == filter.Statut
	})
	return out, int64(len(out)), nil
}

func (f *fakeEvenements) FindBetween(_ context.Context, from, to time.Time, clubID *primitive.ObjectID) ([]models.Evenement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(e *models.Evenement) bool {
		if clubID != nil && e.ClubID != *clubID {
			return false
		}
		return e.DateDebut.Before(to) && !e.DateFin.Before(from) && e.Statut != models.EvenementAnnule
	}), nil
}

func (f *fakeEvenements) FindForReminder(_ context.Context, from, to time.Time) ([]models.Evenement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(e *models.Evenement) bool {
		return !e.DateDebut.Before(from) && e.DateDebut.Before(to) && !e.RappelEnvoye &&
			(e.Statut == models.EvenementOuvert || e.Statut == models.EvenementComplet)
	}), nil
}

func (f *fakeEvenements) UpdateFields(_ context.Context, id primitive.ObjectID, fields bson.M) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.items[id]
	if e == nil {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "titre":
			e.Titre = v.(string)
		case "description":
			e.Description = v.(string)
		case "lieu":
			e.Lieu = v.(string)
		case "date_debut":
			e.DateDebut = v.(time.Time)
		case "date_fin":
			e.DateFin = v.(time.Time)
		case "capacite":
			e.Capacite = v.(int)
		case "statut":
			e.Statut = v.(string)
		case "rappel_envoye":
			e.RappelEnvoye = v.(bool)
		case "image_url":
			e.ImageURL = v.(string)
		}
	}
	return nil
}

func (f *fakeEvenements) ReservePlace(_ context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.items[id]
	if e == nil || e.Statut != models.EvenementOuvert || !e.DateDebut.After(now) {
		return false, nil
	}
	if e.Capacite > 0 && e.Inscrits >= e.Capacite {
		return false, nil
	}
	e.Inscrits++
	if e.Capacite > 0 && e.Inscrits >= e.Capacite {
		e.Statut = models.EvenementComplet
	}
	return true, nil
}

func (f *fakeEvenements) ReleasePlace(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.items[id]
	if e == nil || e.Inscrits == 0 {
		return nil
	}
	e.Inscrits--
	if e.Statut == models.EvenementComplet {
		e.Statut = models.EvenementOuvert
	}
	return nil
}

func (f *fakeEvenements) MarkReminderSent(_ context.Context, id primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.items[id]
	if e == nil || e.RappelEnvoye {
		return false, nil
	}
	e.RappelEnvoye = true
	return true, nil
}

func (f *fakeEvenements) MarkFinished(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, e := range f.items {
		if e.DateFin.Before(now) && (e.Statut == models.EvenementOuvert || e.Statut == models.EvenementComplet) {
			e.Statut = models.EvenementTermine
			n++
		}
	}
	return n, nil
}

func (f *fakeEvenements) FindIDsByClub(_ context.Context, clubID primitive.ObjectID) ([]primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []primitive.ObjectID
	for id, e := range f.items {
		if e.ClubID == clubID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeEvenements) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

type fakeInscriptions struct {
	InscriptionStore
	mu    sync.Mutex
	items []models.Inscription
}

func (f *fakeInscriptions) Create(_ context.Context, i *models.Inscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.EvenementID == i.EvenementID && existing.UserID == i.UserID {
			return database.ErrDuplicate
		}
	}
	i.ID = primitive.NewObjectID()
	i.CreatedAt = time.Now()
	f.items = append(f.items, *i)
	return nil
}

func (f *fakeInscriptions) FindByEventAndUser(_ context.Context, evenementID, userID primitive.ObjectID) (*models.Inscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, i := range f.items {
		if i.EvenementID == evenementID && i.UserID == userID {
			cp := i
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeInscriptions) Delete(_ context.Context, evenementID, userID primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for idx, i := range f.items {
		if i.EvenementID == evenementID && i.UserID == userID {
			f.items = append(f.items[:idx], f.items[idx+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInscriptions) ListByEvent(_ context.Context, evenementID primitive.ObjectID) ([]models.InscriptionWithUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.InscriptionWithUser{}
	for _, i := range f.items {
		if i.EvenementID == evenementID {
			out = append(out, models.InscriptionWithUser{Inscription: i})
		}
	}
	return out, nil
}

func (f *fakeInscriptions) FindByUser(_ context.Context, userID primitive.ObjectID) ([]models.Inscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Inscription{}
	for _, i := range f.items {
		if i.UserID == userID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (f *fakeInscriptions) UserIDsByEvent(_ context.Context, evenementID primitive.ObjectID) ([]primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []primitive.ObjectID
	for _, i := range f.items {
		if i.EvenementID == evenementID {
			out = append(out, i.UserID)
		}
	}
	return out, nil
}

func (f *fakeInscriptions) DeleteByEvent(_ context.Context, evenementID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.items[:0]
	for _, i := range f.items {
		if i.EvenementID != evenementID {
			kept = append(kept, i)
		}
	}
	f.items = kept
	return nil
}

func (f *fakeInscriptions) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

type fakeTokens struct {
	FCMTokenStore
	mu      sync.Mutex
	tokens  map[string]models.FCMToken
	deleted []string
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{tokens: map[string]models.FCMToken{}}
}

func (f *fakeTokens) Upsert(_ context.Context, t *models.FCMToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[t.Token] = *t
	return nil
}

func (f *fakeTokens) FindByUserIDs(_ context.Context, userIDs []primitive.ObjectID) ([]models.FCMToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := map[primitive.ObjectID]bool{}
	for _, id := range userIDs {
		wanted[id] = true
	}
	var out []models.FCMToken
	for _, t := range f.tokens {
		if wanted[t.UserID] {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out, nil
}

func (f *fakeTokens) Delete(_ context.Context, userID primitive.ObjectID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tokens[token]; ok && t.UserID == userID {
		delete(f.tokens, token)
	}
	return nil
}

func (f *fakeTokens) DeleteTokens(_ context.Context, tokens []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range tokens {
		delete(f.tokens, t)
		f.deleted = append(f.deleted, t)
	}
	return nil
}

func (f *fakeTokens) DeleteByUserID(_ context.Context, userID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, t := range f.tokens {
		if t.UserID == userID {
			delete(f.tokens, k)
		}
	}
	return nil
}

type fakeSaisons struct {
	SaisonStore
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.Saison
}

func newFakeSaisons() *fakeSaisons {
	return &fakeSaisons{items: map[primitive.ObjectID]*models.Saison{}}
}

func (f *fakeSaisons) Create(_ context.Context, s *models.Saison) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = primitive.NewObjectID()
	cp := *s
	f.items[s.ID] = &cp
	return nil
}

func (f *fakeSaisons) FindByID(_ context.Context, id primitive.ObjectID) (*models.Saison, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSaisons) FindAll(_ context.Context) ([]models.Saison, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Saison{}
	for _, s := range f.items {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateDebut.After(out[j].DateDebut) })
	return out, nil
}

func (f *fakeSaisons) Update(_ context.Context, s *models.Saison) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.items[s.ID] = &cp
	return nil
}

func (f *fakeSaisons) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

type fakeCompetitions struct {
	CompetitionStore
	mu        sync.Mutex
	items     map[primitive.ObjectID]*models.Competition
	resultats []models.CompetitionResultat
	clubs     *fakeClubs
}

func newFakeCompetitions(clubs *fakeClubs) *fakeCompetitions {
	return &fakeCompetitions{items: map[primitive.ObjectID]*models.Competition{}, clubs: clubs}
}

func (f *fakeCompetitions) Create(_ context.Context, c *models.Competition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = primitive.NewObjectID()
	cp := *c
	f.items[c.ID] = &cp
	return nil
}

func (f *fakeCompetitions) FindByID(_ context.Context, id primitive.ObjectID) (*models.Competition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCompetitions) List(_ context.Context, filter models.CompetitionFilter) ([]models.Competition, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Competition{}
	for _, c := range f.items {
		if filter.SaisonID != nil && c.SaisonID != *filter.SaisonID {
			continue
		}
		if filter.Statut != "" && c.Statut != filter.Statut {
			continue
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (f *fakeCompetitions) Update(_ context.Context, c *models.Competition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.items[c.ID] = &cp
	return nil
}

func (f *fakeCompetitions) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

func (f *fakeCompetitions) DeleteBySaison(_ context.Context, saisonID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.items {
		if c.SaisonID == saisonID {
			delete(f.items, id)
		}
	}
	return nil
}

func (f *fakeCompetitions) AddResultat(_ context.Context, r *models.CompetitionResultat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.resultats {
		if existing.CompetitionID == r.CompetitionID && existing.ClubID == r.ClubID {
			return database.ErrDuplicate
		}
	}
	r.ID = primitive.NewObjectID()
	f.resultats = append(f.resultats, *r)
	return nil
}

func (f *fakeCompetitions) Classement(ctx context.Context, saisonID primitive.ObjectID) ([]models.ClassementEntry, error) {
	f.mu.Lock()
	points := map[primitive.ObjectID]int{}
	for _, r := range f.resultats {
		if r.SaisonID == saisonID {
			points[r.ClubID] += r.Points
		}
	}
	f.mu.Unlock()

	out := []models.ClassementEntry{}
	for clubID, p := range points {
		club, _ := f.clubs.FindByID(ctx, clubID)
		out = append(out, models.ClassementEntry{ClubID: clubID, ClubNom: club.Nom, Points: p})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].ClubNom < out[j].ClubNom
	})
	return out, nil
}

// stubNotifier enregistre les destinataires des notifications push
type stubNotifier struct {
	mu    sync.Mutex
	calls [][]primitive.ObjectID
}

func (n *stubNotifier) NotifyUsers(_ context.Context, ids []primitive.ObjectID, _, _ string, _ map[string]string) (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, ids)
	return len(ids), 0
}

func (n *stubNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

func (f *fakeSondages) FindIDsByClub(_ context.Context, clubID primitive.ObjectID) ([]primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []primitive.ObjectID
	for id, s := range f.sondages {
		if s.ClubID == clubID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (n *stubNotifier) last() []primitive.ObjectID {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.calls) == 0 {
		return nil
	}
	return n.calls[len(n.calls)-1]
}

func (f *fakeReponses) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deleteErr; err != nil {
		f.deleteErr = nil
		return err
	}
	for k := range f.votes {
		if k.user == userID {
			delete(f.votes, k)
		}
	}
	return nil
}

func (f *fakeCommentaires) DeleteByUser(_ context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[primitive.ObjectID]bool{}
	var sondages []primitive.ObjectID
	for id, c := range f.items {
		if c.UserID == userID {
			if !seen[c.SondageID] {
				seen[c.SondageID] = true
				sondages = append(sondages, c.SondageID)
			}
			delete(f.items, id)
		}
	}
	return sondages, nil
}
