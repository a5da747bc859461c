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

// Les fakes embarquent l'interface: une méthode non implémentée panique si un test l'appelle.

type fakeSondages struct {
	SondageStore
	mu       sync.Mutex
	sondages map[primitive.ObjectID]*models.Sondage
	resumes  map[primitive.ObjectID]string
}

func newFakeSondages(list ...*models.Sondage) *fakeSondages {
	f := &fakeSondages{sondages: map[primitive.ObjectID]*models.Sondage{}, resumes: map[primitive.ObjectID]string{}}
	for _, s := range list {
		f.sondages[s.ID] = s
	}
	return f
}

func (f *fakeSondages) Create(_ context.Context, s *models.Sondage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = primitive.NewObjectID()
	for i := range s.Choix {
		s.Choix[i].ID = primitive.NewObjectID()
	}
	s.CreatedAt = time.Now()
	f.sondages[s.ID] = s
	return nil
}

func (f *fakeSondages) FindByID(_ context.Context, id primitive.ObjectID) (*models.Sondage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sondages[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSondages) UpdateFields(_ context.Context, id primitive.ObjectID, fields bson.M) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.sondages[id]
	if s == nil {
		return nil
	}
	if v, ok := fields["question"].(string); ok {
		s.Question = v
	}
	if v, ok := fields["choix"].([]models.ChoixSondage); ok {
		s.Choix = v
	}
	if v, ok := fields["statut"].(string); ok {
		s.Statut = v
	}
	return nil
}

func (f *fakeSondages) Close(_ context.Context, id primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.sondages[id]
	if s == nil || s.Statut != models.SondageOuvert {
		return false, nil
	}
	s.Statut = models.SondageFerme
	return true, nil
}

func (f *fakeSondages) FindExpired(_ context.Context, now time.Time) ([]models.Sondage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Sondage
	for _, s := range f.sondages {
		if s.Statut == models.SondageOuvert && s.DateFin != nil && !s.DateFin.After(now) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSondages) ClearResume(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.resumes, id)
	if s := f.sondages[id]; s != nil {
		s.ResumeIA = ""
		s.ResumeIAAt = nil
	}
	return nil
}

func (f *fakeSondages) SetResume(_ context.Context, id primitive.ObjectID, resume string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumes[id] = resume
	if s := f.sondages[id]; s != nil {
		s.ResumeIA = resume
		s.ResumeIAAt = &at
	}
	return nil
}

func (f *fakeSondages) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sondages, id)
	return nil
}

type voteKey struct{ sondage, user primitive.ObjectID }

type fakeReponses struct {
	ReponseStore
	mu       sync.Mutex
	votes    map[voteKey]models.Reponse
	tallyErr error
	// deleteErr fait échouer le prochain DeleteByUser, une seule fois
	deleteErr error
}

func newFakeReponses() *fakeReponses {
	return &fakeReponses{votes: map[voteKey]models.Reponse{}}
}

func (f *fakeReponses) Insert(_ context.Context, rep *models.Reponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := voteKey{rep.SondageID, rep.UserID}
	if _, ok := f.votes[k]; ok {
		return database.ErrDuplicate
	}
	rep.ID = primitive.NewObjectID()
	f.votes[k] = *rep
	return nil
}

func (f *fakeReponses) Find(_ context.Context, sondageID, userID primitive.ObjectID) (*models.Reponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rep, ok := f.votes[voteKey{sondageID, userID}]
	if !ok {
		return nil, nil
	}
	return &rep, nil
}

func (f *fakeReponses) ChangeChoix(_ context.Context, sondageID, userID, from, to primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := voteKey{sondageID, userID}
	rep, ok := f.votes[k]
	if !ok || rep.ChoixID != from {
		return false, nil
	}
	rep.ChoixID = to
	f.votes[k] = rep
	return true, nil
}

func (f *fakeReponses) Delete(_ context.Context, sondageID, userID primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := voteKey{sondageID, userID}
	if _, ok := f.votes[k]; !ok {
		return false, nil
	}
	delete(f.votes, k)
	return true, nil
}

func (f *fakeReponses) Tally(_ context.Context, sondageID primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tallyErr != nil {
		return nil, f.tallyErr
	}
	counts := map[primitive.ObjectID]int{}
	for k, rep := range f.votes {
		if k.sondage == sondageID {
			counts[rep.ChoixID]++
		}
	}
	return counts, nil
}

func (f *fakeReponses) CountBySondage(_ context.Context, sondageID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k := range f.votes {
		if k.sondage == sondageID {
			n++
		}
	}
	return n, nil
}

func (f *fakeReponses) DeleteBySondage(_ context.Context, sondageID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.votes {
		if k.sondage == sondageID {
			delete(f.votes, k)
		}
	}
	return nil
}

type fakeBroadcaster struct {
	mu           sync.Mutex
	resultats    []models.ResultatsSondage
	commentaires []models.CommentaireWithAuteur
}

func (f *fakeBroadcaster) BroadcastResultats(_ primitive.ObjectID, r models.ResultatsSondage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resultats = append(f.resultats, r)
}

func (f *fakeBroadcaster) BroadcastCommentaire(_ primitive.ObjectID, c models.CommentaireWithAuteur) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commentaires = append(f.commentaires, c)
}

func (f *fakeBroadcaster) countResultats() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.resultats)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []DomainEvent
}

func (f *fakePublisher) Publish(_ context.Context, e DomainEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

func (f *fakePublisher) has(eventType string) bool {
	for _, t := range f.types() {
		if t == eventType {
			return true
		}
	}
	return false
}

func newSondage(choix ...string) *models.Sondage {
	s := &models.Sondage{
		ID:       primitive.NewObjectID(),
		ClubID:   primitive.NewObjectID(),
		Question: "Quelle sortie ?",
		Statut:   models.SondageOuvert,
	}
	for _, c := range choix {
		s.Choix = append(s.Choix, models.ChoixSondage{ID: primitive.NewObjectID(), Libelle: c})
	}
	return s
}

type fakeUsers struct {
	UserStore
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUsers(list ...*models.User) *fakeUsers {
	f := &fakeUsers{users: map[primitive.ObjectID]*models.User{}}
	for _, u := range list {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return database.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsers) UpdateFields(_ context.Context, id primitive.ObjectID, fields bson.M) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[id]
	if u == nil {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "nom":
			u.Nom = v.(string)
		case "prenom":
			u.Prenom = v.(string)
		case "telephone":
			u.Telephone = v.(string)
		case "role":
			u.Role = v.(string)
		case "statut":
			u.Statut = v.(string)
		case "password":
			u.Password = v.(string)
		case "avertissements":
			u.Avertissements = v.(int)
		case "photo_url":
			u.PhotoURL = v.(string)
		}
	}
	return nil
}

func (f *fakeUsers) UpdateLastLogin(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u := f.users[id]; u != nil {
		now := time.Now()
		u.LastLogin = &now
	}
	return nil
}

func (f *fakeUsers) AddAvertissement(_ context.Context, id primitive.ObjectID, max int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[id]
	if u == nil {
		return nil, nil
	}
	u.Avertissements++
	if u.Avertissements >= max {
		u.Statut = models.UserBloque
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	return nil
}

func newUser(role string) *models.User {
	return &models.User{
		ID:     primitive.NewObjectID(),
		Nom:    "Ben Ali",
		Prenom: "Sami",
		Email:  primitive.NewObjectID().Hex() + "@univ.tn",
		Role:   role,
		Statut: models.UserActif,
	}
}

type fakeCommentaires struct {
	CommentaireStore
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.Commentaire
}

func newFakeCommentaires() *fakeCommentaires {
	return &fakeCommentaires{items: map[primitive.ObjectID]*models.Commentaire{}}
}

func (f *fakeCommentaires) Create(_ context.Context, c *models.Commentaire) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	if c.Signalements == nil {
		c.Signalements = []primitive.ObjectID{}
	}
	cp := *c
	f.items[c.ID] = &cp
	return nil
}

func (f *fakeCommentaires) FindByID(_ context.Context, id primitive.ObjectID) (*models.Commentaire, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCommentaires) List(_ context.Context, filter models.CommentaireFilter) ([]models.CommentaireWithAuteur, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CommentaireWithAuteur
	for _, c := range f.items {
		if filter.SondageID != nil && c.SondageID != *filter.SondageID {
			continue
		}
		if c.Masque && !filter.InclureMasque {
			continue
		}
		if filter.SignalesSeuls && !c.Masque && len(c.Signalements) == 0 {
			continue
		}
		out = append(out, models.CommentaireWithAuteur{Commentaire: *c, NombreSignalements: len(c.Signalements)})
	}
	return out, int64(len(out)), nil
}

func (f *fakeCommentaires) ListVisibles(_ context.Context, sondageID primitive.ObjectID) ([]models.Commentaire, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Commentaire
	for _, c := range f.items {
		if c.SondageID == sondageID && !c.Masque {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeCommentaires) LatestActivity(_ context.Context, sondageID primitive.ObjectID) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *time.Time
	for _, c := range f.items {
		if c.SondageID != sondageID || c.Masque {
			continue
		}
		t := c.UpdatedAt
		if latest == nil || t.After(*latest) {
			latest = &t
		}
	}
	return latest, nil
}

func (f *fakeCommentaires) UpdateContenu(_ context.Context, id primitive.ObjectID, contenu string, score float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c := f.items[id]; c != nil {
		c.Contenu = contenu
		c.ScoreToxicite = score
		c.UpdatedAt = time.Now()
	}
	return nil
}

func (f *fakeCommentaires) AddSignalement(_ context.Context, id, userID primitive.ObjectID, seuil int) (*models.Commentaire, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.items[id]
	if c == nil {
		return nil, nil
	}
	for _, s := range c.Signalements {
		if s == userID {
			return nil, nil
		}
	}
	c.Signalements = append(c.Signalements, userID)
	c.Masque = c.Masque || len(c.Signalements) >= seuil
	cp := *c
	return &cp, nil
}

func (f *fakeCommentaires) Restore(_ context.Context, id primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.items[id]
	if c == nil {
		return false, nil
	}
	c.Masque = false
	c.Signalements = []primitive.ObjectID{}
	return true, nil
}

func (f *fakeCommentaires) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

func (f *fakeCommentaires) DeleteBySondage(_ context.Context, sondageID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.items {
		if c.SondageID == sondageID {
			delete(f.items, id)
		}
	}
	return nil
}

type fakeClubs struct {
	ClubStore
	mu    sync.Mutex
	clubs map[primitive.ObjectID]*models.Club
}

func newFakeClubs(list ...*models.Club) *fakeClubs {
	f := &fakeClubs{clubs: map[primitive.ObjectID]*models.Club{}}
	for _, c := range list {
		f.clubs[c.ID] = c
	}
	return f
}

func (f *fakeClubs) Create(_ context.Context, c *models.Club) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.clubs {
		if existing.Nom == c.Nom {
			return database.ErrDuplicate
		}
	}
	c.ID = primitive.NewObjectID()
	cp := *c
	f.clubs[c.ID] = &cp
	return nil
}

func (f *fakeClubs) FindByID(_ context.Context, id primitive.ObjectID) (*models.Club, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clubs[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeClubs) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Club, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Club
	for _, id := range ids {
		if c, ok := f.clubs[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeClubs) UpdateFields(_ context.Context, id primitive.ObjectID, fields bson.M) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.clubs[id]
	if c == nil {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "nom":
			c.Nom = v.(string)
		case "description":
			c.Description = v.(string)
		case "categorie":
			c.Categorie = v.(string)
		case "statut":
			c.Statut = v.(string)
		case "logo_url":
			c.LogoURL = v.(string)
		}
	}
	return nil
}

func (f *fakeClubs) IncrementMembres(_ context.Context, id primitive.ObjectID, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c := f.clubs[id]; c != nil {
		c.NombreMembres += delta
		if c.NombreMembres < 0 {
			c.NombreMembres = 0
		}
	}
	return nil
}

func (f *fakeClubs) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.clubs, id)
	return nil
}

func newClub(president primitive.ObjectID) *models.Club {
	return &models.Club{
		ID:          primitive.NewObjectID(),
		Nom:         "Club Robotique " + primitive.NewObjectID().Hex()[18:],
		Categorie:   "science",
		PresidentID: president,
		Statut:      models.ClubActif,
	}
}

// fixedChecker renvoie toujours le même verdict
type fixedChecker struct {
	verdict models.Verdict
	err     error
}

func (c fixedChecker) Check(context.Context, string) (models.Verdict, error) {
	return c.verdict, c.err
}

func (f *fakeCommentaires) Count(_ context.Context, filter bson.M) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, c := range f.items {
		if id, ok := filter["sondage_id"].(primitive.ObjectID); ok && c.SondageID != id {
			continue
		}
		if m, ok := filter["masque"].(bool); ok && c.Masque != m {
			continue
		}
		n++
	}
	return n, nil
}
