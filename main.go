package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"espace-clubs-backend/config"
	"espace-clubs-backend/database"
	"espace-clubs-backend/handlers"
	"espace-clubs-backend/metrics"
	"espace-clubs-backend/middleware"
	"espace-clubs-backend/models"
	"espace-clubs-backend/services"
	"espace-clubs-backend/websocket"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// setupLogger configure logrus: JSON en production, texte sinon
func setupLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func main() {
	// Charger la configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Erreur lors du chargement de la configuration: %v", err)
	}
	setupLogger(cfg)

	if err := models.SetLocation(cfg.Timezone); err != nil {
		log.Warnf("⚠️  %v - fuseau par défaut conservé", err)
	}

	// Connexion à MongoDB
	if err := database.Connect(cfg.MongoURI, cfg.MongoDB); err != nil {
		log.Fatalf("❌ Erreur de connexion à MongoDB: %v", err)
	}
	defer database.Close()

	// Repositories
	userRepo := database.NewUserRepository(database.DB)
	clubRepo := database.NewClubRepository(database.DB)
	participationRepo := database.NewParticipationRepository(database.DB)
	saisonRepo := database.NewSaisonRepository(database.DB)
	competitionRepo := database.NewCompetitionRepository(database.DB)
	sondageRepo := database.NewSondageRepository(database.DB)
	reponseRepo := database.NewReponseRepository(database.DB)
	commentaireRepo := database.NewCommentaireRepository(database.DB)
	evenementRepo := database.NewEvenementRepository(database.DB)
	inscriptionRepo := database.NewInscriptionRepository(database.DB)
	fcmTokenRepo := database.NewFCMTokenRepository(database.DB)

	// Intégrations externes
	publisher := services.NewEventPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer publisher.Close()

	mailer := services.NewMailService(services.MailConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	// Firebase Cloud Messaging (optionnel)
	fcmService, err := services.NewFCMService(context.Background(), cfg.FirebaseCredentialsFile)
	if err != nil {
		log.Printf("⚠️  Erreur d'initialisation Firebase: %v", err)
		log.Println("⚠️  Le serveur démarre SANS notifications push")
		fcmService = services.NewDisabledFCMService()
	}
	notifier := services.NewPushNotifier(fcmTokenRepo, fcmService)

	storage, err := services.NewImageStorage(cfg.UploadDir, cfg.MaxUploadMB)
	if err != nil {
		log.Fatalf("❌ Stockage des images indisponible: %v", err)
	}

	slackService := services.NewSlackService(cfg.SlackWebhookURL)
	checker := services.NewToxicityChecker(cfg.ModerationAPIURL, cfg.ModerationAPIKey, cfg.ToxicityThreshold)
	summarizer := services.NewAISummarizer(cfg.AIAPIURL, cfg.AIAPIKey, cfg.AIModel)

	// Hub WebSocket des sondages
	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.Println("✅ Hub WebSocket initialisé et en cours d'exécution")

	// Services métier
	sondageService := services.NewSondageService(services.SondageServiceDeps{
		Sondages:       sondageRepo,
		Reponses:       reponseRepo,
		Commentaires:   commentaireRepo,
		Clubs:          clubRepo,
		Participations: participationRepo,
		Notifier:       notifier,
		Broadcaster:    wsHub,
		Publisher:      publisher,
	})
	evenementService := services.NewEvenementService(services.EvenementServiceDeps{
		Evenements:   evenementRepo,
		Inscriptions: inscriptionRepo,
		Clubs:        clubRepo,
		Users:        userRepo,
		Mailer:       mailer,
		Notifier:     notifier,
		Publisher:    publisher,
	})
	clubService := services.NewClubService(clubRepo, participationRepo, userRepo, sondageService, evenementService, mailer)
	userService := services.NewUserService(services.UserServiceDeps{
		Users:          userRepo,
		Clubs:          clubRepo,
		Participations: participationRepo,
		Reponses:       reponseRepo,
		Commentaires:   commentaireRepo,
		Sondages:       sondageRepo,
		Evenements:     evenementRepo,
		Inscriptions:   inscriptionRepo,
		Tokens:         fcmTokenRepo,
		Mailer:         mailer,
		JWTSecret:      cfg.JWTSecret,
	})
	saisonService := services.NewSaisonService(saisonRepo, competitionRepo, clubRepo)
	voteService := services.NewVoteService(sondageRepo, reponseRepo, wsHub, publisher)
	commentaireService := services.NewCommentaireService(commentaireRepo, sondageRepo, clubRepo, userRepo, checker, wsHub, publisher)
	resumeService := services.NewResumeService(sondageRepo, commentaireRepo, summarizer)
	statsService := services.NewStatsService(userRepo, clubRepo, sondageRepo, reponseRepo, commentaireRepo, evenementRepo, inscriptionRepo)

	// Tâches planifiées
	scheduler := services.NewScheduler(sondageService, evenementService)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("❌ Erreur de démarrage du planificateur: %v", err)
	}

	// Handlers
	healthHandler := handlers.NewHealthHandler(cfg.Environment, database.Ping)
	authHandler := handlers.NewAuthHandler(userService)
	profileHandler := handlers.NewProfileHandler(userService, clubService, evenementService, storage)
	adminHandler := handlers.NewAdminHandler(userService, clubService, commentaireService, statsService)
	clubHandler := handlers.NewClubHandler(clubService, storage)
	saisonHandler := handlers.NewSaisonHandler(saisonService)
	sondageHandler := handlers.NewSondageHandler(sondageService, resumeService)
	voteHandler := handlers.NewVoteHandler(voteService)
	commentaireHandler := handlers.NewCommentaireHandler(commentaireService)
	evenementHandler := handlers.NewEvenementHandler(evenementService, storage)
	fcmHandler := handlers.NewFCMHandler(notifier)
	wsHandler := websocket.NewHandler(wsHub, cfg.JWTSecret, userRepo, cfg.CORSOrigins)

	// Middlewares
	guest := middleware.Guest(cfg.JWTSecret)
	optional := middleware.OptionalAuth(cfg.JWTSecret, userRepo)
	loginLimiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute)

	router := mux.NewRouter()
	router.Use(middleware.Logging(slackService))

	// Routes publiques
	router.HandleFunc("/api/health", healthHandler.Health).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	router.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(storage.Dir())))).Methods(http.MethodGet)

	router.Handle("/api/auth/register", loginLimiter.Handler(guest(http.HandlerFunc(authHandler.Register)))).Methods(http.MethodPost)
	router.Handle("/api/auth/login", loginLimiter.Handler(guest(http.HandlerFunc(authHandler.Login)))).Methods(http.MethodPost)

	router.Handle("/api/clubs", optional(http.HandlerFunc(clubHandler.List))).Methods(http.MethodGet)
	router.Handle("/api/clubs/{id}", optional(http.HandlerFunc(clubHandler.Get))).Methods(http.MethodGet)

	router.HandleFunc("/api/saisons", saisonHandler.ListSaisons).Methods(http.MethodGet)
	router.HandleFunc("/api/saisons/{id}", saisonHandler.GetSaison).Methods(http.MethodGet)
	router.HandleFunc("/api/saisons/{id}/competitions", saisonHandler.ListSaisonCompetitions).Methods(http.MethodGet)
	router.HandleFunc("/api/saisons/{id}/classement", saisonHandler.Classement).Methods(http.MethodGet)
	router.HandleFunc("/api/competitions", saisonHandler.ListCompetitions).Methods(http.MethodGet)
	router.HandleFunc("/api/competitions/{id}", saisonHandler.GetCompetition).Methods(http.MethodGet)
	router.HandleFunc("/api/competitions/{id}/resultats", saisonHandler.Resultats).Methods(http.MethodGet)

	router.HandleFunc("/api/sondages", sondageHandler.List).Methods(http.MethodGet)
	router.HandleFunc("/api/sondages/{id}", sondageHandler.Get).Methods(http.MethodGet)
	router.HandleFunc("/api/sondages/{id}/resultats", sondageHandler.Resultats).Methods(http.MethodGet)
	router.HandleFunc("/api/sondages/{id}/resultats.png", sondageHandler.ResultatsPNG).Methods(http.MethodGet)
	router.HandleFunc("/api/sondages/{id}/resultats.xlsx", sondageHandler.ResultatsXLSX).Methods(http.MethodGet)
	router.HandleFunc("/api/sondages/{id}/resume", sondageHandler.Resume).Methods(http.MethodGet)
	router.Handle("/api/sondages/{id}/commentaires", optional(http.HandlerFunc(commentaireHandler.List))).Methods(http.MethodGet)

	router.HandleFunc("/api/evenements", evenementHandler.List).Methods(http.MethodGet)
	router.HandleFunc("/api/evenements/calendrier", evenementHandler.Calendrier).Methods(http.MethodGet)
	router.HandleFunc("/api/evenements/{id}", evenementHandler.Get).Methods(http.MethodGet)

	// Routes protégées
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.Auth(cfg.JWTSecret, userRepo))

	protected.HandleFunc("/me", profileHandler.Me).Methods(http.MethodGet)
	protected.HandleFunc("/me", profileHandler.Update).Methods(http.MethodPut)
	protected.HandleFunc("/me/password", profileHandler.ChangePassword).Methods(http.MethodPut)
	protected.HandleFunc("/me/photo", profileHandler.UploadPhoto).Methods(http.MethodPost)
	protected.HandleFunc("/me/clubs", profileHandler.MyClubs).Methods(http.MethodGet)
	protected.HandleFunc("/me/evenements", profileHandler.MyEvents).Methods(http.MethodGet)

	protected.HandleFunc("/fcm/subscribe", fcmHandler.Subscribe).Methods(http.MethodPost)
	protected.HandleFunc("/fcm/unsubscribe", fcmHandler.Unsubscribe).Methods(http.MethodPost)

	protected.HandleFunc("/clubs", clubHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/clubs/{id}", clubHandler.Update).Methods(http.MethodPut)
	protected.HandleFunc("/clubs/{id}", clubHandler.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/clubs/{id}/logo", clubHandler.UploadLogo).Methods(http.MethodPost)
	protected.HandleFunc("/clubs/{id}/membres.xlsx", clubHandler.ExportMembres).Methods(http.MethodGet)
	protected.HandleFunc("/clubs/{id}/participations", clubHandler.Participations).Methods(http.MethodGet)
	protected.HandleFunc("/clubs/{id}/participations", clubHandler.Join).Methods(http.MethodPost)
	protected.HandleFunc("/clubs/{id}/participations/me", clubHandler.Leave).Methods(http.MethodDelete)
	protected.HandleFunc("/clubs/{id}/participations/{pid}", clubHandler.DecideParticipation).Methods(http.MethodPut)

	protected.HandleFunc("/sondages", sondageHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/sondages/{id}", sondageHandler.Update).Methods(http.MethodPut)
	protected.HandleFunc("/sondages/{id}", sondageHandler.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/sondages/{id}/fermer", sondageHandler.Close).Methods(http.MethodPost)
	protected.HandleFunc("/sondages/{id}/vote", voteHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/sondages/{id}/vote", voteHandler.Submit).Methods(http.MethodPost)
	protected.HandleFunc("/sondages/{id}/vote", voteHandler.Change).Methods(http.MethodPut)
	protected.HandleFunc("/sondages/{id}/vote", voteHandler.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/sondages/{id}/commentaires", commentaireHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/commentaires/{id}", commentaireHandler.Update).Methods(http.MethodPut)
	protected.HandleFunc("/commentaires/{id}", commentaireHandler.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/commentaires/{id}/signaler", commentaireHandler.Report).Methods(http.MethodPost)

	protected.HandleFunc("/evenements", evenementHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/evenements/{id}", evenementHandler.Update).Methods(http.MethodPut)
	protected.HandleFunc("/evenements/{id}", evenementHandler.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/evenements/{id}/image", evenementHandler.UploadImage).Methods(http.MethodPost)
	protected.HandleFunc("/evenements/{id}/inscription", evenementHandler.Register).Methods(http.MethodPost)
	protected.HandleFunc("/evenements/{id}/inscription", evenementHandler.Unregister).Methods(http.MethodDelete)
	protected.HandleFunc("/evenements/{id}/inscrits", evenementHandler.Registrants).Methods(http.MethodGet)

	// Routes admin
	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin)

	admin.HandleFunc("/stats", adminHandler.GetStats).Methods(http.MethodGet)
	admin.HandleFunc("/users", adminHandler.GetUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}", adminHandler.GetUser).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}", adminHandler.UpdateUser).Methods(http.MethodPut)
	admin.HandleFunc("/users/{id}", adminHandler.DeleteUser).Methods(http.MethodDelete)
	admin.HandleFunc("/clubs/{id}/decision", adminHandler.DecideClub).Methods(http.MethodPut)
	admin.HandleFunc("/moderation/commentaires", adminHandler.ModerationQueue).Methods(http.MethodGet)
	admin.HandleFunc("/moderation/commentaires/{id}/restaurer", adminHandler.RestoreComment).Methods(http.MethodPost)
	admin.HandleFunc("/moderation/commentaires/{id}", adminHandler.DeleteComment).Methods(http.MethodDelete)

	admin.HandleFunc("/saisons", saisonHandler.CreateSaison).Methods(http.MethodPost)
	admin.HandleFunc("/saisons/{id}", saisonHandler.UpdateSaison).Methods(http.MethodPut)
	admin.HandleFunc("/saisons/{id}", saisonHandler.DeleteSaison).Methods(http.MethodDelete)
	admin.HandleFunc("/competitions", saisonHandler.CreateCompetition).Methods(http.MethodPost)
	admin.HandleFunc("/competitions/{id}", saisonHandler.UpdateCompetition).Methods(http.MethodPut)
	admin.HandleFunc("/competitions/{id}", saisonHandler.DeleteCompetition).Methods(http.MethodDelete)
	admin.HandleFunc("/competitions/{id}/resultats", saisonHandler.AddResultat).Methods(http.MethodPost)

	// Le WebSocket passe par un routeur sans middleware (le hijack ne supporte pas les wrappers CORS)
	rawRouter := mux.NewRouter()
	rawRouter.HandleFunc("/ws", wsHandler.ServeWS)
	rawRouter.PathPrefix("/").Handler(middleware.CORS(cfg.CORSOrigins)(router))

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           rawRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Serveur démarré sur http://%s (env=%s)", addr, cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Erreur lors du démarrage du serveur: %v", err)
		}
	}()

	// Arrêt gracieux
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Arrêt du serveur...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  Arrêt forcé du serveur: %v", err)
	}
	scheduler.Stop()
	wsHub.Shutdown()
	log.Println("✅ Serveur arrêté proprement")
}
