package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config contient toutes les configurations de l'application
type Config struct {
	Port        string
	Host        string
	MongoURI    string
	MongoDB     string
	JWTSecret   string
	Environment string
	LogLevel    string
	Timezone    string
	CORSOrigins []string

	// Stockage des images
	UploadDir   string
	MaxUploadMB int

	// Email (SMTP)
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// IA et modération
	AIAPIURL          string
	AIAPIKey          string
	AIModel           string
	ModerationAPIURL  string
	ModerationAPIKey  string
	ToxicityThreshold float64

	FirebaseCredentialsFile string
	SlackWebhookURL         string

	KafkaBrokers []string
	KafkaTopic   string

	LoginRatePerMinute int
}

// Load charge la configuration depuis les variables d'environnement
func Load() (*Config, error) {
	// Charger le fichier .env s'il existe
	_ = godotenv.Load()

	config := &Config{
		Port:                    getEnv("PORT", "8090"),
		Host:                    getEnv("HOST", "0.0.0.0"),
		MongoURI:                getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:                 getEnv("MONGO_DB", "espace_clubs"),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		Environment:             getEnv("ENVIRONMENT", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		Timezone:                getEnv("TIMEZONE", "Africa/Tunis"),
		UploadDir:               getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadMB:             getEnvInt("MAX_UPLOAD_MB", 5),
		SMTPHost:                getEnv("SMTP_HOST", ""),
		SMTPPort:                getEnvInt("SMTP_PORT", 587),
		SMTPUsername:            getEnv("SMTP_USERNAME", ""),
		SMTPPassword:            getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:                getEnv("SMTP_FROM", "no-reply@espace-clubs.local"),
		AIAPIURL:                getEnv("AI_API_URL", ""),
		AIAPIKey:                getEnv("AI_API_KEY", ""),
		AIModel:                 getEnv("AI_MODEL", "gpt-4o-mini"),
		ModerationAPIURL:        getEnv("MODERATION_API_URL", ""),
		ModerationAPIKey:        getEnv("MODERATION_API_KEY", ""),
		ToxicityThreshold:       getEnvFloat("TOXICITY_THRESHOLD", 0.7),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", "firebase-service-account.json"),
		SlackWebhookURL:         getEnv("SLACK_WEBHOOK_URL", ""),
		KafkaTopic:              getEnv("KAFKA_TOPIC", "clubs.events"),
		LoginRatePerMinute:      getEnvInt("LOGIN_RATE_PER_MINUTE", 10),
	}

	config.CORSOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"))
	config.KafkaBrokers = splitList(getEnv("KAFKA_BROKERS", ""))

	// Valider les configurations critiques
	if config.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET est requis")
	}

	if config.ToxicityThreshold <= 0 || config.ToxicityThreshold > 1 {
		return nil, fmt.Errorf("TOXICITY_THRESHOLD doit être compris entre 0 et 1")
	}

	return config, nil
}

// IsProduction indique si l'application tourne en production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// splitList découpe une liste séparée par des virgules en ignorant les vides
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	list := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}

// getEnv récupère une variable d'environnement avec une valeur par défaut
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}
