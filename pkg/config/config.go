package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	FirebaseProject string
	Environment     string

	// Notification dispatch settings. EmailEnabled is the system-wide
	// switch; per-user preferences are checked on top of it.
	EmailEnabled     bool
	BrevoAPIKey      string
	EmailSender      string
	EmailSenderName  string
	SiteURL          string
	MessagePreviewLen int
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		FirebaseProject: getEnv("FIREBASE_PROJECT_ID", ""),
		Environment:     getEnv("ENVIRONMENT", "development"),

		EmailEnabled:     getEnvAsBool("EMAIL_NOTIFICATIONS_ENABLED", false),
		BrevoAPIKey:      getEnv("BREVO_API_KEY", ""),
		EmailSender:      getEnv("EMAIL_SENDER_ADDRESS", "noreply@classipost.example"),
		EmailSenderName:  getEnv("EMAIL_SENDER_NAME", "Classipost"),
		SiteURL:          getEnv("SITE_URL", "http://localhost:5173"),
		MessagePreviewLen: getEnvAsInt("MESSAGE_PREVIEW_LENGTH", 100),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}
