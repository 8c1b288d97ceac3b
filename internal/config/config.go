package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI          string
	DBName            string
	JWTSecret         string
	AccessTokenTTL    time.Duration
	DeliveryFee       float64
	BroadcastRadiusKm float64
	BroadcastTTL      time.Duration
	SendGridKey       string
	MailSender        string
	ContactInbox      string
	GeocoderBaseURL   string
	PaymentBaseURL    string
	PaymentKeyID      string
	PaymentKeySecret  string
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:          getEnvOrDefault("MONGO_URI", ""),
		DBName:            getEnvOrDefault("DB_NAME", "quickbite"),
		JWTSecret:         getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL:    getDurationEnv("ACCESS_TOKEN_TTL", 7, 24*time.Hour),
		DeliveryFee:       getFloatEnv("DELIVERY_FEE", 0),
		BroadcastRadiusKm: getFloatEnv("BROADCAST_RADIUS_KM", 5),
		BroadcastTTL:      getDurationEnv("BROADCAST_TTL", 2, time.Minute),
		SendGridKey:       getEnvOrDefault("SENDGRID_API_KEY", ""),
		MailSender:        getEnvOrDefault("MAIL_SENDER", "no-reply@quickbite.local"),
		ContactInbox:      getEnvOrDefault("CONTACT_INBOX", ""),
		GeocoderBaseURL:   getEnvOrDefault("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
		PaymentBaseURL:    getEnvOrDefault("PAYMENT_BASE_URL", ""),
		PaymentKeyID:      getEnvOrDefault("PAYMENT_KEY_ID", ""),
		PaymentKeySecret:  getEnvOrDefault("PAYMENT_KEY_SECRET", ""),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}
