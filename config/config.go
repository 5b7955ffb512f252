package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the process reads from the environment. It is
// built once in main and handed to the components that need it, so tests
// can substitute their own values.
type Config struct {
	Port     string
	MongoURI string
	DBName   string

	JWTSecret string

	FrontendURL string
	BackendURL  string

	PhonePeMerchantID string
	PhonePeSaltKey    string
	PhonePeSaltIndex  string
	PhonePeBaseURL    string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
}

func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using process environment")
	}
}

func Load() *Config {
	LoadEnv()

	return &Config{
		Port:     GetEnv("PORT", "4050"),
		MongoURI: GetEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:   GetEnv("DB_NAME", "kitchenviz"),

		JWTSecret: GetEnv("JWT_SECRET", ""),

		FrontendURL: GetEnv("FRONTEND_URL", "http://localhost:3000"),
		BackendURL:  GetEnv("BACKEND_URL", "http://localhost:4050"),

		PhonePeMerchantID: GetEnv("PHONEPE_MERCHANT_ID", ""),
		PhonePeSaltKey:    GetEnv("PHONEPE_SALT_KEY", ""),
		PhonePeSaltIndex:  GetEnv("PHONEPE_SALT_INDEX", "1"),
		PhonePeBaseURL:    GetEnv("PHONEPE_BASE_URL", "https://api-preprod.phonepe.com/apis/pg-sandbox"),

		SMTPHost:     GetEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     GetEnvAsInt("SMTP_PORT", 587),
		SMTPUser:     GetEnv("SMTP_USER", ""),
		SMTPPassword: GetEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     GetEnv("SMTP_FROM", GetEnv("SMTP_USER", "")),
	}
}

// SetupLogger installs a JSON slog handler as the default logger.
func SetupLogger() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)
}

func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func GetEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(GetEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
