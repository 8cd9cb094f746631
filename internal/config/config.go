package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Push providers accepted in PUSH_PROVIDER.
const (
	PushProviderExpo = "expo"
	PushProviderFCM  = "fcm"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	ServerPort string

	JWTSecret string

	RedisURL string

	PushProvider    string
	ExpoPushURL     string
	ExpoAccessToken string
	PushProjectID   string

	FCMProjectID   string
	FCMClientEmail string
	FCMPrivateKey  string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string

	WorkerCount       int
	SchedulerInterval time.Duration
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	sslMode := os.Getenv("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "require"
	}

	pushProvider := os.Getenv("PUSH_PROVIDER")
	switch pushProvider {
	case "":
		pushProvider = PushProviderExpo
	case PushProviderExpo, PushProviderFCM:
	default:
		return nil, fmt.Errorf("PUSH_PROVIDER must be %q or %q, got %q", PushProviderExpo, PushProviderFCM, pushProvider)
	}

	expoPushURL := os.Getenv("EXPO_PUSH_URL")
	if expoPushURL == "" {
		expoPushURL = "https://exp.host/--/api/v2/push/send"
	}

	workerCount, err := strconv.Atoi(os.Getenv("WORKER_COUNT"))
	if err != nil || workerCount <= 0 {
		workerCount = 2
	}

	schedulerSeconds, err := strconv.Atoi(os.Getenv("SCHEDULER_INTERVAL_SECONDS"))
	if err != nil || schedulerSeconds <= 0 {
		schedulerSeconds = 1
	}

	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  sslMode,

		ServerPort: serverPort,

		JWTSecret: os.Getenv("JWT_SECRET"),

		RedisURL: os.Getenv("REDIS_URL"),

		PushProvider:    pushProvider,
		ExpoPushURL:     expoPushURL,
		ExpoAccessToken: os.Getenv("EXPO_ACCESS_TOKEN"),
		PushProjectID:   os.Getenv("PUSH_PROJECT_ID"),

		FCMProjectID:   os.Getenv("FCM_PROJECT_ID"),
		FCMClientEmail: os.Getenv("FCM_CLIENT_EMAIL"),
		FCMPrivateKey:  os.Getenv("FCM_PRIVATE_KEY"),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),

		WorkerCount:       workerCount,
		SchedulerInterval: time.Duration(schedulerSeconds) * time.Second,
	}, nil
}

// ArchiveEnabled reports whether all object storage settings are present.
func (c *Config) ArchiveEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2BucketName != ""
}
