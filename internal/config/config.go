package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App   AppConfig
	Nli   NliConfig
	Store StoreConfig
	Auth  AuthConfig
	Otel  OtelConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	WsLogFilePath      string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	OperationsTopic    string
}

// NliConfig holds the classification service endpoint and the dispatcher timings.
type NliConfig struct {
	ServerURL      string
	PingTimeout    time.Duration
	RequestTimeout time.Duration
	RefreshDelay   time.Duration
}

type StoreConfig struct {
	SessionTTL   time.Duration
	HistoryStore string // "memory", "redis" or "postgres"
	HistoryTTL   time.Duration
	DBConnection string
}

type AuthConfig struct {
	JWTSecret string // empty disables the bearer-token guard
}

type OtelConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	SampleRatio float64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/nli.log"),
			WsLogFilePath:      getEnv("WS_LOG_FILE_PATH", "logs/websocket.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			OperationsTopic:    getEnv("OPERATIONS_TOPIC", "diagram.operations"),
		},
		Nli: NliConfig{
			ServerURL:      getEnv("NLI_SERVER_URL", "http://localhost:8000"),
			PingTimeout:    getEnvAsDuration("NLI_PING_TIMEOUT", time.Second),
			RequestTimeout: getEnvAsDuration("NLI_REQUEST_TIMEOUT", 30*time.Second),
			RefreshDelay:   getEnvAsDuration("NLI_REFRESH_DELAY", time.Second),
		},
		Store: StoreConfig{
			SessionTTL:   getEnvAsDuration("SESSION_TTL", time.Hour),
			HistoryStore: getEnv("HISTORY_STORE", "memory"),
			HistoryTTL:   getEnvAsDuration("HISTORY_TTL", 24*time.Hour),
			DBConnection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Otel: OtelConfig{
			Enabled:     getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "uml-nli-be"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("1500ms") or a plain number of milliseconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if ms := getEnvAsInt(key, -1); ms >= 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
