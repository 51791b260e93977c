package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Shopify  ShopifyConfig
	Notes    NotesConfig
	Cache    CacheConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RateLimitRPS       int
	RateLimitBurst     int
}

type DatabaseConfig struct {
	Driver     string // "postgres" or "memory"
	Connection string
}

type ShopifyConfig struct {
	APIKey       string
	APISecret    string
	APIVersion   string
	AccessTokens map[string]string // shop domain -> offline access token
	Timeout      time.Duration
	MetafieldNS  string
	MetafieldKey string
}

type NotesConfig struct {
	AtomicAdd             bool
	SyncOnWrite           bool
	SyncTopic             string
	EnrichmentConcurrency int
}

type CacheConfig struct {
	Driver   string // "memory" or "redis"
	RedisURL string
	TTL      time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "https://admin.shopify.com"),
			NatsURL:            getEnv("NATS_URL", ""),
			RateLimitRPS:       getEnvAsInt("RATE_LIMIT_RPS", 50),
			RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("STORE_DRIVER", "postgres"),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Shopify: ShopifyConfig{
			APIKey:       getEnv("SHOPIFY_API_KEY", ""),
			APISecret:    getEnv("SHOPIFY_API_SECRET", ""),
			APIVersion:   getEnv("SHOPIFY_API_VERSION", "2025-10"),
			AccessTokens: ParseAccessTokens(getEnv("SHOPIFY_ACCESS_TOKENS", "")),
			Timeout:      getEnvAsDuration("SHOPIFY_TIMEOUT", 5*time.Second),
			MetafieldNS:  getEnv("SHOPIFY_METAFIELD_NAMESPACE", "custom"),
			MetafieldKey: getEnv("SHOPIFY_METAFIELD_KEY", "product_note"),
		},
		Notes: NotesConfig{
			AtomicAdd:             getEnvAsBool("NOTES_ATOMIC_ADD", false),
			SyncOnWrite:           getEnvAsBool("SYNC_ON_WRITE", false),
			SyncTopic:             getEnv("METAFIELD_SYNC_TOPIC", "METAFIELD_SYNC"),
			EnrichmentConcurrency: getEnvAsInt("ENRICHMENT_CONCURRENCY", 8),
		},
		Cache: CacheConfig{
			Driver:   getEnv("CACHE_DRIVER", "memory"),
			RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),
			TTL:      getEnvAsDuration("PRODUCT_CACHE_TTL", 5*time.Minute),
		},
	}
}

// ParseAccessTokens reads "shop-a.myshopify.com:token,shop-b.myshopify.com:token".
// Malformed pairs are skipped.
func ParseAccessTokens(raw string) map[string]string {
	tokens := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		shop, token, ok := strings.Cut(pair, ":")
		shop = strings.ToLower(strings.TrimSpace(shop))
		token = strings.TrimSpace(token)
		if !ok || shop == "" || token == "" {
			log.Printf("[WARN] Skipping malformed SHOPIFY_ACCESS_TOKENS entry")
			continue
		}
		tokens[shop] = token
	}
	return tokens
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
