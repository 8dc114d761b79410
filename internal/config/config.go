package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	sandboxBaseURL    = "https://sandbox.safaricom.co.ke"
	productionBaseURL = "https://api.safaricom.co.ke"
)

// Config carries everything the service needs, resolved once at startup.
// Components receive it (or the fields they need) through constructors;
// nothing reads the environment after Load returns.
type Config struct {
	ConsumerKey       string
	ConsumerSecret    string
	BusinessShortcode string
	Passkey           string
	CallbackURL       string

	// APIToken is the bcrypt hash of the caller's bearer secret.
	APIToken string
	// CallbackToken, when set, is required in the x-callback-token header
	// of inbound provider callbacks.
	CallbackToken string

	APIEnvironment string
	BaseURL        string

	MongoURI      string
	MongoDatabase string

	HTTPAddr   string
	APITimeout time.Duration

	MinAmount float64
	MaxAmount float64
}

// Load reads configuration from the environment (and .env if present) and
// validates that the provider credentials are all set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("API_ENVIRONMENT", "sandbox")
	baseURL := sandboxBaseURL
	if env == "production" {
		baseURL = productionBaseURL
	}

	cfg := &Config{
		ConsumerKey:       os.Getenv("CONSUMER_KEY"),
		ConsumerSecret:    os.Getenv("CONSUMER_SECRET"),
		BusinessShortcode: os.Getenv("BUSINESS_SHORTCODE"),
		Passkey:           os.Getenv("PASSKEY"),
		CallbackURL:       os.Getenv("CALLBACK_URL"),
		APIToken:          os.Getenv("API_TOKEN"),
		CallbackToken:     os.Getenv("CALLBACK_TOKEN"),
		APIEnvironment:    env,
		BaseURL:           baseURL,
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:     getEnv("MONGO_DB_NAME", "mpesa_transactions"),
		HTTPAddr:          "0.0.0.0:" + getEnv("PORT", "8080"),
		APITimeout:        getDurationEnv("API_TIMEOUT", 30*time.Second),
		MinAmount:         getFloatEnv("MIN_AMOUNT", 1),
		MaxAmount:         getFloatEnv("MAX_AMOUNT", 70000),
	}

	required := map[string]string{
		"CONSUMER_KEY":       cfg.ConsumerKey,
		"CONSUMER_SECRET":    cfg.ConsumerSecret,
		"BUSINESS_SHORTCODE": cfg.BusinessShortcode,
		"PASSKEY":            cfg.Passkey,
		"CALLBACK_URL":       cfg.CallbackURL,
		"API_TOKEN":          cfg.APIToken,
	}
	var missing []string
	for name, val := range required {
		if val == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	// Bare numbers are treated as seconds, matching the old deployment env.
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getFloatEnv(key string, fallback float64) float64 {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
