package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// VerifiedIDResource is the audience the identity endpoint scopes tokens to.
const VerifiedIDResource = "3db474b9-6a0c-4840-96ac-1fceb342124f"

// Server captures process level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string

	// AdminToken guards the active-user switch when set.
	AdminToken         string
	CORSAllowedOrigins []string
	// TrustedProxies lists CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string

	UsersFile     string
	DefaultUserID string
	PublicDir     string
	ManifestsDir  string

	Identity IdentityConfig
	Issuance IssuanceConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// IdentityConfig describes the platform-managed identity endpoint.
// Endpoint and Header are validated per request, not at startup.
type IdentityConfig struct {
	Endpoint     string
	Header       string
	Resource     string
	APIVersion   string
	Timeout      time.Duration
	RefreshSkew  time.Duration
	MaxAttempts  int
	InitialDelay time.Duration
}

// IssuanceConfig describes the remote credential-issuance service and the
// callback descriptor sent with every request.
type IssuanceConfig struct {
	AuthorityDID     string
	TenantID         string
	APIBase          string
	ManifestBaseURL  string
	CallbackURL      string
	CallbackSecret   string
	CallbackState    string
	RegistrationName string
	Timeout          time.Duration
	SessionTTL       time.Duration
}

// RedisConfig holds Redis connection settings. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds settings for the callback event publisher. Empty brokers disable it.
type KafkaConfig struct {
	Brokers         string
	Topic           string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	port := getEnv("PORT", "3000")
	baseURL := strings.TrimRight(getEnv("MANIFEST_BASE_URL", "http://localhost:"+port), "/")

	return Server{
		Addr:               ":" + port,
		Environment:        getEnv("ENVIRONMENT", "dev"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		AdminToken:         os.Getenv("ADMIN_TOKEN"),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		TrustedProxies:     splitList(os.Getenv("TRUSTED_PROXIES")),
		UsersFile:          getEnv("USERS_FILE", "users.json"),
		DefaultUserID:      os.Getenv("DEFAULT_USER_ID"),
		PublicDir:          getEnv("PUBLIC_DIR", "public"),
		ManifestsDir:       getEnv("MANIFESTS_DIR", "manifests"),
		Identity: IdentityConfig{
			Endpoint:     os.Getenv("IDENTITY_ENDPOINT"),
			Header:       os.Getenv("IDENTITY_HEADER"),
			Resource:     VerifiedIDResource,
			APIVersion:   "2019-08-01",
			Timeout:      getDuration("OUTBOUND_TIMEOUT", 10*time.Second),
			RefreshSkew:  getDuration("TOKEN_REFRESH_SKEW", 2*time.Minute),
			MaxAttempts:  getInt("TOKEN_MAX_ATTEMPTS", 3),
			InitialDelay: 200 * time.Millisecond,
		},
		Issuance: IssuanceConfig{
			AuthorityDID:     os.Getenv("AUTHORITY_DID"),
			TenantID:         os.Getenv("TENANT_ID"),
			APIBase:          strings.TrimRight(getEnv("ISSUANCE_API_BASE", "https://verifiedid.did.msidentity.com"), "/"),
			ManifestBaseURL:  baseURL,
			CallbackURL:      getEnv("CALLBACK_URL", baseURL+"/api/callback"),
			CallbackSecret:   os.Getenv("CALLBACK_SECRET"),
			CallbackState:    os.Getenv("CALLBACK_STATE"),
			RegistrationName: os.Getenv("REGISTRATION_CLIENT_NAME"),
			Timeout:          getDuration("OUTBOUND_TIMEOUT", 10*time.Second),
			SessionTTL:       getDuration("SESSION_TTL", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:         os.Getenv("KAFKA_BROKERS"),
			Topic:           getEnv("ISSUANCE_EVENTS_TOPIC", "issuance.callbacks"),
			Acks:            getEnv("KAFKA_ACKS", "all"),
			Retries:         getInt("KAFKA_RETRIES", 3),
			DeliveryTimeout: getDuration("KAFKA_DELIVERY_TIMEOUT", 30*time.Second),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
