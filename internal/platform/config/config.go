package config

import (
	"os"
	"strconv"
	"time"
)

// MintAuthMode selects which authorization path is active for minting.
// Exactly one path is active per deployment; they are never combined.
type MintAuthMode string

const (
	// MintAuthRole authorizes mints by minter-set membership.
	MintAuthRole MintAuthMode = "role"
	// MintAuthSignature authorizes mints by a signed authorization from the trusted signer.
	MintAuthSignature MintAuthMode = "signature"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	Environment string

	// Domain is the deployment domain string bound into every signed mint
	// authorization. Two deployments with different domains can never
	// replay each other's signatures.
	Domain string

	MintAuthMode MintAuthMode

	// Genesis access-control state. Applied once when the store is empty.
	OwnerAddress    string
	TreasuryAddress string
	SignerPublicKey string
	BaseURI         string

	JWTSigningKey string
	// AdminAPIKeyHash is the bcrypt hash of the owner's API key. Empty
	// disables API-key auth on admin routes (JWT only).
	AdminAPIKeyHash string

	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// KafkaConfig holds Kafka producer settings. Empty brokers disable Kafka.
type KafkaConfig struct {
	Brokers    string
	AuditTopic string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:            envOr("SIGIL_ADDR", ":8080"),
		Environment:     envOr("SIGIL_ENV", "development"),
		Domain:          envOr("SIGIL_DOMAIN", "sigil-dev"),
		MintAuthMode:    MintAuthMode(envOr("SIGIL_MINT_AUTH_MODE", string(MintAuthRole))),
		OwnerAddress:    os.Getenv("SIGIL_OWNER_ADDRESS"),
		TreasuryAddress: os.Getenv("SIGIL_TREASURY_ADDRESS"),
		SignerPublicKey: os.Getenv("SIGIL_SIGNER_PUBKEY"),
		BaseURI:         os.Getenv("SIGIL_BASE_URI"),
		JWTSigningKey:   envOr("SIGIL_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		AdminAPIKeyHash: os.Getenv("SIGIL_ADMIN_API_KEY_HASH"),
		Database: DatabaseConfig{
			URL:             os.Getenv("SIGIL_DATABASE_URL"),
			MaxOpenConns:    envIntOr("SIGIL_DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envIntOr("SIGIL_DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDurationOr("SIGIL_DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("SIGIL_REDIS_URL"),
			PoolSize:     envIntOr("SIGIL_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("SIGIL_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("SIGIL_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("SIGIL_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("SIGIL_REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     envDurationOr("SIGIL_REDIS_CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:    os.Getenv("SIGIL_KAFKA_BROKERS"),
			AuditTopic: envOr("SIGIL_KAFKA_AUDIT_TOPIC", "sigil.audit"),
		},
	}
	if cfg.MintAuthMode != MintAuthRole && cfg.MintAuthMode != MintAuthSignature {
		cfg.MintAuthMode = MintAuthRole
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
