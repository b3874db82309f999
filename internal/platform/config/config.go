package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full process configuration, read once at startup.
type Config struct {
	Server   Server
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Chain    ChainConfig
	Ledger   LedgerConfig
	Auth     AuthConfig
	LogLevel string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// DatabaseConfig selects the ledger backend. Driver is "postgres" or "memory".
type DatabaseConfig struct {
	Driver          string
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the issuer directory cache. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit outbox relay. Empty Brokers disables the relay.
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	RelayInterval time.Duration
	RelayBatch    int
}

// ChainConfig points at the JSON-RPC node and the registry contracts.
type ChainConfig struct {
	RPCURL                 string
	ChainID                int64
	TrustedIssuersRegistry string
	IdentityRegistry       string
	CallTimeout            time.Duration
	ConfirmTimeout         time.Duration
	ReceiptPollInterval    time.Duration
}

// LedgerConfig holds claim lifecycle policy.
type LedgerConfig struct {
	// RequesterSignaturePolicy is "enforce" (reject invalid requester
	// signatures) or "record" (store them flagged invalid).
	RequesterSignaturePolicy string
	RequireTrustedIssuer     bool
	DocumentURIBase          string
	IssuerCacheTTL           time.Duration
}

// AuthConfig secures the admin routes.
type AuthConfig struct {
	AdminJWTSecret string
	AdminIssuer    string
}

const (
	SignaturePolicyEnforce = "enforce"
	SignaturePolicyRecord  = "record"
)

// RegistryCacheTTL bounds how long trusted-issuer answers are reused.
var RegistryCacheTTL = 5 * time.Minute

// FromEnv builds the configuration from environment variables so main stays lean.
func FromEnv() (Config, error) {
	cfg := Config{
		Server: Server{
			Addr:            envOr("CLAIMBRIDGE_ADDR", ":8080"),
			ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Driver:          envOr("STORE_DRIVER", "postgres"),
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:       envList("KAFKA_BROKERS"),
			Topic:         envOr("KAFKA_AUDIT_TOPIC", "claimbridge.audit"),
			RelayInterval: envDuration("OUTBOX_RELAY_INTERVAL", 2*time.Second),
			RelayBatch:    envInt("OUTBOX_RELAY_BATCH", 100),
		},
		Chain: ChainConfig{
			RPCURL:                 envOr("CHAIN_RPC_URL", "http://127.0.0.1:8545"),
			ChainID:                int64(envInt("CHAIN_ID", 31337)),
			TrustedIssuersRegistry: os.Getenv("TRUSTED_ISSUERS_REGISTRY_ADDRESS"),
			IdentityRegistry:       os.Getenv("IDENTITY_REGISTRY_ADDRESS"),
			CallTimeout:            envDuration("CHAIN_CALL_TIMEOUT", 10*time.Second),
			ConfirmTimeout:         envDuration("PUBLISH_CONFIRM_TIMEOUT", 2*time.Minute),
			ReceiptPollInterval:    envDuration("RECEIPT_POLL_INTERVAL", time.Second),
		},
		Ledger: LedgerConfig{
			RequesterSignaturePolicy: envOr("REQUESTER_SIGNATURE_POLICY", SignaturePolicyEnforce),
			RequireTrustedIssuer:     os.Getenv("REQUIRE_TRUSTED_ISSUER") == "true",
			DocumentURIBase:          envOr("DOCUMENT_URI_BASE", "/api/download"),
			IssuerCacheTTL:           envDuration("ISSUER_CACHE_TTL", RegistryCacheTTL),
		},
		Auth: AuthConfig{
			AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),
			AdminIssuer:    envOr("ADMIN_JWT_ISSUER", "claimbridge"),
		},
		LogLevel: envOr("LOG_LEVEL", "info"),
	}
	return cfg, cfg.Validate()
}

// Validate rejects combinations the process cannot start with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "memory":
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Database.Driver)
	}
	switch c.Ledger.RequesterSignaturePolicy {
	case SignaturePolicyEnforce, SignaturePolicyRecord:
	default:
		return fmt.Errorf("unsupported REQUESTER_SIGNATURE_POLICY %q", c.Ledger.RequesterSignaturePolicy)
	}
	if c.Ledger.RequireTrustedIssuer && c.Chain.TrustedIssuersRegistry == "" {
		return fmt.Errorf("REQUIRE_TRUSTED_ISSUER needs TRUSTED_ISSUERS_REGISTRY_ADDRESS")
	}
	if len(c.Kafka.Brokers) > 0 && c.Database.Driver != "postgres" {
		return fmt.Errorf("KAFKA_BROKERS requires the postgres outbox")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
