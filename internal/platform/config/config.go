package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the read-only configuration snapshot loaded once per process and
// passed by reference. No process-global lookup maps.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool
	JWTSecret    string

	// Redis, used to cache gateway bearer tokens between batch runs.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// S3-compatible storage holding bank-statement exports.
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Bucket          string
	S3UseSSL          bool
	S3Region          string
	S3PendingPrefix   string
	S3ProcessedPrefix string

	// Payment gateway.
	GatewayBaseURL    string
	GatewayTokenURL   string
	CertificateDir    string        // per-counterparty PKCS#12 keystores live here
	GatewayTimeout    time.Duration // explicit timeout on every gateway call
	TokenSafetyMargin time.Duration // refresh the cached token this close to expiry

	// Downstream back-office collaborators.
	LedgerRepostURL string
	SettlementURL   string

	// Reconciliation tuning.
	LookbackDays    int           // gateway list window, days back from now
	RepostHorizon   time.Duration // only events younger than this are reposted
	ChargeCutoff    string        // HH:MM daily payment cutoff in local time
	MinChargeExpiry time.Duration // floor for calendario.expiracao
	Timezone        string
}

// LoadConfig loads configuration from environment variables and a .env file
// if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_PREFIX", "fidc_backoffice:")
	viper.SetDefault("S3_ENDPOINT", "localhost:9000")
	viper.SetDefault("S3_ACCESS_KEY", "")
	viper.SetDefault("S3_SECRET_KEY", "")
	viper.SetDefault("S3_BUCKET", "statements")
	viper.SetDefault("S3_USE_SSL", false)
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_PENDING_PREFIX", "pending/")
	viper.SetDefault("S3_PROCESSED_PREFIX", "processed/")
	viper.SetDefault("GATEWAY_BASE_URL", "")
	viper.SetDefault("GATEWAY_TOKEN_URL", "")
	viper.SetDefault("CERTIFICATE_DIR", "/etc/fidc/certs")
	viper.SetDefault("GATEWAY_TIMEOUT", "30s")
	viper.SetDefault("TOKEN_SAFETY_MARGIN", "60s")
	viper.SetDefault("LEDGER_REPOST_URL", "")
	viper.SetDefault("SETTLEMENT_URL", "")
	viper.SetDefault("LOOKBACK_DAYS", 10)
	viper.SetDefault("REPOST_HORIZON", "24h")
	viper.SetDefault("CHARGE_CUTOFF", "20:00")
	viper.SetDefault("MIN_CHARGE_EXPIRY", "10m")
	viper.SetDefault("TIMEZONE", "America/Sao_Paulo")

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:       viper.GetString("PGSQL_URL"),
		Port:              viper.GetString("PORT"),
		IsProduction:      viper.GetBool("IS_PRODUCTION"),
		JWTSecret:         viper.GetString("JWT_SECRET"),
		RedisAddr:         viper.GetString("REDIS_ADDR"),
		RedisPassword:     viper.GetString("REDIS_PASSWORD"),
		RedisDB:           viper.GetInt("REDIS_DB"),
		RedisPrefix:       viper.GetString("REDIS_PREFIX"),
		S3Endpoint:        viper.GetString("S3_ENDPOINT"),
		S3AccessKeyID:     viper.GetString("S3_ACCESS_KEY"),
		S3SecretAccessKey: viper.GetString("S3_SECRET_KEY"),
		S3Bucket:          viper.GetString("S3_BUCKET"),
		S3UseSSL:          viper.GetBool("S3_USE_SSL"),
		S3Region:          viper.GetString("S3_REGION"),
		S3PendingPrefix:   viper.GetString("S3_PENDING_PREFIX"),
		S3ProcessedPrefix: viper.GetString("S3_PROCESSED_PREFIX"),
		GatewayBaseURL:    viper.GetString("GATEWAY_BASE_URL"),
		GatewayTokenURL:   viper.GetString("GATEWAY_TOKEN_URL"),
		CertificateDir:    viper.GetString("CERTIFICATE_DIR"),
		GatewayTimeout:    viper.GetDuration("GATEWAY_TIMEOUT"),
		TokenSafetyMargin: viper.GetDuration("TOKEN_SAFETY_MARGIN"),
		LedgerRepostURL:   viper.GetString("LEDGER_REPOST_URL"),
		SettlementURL:     viper.GetString("SETTLEMENT_URL"),
		LookbackDays:      viper.GetInt("LOOKBACK_DAYS"),
		RepostHorizon:     viper.GetDuration("REPOST_HORIZON"),
		ChargeCutoff:      viper.GetString("CHARGE_CUTOFF"),
		MinChargeExpiry:   viper.GetDuration("MIN_CHARGE_EXPIRY"),
		Timezone:          viper.GetString("TIMEZONE"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("PGSQL_URL is required")
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 10
	}
	if _, err := time.Parse("15:04", cfg.ChargeCutoff); err != nil {
		return nil, fmt.Errorf("invalid CHARGE_CUTOFF %q: %w", cfg.ChargeCutoff, err)
	}

	return cfg, nil
}
