package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL       string
	Port              string
	IsProduction      bool
	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// CEISA portal gateway settings
	GatewayBaseURL string `mapstructure:"GATEWAY_BASE_URL"`
	GatewayAPIKey  string `mapstructure:"GATEWAY_API_KEY"`
	GatewayTimeout time.Duration

	// Outbound queue settings
	QueueMaxAttempts int

	HealthCheckInterval time.Duration
	RateLimit           string `mapstructure:"RATE_LIMIT"`
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "8h")
	viper.SetDefault("JWT_ISSUER", "customs-declaration-app")
	viper.SetDefault("GATEWAY_BASE_URL", "")
	viper.SetDefault("GATEWAY_API_KEY", "")
	viper.SetDefault("GATEWAY_TIMEOUT", "30s")
	viper.SetDefault("QUEUE_MAX_ATTEMPTS", 5)
	viper.SetDefault("HEALTH_CHECK_INTERVAL", "60s")
	viper.SetDefault("RATE_LIMIT", "100-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET not set. Using default insecure key.")
	}

	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiryDuration, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiryDuration = 8 * time.Hour
		log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiryDuration.String())
	}
	cfg.JWTExpiryDuration = jwtExpiryDuration

	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.GatewayBaseURL = viper.GetString("GATEWAY_BASE_URL")
	if cfg.GatewayBaseURL == "" {
		log.Println("Warning: GATEWAY_BASE_URL not set. Portal synchronization will not function.")
	}
	cfg.GatewayAPIKey = viper.GetString("GATEWAY_API_KEY")
	if cfg.GatewayAPIKey == "" {
		log.Println("Warning: GATEWAY_API_KEY not set. Portal synchronization will not function.")
	}

	gatewayTimeoutStr := viper.GetString("GATEWAY_TIMEOUT")
	gatewayTimeout, err := time.ParseDuration(gatewayTimeoutStr)
	if err != nil {
		gatewayTimeout = 30 * time.Second
		log.Printf("Warning: Invalid value for GATEWAY_TIMEOUT ('%s'). Defaulting to %s.\n", gatewayTimeoutStr, gatewayTimeout.String())
	}
	cfg.GatewayTimeout = gatewayTimeout

	cfg.QueueMaxAttempts = viper.GetInt("QUEUE_MAX_ATTEMPTS")
	if cfg.QueueMaxAttempts <= 0 {
		cfg.QueueMaxAttempts = 5
		log.Printf("Warning: Invalid value for QUEUE_MAX_ATTEMPTS. Defaulting to %d.\n", cfg.QueueMaxAttempts)
	}

	healthIntervalStr := viper.GetString("HEALTH_CHECK_INTERVAL")
	healthInterval, err := time.ParseDuration(healthIntervalStr)
	if err != nil {
		healthInterval = 60 * time.Second
		log.Printf("Warning: Invalid value for HEALTH_CHECK_INTERVAL ('%s'). Defaulting to %s.\n", healthIntervalStr, healthInterval.String())
	}
	cfg.HealthCheckInterval = healthInterval

	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	return cfg, nil
}
