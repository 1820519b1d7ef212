package config

import (
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// CallbackSecret gates the public provider callback endpoints. The value
	// is embedded in the callback URLs registered with the provider.
	CallbackSecret string

	// RateLimit uses the limiter formatted syntax, e.g. "120-M".
	RateLimit string

	// M-Pesa outbound API
	MpesaBaseURL            string
	MpesaConsumerKey        string
	MpesaConsumerSecret     string
	MpesaInitiatorName      string
	MpesaSecurityCredential string
	MpesaShortcode          string
	MpesaResultURL          string
	MpesaTimeoutURL         string

	// Notification targets
	WalletWebhookURL string
	AMQPURL          string
	AMQPExchange     string

	// WithdrawalReserveBalance enables the balance-reservation check at
	// withdrawal initiation. Off by default: the provider remains the
	// authority on whether funds exist at payout time.
	WithdrawalReserveBalance bool
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "chango-backend")
	viper.SetDefault("CALLBACK_SECRET", "")
	viper.SetDefault("RATE_LIMIT", "120-M")
	viper.SetDefault("MPESA_BASE_URL", "https://sandbox.safaricom.co.ke")
	viper.SetDefault("MPESA_CONSUMER_KEY", "")
	viper.SetDefault("MPESA_CONSUMER_SECRET", "")
	viper.SetDefault("MPESA_INITIATOR_NAME", "")
	viper.SetDefault("MPESA_SECURITY_CREDENTIAL", "")
	viper.SetDefault("MPESA_SHORTCODE", "")
	viper.SetDefault("MPESA_RESULT_URL", "")
	viper.SetDefault("MPESA_TIMEOUT_URL", "")
	viper.SetDefault("WALLET_WEBHOOK_URL", "")
	viper.SetDefault("AMQP_URL", "")
	viper.SetDefault("AMQP_EXCHANGE", "chango.ledger")
	viper.SetDefault("WITHDRAWAL_RESERVE_BALANCE", false)

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		slog.Warn("PGSQL_URL environment variable not set")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		slog.Warn("JWT_SECRET environment variable not set, using default insecure key")
	}

	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiryDuration, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiryDuration = time.Hour
		slog.Warn("Invalid value for JWT_EXPIRY_DURATION, using default",
			slog.String("value", jwtExpiryStr),
			slog.String("default", jwtExpiryDuration.String()))
	}
	cfg.JWTExpiryDuration = jwtExpiryDuration
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.CallbackSecret = viper.GetString("CALLBACK_SECRET")
	if cfg.CallbackSecret == "" {
		slog.Warn("CALLBACK_SECRET not set, provider callback endpoints are unauthenticated")
	}

	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	cfg.MpesaBaseURL = viper.GetString("MPESA_BASE_URL")
	cfg.MpesaConsumerKey = viper.GetString("MPESA_CONSUMER_KEY")
	cfg.MpesaConsumerSecret = viper.GetString("MPESA_CONSUMER_SECRET")
	cfg.MpesaInitiatorName = viper.GetString("MPESA_INITIATOR_NAME")
	cfg.MpesaSecurityCredential = viper.GetString("MPESA_SECURITY_CREDENTIAL")
	cfg.MpesaShortcode = viper.GetString("MPESA_SHORTCODE")
	cfg.MpesaResultURL = viper.GetString("MPESA_RESULT_URL")
	cfg.MpesaTimeoutURL = viper.GetString("MPESA_TIMEOUT_URL")
	if cfg.MpesaConsumerKey == "" || cfg.MpesaConsumerSecret == "" {
		slog.Warn("MPESA_CONSUMER_KEY/MPESA_CONSUMER_SECRET not set, outbound payouts will fail")
	}

	cfg.WalletWebhookURL = viper.GetString("WALLET_WEBHOOK_URL")
	if cfg.WalletWebhookURL == "" {
		slog.Warn("WALLET_WEBHOOK_URL not set, webhook notifications disabled")
	}

	cfg.AMQPURL = viper.GetString("AMQP_URL")
	cfg.AMQPExchange = viper.GetString("AMQP_EXCHANGE")

	cfg.WithdrawalReserveBalance = viper.GetBool("WITHDRAWAL_RESERVE_BALANCE")

	return cfg, nil
}
