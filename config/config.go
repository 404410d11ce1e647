package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	ServiceName string
	LoggerLevel string

	AppPort      int
	AdminAppPort int

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	RabbitHost     string
	RabbitPort     string
	RabbitUser     string
	RabbitPassword string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	PushBotToken string

	PaymentAPIURL string
	PaymentAPIKey string

	JWTSecret string

	// Tax rate differs per deployment, so it is configuration,
	// never a constant in code.
	TaxRate              float64
	DefaultDistanceMiles float64

	RestaurantAddress string
	PrepEstimate      string
}

func Load() Config {
	_ = godotenv.Load(".env")

	cfg := Config{}

	cfg.ServiceName = cast.ToString(getOrReturnDefault("SERVICE_NAME", "dishdash"))
	cfg.LoggerLevel = cast.ToString(getOrReturnDefault("LOGGER_LEVEL", "debug"))
	cfg.AppPort = cast.ToInt(getOrReturnDefault("APP_PORT", 8080))
	cfg.AdminAppPort = cast.ToInt(getOrReturnDefault("ADMIN_APP_PORT", 8081))

	cfg.PostgresHost = cast.ToString(getOrReturnDefault("POSTGRES_HOST", "localhost"))
	cfg.PostgresPort = cast.ToString(getOrReturnDefault("POSTGRES_PORT", "5432"))
	cfg.PostgresUser = cast.ToString(getOrReturnDefault("POSTGRES_USER", "postgres"))
	cfg.PostgresPassword = cast.ToString(getOrReturnDefault("POSTGRES_PASSWORD", "1234"))
	cfg.PostgresDB = cast.ToString(getOrReturnDefault("POSTGRES_DB", "dishdash"))

	cfg.RedisHost = cast.ToString(getOrReturnDefault("REDIS_HOST", "localhost"))
	cfg.RedisPort = cast.ToString(getOrReturnDefault("REDIS_PORT", "6379"))
	cfg.RedisPassword = cast.ToString(getOrReturnDefault("REDIS_PASSWORD", ""))

	cfg.RabbitHost = cast.ToString(getOrReturnDefault("RABBIT_HOST", "localhost"))
	cfg.RabbitPort = cast.ToString(getOrReturnDefault("RABBIT_PORT", "5672"))
	cfg.RabbitUser = cast.ToString(getOrReturnDefault("RABBIT_USER", "guest"))
	cfg.RabbitPassword = cast.ToString(getOrReturnDefault("RABBIT_PASSWORD", "guest"))

	cfg.SMTPHost = cast.ToString(getOrReturnDefault("SMTP_HOST", "localhost"))
	cfg.SMTPPort = cast.ToInt(getOrReturnDefault("SMTP_PORT", 587))
	cfg.SMTPUser = cast.ToString(getOrReturnDefault("SMTP_USER", ""))
	cfg.SMTPPassword = cast.ToString(getOrReturnDefault("SMTP_PASSWORD", ""))
	cfg.SMTPFrom = cast.ToString(getOrReturnDefault("SMTP_FROM", "orders@dishdash.example"))

	cfg.PushBotToken = cast.ToString(getOrReturnDefault("PUSH_BOT_TOKEN", ""))

	cfg.PaymentAPIURL = cast.ToString(getOrReturnDefault("PAYMENT_API_URL", ""))
	cfg.PaymentAPIKey = cast.ToString(getOrReturnDefault("PAYMENT_API_KEY", ""))

	cfg.JWTSecret = cast.ToString(getOrReturnDefault("JWT_SECRET", "dev-secret-change-me"))

	cfg.TaxRate = cast.ToFloat64(getOrReturnDefault("TAX_RATE", 0.0735))
	cfg.DefaultDistanceMiles = cast.ToFloat64(getOrReturnDefault("DEFAULT_DISTANCE_MILES", 3.0))

	cfg.RestaurantAddress = cast.ToString(getOrReturnDefault("RESTAURANT_ADDRESS", "45 Main St"))
	cfg.PrepEstimate = cast.ToString(getOrReturnDefault("PREP_ESTIMATE", "25-35 minutes"))

	return cfg
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}
