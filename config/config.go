package config

import (
	"log"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvProduction = "production"
	EnvSandbox    = "sandbox"
)

type Config struct {
	HttpServer     HttpServerConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	HttpClient     HttpClientConfig
	MessageStream  MessageStreamConfig
	Gateway        GatewayConfig
	BookingService BookingServiceConfig
	PaymentService PaymentServiceConfig
	MailService    MailServiceConfig
	App            AppConfig
}

type HttpServerConfig struct {
	Host string `envconfig:"HTTP_SERVER_HOST" default:"0.0.0.0"`
	Port string `envconfig:"HTTP_SERVER_PORT" default:"8081"`
}

type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"reconciliation"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type HttpClientConfig struct {
	Type                string  `envconfig:"HTTP_CLIENT_TYPE" default:"consecutive"`
	Timeout             int     `envconfig:"HTTP_CLIENT_TIMEOUT" default:"15"`
	ConsecutiveFailures int64   `envconfig:"HTTP_CLIENT_CONSECUTIVE_FAILURES" default:"5"`
	ErrorRate           float64 `envconfig:"HTTP_CLIENT_ERROR_RATE" default:"0.5"`
	MinSamples          int64   `envconfig:"HTTP_CLIENT_MIN_SAMPLES" default:"10"`
}

type MessageStreamConfig struct {
	Host     string `envconfig:"AMQP_HOST" default:"localhost"`
	Port     string `envconfig:"AMQP_PORT" default:"5672"`
	User     string `envconfig:"AMQP_USER" default:"guest"`
	Password string `envconfig:"AMQP_PASSWORD" default:"guest"`
}

// GatewayConfig holds the payment gateway credentials. Environment is the
// only switch that may enable the sandbox pending-as-success heuristic; it is
// validated at startup so the heuristic cannot be left on in production by a
// stray boolean.
type GatewayConfig struct {
	BaseURL     string `envconfig:"GATEWAY_BASE_URL" default:"https://api-preprod.phonepe.com/apis/pg-sandbox"`
	MerchantID  string `envconfig:"GATEWAY_MERCHANT_ID" required:"true"`
	SaltKey     string `envconfig:"GATEWAY_SALT_KEY" required:"true"`
	SaltIndex   string `envconfig:"GATEWAY_SALT_INDEX" default:"1"`
	Environment string `envconfig:"GATEWAY_ENVIRONMENT" default:"sandbox"`
}

func (g *GatewayConfig) IsSandbox() bool {
	return g.Environment == EnvSandbox
}

type BookingServiceConfig struct {
	BaseURL string `envconfig:"BOOKING_SERVICE_BASE_URL" default:"http://localhost:8082"`
}

type PaymentServiceConfig struct {
	BaseURL string `envconfig:"PAYMENT_SERVICE_BASE_URL" default:"http://localhost:8083"`
}

type MailServiceConfig struct {
	BaseURL     string `envconfig:"MAIL_SERVICE_BASE_URL" default:"http://localhost:8084"`
	FromName    string `envconfig:"MAIL_FROM_NAME" default:"Little Champs Events"`
	FromAddress string `envconfig:"MAIL_FROM_ADDRESS" default:"bookings@littlechamps.events"`
}

type AppConfig struct {
	// BaseURL resolves relative links inside outgoing emails.
	BaseURL        string `envconfig:"APP_BASE_URL" default:"http://localhost:8081"`
	DefaultEventID int64  `envconfig:"APP_DEFAULT_EVENT_ID" default:"1"`
	DefaultGameID  int64  `envconfig:"APP_DEFAULT_GAME_ID" default:"1"`
}

func InitConfig() *Config {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("error load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("error validate config: %v", err)
	}
	return &cfg
}

func (c *Config) Validate() error {
	switch c.Gateway.Environment {
	case EnvProduction, EnvSandbox:
	default:
		return ErrInvalidGatewayEnvironment
	}
	return nil
}
