package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var AppEnv Config

type Config struct {
	Port   string `envconfig:"PORT" default:"8080"`
	DBName string `envconfig:"DB_NAME" default:"storefront"`

	MongoURI string `envconfig:"MONGO_URI" required:"true"`

	JWTSecret       string        `envconfig:"JWT_SECRET" required:"true"`
	AccessTokenTTL  time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"20m"`
	RefreshTokenTTL time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"168h"`

	// PhonePe-compatible gateway credentials. Amounts are sent in paise.
	GatewayBaseURL    string `envconfig:"GATEWAY_BASE_URL" default:"https://api-preprod.phonepe.com/apis/pg-sandbox"`
	GatewayMerchantID string `envconfig:"GATEWAY_MERCHANT_ID"`
	GatewaySaltKey    string `envconfig:"GATEWAY_SALT_KEY"`
	GatewaySaltIndex  string `envconfig:"GATEWAY_SALT_INDEX" default:"1"`
	PaymentRedirect   string `envconfig:"PAYMENT_REDIRECT_URL" default:"http://localhost:3000/payment/status"`
	PaymentCallback   string `envconfig:"PAYMENT_CALLBACK_URL" default:"http://localhost:8080/webhooks/phonepe"`

	// Optional integrations; empty values disable the feature.
	KafkaBrokers     string        `envconfig:"KAFKA_BROKERS"`
	PostmarkToken    string        `envconfig:"POSTMARK_API_TOKEN"`
	EmailSender      string        `envconfig:"EMAIL_SENDER"`
	CronSecret       string        `envconfig:"CRON_SECRET"`
	StaleOrderMaxAge time.Duration `envconfig:"STALE_ORDER_MAX_AGE" default:"24h"`
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	if err := envconfig.Process("", &AppEnv); err != nil {
		log.Fatal("config: ", err)
	}
}
