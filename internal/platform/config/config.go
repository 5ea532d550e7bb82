package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration shared by the gateway services.
// Values come from configs/config.defaults.yaml, overridden by APP_ prefixed
// environment variables (APP_LOG_LEVEL, APP_NATS_URL, ...).
type Config struct {
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	NATSURL     string `mapstructure:"NATS_URL"`
	PostgresDSN string `mapstructure:"POSTGRES_DSN"`

	WebhookServicePort        int `mapstructure:"WEBHOOK_SERVICE_PORT"`
	WebhookServiceMetricsPort int `mapstructure:"WEBHOOK_SERVICE_METRICS_PORT"`
	// DispatcherServicePort serves the reply-log query API; only bound when
	// persistence is configured.
	DispatcherServicePort        int `mapstructure:"DISPATCHER_SERVICE_PORT"`
	DispatcherServiceMetricsPort int `mapstructure:"DISPATCHER_SERVICE_METRICS_PORT"`

	// WebhookVerifyToken is the pre-shared token echoed back during the
	// provider's GET verification handshake.
	WebhookVerifyToken string `mapstructure:"WEBHOOK_VERIFY_TOKEN"`
	// WebhookSecret keys the HMAC-SHA256 signature check on webhook POSTs.
	// Empty disables signature verification.
	WebhookSecret string `mapstructure:"WEBHOOK_SECRET"`
	// APISecretKey authenticates callers of the outbound send API. The same
	// secret signs HS256 bearer tokens accepted as an alternative.
	APISecretKey string `mapstructure:"API_SECRET_KEY"`

	// WhatsAppProvider selects the outbound backend: "cloud", "twilio",
	// "webjs" or "mock".
	WhatsAppProvider string `mapstructure:"WHATSAPP_PROVIDER"`

	WhatsAppAPIBaseURL    string `mapstructure:"WHATSAPP_API_BASE_URL"`
	WhatsAppPhoneNumberID string `mapstructure:"WHATSAPP_PHONE_NUMBER_ID"`
	WhatsAppAccessToken   string `mapstructure:"WHATSAPP_ACCESS_TOKEN"`

	TwilioAccountSID     string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken      string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioWhatsAppNumber string `mapstructure:"TWILIO_WHATSAPP_NUMBER"`

	// WebJSBaseURL points at the local whatsapp-web.js bridge used by the
	// "webjs" provider.
	WebJSBaseURL string `mapstructure:"WEBJS_BASE_URL"`
}

// Load reads configuration for the named service. serviceName is kept for
// future layered overrides (serviceName.yaml); currently only the shared
// defaults file is read.
func Load(serviceName string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config.defaults")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath("../../../configs")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.SetEnvPrefix("APP")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("NATS_URL", "nats://localhost:4222")
	v.SetDefault("POSTGRES_DSN", "")

	v.SetDefault("WEBHOOK_SERVICE_PORT", 8080)
	v.SetDefault("WEBHOOK_SERVICE_METRICS_PORT", 9091)
	v.SetDefault("DISPATCHER_SERVICE_PORT", 8081)
	v.SetDefault("DISPATCHER_SERVICE_METRICS_PORT", 9092)

	v.SetDefault("WEBHOOK_VERIFY_TOKEN", "verify-token-must-be-overridden-in-prod")
	v.SetDefault("WEBHOOK_SECRET", "")
	v.SetDefault("API_SECRET_KEY", "api-key-must-be-overridden-in-prod")

	v.SetDefault("WHATSAPP_PROVIDER", "cloud")
	v.SetDefault("WHATSAPP_API_BASE_URL", "https://graph.facebook.com/v18.0")
	v.SetDefault("WHATSAPP_PHONE_NUMBER_ID", "")
	v.SetDefault("WHATSAPP_ACCESS_TOKEN", "")

	v.SetDefault("TWILIO_ACCOUNT_SID", "")
	v.SetDefault("TWILIO_AUTH_TOKEN", "")
	v.SetDefault("TWILIO_WHATSAPP_NUMBER", "")

	v.SetDefault("WEBJS_BASE_URL", "http://localhost:3000")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Base configuration file ('config.defaults.yaml') not found for %s; using defaults and environment variables.", serviceName)
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
