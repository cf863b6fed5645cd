package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// CashbackPolicy decides when offer cashback reaches the wallet.
type CashbackPolicy string

const (
	CashbackAtCompletion CashbackPolicy = "at_completion"
	CashbackAtBooking    CashbackPolicy = "at_booking"
	CashbackManual       CashbackPolicy = "manual"
)

// Pricing is the policy block consumed by the cost composer and booking flows.
type Pricing struct {
	PlatformFee          decimal.Decimal
	GSTEnabled           bool
	GSTRate              decimal.Decimal
	CashbackPolicy       CashbackPolicy
	RefundWalletOnCancel bool
	PaymentTolerance     decimal.Decimal
}

// DefaultPricing matches the behaviour when no pricing variables are set.
func DefaultPricing() Pricing {
	return Pricing{
		PlatformFee:          decimal.Zero,
		GSTEnabled:           false,
		GSTRate:              decimal.NewFromInt(18),
		CashbackPolicy:       CashbackAtCompletion,
		RefundWalletOnCancel: true,
		PaymentTolerance:     decimal.RequireFromString("0.01"),
	}
}

type Settings struct {
	Port      string
	DBDriver  string
	DBURL     string
	LogLevel  string
	LogFormat string
	Location  *time.Location
	JWTSecret string

	// Shared with the payment gateway handler; sent as X-Webhook-Secret.
	PaymentWebhookSecret string

	Pricing Pricing

	RedisAddr      string
	KafkaBrokers   []string
	KafkaTopic     string
	JaegerURL      string
	ReminderCron   string
	TwilioSID      string
	TwilioToken    string
	TwilioPhone    string
	TwilioWhatsApp string

	CORSOrigins []string
}

// LoadSettings reads .env (if present), the environment and the optional YAML pricing file.
func LoadSettings() (*Settings, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found")
	}

	s := &Settings{
		Port:                 getEnv("PORT", "8080"),
		DBDriver:             getEnv("DB_DRIVER", "postgres"),
		DBURL:                os.Getenv("DB_URL"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "json"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		PaymentWebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		KafkaTopic:           getEnv("KAFKA_TOPIC", "appointment-events"),
		JaegerURL:            os.Getenv("JAEGER_ENDPOINT"),
		ReminderCron:         getEnv("REMINDER_CRON", "0 9 * * *"),
		TwilioSID:            os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioToken:          os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioPhone:          os.Getenv("TWILIO_PHONE_NUMBER"),
		TwilioWhatsApp:       os.Getenv("TWILIO_WHATSAPP_NUMBER"),
	}

	s.KafkaBrokers = splitList(os.Getenv("KAFKA_BROKERS"))
	s.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "http://localhost:3000"))

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Asia/Kolkata"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid TIMEZONE")
	}
	s.Location = loc

	pricing, err := pricingFromEnv(DefaultPricing())
	if err != nil {
		return nil, err
	}
	if path := os.Getenv("PRICING_CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read pricing config %s", path)
		}
		if pricing, err = ParsePricingYAML(raw, pricing); err != nil {
			return nil, err
		}
	}
	s.Pricing = pricing

	return s, nil
}

func pricingFromEnv(p Pricing) (Pricing, error) {
	var err error
	if v := os.Getenv("PLATFORM_FEE"); v != "" {
		if p.PlatformFee, err = decimal.NewFromString(v); err != nil {
			return p, errors.Wrap(err, "invalid PLATFORM_FEE")
		}
	}
	if v := os.Getenv("GST_ENABLED"); v != "" {
		if p.GSTEnabled, err = strconv.ParseBool(v); err != nil {
			return p, errors.Wrap(err, "invalid GST_ENABLED")
		}
	}
	if v := os.Getenv("GST_RATE"); v != "" {
		if p.GSTRate, err = decimal.NewFromString(v); err != nil {
			return p, errors.Wrap(err, "invalid GST_RATE")
		}
	}
	if v := os.Getenv("CASHBACK_POLICY"); v != "" {
		p.CashbackPolicy = CashbackPolicy(v)
	}
	if v := os.Getenv("REFUND_WALLET_ON_CANCEL"); v != "" {
		if p.RefundWalletOnCancel, err = strconv.ParseBool(v); err != nil {
			return p, errors.Wrap(err, "invalid REFUND_WALLET_ON_CANCEL")
		}
	}
	if v := os.Getenv("PAYMENT_TOLERANCE"); v != "" {
		if p.PaymentTolerance, err = decimal.NewFromString(v); err != nil {
			return p, errors.Wrap(err, "invalid PAYMENT_TOLERANCE")
		}
	}
	return p, p.Validate()
}

type pricingFile struct {
	PlatformFee *string `yaml:"platformFee"`
	GST         *struct {
		Enabled *bool   `yaml:"enabled"`
		Rate    *string `yaml:"rate"`
	} `yaml:"gst"`
	CashbackPolicy       *string `yaml:"cashbackPolicy"`
	RefundWalletOnCancel *bool   `yaml:"refundWalletOnCancel"`
	PaymentTolerance     *string `yaml:"paymentTolerance"`
}

// ParsePricingYAML overlays the keys present in raw onto base.
func ParsePricingYAML(raw []byte, base Pricing) (Pricing, error) {
	var f pricingFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return base, errors.Wrap(err, "parse pricing config")
	}
	p := base
	var err error
	if f.PlatformFee != nil {
		if p.PlatformFee, err = decimal.NewFromString(*f.PlatformFee); err != nil {
			return base, errors.Wrap(err, "pricing config: platformFee")
		}
	}
	if f.GST != nil {
		if f.GST.Enabled != nil {
			p.GSTEnabled = *f.GST.Enabled
		}
		if f.GST.Rate != nil {
			if p.GSTRate, err = decimal.NewFromString(*f.GST.Rate); err != nil {
				return base, errors.Wrap(err, "pricing config: gst.rate")
			}
		}
	}
	if f.CashbackPolicy != nil {
		p.CashbackPolicy = CashbackPolicy(*f.CashbackPolicy)
	}
	if f.RefundWalletOnCancel != nil {
		p.RefundWalletOnCancel = *f.RefundWalletOnCancel
	}
	if f.PaymentTolerance != nil {
		if p.PaymentTolerance, err = decimal.NewFromString(*f.PaymentTolerance); err != nil {
			return base, errors.Wrap(err, "pricing config: paymentTolerance")
		}
	}
	return p, p.Validate()
}

func (p Pricing) Validate() error {
	if p.PlatformFee.IsNegative() {
		return errors.New("platform fee must not be negative")
	}
	if p.GSTRate.IsNegative() || p.GSTRate.GreaterThan(decimal.NewFromInt(100)) {
		return errors.New("gst rate must be between 0 and 100")
	}
	if p.PaymentTolerance.IsNegative() {
		return errors.New("payment tolerance must not be negative")
	}
	switch p.CashbackPolicy {
	case CashbackAtCompletion, CashbackAtBooking, CashbackManual:
	default:
		return errors.Errorf("unknown cashback policy %q", p.CashbackPolicy)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
