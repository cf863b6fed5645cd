package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePricingYAML(t *testing.T) {
	raw := []byte(`
platformFee: "10"
gst:
  enabled: true
  rate: "18"
cashbackPolicy: at_booking
paymentTolerance: "0.50"
`)
	p, err := ParsePricingYAML(raw, DefaultPricing())
	require.NoError(t, err)
	assert.True(t, p.PlatformFee.Equal(decimal.NewFromInt(10)))
	assert.True(t, p.GSTEnabled)
	assert.True(t, p.GSTRate.Equal(decimal.NewFromInt(18)))
	assert.Equal(t, CashbackAtBooking, p.CashbackPolicy)
	assert.True(t, p.RefundWalletOnCancel, "absent keys keep the base value")
	assert.True(t, p.PaymentTolerance.Equal(decimal.RequireFromString("0.5")))
}

func TestParsePricingYAML_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not yaml", raw: "platformFee: [1"},
		{name: "bad fee", raw: `platformFee: "ten"`},
		{name: "negative fee", raw: `platformFee: "-1"`},
		{name: "rate above 100", raw: "gst:\n  rate: \"150\""},
		{name: "unknown policy", raw: "cashbackPolicy: sometimes"},
		{name: "negative tolerance", raw: `paymentTolerance: "-0.01"`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParsePricingYAML([]byte(tt.raw), DefaultPricing())
			require.Error(t, err)
		})
	}
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.yaml")
	require.NoError(t, os.WriteFile(path, []byte("platformFee: \"15\"\n"), 0o600))

	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("PLATFORM_FEE", "5")
	t.Setenv("GST_ENABLED", "true")
	t.Setenv("REFUND_WALLET_ON_CANCEL", "false")
	t.Setenv("PRICING_CONFIG_FILE", path)
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("PORT", "")

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "8080", s.Port)
	assert.Equal(t, "UTC", s.Location.String())
	assert.True(t, s.Pricing.PlatformFee.Equal(decimal.NewFromInt(15)), "file overrides env")
	assert.True(t, s.Pricing.GSTEnabled)
	assert.False(t, s.Pricing.RefundWalletOnCancel)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, s.KafkaBrokers)
	assert.Equal(t, []string{"http://localhost:3000"}, s.CORSOrigins)
}

func TestLoadSettings_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "timezone", key: "TIMEZONE", value: "Mars/Olympus"},
		{name: "fee", key: "PLATFORM_FEE", value: "abc"},
		{name: "gst flag", key: "GST_ENABLED", value: "maybe"},
		{name: "policy", key: "CASHBACK_POLICY", value: "never"},
		{name: "missing pricing file", key: "PRICING_CONFIG_FILE", value: "/nonexistent/pricing.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TIMEZONE", "UTC")
			t.Setenv(tt.key, tt.value)
			_, err := LoadSettings()
			require.Error(t, err)
		})
	}
}
