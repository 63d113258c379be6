package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092 , ,b:9092 "))
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("STOREFRONT_TEST_INT", "42")
	t.Setenv("STOREFRONT_TEST_BAD_INT", "forty")
	t.Setenv("STOREFRONT_TEST_DUR", "90s")
	t.Setenv("STOREFRONT_TEST_STR", "value")

	assert.Equal(t, 42, EnvIntDefault("STOREFRONT_TEST_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("STOREFRONT_TEST_BAD_INT", 1))
	assert.Equal(t, 90*time.Second, EnvDurationDefault("STOREFRONT_TEST_DUR", time.Second))
	assert.Equal(t, time.Second, EnvDurationDefault("STOREFRONT_TEST_MISSING", time.Second))
	assert.Equal(t, "value", EnvDefault("STOREFRONT_TEST_STR", "def"))
	assert.Equal(t, "def", EnvDefault("STOREFRONT_TEST_MISSING", "def"))
}

func TestLoadPayPalDefaults(t *testing.T) {
	t.Setenv("PAYPAL_EXECUTE_TIMEOUT", "")
	t.Setenv("PAYPAL_CURRENCY", "")

	cfg := Load()
	assert.Equal(t, 30*time.Second, cfg.PayPal.ExecuteTimeout)
	assert.Equal(t, "USD", cfg.PayPal.Currency)
}

func TestLoadReportSchedules(t *testing.T) {
	t.Setenv("REPORT_EVERY", "")
	t.Setenv("WEEKLY_REPORT_EVERY", "")
	cfg := Load()
	assert.Equal(t, 24*time.Hour, cfg.ReportEvery)
	assert.Equal(t, 7*24*time.Hour, cfg.WeeklyReportEvery)

	t.Setenv("WEEKLY_REPORT_EVERY", "1h")
	assert.Equal(t, time.Hour, Load().WeeklyReportEvery)
}
