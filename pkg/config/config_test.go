package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a", "b"}, CSV(" a, ,b ,"))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "")
	t.Setenv("KAFKA_TOPIC", "")
	t.Setenv("ELASTIC_INDEX", "")
	t.Setenv("COOKIE_SECURE", "")

	cfg := Load()
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, "shop.orders", cfg.KafkaTopic)
	assert.Equal(t, "products", cfg.ElasticIndex)
	assert.True(t, cfg.CookieSecure)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "5")
	t.Setenv("ADMIN_EMAILS", "root@shop.io,ops@shop.io")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("AUTH_RATE_PER_SEC", "not-a-number")
	t.Setenv("COOKIE_SECURE", "false")

	cfg := Load()
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, []string{"root@shop.io", "ops@shop.io"}, cfg.AdminEmails)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5.0, cfg.AuthRatePerSec)
	assert.False(t, cfg.CookieSecure)
}
