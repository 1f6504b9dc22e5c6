package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName string

	ServerPort int

	DatabaseURL string

	JWTAccessSecret []byte
	AccessTokenTTL  time.Duration
	AdminEmails     []string
	CookieSecure    bool

	LogLevel string
	LogFile  string

	KafkaBrokers []string
	KafkaTopic   string

	RedisAddr     string
	OrderCacheTTL time.Duration

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string
	ElasticIndex    string

	AuthRatePerSec float64
	AuthRateBurst  int
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "shop-orders"),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret: []byte(os.Getenv("JWT_SECRET")),
		AccessTokenTTL:  time.Duration(EnvIntDefault("ACCESS_TOKEN_TTL_MIN", 60)) * time.Minute,
		AdminEmails:     CSV(os.Getenv("ADMIN_EMAILS")),
		CookieSecure:    EnvBoolDefault("COOKIE_SECURE", true),

		LogLevel: EnvDefault("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   EnvDefault("KAFKA_TOPIC", "shop.orders"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		OrderCacheTTL: time.Duration(EnvIntDefault("ORDER_CACHE_TTL_SEC", 300)) * time.Second,

		ElasticURL:      os.Getenv("ELASTIC_URL"),
		ElasticUser:     os.Getenv("ELASTIC_USER"),
		ElasticPassword: os.Getenv("ELASTIC_PASSWORD"),
		ElasticIndex:    EnvDefault("ELASTIC_INDEX", "products"),

		AuthRatePerSec: EnvFloatDefault("AUTH_RATE_PER_SEC", 5),
		AuthRateBurst:  EnvIntDefault("AUTH_RATE_BURST", 10),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvFloatDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
