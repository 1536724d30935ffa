package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	ErrNoDSN       = ErrConfig("db.dsn is empty")
	ErrNoJWTSecret = ErrConfig("auth.jwt_secret is empty")
)

// legacyEnv lists the flat variable names accepted next to the
// dotted-path ones (AUTH_JWT_SECRET and so on).
var legacyEnv = map[string][]string{
	"db.dsn":                 {"DB_DSN", "DATABASE_URL"},
	"auth.jwt_alg":           {"AUTH_JWT_ALG", "JWT_ALG"},
	"auth.jwt_secret":        {"AUTH_JWT_SECRET", "JWT_SECRET"},
	"auth.access_token_key":  {"AUTH_ACCESS_TOKEN_KEY", "ACCESS_TOKEN_KEY"},
	"auth.refresh_token_key": {"AUTH_REFRESH_TOKEN_KEY", "REFRESH_TOKEN_KEY"},
	"auth.secure_cookies":    {"AUTH_SECURE_COOKIES", "SECURE_COOKIES"},
	"auth.site_domain":       {"AUTH_SITE_DOMAIN", "SITE_DOMAIN"},
	"google.client_id":       {"GOOGLE_CLIENT_ID"},
	"google.client_secret":   {"GOOGLE_CLIENT_SECRET"},
	"google.redirect_uri":    {"GOOGLE_REDIRECT_URI"},
}

// Load reads the optional YAML file at path, then applies defaults and
// environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetDefault("app.name", "service-auth")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.node_id", 1)

	v.SetDefault("server.addr", "0.0.0.0:8431")
	v.SetDefault("server.read_timeout", "5s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.graceful_timeout", "15s")

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_conns", 5)
	v.SetDefault("db.timeout", "5s")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.client_encoding", "UTF8")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.dev", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_age", "168h")
	v.SetDefault("log.rotation_time", "24h")

	v.SetDefault("auth.jwt_alg", "HS256")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_key", "accessToken")
	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_key", "refreshToken")
	v.SetDefault("auth.refresh_token_ttl", "504h")
	v.SetDefault("auth.secure_cookies", true)
	v.SetDefault("auth.site_domain", "")

	v.SetDefault("google.client_id", "")
	v.SetDefault("google.client_secret", "")
	v.SetDefault("google.redirect_uri", "")
	v.SetDefault("google.success_redirect", "/")

	v.SetDefault("otel.enable", false)
	v.SetDefault("otel.service_name", "service-auth")
	v.SetDefault("otel.sample_ratio", 1.0)
	v.SetDefault("otel.otlp_endpoint", "localhost:4317")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.DB.DSN == "" {
		cfg.DB.DSN = postgresDSNFromEnv()
	}

	if cfg.DB.DSN == "" {
		return nil, ErrNoDSN
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, ErrNoJWTSecret
	}
	return &cfg, nil
}

// postgresDSNFromEnv assembles a URL from the POSTGRES_* variables used by
// the container images, or returns "" when POSTGRES_HOST is unset.
func postgresDSNFromEnv() string {
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		return ""
	}
	if port := os.Getenv("POSTGRES_PORT"); port != "" {
		host = net.JoinHostPort(host, port)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(os.Getenv("POSTGRES_USER"), os.Getenv("POSTGRES_PASSWORD")),
		Host:     host,
		Path:     "/" + os.Getenv("POSTGRES_DB"),
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
