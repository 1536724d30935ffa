package config

import (
	"time"

	"github.com/ovaphlow/pitchfork/service-auth/internal/auth"
	"github.com/ovaphlow/pitchfork/service-auth/internal/obs"
	"github.com/ovaphlow/pitchfork/service-auth/pkg/database"
	"github.com/ovaphlow/pitchfork/service-auth/pkg/utilities"
)

type App struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	// NodeID seeds the snowflake generator; unique per running instance.
	NodeID int64 `mapstructure:"node_id"`
}

type Server struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type Auth struct {
	JWTAlg          string        `mapstructure:"jwt_alg"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	AccessTokenKey  string        `mapstructure:"access_token_key"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenKey string        `mapstructure:"refresh_token_key"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	SecureCookies   bool          `mapstructure:"secure_cookies"`
	SiteDomain      string        `mapstructure:"site_domain"`
}

func (a *Auth) AsCookieSettings() auth.CookieSettings {
	return auth.CookieSettings{
		AccessName:  a.AccessTokenKey,
		RefreshName: a.RefreshTokenKey,
		AccessTTL:   a.AccessTokenTTL,
		RefreshTTL:  a.RefreshTokenTTL,
		Secure:      a.SecureCookies,
		Domain:      a.SiteDomain,
	}
}

type Config struct {
	App    App               `mapstructure:"app"`
	Server Server            `mapstructure:"server"`
	DB     database.Config   `mapstructure:"db"`
	Log    utilities.Config  `mapstructure:"log"`
	Auth   Auth              `mapstructure:"auth"`
	Google auth.GoogleConfig `mapstructure:"google"`
	OTEL   obs.OTELConfig    `mapstructure:"otel"`
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
