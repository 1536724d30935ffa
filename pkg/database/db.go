package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

// Supported database/sql driver names.
const (
	DriverPQ  = "postgres"
	DriverPGX = "pgx"
)

type Config struct {
	Driver         string        `mapstructure:"driver"`
	DSN            string        `mapstructure:"dsn"`
	MaxConns       int           `mapstructure:"max_conns"`
	Timeout        time.Duration `mapstructure:"timeout"`
	TimeZone       string        `mapstructure:"timezone"`
	ClientEncoding string        `mapstructure:"client_encoding"`
}

// Connect opens a *sql.DB and verifies connectivity with a ping
func Connect(cfg Config) (*sql.DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverPQ
	}
	if driver != DriverPQ && driver != DriverPGX {
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
	dsn, err := withSessionParams(cfg.DSN, cfg.TimeZone, cfg.ClientEncoding)
	if err != nil {
		return nil, fmt.Errorf("build dsn: %w", err)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 5
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// withSessionParams attaches timezone and client_encoding as startup
// parameters so every pooled connection gets them, not only the first one.
// Both lib/pq and pgx forward unknown keys as runtime parameters.
func withSessionParams(dsn, tz, enc string) (string, error) {
	if tz == "" && enc == "" {
		return dsn, nil
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", err
		}
		q := u.Query()
		if tz != "" {
			q.Set("timezone", tz)
		}
		if enc != "" {
			q.Set("client_encoding", enc)
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	}
	// key=value form
	parts := []string{dsn}
	if tz != "" {
		parts = append(parts, "timezone="+quoteLiteral(tz))
	}
	if enc != "" {
		parts = append(parts, "client_encoding="+quoteLiteral(enc))
	}
	return strings.TrimSpace(strings.Join(parts, " ")), nil
}

// quoteLiteral escapes single quotes and backslashes and wraps the value in
// single quotes, as required for values in a key=value connection string.
func quoteLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
