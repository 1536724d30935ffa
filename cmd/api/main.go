package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/pflag"

	"github.com/ovaphlow/pitchfork/service-auth/internal/auth"
	authrepo "github.com/ovaphlow/pitchfork/service-auth/internal/auth/repo"
	"github.com/ovaphlow/pitchfork/service-auth/internal/config"
	"github.com/ovaphlow/pitchfork/service-auth/internal/migrations"
	"github.com/ovaphlow/pitchfork/service-auth/internal/obs"
	"github.com/ovaphlow/pitchfork/service-auth/internal/router"
	"github.com/ovaphlow/pitchfork/service-auth/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-auth/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-auth/pkg/database"
	"github.com/ovaphlow/pitchfork/service-auth/pkg/utilities"
)

func main() {
	// load .env file if present so the environment picks values from it
	_ = godotenv.Load()

	configPath := pflag.StringP("config", "c", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	skipMigrate := pflag.Bool("skip-migrate", false, "do not apply database migrations on startup")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar().With("app", cfg.App.Name, "env", cfg.App.Env)
	sugar.Info("starting service-auth")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracing, err := obs.SetupOTel(ctx, cfg.OTEL)
	if err != nil {
		sugar.Fatalf("otel setup: %v", err)
	}

	sqlDB, err := database.Connect(cfg.DB)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer sqlDB.Close()

	if !*skipMigrate {
		if err := database.Migrate(ctx, sqlDB, migrations.FS); err != nil {
			sugar.Fatalf("db migrate: %v", err)
		}
	}

	// sqlx wraps the pool for the repositories
	sqlxDB := sqlx.NewDb(sqlDB, cfg.DB.Driver)

	ids, err := utilities.NewIDGenerator(cfg.App.NodeID)
	if err != nil {
		sugar.Fatalf("id generator: %v", err)
	}
	clock := clockwork.NewRealClock()

	codec, err := auth.NewTokenCodec(cfg.Auth.JWTAlg, cfg.Auth.JWTSecret, clock)
	if err != nil {
		sugar.Fatalf("token codec: %v", err)
	}
	users := user.NewUserService(userrepo.NewUserRepo(sqlxDB), user.DefaultArgon2Hasher(), ids, sugar)
	refresh := auth.NewRefreshStore(authrepo.NewRefreshRepo(sqlxDB), clock, cfg.Auth.RefreshTokenTTL)
	authSvc := auth.NewService(users, codec, refresh, cfg.Auth.AccessTokenTTL, sugar)

	var sso auth.IdentityProvider
	if cfg.Google.Enabled() {
		sso = auth.NewGoogleProvider(cfg.Google)
	} else {
		sugar.Info("google sso disabled: client id or secret not configured")
	}
	authHandler := auth.NewHandler(authSvc, cfg.Auth.AsCookieSettings(), sso, cfg.Google.SuccessRedirect, sugar)

	handler := router.RegisterRoutes(sugar, authHandler, sqlDB.PingContext)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sugar.Infow("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	// pending background revocations still need the pool
	if err := authSvc.Wait(); err != nil {
		sugar.Warnf("background revocation failed: %v", err)
	}
	if err := tracing.Shutdown(doneCtx); err != nil {
		sugar.Warnf("otel shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
