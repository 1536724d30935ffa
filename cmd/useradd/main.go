// Command useradd creates or removes accounts directly in the database. It
// is the only way to obtain an admin account.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/ovaphlow/pitchfork/service-auth/internal/config"
	"github.com/ovaphlow/pitchfork/service-auth/internal/user"
	"github.com/ovaphlow/pitchfork/service-auth/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-auth/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-auth/pkg/database"
	"github.com/ovaphlow/pitchfork/service-auth/pkg/utilities"
)

func main() {
	_ = godotenv.Load()

	configPath := pflag.StringP("config", "c", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	email := pflag.StringP("email", "e", "", "account email")
	password := pflag.StringP("password", "p", "", "account password")
	roleName := pflag.StringP("role", "r", "user", "role: user, admin or agency")
	remove := pflag.Bool("delete", false, "delete the account instead of creating it")
	pflag.Parse()

	if err := run(*configPath, *email, *password, *roleName, *remove); err != nil {
		fmt.Fprintf(os.Stderr, "useradd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, email, password, roleName string, remove bool) error {
	if email == "" {
		return fmt.Errorf("--email is required")
	}
	role, ok := entity.ParseRole(roleName)
	if !ok {
		return fmt.Errorf("unknown role %q", roleName)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		return err
	}
	defer lg.Sync()

	sqlDB, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	ids, err := utilities.NewIDGenerator(cfg.App.NodeID)
	if err != nil {
		return err
	}
	svc := user.NewUserService(userrepo.NewUserRepo(sqlx.NewDb(sqlDB, cfg.DB.Driver)), user.DefaultArgon2Hasher(), ids, lg.Sugar())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if remove {
		if err := svc.Delete(ctx, email); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", user.NormalizeEmail(email))
		return nil
	}

	u, err := svc.CreateWithRole(ctx, email, password, role)
	if err != nil {
		return err
	}
	fmt.Printf("created %s (id %d, role %s)\n", u.Email, u.ID, u.Role)
	return nil
}
