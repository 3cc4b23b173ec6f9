package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-ddd-user-registration/config"
	"github.com/oksasatya/go-ddd-user-registration/internal/container"
	pginfra "github.com/oksasatya/go-ddd-user-registration/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/go-ddd-user-registration/internal/interface/http"
	"github.com/oksasatya/go-ddd-user-registration/pkg/helpers"
	"github.com/oksasatya/go-ddd-user-registration/pkg/problem"
	"github.com/oksasatya/go-ddd-user-registration/pkg/validation"
)

// seed registers an initial user through the same use case as the API.
// SEED_PASSWORD may be left empty to have one generated and printed.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	if cfg.StorageDriver == config.StorageDriverPostgres {
		if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
	}

	c, err := container.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to build container: %v", err)
	}
	defer c.Close()

	name := envOr("SEED_NAME", "Administrator")
	email := envOr("SEED_EMAIL", "admin@example.com")
	roleID, err := strconv.ParseInt(envOr("SEED_ROLE_ID", "1"), 10, 64)
	if err != nil {
		log.Fatalf("invalid SEED_ROLE_ID: %v", err)
	}
	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password, err = helpers.GeneratePassword(helpers.DefaultPasswordLength)
		if err != nil {
			log.Fatalf("failed to generate password: %v", err)
		}
	}

	req := handlers.CreateUserRequest{Name: name, Email: email, RoleID: roleID, Password: &password}
	if err := req.Validate(); err != nil {
		log.Fatalf("invalid seed user: %v", validation.ToDetails(err))
	}

	out, err := c.CreateUser.Execute(ctx, req.Input())
	if problem.Is(err, problem.KindEmailAlreadyExists) {
		fmt.Printf("user %s already exists, nothing to do\n", req.Email)
		return
	}
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%d email=%s name=%s role_id=%d password=%s\n", out.ID, out.Email, out.Name, out.RoleID, *req.Password)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
