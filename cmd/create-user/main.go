// Command create-user seeds an administrative user. There is no public
// registration endpoint; operators are provisioned with this tool.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/crypto/bcrypt"

	"github.com/carloseedutra-ti/EPIFlow/internal/config"
	"github.com/carloseedutra-ti/EPIFlow/internal/domain"
	"github.com/carloseedutra-ti/EPIFlow/internal/platform/postgres"
)

func main() {
	email := flag.String("email", "", "email address for the new user")
	password := flag.String("password", "", "plaintext password (12-72 characters)")
	displayName := flag.String("name", "", "display name shown on task audit records")
	tenant := flag.String("tenant", "", "tenant UUID; omit to create a new tenant")
	flag.Parse()

	if *email == "" || *password == "" {
		flag.Usage()
		log.Fatal("both -email and -password are required")
	}

	tenantID := uuid.New()
	if *tenant != "" {
		parsed, err := uuid.Parse(*tenant)
		if err != nil {
			log.Fatalf("invalid tenant ID: %v", err)
		}
		tenantID = parsed
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		log.Fatalf("failed to open database connection: %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	user, err := domain.NewUser(tenantID, *email, *displayName, *password)
	if err != nil {
		log.Fatalf("invalid user: %v", err)
	}

	userStore := postgres.NewPostgresUserStore(db, bcrypt.DefaultCost, nil)
	if err := userStore.Create(ctx, user); err != nil {
		log.Fatalf("failed to create user: %v", err)
	}

	fmt.Printf("created user %s\n  email:  %s\n  tenant: %s\n", user.ID, user.Email, user.TenantID)
}
