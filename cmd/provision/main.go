// Command provision creates an account in the MySQL store and prints an
// access token for it.  Accounts are managed by operators; the API has
// no registration or login endpoints.
//
//	go run ./cmd/provision -email ada@example.com -name Ada -role SUPER_ADMIN
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/iliyamo/eventify/internal/config"
	"github.com/iliyamo/eventify/internal/database"
	"github.com/iliyamo/eventify/internal/model"
	"github.com/iliyamo/eventify/internal/repository"
	"github.com/iliyamo/eventify/internal/utils"
)

func main() {
	email := flag.String("email", "", "account email (required)")
	name := flag.String("name", "", "display name used in notifications")
	role := flag.String("role", model.RoleUser, "USER, ORGANIZER or SUPER_ADMIN")
	tokenOnly := flag.Uint64("token-for", 0, "skip creation and mint a token for this existing user id")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		log.Fatal(err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.StoreDriver != config.StoreMySQL {
		log.Fatalf("provision needs STORE_DRIVER=%s", config.StoreMySQL)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	users := repository.NewUserRepo(db)

	var u *model.User
	if *tokenOnly != 0 {
		u, err = users.GetByID(ctx, *tokenOnly)
	} else {
		u, err = create(ctx, users, *email, *name, *role)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "provision:", err)
		os.Exit(1)
	}

	tok, err := utils.NewAccessToken(cfg.JWTSecret, u.ID, u.Role, cfg.AccessTTLMin)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("user_id=%d role=%s\n", u.ID, u.Role)
	fmt.Printf("access_token=%s\n", tok.Token)
	fmt.Printf("expires_at=%s\n", tok.Exp.Format(time.RFC3339))
}

func create(ctx context.Context, users *repository.UserRepo, email, name, role string) (*model.User, error) {
	switch role {
	case model.RoleUser, model.RoleOrganizer, model.RoleSuperAdmin:
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if email == "" {
		return nil, errors.New("-email is required")
	}
	id, err := users.Create(ctx, email, name, role)
	if errors.Is(err, repository.ErrConflict) {
		return nil, fmt.Errorf("an account with email %s already exists", email)
	}
	if err != nil {
		return nil, err
	}
	return users.GetByID(ctx, id)
}
