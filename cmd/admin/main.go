package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dom/tekky-backend/internal/config"
	"github.com/dom/tekky-backend/internal/repository/postgres"
	"github.com/dom/tekky-backend/internal/service"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"gorm.io/gorm/logger"
)

const commandTimeout = 5 * time.Minute

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	if command == "help" || command == "-h" || command == "--help" {
		printUsage()
		return
	}

	if err := run(command, args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Tekky admin - maintenance commands run against the configured database

USAGE:
  admin <command> [options]

COMMANDS:
  chain             Print the replacement chain starting at a refresh token
  revoke-user       Revoke every live refresh token of a user
  grant-xp          Add (or with a negative amount, remove) XP from a user
  recompute-levels  Rewrite stored levels that disagree with the level formula
  help              Show this help message

ENVIRONMENT:
  DATABASE_URL, JWT_SECRET and the other server settings (a .env file is read)

EXAMPLES:
  admin chain --token-id=8c6f0a52-...
  admin revoke-user --user-id=1d2e...
  admin grant-xp --user-id=1d2e... --amount=-20
  admin recompute-levels`)
}

func run(command string, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.UseMemoryStore() {
		return fmt.Errorf("admin commands need a persistent DATABASE_URL")
	}

	db, err := postgres.NewConnection(cfg.DatabaseURL, logger.Warn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	services := service.NewServices(postgres.NewRepositories(db), cfg)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch command {
	case "chain":
		return chainCmd(ctx, services, args)
	case "revoke-user":
		return revokeUserCmd(ctx, services, args)
	case "grant-xp":
		return grantXPCmd(ctx, services, args)
	case "recompute-levels":
		return recomputeLevelsCmd(ctx, services, args)
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func parseUUIDFlag(fs *pflag.FlagSet, name string) (uuid.UUID, error) {
	raw, err := fs.GetString(name)
	if err != nil {
		return uuid.Nil, err
	}
	if raw == "" {
		return uuid.Nil, fmt.Errorf("--%s is required", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("--%s: %w", name, err)
	}
	return id, nil
}

func chainCmd(ctx context.Context, services *service.Services, args []string) error {
	fs := pflag.NewFlagSet("chain", pflag.ContinueOnError)
	fs.String("token-id", "", "id of the first refresh token in the chain")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tokenID, err := parseUUIDFlag(fs, "token-id")
	if err != nil {
		return err
	}

	chain, err := services.RefreshTokens.Chain(ctx, tokenID)
	if err != nil {
		return err
	}

	fmt.Printf("%-36s  %-7s  %-7s  %-25s  %s\n", "ID", "REVOKED", "EXPIRED", "CREATED", "REPLACED BY")
	now := time.Now()
	for _, t := range chain {
		replacedBy := "-"
		if t.ReplacedByID != nil {
			replacedBy = t.ReplacedByID.String()
		}
		fmt.Printf("%-36s  %-7t  %-7t  %-25s  %s\n",
			t.ID, t.Revoked, t.IsExpired(now), t.CreatedAt.Format(time.RFC3339), replacedBy)
	}
	fmt.Printf("\n%d token(s), user %s\n", len(chain), chain[0].UserID)
	return nil
}

func revokeUserCmd(ctx context.Context, services *service.Services, args []string) error {
	fs := pflag.NewFlagSet("revoke-user", pflag.ContinueOnError)
	fs.String("user-id", "", "user whose refresh tokens are revoked")
	if err := fs.Parse(args); err != nil {
		return err
	}

	userID, err := parseUUIDFlag(fs, "user-id")
	if err != nil {
		return err
	}

	n, err := services.RefreshTokens.RevokeAllForUser(ctx, userID)
	if err != nil {
		return err
	}
	fmt.Printf("Revoked %d refresh token(s) of user %s\n", n, userID)
	return nil
}

func grantXPCmd(ctx context.Context, services *service.Services, args []string) error {
	fs := pflag.NewFlagSet("grant-xp", pflag.ContinueOnError)
	fs.String("user-id", "", "user receiving the grant")
	amount := fs.Int("amount", 0, "XP to add, negative to remove")
	if err := fs.Parse(args); err != nil {
		return err
	}

	userID, err := parseUUIDFlag(fs, "user-id")
	if err != nil {
		return err
	}

	user, err := services.XP.Grant(ctx, userID, *amount)
	if err != nil {
		return err
	}
	fmt.Printf("User %s (%s) now has %d XP, level %d\n", user.ID, user.Username, user.XP, user.Level)
	return nil
}

func recomputeLevelsCmd(ctx context.Context, services *service.Services, args []string) error {
	fs := pflag.NewFlagSet("recompute-levels", pflag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	changed, err := services.XP.RecomputeLevels(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Updated the level of %d user(s)\n", changed)
	return nil
}
