// Package main is the entry point for the Stockroom admin CLI.
// It manages user accounts directly against the configured database,
// which is how the first administrator account gets created.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockroom-io/stockroom/internal/config"
	"github.com/stockroom-io/stockroom/internal/repository"
	"github.com/stockroom-io/stockroom/internal/repository/postgres"
	"github.com/stockroom-io/stockroom/internal/repository/sqlite"
	"github.com/stockroom-io/stockroom/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version":
		fmt.Printf("Stockroom Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "user":
		if err := runUserCommand(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runUserCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("user subcommand required: create, list or delete")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("user create", flag.ExitOnError)
		configPath := fs.String("config", "", "path to configuration file")
		username := fs.String("username", "", "username for the new account")
		password := fs.String("password", "", "password for the new account")
		roles := fs.String("roles", "", "comma-separated role list (default Employee)")
		_ = fs.Parse(args[1:])

		users, closeDB, err := openUserService(ctx, *configPath)
		if err != nil {
			return err
		}
		defer closeDB()

		var roleList []string
		if *roles != "" {
			for _, r := range strings.Split(*roles, ",") {
				roleList = append(roleList, strings.TrimSpace(r))
			}
		}

		user, err := users.Create(ctx, service.CreateUserInput{
			Username: *username,
			Password: *password,
			Roles:    roleList,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Created user %s (%s) with roles %s\n",
			user.Username, user.ID, strings.Join(user.Roles, ", "))
		return nil

	case "list":
		fs := flag.NewFlagSet("user list", flag.ExitOnError)
		configPath := fs.String("config", "", "path to configuration file")
		_ = fs.Parse(args[1:])

		users, closeDB, err := openUserService(ctx, *configPath)
		if err != nil {
			return err
		}
		defer closeDB()

		list, err := users.List(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tROLES\tACTIVE\tCREATED")
		for _, u := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n",
				u.ID, u.Username, strings.Join(u.Roles, ","), u.Active,
				u.CreatedAt.Format(time.RFC3339))
		}
		return w.Flush()

	case "delete":
		fs := flag.NewFlagSet("user delete", flag.ExitOnError)
		configPath := fs.String("config", "", "path to configuration file")
		id := fs.String("id", "", "ID of the user to delete")
		_ = fs.Parse(args[1:])

		users, closeDB, err := openUserService(ctx, *configPath)
		if err != nil {
			return err
		}
		defer closeDB()

		user, err := users.Delete(ctx, *id)
		if err != nil {
			return err
		}

		fmt.Printf("Deleted user %s (%s)\n", user.Username, user.ID)
		return nil

	default:
		return fmt.Errorf("unknown user subcommand: %s", args[0])
	}
}

// openUserService connects to the configured database and builds a user
// service over it. The returned func closes the connection.
func openUserService(ctx context.Context, configPath string) (*service.UserService, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)

	var (
		userRepo repository.UserRepository
		closeDB  func()
	)

	if cfg.Database.IsEmbedded() {
		db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(cfg.Database.Path), logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		userRepo = sqlite.NewUserRepository(db)
		closeDB = func() { db.Close() }
	} else {
		db, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		userRepo = postgres.NewUserRepository(db)
		closeDB = func() { db.Close() }
	}

	return service.NewUserService(userRepo, nil, logger), closeDB, nil
}

func printUsage() {
	fmt.Println(`Stockroom Admin CLI

Usage:
  stockroom-admin <command> [arguments]

Commands:
  user        Manage users (create, list, delete)
  version     Print version information
  help        Show this help message

Examples:
  stockroom-admin user create -username admin -password secret -roles Admin
  stockroom-admin user list
  stockroom-admin user delete -id <uuid>

Configuration is read the same way as the server: -config flag, config.yaml
in the working directory, or STOCKROOM_* environment variables.`)
}
