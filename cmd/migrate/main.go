package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/erp/smarterp/internal/infrastructure/config"
	"github.com/erp/smarterp/internal/infrastructure/logger"
	"github.com/erp/smarterp/internal/infrastructure/migration"
	"github.com/erp/smarterp/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	var (
		createDir string
		logLevel  string
	)
	flag.StringVar(&createDir, "dir", "migrations", "Directory new migrations are written to")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	switch command {
	case "create":
		if len(args) < 2 {
			log.Fatal("Migration name required. Usage: migrate create <name> [description]")
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		mf, err := migration.CreateMigration(createDir, args[1], description)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		log.Info("Migration created",
			zap.String("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return

	case "list":
		names, err := migration.ListMigrations(migrations.FS)
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		log.Info("Embedded migrations", zap.Int("count", len(names)))
		for _, n := range names {
			fmt.Println("  -", n)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Database.Dialect != config.DialectPostgres {
		log.Fatal("Versioned migrations target PostgreSQL; sqlite databases are migrated on server start",
			zap.String("dialect", cfg.Database.Dialect))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}

	m, err := migration.New(db, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "step":
		n := intArg(log, args, "Step count required. Usage: migrate step <n>")
		err = m.Steps(n)
	case "force":
		err = m.Force(intArg(log, args, "Version required. Usage: migrate force <version>"))
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil {
			log.Fatal("Failed to get version", zap.Error(verr))
		}
		if version == 0 {
			log.Info("No migrations applied")
		} else {
			log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		}
	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal("Migration command failed", zap.String("command", command), zap.Error(err))
	}
}

func intArg(log *zap.Logger, args []string, usage string) int {
	if len(args) < 2 {
		log.Fatal(usage)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		log.Fatal("Invalid number", zap.String("value", args[1]))
	}
	return n
}

func printUsage() {
	fmt.Println(`smarterp database migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (negative rolls back)
  version               Show current migration version
  force <version>       Mark a version as applied, clearing a dirty state
  create <name> [desc]  Create a new migration file pair in -dir
  list                  List embedded migrations

Flags:
  -dir string           Directory for create (default: migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment:
  SMARTERP_DATABASE_HOST, SMARTERP_DATABASE_PORT, SMARTERP_DATABASE_USER,
  SMARTERP_DATABASE_PASSWORD, SMARTERP_DATABASE_DBNAME, SMARTERP_DATABASE_SSLMODE`)
}
