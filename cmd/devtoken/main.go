// Command devtoken prints a development bearer token signed with the
// configured JWT secret, for use while Firebase auth is disabled.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/erp/smarterp/internal/infrastructure/auth"
	"github.com/erp/smarterp/internal/infrastructure/config"
	"github.com/erp/smarterp/internal/infrastructure/logger"
	"go.uber.org/zap"
)

func main() {
	var p auth.Principal
	flag.StringVar(&p.Email, "email", "", "Email of the user (required)")
	flag.StringVar(&p.Name, "name", "", "Display name")
	flag.StringVar(&p.UID, "uid", "", "User id (random when empty)")
	flag.Parse()

	log, err := logger.New(&logger.Config{Level: "info", Format: "console", Output: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Firebase.AuthEnabled {
		log.Warn("Firebase auth is enabled; the server will reject this token")
	}

	token, err := auth.NewJWTVerifier(cfg.JWT).Issue(p)
	if err != nil {
		log.Fatal("Failed to issue token", zap.Error(err))
	}
	log.Info("Token issued", zap.String("email", p.Email), zap.Time("expires_at", token.ExpiresAt))
	fmt.Println(token.Token)
}
