package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"motorhub/internal/session"
	"motorhub/pkg/config"
	"motorhub/pkg/model"
)

// devtoken signs an HS256 token against JWT_SECRET for local testing.
func main() {
	id := flag.String("id", "dev-user", "identity id (token subject)")
	email := flag.String("email", "dev@example.com", "identity email")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.FromEnv("devtoken")
	if cfg.JWTSecret == "" {
		fmt.Fprintf(os.Stderr, "%s is not set\n", config.EnvJWTSecret)
		os.Exit(1)
	}

	token, err := session.NewHMACAuthenticator(cfg.JWTSecret).Sign(model.Identity{ID: *id, Email: *email}, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "Authorization: Bearer %s\n", token)
}
