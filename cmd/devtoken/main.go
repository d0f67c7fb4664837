// Command devtoken prints a bearer token for local requests against the
// server, signed with the same JWT_SECRET and JWT_AUDIENCE it reads.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/relay/internal/auth"
	"github.com/vedran77/relay/internal/config"
)

func main() {
	userFlag := flag.String("user", "", "user id to put in the subject claim (random when empty)")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.Load()

	userID := uuid.New()
	if *userFlag != "" {
		id, err := uuid.Parse(*userFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -user: %v\n", err)
			os.Exit(2)
		}
		userID = id
	}

	token, err := auth.NewJWTResolver(cfg.JWTSecret, cfg.JWTAudience).Issue(userID, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "signing token: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "user %s, expires in %s\n", userID, *ttl)
	fmt.Println(token)
}
