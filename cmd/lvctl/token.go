package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/abelbrown/lessonvault/internal/session"
)

func runToken() {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	user := fs.String("user", "", "Subject (user id) of the token")
	email := fs.String("email", "", "Email claim, used for entitlement lookup")
	ttl := fs.Duration("ttl", 24*time.Hour, "Token lifetime")
	fs.Parse(os.Args[1:])
	requireUser(*user)

	cfg := loadConfig()
	if cfg.Store.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "warning: no jwt_secret configured; the token is only accepted by unverified parsers")
	}

	tok, err := session.NewToken(*user, *email, []byte(cfg.Store.JWTSecret), *ttl)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Println(tok)

	plan := session.NewTable(cfg.Entitlements).Resolve(*email)
	fmt.Fprintf(os.Stderr, "user=%s plan=%s expires=%s\n", *user, plan, time.Now().Add(*ttl).Format(time.RFC3339))
}
