// Command tokengen issues a bearer token for a moodsync account. It reads
// the signing key and issuer from the same APP_* environment variables as
// the server, so the printed token is accepted by it.
//
// Usage:
//
//	APP_TOKEN_SIGN_KEY=secret tokengen -user 42 -ttl 720h
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/innerhue/moodsync/internal/config"
	"github.com/innerhue/moodsync/internal/logger"
	"github.com/innerhue/moodsync/internal/service"
)

func main() {
	userID := flag.Int64("user", 0, "account id put into the token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime (default APP_TOKEN_DURATION)")
	flag.Parse()

	if err := run(*userID, *ttl); err != nil {
		fmt.Fprintf(os.Stderr, "tokengen: %v\n", err)
		os.Exit(1)
	}
}

func run(userID int64, ttl time.Duration) error {
	if userID <= 0 {
		return fmt.Errorf("-user must be a positive account id")
	}

	cfg, err := config.GetTokenConfig()
	if err != nil {
		return fmt.Errorf("load token config: %w", err)
	}

	token, err := service.NewTokenService(*cfg, logger.Nop()).IssueToken(context.Background(), userID, ttl)
	if err != nil {
		return err
	}

	fmt.Println(token.SignedString)
	return nil
}
