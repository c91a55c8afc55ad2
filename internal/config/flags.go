package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// NetAddress is the flag.Value behind -a. Only IP literals and "localhost"
// are accepted as the host.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses the server configuration flags from os.Args.
//
// Flags:
//
//	-a               listen address, host:port
//	-d               PostgreSQL DSN; empty keeps operations in memory
//	-c, -config      JSON config file
//	-token-sign-key  HMAC key for bearer tokens
//	-token-issuer    "iss" claim
//	-token-duration  lifetime of issued tokens
//	-request-timeout per-request deadline
//	-pull-limit      page size cap for /api/sync/pull
func ParseFlags() (*StructuredConfig, error) {
	return parseFlags(flag.CommandLine, os.Args[1:])
}

func parseFlags(fs *flag.FlagSet, args []string) (*StructuredConfig, error) {
	var serverAddress NetAddress
	var databaseDSN string
	var jsonConfigPath string
	var tokenSignKey string
	var tokenIssuer string
	var tokenDuration time.Duration
	var requestTimeout time.Duration
	var pullLimit int

	fs.Var(&serverAddress, "a", "Net address host:port")
	fs.StringVar(&databaseDSN, "d", "", "Database DSN")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.StringVar(&tokenSignKey, "token-sign-key", "", "Token signing key")
	fs.StringVar(&tokenIssuer, "token-issuer", "", "Token issuer")
	fs.DurationVar(&tokenDuration, "token-duration", 0, "Token duration (e.g., 1h, 30m)")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	fs.IntVar(&pullLimit, "pull-limit", 0, "Max operations returned by one pull")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &StructuredConfig{
		App: App{
			TokenSignKey:  tokenSignKey,
			TokenIssuer:   tokenIssuer,
			TokenDuration: tokenDuration,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
		},
		Server: Server{
			HTTPAddress:    serverAddress.String(),
			RequestTimeout: requestTimeout,
			PullLimit:      pullLimit,
		},
		JSONFilePath: jsonConfigPath,
	}, nil
}

func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

func (a *NetAddress) Set(s string) error {
	host, rawPort, err := net.SplitHostPort(s)
	if err != nil {
		return fmt.Errorf("address %q: %w", s, err)
	}

	port, err := strconv.Atoi(rawPort)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("address %q: port must be in 1..65535", s)
	}

	if host != "localhost" && net.ParseIP(host) == nil {
		return fmt.Errorf("address %q: host must be an IP or localhost", s)
	}

	a.Host, a.Port = host, port
	return nil
}
