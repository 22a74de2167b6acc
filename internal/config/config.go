// Package config provides functionality for managing configuration options
// for the credential backend using command-line flags, a JSON config file
// and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"
)

// Options holds the configuration values for the backend.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"address"`

	// DatabaseDSN holds the database connection string. Empty selects the
	// in-memory user store.
	DatabaseDSN string `json:"database_dsn"`

	// Config is the path to the Config file.
	Config string `json:"-"`

	// StreamAPIKey is the hosted platform API key handed to clients.
	StreamAPIKey string `json:"stream_api_key"`

	// StreamAPISecret signs platform user tokens. Never sent to clients.
	StreamAPISecret string `json:"stream_api_secret"`

	// AuthSecret signs the backend's own bearer tokens.
	AuthSecret string `json:"auth_secret"`

	// AuthTTL bounds bearer token lifetime. Zero means tokens never expire.
	AuthTTL time.Duration `json:"auth_ttl"`

	// ChatURL is the hosted chat REST base URL used to register chat users.
	// Empty disables registration.
	ChatURL string `json:"chat_url"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`

	// SignInRate is the sustained sign-in rate per client address (req/sec).
	SignInRate float64 `json:"signin_rate"`

	// SignInBurst is the sign-in burst size per client address.
	SignInBurst int `json:"signin_burst"`

	// LogLevel is the zap level name.
	LogLevel string `json:"log_level"`
}

// Parse parses the command-line arguments, the optional JSON config file and
// environment variables, in that order of increasing precedence.
func Parse(args []string) (*Options, error) {
	options := &Options{}
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	fs.StringVar(&options.StreamAPIKey, "stream-key", "", "hosted platform API key")
	fs.StringVar(&options.StreamAPISecret, "stream-secret", "", "hosted platform API secret")
	fs.StringVar(&options.AuthSecret, "auth-secret", "", "bearer token signing secret")
	fs.DurationVar(&options.AuthTTL, "auth-ttl", 0, "bearer token lifetime (0 = no expiry)")
	fs.StringVar(&options.ChatURL, "chat-url", "", "hosted chat REST base URL")
	fs.StringVar(&options.TLSCert, "tls-cert", "", "path to TLS certificate")
	fs.StringVar(&options.TLSKey, "tls-key", "", "path to TLS key")
	fs.Float64Var(&options.SignInRate, "signin-rate", 1, "sign-in requests per second per client")
	fs.IntVar(&options.SignInBurst, "signin-burst", 5, "sign-in burst per client")
	fs.StringVar(&options.LogLevel, "log-level", "info", "log level")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				return nil, fmt.Errorf("error while reading config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if key := os.Getenv("STREAM_API_KEY"); key != "" {
		options.StreamAPIKey = key
	}
	if secret := os.Getenv("STREAM_API_SECRET"); secret != "" {
		options.StreamAPISecret = secret
	}
	if secret := os.Getenv("AUTH_SECRET"); secret != "" {
		options.AuthSecret = secret
	}
	if chatURL := os.Getenv("CHAT_URL"); chatURL != "" {
		options.ChatURL = chatURL
	}

	return options, nil
}

// Validate reports missing required settings.
func (o *Options) Validate() error {
	var errs []error
	if o.StreamAPIKey == "" {
		errs = append(errs, errors.New("stream API key is required"))
	}
	if o.StreamAPISecret == "" {
		errs = append(errs, errors.New("stream API secret is required"))
	}
	if o.AuthSecret == "" {
		errs = append(errs, errors.New("auth secret is required"))
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		errs = append(errs, errors.New("tls-cert and tls-key must be set together"))
	}
	return errors.Join(errs...)
}
