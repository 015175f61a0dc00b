// Package runner selects and configures the process run mode.
package runner

import (
	"context"
	"errors"
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/Vector/hubspot-connector/hubspot"
)

const (
	RunModeWeb = iota + 1
	RunModeWorker
)

var (
	ErrInvalidRunMode = errors.New("invalid run mode")

	// ErrMissingHubSpotConfig aborts startup: the OAuth client settings are
	// a process-level requirement, not a per-request concern.
	ErrMissingHubSpotConfig = errors.New("missing required HubSpot environment variables")
)

type Runner interface {
	Run(context.Context) error
	Close(context.Context) error
}

// Config carries the process configuration assembled from flags and
// environment variables.
type Config struct {
	Addr       string
	Debug      bool
	DataFolder string
	RunMode    int
	HubSpot    hubspot.Config
}

// ParseConfig reads flags and environment variables. It fails when any of
// the required HubSpot OAuth settings is absent.
func ParseConfig() (*Config, error) {
	cfg := Config{}

	var worker bool

	flag.StringVar(&cfg.Addr, "addr", ":8080", "address the http server listens on")
	flag.BoolVar(&cfg.Debug, "debug", false, "enable debug logging")
	flag.StringVar(&cfg.DataFolder, "data-folder", "data", "folder background fetches write contact documents to")
	flag.BoolVar(&worker, "worker", false, "run as a task queue worker instead of the http server")

	flag.Parse()

	cfg.RunMode = RunModeWeb
	if worker {
		cfg.RunMode = RunModeWorker
	}

	cfg.HubSpot = hubspot.Config{
		ClientID:     os.Getenv("HUBSPOT_CLIENT_ID"),
		ClientSecret: os.Getenv("HUBSPOT_CLIENT_SECRET"),
		RedirectURI:  os.Getenv("HUBSPOT_REDIRECT_URI"),
		AuthURL:      os.Getenv("HUBSPOT_AUTH_URL"),
		TokenURL:     os.Getenv("HUBSPOT_TOKEN_URL"),
		APIBaseURL:   os.Getenv("HUBSPOT_API_BASE_URL"),
	}

	if cfg.HubSpot.ClientID == "" || cfg.HubSpot.ClientSecret == "" || cfg.HubSpot.RedirectURI == "" {
		return nil, ErrMissingHubSpotConfig
	}

	return &cfg, nil
}

// NewLogger builds the process logger.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}
