// Package cli provides API client helper functions.
package cli

import (
	"fmt"

	"github.com/lenderdesk/docnav/internal/api"
	"github.com/lenderdesk/docnav/internal/config"
	"github.com/lenderdesk/docnav/internal/docnav"
	"github.com/lenderdesk/docnav/internal/docstore"
	"github.com/lenderdesk/docnav/internal/prefetch"
)

// loadConfig loads the configuration file and applies global flag overrides.
// Priority: flags > token file > config file > environment > defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if apiBaseURL != "" {
		cfg.APIBaseURL = apiBaseURL
	}

	key := apiKey
	if key == "" && tokenFile != "" {
		key, err = config.ReadTokenFile(tokenFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read token file: %w", err)
		}
	}
	cfg.APIKey = config.ResolveAPIKey(key, cfgFile)

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required (use --api-key, --token-file, the config file, or DOCNAV_API_KEY)")
	}
	return cfg, nil
}

// getAPIClient loads configuration and creates an API client.
// This is the standard way to get an API client in CLI commands.
func getAPIClient() (*api.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	return client, nil
}

// engine bundles the navigation stack a command needs.
type engine struct {
	client     *api.Client
	store      *docstore.Store
	controller *docnav.Controller
	prefetcher *prefetch.Prefetcher
}

// buildEngine wires store, prefetcher and controller for the identity given
// by the --trade/--asset flags.
func buildEngine() (*engine, error) {
	if tradeID == "" && assetID == "" {
		return nil, fmt.Errorf("an identity is required: pass --trade or --asset")
	}

	client, err := getAPIClient()
	if err != nil {
		return nil, err
	}

	store := docstore.New()
	e := &engine{client: client, store: store}

	opts := []docnav.Option{docnav.WithLogger(GetLogger())}
	cfg := client.GetConfig()
	if cfg.PrefetchEnabled && !noPrefetch {
		e.prefetcher = prefetch.New(store, client, nil, GetLogger(), cfg.PrefetchWorkers)
		opts = append(opts, docnav.WithPrefetcher(e.prefetcher))
	}

	e.controller = docnav.New(store, client, opts...)
	e.controller.SetIdentity(tradeID, assetID)
	return e, nil
}

// drain waits for outstanding prefetches so cache warming finishes before
// the process exits.
func (e *engine) drain() {
	if e.prefetcher != nil {
		e.prefetcher.Drain()
	}
}
