// Package gaze provides the external registry bounded context: login, token
// caching and owner-info lookups against the county Gaze API.
package gaze

import (
	"context"
	"net/http"

	"github.com/redis/go-redis/v9"

	"cog_mailing_sync/internal/gaze/client"
	"cog_mailing_sync/internal/gaze/token"
	"cog_mailing_sync/internal/gaze/transport"
	"cog_mailing_sync/platform/config"
	"cog_mailing_sync/platform/logger"
)

// Registry is what the sync service needs from Gaze.
type Registry interface {
	FetchExternalAddresses(ctx context.Context, parcelID string) (transport.Snapshot, error)
}

// Module wires the Gaze client.
type Module struct {
	client *client.Client
}

// NewModule creates the Gaze module. When rdb is non-nil the bearer token is
// shared through Redis, otherwise it is cached in process memory.
func NewModule(cfg config.GazeConfig, rdb *redis.Client, log *logger.Logger) *Module {
	var store token.Store = token.NewMemoryStore()
	if rdb != nil {
		store = token.NewRedisStore(rdb)
	}

	login := token.NewFormLogin(token.Credentials{
		LoginURL: cfg.GetGazeLoginURL(),
		Username: cfg.GetGazeUsername(),
		Password: cfg.GetGazePassword(),
	}, &http.Client{Timeout: cfg.GetGazeTimeout()})

	tokens := token.NewSource(store, login, cfg.GetGazeTokenTTL(), log)
	c := client.New(client.Options{
		BaseURL:           cfg.GetGazeAPIBase(),
		Timeout:           cfg.GetGazeTimeout(),
		RequestsPerSecond: cfg.GetGazeRequestsPerSecond(),
	}, tokens, log)

	log.Info("gaze module initialized", "base_url", cfg.GetGazeAPIBase())

	return &Module{client: c}
}

// Client returns the Gaze client.
func (m *Module) Client() *client.Client { return m.client }
