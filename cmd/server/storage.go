package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/sajda/internal/config"
	"github.com/Nixie-Tech-LLC/sajda/internal/model"
	"github.com/Nixie-Tech-LLC/sajda/internal/syncer"
)

// offlineRemote keeps days queued when no remote is configured.
type offlineRemote struct{}

func (offlineRemote) UpsertDay(context.Context, model.Date, model.PrayerPayload) error {
	return syncer.ErrOffline
}

func (offlineRemote) Probe(context.Context) error { return syncer.ErrOffline }

// InitRemote selects and returns the configured sync backend
func InitRemote(cfg *config.Config) syncer.Remote {
	switch cfg.SyncRemote {
	case config.RemoteHTTP:
		log.Info().Str("endpoint", cfg.SyncEndpoint).Msg("Syncing prayer days over HTTP")
		return syncer.NewHTTPRemote(cfg.SyncEndpoint, cfg.SyncPath, cfg.SyncUserID, cfg.SecretKey)

	case config.RemoteSpaces:
		spaces, err := syncer.NewSpacesRemote(
			cfg.SpacesEndpoint,
			cfg.SpacesRegion,
			cfg.SpacesBucket,
			cfg.SpacesAccessKey,
			cfg.SpacesSecretKey,
			cfg.SyncUserID,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Spaces remote")
		}
		log.Info().Str("bucket", cfg.SpacesBucket).Msg("Syncing prayer days to DigitalOcean Spaces")
		return spaces
	}

	log.Info().Msg("No sync remote configured, days stay queued locally")
	return offlineRemote{}
}
