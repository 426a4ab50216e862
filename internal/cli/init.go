package cli

import (
	"context"
	"io"
	"time"

	"github.com/fpang/warm-edit-studio/internal/config"
	"github.com/fpang/warm-edit-studio/internal/editclient"
	"github.com/fpang/warm-edit-studio/internal/intake"
	"github.com/fpang/warm-edit-studio/internal/preview"
	"github.com/fpang/warm-edit-studio/internal/session"
	"github.com/rs/zerolog/log"
)

// Studio is the wired set of controllers shared by every surface.
type Studio struct {
	Config   *config.Config
	Previews *preview.Registry
	Server   *preview.Server
	Client   *editclient.Client
	Session  *session.Controller
	Intake   *intake.Controller
}

// StudioOptions configures InitStudio.
type StudioOptions struct {
	// Surface names the caller in metrics.
	Surface string
	// ServePreviews starts the local preview server.
	ServePreviews bool
	// Metrics receives one line per completed submission. Nil discards.
	Metrics io.Writer
}

// InitStudio builds the controllers from cfg. The preview server is started
// when requested; a failure to bind it is logged and previews fall back to
// preview:// URLs.
func InitStudio(cfg *config.Config, opts StudioOptions) *Studio {
	s := &Studio{
		Config:   cfg,
		Previews: preview.NewRegistry(cfg.PreviewMaxDimension),
	}

	if opts.ServePreviews {
		srv := preview.NewServer(cfg.PreviewAddr, s.Previews)
		if _, err := srv.Start(); err != nil {
			log.Warn().Err(err).Msg("Preview server unavailable, continuing without it")
		} else {
			s.Server = srv
		}
	}

	s.Client = editclient.NewClient(editclient.Options{
		Endpoint: cfg.EditEndpoint,
		Timeout:  cfg.RequestTimeout,
	})
	s.Session = session.NewController(s.Client, cfg.ResultBaseURL,
		session.WithMetrics(opts.Metrics),
		session.WithSurface(opts.Surface),
	)
	s.Intake = intake.NewController(s.Previews,
		intake.WithMaxBytes(cfg.MaxUploadBytes),
		intake.WithObserver(s.Session),
	)

	log.Info().
		Str("endpoint", s.Client.Endpoint()).
		Str("result_base", cfg.ResultBaseURL).
		Bool("preview_server", s.Server != nil).
		Msg("Studio initialized")

	return s
}

// Close releases the live preview and stops the preview server.
func (s *Studio) Close() {
	if err := s.Intake.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to release preview on close")
	}
	if n := s.Previews.ReleaseAll(); n > 0 {
		log.Warn().Int("count", n).Msg("Released leftover preview handles")
	}
	if s.Server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Server.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Preview server shutdown failed")
		}
	}
}
