// Package health exposes the operator-facing liveness endpoint served by both
// the miner and the validator.
package health

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/FLock-io/FLock-subnet/internal/config"
)

// StatusFunc supplies the current runtime snapshot for the health response.
type StatusFunc func() Status

// Status is the health endpoint payload.
type Status struct {
	Role        string `json:"role"`
	Hotkey      string `json:"hotkey"`
	LatestBlock int64  `json:"latestBlock"`
	UptimeSecs  int64  `json:"uptimeSecs"`
}

// Server serves GET /health.
type Server struct {
	app     *fiber.App
	cfg     *config.HealthEnvConfig
	status  StatusFunc
	started time.Time
}

func NewServer(cfg *config.HealthEnvConfig, status StatusFunc) *Server {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	s := &Server{app: app, cfg: cfg, status: status, started: time.Now()}
	app.Get("/health", s.handleHealth)
	return s
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	st := s.status()
	st.UptimeSecs = int64(time.Since(s.started).Seconds())
	return c.Status(fiber.StatusOK).JSON(st)
}

// Start serves until ctx is canceled, then shuts down.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		if err := s.app.Listen(s.cfg.HealthAddress); err != nil {
			log.Error().Err(err).Msg("health server listen failed")
		}
	}()
	<-ctx.Done()
	return s.app.Shutdown()
}
