package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/FLock-io/FLock-subnet/internal/config"
	"github.com/FLock-io/FLock-subnet/internal/health"
	"github.com/FLock-io/FLock-subnet/internal/hfstore"
	"github.com/FLock-io/FLock-subnet/internal/kami"
	"github.com/FLock-io/FLock-subnet/internal/miner"
	"github.com/FLock-io/FLock-subnet/internal/utils/logger"
)

func main() {
	logger.Init()
	log.Info().Msg("Starting miner...")

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env not loaded; continuing with existing environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load environment configuration")
	}
	if err := cfg.ValidateMiner(); err != nil {
		log.Fatal().Err(err).Msg("invalid miner configuration")
	}

	k, err := kami.NewKami(&cfg.KamiEnvConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init kami client")
	}

	store, err := hfstore.NewStore(&cfg.HuggingfaceEnvConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init dataset store")
	}

	m, err := miner.NewMiner(cfg, k, store)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init miner")
	}

	healthSrv := health.NewServer(&cfg.HealthEnvConfig, func() health.Status {
		return health.Status{
			Role:        "miner",
			Hotkey:      m.Hotkey,
			LatestBlock: m.LatestBlockSeen(),
		}
	})
	go func() {
		if err := healthSrv.Start(m.Ctx); err != nil {
			log.Error().Err(err).Msg("health server shutdown failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("shutdown signal received, stopping miner")
		m.Stop()
	}()

	m.Start()

	if _, err := m.Publish(m.Ctx); err != nil {
		if m.Ctx.Err() != nil {
			log.Info().Msg("publish interrupted by shutdown")
		} else {
			log.Fatal().Err(err).Msg("dataset publish failed")
		}
	}

	<-m.Ctx.Done()
	log.Info().Msg("miner stopped")
}
