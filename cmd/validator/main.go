package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/FLock-io/FLock-subnet/internal/config"
	"github.com/FLock-io/FLock-subnet/internal/evalqueue"
	"github.com/FLock-io/FLock-subnet/internal/health"
	"github.com/FLock-io/FLock-subnet/internal/hfstore"
	"github.com/FLock-io/FLock-subnet/internal/kami"
	"github.com/FLock-io/FLock-subnet/internal/trainer"
	"github.com/FLock-io/FLock-subnet/internal/utils/logger"
	"github.com/FLock-io/FLock-subnet/internal/utils/redis"
	"github.com/FLock-io/FLock-subnet/internal/validator"
)

func main() {
	logger.Init()
	log.Info().Msg("Starting validator...")

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env not loaded; continuing with existing environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load environment configuration")
	}
	if err := cfg.ValidateValidator(); err != nil {
		log.Fatal().Err(err).Msg("invalid validator configuration")
	}

	k, err := kami.NewKami(&cfg.KamiEnvConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init kami client")
	}

	store, err := hfstore.NewStore(&cfg.HuggingfaceEnvConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init dataset store")
	}

	tr, err := trainer.NewTrainer(&cfg.TrainerEnvConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init trainer client")
	}

	queue, err := evalqueue.NewQueue(context.Background(), queueStore(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to restore evaluation queue state")
	}

	v, err := validator.NewValidator(cfg, k, store, tr, queue)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init validator")
	}

	healthSrv := health.NewServer(&cfg.HealthEnvConfig, func() health.Status {
		return health.Status{
			Role:        "validator",
			Hotkey:      v.Hotkey,
			LatestBlock: v.LatestBlockSeen(),
		}
	})
	go func() {
		if err := healthSrv.Start(v.Ctx); err != nil {
			log.Error().Err(err).Msg("health server shutdown failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("shutdown signal received, stopping validator")
		v.Stop()
	}()

	v.Start()

	<-v.Ctx.Done()
	log.Info().Msg("validator stopped")
}

// queueStore prefers Redis for cursor persistence and falls back to a local
// state file when Redis is unavailable.
func queueStore(cfg *config.AppConfig) evalqueue.Store {
	r, err := redis.NewRedis(&cfg.RedisEnvConfig)
	if err == nil {
		return evalqueue.NewRedisStore(r, cfg.Netuid)
	}
	log.Warn().Err(err).Str("path", cfg.QueueStatePath).Msg("redis unavailable, using file-backed queue state")

	fs, err := evalqueue.NewFileStore(cfg.QueueStatePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open queue state file")
	}
	return fs
}
