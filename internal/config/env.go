// Package config defines environment configuration structs and loaders.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type AppConfig struct {
	ChainEnvConfig
	KamiEnvConfig
	RedisEnvConfig
	HuggingfaceEnvConfig
	TrainerEnvConfig
	ValidatorEnvConfig
	MinerEnvConfig
	HealthEnvConfig
}

func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ChainEnvConfig holds chain-specific environment values.
type ChainEnvConfig struct {
	Netuid        int    `env:"NETUID" envDefault:"271"`
	Environment   string `env:"ENVIRONMENT" envDefault:"prod"`
	CompetitionID string `env:"COMPETITION_ID" envDefault:"c1"`
}

// KamiEnvConfig contains the Kami sidecar target.
type KamiEnvConfig struct {
	KamiHost string `env:"KAMI_HOST" envDefault:"127.0.0.1"`
	KamiPort string `env:"KAMI_PORT" envDefault:"3000"`
}

// RedisEnvConfig configures the Redis connection backing queue persistence.
type RedisEnvConfig struct {
	RedisHost     string `env:"REDIS_HOST" envDefault:"127.0.0.1"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisUsername string `env:"REDIS_USERNAME"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// HuggingfaceEnvConfig configures the dataset store.
type HuggingfaceEnvConfig struct {
	HfToken       string `env:"HF_TOKEN"`
	HfEndpoint    string `env:"HF_ENDPOINT" envDefault:"https://huggingface.co"`
	EvalNamespace string `env:"EVAL_NAMESPACE" envDefault:"flock-io/eval-data"`
	EvalCommit    string `env:"EVAL_COMMIT"`
	DataDir       string `env:"DATA_DIR" envDefault:"data/training_data"`
	CacheDir      string `env:"CACHE_DIR" envDefault:"data/hf_cache"`
}

// TrainerEnvConfig configures the external trainer service that turns a
// dataset into an eval loss.
type TrainerEnvConfig struct {
	TrainerURL     string        `env:"TRAINER_URL" envDefault:"http://localhost:5005"`
	TrainerTimeout time.Duration `env:"TRAINER_TIMEOUT" envDefault:"20m"`
}

// ValidatorEnvConfig configures the validator runtime.
type ValidatorEnvConfig struct {
	EvalCapacity     int           `env:"EVAL_CAPACITY" envDefault:"32"`
	EvalWorkers      int           `env:"EVAL_WORKERS" envDefault:"1"`
	CycleBlocks      int64         `env:"CYCLE_BLOCKS" envDefault:"100"`
	CycleTimeout     time.Duration `env:"CYCLE_TIMEOUT" envDefault:"50m"`
	QueueStatePath   string        `env:"QUEUE_STATE_PATH" envDefault:"data/queue_state.json"`
	WeightsRetryWait time.Duration `env:"WEIGHTS_RETRY_WAIT" envDefault:"120s"`
	WeightsVersion   int           `env:"WEIGHTS_VERSION" envDefault:"1"`
}

// MinerEnvConfig configures the miner runtime.
type MinerEnvConfig struct {
	HfRepoID          string        `env:"HF_REPO_ID"`
	DatasetPath       string        `env:"DATASET_PATH"`
	CommitRetryWait   time.Duration `env:"COMMIT_RETRY_WAIT" envDefault:"120s"`
	MaxCommitAttempts int           `env:"MAX_COMMIT_ATTEMPTS" envDefault:"5"`
}

// HealthEnvConfig configures the health endpoint served by both roles.
type HealthEnvConfig struct {
	HealthAddress string `env:"HEALTH_ADDRESS" envDefault:":8085"`
}

// ValidateValidator checks the values a validator cannot start without.
func (c *AppConfig) ValidateValidator() error {
	if c.Netuid <= 0 {
		return fmt.Errorf("NETUID must be a positive subnet id, got %d", c.Netuid)
	}
	if c.EvalCapacity <= 0 {
		return fmt.Errorf("EVAL_CAPACITY must be >= 1, got %d", c.EvalCapacity)
	}
	if c.EvalWorkers <= 0 {
		return fmt.Errorf("EVAL_WORKERS must be >= 1, got %d", c.EvalWorkers)
	}
	if c.EvalCommit == "" {
		return fmt.Errorf("EVAL_COMMIT is required to pin the evaluation dataset")
	}
	return nil
}

// ValidateMiner checks the values a miner cannot start without.
func (c *AppConfig) ValidateMiner() error {
	if c.Netuid <= 0 {
		return fmt.Errorf("NETUID must be a positive subnet id, got %d", c.Netuid)
	}
	if c.HfRepoID == "" {
		return fmt.Errorf("HF_REPO_ID is required")
	}
	if c.DatasetPath == "" {
		return fmt.Errorf("DATASET_PATH is required")
	}
	if c.MaxCommitAttempts <= 0 {
		return fmt.Errorf("MAX_COMMIT_ATTEMPTS must be >= 1, got %d", c.MaxCommitAttempts)
	}
	return nil
}
