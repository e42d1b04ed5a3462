package config

import (
	"strings"
	"time"
)

// IntervalConfig groups ticker intervals used by the node runtimes.
type IntervalConfig struct {
	BlockInterval     time.Duration
	MetagraphInterval time.Duration
	HeartbeatInterval time.Duration
}

var (
	DevIntervalConfig = &IntervalConfig{
		BlockInterval:     2 * time.Second,
		MetagraphInterval: 5 * time.Second,
		HeartbeatInterval: 10 * time.Second,
	}

	ProdIntervalConfig = &IntervalConfig{
		BlockInterval:     12 * time.Second,
		MetagraphInterval: 30 * time.Second,
		HeartbeatInterval: 5 * time.Minute,
	}
)

func NewIntervalConfig(environment string) *IntervalConfig {
	switch strings.ToLower(environment) {
	case "dev", "test":
		return DevIntervalConfig
	case "prod":
		return ProdIntervalConfig
	}

	return ProdIntervalConfig
}
