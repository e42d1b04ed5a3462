// Package logger provides the global zerolog logger for the application.
package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// Init configures the global logger with console output and an environment
// driven level. Call it once at the top of every main().
//
//	logger.Init() <- inside whichever main() function in your entrypoint
func Init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().Caller().Logger()

	environment := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if environment == "" {
		environment = "prod"
	}

	var logLevel zerolog.Level
	switch environment {
	case "dev", "test":
		logLevel = zerolog.TraceLevel
	case "prod":
		logLevel = zerolog.InfoLevel
	default:
		logLevel = zerolog.InfoLevel
		log.Warn().Str("environment", environment).Msg("Unknown environment - defaulting to info level and above")
	}

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(lvl)); err == nil {
			logLevel = parsed
		} else {
			log.Warn().Str("level", lvl).Msg("Unknown LOG_LEVEL - keeping environment default")
		}
	}

	zerolog.SetGlobalLevel(logLevel)
	log.Info().Str("environment", environment).Stringer("level", logLevel).Msg("Logger initialized")
}
