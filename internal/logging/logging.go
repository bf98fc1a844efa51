package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"parlor/internal/config"
)

var output io.Writer = os.Stdout

func Init(cfg config.LogConfig) {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	output = os.Stdout
	if cfg.File != "" {
		if w, err := openCappedFile(cfg.File, cfg.MaxMB); err == nil {
			output = w
		}
	}
	sink := output
	if cfg.Pretty {
		sink = zerolog.ConsoleWriter{Out: output}
	}

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(sink).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
}

// Writer is the sink the HTTP request logger shares with the zerolog global
// logger, so access lines and application lines land in the same place.
func Writer() io.Writer {
	return output
}
