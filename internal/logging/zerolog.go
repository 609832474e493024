package logging

import (
	"io"

	"github.com/rs/zerolog"
)

// ZerologLogger implements Logger on top of zerolog.
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger builds a console-writer-backed ZerologLogger at the
// given minimum level ("debug", "info", "warn", "error"). An unknown
// level falls back to "info".
func NewZerologLogger(w io.Writer, level string) *ZerologLogger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return &ZerologLogger{
		logger: zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
			Level(lvl).
			With().Timestamp().Logger(),
	}
}

func (z *ZerologLogger) Debugf(format string, args ...any) { z.logger.Debug().Msgf(format, args...) }
func (z *ZerologLogger) Infof(format string, args ...any)  { z.logger.Info().Msgf(format, args...) }
func (z *ZerologLogger) Warnf(format string, args ...any)  { z.logger.Warn().Msgf(format, args...) }
func (z *ZerologLogger) Errorf(format string, args ...any) { z.logger.Error().Msgf(format, args...) }
