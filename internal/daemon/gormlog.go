package daemon

import (
	"github.com/rs/zerolog/log"
)

// gormWriter routes gorm's logger output to zerolog.
type gormWriter struct{}

// Printf implements gorm's logger.Writer.
func (gormWriter) Printf(format string, args ...any) {
	log.Warn().Str("component", "gorm").Msgf(format, args...)
}
