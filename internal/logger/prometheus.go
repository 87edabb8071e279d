package logger

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	levelCounterOnce sync.Once               //nolint:gochecknoglobals
	levelCounter     *prometheus.CounterVec //nolint:gochecknoglobals
)

// LevelCounter is a zerolog hook counting log statements per level.
type LevelCounter struct{}

// Run implements zerolog.Hook.
func (LevelCounter) Run(_ *zerolog.Event, level zerolog.Level, _ string) {
	if level != zerolog.NoLevel {
		levelCounter.WithLabelValues(level.String()).Inc()
	}
}

// NewLevelCounter registers rbacd_log_statements_total once and returns the hook.
// Only the first service name is used as the constant label.
func NewLevelCounter(service string) LevelCounter {
	levelCounterOnce.Do(func() {
		levelCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "rbacd_log_statements_total",
				Help:        "Number of log statements by level.",
				ConstLabels: prometheus.Labels{"service": service},
			},
			[]string{"level"},
		)
	})

	return LevelCounter{}
}
