// Package telemetry wires the structured logger shared by the replay
// harness and the persistence layer. The matching engine core never
// logs; logging is an ambient concern of the surrounding harness, not
// the hot path.
package telemetry

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds a zap logger. In development mode it uses the colorized
// console encoder; otherwise it emits JSON suitable for log
// aggregation.
func New(development bool) (*zap.Logger, error) {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// Must is New, panicking on error; used at process startup where there
// is no sensible fallback.
func Must(development bool) *zap.Logger {
	logger, err := New(development)
	if err != nil {
		panic(err)
	}
	return logger
}
