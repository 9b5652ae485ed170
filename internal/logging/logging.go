package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New creates the application logger. Production mode uses the JSON encoder
// with sampling; dev mode uses the console encoder at debug level.
func New(isProduction bool) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)

	if isProduction {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}
