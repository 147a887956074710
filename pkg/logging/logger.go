// Package logging builds the application logger and scrubs sensitive
// values before they reach log output.
package logging

import (
	"go.uber.org/zap"
)

// New creates the application logger. Production environments get JSON
// output at info level; everything else gets the development console
// encoder at debug level.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
