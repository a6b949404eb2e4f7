package pipeline

import "aqueduct/internal"

// Logger is common logger gateway
var Logger = internal.Logger

// SetLogLevel switches the shared logger level by name.
func SetLogLevel(level string) {
	internal.SetLogLevel(level)
}
