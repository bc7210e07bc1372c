package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for in-flight requests on shutdown.
	shutdownTimeout = 30 * time.Second
)

// Args holds the command-line arguments the configuration is loaded from.
type Args []string
