package main

import (
	"runtime"

	"mix-optimizer/internal/logging"
	"mix-optimizer/internal/mixer"
	"mix-optimizer/internal/serializer"
)

const (
	// EnvCatalog names the environment variable holding a catalog file path.
	EnvCatalog = "MIXOPT_CATALOG"
	// EnvLogLevel names the environment variable holding the log level.
	EnvLogLevel = logging.EnvLogLevel
)

// Config holds the defaults the command line starts from. Flags and
// environment variables override them.
type Config struct {
	// CatalogPath is a catalog YAML file. Empty selects the embedded catalog.
	CatalogPath string
	// Depth is the default optimizer depth.
	Depth int
	// Workers is the default batch parallelism.
	Workers int
	// Format is the default output format for path and optimize results.
	Format serializer.Format
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Depth:    mixer.DefaultDepth,
		Workers:  runtime.NumCPU(),
		Format:   serializer.FormatText,
		LogLevel: "info",
	}
}
