package logger

import (
	"os"

	"github.com/hashicorp/go-hclog"
)

// New builds the root logger. Components take a Named sub-logger from it.
func New(name, level string, json bool) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		Output:     os.Stderr,
		JSONFormat: json,
	})
}
