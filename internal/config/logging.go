package config

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// NewLogger builds the process logger from log_level and log_format.
func NewLogger(cfg *Config, out io.Writer) (*log.Entry, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, &ValidationError{Path: "log_level", Err: err}
	}
	logger := log.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return log.NewEntry(logger), nil
}
