package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

var appLogger = logrus.New()

// NewLogger builds the application logger from LOG_LEVEL.
// Production logs are JSON, everything else uses the text formatter.
func NewLogger(cfg *Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.IsProduction() {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	appLogger = log
	return log
}

// GetLogger returns the application logger
func GetLogger() *logrus.Logger {
	return appLogger
}

// SetLogger replaces the application logger (primarily for testing)
func SetLogger(log *logrus.Logger) {
	appLogger = log
}
