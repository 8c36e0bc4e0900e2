// Package logger builds the structured loggers used by the contacts processes.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a sugared logger for the named service. Mode "dev" selects a human readable
// console encoder at debug level; anything else selects JSON lines on stdout.
func New(service string, mode string) (*zap.SugaredLogger, error) {
	var config zap.Config
	if strings.EqualFold(mode, "dev") {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
		config.OutputPaths = []string{"stdout"}
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true
	config.InitialFields = map[string]interface{}{
		"service": service,
	}

	log, err := config.Build()
	if err != nil {
		return nil, err
	}
	return log.Sugar(), nil
}
