package config

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	logg *logrus.Logger
)

func GetLogger() *logrus.Logger {
	return logg
}

func init() {
	logg = logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetLevel(logLevelFromEnv())
	logg.SetOutput(os.Stdout)
}

// LOG_LEVEL accepts any logrus level name; defaults to warn.
func logLevelFromEnv() logrus.Level {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if err != nil {
		return logrus.WarnLevel
	}
	return lvl
}

func LogError(logger *logrus.Logger, moduleName string, funcName string, context string, data any, err error) {
	if data != nil {
		logger.WithFields(logrus.Fields{
			"module":   moduleName,
			"funcName": funcName,
			"context":  context,
			"data":     data,
		}).Error(err.Error())
	} else {
		logger.WithFields(logrus.Fields{
			"module":   moduleName,
			"funcName": funcName,
			"context":  context,
		}).Error(err.Error())
	}
}
