// README: Structured logger setup (logrus) shared by the API and background workers.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logrus logger from the configured level and format.
// Unknown levels fall back to info; format "json" switches to the JSON
// formatter for log aggregation, anything else stays human-readable text.
func New(level, format string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
