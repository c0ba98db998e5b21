package logger

import (
	"io"
	"os"
	"strings"

	"coupon-service/internal/config"

	"github.com/sirupsen/logrus"
)

// Logger оборачивает logrus.Logger, чтобы сервисы зависели от одного типа.
type Logger struct {
	*logrus.Logger
}

// New создаёт логгер по конфигурации: уровень, формат (json|text) и файл вывода.
func New(cfg *config.LoggerConfig) *Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(cfg.Format, "text") {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.WithError(err).WithField("file", cfg.File).Warn("Failed to open log file, falling back to stdout")
		} else {
			out = io.MultiWriter(os.Stdout, file)
		}
	}
	log.SetOutput(out)

	return &Logger{Logger: log}
}
