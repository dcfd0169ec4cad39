package logging

import (
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hometax_automation/infrastructure/security"
)

// Options configures the run logger
type Options struct {
	Debug  bool
	Output io.Writer
	RunID  string
}

// DebugFromEnv - reports DEBUG=true (or 1)
func DebugFromEnv() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("DEBUG")))
	return v == "true" || v == "1"
}

// NewRunID - returns an identifier tying together the log lines of one run
func NewRunID() string {
	return uuid.NewString()
}

// New - creates the logger every component receives
func New(opts Options) *logrus.Logger {
	logger := logrus.New()
	if opts.Output != nil {
		logger.SetOutput(opts.Output)
	}
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05",
		DisableSorting:  true,
	})

	if opts.Debug || DebugFromEnv() {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	if opts.RunID != "" {
		logger.AddHook(&fieldHook{key: "run_id", value: opts.RunID})
	}
	logger.AddHook(security.NewRedactHook())
	return logger
}

// fieldHook adds a constant field to every entry
type fieldHook struct {
	key   string
	value string
}

func (h *fieldHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fieldHook) Fire(entry *logrus.Entry) error {
	if _, ok := entry.Data[h.key]; !ok {
		entry.Data[h.key] = h.value
	}
	return nil
}
