package security

import (
	"regexp"

	"github.com/sirupsen/logrus"
)

// residentNumberPattern matches 13-digit resident numbers with or without the hyphen
var residentNumberPattern = regexp.MustCompile(`\b(\d{6})-?(\d{7})\b`)

// Redact - masks the back half of every resident number in s
func Redact(s string) string {
	return residentNumberPattern.ReplaceAllString(s, "${1}-*******")
}

// RedactHook scrubs resident numbers from log messages and fields
type RedactHook struct{}

// NewRedactHook - creates the hook; register it with logger.AddHook
func NewRedactHook() *RedactHook {
	return &RedactHook{}
}

// Levels - the hook applies to every level
func (h *RedactHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire - rewrites the entry in place before it is formatted
func (h *RedactHook) Fire(entry *logrus.Entry) error {
	entry.Message = Redact(entry.Message)
	for key, value := range entry.Data {
		switch v := value.(type) {
		case string:
			entry.Data[key] = Redact(v)
		case error:
			if msg := v.Error(); residentNumberPattern.MatchString(msg) {
				entry.Data[key] = Redact(msg)
			}
		}
	}
	return nil
}
