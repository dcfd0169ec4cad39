package logging

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew_Levels(t *testing.T) {
	t.Setenv("DEBUG", "")
	assert.Equal(t, logrus.InfoLevel, New(Options{}).GetLevel())
	assert.Equal(t, logrus.DebugLevel, New(Options{Debug: true}).GetLevel())

	t.Setenv("DEBUG", "true")
	assert.Equal(t, logrus.DebugLevel, New(Options{}).GetLevel())
}

func TestNew_RunIDAndRedaction(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Output: &buf, RunID: "run-42"})

	logger.WithField("step", "resident number").Info("typed 900101-1234567")

	out := buf.String()
	assert.Contains(t, out, "run_id=run-42")
	assert.Contains(t, out, "900101-*******")
	assert.NotContains(t, out, "1234567")
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestConsole(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.Title("홈택스")
	c.Step(2, 12, "click %s", "로그인")
	c.Success("saved %d files", 3)
	c.Warn("popup missing")
	c.Fail("export failed")

	assert.Equal(t, "홈택스\n===\n[2/12] click 로그인\n✓ saved 3 files\n! popup missing\n✗ export failed\n", buf.String())
}
