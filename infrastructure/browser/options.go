package browser

import (
	"fmt"
	"strings"
	"time"
)

// Driver names a session backend
type Driver string

const (
	DriverPlaywright Driver = "playwright"
	DriverSelenium   Driver = "selenium"
	DriverRod        Driver = "rod"
)

// ParseDriver - parses a driver name; empty selects playwright
func ParseDriver(s string) (Driver, error) {
	switch Driver(strings.ToLower(strings.TrimSpace(s))) {
	case "", DriverPlaywright:
		return DriverPlaywright, nil
	case DriverSelenium:
		return DriverSelenium, nil
	case DriverRod:
		return DriverRod, nil
	}
	return "", fmt.Errorf("unknown browser driver %q (expected playwright, selenium or rod)", s)
}

// Options configures a browser session
type Options struct {
	Driver      Driver
	Headless    bool
	DownloadDir string
	// Timeout bounds page loads
	Timeout     time.Duration
	SlowMo      time.Duration
	UserDataDir string
	Width       int
	Height      int
}

// DefaultOptions - returns options for a visible playwright browser
func DefaultOptions() Options {
	return Options{
		Driver:  DriverPlaywright,
		Timeout: 30 * time.Second,
		Width:   1280,
		Height:  900,
	}
}

func (o Options) timeoutMillis() float64 {
	if o.Timeout <= 0 {
		return 30000
	}
	return float64(o.Timeout.Milliseconds())
}

// clickTimeout bounds a single action attempt inside a poll
const clickTimeout = 2 * time.Second

// settleTimeout bounds the wait for the page to go idle after an action
const settleTimeout = 5 * time.Second

// withDefaults - fills zero values from DefaultOptions
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Driver == "" {
		o.Driver = def.Driver
	}
	if o.Timeout <= 0 {
		o.Timeout = def.Timeout
	}
	if o.Width <= 0 || o.Height <= 0 {
		o.Width, o.Height = def.Width, def.Height
	}
	return o
}
