package browser

import (
	"fmt"

	"hometax_automation/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// NewSession - starts a browser session with the configured driver
func NewSession(opts Options, logger *logrus.Logger) (interfaces.BrowserSession, error) {
	opts = opts.withDefaults()

	switch opts.Driver {
	case DriverPlaywright:
		return NewBrowserController(opts, logger)
	case DriverSelenium:
		session, err := NewSeleniumController(opts, logger)
		if err != nil {
			return nil, err
		}
		return session, nil
	case DriverRod:
		session, err := NewRodController(opts, logger)
		if err != nil {
			return nil, err
		}
		return session, nil
	}
	return nil, fmt.Errorf("unknown browser driver %q", opts.Driver)
}
