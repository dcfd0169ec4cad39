package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"hometax_automation/application/finder"
	"hometax_automation/application/locator"
	"hometax_automation/domain/entities"
	"hometax_automation/domain/interfaces"
	"hometax_automation/infrastructure/config"
	"hometax_automation/infrastructure/logging"
	"hometax_automation/infrastructure/ocr"
	"hometax_automation/infrastructure/vision"
)

// environment is what every command needs: configuration, logger and console
type environment struct {
	cfg     *config.Config
	logger  *logrus.Logger
	console *logging.Console
	runID   string
}

func newEnvironment(opts *globalOptions, out io.Writer) (*environment, error) {
	// Load first so that DEBUG from .env is honored
	cfg, warnings, err := config.Load(opts.configPath)

	runID := logging.NewRunID()
	logger := logging.New(logging.Options{
		Debug: opts.debug || logging.DebugFromEnv(),
		RunID: runID,
	})
	for _, w := range warnings {
		logger.Warn(w)
	}
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"driver":   cfg.Driver,
		"headless": cfg.Headless,
		"timeout":  cfg.Timeout,
	}).Debug("Configuration loaded")

	return &environment{
		cfg:     cfg,
		logger:  logger,
		console: logging.NewConsole(out),
		runID:   runID,
	}, nil
}

// buildLoop - registers the DOM finders and, when a screen is usable, the coordinate finders
func buildLoop(cfg *config.Config, session interfaces.BrowserSession, operator interfaces.Operator, logger *logrus.Logger) *locator.Loop {
	interval := cfg.Locator.PollInterval()
	finders := []interfaces.Finder{
		finder.NewStructuralFinder(session, cfg.Locator.StructuralWaitDuration(), interval, logger),
		finder.NewLinkTextFinder(session, cfg.Locator.LinkTextWaitDuration(), interval, logger),
	}

	screen, err := selectScreen(cfg, session, logger)
	if err != nil {
		logger.WithError(err).Warn("Image and text recognition finders disabled")
		return locator.NewLoop(operator, logger, finders...)
	}

	finders = append(finders, finder.NewImageFinder(screen, vision.NewImageLibrary(cfg.ImagesDir), vision.NewMatcher(), logger))

	if cfg.OCR.Enabled {
		recognizer, err := ocr.NewRecognizer(ocr.Options{
			Languages:     cfg.OCR.Languages,
			MinConfidence: cfg.OCR.MinConfidence,
		}, logger)
		if err != nil {
			entry := logger.WithError(err)
			var missing *entities.MissingDependencyError
			if errors.As(err, &missing) {
				entry = entry.WithField("install", missing.Install)
			}
			entry.Warn("Text recognition finder disabled")
		} else {
			finders = append(finders, finder.NewOCRFinder(screen, recognizer, logger))
		}
	}

	loop := locator.NewLoop(operator, logger, finders...)
	logger.WithFields(logrus.Fields{"finders": loop.Kinds(), "screen": screen.Name()}).Debug("Locator ready")
	return loop
}

// selectScreen - the browser viewport unless desktop input is enabled.
// An unusable desktop disables the coordinate finders instead of falling back.
func selectScreen(cfg *config.Config, session interfaces.BrowserSession, logger *logrus.Logger) (interfaces.Screen, error) {
	if !cfg.Desktop.Enabled {
		return vision.NewViewportScreen(session), nil
	}
	screen, err := vision.NewDesktopScreen(cfg.Desktop.Pause(), logger)
	if err != nil {
		return nil, fmt.Errorf("desktop screen: %w", err)
	}
	return screen, nil
}

// stdinIsTerminal - the final pause only makes sense when someone can press Enter
func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
