package browser

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"hometax_automation/domain/entities"
	"hometax_automation/domain/interfaces"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
)

type SeleniumController struct {
	wd         selenium.WebDriver
	service    *selenium.Service
	mainHandle string
	opts       Options
	logger     *logrus.Logger
}

// freePort - asks the kernel for an unused local port
func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// NewSeleniumController - creates new Selenium browser session
func NewSeleniumController(opts Options, logger *logrus.Logger) (*SeleniumController, error) {
	search := hostSearch()
	driverPath, err := search.chromeDriver()
	if err != nil {
		return nil, err
	}
	logger.Infof("Using ChromeDriver at: %s", driverPath)

	port, err := freePort()
	if err != nil {
		return nil, fmt.Errorf("failed to reserve chromedriver port: %w", err)
	}

	service, err := selenium.NewChromeDriverService(driverPath, port)
	if err != nil {
		return nil, fmt.Errorf("failed to start chromedriver: %w", err)
	}

	caps := selenium.Capabilities{
		"browserName": "chrome",
	}

	chromeCaps := chrome.Capabilities{
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-popup-blocking",
			"--disable-dev-shm-usage",
			fmt.Sprintf("--window-size=%d,%d", opts.Width, opts.Height),
		},
	}
	if opts.Headless {
		chromeCaps.Args = append(chromeCaps.Args, "--headless=new")
	}
	if opts.UserDataDir != "" {
		chromeCaps.Args = append(chromeCaps.Args, fmt.Sprintf("--user-data-dir=%s", opts.UserDataDir))
	}
	if opts.DownloadDir != "" {
		chromeCaps.Prefs = map[string]interface{}{
			"download.default_directory":   opts.DownloadDir,
			"download.prompt_for_download": false,
		}
	}
	if chromeBinary, ok := search.chromeBinary(); ok {
		logger.Infof("Using Chrome binary at: %s", chromeBinary)
		chromeCaps.Path = chromeBinary
	}

	caps.AddChrome(chromeCaps)

	wd, err := selenium.NewRemote(caps, fmt.Sprintf("http://localhost:%d/wd/hub", port))
	if err != nil {
		service.Stop()
		if strings.Contains(err.Error(), "cannot find Chrome binary") {
			return nil, &entities.MissingDependencyError{Name: "Google Chrome", Install: chromeInstallHint(search.goos), Err: err}
		}
		return nil, fmt.Errorf("failed to create webdriver: %w", err)
	}

	if opts.Timeout > 0 {
		if err := wd.SetPageLoadTimeout(opts.Timeout); err != nil {
			logger.Warnf("Failed to set page load timeout: %v", err)
		}
	}

	mainHandle, err := wd.CurrentWindowHandle()
	if err != nil {
		wd.Quit()
		service.Stop()
		return nil, fmt.Errorf("failed to read window handle: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"driver":   DriverSelenium,
		"headless": opts.Headless,
	}).Info("Browser started")

	return &SeleniumController{
		wd:         wd,
		service:    service,
		mainHandle: mainHandle,
		opts:       opts,
		logger:     logger,
	}, nil
}

// Navigate - navigates browser to specified URL
func (s *SeleniumController) Navigate(ctx context.Context, url string) error {
	s.logger.Debugf("Navigating to: %s", url)
	return classify(s.wd.Get(url))
}

// TryQuery - acts on the first displayed, enabled element matching a CSS or XPath query
func (s *SeleniumController) TryQuery(ctx context.Context, query entities.StructuralQuery, action entities.Action) (bool, error) {
	by := selenium.ByCSSSelector
	if query.IsXPath() {
		by = selenium.ByXPATH
	}
	return s.tryElements(by, query.Expression(), action)
}

// TryLinkText - acts on the first displayed link whose text contains text
func (s *SeleniumController) TryLinkText(ctx context.Context, text string, action entities.Action) (bool, error) {
	return s.tryElements(selenium.ByPartialLinkText, text, action)
}

// tryElements - single probe over the current matches
func (s *SeleniumController) tryElements(by, value string, action entities.Action) (bool, error) {
	elements, err := s.wd.FindElements(by, value)
	if err != nil {
		if isSessionFault(err) {
			return false, classify(err)
		}
		// an invalid selector is a failed probe, not a session fault
		return false, err
	}

	for _, element := range elements {
		displayed, err := element.IsDisplayed()
		if err != nil || !displayed {
			continue
		}
		enabled, err := element.IsEnabled()
		if err != nil || !enabled {
			continue
		}
		if err := s.act(element, action); err != nil {
			if isSessionFault(err) {
				return false, classify(err)
			}
			s.logger.Debugf("Element not actionable yet: %v", err)
			continue
		}
		return true, nil
	}
	return false, nil
}

// act - performs the action on an element
func (s *SeleniumController) act(element selenium.WebElement, action entities.Action) error {
	switch action.Type {
	case entities.ActionTypeText:
		if err := element.Clear(); err != nil {
			s.logger.Debugf("Failed to clear element: %v", err)
		}
		return element.SendKeys(action.Text)
	default:
		// Scroll element into view using JavaScript for better reliability
		if _, err := s.wd.ExecuteScript(`arguments[0].scrollIntoView({block: 'center'}); return true;`, []interface{}{element}); err != nil {
			s.logger.Debugf("Failed to scroll to element: %v", err)
		}
		return element.Click()
	}
}

// Screenshot - captures the viewport as PNG
func (s *SeleniumController) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := s.wd.Screenshot()
	return data, classify(err)
}

// Viewport - returns the viewport size in CSS pixels
func (s *SeleniumController) Viewport(ctx context.Context) (entities.Size, error) {
	raw, err := s.wd.ExecuteScript(`return {width: window.innerWidth, height: window.innerHeight};`, nil)
	if err != nil {
		return entities.Size{}, classify(err)
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return entities.Size{}, fmt.Errorf("unexpected viewport result %T", raw)
	}
	return entities.Size{Width: getInt(m, "width"), Height: getInt(m, "height")}, nil
}

// ClickAt - clicks the element at a viewport coordinate
func (s *SeleniumController) ClickAt(ctx context.Context, p entities.Point) error {
	script := `
	var el = document.elementFromPoint(arguments[0], arguments[1]);
	if (!el) { return false; }
	el.click();
	return true;
	`
	return s.atPoint(script, p)
}

// TypeAt - focuses the field at a viewport coordinate and replaces its value
func (s *SeleniumController) TypeAt(ctx context.Context, p entities.Point, text string) error {
	script := `
	var el = document.elementFromPoint(arguments[0], arguments[1]);
	if (!el) { return false; }
	el.focus();
	if ('value' in el) {
		el.value = arguments[2];
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
	}
	return true;
	`
	return s.atPoint(script, p, text)
}

func (s *SeleniumController) atPoint(script string, p entities.Point, extra ...interface{}) error {
	args := append([]interface{}{p.X, p.Y}, extra...)
	raw, err := s.wd.ExecuteScript(script, args)
	if err != nil {
		return classify(err)
	}
	if hit, _ := raw.(bool); !hit {
		return fmt.Errorf("no element at %s", p)
	}
	return nil
}

// PageInfo - returns the current page URL and title
func (s *SeleniumController) PageInfo(ctx context.Context) (entities.PageInfo, error) {
	url, err := s.wd.CurrentURL()
	if err != nil {
		return entities.PageInfo{}, classify(err)
	}
	title, err := s.wd.Title()
	if err != nil {
		return entities.PageInfo{URL: url}, classify(err)
	}
	return entities.PageInfo{URL: url, Title: title}, nil
}

// SwitchToPopup - waits for a second window and switches to it
func (s *SeleniumController) SwitchToPopup(ctx context.Context, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		handles, err := s.wd.WindowHandles()
		if err != nil {
			return false, classify(err)
		}
		for i := len(handles) - 1; i >= 0; i-- {
			if handles[i] != s.mainHandle {
				if err := s.wd.SwitchWindow(handles[i]); err != nil {
					return false, classify(err)
				}
				return true, nil
			}
		}
		if time.Now().After(deadline) {
			return false, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// ClosePopup - closes the current popup window and returns to the main one.
// A popup the operator already closed leaves the driver on a dead handle; that is not a fault.
func (s *SeleniumController) ClosePopup(ctx context.Context) error {
	current, err := s.wd.CurrentWindowHandle()
	switch {
	case err != nil && isNoSuchWindow(err):
		s.logger.Debug("Popup already closed, returning to main window")
	case err != nil:
		return classify(err)
	case current != s.mainHandle:
		if err := s.wd.CloseWindow(current); err != nil {
			s.logger.Debugf("Failed to close popup: %v", err)
		}
	}
	return classify(s.wd.SwitchWindow(s.mainHandle))
}

// Close - closes browser and stops ChromeDriver service
func (s *SeleniumController) Close() error {
	if s.wd != nil {
		if err := s.wd.Quit(); err != nil {
			s.logger.Debugf("Failed to quit webdriver: %v", err)
		}
		s.wd = nil
	}

	if s.service != nil {
		err := s.service.Stop()
		s.service = nil
		if err != nil {
			return fmt.Errorf("failed to stop chromedriver: %w", err)
		}
	}
	return nil
}

var _ interfaces.BrowserSession = (*SeleniumController)(nil)
