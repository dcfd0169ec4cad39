package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"hometax_automation/domain/entities"
	"hometax_automation/domain/interfaces"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
)

// playwrightInstall is printed when the playwright driver or browsers are missing
const playwrightInstall = "go run github.com/playwright-community/playwright-go/cmd/playwright@latest install --with-deps chromium"

type browserController struct {
	pw          *playwright.Playwright
	browser     playwright.Browser
	page        playwright.Page
	main        playwright.Page
	context     playwright.BrowserContext
	pages       []playwright.Page
	pagesMutex  sync.Mutex
	downloads   sync.WaitGroup
	downloadDir string
	opts        Options
	logger      *logrus.Logger
}

// NewBrowserController - creates new playwright browser session
func NewBrowserController(opts Options, logger *logrus.Logger) (interfaces.BrowserSession, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, &entities.MissingDependencyError{Name: "playwright driver", Install: playwrightInstall, Err: err}
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args: []string{
			"--disable-popup-blocking",
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--disable-infobars",
			"--disable-notifications",
		},
	}
	if opts.SlowMo > 0 {
		launch.SlowMo = playwright.Float(float64(opts.SlowMo.Milliseconds()))
	}

	browser, err := pw.Chromium.Launch(launch)
	if err != nil {
		pw.Stop()
		return nil, &entities.MissingDependencyError{Name: "chromium for playwright", Install: playwrightInstall, Err: err}
	}

	contextOptions := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Width,
			Height: opts.Height,
		},
		JavaScriptEnabled: playwright.Bool(true),
		IgnoreHttpsErrors: playwright.Bool(true),
		AcceptDownloads:   playwright.Bool(true),
		Locale:            playwright.String("ko-KR"),
	}

	context, err := browser.NewContext(contextOptions)
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	controller := &browserController{
		pw:          pw,
		browser:     browser,
		page:        page,
		main:        page,
		context:     context,
		pages:       []playwright.Page{page},
		downloadDir: opts.DownloadDir,
		opts:        opts,
		logger:      logger,
	}
	controller.watchPage(page)

	context.OnPage(func(newPage playwright.Page) {
		controller.pagesMutex.Lock()
		controller.pages = append(controller.pages, newPage)
		controller.pagesMutex.Unlock()

		controller.watchPage(newPage)

		newPage.OnClose(func(closedPage playwright.Page) {
			controller.pagesMutex.Lock()
			defer controller.pagesMutex.Unlock()

			for i, p := range controller.pages {
				if p == closedPage {
					controller.pages = append(controller.pages[:i], controller.pages[i+1:]...)
					break
				}
			}

			if controller.page == closedPage {
				controller.page = controller.main
			}
		})
	})

	logger.WithFields(logrus.Fields{
		"driver":   DriverPlaywright,
		"headless": opts.Headless,
	}).Info("Browser started")

	return controller, nil
}

// watchPage - accepts dialogs and saves downloads of a page
func (b *browserController) watchPage(page playwright.Page) {
	page.OnDialog(func(dialog playwright.Dialog) {
		b.logger.WithField("message", dialog.Message()).Debug("Accepting dialog")
		dialog.Accept()
	})

	if b.downloadDir == "" {
		return
	}
	page.OnDownload(func(download playwright.Download) {
		b.downloads.Add(1)
		go func() {
			defer b.downloads.Done()
			path := filepath.Join(b.downloadDir, download.SuggestedFilename())
			if err := os.MkdirAll(b.downloadDir, 0755); err != nil {
				b.logger.WithError(err).Warn("Failed to create download directory")
				return
			}
			if err := download.SaveAs(path); err != nil {
				b.logger.WithError(err).WithField("file", path).Warn("Failed to save download")
				return
			}
			b.logger.WithField("file", path).Info("Download saved")
		}()
	})
}

// current - returns the page actions go to
func (b *browserController) current() playwright.Page {
	b.pagesMutex.Lock()
	defer b.pagesMutex.Unlock()
	return b.page
}

// Navigate - navigates to the specified URL
func (b *browserController) Navigate(ctx context.Context, url string) error {
	_, err := b.current().Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(b.opts.timeoutMillis()),
	})
	if err != nil {
		return classify(fmt.Errorf("failed to navigate to %s: %w", url, err))
	}
	return nil
}

// TryQuery - acts on the first visible, enabled element matching a CSS or XPath query
func (b *browserController) TryQuery(ctx context.Context, query entities.StructuralQuery, action entities.Action) (bool, error) {
	selector := query.Expression()
	if query.IsXPath() {
		selector = "xpath=" + selector
	}
	return b.tryLocator(b.current().Locator(selector), action)
}

// TryLinkText - acts on the first visible link containing text
func (b *browserController) TryLinkText(ctx context.Context, text string, action entities.Action) (bool, error) {
	return b.tryLocator(b.current().Locator("a", playwright.PageLocatorOptions{HasText: text}), action)
}

// tryLocator - single probe: acts only when the first match is actionable right now
func (b *browserController) tryLocator(locator playwright.Locator, action entities.Action) (bool, error) {
	first := locator.First()

	visible, err := first.IsVisible()
	if err != nil {
		return false, classify(err)
	}
	if !visible {
		return false, nil
	}
	enabled, err := first.IsEnabled(playwright.LocatorIsEnabledOptions{Timeout: playwright.Float(float64(clickTimeout.Milliseconds()))})
	if err != nil {
		return false, classify(err)
	}
	if !enabled {
		return false, nil
	}

	timeout := playwright.Float(float64(clickTimeout.Milliseconds()))
	switch action.Type {
	case entities.ActionTypeText:
		if err := first.Clear(playwright.LocatorClearOptions{Timeout: timeout}); err != nil {
			return false, b.missOrFault(err)
		}
		if err := first.Fill(action.Text, playwright.LocatorFillOptions{Timeout: timeout}); err != nil {
			return false, b.missOrFault(err)
		}
	default:
		if err := first.Click(playwright.LocatorClickOptions{Timeout: timeout}); err != nil {
			return false, b.missOrFault(err)
		}
		b.settle()
	}
	return true, nil
}

// missOrFault - an action timeout is a miss; anything else is classified
func (b *browserController) missOrFault(err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return nil
	}
	return classify(err)
}

// settle - waits briefly for the page to go idle after an action
func (b *browserController) settle() {
	b.current().WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(float64(settleTimeout.Milliseconds())),
	})
}

// Screenshot - captures the visible viewport as PNG
func (b *browserController) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := b.current().Screenshot(playwright.PageScreenshotOptions{
		Type: playwright.ScreenshotTypePng,
	})
	if err != nil {
		return nil, classify(err)
	}
	return data, nil
}

// Viewport - returns the viewport size in CSS pixels
func (b *browserController) Viewport(ctx context.Context) (entities.Size, error) {
	result, err := b.current().Evaluate(`() => ({width: window.innerWidth, height: window.innerHeight})`)
	if err != nil {
		return entities.Size{}, classify(err)
	}
	m, ok := result.(map[string]interface{})
	if !ok {
		return entities.Size{}, fmt.Errorf("unexpected viewport result %T", result)
	}
	return entities.Size{Width: getInt(m, "width"), Height: getInt(m, "height")}, nil
}

// ClickAt - clicks at a viewport coordinate
func (b *browserController) ClickAt(ctx context.Context, p entities.Point) error {
	if err := b.current().Mouse().Click(float64(p.X), float64(p.Y)); err != nil {
		return classify(err)
	}
	b.settle()
	return nil
}

// TypeAt - clicks a viewport coordinate, selects the field content and types over it
func (b *browserController) TypeAt(ctx context.Context, p entities.Point, text string) error {
	page := b.current()
	if err := page.Mouse().Click(float64(p.X), float64(p.Y)); err != nil {
		return classify(err)
	}
	if err := page.Keyboard().Press("ControlOrMeta+a"); err != nil {
		return classify(err)
	}
	if err := page.Keyboard().Type(text); err != nil {
		return classify(err)
	}
	return nil
}

// PageInfo - returns the current page URL and title
func (b *browserController) PageInfo(ctx context.Context) (entities.PageInfo, error) {
	page := b.current()
	title, err := page.Title()
	if err != nil {
		return entities.PageInfo{URL: page.URL()}, classify(err)
	}
	return entities.PageInfo{URL: page.URL(), Title: title}, nil
}

// SwitchToPopup - waits for a page other than the main one and makes it current
func (b *browserController) SwitchToPopup(ctx context.Context, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		b.pagesMutex.Lock()
		var popup playwright.Page
		for i := len(b.pages) - 1; i >= 0; i-- {
			if b.pages[i] != b.main && !b.pages[i].IsClosed() {
				popup = b.pages[i]
				break
			}
		}
		if popup != nil {
			b.page = popup
		}
		b.pagesMutex.Unlock()

		if popup != nil {
			popup.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
				State:   playwright.LoadStateDomcontentloaded,
				Timeout: playwright.Float(b.opts.timeoutMillis()),
			})
			return true, nil
		}
		if b.main.IsClosed() {
			return false, fmt.Errorf("%w: main window closed", entities.ErrSessionUnusable)
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

// ClosePopup - closes the current popup and returns to the main window
func (b *browserController) ClosePopup(ctx context.Context) error {
	b.pagesMutex.Lock()
	page := b.page
	b.page = b.main
	b.pagesMutex.Unlock()

	if page == b.main {
		return nil
	}
	if err := page.Close(); err != nil && !isClosedError(err) {
		return classify(fmt.Errorf("failed to close popup: %w", err))
	}
	return nil
}

// ExportPDF - prints the current page to a PDF file; chromium supports it only headless
func (b *browserController) ExportPDF(ctx context.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create PDF directory: %w", err)
	}
	if _, err := b.current().PDF(playwright.PagePdfOptions{
		Path:            playwright.String(path),
		PrintBackground: playwright.Bool(true),
	}); err != nil {
		return classify(fmt.Errorf("failed to export PDF: %w", err))
	}
	return nil
}

// Close - waits for pending downloads (bounded by the page timeout) and closes the browser
func (b *browserController) Close() error {
	timeout := b.opts.withDefaults().Timeout
	if !waitFor(&b.downloads, timeout) {
		b.logger.WithField("timeout", timeout).Warn("Downloads still running, closing browser anyway")
	}

	var closeErr error

	if b.context != nil {
		if err := b.context.Close(); err != nil && !isClosedError(err) {
			closeErr = fmt.Errorf("failed to close context: %w", err)
		}
		b.context = nil
	}

	if b.browser != nil {
		if err := b.browser.Close(); err != nil && !isClosedError(err) {
			if closeErr != nil {
				closeErr = fmt.Errorf("%v; failed to close browser: %w", closeErr, err)
			} else {
				closeErr = fmt.Errorf("failed to close browser: %w", err)
			}
		}
		b.browser = nil
	}

	if b.pw != nil {
		if err := b.pw.Stop(); err != nil && closeErr == nil {
			closeErr = fmt.Errorf("failed to stop playwright: %w", err)
		}
		b.pw = nil
	}

	return closeErr
}

// getInt - extracts integer value from map
func getInt(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		switch val := v.(type) {
		case int:
			return val
		case int64:
			return int(val)
		case float64:
			return int(val)
		}
	}
	return 0
}

var _ interfaces.PDFExporter = (*browserController)(nil)

// waitFor - waits for wg up to d and reports whether it finished
func waitFor(wg *sync.WaitGroup, d time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
