package browser

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"hometax_automation/domain/entities"
	"hometax_automation/domain/interfaces"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

const rodInstall = "install Chrome/Chromium, or let rod download one by allowing network access on first launch"

// RodController drives Chrome over the DevTools protocol
type RodController struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	main     *rod.Page
	page     *rod.Page
	mu       sync.Mutex
	opts     Options
	logger   *logrus.Logger
}

// NewRodController - launches a browser and opens the main page
func NewRodController(opts Options, logger *logrus.Logger) (*RodController, error) {
	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-popup-blocking").
		Set("disable-dev-shm-usage")
	if opts.UserDataDir != "" {
		l = l.UserDataDir(opts.UserDataDir)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, &entities.MissingDependencyError{Name: "chrome for rod", Install: rodInstall, Err: err}
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		logger.Warnf("Failed to set viewport: %v", err)
	}

	if opts.DownloadDir != "" {
		if err := os.MkdirAll(opts.DownloadDir, 0755); err != nil {
			logger.Warnf("Failed to create download directory: %v", err)
		}
		err := proto.BrowserSetDownloadBehavior{
			Behavior:     proto.BrowserSetDownloadBehaviorBehaviorAllow,
			DownloadPath: opts.DownloadDir,
		}.Call(browser)
		if err != nil {
			logger.Warnf("Failed to route downloads: %v", err)
		}
	}

	// accept alert/confirm dialogs of the main page
	go page.EachEvent(func(e *proto.PageJavascriptDialogOpening) {
		_ = proto.PageHandleJavaScriptDialog{Accept: true}.Call(page)
	})()

	logger.WithFields(logrus.Fields{
		"driver":   DriverRod,
		"headless": opts.Headless,
	}).Info("Browser started")

	return &RodController{
		launcher: l,
		browser:  browser,
		main:     page,
		page:     page,
		opts:     opts,
		logger:   logger,
	}, nil
}

func (r *RodController) current() *rod.Page {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.page
}

// Navigate - navigates to the specified URL and waits for the load event
func (r *RodController) Navigate(ctx context.Context, url string) error {
	page := r.current().Context(ctx).Timeout(r.opts.Timeout)
	if err := page.Navigate(url); err != nil {
		return classify(fmt.Errorf("failed to navigate to %s: %w", url, err))
	}
	if err := page.WaitLoad(); err != nil {
		r.logger.Debugf("Load wait ended early: %v", err)
	}
	return nil
}

// TryQuery - acts on the first visible, enabled element matching a CSS or XPath query
func (r *RodController) TryQuery(ctx context.Context, query entities.StructuralQuery, action entities.Action) (bool, error) {
	page := r.current().Context(ctx)
	var elements rod.Elements
	var err error
	if query.IsXPath() {
		elements, err = page.ElementsX(query.Expression())
	} else {
		elements, err = page.Elements(query.Expression())
	}
	if err != nil {
		return false, r.probeError(err)
	}
	return r.tryElements(ctx, elements, action)
}

// TryLinkText - acts on the first visible link whose text contains text
func (r *RodController) TryLinkText(ctx context.Context, text string, action entities.Action) (bool, error) {
	xpath := fmt.Sprintf("//a[contains(normalize-space(.), %s)]", xpathLiteral(text))
	elements, err := r.current().Context(ctx).ElementsX(xpath)
	if err != nil {
		return false, r.probeError(err)
	}
	return r.tryElements(ctx, elements, action)
}

func (r *RodController) tryElements(ctx context.Context, elements rod.Elements, action entities.Action) (bool, error) {
	for _, element := range elements {
		visible, err := element.Visible()
		if err != nil || !visible {
			continue
		}
		if disabled, err := element.Attribute("disabled"); err == nil && disabled != nil {
			continue
		}

		el := element.Context(ctx).Timeout(clickTimeout)
		var actErr error
		switch action.Type {
		case entities.ActionTypeText:
			if actErr = el.SelectAllText(); actErr == nil {
				actErr = el.Input(action.Text)
			}
		default:
			actErr = el.Click(proto.InputMouseButtonLeft, 1)
		}
		if actErr != nil {
			if isSessionFault(actErr) {
				return false, classify(actErr)
			}
			r.logger.Debugf("Element not actionable yet: %v", actErr)
			continue
		}
		return true, nil
	}
	return false, nil
}

// probeError - session faults propagate; anything else is a failed probe
func (r *RodController) probeError(err error) error {
	if isSessionFault(err) {
		return classify(err)
	}
	return err
}

// xpathLiteral - quotes s for use in an XPath expression
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = "'" + p + "'"
	}
	return "concat(" + strings.Join(quoted, `, "'", `) + ")"
}

// Screenshot - captures the visible viewport as PNG
func (r *RodController) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := r.current().Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	return data, classify(err)
}

// Viewport - returns the viewport size in CSS pixels
func (r *RodController) Viewport(ctx context.Context) (entities.Size, error) {
	res, err := r.current().Context(ctx).Eval(`() => ({width: window.innerWidth, height: window.innerHeight})`)
	if err != nil {
		return entities.Size{}, classify(err)
	}
	return entities.Size{Width: res.Value.Get("width").Int(), Height: res.Value.Get("height").Int()}, nil
}

// ClickAt - clicks at a viewport coordinate
func (r *RodController) ClickAt(ctx context.Context, p entities.Point) error {
	page := r.current().Context(ctx)
	if err := page.Mouse.MoveTo(proto.Point{X: float64(p.X), Y: float64(p.Y)}); err != nil {
		return classify(err)
	}
	return classify(page.Mouse.Click(proto.InputMouseButtonLeft, 1))
}

// TypeAt - clicks a viewport coordinate, selects the field content and types over it
func (r *RodController) TypeAt(ctx context.Context, p entities.Point, text string) error {
	if err := r.ClickAt(ctx, p); err != nil {
		return err
	}
	page := r.current().Context(ctx)
	if err := page.KeyActions().Press(input.ControlLeft).Type(input.KeyA).Do(); err != nil {
		return classify(err)
	}
	return classify(page.InsertText(text))
}

// PageInfo - returns the current page URL and title
func (r *RodController) PageInfo(ctx context.Context) (entities.PageInfo, error) {
	info, err := r.current().Context(ctx).Info()
	if err != nil {
		return entities.PageInfo{}, classify(err)
	}
	return entities.PageInfo{URL: info.URL, Title: info.Title}, nil
}

// SwitchToPopup - waits for a page other than the main one and makes it current
func (r *RodController) SwitchToPopup(ctx context.Context, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		pages, err := r.browser.Pages()
		if err != nil {
			return false, classify(err)
		}
		for _, p := range pages {
			if p.TargetID != r.main.TargetID {
				r.mu.Lock()
				r.page = p
				r.mu.Unlock()
				if err := p.Context(ctx).Timeout(r.opts.Timeout).WaitLoad(); err != nil {
					r.logger.Debugf("Popup load wait ended early: %v", err)
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

// ClosePopup - closes the current popup and returns to the main page
func (r *RodController) ClosePopup(ctx context.Context) error {
	r.mu.Lock()
	page := r.page
	r.page = r.main
	r.mu.Unlock()

	if page.TargetID == r.main.TargetID {
		return nil
	}
	if err := page.Close(); err != nil && !isClosedError(err) {
		return classify(fmt.Errorf("failed to close popup: %w", err))
	}
	return nil
}

// ExportPDF - prints the current page to a PDF file
func (r *RodController) ExportPDF(ctx context.Context, path string) error {
	stream, err := r.current().Context(ctx).PDF(&proto.PagePrintToPDF{PrintBackground: true})
	if err != nil {
		return classify(fmt.Errorf("failed to export PDF: %w", err))
	}
	defer stream.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create PDF directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create PDF file: %w", err)
	}
	if _, err := io.Copy(f, stream); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return f.Close()
}

// Close - closes the browser and removes the launcher's temporary profile
func (r *RodController) Close() error {
	var closeErr error
	if r.browser != nil {
		if err := r.browser.Close(); err != nil && !isClosedError(err) {
			closeErr = fmt.Errorf("failed to close browser: %w", err)
		}
		r.browser = nil
	}
	if r.launcher != nil {
		r.launcher.Kill()
		if r.opts.UserDataDir == "" {
			r.launcher.Cleanup()
		}
		r.launcher = nil
	}
	return closeErr
}

var (
	_ interfaces.BrowserSession = (*RodController)(nil)
	_ interfaces.PDFExporter    = (*RodController)(nil)
)
