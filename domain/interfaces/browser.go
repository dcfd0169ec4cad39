package interfaces

import (
	"context"
	"time"

	"hometax_automation/domain/entities"
)

// BrowserSession defines the automation session a run owns.
// Try* methods are single probes: they report found=false when nothing
// actionable matches right now and only return errors wrapping
// entities.ErrSessionUnusable for faults of the session itself; any other
// error is a failed probe.
type BrowserSession interface {
	// Navigate navigates to a URL
	Navigate(ctx context.Context, url string) error

	// TryQuery acts on the first actionable element matching a CSS or XPath query
	TryQuery(ctx context.Context, query entities.StructuralQuery, action entities.Action) (bool, error)

	// TryLinkText acts on the first actionable link whose visible text contains text
	TryLinkText(ctx context.Context, text string, action entities.Action) (bool, error)

	// Screenshot captures the visible viewport as PNG
	Screenshot(ctx context.Context) ([]byte, error)

	// Viewport returns the viewport size in CSS pixels
	Viewport(ctx context.Context) (entities.Size, error)

	// ClickAt clicks at a viewport coordinate
	ClickAt(ctx context.Context, p entities.Point) error

	// TypeAt focuses the element at a viewport coordinate and replaces its content
	TypeAt(ctx context.Context, p entities.Point, text string) error

	// PageInfo returns the current page URL and title
	PageInfo(ctx context.Context) (entities.PageInfo, error)

	// SwitchToPopup waits for a second window and makes it current
	SwitchToPopup(ctx context.Context, timeout time.Duration) (bool, error)

	// ClosePopup closes the current popup and returns to the main window
	ClosePopup(ctx context.Context) error

	// Close closes the browser
	Close() error
}

// PDFExporter is implemented by sessions that can print the current page to PDF
type PDFExporter interface {
	ExportPDF(ctx context.Context, path string) error
}
