package finder

import (
	"context"
	"time"

	"hometax_automation/domain/entities"
	"hometax_automation/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// DOMFinder polls the live page through the browser session.
// It serves both the structural and the link-text strategies.
type DOMFinder struct {
	kind     entities.FinderKind
	session  interfaces.BrowserSession
	wait     time.Duration
	interval time.Duration
	logger   *logrus.Logger
}

// NewStructuralFinder - creates a finder for CSS/XPath queries
func NewStructuralFinder(session interfaces.BrowserSession, wait, interval time.Duration, logger *logrus.Logger) *DOMFinder {
	return &DOMFinder{
		kind:     entities.FinderStructural,
		session:  session,
		wait:     wait,
		interval: interval,
		logger:   logger,
	}
}

// NewLinkTextFinder - creates a finder for link-text substrings
func NewLinkTextFinder(session interfaces.BrowserSession, wait, interval time.Duration, logger *logrus.Logger) *DOMFinder {
	return &DOMFinder{
		kind:     entities.FinderLinkText,
		session:  session,
		wait:     wait,
		interval: interval,
		logger:   logger,
	}
}

// Kind - returns the finder kind
func (f *DOMFinder) Kind() entities.FinderKind {
	return f.kind
}

// Attempt - polls the page until the target is actionable, then acts on it
func (f *DOMFinder) Attempt(ctx context.Context, req entities.LocateRequest, action entities.Action) (entities.Target, bool, error) {
	wait := f.wait
	var query string
	var probe func() (bool, error)

	switch f.kind {
	case entities.FinderLinkText:
		query = req.LinkText
		probe = func() (bool, error) {
			return f.session.TryLinkText(ctx, req.LinkText, action)
		}
	default:
		if req.Wait > 0 {
			wait = req.Wait
		}
		query = string(req.Structural)
		probe = func() (bool, error) {
			return f.session.TryQuery(ctx, req.Structural, action)
		}
	}

	res, err := pollUntil(ctx, wait, f.interval, probe)
	if err != nil {
		return entities.Target{}, false, err
	}
	if !res.found {
		fields := logrus.Fields{"finder": f.kind, "query": query, "wait": wait, "probes": res.probes}
		if res.lastErr != nil {
			fields["last_error"] = res.lastErr.Error()
		}
		f.logger.WithFields(fields).Debug("no actionable element")
		return entities.Target{}, false, nil
	}

	return entities.Target{Kind: f.kind, Query: query}, true, nil
}

var _ interfaces.Finder = (*DOMFinder)(nil)
