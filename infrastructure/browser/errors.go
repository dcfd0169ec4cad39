package browser

import (
	"errors"
	"fmt"
	"strings"

	"hometax_automation/domain/entities"
)

// sessionFaultMarkers are fragments of driver errors that mean the session is gone
var sessionFaultMarkers = []string{
	"target closed",
	"target page, context or browser has been closed",
	"browser has been closed",
	"browser has disconnected",
	"invalid session id",
	"no such window",
	"chrome not reachable",
	"session deleted",
	"connection refused",
	"websocket: close",
}

// classify - wraps errors that mean the session can no longer be driven as ErrSessionUnusable
func classify(err error) error {
	if err == nil || errors.Is(err, entities.ErrSessionUnusable) {
		return err
	}
	if isSessionFault(err) {
		return fmt.Errorf("%w: %v", entities.ErrSessionUnusable, err)
	}
	return err
}

func isSessionFault(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range sessionFaultMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// isClosedError - reports errors from closing something that is already closed
func isClosedError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "closed") || strings.Contains(msg, "target closed")
}

// isNoSuchWindow - the current window handle no longer exists
func isNoSuchWindow(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no such window")
}
