//go:build !desktop

package vision

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"hometax_automation/domain/entities"
	"hometax_automation/domain/interfaces"
)

// NewDesktopScreen - desktop input is not compiled in; rebuild with -tags desktop
func NewDesktopScreen(pause time.Duration, logger *logrus.Logger) (interfaces.Screen, error) {
	return nil, fmt.Errorf("%w: built without desktop support (rebuild with -tags desktop)", entities.ErrCoordinateFinderUnavailable)
}
