package interfaces

import (
	"context"

	"hometax_automation/domain/entities"
)

// Finder is one locate-and-act strategy of the locator loop
type Finder interface {
	// Kind returns the strategy this finder implements
	Kind() entities.FinderKind

	// Attempt locates the request's target and performs action on it.
	// A miss is found=false with a nil error; errors are reserved for faults.
	Attempt(ctx context.Context, req entities.LocateRequest, action entities.Action) (entities.Target, bool, error)
}
