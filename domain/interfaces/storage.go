package interfaces

import "hometax_automation/domain/entities"

// Relocator moves a file to a new path without ever losing it
type Relocator interface {
	// Relocate moves src to dst. On failure the source stays in place.
	Relocate(src, dst string) (entities.RelocationMethod, error)
}
