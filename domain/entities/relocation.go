package entities

// RelocationMethod tells how a file reached its destination
type RelocationMethod string

const (
	// RelocationMoved means the file was renamed or copied and its source removed
	RelocationMoved RelocationMethod = "moved"
	// RelocationCopied means a verified copy exists and the source was kept
	RelocationCopied RelocationMethod = "copied"
	// RelocationFailed means the destination was not written
	RelocationFailed RelocationMethod = "failed"
)

// RelocatedFile is one file handled by triage
type RelocatedFile struct {
	Name        string           `json:"name"`
	Source      string           `json:"source"`
	Destination string           `json:"destination"`
	Method      RelocationMethod `json:"method"`
	MIME        string           `json:"mime,omitempty"`
	Err         error            `json:"-"`
}
