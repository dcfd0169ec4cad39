package entities

// StepKind represents the type of a workflow step
type StepKind string

const (
	StepNavigate   StepKind = "navigate"
	StepLocate     StepKind = "locate"
	StepManual     StepKind = "manual"
	StepPopup      StepKind = "popup"
	StepClosePopup StepKind = "close_popup"
	StepExportPDF  StepKind = "export_pdf"
)

// StepStatus represents the status of a step
type StepStatus string

const (
	StepStatusPending    StepStatus = "pending"
	StepStatusInProgress StepStatus = "in_progress"
	StepStatusCompleted  StepStatus = "completed"
	StepStatusManual     StepStatus = "manual"
	StepStatusSkipped    StepStatus = "skipped"
	StepStatusFailed     StepStatus = "failed"
)

// Step is one entry of a workflow plan.
// Locate builds the request at execution time so that nothing is reused between calls.
type Step struct {
	Name         string
	Kind         StepKind
	URL          string
	Locate       func() (LocateRequest, Action)
	Instructions []string
	FileName     string
	Optional     bool
	// TryOnly locate steps never ask the operator; a miss skips them
	TryOnly bool
	// SkipAfter names an earlier step whose completion makes this one unnecessary
	SkipAfter string
	Status    StepStatus
}
