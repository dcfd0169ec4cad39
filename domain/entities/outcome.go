package entities

// FinderKind identifies a locate strategy
type FinderKind string

const (
	FinderStructural FinderKind = "structural"
	FinderLinkText   FinderKind = "link_text"
	FinderImage      FinderKind = "image"
	FinderOCR        FinderKind = "ocr"
)

// AllFinderKinds returns every kind in strict priority order
func AllFinderKinds() []FinderKind {
	return []FinderKind{FinderStructural, FinderLinkText, FinderImage, FinderOCR}
}

// Priority returns the position of the kind in the fallback order; lower runs first
func (k FinderKind) Priority() int {
	for i, kind := range AllFinderKinds() {
		if kind == k {
			return i
		}
	}
	return len(AllFinderKinds())
}

// Target describes what a finder acted upon
type Target struct {
	Kind  FinderKind `json:"kind"`
	Query string     `json:"query,omitempty"`
	Point *Point     `json:"point,omitempty"`
	Score float64    `json:"score,omitempty"`
}

// OutcomeStatus is the terminal state of one locate-and-act call
type OutcomeStatus string

const (
	StatusSucceeded        OutcomeStatus = "succeeded"
	StatusRequiresOperator OutcomeStatus = "requires_operator"
)

// Outcome is the result of one locate-and-act call
type Outcome struct {
	Status OutcomeStatus `json:"status"`
	Via    FinderKind    `json:"via,omitempty"`
	Target *Target       `json:"target,omitempty"`
}

// NewSucceeded returns an outcome for a finder that acted on target
func NewSucceeded(target Target) Outcome {
	return Outcome{Status: StatusSucceeded, Via: target.Kind, Target: &target}
}

// NewRequiresOperator returns the outcome of the manual fallback
func NewRequiresOperator() Outcome {
	return Outcome{Status: StatusRequiresOperator}
}

// Automated reports whether a finder performed the action
func (o Outcome) Automated() bool {
	return o.Status == StatusSucceeded
}
