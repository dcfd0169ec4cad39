package entities

// OperatorPrompt is shown when every finder failed and a human has to act
type OperatorPrompt struct {
	Description string       `json:"description"`
	Action      Action       `json:"action"`
	Attempted   []FinderKind `json:"attempted,omitempty"`
	// Instructions replace the generated action text for manual steps
	Instructions []string `json:"instructions,omitempty"`
}

// Summary returns the intended action in human terms
func (p OperatorPrompt) Summary() string {
	return p.Action.Describe(p.Description)
}
