package entities

import "fmt"

// ActionType represents what is done to a located target
type ActionType string

const (
	ActionClick    ActionType = "click"
	ActionTypeText ActionType = "type"
)

// Action represents the single action performed once a target is found.
// TypeText replaces any existing content of the target field.
type Action struct {
	Type      ActionType `json:"type"`
	Text      string     `json:"text,omitempty"`
	Sensitive bool       `json:"sensitive,omitempty"`
}

// Click returns a click action
func Click() Action {
	return Action{Type: ActionClick}
}

// TypeText returns an action typing text into the found field
func TypeText(text string) Action {
	return Action{Type: ActionTypeText, Text: text}
}

// SensitiveText returns a TypeText action whose text is masked in output
func SensitiveText(text string) Action {
	return Action{Type: ActionTypeText, Text: text, Sensitive: true}
}

// DisplayText returns the text as it may be shown to the operator or logged
func (a Action) DisplayText() string {
	if !a.Sensitive {
		return a.Text
	}
	if len(a.Text) <= 2 {
		return "**"
	}
	return a.Text[:1] + "****" + a.Text[len(a.Text)-1:]
}

// Describe returns the action in human terms for the given target description
func (a Action) Describe(target string) string {
	switch a.Type {
	case ActionTypeText:
		return fmt.Sprintf("type %q into %s", a.DisplayText(), target)
	default:
		return fmt.Sprintf("click %s", target)
	}
}
