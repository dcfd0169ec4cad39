package interfaces

import (
	"context"

	"hometax_automation/domain/entities"
)

// Operator is the human at the terminal
type Operator interface {
	// Confirm shows the prompt and blocks until the operator acknowledges it.
	// It returns an error only when the wait is interrupted.
	Confirm(ctx context.Context, prompt entities.OperatorPrompt) error
}
