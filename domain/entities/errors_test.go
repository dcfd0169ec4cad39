package entities

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFatal(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"session fault", fmt.Errorf("click: %w", ErrSessionUnusable), true},
		{"operator interrupt", fmt.Errorf("wait: %w", ErrOperatorInterrupt), true},
		{"canceled", fmt.Errorf("poll: %w", context.Canceled), true},
		{"finder miss", errors.New("element not interactable"), false},
		{"missing dependency", &MissingDependencyError{Name: "tesseract"}, false},
		{"no finders", ErrNoFinders, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fatal, IsFatal(ctx, tt.err))
		})
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.True(t, IsFatal(canceled, errors.New("anything")), "a finished context ends the run")
}
