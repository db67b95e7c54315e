// Package generator turns a topic (and optional study material) into multiple-choice
// questions using a text-completion backend, degrading to built-in templates when the
// backend fails or returns something unusable.
package generator

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrTimeout marks a completion that did not finish in time. Retrying may help.
	ErrTimeout = errors.New("generator timed out")
	// ErrService marks any other completion failure.
	ErrService = errors.New("generator service error")
)

// Completer sends one prompt and returns the raw completion text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// classify wraps err with ErrTimeout or ErrService.
func classify(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrService, err)
}

// publicReason describes err without upstream details.
func publicReason(err error) string {
	if errors.Is(err, ErrTimeout) {
		return ErrTimeout.Error()
	}
	return "generator unavailable"
}
