package strategy

import (
	"errors"
	"fmt"
)

// Step is one attempt in an ordered fallback chain. Chains replace nested
// error handling wherever several approaches are tried in sequence: text
// encodings, spreadsheet readers, DVR endpoint and auth combinations.
type Step[T any] struct {
	Name string
	Run  func() (T, error)
}

// Run tries steps in order and returns the first success along with the name
// of the step that produced it. When every step fails, the returned error
// accounts for each attempt by name.
func Run[T any](steps []Step[T]) (T, string, error) {
	var attempts []error
	for _, step := range steps {
		v, err := step.Run()
		if err == nil {
			return v, step.Name, nil
		}
		attempts = append(attempts, fmt.Errorf("%s: %w", step.Name, err))
	}
	var zero T
	if len(attempts) == 0 {
		return zero, "", errors.New("no strategies configured")
	}
	return zero, "", errors.Join(attempts...)
}
