package escalate

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Multi wraps multiple escalators and fans out to all of them
type Multi struct {
	escalators []Escalator
}

// NewMulti creates a Multi escalator that sends to all provided backends
func NewMulti(escalators ...Escalator) *Multi {
	return &Multi{escalators: escalators}
}

// Escalate sends the escalation to all backends concurrently and returns
// every failure joined, each prefixed with the backend name.
func (m *Multi) Escalate(ctx context.Context, e Escalation) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, esc := range m.escalators {
		wg.Add(1)
		go func(esc Escalator) {
			defer wg.Done()
			if err := esc.Escalate(ctx, e); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", esc.Name(), err))
				mu.Unlock()
			}
		}(esc)
	}

	wg.Wait()
	return errors.Join(errs...)
}

// Name returns "multi"
func (m *Multi) Name() string {
	return "multi"
}
