package actions

import (
	"errors"
	"fmt"

	"github.com/entrhq/steer/pkg/engine"
)

// DefaultSelectorTimeoutMS is used when a selector wait has no timeout.
const DefaultSelectorTimeoutMS = 30000.0

// ErrSelectorTimeout is matched by every SelectorTimeoutError.
var ErrSelectorTimeout = errors.New("selector timeout")

// SelectorTimeoutError reports a selector that did not attach in time. It
// unwraps to the engine's timeout error.
type SelectorTimeoutError struct {
	Selector  string
	TimeoutMS float64
	Err       error
}

func (e *SelectorTimeoutError) Error() string {
	return fmt.Sprintf("selector %q was not attached within %.0fms: %v", e.Selector, e.TimeoutMS, e.Err)
}

func (e *SelectorTimeoutError) Unwrap() error {
	return e.Err
}

// Is reports ErrSelectorTimeout as a match.
func (e *SelectorTimeoutError) Is(target error) bool {
	return target == ErrSelectorTimeout
}

func selectorTimeout(timeoutMS float64) float64 {
	if timeoutMS <= 0 {
		return DefaultSelectorTimeoutMS
	}
	return timeoutMS
}

// EnsureSelectorExists blocks until an element matching selector is attached
// to the DOM. A timeout is returned as *SelectorTimeoutError; other engine
// errors are returned unchanged.
func EnsureSelectorExists(page engine.Page, selector string, timeoutMS float64) error {
	timeoutMS = selectorTimeout(timeoutMS)
	err := page.WaitForSelector(selector, engine.WaitOptions{
		TimeoutMS: timeoutMS,
		State:     engine.StateAttached,
	})
	if err == nil {
		return nil
	}
	if engine.IsTimeout(err) {
		return &SelectorTimeoutError{Selector: selector, TimeoutMS: timeoutMS, Err: err}
	}
	return err
}

// ElementExists performs the same wait as EnsureSelectorExists but never
// fails: a timeout yields false and every other outcome yields true.
func ElementExists(page engine.Page, selector string, timeoutMS float64) bool {
	exists, _ := lookupSelector(page, selector, timeoutMS)
	return exists
}

// lookupSelector is ElementExists that also hands back a non-timeout error so
// callers holding a logger can report it.
func lookupSelector(page engine.Page, selector string, timeoutMS float64) (bool, error) {
	err := EnsureSelectorExists(page, selector, timeoutMS)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrSelectorTimeout):
		return false, nil
	default:
		return true, err
	}
}
