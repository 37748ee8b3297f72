package session

import "fmt"

// NavigationError reports a failed navigation: unreachable host, terminal
// non-2xx response, or readiness-wait timeout. Fatal for the run once the
// caller's retry budget is exhausted.
type NavigationError struct {
	URL    string
	Status int // HTTP status when known, 0 otherwise
	Err    error
}

func (e *NavigationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("session: navigate %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("session: navigate %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// RenderError reports an invalidated session: closed, crashed tab, or a
// page that navigated away mid-run. Transient from the pipeline's point of
// view; it retries before degrading to a partial result.
type RenderError struct {
	Reason string
	Err    error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("session: %s", e.Reason)
}

func (e *RenderError) Unwrap() error { return e.Err }
