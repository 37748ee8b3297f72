package pipeline

import (
	"context"
	"errors"

	"github.com/hazyhaar/revpull/parse"
	"github.com/hazyhaar/revpull/reveal"
	"github.com/hazyhaar/revpull/session"
)

// Class categorizes a run failure for the caller.
type Class string

const (
	// ClassNavigation: target unreachable or blocked; fatal once retries
	// are exhausted.
	ClassNavigation Class = "navigation"
	// ClassRender: session invalidated mid-run; retried, then degrades to
	// a partial result.
	ClassRender Class = "render"
	// ClassParse: page structure not recognized; two in a row abort.
	ClassParse Class = "parse"
	// ClassReveal: a reveal attempt failed; retried.
	ClassReveal Class = "reveal"
	// ClassCancelled: the caller's context was cancelled.
	ClassCancelled Class = "cancelled"
	// ClassBudget: a wall-clock or iteration budget forced completion.
	ClassBudget Class = "budget"
	// ClassUnknown: anything else.
	ClassUnknown Class = "unknown"
)

// Classify maps an error to its class. Reveal wrapping is inspected first:
// a reveal failure caused by a dead session is still a reveal failure from
// the retry policy's point of view.
func Classify(err error) Class {
	if err == nil {
		return ClassUnknown
	}

	var revealErr *reveal.Error
	if errors.As(err, &revealErr) {
		return ClassReveal
	}
	var navErr *session.NavigationError
	if errors.As(err, &navErr) {
		return ClassNavigation
	}
	var renderErr *session.RenderError
	if errors.As(err, &renderErr) {
		return ClassRender
	}
	var structErr *parse.StructureError
	if errors.As(err, &structErr) {
		return ClassParse
	}
	if errors.Is(err, ErrDurationBudget) || errors.Is(err, ErrIterationBudget) {
		return ClassBudget
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ClassCancelled
	}
	return ClassUnknown
}
