// Package reveal decides how additional review content is surfaced:
// scrolling the feed, clicking a "load more" control, or both. A strategy
// reports one of four outcomes per attempt; the pipeline drives the loop.
package reveal

import (
	"context"
	"fmt"

	"github.com/hazyhaar/revpull/session"
)

// Kind enumerates reveal attempt results.
type Kind int

const (
	// Advanced: new content appeared; keep looping.
	Advanced Kind = iota
	// NoChange: the attempt ran but nothing new appeared.
	NoChange
	// EndOfContent: the strategy concluded nothing more can be surfaced.
	EndOfContent
	// Failed: a session error; the pipeline may retry.
	Failed
)

func (k Kind) String() string {
	switch k {
	case Advanced:
		return "advanced"
	case NoChange:
		return "no_change"
	case EndOfContent:
		return "end_of_content"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Outcome is the tagged result of one reveal attempt. Err is set only for
// Failed.
type Outcome struct {
	Kind Kind
	Err  error
}

// Strategy surfaces more content in a session. Implementations keep their
// own growth-tracking state and are not safe for concurrent use; each
// pipeline run gets its own instance.
type Strategy interface {
	Advance(ctx context.Context, s session.Session) Outcome
}

// Error wraps a session failure observed during a reveal attempt, so the
// pipeline can classify it separately from direct session errors.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("reveal: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func failed(op string, err error) Outcome {
	return Outcome{Kind: Failed, Err: &Error{Op: op, Err: err}}
}
