// Package session abstracts the rendering engine behind a small blocking
// interface: navigate, capture markup, and the page primitives reveal
// strategies need. Two implementations exist: a Chrome session driven via
// Rod with stealth applied, and an HTTP-only session for static pages.
// The pipeline is written against the interface so tests replay scripted
// snapshots without a browser.
package session

import "context"

// Session is one browsing context. Implementations hold no cross-call
// cache: every call reflects live page state. All methods are blocking;
// callers bound them with the context.
type Session interface {
	// Open navigates to url and waits for readiness. Fails with a
	// *NavigationError on unreachable host, terminal non-2xx response, or
	// readiness-wait timeout.
	Open(ctx context.Context, url string) error

	// HTML returns the current markup of the page. Fails with a
	// *RenderError when the session is closed or the page context was
	// invalidated.
	HTML(ctx context.Context) (string, error)

	// Count reports how many elements currently match selector.
	Count(ctx context.Context, selector string) (int, error)

	// Click clicks the first element matching selector. Returns false when
	// no such element exists; that is not an error.
	Click(ctx context.Context, selector string) (bool, error)

	// ScrollBottom scrolls the feed to its bottom so lazy content loads.
	ScrollBottom(ctx context.Context) error

	// WaitQuiet blocks until the page stops mutating or ctx expires.
	WaitQuiet(ctx context.Context) error

	// Close releases the underlying page. Idempotent, safe on every exit
	// path.
	Close() error
}
