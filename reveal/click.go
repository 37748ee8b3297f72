package reveal

import (
	"context"

	"github.com/hazyhaar/revpull/session"
)

// Click reveals content by clicking a designated "load more" control.
// EndOfContent as soon as the control disappears.
type Click struct {
	// Selector locates the load-more control.
	Selector string
}

var _ Strategy = (*Click)(nil)

// NewClick creates a click strategy for the given control selector.
func NewClick(selector string) *Click {
	return &Click{Selector: selector}
}

// Advance clicks the control and waits for the page to settle.
func (c *Click) Advance(ctx context.Context, sess session.Session) Outcome {
	found, err := sess.Click(ctx, c.Selector)
	if err != nil {
		return failed("click "+c.Selector, err)
	}
	if !found {
		return Outcome{Kind: EndOfContent}
	}
	if err := sess.WaitQuiet(ctx); err != nil {
		return failed("wait quiet", err)
	}
	return Outcome{Kind: Advanced}
}

// Auto tries the click strategy first and falls back to scrolling once the
// control is gone. Pages mix both patterns: a button for the first batches,
// infinite scroll afterwards.
type Auto struct {
	Click  *Click
	Scroll *Scroll

	clickDone bool
}

var _ Strategy = (*Auto)(nil)

// NewAuto combines a click strategy with a scroll fallback.
func NewAuto(click *Click, scroll *Scroll) *Auto {
	return &Auto{Click: click, Scroll: scroll}
}

// Advance delegates to the click strategy until it reports EndOfContent,
// then hands the session to the scroll strategy for good.
func (a *Auto) Advance(ctx context.Context, sess session.Session) Outcome {
	if !a.clickDone {
		out := a.Click.Advance(ctx, sess)
		if out.Kind != EndOfContent {
			return out
		}
		a.clickDone = true
	}
	return a.Scroll.Advance(ctx, sess)
}
