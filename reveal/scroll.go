package reveal

import (
	"context"

	"github.com/hazyhaar/revpull/session"
)

// Scroll reveals content by scrolling the feed to its bottom and watching
// the card count. EndOfContent after IdleThreshold consecutive
// zero-growth observations.
type Scroll struct {
	// CardSelector counts loaded review cards; growth means progress.
	CardSelector string

	// IdleThreshold is how many consecutive zero-growth observations mean
	// the feed is exhausted. Default: 3.
	IdleThreshold int

	prev       int
	zeroGrowth int
}

var _ Strategy = (*Scroll)(nil)

// NewScroll creates a scroll strategy counting cards via cardSelector.
func NewScroll(cardSelector string) *Scroll {
	return &Scroll{CardSelector: cardSelector, IdleThreshold: 3}
}

// Advance scrolls, waits for quiescence, and compares the card count with
// the previous observation.
func (s *Scroll) Advance(ctx context.Context, sess session.Session) Outcome {
	if s.IdleThreshold <= 0 {
		s.IdleThreshold = 3
	}

	if err := sess.ScrollBottom(ctx); err != nil {
		return failed("scroll", err)
	}
	if err := sess.WaitQuiet(ctx); err != nil {
		return failed("wait quiet", err)
	}

	count, err := sess.Count(ctx, s.CardSelector)
	if err != nil {
		return failed("count cards", err)
	}

	if count > s.prev {
		s.prev = count
		s.zeroGrowth = 0
		return Outcome{Kind: Advanced}
	}

	s.zeroGrowth++
	if s.zeroGrowth >= s.IdleThreshold {
		return Outcome{Kind: EndOfContent}
	}
	return Outcome{Kind: NoChange}
}
