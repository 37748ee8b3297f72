package reveal

import (
	"context"

	"github.com/hazyhaar/revpull/session"
)

// maxClicksPerPass caps one pass. Clicking a control collapses it, so a
// render with more matches than this means the selector hits something
// that never goes away.
const maxClicksPerPass = 100

// ExpandAll clicks every visible body-truncation control ("more" links).
// One pass clicks controls until none match, then waits for the page to
// settle; passes repeat while a re-render surfaces new controls, bounded
// by maxPasses. Individual click failures are tolerated: a control that
// detaches mid-click just disappears from the next pass. Runs after the
// feed has stopped growing, before the final snapshot.
func ExpandAll(ctx context.Context, sess session.Session, selector string, maxPasses int) error {
	if selector == "" {
		return nil
	}
	if maxPasses <= 0 {
		maxPasses = 10
	}

	for pass := 0; pass < maxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		clicked := 0
		for clicked < maxClicksPerPass {
			found, err := sess.Click(ctx, selector)
			if err != nil {
				// Truncated bodies are cosmetic; never fail the run over them.
				return nil
			}
			if !found {
				break
			}
			clicked++
		}
		if clicked == 0 {
			return nil
		}
		if err := sess.WaitQuiet(ctx); err != nil {
			return nil
		}
	}
	return nil
}
