package reveal

import (
	"context"
	"testing"

	"github.com/hazyhaar/revpull/session"
)

// fakeSession scripts the session primitives the strategies use.
type fakeSession struct {
	counts     []int  // successive Count results; the last repeats
	countIdx   int
	clickFound []bool // successive Click results; the last repeats
	clickIdx   int
	clickErr   error
	scrollErr  error
	clicks     int
	scrolls    int
}

func (f *fakeSession) Open(ctx context.Context, url string) error { return nil }
func (f *fakeSession) HTML(ctx context.Context) (string, error)   { return "", nil }
func (f *fakeSession) Close() error                               { return nil }
func (f *fakeSession) WaitQuiet(ctx context.Context) error        { return nil }

func (f *fakeSession) Count(ctx context.Context, selector string) (int, error) {
	if len(f.counts) == 0 {
		return 0, nil
	}
	i := f.countIdx
	if i >= len(f.counts) {
		i = len(f.counts) - 1
	}
	f.countIdx++
	return f.counts[i], nil
}

func (f *fakeSession) Click(ctx context.Context, selector string) (bool, error) {
	f.clicks++
	if f.clickErr != nil {
		return false, f.clickErr
	}
	if len(f.clickFound) == 0 {
		return false, nil
	}
	i := f.clickIdx
	if i >= len(f.clickFound) {
		i = len(f.clickFound) - 1
	}
	f.clickIdx++
	return f.clickFound[i], nil
}

func (f *fakeSession) ScrollBottom(ctx context.Context) error {
	f.scrolls++
	return f.scrollErr
}

var _ session.Session = (*fakeSession)(nil)

func TestScroll_GrowthAdvances(t *testing.T) {
	// WHAT: A growing card count yields Advanced and resets idle tracking.
	// WHY: Growth is the signal that scrolling surfaced new content.
	fs := &fakeSession{counts: []int{10, 20, 20, 20, 20}}
	s := NewScroll(".card")
	ctx := context.Background()

	if out := s.Advance(ctx, fs); out.Kind != Advanced {
		t.Fatalf("first advance = %v, want advanced", out.Kind)
	}
	if out := s.Advance(ctx, fs); out.Kind != Advanced {
		t.Fatalf("second advance = %v, want advanced", out.Kind)
	}
	// Three zero-growth observations in a row exhaust the feed.
	if out := s.Advance(ctx, fs); out.Kind != NoChange {
		t.Fatalf("got %v, want no_change", out.Kind)
	}
	if out := s.Advance(ctx, fs); out.Kind != NoChange {
		t.Fatalf("got %v, want no_change", out.Kind)
	}
	if out := s.Advance(ctx, fs); out.Kind != EndOfContent {
		t.Fatalf("got %v, want end_of_content", out.Kind)
	}
}

func TestScroll_GrowthResetsIdleCounter(t *testing.T) {
	// WHAT: Growth between idle observations restarts the countdown.
	// WHY: Slow feeds pause and resume; one stall is not the end.
	fs := &fakeSession{counts: []int{10, 10, 20, 20, 20, 20}}
	s := NewScroll(".card")
	ctx := context.Background()

	kinds := []Kind{}
	for i := 0; i < 6; i++ {
		kinds = append(kinds, s.Advance(ctx, fs).Kind)
	}
	want := []Kind{Advanced, NoChange, Advanced, NoChange, NoChange, EndOfContent}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("step %d = %v, want %v (all: %v)", i, kinds[i], want[i], kinds)
		}
	}
}

func TestScroll_SessionErrorFails(t *testing.T) {
	// WHAT: A scroll error produces Failed wrapping a reveal.Error.
	// WHY: The pipeline retries Failed outcomes with backoff.
	fs := &fakeSession{scrollErr: &session.RenderError{Reason: "gone"}}
	s := NewScroll(".card")

	out := s.Advance(context.Background(), fs)
	if out.Kind != Failed {
		t.Fatalf("got %v, want failed", out.Kind)
	}
	if out.Err == nil {
		t.Fatal("Failed outcome without error")
	}
}

func TestClick_ControlPresent(t *testing.T) {
	// WHAT: Clicking an existing control yields Advanced.
	fs := &fakeSession{clickFound: []bool{true, true, false}}
	c := NewClick(".load-more")
	ctx := context.Background()

	if out := c.Advance(ctx, fs); out.Kind != Advanced {
		t.Fatalf("got %v, want advanced", out.Kind)
	}
	if out := c.Advance(ctx, fs); out.Kind != Advanced {
		t.Fatalf("got %v, want advanced", out.Kind)
	}
	if out := c.Advance(ctx, fs); out.Kind != EndOfContent {
		t.Fatalf("got %v, want end_of_content", out.Kind)
	}
}

func TestAuto_ClickThenScroll(t *testing.T) {
	// WHAT: Auto uses the button until it disappears, then scrolls.
	// WHY: Mixed pagination: a button for early batches, scroll after.
	fs := &fakeSession{
		clickFound: []bool{true, false},
		counts:     []int{30, 30, 30},
	}
	a := NewAuto(NewClick(".load-more"), NewScroll(".card"))
	ctx := context.Background()

	if out := a.Advance(ctx, fs); out.Kind != Advanced {
		t.Fatalf("got %v, want advanced (click)", out.Kind)
	}
	// Control gone: same call falls through to scroll, which sees growth
	// from 0 to 30 on its first observation.
	if out := a.Advance(ctx, fs); out.Kind != Advanced {
		t.Fatalf("got %v, want advanced (scroll takeover)", out.Kind)
	}
	if fs.scrolls == 0 {
		t.Error("scroll fallback never ran")
	}
	// The click strategy is not consulted again.
	clicksAfterTakeover := fs.clicks
	a.Advance(ctx, fs)
	if fs.clicks != clicksAfterTakeover {
		t.Error("click strategy consulted after takeover")
	}
}

func TestExpandAll_ClicksWholePassBeforeSettling(t *testing.T) {
	// WHAT: One pass keeps clicking until no control remains, not one
	// click per pass.
	// WHY: A long feed has one expander per truncated body; all of them
	// must open, not just the first few.
	fs := &fakeSession{clickFound: []bool{true, true, true, false}}
	if err := ExpandAll(context.Background(), fs, ".expand", 10); err != nil {
		t.Fatalf("ExpandAll: %v", err)
	}
	// Three hits and a miss in pass one, then the empty pass that ends it.
	if fs.clicks != 5 {
		t.Errorf("clicks = %d, want 5", fs.clicks)
	}
}

func TestExpandAll_BoundedWhenControlsPersist(t *testing.T) {
	// WHAT: ExpandAll terminates even when the selector always matches.
	// WHY: A page that re-renders expanders forever must not hang the run.
	fs := &fakeSession{clickFound: []bool{true}}
	if err := ExpandAll(context.Background(), fs, ".expand", 2); err != nil {
		t.Fatalf("ExpandAll: %v", err)
	}
	if fs.clicks == 0 || fs.clicks > 2*maxClicksPerPass {
		t.Errorf("clicks = %d, want 1..%d", fs.clicks, 2*maxClicksPerPass)
	}
}

func TestExpandAll_StopsWhenGone(t *testing.T) {
	// WHAT: ExpandAll returns once a pass finds nothing to click.
	fs := &fakeSession{clickFound: []bool{false}}
	if err := ExpandAll(context.Background(), fs, ".expand", 10); err != nil {
		t.Fatalf("ExpandAll: %v", err)
	}
	if fs.clicks != 1 {
		t.Errorf("clicks = %d, want 1", fs.clicks)
	}
}

func TestExpandAll_ClickErrorsTolerated(t *testing.T) {
	// WHAT: A click failure ends the pass without error.
	// WHY: Truncated bodies are cosmetic; the run's records still stand.
	fs := &fakeSession{clickErr: &session.RenderError{Reason: "detached"}}
	if err := ExpandAll(context.Background(), fs, ".expand", 10); err != nil {
		t.Errorf("ExpandAll: %v", err)
	}
}
