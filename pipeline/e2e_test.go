package pipeline

import (
	"context"
	"testing"

	"github.com/hazyhaar/revpull/parse"
	"github.com/hazyhaar/revpull/reveal"
)

// End-to-end over real markup: scripted session snapshots in the target's
// card structure, the real parser, a scripted reveal strategy.

const fixtureTwo = `<html><body>
<div class="business-reviews-card-view__reviews-container">
	<div class="business-reviews-card-view__review" data-review-id="A">
		<span class="business-review-view__author-name">Анна</span>
		<meta itemprop="ratingValue" content="5">
		<span class="business-review-view__date">12 января 2024</span>
		<span class="business-review-view__body-text">Отличное место</span>
	</div>
	<div class="business-reviews-card-view__review" data-review-id="B">
		<span class="business-review-view__author-name">Борис</span>
		<span class="business-review-view__date">3 марта</span>
		<span class="business-review-view__body-text">Нормально</span>
	</div>
</div>
</body></html>`

const fixtureThree = `<html><body>
<div class="business-reviews-card-view__reviews-container">
	<div class="business-reviews-card-view__review" data-review-id="A">
		<span class="business-review-view__author-name">Анна</span>
		<span class="business-review-view__body-text">Отличное место</span>
	</div>
	<div class="business-reviews-card-view__review" data-review-id="B">
		<span class="business-review-view__author-name">Борис</span>
		<span class="business-review-view__body-text">Нормально</span>
	</div>
	<div class="business-reviews-card-view__review" data-review-id="C">
		<span class="business-review-view__author-name">Вера</span>
		<span class="business-review-view__body-text">Не понравилось</span>
	</div>
</div>
</body></html>`

func TestE2E_StaticFeedCompletes(t *testing.T) {
	// WHAT: Three cards, no growth across snapshots: after the no-new
	// threshold the run completes with [A, B, C].
	sess := &scriptSession{snaps: []snap{{html: fixtureThree}}}
	strat := &scriptStrategy{outs: []reveal.Outcome{{Kind: reveal.NoChange}}}
	parser := parse.New(parse.Selectors{})

	res := New(sess, strat, parser, fastCfg(), testLogger()).Run(context.Background(), "http://x")

	if res.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", res.Status)
	}
	got := ids(res.Records)
	want := []string{"A", "B", "C"}
	if len(got) != 3 {
		t.Fatalf("records = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("records = %v, want %v", got, want)
		}
	}
}

func TestE2E_GrowingFeedThenEnd(t *testing.T) {
	// WHAT: Snapshot 1 has [A,B]; the reveal advances; snapshot 2 has
	// [A,B,C] and the strategy reports EndOfContent. Output preserves
	// first-seen order and dedups A and B.
	sess := &scriptSession{snaps: []snap{{html: fixtureTwo}, {html: fixtureThree}}}
	strat := &scriptStrategy{outs: []reveal.Outcome{
		{Kind: reveal.Advanced},
		{Kind: reveal.EndOfContent},
	}}
	parser := parse.New(parse.Selectors{})

	res := New(sess, strat, parser, fastCfg(), testLogger()).Run(context.Background(), "http://x")

	if res.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", res.Status)
	}
	got := ids(res.Records)
	want := []string{"A", "B", "C"}
	if len(got) != 3 {
		t.Fatalf("records = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("records = %v, want %v", got, want)
		}
	}
	// Fields survived the trip through the real parser.
	if res.Records[0].Author != "Анна" || res.Records[0].Rating != 5 {
		t.Errorf("record A = %+v", res.Records[0])
	}
}
