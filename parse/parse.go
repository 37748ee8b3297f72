// Package parse converts one markup snapshot into candidate review
// records. It is pure: no network, no browser, no shared state, so it is
// unit-testable against fixed markup fixtures. Field extraction walks an
// ordered chain of selectors per field; the first success wins.
package parse

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/revpull/review"
)

// StructureError reports that the reviews container itself is absent: the
// page is genuinely not a reviews page, or has not rendered yet. Missing
// per-card fields never raise it.
type StructureError struct {
	Missing string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("parse: structure not recognized: no %s found", e.Missing)
}

// Parser extracts review records from markup snapshots.
type Parser struct {
	sel      Selectors
	sanitize *bluemonday.Policy
	now      func() time.Time
}

// Option configures a Parser.
type Option func(*Parser)

// WithNow overrides the clock used to complete year-less dates.
func WithNow(fn func() time.Time) Option {
	return func(p *Parser) { p.now = fn }
}

// New creates a Parser. Zero-value fields of sel fall back to the default
// chains.
func New(sel Selectors, opts ...Option) *Parser {
	sel.applyDefaults()
	p := &Parser{
		sel:      sel,
		sanitize: bluemonday.UGCPolicy(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Parse extracts all review cards from one markup snapshot, in document
// order. A card missing both author and body is dropped, not emitted as an
// empty record.
func (p *Parser) Parse(markup string) ([]review.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, &StructureError{Missing: "parseable document"}
	}

	container := findFirst(doc.Selection, p.sel.Container)
	if container == nil {
		return nil, &StructureError{Missing: "reviews container"}
	}

	cards := findCards(container, p.sel.Card)

	var records []review.Record
	cards.Each(func(_ int, card *goquery.Selection) {
		rec, ok := p.parseCard(card)
		if ok {
			records = append(records, rec)
		}
	})
	return records, nil
}

func (p *Parser) parseCard(card *goquery.Selection) (review.Record, bool) {
	author, _ := firstText(card, p.sel.Author)
	body, bodyNode := firstTextNode(card, p.sel.Body)

	// An empty shell (ad slot, placeholder) is dropped.
	if author == "" && body == "" {
		return review.Record{}, false
	}

	rec := review.Record{
		Author: author,
		Body:   body,
		Rating: p.parseRating(card),
	}

	if raw, ok := firstText(card, p.sel.Date); ok {
		rec.PublishedRaw = raw
		if t, parsed := review.ParseDate(raw, p.now()); parsed {
			rec.PublishedAt = t
		}
	}

	if reply, ok := firstText(card, p.sel.Reply); ok {
		rec.Reply = reply
	}

	if bodyNode != nil {
		if inner, err := bodyNode.Html(); err == nil {
			clean := strings.TrimSpace(p.sanitize.Sanitize(inner))
			// Only worth keeping when formatting survived sanitation.
			if strings.Contains(clean, "<") {
				rec.BodyHTML = clean
			}
		}
	}

	rec.ID = p.cardID(card, rec)
	return rec, true
}

// cardID prefers a markup-provided id and falls back to deterministic
// derivation from the record's own fields.
func (p *Parser) cardID(card *goquery.Selection, rec review.Record) string {
	for _, attr := range p.sel.CardID {
		if v, ok := card.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return review.DeriveID(rec.Author, rec.PublishedRaw, rec.Body)
}

// parseRating tries the numeric chain first, then counts filled stars.
// Anything outside 1..5 means absent.
func (p *Parser) parseRating(card *goquery.Selection) int {
	if raw, ok := firstText(card, p.sel.RatingValue); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			r := int(f + 0.5)
			if r >= 1 && r <= 5 {
				return r
			}
		}
	}
	for _, sel := range p.sel.RatingStars {
		if n := card.Find(sel).Length(); n >= 1 && n <= 5 {
			return n
		}
	}
	return 0
}
