package parse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// splitAttr splits a "selector@attr" entry. attr is empty for plain text
// selectors.
func splitAttr(entry string) (selector, attr string) {
	if i := strings.LastIndex(entry, "@"); i > 0 {
		return entry[:i], entry[i+1:]
	}
	return entry, ""
}

// findFirst returns the first selection matched by any entry of the chain,
// or nil when nothing matches.
func findFirst(root *goquery.Selection, chain []string) *goquery.Selection {
	for _, entry := range chain {
		sel, _ := splitAttr(entry)
		if m := root.Find(sel); m.Length() > 0 {
			return m.First()
		}
	}
	return nil
}

// findCards returns all elements matched by the first chain entry with any
// matches, preserving document order.
func findCards(root *goquery.Selection, chain []string) *goquery.Selection {
	for _, entry := range chain {
		if m := root.Find(entry); m.Length() > 0 {
			return m
		}
	}
	return root.Find(chain[0]) // empty selection
}

// firstText resolves a field chain to normalized text. ok is false when no
// entry matched or the match was empty.
func firstText(card *goquery.Selection, chain []string) (string, bool) {
	text, _, ok := resolve(card, chain)
	return text, ok
}

// firstTextNode is firstText plus the matched node, for callers that also
// need the node's inner HTML.
func firstTextNode(card *goquery.Selection, chain []string) (string, *goquery.Selection) {
	text, node, _ := resolve(card, chain)
	return text, node
}

func resolve(card *goquery.Selection, chain []string) (string, *goquery.Selection, bool) {
	for _, entry := range chain {
		sel, attr := splitAttr(entry)
		m := card.Find(sel)
		if m.Length() == 0 {
			continue
		}
		m = m.First()

		var raw string
		if attr != "" {
			raw, _ = m.Attr(attr)
		} else {
			raw = m.Text()
		}
		if text := normalize(raw); text != "" {
			return text, m, true
		}
	}
	return "", nil, false
}

// normalize collapses runs of whitespace, the way rendered text is
// displayed.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
