package parse

// Selectors configures where the parser looks for each piece of a review.
// Every field is an ordered fallback chain: entries are tried in priority
// order and the first match wins, so minor markup drift degrades to a
// later entry instead of failing the parse. A selector may carry an
// "@attr" suffix to read an attribute instead of text content.
//
// The exact DOM of the target is not under our control; treat these as
// tunable configuration, not facts. Defaults match the map-listing markup
// observed at implementation time.
type Selectors struct {
	// Container locates the reviews feed. No match at all means the page
	// is not (or not yet) a reviews page and parsing fails.
	Container []string `yaml:"container"`

	// Card locates one review inside the container.
	Card []string `yaml:"card"`

	// CardID lists attributes of the card element that hold a stable id.
	CardID []string `yaml:"card_id"`

	Author []string `yaml:"author"`

	// RatingValue reads a numeric rating. RatingStars is the positional
	// fallback: the number of matches is the rating.
	RatingValue []string `yaml:"rating_value"`
	RatingStars []string `yaml:"rating_stars"`

	Date  []string `yaml:"date"`
	Body  []string `yaml:"body"`
	Reply []string `yaml:"reply"`
}

// DefaultSelectors returns the chains for the supported map-listing page.
func DefaultSelectors() Selectors {
	return Selectors{
		Container: []string{
			".business-reviews-card-view__reviews-container",
			"[role='list'][aria-label*='отзыв']",
		},
		Card: []string{
			".business-reviews-card-view__review",
			"[itemprop='review']",
		},
		CardID: []string{"data-review-id", "data-chunk-id"},
		Author: []string{
			"meta[itemprop='name']@content",
			".business-review-view__author-name",
			"a[href*='/user/']",
		},
		RatingValue: []string{
			"meta[itemprop='ratingValue']@content",
		},
		RatingStars: []string{
			".business-rating-badge-view__star._full",
		},
		Date: []string{
			"meta[itemprop='datePublished']@content",
			".business-review-view__date",
		},
		Body: []string{
			".business-review-view__body-text",
			"[itemprop='reviewBody']",
			".spoiler-view__text-container",
		},
		Reply: []string{
			".business-review-comment-content__bubble",
			".business-review-view__comment-text",
		},
	}
}

func (s *Selectors) applyDefaults() {
	def := DefaultSelectors()
	if len(s.Container) == 0 {
		s.Container = def.Container
	}
	if len(s.Card) == 0 {
		s.Card = def.Card
	}
	if len(s.CardID) == 0 {
		s.CardID = def.CardID
	}
	if len(s.Author) == 0 {
		s.Author = def.Author
	}
	if len(s.RatingValue) == 0 {
		s.RatingValue = def.RatingValue
	}
	if len(s.RatingStars) == 0 {
		s.RatingStars = def.RatingStars
	}
	if len(s.Date) == 0 {
		s.Date = def.Date
	}
	if len(s.Body) == 0 {
		s.Body = def.Body
	}
	if len(s.Reply) == 0 {
		s.Reply = def.Reply
	}
}
