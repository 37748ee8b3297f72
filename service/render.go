package service

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"

	"github.com/hazyhaar/revpull/pipeline"
)

// RenderMarkdown renders a run as a readable markdown report. Bodies that
// kept formatting are converted from their sanitized HTML; plain bodies
// pass through.
func RenderMarkdown(res *pipeline.Result) string {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)

	var b strings.Builder
	fmt.Fprintf(&b, "# Reviews — %s\n\n", res.URL)
	fmt.Fprintf(&b, "Run `%s` — status **%s**, %d records, %d iterations.\n\n",
		res.RunID, res.Status, len(res.Records), res.Iterations)
	if res.Error != "" {
		fmt.Fprintf(&b, "> %s: %s\n\n", res.Class, res.Error)
	}

	for _, rec := range res.Records {
		fmt.Fprintf(&b, "## %s", rec.Author)
		if rec.Rating > 0 {
			fmt.Fprintf(&b, " — %s", strings.Repeat("★", rec.Rating))
		}
		if rec.PublishedRaw != "" {
			fmt.Fprintf(&b, " — %s", rec.PublishedRaw)
		}
		b.WriteString("\n\n")

		body := rec.Body
		if rec.BodyHTML != "" {
			if md, err := conv.ConvertString(rec.BodyHTML); err == nil {
				body = strings.TrimSpace(md)
			}
		}
		b.WriteString(body)
		b.WriteString("\n\n")

		if rec.Reply != "" {
			fmt.Fprintf(&b, "> %s\n\n", rec.Reply)
		}
	}
	return b.String()
}
