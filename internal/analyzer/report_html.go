package analyzer

import (
	"fmt"
	"html"
	"strings"

	"github.com/anime-shed/image-compare-go/internal/processor"
)

// htmlTable accumulates a small HTML table for text results.
type htmlTable struct {
	b strings.Builder
}

func newHTMLTable(title string, headers ...string) *htmlTable {
	t := &htmlTable{}
	fmt.Fprintf(&t.b, "<h3>%s</h3>\n<table border=\"1\" cellpadding=\"4\">\n<tr>", html.EscapeString(title))
	for _, h := range headers {
		fmt.Fprintf(&t.b, "<th>%s</th>", html.EscapeString(h))
	}
	t.b.WriteString("</tr>\n")
	return t
}

// row writes cells verbatim; callers escape untrusted text with cell.
func (t *htmlTable) row(cells ...string) {
	t.b.WriteString("<tr>")
	for _, c := range cells {
		fmt.Fprintf(&t.b, "<td>%s</td>", c)
	}
	t.b.WriteString("</tr>\n")
}

func (t *htmlTable) String() string {
	return t.b.String() + "</table>\n"
}

func cell(s string) string { return html.EscapeString(s) }

func swatch(r DifferenceRange) string {
	return fmt.Sprintf("<span style=\"background-color:#%02x%02x%02x\">&nbsp;&nbsp;&nbsp;&nbsp;</span>",
		r.Color.R, r.Color.G, r.Color.B)
}

func pairCaption(first, second processor.Image) string {
	return fmt.Sprintf("<p>%s vs %s</p>\n", cell(first.DisplayName()), cell(second.DisplayName()))
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
