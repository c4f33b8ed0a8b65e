package report

import (
	"fmt"
	"html"
	"strings"
)

const reportFileName = "report.html"

type section struct {
	title string
	body  string
}

// document aggregates text results and the run summary into report.html.
type document struct {
	title    string
	sections []section
}

func (d *document) append(title, body string) {
	d.sections = append(d.sections, section{title: title, body: body})
}

func (d *document) render(s *Summary) []byte {
	var b strings.Builder
	title := html.EscapeString(d.title)
	fmt.Fprintf(&b, "<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>%s</title></head>\n<body>\n<h1>%s</h1>\n", title, title)

	for _, sec := range d.sections {
		fmt.Fprintf(&b, "<section>\n<h2>%s</h2>\n%s</section>\n", html.EscapeString(sec.title), sec.body)
	}

	if s != nil {
		fmt.Fprintf(&b, "<h2>Summary</h2>\n<p>%d of %d comparators succeeded (%s).</p>\n", s.Succeeded(), s.Total, s.Outcome())
		if s.Cancelled {
			b.WriteString("<p>The run was cancelled.</p>\n")
		}
		b.WriteString("<ul>\n")
		for _, e := range s.Entries {
			switch {
			case e.Err != nil:
				fmt.Fprintf(&b, "<li>%s: failed: %s</li>\n", html.EscapeString(e.Processor), html.EscapeString(e.Err.Error()))
			case e.Artifact != "":
				a := html.EscapeString(e.Artifact)
				fmt.Fprintf(&b, "<li>%s: <a href=\"%s\">%s</a></li>\n", html.EscapeString(e.Processor), a, a)
			default:
				fmt.Fprintf(&b, "<li>%s: ok</li>\n", html.EscapeString(e.Processor))
			}
		}
		b.WriteString("</ul>\n")
	}

	b.WriteString("</body>\n</html>\n")
	return []byte(b.String())
}
