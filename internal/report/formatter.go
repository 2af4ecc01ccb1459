// Package report renders compliance reports into deliverable documents.
package report

import (
	"bytes"
	"fmt"
	stdhtml "html"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/spec-kit/sla-reporting/internal/domain"
	"github.com/spec-kit/sla-reporting/internal/sla"
)

const dateLayout = "Jan 2, 2006"

// Document is a rendered compliance report.
type Document struct {
	Subject  string
	Markdown string
	HTML     string
	Text     string
}

var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown
)

func converter() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdown
}

// Render produces the HTML and plain-text forms of a report for the given window.
// Raw HTML in the Markdown source is never passed through; the colored
// compliance badges are substituted into the rendered HTML afterwards.
func Render(r domain.ComplianceReport, window domain.ReportWindow) (Document, error) {
	var badges []string
	source := buildMarkdown(r, window, cells{
		name: escapeMarkdown,
		percent: func(v float64) string {
			badges = append(badges, badge(v))
			return fmt.Sprintf("%c%d%c", badgeOpen, len(badges)-1, badgeClose)
		},
	})

	var body bytes.Buffer
	if err := converter().Convert([]byte(source), &body); err != nil {
		return Document{}, fmt.Errorf("render markdown: %w", err)
	}
	rendered := body.String()
	for i, b := range badges {
		rendered = strings.Replace(rendered, fmt.Sprintf("%c%d%c", badgeOpen, i, badgeClose), b, 1)
	}

	return Document{
		Subject:  Subject(window),
		Markdown: buildMarkdown(r, window, cells{name: escapeMarkdown, percent: plainPercent}),
		HTML:     wrapHTML(Subject(window), rendered),
		Text:     buildMarkdown(r, window, cells{name: plainName, percent: plainPercent}),
	}, nil
}

// Subject returns the mail subject line for a window.
func Subject(window domain.ReportWindow) string {
	return fmt.Sprintf("Weekly SLA Compliance Report: %s", windowLabel(window))
}

func windowLabel(window domain.ReportWindow) string {
	// End is exclusive; show the last included day.
	last := window.End.Add(-time.Nanosecond)
	return fmt.Sprintf("%s - %s", window.Start.Format(dateLayout), last.Format(dateLayout))
}

// Badge placeholders use private-use runes that names can never carry.
const (
	badgeOpen  = '\uE000'
	badgeClose = '\uE001'
)

// cells formats the user-controlled and rated values of the tables.
type cells struct {
	name    func(string) string
	percent func(float64) string
}

func buildMarkdown(r domain.ComplianceReport, window domain.ReportWindow, f cells) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# SLA Compliance Report\n\n")
	fmt.Fprintf(&b, "Reporting period: **%s**\n\n", windowLabel(window))

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Total tickets | %d |\n", r.TotalTickets)
	fmt.Fprintf(&b, "| Resolved tickets | %d |\n", r.ResolvedTickets)
	fmt.Fprintf(&b, "| Response compliance | %s |\n", f.percent(r.ResponseCompliance))
	fmt.Fprintf(&b, "| Resolution compliance | %s |\n", f.percent(r.ResolutionCompliance))
	fmt.Fprintf(&b, "| Response breaches | %d |\n", r.ResponseBreaches)
	fmt.Fprintf(&b, "| Resolution breaches | %d |\n", r.ResolutionBreaches)
	fmt.Fprintf(&b, "| Avg. first response | %s |\n", hours(r.AvgResponseTimeHours))
	fmt.Fprintf(&b, "| Avg. resolution | %s |\n", hours(r.AvgResolutionTimeHours))
	b.WriteString("\n")

	b.WriteString("## By priority\n\n")
	if len(r.ByPriority) == 0 {
		b.WriteString("No tickets in this period.\n\n")
	} else {
		b.WriteString("| Priority | Tickets | Response breaches | Resolution breaches |\n|---|---:|---:|---:|\n")
		for _, p := range r.ByPriority {
			fmt.Fprintf(&b, "| %s | %d | %d | %d |\n", f.name(p.Name), p.Total, p.ResponseBreaches, p.ResolutionBreaches)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Top categories\n\n")
	if len(r.TopCategories) == 0 {
		b.WriteString("No tickets in this period.\n")
	} else {
		b.WriteString("| Category | Tickets | Breached |\n|---|---:|---:|\n")
		for _, c := range r.TopCategories {
			fmt.Fprintf(&b, "| %s | %d | %d |\n", f.name(c.Name), c.Total, c.TotalBreaches)
		}
	}

	return b.String()
}

func plainPercent(v float64) string {
	return fmt.Sprintf("%.1f%% (%s)", v, sla.Rate(v).Label)
}

func badge(v float64) string {
	rating := sla.Rate(v)
	return fmt.Sprintf(`<span style="color:%s;font-weight:bold">%.1f%%</span> %s`,
		rating.Color, v, stdhtml.EscapeString(rating.Label))
}

func hours(v float64) string {
	return fmt.Sprintf("%.1f h", v)
}

// escapeMarkdown backslash-escapes every ASCII punctuation character so a name
// renders as literal text: no links, emphasis, raw HTML or cell breaks.
func escapeMarkdown(s string) string {
	var b strings.Builder
	for _, c := range plainName(s) {
		if c < utf8.RuneSelf && (unicode.IsPunct(c) || unicode.IsSymbol(c)) {
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// plainName keeps a name on one table row and drops badge placeholder runes.
func plainName(s string) string {
	return strings.Map(func(c rune) rune {
		switch c {
		case '\n', '\r':
			return ' '
		case badgeOpen, badgeClose:
			return -1
		}
		return c
	}, s)
}

func wrapHTML(title, body string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>")
	b.WriteString(stdhtml.EscapeString(title))
	b.WriteString("</title></head>\n<body style=\"font-family:Arial,sans-serif\">\n")
	b.WriteString(body)
	b.WriteString("</body></html>\n")
	return b.String()
}
