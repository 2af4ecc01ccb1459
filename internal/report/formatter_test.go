package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-reporting/internal/domain"
)

var window = domain.ReportWindow{
	Start: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
}

func sampleReport() domain.ComplianceReport {
	return domain.ComplianceReport{
		TotalTickets:           12,
		ResolvedTickets:        9,
		ResponseCompliance:     91.66,
		ResolutionCompliance:   55,
		ResponseBreaches:       1,
		ResolutionBreaches:     4,
		AvgResponseTimeHours:   2.5,
		AvgResolutionTimeHours: 30.26,
		ByPriority: []domain.PriorityBreakdown{
			{Name: "High", Total: 8, ResponseBreaches: 1, ResolutionBreaches: 3},
			{Name: "No Priority", Total: 4, ResolutionBreaches: 1},
		},
		TopCategories: []domain.CategoryBreakdown{
			{Name: "Payroll|GL", Total: 7, TotalBreaches: 3},
			{Name: "Benefits", Total: 5, TotalBreaches: 1},
		},
	}
}

func TestRender(t *testing.T) {
	doc, err := Render(sampleReport(), window)
	require.NoError(t, err)

	assert.Equal(t, "Weekly SLA Compliance Report: Mar 2, 2026 - Mar 8, 2026", doc.Subject)
	assert.True(t, strings.HasPrefix(doc.HTML, "<!DOCTYPE html>"))
	assert.Contains(t, doc.HTML, "<table>")
	assert.Contains(t, doc.HTML, "91.7%")
	assert.Contains(t, doc.HTML, "Good")
	assert.Contains(t, doc.HTML, "Critical")
	assert.Contains(t, doc.HTML, "Payroll|GL")
	assert.Contains(t, doc.HTML, "30.3 h")

	assert.NotContains(t, doc.Text, "<span")
	assert.Contains(t, doc.Text, "55.0% (Critical)")
}

func TestRender_EmptyReport(t *testing.T) {
	doc, err := Render(domain.ComplianceReport{ResponseCompliance: 100, ResolutionCompliance: 100}, window)
	require.NoError(t, err)

	assert.Contains(t, doc.Text, "100.0% (Excellent)")
	assert.Contains(t, doc.Text, "No tickets in this period.")
	assert.NotContains(t, doc.HTML, "<th>Priority</th>")
}

func TestRender_NamesAreLiteralText(t *testing.T) {
	r := sampleReport()
	r.TopCategories = []domain.CategoryBreakdown{
		{Name: "[Billing](javascript:alert(1)) **x**", Total: 3},
		{Name: "<img src=x onerror=alert(1)>", Total: 2},
		{Name: "R<D & 0", Total: 1},
	}
	r.ByPriority = []domain.PriorityBreakdown{{Name: "![p](http://evil.test/p.png)", Total: 6}}

	doc, err := Render(r, window)
	require.NoError(t, err)

	assert.NotContains(t, doc.HTML, "<a ")
	assert.NotContains(t, doc.HTML, "href=")
	assert.NotContains(t, doc.HTML, "<img")
	assert.NotContains(t, doc.HTML, "<strong>x</strong>")
	assert.Contains(t, doc.HTML, "[Billing](javascript:alert(1)) **x**")
	assert.Contains(t, doc.HTML, "&lt;img src=x onerror=alert(1)&gt;")
	assert.Contains(t, doc.HTML, "R&lt;D &amp; ")
	// Only the two compliance badges carry markup.
	assert.Equal(t, 2, strings.Count(doc.HTML, "<span"))
}

func TestRender_TextKeepsNamesVerbatim(t *testing.T) {
	r := sampleReport()
	r.TopCategories = []domain.CategoryBreakdown{{Name: "R<D\nOps", Total: 1}}

	doc, err := Render(r, window)
	require.NoError(t, err)

	assert.Contains(t, doc.Text, "| R<D Ops | 1 | 0 |")
	assert.NotContains(t, doc.Text, "&lt;")
	assert.NotContains(t, doc.Text, `\`)
}
