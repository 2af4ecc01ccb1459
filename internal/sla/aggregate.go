// Package sla computes SLA compliance statistics over a window of tickets.
//
// Everything in this package is pure: no I/O, no shared state. Callers own
// fetching the ticket window and delivering the resulting report.
package sla

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/spec-kit/sla-reporting/internal/domain"
)

const (
	// NoPriority names the group for tickets without a priority.
	NoPriority = "No Priority"
	// Uncategorized names the group for tickets without a category.
	Uncategorized = "Uncategorized"
	// TopCategoryLimit caps the number of categories in a report.
	TopCategoryLimit = 5
)

// Aggregate builds the compliance report for tickets already filtered to a
// reporting window. The result does not depend on the order of tickets.
//
// ByPriority and TopCategories are sorted by ticket count, highest first.
// Groups with equal counts are ordered by name ascending, not by the order in
// which they first appear in tickets.
func Aggregate(tickets []domain.Ticket) domain.ComplianceReport {
	if len(tickets) == 0 {
		return emptyReport()
	}

	var (
		resolved           int
		responded          int
		timedResolutions   int
		responseBreaches   int
		resolutionBreaches int
		responseMicros     int64
		resolutionMicros   int64
	)

	priorities := newGrouping[domain.PriorityBreakdown]()
	categories := newGrouping[domain.CategoryBreakdown]()

	for i := range tickets {
		t := &tickets[i]

		if t.Status.IsResolved() {
			resolved++
		}
		if t.SLABreachResponse {
			responseBreaches++
		}
		if t.SLABreachResolution {
			resolutionBreaches++
		}
		if t.FirstResponseAt != nil {
			responded++
			responseMicros += t.FirstResponseAt.Sub(t.CreatedAt).Microseconds()
		}
		// Resolution time follows the timestamp, not the status.
		if t.ResolvedAt != nil {
			timedResolutions++
			resolutionMicros += t.ResolvedAt.Sub(t.CreatedAt).Microseconds()
		}

		p := priorities.get(priorityName(t))
		p.Total++
		if t.SLABreachResponse {
			p.ResponseBreaches++
		}
		if t.SLABreachResolution {
			p.ResolutionBreaches++
		}

		c := categories.get(categoryName(t))
		c.Total++
		if t.SLABreachResponse || t.SLABreachResolution {
			c.TotalBreaches++
		}
	}

	byPriority := priorities.sorted(func(p *domain.PriorityBreakdown, name string) int {
		p.Name = name
		return p.Total
	})
	topCategories := categories.sorted(func(c *domain.CategoryBreakdown, name string) int {
		c.Name = name
		return c.Total
	})
	if len(topCategories) > TopCategoryLimit {
		topCategories = topCategories[:TopCategoryLimit]
	}

	return domain.ComplianceReport{
		TotalTickets:           len(tickets),
		ResolvedTickets:        resolved,
		ResponseCompliance:     compliance(responded, responseBreaches),
		ResolutionCompliance:   compliance(resolved, resolutionBreaches),
		ResponseBreaches:       responseBreaches,
		ResolutionBreaches:     resolutionBreaches,
		AvgResponseTimeHours:   meanHours(responseMicros, responded),
		AvgResolutionTimeHours: meanHours(resolutionMicros, timedResolutions),
		ByPriority:             byPriority,
		TopCategories:          topCategories,
	}
}

func emptyReport() domain.ComplianceReport {
	return domain.ComplianceReport{
		ResponseCompliance:   100,
		ResolutionCompliance: 100,
		ByPriority:           []domain.PriorityBreakdown{},
		TopCategories:        []domain.CategoryBreakdown{},
	}
}

// compliance returns the non-breached share of eligible tickets in [0,100].
// Breaches are counted over the whole window, so they can exceed eligible.
func compliance(eligible, breaches int) float64 {
	if eligible == 0 {
		return 100
	}
	pct := 100 * float64(eligible-breaches) / float64(eligible)
	return math.Max(0, math.Min(100, pct))
}

func meanHours(totalMicros int64, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(totalMicros) / float64(n) / float64(time.Hour/time.Microsecond)
}

func priorityName(t *domain.Ticket) string {
	if t.Priority == nil || strings.TrimSpace(t.Priority.Name) == "" {
		return NoPriority
	}
	return t.Priority.Name
}

func categoryName(t *domain.Ticket) string {
	if t.Category == nil || strings.TrimSpace(t.Category.Name) == "" {
		return Uncategorized
	}
	return t.Category.Name
}

// grouping accumulates breakdown rows keyed by name.
type grouping[T any] struct {
	rows map[string]*T
}

func newGrouping[T any]() *grouping[T] {
	return &grouping[T]{rows: make(map[string]*T)}
}

func (g *grouping[T]) get(name string) *T {
	row, ok := g.rows[name]
	if !ok {
		row = new(T)
		g.rows[name] = row
	}
	return row
}

// sorted returns rows by total descending, ties by name ascending.
// finalize stamps the name onto the row and returns its total.
func (g *grouping[T]) sorted(finalize func(row *T, name string) int) []T {
	type entry struct {
		name  string
		total int
		row   *T
	}
	entries := make([]entry, 0, len(g.rows))
	for name, row := range g.rows {
		entries = append(entries, entry{name: name, total: finalize(row, name), row: row})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].total != entries[j].total {
			return entries[i].total > entries[j].total
		}
		return entries[i].name < entries[j].name
	})

	out := make([]T, 0, len(entries))
	for _, e := range entries {
		out = append(out, *e.row)
	}
	return out
}
