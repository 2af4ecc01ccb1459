package sla

import (
	"time"

	"github.com/spec-kit/sla-reporting/internal/domain"
)

// BreachKind names which SLA clock a discrepancy concerns.
type BreachKind string

const (
	BreachKindResponse   BreachKind = "response"
	BreachKindResolution BreachKind = "resolution"
)

// BreachDiscrepancy records a ticket whose stored breach flag disagrees with
// the flag implied by its priority targets.
type BreachDiscrepancy struct {
	TicketID string
	Kind     BreachKind
	Flagged  bool
	Computed bool
}

// AuditBreaches recomputes breach flags from priority target hours and returns
// every disagreement with the stored flags. Aggregate never uses this result;
// the stored flags stay authoritative. Tickets without a priority, or with a
// non-positive target, are skipped for that clock.
func AuditBreaches(tickets []domain.Ticket, now time.Time) []BreachDiscrepancy {
	var out []BreachDiscrepancy
	for i := range tickets {
		t := &tickets[i]
		if t.Priority == nil {
			continue
		}
		if computed, ok := breached(t.CreatedAt, t.FirstResponseAt, t.Priority.ResponseTargetHours, now); ok && computed != t.SLABreachResponse {
			out = append(out, BreachDiscrepancy{TicketID: t.ID, Kind: BreachKindResponse, Flagged: t.SLABreachResponse, Computed: computed})
		}
		if computed, ok := breached(t.CreatedAt, t.ResolvedAt, t.Priority.ResolutionTargetHours, now); ok && computed != t.SLABreachResolution {
			out = append(out, BreachDiscrepancy{TicketID: t.ID, Kind: BreachKindResolution, Flagged: t.SLABreachResolution, Computed: computed})
		}
	}
	return out
}

func breached(start time.Time, done *time.Time, targetHours float64, now time.Time) (bool, bool) {
	if targetHours <= 0 {
		return false, false
	}
	deadline := start.Add(time.Duration(targetHours * float64(time.Hour)))
	if done != nil {
		return done.After(deadline), true
	}
	return now.After(deadline), true
}
