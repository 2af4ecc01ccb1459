package domain

// ComplianceReport holds aggregate SLA statistics for one reporting window.
type ComplianceReport struct {
	TotalTickets           int                 `json:"total_tickets"`
	ResolvedTickets        int                 `json:"resolved_tickets"`
	ResponseCompliance     float64             `json:"response_compliance"`
	ResolutionCompliance   float64             `json:"resolution_compliance"`
	ResponseBreaches       int                 `json:"response_breaches"`
	ResolutionBreaches     int                 `json:"resolution_breaches"`
	AvgResponseTimeHours   float64             `json:"avg_response_time_hours"`
	AvgResolutionTimeHours float64             `json:"avg_resolution_time_hours"`
	ByPriority             []PriorityBreakdown `json:"by_priority"`
	TopCategories          []CategoryBreakdown `json:"top_categories"`
}

// PriorityBreakdown counts tickets and breaches for one priority.
type PriorityBreakdown struct {
	Name               string `json:"name"`
	Total              int    `json:"total"`
	ResponseBreaches   int    `json:"response_breaches"`
	ResolutionBreaches int    `json:"resolution_breaches"`
}

// CategoryBreakdown counts tickets and breached tickets for one category.
type CategoryBreakdown struct {
	Name          string `json:"name"`
	Total         int    `json:"total"`
	TotalBreaches int    `json:"total_breaches"`
}
