package sla

// Rating is the display band for a compliance percentage.
type Rating struct {
	Label string
	Color string
}

var ratingBands = []struct {
	min    float64
	rating Rating
}{
	{95, Rating{Label: "Excellent", Color: "#1e8e3e"}},
	{80, Rating{Label: "Good", Color: "#188038"}},
	{60, Rating{Label: "Needs Improvement", Color: "#e37400"}},
}

var criticalRating = Rating{Label: "Critical", Color: "#d93025"}

// Rate maps a compliance percentage to its display band.
func Rate(percent float64) Rating {
	for _, band := range ratingBands {
		if percent >= band.min {
			return band.rating
		}
	}
	return criticalRating
}
